package animator

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
)

// player is the implementation of the Player interface.
type player struct {
	time    float32
	speed   float32
	looping bool
	samples []Sample
}

// Player drives a scene's timelines from one playback clock.
//
// Timelines are evaluated once per frame by Update, and every animation that references a
// timeline reads the shared Sample when Apply writes its channels into node transforms.
// A Player is not safe for concurrent use.
type Player interface {
	// Time returns the playback time in seconds.
	//
	// Returns:
	//   - float32: the current playback time
	Time() float32

	// SetTime jumps the playback clock to t seconds.
	//
	// Parameters:
	//   - t: the new playback time
	SetTime(t float32)

	// Advance moves the playback clock by delta seconds scaled by the playback speed.
	//
	// Parameters:
	//   - delta: elapsed wall time in seconds
	Advance(delta float32)

	// Speed returns the playback speed multiplier.
	//
	// Returns:
	//   - float32: the speed multiplier (1.0 = normal)
	Speed() float32

	// SetSpeed sets the playback speed multiplier.
	//
	// Parameters:
	//   - speed: the speed multiplier (1.0 = normal, 0.5 = half speed)
	SetSpeed(speed float32)

	// Looping reports whether timelines wrap at their duration.
	//
	// Returns:
	//   - bool: true if playback loops
	Looping() bool

	// SetLooping selects between wrapping and holding the last frame.
	//
	// Parameters:
	//   - looping: true to wrap time at each timeline's duration
	SetLooping(looping bool)

	// Update evaluates the listed timelines at the current time.
	//
	// Parameters:
	//   - timeLines: every timeline of the scene
	//   - active: the indices of the timelines to evaluate this frame
	Update(timeLines []model.TimeLine, active []int)

	// Sample returns the last evaluated position of a timeline.
	//
	// Parameters:
	//   - timeLine: the timeline index
	//
	// Returns:
	//   - Sample: the frame and fraction, zero if the timeline was never evaluated
	Sample(timeLine int) Sample

	// Apply interpolates every channel of an animation into the node transforms.
	//
	// Parameters:
	//   - anim: the animation to apply
	//   - locals: the local transforms of every node, indexed by node
	Apply(anim *model.Animation, locals []model.Transform)
}

var _ Player = &player{}

// NewPlayer creates a Player at time zero, normal speed, looping.
//
// Parameters:
//   - options: optional PlayerBuilderOption functions
//
// Returns:
//   - Player: the new player
func NewPlayer(options ...PlayerBuilderOption) Player {
	p := &player{
		speed:   1,
		looping: true,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *player) Time() float32 {
	return p.time
}

func (p *player) SetTime(t float32) {
	p.time = t
}

func (p *player) Advance(delta float32) {
	p.time += delta * p.speed
}

func (p *player) Speed() float32 {
	return p.speed
}

func (p *player) SetSpeed(speed float32) {
	p.speed = speed
}

func (p *player) Looping() bool {
	return p.looping
}

func (p *player) SetLooping(looping bool) {
	p.looping = looping
}

func (p *player) Update(timeLines []model.TimeLine, active []int) {
	if len(p.samples) < len(timeLines) {
		p.samples = append(p.samples, make([]Sample, len(timeLines)-len(p.samples))...)
	}
	for _, i := range active {
		if p.looping {
			p.samples[i] = Evaluate(&timeLines[i], p.time)
		} else {
			p.samples[i] = Clamp(&timeLines[i], p.time)
		}
	}
}

func (p *player) Sample(timeLine int) Sample {
	if timeLine < 0 || timeLine >= len(p.samples) {
		return Sample{}
	}
	return p.samples[timeLine]
}

func (p *player) Apply(anim *model.Animation, locals []model.Transform) {
	for i := range anim.Channels {
		ch := &anim.Channels[i]
		if ch.Node < 0 || ch.Node >= len(locals) {
			continue
		}
		ApplyChannel(ch, p.Sample(ch.TimeLine), &locals[ch.Node])
	}
}

// ApplyChannel writes the interpolated components of one channel into a transform.
// Components the channel does not animate are left unchanged.
//
// Parameters:
//   - ch: the channel
//   - s: the evaluated sample of the channel's timeline
//   - local: the node transform to write
func ApplyChannel(ch *model.Channel, s Sample, local *model.Transform) {
	if len(ch.Translation) > 0 {
		i, j := bracket(len(ch.Translation), s.Frame)
		local.Translation = common.Lerp3(ch.Translation[i], ch.Translation[j], s.Fraction)
	}
	if len(ch.Rotation) > 0 {
		i, j := bracket(len(ch.Rotation), s.Frame)
		local.Rotation = common.QuatLerp(ch.Rotation[i], ch.Rotation[j], s.Fraction)
	}
	if len(ch.Scale) > 0 {
		i, j := bracket(len(ch.Scale), s.Frame)
		local.Scale = common.Lerp3(ch.Scale[i], ch.Scale[j], s.Fraction)
	}
}

// bracket clamps a frame and its successor to a sample array of length n.
func bracket(n, frame int) (int, int) {
	i := min(max(frame, 0), n-1)
	return i, min(i+1, n-1)
}
