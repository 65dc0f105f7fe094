package animator

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeLine_DetectsFixedRate(t *testing.T) {
	fixed := NewTimeLine(3, []float32{0, 0.25, 0.5, 0.75, 1})
	assert.Equal(t, 3, fixed.Accessor)
	assert.Equal(t, float32(1), fixed.Duration)
	assert.InDelta(t, 4, fixed.RcpStep, 1e-5)

	variable := NewTimeLine(0, []float32{0, 0.1, 0.5, 1})
	assert.Zero(t, variable.RcpStep)

	single := NewTimeLine(0, []float32{2})
	assert.Zero(t, single.RcpStep)
	assert.Equal(t, float32(2), single.Duration)
}

func TestEvaluate_TwoSamples(t *testing.T) {
	tl := NewTimeLine(0, []float32{0, 1})

	s := Evaluate(&tl, 0.5)
	assert.Equal(t, 0, s.Frame)
	assert.InDelta(t, 0.5, s.Fraction, 1e-6)

	s = Evaluate(&tl, 1.5)
	assert.Equal(t, 0, s.Frame)
	assert.InDelta(t, 0.5, s.Fraction, 1e-6)

	s = Evaluate(&tl, -0.25)
	assert.Equal(t, 0, s.Frame)
	assert.InDelta(t, 0.75, s.Fraction, 1e-6)
}

func TestEvaluate_FixedRateMatchesSearch(t *testing.T) {
	times := make([]float32, 31)
	for i := range times {
		times[i] = float32(i) / 30
	}
	fixed := NewTimeLine(0, times)
	require.Greater(t, fixed.RcpStep, float32(0))
	searched := fixed
	searched.RcpStep = 0

	sampleAt := func(at float32) {
		a := Clamp(&fixed, at)
		b := Clamp(&searched, at)
		assert.Equal(t, b.Frame, a.Frame, "frame at %v", at)
		assert.InDelta(t, b.Fraction, a.Fraction, 1e-5, "fraction at %v", at)
	}
	for i, at := range times {
		sampleAt(at)
		if i+1 < len(times) {
			sampleAt(at + (times[i+1]-at)*0.3)
			sampleAt(at + (times[i+1]-at)*0.999)
		}
	}
}

func TestEvaluate_Clamps(t *testing.T) {
	tl := NewTimeLine(0, []float32{0.5, 1, 2})

	assert.Equal(t, Sample{}, Clamp(&tl, 0.1))
	assert.Equal(t, Sample{Frame: 1, Fraction: 1}, Clamp(&tl, 5))

	empty := NewTimeLine(0, nil)
	assert.Equal(t, Sample{}, Evaluate(&empty, 3))
}

func TestPlayer_ApplyInterpolatesChannels(t *testing.T) {
	timeLines := []model.TimeLine{NewTimeLine(0, []float32{0, 1})}
	anim := model.Animation{
		TimeLines: []int{0},
		Channels: []model.Channel{{
			Node:        1,
			TimeLine:    0,
			Translation: [][3]float32{{0, 0, 0}, {2, 4, 6}},
			Rotation:    [][4]float32{{0, 0, 0, 1}, {0, 0, 0, 1}},
		}},
	}
	locals := []model.Transform{model.IdentityTransform(), model.IdentityTransform()}

	p := NewPlayer(WithStartTime(0.25), WithSpeed(2))
	p.Advance(0.125)
	assert.InDelta(t, 0.5, p.Time(), 1e-6)

	p.Update(timeLines, anim.TimeLines)
	p.Apply(&anim, locals)

	assert.InDeltaSlice(t, []float32{1, 2, 3}, locals[1].Translation[:], 1e-5)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, locals[1].Rotation)
	assert.Equal(t, [3]float32{1, 1, 1}, locals[1].Scale)
	assert.Equal(t, model.IdentityTransform(), locals[0])
}

func TestPlayer_NonLoopingHoldsLastFrame(t *testing.T) {
	timeLines := []model.TimeLine{NewTimeLine(0, []float32{0, 1})}
	p := NewPlayer(WithLooping(false), WithStartTime(3))
	p.Update(timeLines, []int{0})
	assert.Equal(t, Sample{Frame: 0, Fraction: 1}, p.Sample(0))
	assert.Equal(t, Sample{}, p.Sample(7))
}
