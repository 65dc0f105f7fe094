package animator

// PlayerBuilderOption is a functional option for configuring a Player during construction.
type PlayerBuilderOption func(*player)

// WithSpeed is an option builder that sets the initial playback speed.
//
// Parameters:
//   - speed: the speed multiplier
//
// Returns:
//   - PlayerBuilderOption: a function that applies the speed option to a player
func WithSpeed(speed float32) PlayerBuilderOption {
	return func(p *player) {
		p.speed = speed
	}
}

// WithStartTime is an option builder that sets the initial playback time.
//
// Parameters:
//   - t: the start time in seconds
//
// Returns:
//   - PlayerBuilderOption: a function that applies the start time option to a player
func WithStartTime(t float32) PlayerBuilderOption {
	return func(p *player) {
		p.time = t
	}
}

// WithLooping is an option builder that selects wrapping or clamped playback.
//
// Parameters:
//   - looping: true to wrap time at each timeline's duration
//
// Returns:
//   - PlayerBuilderOption: a function that applies the looping option to a player
func WithLooping(looping bool) PlayerBuilderOption {
	return func(p *player) {
		p.looping = looping
	}
}
