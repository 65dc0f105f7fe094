package recorder

import "github.com/Carmen-Shannon/oxy-scene/engine/gfx"

// RecorderBuilderOption is a functional option for configuring a Recorder during construction.
type RecorderBuilderOption func(*recorder)

// WithCaps is an option builder that sets the capabilities the recorder reports.
//
// Parameters:
//   - caps: the capability profile
//
// Returns:
//   - RecorderBuilderOption: a function that applies the caps option to a recorder
func WithCaps(caps gfx.Caps) RecorderBuilderOption {
	return func(r *recorder) {
		r.caps = caps
	}
}

// WithFailure is an option builder that makes every creation of a resource kind fail with err.
//
// Parameters:
//   - kind: the resource kind to fail
//   - err: the error returned by the create call
//
// Returns:
//   - RecorderBuilderOption: a function that applies the failure option to a recorder
func WithFailure(kind Kind, err error) RecorderBuilderOption {
	return func(r *recorder) {
		r.failures[kind] = err
	}
}
