package scene

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene's identifier.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithConversion sets the shader conversion the scene's techniques were adapted with.
// It decides the number of views and the packing of the view/projection buffer.
// Defaults to the backend's default conversion.
//
// Parameters:
//   - conv: the conversion used by the loader
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithConversion(conv shader.Conversion) SceneBuilderOption {
	return func(s *scene) {
		s.conv = conv.Normalized()
	}
}

// WithPlayer replaces the default playback clock.
//
// Parameters:
//   - p: the player driving the scene's timelines
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPlayer(p animator.Player) SceneBuilderOption {
	return func(s *scene) {
		s.player = p
	}
}

// WithCulling enables or disables frustum culling. Culling is enabled by default.
//
// Parameters:
//   - enabled: false to draw every visible surface
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCulling(enabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.culling = enabled
	}
}
