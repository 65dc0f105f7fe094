package loader

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithConversion is an option builder that overrides the shader conversion derived from
// the backend capabilities.
//
// Parameters:
//   - conv: the conversion applied to every loaded technique
//
// Returns:
//   - LoaderBuilderOption: a function that applies the conversion option to a loader
func WithConversion(conv shader.Conversion) LoaderBuilderOption {
	return func(l *loader) {
		l.conv = conv.Normalized()
	}
}

// WithBaseDir is an option builder that sets the directory relative URIs of in-memory
// scenes resolve against.
//
// Parameters:
//   - dir: the base directory
//
// Returns:
//   - LoaderBuilderOption: a function that applies the base directory option to a loader
func WithBaseDir(dir string) LoaderBuilderOption {
	return func(l *loader) {
		l.baseDir = dir
	}
}

// WithAllowExternal is an option builder that controls whether URIs may reference files on
// disk. It defaults to true; when disabled only data: URIs and the binary blob are accepted.
//
// Parameters:
//   - allow: whether file URIs are resolved
//
// Returns:
//   - LoaderBuilderOption: a function that applies the option to a loader
func WithAllowExternal(allow bool) LoaderBuilderOption {
	return func(l *loader) {
		l.allowExternal = allow
	}
}

// WithSceneOptions is an option builder that appends options passed to every scene the
// loader creates.
//
// Parameters:
//   - options: the scene options
//
// Returns:
//   - LoaderBuilderOption: a function that applies the scene options to a loader
func WithSceneOptions(options ...scene.SceneBuilderOption) LoaderBuilderOption {
	return func(l *loader) {
		l.sceneOptions = append(l.sceneOptions, options...)
	}
}
