package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

// LoaderBackendType identifies the scene file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the JSON document / binary container backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	gfx           gfx.Backend
	conv          shader.Conversion
	baseDir       string
	allowExternal bool
	sceneOptions  []scene.SceneBuilderOption

	sceneCache map[string]scene.Scene

	backend loaderBackend
}

// Loader defines the public-facing interface for loading scene documents into runtime
// scenes. It abstracts the file format behind a backend and keeps every loaded scene
// under a name until it is unloaded.
type Loader interface {
	// Load imports a scene file and caches the result by path.
	// If the path is already cached, the cached scene is returned.
	// The backend is selected based on the file extension (.gltf/.glb).
	//
	// Parameters:
	//   - path: the file path to the scene document or binary container
	//
	// Returns:
	//   - scene.Scene: the loaded scene
	//   - error: error if loading fails; no partial scene is ever returned
	Load(path string) (scene.Scene, error)

	// LoadBytes imports a scene held in memory and caches it by name. Relative URIs
	// resolve against the loader's base directory.
	//
	// Parameters:
	//   - name: the cache key and scene name
	//   - data: the JSON document or binary container bytes
	//
	// Returns:
	//   - scene.Scene: the loaded scene
	//   - error: error if loading fails
	LoadBytes(name string, data []byte) (scene.Scene, error)

	// LoadReader reads a scene from a stream and loads it like LoadBytes.
	//
	// Parameters:
	//   - name: the cache key and scene name
	//   - r: the reader providing the document or container
	//
	// Returns:
	//   - scene.Scene: the loaded scene
	//   - error: error if reading or loading fails
	LoadReader(name string, r io.Reader) (scene.Scene, error)

	// Get retrieves a cached scene by name. Returns nil if not found.
	Get(name string) scene.Scene

	// Scenes returns a copy of the scene cache.
	//
	// Returns:
	//   - map[string]scene.Scene: all cached scenes keyed by name
	Scenes() map[string]scene.Scene

	// Unload destroys a cached scene and removes it from the cache.
	//
	// Parameters:
	//   - name: the cache key of the scene
	//
	// Returns:
	//   - bool: whether a scene was cached under name
	Unload(name string) bool

	// Conversion returns the shader conversion applied to loaded techniques.
	Conversion() shader.Conversion
}

var _ Loader = &loader{}

// NewLoader creates a new Loader creating resources on the given graphics backend.
// The shader conversion defaults to the one the backend's capabilities imply.
//
// Parameters:
//   - backend: the graphics backend receiving every resource of loaded scenes
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backend gfx.Backend, backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:            sync.RWMutex{},
		gfx:           backend,
		conv:          shader.ConversionForCaps(backend.Caps()),
		allowExternal: true,
		sceneCache:    make(map[string]scene.Scene),
	}
	for _, option := range options {
		option(l)
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(backend, l.conv, l.allowExternal)
	}
	return l
}

func (l *loader) Load(path string) (scene.Scene, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}
	data, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return l.store(path, data)
}

func (l *loader) LoadBytes(name string, data []byte) (scene.Scene, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	loaded, err := l.backend.LoadBytes(data, l.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", name, err)
	}
	return l.store(name, loaded)
}

func (l *loader) LoadReader(name string, r io.Reader) (scene.Scene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", name, err)
	}
	return l.LoadBytes(name, data)
}

func (l *loader) Get(name string) scene.Scene {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sceneCache[name]
}

func (l *loader) Scenes() map[string]scene.Scene {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]scene.Scene, len(l.sceneCache))
	for k, v := range l.sceneCache {
		result[k] = v
	}
	return result
}

func (l *loader) Unload(name string) bool {
	l.mu.Lock()
	s, ok := l.sceneCache[name]
	delete(l.sceneCache, name)
	l.mu.Unlock()

	if ok {
		s.Destroy()
	}
	return ok
}

func (l *loader) Conversion() shader.Conversion {
	return l.conv
}

// resolveBackend selects an appropriate loader backend based on the file extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported scene format: %s", ext)
	}
}

// store wraps loaded data in a scene and caches it. When another goroutine cached the
// same name first, the new scene is destroyed and the cached one returned.
func (l *loader) store(name string, data *scene.Data) (scene.Scene, error) {
	options := append([]scene.SceneBuilderOption{
		scene.WithName(name),
		scene.WithConversion(l.conv),
	}, l.sceneOptions...)

	s, err := scene.NewScene(l.gfx, data, options...)
	if err != nil {
		data.Release(l.gfx)
		return nil, fmt.Errorf("failed to create scene %q: %w", name, err)
	}

	l.mu.Lock()
	if cached, ok := l.sceneCache[name]; ok {
		l.mu.Unlock()
		s.Destroy()
		return cached, nil
	}
	l.sceneCache[name] = s
	l.mu.Unlock()

	common.Logger().Debug("scene loaded", "name", name, "nodes", len(data.Nodes))
	return s, nil
}
