package loader

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

// loaderBackend defines the generic interface for turning scene files into entity tables.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load imports the scene stored at path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *scene.Data: the loaded entity tables
	//   - error: error if loading fails
	Load(path string) (*scene.Data, error)

	// LoadBytes imports a scene held in memory.
	//
	// Parameters:
	//   - data: the file contents
	//   - baseDir: the directory relative URIs resolve against
	//
	// Returns:
	//   - *scene.Data: the loaded entity tables
	//   - error: error if loading fails
	LoadBytes(data []byte, baseDir string) (*scene.Data, error)
}
