package loader

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	importer      gltfImporter
	allowExternal bool
}

// gltfLoaderBackend is a loaderBackend implementation for JSON scene documents and their
// binary containers. It delegates to a fresh gltfParser per load and a shared gltfImporter.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new document loader backend.
//
// Parameters:
//   - backend: the graphics backend resources are created on
//   - conv: the shader conversion applied to techniques
//   - allowExternal: whether URIs may reference files on disk
//
// Returns:
//   - gltfLoaderBackend: the loader backend
func newGLTFLoaderBackend(backend gfx.Backend, conv shader.Conversion, allowExternal bool) gltfLoaderBackend {
	return &gltfLoaderBackendImpl{
		importer:      newGLTFImporter(backend, conv),
		allowExternal: allowExternal,
	}
}

func (b *gltfLoaderBackendImpl) Load(path string) (*scene.Data, error) {
	p := newGLTFParser(b.allowExternal)
	if err := p.Parse(path); err != nil {
		return nil, err
	}
	return b.importer.Import(p)
}

func (b *gltfLoaderBackendImpl) LoadBytes(data []byte, baseDir string) (*scene.Data, error) {
	p := newGLTFParser(b.allowExternal)
	if err := p.ParseBytes(data, baseDir); err != nil {
		return nil, err
	}
	return b.importer.Import(p)
}
