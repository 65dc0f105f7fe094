package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-scene/engine/container"
	"github.com/Carmen-Shannon/oxy-scene/engine/document"
)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	allowExternal bool
	root          document.Node
	resolver      *container.Resolver
}

// gltfParser defines the interface for reading a scene document, either as plain JSON text
// or wrapped in a binary container, and for fetching the resources its URIs reference.
type gltfParser interface {
	// Parse reads and parses a scene file. Relative URIs resolve against the file's directory.
	//
	// Parameters:
	//   - path: path to the JSON document or binary container
	//
	// Returns:
	//   - error: error if the file cannot be read or parsed
	Parse(path string) error

	// ParseBytes parses a scene held in memory.
	//
	// Parameters:
	//   - data: the JSON document or binary container bytes
	//   - baseDir: the directory relative URIs resolve against
	//
	// Returns:
	//   - error: a container error or a document parse error
	ParseBytes(data []byte, baseDir string) error

	// Document returns the root of the parsed document, nil before a successful parse.
	Document() document.Node

	// Resolver returns the URI resolver of the parsed scene.
	Resolver() *container.Resolver
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a parser.
//
// Parameters:
//   - allowExternal: whether URIs may reference files next to the document
//
// Returns:
//   - gltfParser: the parser
func newGLTFParser(allowExternal bool) gltfParser {
	return &gltfParserImpl{allowExternal: allowExternal}
}

func (p *gltfParserImpl) Parse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return p.ParseBytes(data, filepath.Dir(path))
}

func (p *gltfParserImpl) ParseBytes(data []byte, baseDir string) error {
	content := data
	var blob []byte
	if container.IsContainer(data) {
		c, err := container.Parse(data)
		if err != nil {
			return fmt.Errorf("failed to read container: %w", err)
		}
		content, blob = c.Content, c.Binary
	}

	root, err := document.Parse(content)
	if err != nil {
		return err
	}
	if !root.IsObject() {
		return fmt.Errorf("document root is %s, want object", root.Kind())
	}

	p.root = root
	p.resolver = &container.Resolver{
		BaseDir:       baseDir,
		Binary:        blob,
		AllowExternal: p.allowExternal,
	}
	return nil
}

func (p *gltfParserImpl) Document() document.Node {
	return p.root
}

func (p *gltfParserImpl) Resolver() *container.Resolver {
	return p.resolver
}
