package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/container"
	"github.com/Carmen-Shannon/oxy-scene/engine/document"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	backend gfx.Backend
	conv    shader.Conversion
}

// gltfImporter defines the interface for turning a parsed document into scene tables.
// Sections load one after another in dependency order, node references are linked last,
// and backend resources are created as each entity finishes loading.
type gltfImporter interface {
	// Import loads every section of a parsed document.
	//
	// Parameters:
	//   - parser: a parser holding a successfully parsed document
	//
	// Returns:
	//   - *scene.Data: the linked entity tables
	//   - error: a load error, or the joined LinkErrors of a failed link; resources created
	//     before the failure are released
	Import(parser gltfParser) (*scene.Data, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates an importer creating resources on backend.
//
// Parameters:
//   - backend: the backend receiving buffers, textures, programs, geometries and pipelines
//   - conv: the shader conversion applied to techniques without a native program
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter(backend gfx.Backend, conv shader.Conversion) gltfImporter {
	return &gltfImporterImpl{backend: backend, conv: conv}
}

// gltfImport is the state of one import in progress.
type gltfImport struct {
	backend  gfx.Backend
	caps     gfx.Caps
	conv     shader.Conversion
	root     document.Node
	resolver *container.Resolver
	data     *scene.Data

	names    map[string]*model.NameIndex
	linkErrs []error

	// timeLines maps an accessor to the timeline reading it.
	timeLines map[int]int
	// geometries maps a geometry key to its index.
	geometries map[string]int
	// wide maps an 8-bit index accessor to its 16-bit copy.
	wide map[int]int
	// nodeSkeletons holds the skeleton ids of each node in storage order.
	nodeSkeletons [][]string
}

func (imp *gltfImporterImpl) Import(parser gltfParser) (*scene.Data, error) {
	st := &gltfImport{
		backend:    imp.backend,
		caps:       imp.backend.Caps(),
		conv:       imp.conv,
		root:       parser.Document(),
		resolver:   parser.Resolver(),
		data:       &scene.Data{},
		names:      make(map[string]*model.NameIndex),
		timeLines:  make(map[int]int),
		geometries: make(map[string]int),
		wide:       make(map[int]int),
	}

	steps := []struct {
		section string
		load    func() error
	}{
		{sectionBuffers, st.loadBuffers},
		{sectionBufferViews, st.loadBufferViews},
		{sectionAccessors, st.loadAccessors},
		{sectionImages, st.loadImages},
		{sectionSamplers, st.loadSamplers},
		{sectionTextures, st.loadTextures},
		{sectionShaders, st.loadShaders},
		{sectionPrograms, st.loadPrograms},
		{sectionTechniques, st.loadTechniques},
		{sectionMaterials, st.loadMaterials},
		{sectionMeshes, st.loadMeshes},
		{sectionAnimations, st.loadAnimations},
		{sectionSkins, st.loadSkins},
		{sectionCameras, st.loadCameras},
		{sectionNodes, st.loadNodes},
		{sectionScenes, st.loadScenes},
		{"links", st.link},
	}
	for _, step := range steps {
		err := step.load()
		if err == nil && len(st.linkErrs) > 0 {
			err = errors.Join(st.linkErrs...)
		}
		if err != nil {
			st.data.Release(imp.backend)
			return nil, fmt.Errorf("failed to load %s: %w", step.section, err)
		}
		common.Logger().Debug("section loaded", "section", step.section, "count", st.section(step.section).ChildCount())
	}
	return st.data, nil
}

// section returns a top-level document section, a null node when absent.
func (st *gltfImport) section(name string) document.Node {
	return st.root.ChildByName(name)
}

// ids returns the member names of an object section in document order.
func ids(sec document.Node) []string {
	out := make([]string, sec.ChildCount())
	for i := range out {
		out[i] = sec.Name(i)
	}
	return out
}

// index builds the name index of a loaded section.
func (st *gltfImport) index(section string, names []string) *model.NameIndex {
	idx := model.NewNameIndex(names)
	st.names[section] = idx
	return idx
}

// resolve looks up an id in an earlier section. An empty id is no reference; a missing
// one records a LinkError and resolves to model.None.
func (st *gltfImport) resolve(kind, id, referrer string) int {
	if id == "" {
		return model.None
	}
	if i, ok := st.names[kind].Find(id); ok {
		return i
	}
	st.linkErrs = append(st.linkErrs, &LinkError{Kind: kind, Name: id, Referrer: referrer})
	return model.None
}

// ref resolves the string id held by a document node.
func (st *gltfImport) ref(kind string, n document.Node, referrer string) int {
	return st.resolve(kind, n.String(""), referrer)
}

// floats reads a numeric array member, or returns nil when absent.
func floats(n document.Node) []float32 {
	if !n.IsArray() {
		return nil
	}
	out := make([]float32, n.ChildCount())
	n.Floats(out)
	return out
}

// stringList reads an array of strings, skipping other elements.
func stringList(n document.Node) []string {
	var out []string
	for i := range n.ChildCount() {
		if s := n.Child(i); s.IsString() {
			out = append(out, s.String(""))
		}
	}
	return out
}

// matrix reads a 16-element column-major matrix member, or returns def when absent.
func matrix(n document.Node, def [16]float32) [16]float32 {
	if n.ChildCount() != 16 {
		return def
	}
	var m [16]float32
	n.Floats(m[:])
	return m
}

// uri fetches the bytes of an entity stored at a URI or, with the binary extension, in a
// buffer view of the binary blob.
func (st *gltfImport) uri(n document.Node, referrer string) ([]byte, string, error) {
	if ext := n.ChildByName("extensions").ChildByName(extBinary); ext.IsObject() {
		v := st.ref(sectionBufferViews, ext.ChildByName("bufferView"), referrer)
		if v == model.None {
			return nil, "", nil
		}
		return st.viewBytes(v), ext.ChildByName("mimeType").String(""), nil
	}
	u := n.ChildByName("uri").String("")
	if u == "" {
		return nil, "", nil
	}
	data, mime, err := st.resolver.Resolve(u)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", referrer, err)
	}
	return data, mime, nil
}
