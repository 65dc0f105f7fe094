package scene

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
)

// Data holds the immutable entity tables of a loaded document. Nodes are stored in
// hierarchy order and every cross reference is an index into these slices.
type Data struct {
	Buffers     []model.Buffer
	BufferViews []model.BufferView
	Accessors   []model.Accessor
	Images      []model.Image
	Samplers    []model.Sampler
	Textures    []model.Texture
	Shaders     []model.Shader
	Programs    []model.Program
	Techniques  []model.Technique
	Materials   []model.Material
	Geometries  []model.Geometry
	Models      []model.Model
	Animations  []model.Animation
	TimeLines   []model.TimeLine
	Skins       []model.Skin
	Cameras     []model.Camera
	Nodes       []model.Node
	SubTrees    []model.SubTree
	SubScenes   []model.SubScene

	// DefaultSubScene is the sub-scene displayed after loading.
	DefaultSubScene int

	NodeNames      *model.NameIndex
	SubSceneNames  *model.NameIndex
	AnimationNames *model.NameIndex
}

// Release destroys every backend resource referenced by the tables, in reverse creation
// order, and clears the handles. It is safe to call on partially loaded data.
//
// Parameters:
//   - b: the backend that created the resources
func (d *Data) Release(b gfx.Backend) {
	for i := range d.Skins {
		if d.Skins[i].GPU != 0 {
			b.DestroyBuffer(d.Skins[i].GPU)
			d.Skins[i].GPU = 0
		}
	}
	for i := range d.Models {
		for j := range d.Models[i].Surfaces {
			if s := &d.Models[i].Surfaces[j]; s.Pipeline != 0 {
				b.DestroyPipeline(s.Pipeline)
				s.Pipeline = 0
			}
		}
	}
	for i := range d.Geometries {
		if d.Geometries[i].GPU != 0 {
			b.DestroyGeometry(d.Geometries[i].GPU)
			d.Geometries[i].GPU = 0
		}
	}
	for i := range d.Techniques {
		if d.Techniques[i].GPU != 0 {
			b.DestroyProgram(d.Techniques[i].GPU)
			d.Techniques[i].GPU = 0
		}
	}
	for i := range d.Textures {
		if d.Textures[i].GPU != 0 {
			b.DestroyTexture(d.Textures[i].GPU)
			d.Textures[i].GPU = 0
		}
	}
	for i := range d.BufferViews {
		if d.BufferViews[i].GPU != 0 {
			b.DestroyBuffer(d.BufferViews[i].GPU)
			d.BufferViews[i].GPU = 0
		}
	}
}

// Counts returns the number of entities of every kind, keyed by section name.
func (d *Data) Counts() map[string]int {
	return map[string]int{
		"buffers":     len(d.Buffers),
		"bufferViews": len(d.BufferViews),
		"accessors":   len(d.Accessors),
		"images":      len(d.Images),
		"samplers":    len(d.Samplers),
		"textures":    len(d.Textures),
		"shaders":     len(d.Shaders),
		"programs":    len(d.Programs),
		"techniques":  len(d.Techniques),
		"materials":   len(d.Materials),
		"geometries":  len(d.Geometries),
		"meshes":      len(d.Models),
		"animations":  len(d.Animations),
		"timelines":   len(d.TimeLines),
		"skins":       len(d.Skins),
		"cameras":     len(d.Cameras),
		"nodes":       len(d.Nodes),
		"subtrees":    len(d.SubTrees),
		"scenes":      len(d.SubScenes),
	}
}

// modelNode returns the node whose global transform places a node's models: the node
// itself, or for skinned nodes the skin's parent node (model.None for the scene root).
func (d *Data) modelNode(node int) int {
	if s := d.Nodes[node].Skin; s != model.None {
		return d.Skins[s].Parent
	}
	return node
}
