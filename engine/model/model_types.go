package model

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// None marks an absent index reference.
const None = -1

// --- Transform ---

// Transform represents a decomposed transform for animation interpolation.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32
}

// IdentityTransform returns the transform that leaves points unchanged.
func IdentityTransform() Transform {
	return Transform{
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}

// Matrix composes the transform into a column-major matrix (T * R * S).
func (t Transform) Matrix() [16]float32 {
	var m [16]float32
	common.ComposeTRS(m[:], t.Translation, t.Rotation, t.Scale)
	return m
}

// --- Raw data ---

// Buffer is raw byte storage.
type Buffer struct {
	Name       string
	ByteLength int
	Data       []byte
}

// BufferView is a byte sub-range of a buffer.
type BufferView struct {
	Name       string
	Buffer     int
	ByteOffset int
	ByteLength int
	// Target is wgpu.BufferUsageVertex, wgpu.BufferUsageIndex, or zero when unspecified.
	Target wgpu.BufferUsage
	// GPU is created the first time a geometry references the view.
	GPU gfx.Buffer
}

// Accessor is a typed, strided view into a buffer view.
type Accessor struct {
	Name          string
	BufferView    int
	ByteOffset    int
	ByteStride    int
	ComponentType int
	Type          AccessorType
	Count         int
	Min, Max      []float32
}

// ElementSize returns the tightly packed byte size of one element.
func (a *Accessor) ElementSize() int {
	return ComponentSize(a.ComponentType) * a.Type.Components()
}

// Stride returns the distance in bytes between consecutive elements.
func (a *Accessor) Stride() int {
	if a.ByteStride > 0 {
		return a.ByteStride
	}
	return a.ElementSize()
}

// Bounds returns the accessor min/max as a box, or an empty box when absent.
func (a *Accessor) Bounds() common.AABB {
	b := common.EmptyAABB()
	if len(a.Min) >= 3 && len(a.Max) >= 3 {
		b.ExtendPoint([3]float32{a.Min[0], a.Min[1], a.Min[2]})
		b.ExtendPoint([3]float32{a.Max[0], a.Max[1], a.Max[2]})
	}
	return b
}

// --- Images & textures ---

// ImageVersion is one encoding of an image.
type ImageVersion struct {
	// Container names the encoding: "ktx" for compressed containers, otherwise the
	// sniffed file extension of an uncompressed image (png, jpg, ...).
	Container string
	// Format is the backend internal format the version decodes to.
	Format wgpu.TextureFormat
	URI    string
	// Data holds the encoded bytes when the version is embedded in the document's binary blob.
	Data []byte
}

// Image is a picture with one or more encoded versions. The last version is always
// the uncompressed default.
type Image struct {
	Name     string
	Versions []ImageVersion
}

// Sampler holds texture filtering and addressing state.
type Sampler struct {
	Name string
	Data common.SamplerStagingData
}

// Texture binds a chosen image version and a sampler to an uploaded GPU texture.
type Texture struct {
	Name    string
	Image   int
	Version int
	Sampler int
	GPU     gfx.Texture
}

// --- Shaders & techniques ---

// ShaderStage identifies the pipeline stage a shader runs in.
type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StageFragment
)

// ShaderVersion is a native source variant for one graphics API.
type ShaderVersion struct {
	API     wgpu.BackendType
	Version int
	Source  string
}

// Shader holds the baseline source of one stage plus optional native variants.
type Shader struct {
	Name     string
	Stage    ShaderStage
	Source   string
	Versions []ShaderVersion
}

// Program pairs one vertex and one fragment shader.
type Program struct {
	Name           string
	VertexShader   int
	FragmentShader int
	Attributes     []string
}

// Attribute is one technique vertex input.
type Attribute struct {
	// Name is the shader attribute identifier.
	Name     string
	Semantic AttributeSemantic
	Location uint32
	Format   wgpu.VertexFormat
}

// Parameter is one technique uniform parameter.
type Parameter struct {
	// Name is the technique parameter id.
	Name string
	// Uniform is the shader identifier the parameter feeds, empty for attribute parameters.
	Uniform  string
	Type     gfx.ValueType
	Count    int
	Semantic Semantic
	// Node is the explicitly bound node, or None. NodeName keeps the reference until linking.
	Node     int
	NodeName string
	// Value is the default value: float data, or a texture index in Texture.
	Value   []float32
	Texture int
	Stages  wgpu.ShaderStage
	// Binding and Offset carry the explicit layout assigned by shader adaptation.
	Binding      int
	Offset       int
	PushConstant bool
}

// Technique is a compiled program plus its vertex layout, uniform list and fixed state.
type Technique struct {
	Name       string
	Program    int
	Attributes []Attribute
	Parameters []Parameter
	State      pipeline.Pipeline
	// Native is true when a backend-specific shader version was used as-is.
	Native bool
	// Fallback is true when the default position-only program replaced the document's program.
	Fallback bool
	GPU      gfx.Program
}

// MaterialValue overrides one technique parameter.
type MaterialValue struct {
	Parameter int
	Value     []float32
	Texture   int
}

// Material references a technique and supplies parameter values.
type Material struct {
	Name      string
	Technique int
	Values    []MaterialValue
}

// --- Geometry ---

// GeometryAttribute is one vertex stream of a geometry.
type GeometryAttribute struct {
	Semantic AttributeSemantic
	Accessor int
}

// Geometry is a deduplicated set of vertex and index streams.
type Geometry struct {
	Key         string
	Attributes  []GeometryAttribute
	Indices     int
	VertexCount int
	IndexCount  int
	GPU         gfx.Geometry
}

// Surface is one drawable piece of a model.
type Surface struct {
	Material int
	Geometry int
	Pipeline gfx.Pipeline
	Bounds   common.AABB
}

// Model is a named group of surfaces.
type Model struct {
	Name     string
	Surfaces []Surface
	Bounds   common.AABB
}

// --- Skins ---

// Joint is one entry of a skin's ordered joint list.
type Joint struct {
	// Name is the jointName the skin references.
	Name string
	Node int
}

// Skin binds a skeleton to geometry.
type Skin struct {
	Name   string
	Joints []Joint
	// InverseBindMatrices has the bind-shape matrix folded in.
	InverseBindMatrices [][16]float32
	// JointBounds are optional per-joint local-space bounds used for culling.
	JointBounds []common.AABB
	// Parent is the common ancestor above the whole skeleton, or None.
	Parent int
	// Skeletons holds the skeleton root nodes named by the node that instantiates the skin.
	Skeletons     []int
	SkeletonNames []string
	GPU           gfx.Buffer
}

// --- Animation ---

// TimeLine is a shared sequence of sample times.
type TimeLine struct {
	// Accessor is the sample-time accessor the timeline was built from.
	Accessor int
	Times    []float32
	Duration float32
	// RcpStep is the reciprocal of the fixed sample spacing, or 0 for variable-rate data.
	RcpStep float32
}

// Channel animates the transform components of one node on one timeline.
type Channel struct {
	Node        int
	NodeName    string
	TimeLine    int
	Translation [][3]float32
	Rotation    [][4]float32
	Scale       [][3]float32
}

// Animation is a set of channels.
type Animation struct {
	Name      string
	TimeLines []int
	Channels  []Channel
}

// --- Cameras & nodes ---

// CameraType selects the projection model.
type CameraType int

const (
	CameraPerspective CameraType = iota
	CameraOrthographic
)

// Camera holds projection parameters.
type Camera struct {
	Name        string
	Type        CameraType
	AspectRatio float32
	YFov        float32
	XMag, YMag  float32
	ZNear, ZFar float32
}

// Projection returns the camera's projection matrix. The document aspect ratio wins
// over the viewport aspect when set.
//
// Parameters:
//   - aspect: the viewport aspect ratio (width/height)
//
// Returns:
//   - [16]float32: the column-major projection matrix
func (c *Camera) Projection(aspect float32) [16]float32 {
	var m [16]float32
	if c.Type == CameraOrthographic {
		common.Orthographic(m[:], c.XMag, c.YMag, c.ZNear, c.ZFar)
		return m
	}
	common.Perspective(m[:], c.YFov, common.Coalesce(c.AspectRatio, aspect, 1), c.ZNear, c.ZFar)
	return m
}

// Node is one element of the scene hierarchy.
type Node struct {
	Name      string
	JointName string
	Local     Transform
	Children  []int
	// ChildNames keeps the document child list until the hierarchy is built.
	ChildNames []string
	Parent     int
	Camera     int
	Skin       int
	Models     []int
	// SubtreeCount is the number of descendants stored contiguously after the node.
	SubtreeCount int
}

// SubTree is a rooted hierarchy occupying the storage run [Root, Root+NodeCount).
type SubTree struct {
	Root       int
	NodeCount  int
	Animations []int
	TimeLines  []int
}

// Contains reports whether a node index lies inside the subtree's storage run.
func (s *SubTree) Contains(node int) bool {
	return node >= s.Root && node < s.Root+s.NodeCount
}

// SubScene is a named selectable set of subtrees.
type SubScene struct {
	Name     string
	SubTrees []int
}
