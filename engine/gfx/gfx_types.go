package gfx

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// Opaque backend handles. The zero value never names a live resource.
type (
	Buffer   uint32
	Texture  uint32
	Program  uint32
	Geometry uint32
	Pipeline uint32
)

// Caps describes what the active backend accepts.
type Caps struct {
	// API selects the shading language family and uniform-passing convention.
	// Supported values are wgpu.BackendTypeOpenGL, wgpu.BackendTypeOpenGLES and wgpu.BackendTypeVulkan.
	API wgpu.BackendType

	// Version is the shading language version, e.g. 430 for GLSL 4.30 or 300 for GLSL ES 3.00.
	Version int

	// TextureFormats lists the compressed texture formats the backend can sample from.
	// Uncompressed RGBA is always accepted.
	TextureFormats []wgpu.TextureFormat

	// MaxJoints bounds the joint count of a packed joint-matrix buffer.
	MaxJoints int
}

// SupportsFormat reports whether the backend can create textures of the given format.
func (c Caps) SupportsFormat(f wgpu.TextureFormat) bool {
	if f == wgpu.TextureFormatRGBA8Unorm || f == wgpu.TextureFormatRGBA8UnormSrgb {
		return true
	}
	return slices.Contains(c.TextureFormats, f)
}

// ValueType is the type of a program parameter or bound value.
type ValueType int

const (
	ValueUnknown ValueType = iota
	ValueFloat
	ValueVec2
	ValueVec3
	ValueVec4
	ValueInt
	ValueIVec2
	ValueIVec3
	ValueIVec4
	ValueBool
	ValueMat2
	ValueMat3
	ValueMat4
	ValueSampler2D
	ValueSamplerCube
	// ValueBuffer is a uniform buffer block.
	ValueBuffer
)

// Components returns the number of scalars in one element of the type, or 0 for
// opaque types (samplers and buffers).
func (v ValueType) Components() int {
	switch v {
	case ValueFloat, ValueInt, ValueBool:
		return 1
	case ValueVec2, ValueIVec2:
		return 2
	case ValueVec3, ValueIVec3:
		return 3
	case ValueVec4, ValueIVec4, ValueMat2:
		return 4
	case ValueMat3:
		return 9
	case ValueMat4:
		return 16
	default:
		return 0
	}
}

// IsInteger reports whether values of the type are bound as integers.
func (v ValueType) IsInteger() bool {
	switch v {
	case ValueInt, ValueIVec2, ValueIVec3, ValueIVec4, ValueBool:
		return true
	}
	return false
}

// IsSampler reports whether the type is a texture sampler.
func (v ValueType) IsSampler() bool {
	return v == ValueSampler2D || v == ValueSamplerCube
}

// BufferDesc describes a GPU buffer.
type BufferDesc struct {
	Label string
	// Usage is one of wgpu.BufferUsageVertex, wgpu.BufferUsageIndex or wgpu.BufferUsageUniform,
	// optionally combined with wgpu.BufferUsageCopyDst.
	Usage wgpu.BufferUsage
	Size  int
	// Data is the initial content. It may be shorter than Size or nil.
	Data []byte
}

// TextureDesc describes a texture upload.
type TextureDesc struct {
	Label string
	// Format is the internal format of Data.
	Format wgpu.TextureFormat
	// Container names the encoding of Data: "raw" for tightly packed RGBA pixels,
	// otherwise a compressed container such as "ktx" that the backend parses itself.
	Container string
	// Width and Height are only required for raw data.
	Width, Height uint32
	Data          []byte
	Sampler       common.SamplerStagingData
}

// ProgramParameter is one uniform of a compiled program, in technique order.
type ProgramParameter struct {
	Name  string
	Type  ValueType
	Count int
	// Stages holds wgpu.ShaderStageVertex and/or wgpu.ShaderStageFragment.
	Stages wgpu.ShaderStage
	// Binding is the explicit binding or location index, or -1 when the backend assigns it.
	Binding int
	// Offset is the byte offset inside the push-constant block for push-constant parameters.
	Offset int
	// PushConstant marks parameters packed into the push-constant block.
	PushConstant bool
}

// VertexAttribute is one vertex input of a compiled program.
type VertexAttribute struct {
	Name     string
	Location uint32
	Format   wgpu.VertexFormat
}

// ProgramDesc describes a program compiled from vertex and fragment source.
type ProgramDesc struct {
	Label          string
	VertexSource   string
	FragmentSource string
	Parameters     []ProgramParameter
	Attributes     []VertexAttribute
}

// GeometryAttribute binds one vertex stream of a geometry.
type GeometryAttribute struct {
	Location uint32
	Format   wgpu.VertexFormat
	Buffer   Buffer
	Offset   uint64
	Stride   uint64
}

// GeometryDesc describes vertex and index streams plus their layout.
type GeometryDesc struct {
	Label       string
	Attributes  []GeometryAttribute
	VertexCount int
	// IndexBuffer is zero for non-indexed geometry.
	IndexBuffer Buffer
	IndexFormat wgpu.IndexFormat
	IndexOffset uint64
	IndexCount  int
	Topology    wgpu.PrimitiveTopology
}

// PipelineDesc describes a graphics pipeline.
type PipelineDesc struct {
	Label    string
	Program  Program
	Geometry Geometry
	State    pipeline.Pipeline
}

// Binding is a value bound to one program parameter for a draw.
type Binding struct {
	// Parameter is the index into the program's parameter list.
	Parameter int
	Type      ValueType
	Floats    []float32
	Ints      []int32
	Texture   Texture
	Buffer    Buffer
}

// Command is one draw submission.
type Command struct {
	Pipeline Pipeline
	Geometry Geometry
	Bindings []Binding
}
