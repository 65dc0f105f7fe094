package loader

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Document sections, in load order.
const (
	sectionBuffers     = "buffers"
	sectionBufferViews = "bufferViews"
	sectionAccessors   = "accessors"
	sectionImages      = "images"
	sectionSamplers    = "samplers"
	sectionTextures    = "textures"
	sectionShaders     = "shaders"
	sectionPrograms    = "programs"
	sectionTechniques  = "techniques"
	sectionMaterials   = "materials"
	sectionMeshes      = "meshes"
	sectionAnimations  = "animations"
	sectionSkins       = "skins"
	sectionCameras     = "cameras"
	sectionNodes       = "nodes"
	sectionScenes      = "scenes"
)

// Extensions understood by the loader.
const (
	// extBinary embeds buffers, images and shaders in the container's binary blob.
	extBinary = "KHR_binary_glTF"
	// extImageVersions lists compressed encodings of an image.
	extImageVersions = "EXT_image_versions"
	// extShaderVersions lists native sources of a shader per graphics API.
	extShaderVersions = "EXT_shader_versions"
	// extSkinCulling stores per-joint bounds as min/max VEC3 pairs.
	extSkinCulling = "KHR_skin_culling"

	// binaryBufferID names the buffer that spans the whole binary blob.
	binaryBufferID = "binary_glTF"
)

// GL enumerants used by the document format outside technique states.
const (
	glArrayBuffer        = 34962
	glElementArrayBuffer = 34963

	glFragmentShader = 35632
	glVertexShader   = 35633

	glNearest              = 9728
	glLinear               = 9729
	glNearestMipmapNearest = 9984
	glLinearMipmapNearest  = 9985
	glNearestMipmapLinear  = 9986
	glLinearMipmapLinear   = 9987

	glRepeat         = 10497
	glClampToEdge    = 33071
	glMirroredRepeat = 33648

	glTriangles = 4
)

// compressedFormats maps GL internal formats of compressed image versions to backend formats.
var compressedFormats = map[int]wgpu.TextureFormat{
	33777: wgpu.TextureFormatBC1RGBAUnorm,
	33779: wgpu.TextureFormatBC3RGBAUnorm,
	36492: wgpu.TextureFormatBC7RGBAUnorm,
	37492: wgpu.TextureFormatETC2RGB8Unorm,
	37496: wgpu.TextureFormatETC2RGBA8Unorm,
	37808: wgpu.TextureFormatASTC4x4Unorm,
}

// shaderAPIs maps the api names of native shader versions.
var shaderAPIs = map[string]wgpu.BackendType{
	"opengl":   wgpu.BackendTypeOpenGL,
	"opengles": wgpu.BackendTypeOpenGLES,
	"vulkan":   wgpu.BackendTypeVulkan,
}

var (
	ErrUnresolved        = errors.New("unresolved reference")
	ErrBufferSize        = errors.New("buffer data shorter than byteLength")
	ErrViewRange         = errors.New("buffer view exceeds its buffer")
	ErrAccessorRange     = errors.New("accessor exceeds its buffer view")
	ErrAccessorType      = errors.New("unsupported accessor layout")
	ErrUnknownImage      = errors.New("unrecognized image encoding")
	ErrShaderType        = errors.New("unknown shader type")
	ErrUnknownSemantic   = errors.New("unknown parameter semantic")
	ErrUnknownType       = errors.New("unknown parameter type")
	ErrSampleCount       = errors.New("accessor count does not match its owner")
	ErrTooManyJoints     = errors.New("skin has more joints than the backend supports")
	ErrMissingPosition   = errors.New("primitive has no POSITION attribute")
	ErrUnsupportedFormat = errors.New("unsupported vertex or index format")
	ErrCameraType        = errors.New("unknown camera type")
)

// LinkError reports a name that does not resolve to an entity.
type LinkError struct {
	// Kind is the section the name was looked up in.
	Kind string
	// Name is the missing id.
	Name string
	// Referrer describes the entity holding the reference.
	Referrer string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("loader: %s %q referenced by %s not found", e.Kind, e.Name, e.Referrer)
}

func (e *LinkError) Unwrap() error {
	return ErrUnresolved
}
