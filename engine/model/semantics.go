package model

import (
	"strings"

	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/cogentcore/webgpu/wgpu"
)

// Semantic is the built-in meaning of a uniform parameter.
type Semantic int

const (
	SemanticNone Semantic = iota
	SemanticLocal
	SemanticModel
	SemanticView
	SemanticProjection
	SemanticModelView
	SemanticModelViewProjection
	SemanticModelInverse
	SemanticViewInverse
	SemanticProjectionInverse
	SemanticModelViewInverse
	SemanticModelViewProjectionInverse
	SemanticModelInverseTranspose
	SemanticModelViewInverseTranspose
	SemanticViewport
	SemanticJointMatrix
	// SemanticJointBuffer and SemanticViewProjectionBuffer are synthesized by shader adaptation.
	SemanticJointBuffer
	SemanticViewProjectionBuffer
)

var semanticNames = map[string]Semantic{
	"LOCAL":                      SemanticLocal,
	"MODEL":                      SemanticModel,
	"VIEW":                       SemanticView,
	"PROJECTION":                 SemanticProjection,
	"MODELVIEW":                  SemanticModelView,
	"MODELVIEWPROJECTION":        SemanticModelViewProjection,
	"MODELINVERSE":               SemanticModelInverse,
	"VIEWINVERSE":                SemanticViewInverse,
	"PROJECTIONINVERSE":          SemanticProjectionInverse,
	"MODELVIEWINVERSE":           SemanticModelViewInverse,
	"MODELVIEWPROJECTIONINVERSE": SemanticModelViewProjectionInverse,
	"MODELINVERSETRANSPOSE":      SemanticModelInverseTranspose,
	"MODELVIEWINVERSETRANSPOSE":  SemanticModelViewInverseTranspose,
	"VIEWPORT":                   SemanticViewport,
	"JOINTMATRIX":                SemanticJointMatrix,
}

// ParseSemantic converts a document semantic string. An empty string is SemanticNone.
//
// Parameters:
//   - s: the semantic as written in the document
//
// Returns:
//   - Semantic: the parsed semantic
//   - bool: false if the string names no known semantic
func ParseSemantic(s string) (Semantic, bool) {
	if s == "" {
		return SemanticNone, true
	}
	sem, ok := semanticNames[s]
	return sem, ok
}

// String returns the document spelling of the semantic.
func (s Semantic) String() string {
	switch s {
	case SemanticNone:
		return ""
	case SemanticJointBuffer:
		return "JOINTBUFFER"
	case SemanticViewProjectionBuffer:
		return "VIEWPROJECTIONBUFFER"
	}
	for name, sem := range semanticNames {
		if sem == s {
			return name
		}
	}
	return "UNKNOWN"
}

// IsViewDerived reports whether the semantic depends on the view or projection transform.
func (s Semantic) IsViewDerived() bool {
	switch s {
	case SemanticView, SemanticProjection, SemanticModelView, SemanticModelViewProjection,
		SemanticViewInverse, SemanticProjectionInverse, SemanticModelViewInverse,
		SemanticModelViewProjectionInverse, SemanticModelViewInverseTranspose:
		return true
	}
	return false
}

// AttributeSemantic is one entry of the fixed vertex attribute set.
type AttributeSemantic int

const (
	AttributeUnknown AttributeSemantic = iota - 1
	AttributePosition
	AttributeNormal
	AttributeTangent
	AttributeBinormal
	AttributeColor
	AttributeTexCoord0
	AttributeTexCoord1
	AttributeJoint
	AttributeWeight
)

var attributeNames = []string{"POSITION", "NORMAL", "TANGENT", "BINORMAL", "COLOR", "TEXCOORD_0", "TEXCOORD_1", "JOINT", "WEIGHT"}

// ParseAttributeSemantic converts a document attribute semantic. Indexed sets without a
// suffix ("COLOR", "TEXCOORD") resolve to set 0, and "COLOR_0", "JOINTS_0" and
// "WEIGHTS_0" are accepted as aliases.
func ParseAttributeSemantic(s string) AttributeSemantic {
	switch s {
	case "TEXCOORD":
		return AttributeTexCoord0
	case "COLOR_0":
		return AttributeColor
	case "JOINTS_0":
		return AttributeJoint
	case "WEIGHTS_0":
		return AttributeWeight
	}
	for i, name := range attributeNames {
		if name == s {
			return AttributeSemantic(i)
		}
	}
	return AttributeUnknown
}

// String returns the document spelling of the attribute semantic.
func (a AttributeSemantic) String() string {
	if a < 0 || int(a) >= len(attributeNames) {
		return "UNKNOWN"
	}
	return attributeNames[a]
}

// Location returns the fixed vertex input location of the semantic.
//
// Returns:
//   - uint32: the location
//   - bool: false if the semantic has no fixed location
func (a AttributeSemantic) Location() (uint32, bool) {
	if a < 0 || int(a) >= len(attributeNames) {
		return 0, false
	}
	return uint32(a), true
}

// AccessorType is the element shape of an accessor.
type AccessorType int

const (
	AccessorUnknown AccessorType = iota
	AccessorScalar
	AccessorVec2
	AccessorVec3
	AccessorVec4
	AccessorMat2
	AccessorMat3
	AccessorMat4
)

// ParseAccessorType converts a document accessor type string.
func ParseAccessorType(s string) AccessorType {
	switch strings.ToUpper(s) {
	case "SCALAR":
		return AccessorScalar
	case "VEC2":
		return AccessorVec2
	case "VEC3":
		return AccessorVec3
	case "VEC4":
		return AccessorVec4
	case "MAT2":
		return AccessorMat2
	case "MAT3":
		return AccessorMat3
	case "MAT4":
		return AccessorMat4
	}
	return AccessorUnknown
}

// Components returns the number of components per element.
func (t AccessorType) Components() int {
	switch t {
	case AccessorScalar:
		return 1
	case AccessorVec2:
		return 2
	case AccessorVec3:
		return 3
	case AccessorVec4, AccessorMat2:
		return 4
	case AccessorMat3:
		return 9
	case AccessorMat4:
		return 16
	}
	return 0
}

// Component types of accessors, as GL enumerants.
const (
	ComponentByte          = 5120
	ComponentUnsignedByte  = 5121
	ComponentShort         = 5122
	ComponentUnsignedShort = 5123
	ComponentUnsignedInt   = 5125
	ComponentFloat         = 5126
)

// ComponentSize returns the byte size of a component type, or 0 if unknown.
func ComponentSize(componentType int) int {
	switch componentType {
	case ComponentByte, ComponentUnsignedByte:
		return 1
	case ComponentShort, ComponentUnsignedShort:
		return 2
	case ComponentUnsignedInt, ComponentFloat:
		return 4
	}
	return 0
}

// VertexFormat maps an accessor layout to a vertex format. Formats without a 2- or
// 4-byte aligned equivalent map to wgpu.VertexFormatUndefined.
func VertexFormat(componentType int, t AccessorType) wgpu.VertexFormat {
	switch componentType {
	case ComponentFloat:
		switch t {
		case AccessorScalar:
			return wgpu.VertexFormatFloat32
		case AccessorVec2:
			return wgpu.VertexFormatFloat32x2
		case AccessorVec3:
			return wgpu.VertexFormatFloat32x3
		case AccessorVec4:
			return wgpu.VertexFormatFloat32x4
		}
	case ComponentUnsignedByte:
		switch t {
		case AccessorVec2:
			return wgpu.VertexFormatUint8x2
		case AccessorVec4:
			return wgpu.VertexFormatUint8x4
		}
	case ComponentUnsignedShort:
		switch t {
		case AccessorVec2:
			return wgpu.VertexFormatUint16x2
		case AccessorVec4:
			return wgpu.VertexFormatUint16x4
		}
	case ComponentShort:
		switch t {
		case AccessorVec2:
			return wgpu.VertexFormatSint16x2
		case AccessorVec4:
			return wgpu.VertexFormatSint16x4
		}
	case ComponentUnsignedInt:
		switch t {
		case AccessorScalar:
			return wgpu.VertexFormatUint32
		case AccessorVec2:
			return wgpu.VertexFormatUint32x2
		case AccessorVec3:
			return wgpu.VertexFormatUint32x3
		case AccessorVec4:
			return wgpu.VertexFormatUint32x4
		}
	}
	return wgpu.VertexFormatUndefined
}

// Uniform types of technique parameters, as GL enumerants.
const (
	TypeFloat       = 5126
	TypeInt         = 5124
	TypeFloatVec2   = 35664
	TypeFloatVec3   = 35665
	TypeFloatVec4   = 35666
	TypeIntVec2     = 35667
	TypeIntVec3     = 35668
	TypeIntVec4     = 35669
	TypeBool        = 35670
	TypeFloatMat2   = 35674
	TypeFloatMat3   = 35675
	TypeFloatMat4   = 35676
	TypeSampler2D   = 35678
	TypeSamplerCube = 35680
)

// ValueTypeFromGL converts a parameter type enumerant.
//
// Returns:
//   - gfx.ValueType: the converted type, gfx.ValueUnknown if unsupported
func ValueTypeFromGL(t int) gfx.ValueType {
	switch t {
	case TypeFloat:
		return gfx.ValueFloat
	case TypeFloatVec2:
		return gfx.ValueVec2
	case TypeFloatVec3:
		return gfx.ValueVec3
	case TypeFloatVec4:
		return gfx.ValueVec4
	case TypeInt:
		return gfx.ValueInt
	case TypeIntVec2:
		return gfx.ValueIVec2
	case TypeIntVec3:
		return gfx.ValueIVec3
	case TypeIntVec4:
		return gfx.ValueIVec4
	case TypeBool:
		return gfx.ValueBool
	case TypeFloatMat2:
		return gfx.ValueMat2
	case TypeFloatMat3:
		return gfx.ValueMat3
	case TypeFloatMat4:
		return gfx.ValueMat4
	case TypeSampler2D:
		return gfx.ValueSampler2D
	case TypeSamplerCube:
		return gfx.ValueSamplerCube
	}
	return gfx.ValueUnknown
}
