package pipeline

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// GL enumerants used by technique state blocks and primitive modes.
const (
	GLBlend                 = 3042
	GLCullFace              = 2884
	GLDepthTest             = 2929
	GLPolygonOffsetFill     = 32823
	GLSampleAlphaToCoverage = 32926

	GLFuncAdd             = 32774
	GLFuncSubtract        = 32778
	GLFuncReverseSubtract = 32779
	GLMin                 = 32775
	GLMax                 = 32776

	GLZero                  = 0
	GLOne                   = 1
	GLSrcColor              = 768
	GLOneMinusSrcColor      = 769
	GLSrcAlpha              = 770
	GLOneMinusSrcAlpha      = 771
	GLDstAlpha              = 772
	GLOneMinusDstAlpha      = 773
	GLDstColor              = 774
	GLOneMinusDstColor      = 775
	GLSrcAlphaSaturate      = 776
	GLConstantColor         = 32769
	GLOneMinusConstantColor = 32770
	GLConstantAlpha         = 32771
	GLOneMinusConstantAlpha = 32772

	GLFront        = 1028
	GLBack         = 1029
	GLFrontAndBack = 1032

	GLNever    = 512
	GLLess     = 513
	GLEqual    = 514
	GLLequal   = 515
	GLGreater  = 516
	GLNotEqual = 517
	GLGequal   = 518
	GLAlways   = 519

	GLCW  = 2304
	GLCCW = 2305

	GLPoints        = 0
	GLLines         = 1
	GLLineLoop      = 2
	GLLineStrip     = 3
	GLTriangles     = 4
	GLTriangleStrip = 5
	GLTriangleFan   = 6
)

// ErrUnsupportedState is returned for state enumerants that have no backend equivalent.
var ErrUnsupportedState = errors.New("unsupported pipeline state")

// GLStates is a technique state block expressed in GL enumerants, as stored in scene documents.
type GLStates struct {
	// Enable lists the capabilities switched on (GLBlend, GLCullFace, GLDepthTest, ...).
	Enable []int
	// BlendEquation holds the RGB and alpha equations.
	BlendEquation [2]int
	// BlendFunc holds srcRGB, dstRGB, srcAlpha, dstAlpha.
	BlendFunc     [4]int
	BlendColor    [4]float32
	ColorMask     [4]bool
	CullFace      int
	DepthFunc     int
	DepthMask     bool
	FrontFace     int
	PolygonOffset [2]float32
}

// DefaultGLStates returns the state block assumed for absent technique functions.
func DefaultGLStates() GLStates {
	return GLStates{
		BlendEquation: [2]int{GLFuncAdd, GLFuncAdd},
		BlendFunc:     [4]int{GLOne, GLZero, GLOne, GLZero},
		ColorMask:     [4]bool{true, true, true, true},
		CullFace:      GLBack,
		DepthFunc:     GLLess,
		DepthMask:     true,
		FrontFace:     GLCCW,
	}
}

// FromGLStates converts a GL state block into a Pipeline.
//
// Parameters:
//   - key: the pipeline key, usually the technique name
//   - s: the state block
//
// Returns:
//   - Pipeline: the converted state block
//   - error: a wrapped ErrUnsupportedState for unknown enumerants
func FromGLStates(key string, s GLStates) (Pipeline, error) {
	opts := []PipelineBuilderOption{
		WithDepthTestEnabled(slices.Contains(s.Enable, GLDepthTest)),
		WithDepthWriteEnabled(s.DepthMask),
		WithBlendEnabled(slices.Contains(s.Enable, GLBlend)),
		WithBlendConstant(s.BlendColor),
		WithWriteMask(colorWriteMask(s.ColorMask)),
	}

	compare, err := CompareFromGL(s.DepthFunc)
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithDepthCompare(compare))

	if slices.Contains(s.Enable, GLCullFace) {
		switch s.CullFace {
		case GLFront:
			opts = append(opts, WithCullMode(wgpu.CullModeFront))
		case GLBack:
			opts = append(opts, WithCullMode(wgpu.CullModeBack))
		default:
			return nil, fmt.Errorf("cull face %d: %w", s.CullFace, ErrUnsupportedState)
		}
	}

	switch s.FrontFace {
	case GLCCW:
		opts = append(opts, WithFrontFace(wgpu.FrontFaceCCW))
	case GLCW:
		opts = append(opts, WithFrontFace(wgpu.FrontFaceCW))
	default:
		return nil, fmt.Errorf("front face %d: %w", s.FrontFace, ErrUnsupportedState)
	}

	if slices.Contains(s.Enable, GLPolygonOffsetFill) {
		opts = append(opts, WithDepthBias(int32(s.PolygonOffset[1]), s.PolygonOffset[0]))
	}

	var bs wgpu.BlendState
	if bs.Color.Operation, err = BlendOperationFromGL(s.BlendEquation[0]); err != nil {
		return nil, err
	}
	if bs.Alpha.Operation, err = BlendOperationFromGL(s.BlendEquation[1]); err != nil {
		return nil, err
	}
	factors := [4]*wgpu.BlendFactor{&bs.Color.SrcFactor, &bs.Color.DstFactor, &bs.Alpha.SrcFactor, &bs.Alpha.DstFactor}
	for i, f := range factors {
		if *f, err = BlendFactorFromGL(s.BlendFunc[i]); err != nil {
			return nil, err
		}
	}
	opts = append(opts, WithBlendState(&bs))

	return NewPipeline(key, opts...), nil
}

func colorWriteMask(mask [4]bool) wgpu.ColorWriteMask {
	var m wgpu.ColorWriteMask
	bits := [4]wgpu.ColorWriteMask{wgpu.ColorWriteMaskRed, wgpu.ColorWriteMaskGreen, wgpu.ColorWriteMaskBlue, wgpu.ColorWriteMaskAlpha}
	for i, on := range mask {
		if on {
			m |= bits[i]
		}
	}
	return m
}

// CompareFromGL converts a GL depth function.
func CompareFromGL(fn int) (wgpu.CompareFunction, error) {
	switch fn {
	case GLNever:
		return wgpu.CompareFunctionNever, nil
	case GLLess:
		return wgpu.CompareFunctionLess, nil
	case GLEqual:
		return wgpu.CompareFunctionEqual, nil
	case GLLequal:
		return wgpu.CompareFunctionLessEqual, nil
	case GLGreater:
		return wgpu.CompareFunctionGreater, nil
	case GLNotEqual:
		return wgpu.CompareFunctionNotEqual, nil
	case GLGequal:
		return wgpu.CompareFunctionGreaterEqual, nil
	case GLAlways:
		return wgpu.CompareFunctionAlways, nil
	}
	return wgpu.CompareFunctionUndefined, fmt.Errorf("depth function %d: %w", fn, ErrUnsupportedState)
}

// BlendOperationFromGL converts a GL blend equation.
func BlendOperationFromGL(eq int) (wgpu.BlendOperation, error) {
	switch eq {
	case GLFuncAdd:
		return wgpu.BlendOperationAdd, nil
	case GLFuncSubtract:
		return wgpu.BlendOperationSubtract, nil
	case GLFuncReverseSubtract:
		return wgpu.BlendOperationReverseSubtract, nil
	case GLMin:
		return wgpu.BlendOperationMin, nil
	case GLMax:
		return wgpu.BlendOperationMax, nil
	}
	return wgpu.BlendOperationAdd, fmt.Errorf("blend equation %d: %w", eq, ErrUnsupportedState)
}

// BlendFactorFromGL converts a GL blend function factor. The constant-alpha factors map
// onto the constant color factors, which is exact when the blend constant is uniform.
func BlendFactorFromGL(f int) (wgpu.BlendFactor, error) {
	switch f {
	case GLZero:
		return wgpu.BlendFactorZero, nil
	case GLOne:
		return wgpu.BlendFactorOne, nil
	case GLSrcColor:
		return wgpu.BlendFactorSrc, nil
	case GLOneMinusSrcColor:
		return wgpu.BlendFactorOneMinusSrc, nil
	case GLSrcAlpha:
		return wgpu.BlendFactorSrcAlpha, nil
	case GLOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha, nil
	case GLDstAlpha:
		return wgpu.BlendFactorDstAlpha, nil
	case GLOneMinusDstAlpha:
		return wgpu.BlendFactorOneMinusDstAlpha, nil
	case GLDstColor:
		return wgpu.BlendFactorDst, nil
	case GLOneMinusDstColor:
		return wgpu.BlendFactorOneMinusDst, nil
	case GLSrcAlphaSaturate:
		return wgpu.BlendFactorSrcAlphaSaturated, nil
	case GLConstantColor, GLConstantAlpha:
		return wgpu.BlendFactorConstant, nil
	case GLOneMinusConstantColor, GLOneMinusConstantAlpha:
		return wgpu.BlendFactorOneMinusConstant, nil
	}
	return wgpu.BlendFactorZero, fmt.Errorf("blend factor %d: %w", f, ErrUnsupportedState)
}

// TopologyFromGL converts a GL primitive mode. Loops and fans have no list or strip
// equivalent and are rejected.
func TopologyFromGL(mode int) (wgpu.PrimitiveTopology, error) {
	switch mode {
	case GLPoints:
		return wgpu.PrimitiveTopologyPointList, nil
	case GLLines:
		return wgpu.PrimitiveTopologyLineList, nil
	case GLLineStrip:
		return wgpu.PrimitiveTopologyLineStrip, nil
	case GLTriangles:
		return wgpu.PrimitiveTopologyTriangleList, nil
	case GLTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip, nil
	}
	return wgpu.PrimitiveTopologyTriangleList, fmt.Errorf("primitive mode %d: %w", mode, ErrUnsupportedState)
}
