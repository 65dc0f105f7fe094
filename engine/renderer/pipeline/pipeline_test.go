package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStatesMatchDocumentDefaults(t *testing.T) {
	p, err := FromGLStates("technique0", DefaultGLStates())
	require.NoError(t, err)

	assert.Equal(t, "technique0", p.PipelineKey())
	assert.False(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.False(t, p.BlendEnabled())
	assert.Nil(t, p.BlendState())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.FrontFaceCCW, p.FrontFace())
	assert.Equal(t, wgpu.CompareFunctionLess, p.DepthCompare())
	assert.Equal(t, wgpu.ColorWriteMaskAll, p.WriteMask())
}

func TestEnabledStates(t *testing.T) {
	s := DefaultGLStates()
	s.Enable = []int{GLBlend, GLCullFace, GLDepthTest, GLPolygonOffsetFill}
	s.BlendFunc = [4]int{GLSrcAlpha, GLOneMinusSrcAlpha, GLOne, GLOneMinusSrcAlpha}
	s.CullFace = GLFront
	s.DepthFunc = GLLequal
	s.DepthMask = false
	s.FrontFace = GLCW
	s.ColorMask = [4]bool{true, false, true, false}
	s.PolygonOffset = [2]float32{1.5, 2}

	p, err := FromGLStates("transparent", s)
	require.NoError(t, err)

	assert.True(t, p.DepthTestEnabled())
	assert.False(t, p.DepthWriteEnabled())
	assert.Equal(t, wgpu.CompareFunctionLessEqual, p.DepthCompare())
	assert.Equal(t, wgpu.CullModeFront, p.CullMode())
	assert.Equal(t, wgpu.FrontFaceCW, p.FrontFace())
	assert.Equal(t, wgpu.ColorWriteMaskRed|wgpu.ColorWriteMaskBlue, p.WriteMask())
	assert.Equal(t, int32(2), p.DepthBias())
	assert.Equal(t, float32(1.5), p.DepthBiasSlopeScale())

	require.NotNil(t, p.BlendState())
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, p.BlendState().Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, p.BlendState().Color.DstFactor)
	assert.Equal(t, wgpu.BlendFactorOne, p.BlendState().Alpha.SrcFactor)
	assert.Equal(t, wgpu.BlendOperationAdd, p.BlendState().Alpha.Operation)
}

func TestUnsupportedStates(t *testing.T) {
	s := DefaultGLStates()
	s.DepthFunc = 1
	_, err := FromGLStates("bad", s)
	assert.ErrorIs(t, err, ErrUnsupportedState)

	s = DefaultGLStates()
	s.Enable = []int{GLCullFace}
	s.CullFace = GLFrontAndBack
	_, err = FromGLStates("bad", s)
	assert.ErrorIs(t, err, ErrUnsupportedState)

	_, err = TopologyFromGL(GLTriangleFan)
	assert.ErrorIs(t, err, ErrUnsupportedState)
}

func TestWithTopologyDerivesNewKey(t *testing.T) {
	p := NewPipeline("lines")
	assert.Same(t, p, p.WithTopology(wgpu.PrimitiveTopologyTriangleList))

	l := p.WithTopology(wgpu.PrimitiveTopologyLineList)
	assert.Equal(t, wgpu.PrimitiveTopologyLineList, l.Topology())
	assert.NotEqual(t, p.PipelineKey(), l.PipelineKey())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
}
