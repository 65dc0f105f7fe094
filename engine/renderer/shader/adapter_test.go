package shader

import (
	"errors"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const litVertex = `#version 100
precision mediump float;
uniform mat4 u_mvp;
uniform mat3 u_normalMatrix;
attribute vec3 a_position;
attribute vec3 a_normal;
varying vec3 v_normal;
void main()
{
	v_normal = u_normalMatrix * a_normal;
	gl_Position = u_mvp * vec4( a_position, 1.0 );
}
`

const litFragment = `precision mediump float;
uniform vec4 u_diffuse;
uniform sampler2D u_tex;
varying vec3 v_normal;
void main()
{
	gl_FragColor = u_diffuse * texture2D( u_tex, v_normal.xy );
}
`

func uniformParam(name string, typ gfx.ValueType, sem model.Semantic) model.Parameter {
	return model.Parameter{
		Name:     strings.TrimPrefix(name, "u_"),
		Uniform:  name,
		Type:     typ,
		Count:    1,
		Semantic: sem,
		Node:     model.None,
		Texture:  model.None,
	}
}

func litInput() Input {
	return Input{
		Technique:      "lit",
		VertexSource:   litVertex,
		FragmentSource: litFragment,
		Attributes: []model.Attribute{
			{Name: "a_position", Semantic: model.AttributePosition},
			{Name: "a_normal", Semantic: model.AttributeNormal},
		},
		Parameters: []model.Parameter{
			uniformParam("u_mvp", gfx.ValueMat4, model.SemanticModelViewProjection),
			uniformParam("u_normalMatrix", gfx.ValueMat3, model.SemanticModelViewInverseTranspose),
			uniformParam("u_diffuse", gfx.ValueVec4, model.SemanticNone),
			uniformParam("u_tex", gfx.ValueSampler2D, model.SemanticNone),
		},
	}
}

func uniformNames(params []model.Parameter) []string {
	var names []string
	for _, p := range params {
		names = append(names, p.Uniform)
	}
	return names
}

func findParam(t *testing.T, params []model.Parameter, uniform string) model.Parameter {
	t.Helper()
	for _, p := range params {
		if p.Uniform == uniform {
			return p
		}
	}
	t.Fatalf("uniform %q not in parameter list", uniform)
	return model.Parameter{}
}

func TestAdapt_OpenGLCore(t *testing.T) {
	out, err := Adapt(litInput(), Conversion{API: wgpu.BackendTypeOpenGL, Version: 330})
	require.NoError(t, err)

	assert.Equal(t, `#version 330 core
uniform mat4 u_modelMatrix;
uniform mat4 u_modelInverseMatrix;
uniform mat4 u_viewMatrix;
uniform mat4 u_projectionMatrix;
uniform mat4 u_viewInverseMatrix;
layout( location = 0 ) in vec3 a_position;
layout( location = 1 ) in vec3 a_normal;
out vec3 v_normal;
void main()
{
	v_normal = transpose( mat3( u_modelInverseMatrix * u_viewInverseMatrix ) ) * a_normal;
	gl_Position = ( u_projectionMatrix * ( u_viewMatrix * u_modelMatrix ) ) * vec4( a_position, 1.0 );
}
`, out.VertexSource)

	assert.Equal(t, `#version 330 core
uniform vec4 u_diffuse;
uniform sampler2D u_tex;
layout( location = 0 ) out vec4 fragColor;
in vec3 v_normal;
void main()
{
	fragColor = u_diffuse * texture( u_tex, v_normal.xy );
}
`, out.FragmentSource)

	assert.Equal(t, []string{
		"u_diffuse", "u_tex",
		ModelMatrixUniform, ModelInverseMatrixUniform, ViewMatrixUniform, ProjectionMatrixUniform, ViewInverseMatrixUniform,
	}, uniformNames(out.Parameters))
	assert.Equal(t, wgpu.ShaderStageFragment, findParam(t, out.Parameters, "u_diffuse").Stages)
	assert.Equal(t, wgpu.ShaderStageVertex, findParam(t, out.Parameters, ViewMatrixUniform).Stages)
	assert.Equal(t, model.SemanticView, findParam(t, out.Parameters, ViewMatrixUniform).Semantic)
	for _, p := range out.Parameters {
		assert.Equal(t, -1, p.Binding)
		assert.False(t, p.PushConstant)
	}
	assert.Equal(t, map[string]int{"v_normal": 0}, out.VaryingLocations)
	require.Len(t, out.Attributes, 2)
	assert.Equal(t, uint32(1), out.Attributes[1].Location)
}

func TestAdapt_Idempotent(t *testing.T) {
	conv := Conversion{API: wgpu.BackendTypeVulkan, Multiview: true, JointBuffer: true}
	first, err := Adapt(skinnedInput(), conv)
	require.NoError(t, err)
	second, err := Adapt(skinnedInput(), conv)
	require.NoError(t, err)

	assert.Equal(t, first.VertexSource, second.VertexSource)
	assert.Equal(t, first.FragmentSource, second.FragmentSource)
	assert.Equal(t, first.Parameters, second.Parameters)
}

func skinnedInput() Input {
	in := litInput()
	in.Technique = "skinned"
	in.VertexSource = `precision highp float;
uniform mat4 u_mvp;
uniform mat3 u_normalMatrix;
uniform mat4 u_jointMat[4];
attribute vec3 a_position;
attribute vec3 a_normal;
attribute vec4 a_joint;
attribute vec4 a_weight;
varying vec3 v_normal;
void main()
{
	mat4 skin = a_weight.x * u_jointMat[int( a_joint.x )] + a_weight.y * u_jointMat[int( a_joint.y )];
	v_normal = u_normalMatrix * mat3( skin ) * a_normal;
	gl_Position = u_mvp * skin * vec4( a_position, 1.0 );
}
`
	in.Attributes = append(in.Attributes,
		model.Attribute{Name: "a_joint", Semantic: model.AttributeJoint},
		model.Attribute{Name: "a_weight", Semantic: model.AttributeWeight},
	)
	joints := uniformParam("u_jointMat", gfx.ValueMat4, model.SemanticJointMatrix)
	joints.Count = 4
	in.Parameters = append(in.Parameters, joints)
	return in
}

func TestAdapt_VulkanMultiviewBuffers(t *testing.T) {
	out, err := Adapt(skinnedInput(), Conversion{API: wgpu.BackendTypeVulkan, Multiview: true, JointBuffer: true})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.VertexSource, "#version 450\n#extension GL_EXT_multiview : require\n"))
	assert.NotContains(t, out.VertexSource, "num_views")
	assert.Contains(t, out.VertexSource, "u_viewMatrix[gl_ViewIndex]")
	assert.Contains(t, out.VertexSource, "u_jointMatrices[int( a_joint.x )]")
	assert.NotContains(t, out.VertexSource, "u_jointMat[")
	assert.Contains(t, out.VertexSource, "layout( location = 7 ) in vec4 a_joint;")
	assert.Contains(t, out.VertexSource, "layout( location = 0 ) out vec3 v_normal;")
	assert.Contains(t, out.FragmentSource, "layout( location = 0 ) in vec3 v_normal;")
	assert.Contains(t, out.VertexSource, "layout( std140, set = 0, binding = 1 ) uniform u_viewProjectionBuffer\n{\n\tlayout( offset = 0 ) mat4 u_viewMatrix[2];\n\tlayout( offset = 128 ) mat4 u_viewInverseMatrix[2];\n")
	assert.Contains(t, out.VertexSource, "layout( std140, set = 0, binding = 2 ) uniform u_jointMatrixBuffer\n{\n\tlayout( offset = 0 ) mat4 u_jointMatrices[4];\n};\n")
	assert.Contains(t, out.FragmentSource, "layout( push_constant ) uniform u_pushConstants\n{\n\tlayout( offset = 0 ) vec4 u_diffuse;\n};\n")
	assert.Contains(t, out.FragmentSource, "layout( set = 0, binding = 0 ) uniform sampler2D u_tex;")

	assert.Equal(t, []string{
		"u_diffuse", "u_tex",
		ModelMatrixUniform, ModelInverseMatrixUniform, ViewProjectionBufferUniform, JointBufferUniform,
	}, uniformNames(out.Parameters))

	diffuse := findParam(t, out.Parameters, "u_diffuse")
	assert.True(t, diffuse.PushConstant)
	assert.Equal(t, 0, diffuse.Offset)
	modelMatrix := findParam(t, out.Parameters, ModelMatrixUniform)
	assert.True(t, modelMatrix.PushConstant)
	assert.Equal(t, 16, modelMatrix.Offset)
	modelInverse := findParam(t, out.Parameters, ModelInverseMatrixUniform)
	assert.Equal(t, 80, modelInverse.Offset)
	assert.Equal(t, 0, findParam(t, out.Parameters, "u_tex").Binding)
	assert.Equal(t, 1, findParam(t, out.Parameters, ViewProjectionBufferUniform).Binding)
	jointBuffer := findParam(t, out.Parameters, JointBufferUniform)
	assert.Equal(t, 2, jointBuffer.Binding)
	assert.Equal(t, 4, jointBuffer.Count)
	assert.Equal(t, model.SemanticJointBuffer, jointBuffer.Semantic)
}

func TestAdapt_OpenGLESMultiview(t *testing.T) {
	out, err := Adapt(litInput(), Conversion{API: wgpu.BackendTypeOpenGLES, Version: 300, Multiview: true})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.VertexSource,
		"#version 300 es\n#extension GL_OVR_multiview2 : require\nprecision highp float;\nprecision highp int;\nlayout( num_views = 2 ) in;\n"))
	assert.Contains(t, out.VertexSource, "layout( std140 ) uniform u_viewProjectionBuffer")
	assert.Contains(t, out.VertexSource, "u_projectionMatrix[gl_ViewID_OVR] * ( u_viewMatrix[gl_ViewID_OVR] * u_modelMatrix )")
	assert.NotContains(t, out.FragmentSource, "num_views")
}

func TestAdapt_ExplicitLayoutOpenGL(t *testing.T) {
	out, err := Adapt(litInput(), Conversion{API: wgpu.BackendTypeOpenGL, Version: 450, ExplicitLayout: true, ViewProjectionBuffer: true})
	require.NoError(t, err)

	assert.Equal(t, 0, findParam(t, out.Parameters, "u_diffuse").Binding)
	assert.Equal(t, 0, findParam(t, out.Parameters, "u_tex").Binding)
	assert.Equal(t, 1, findParam(t, out.Parameters, ModelMatrixUniform).Binding)
	assert.Equal(t, 0, findParam(t, out.Parameters, ViewProjectionBufferUniform).Binding)
	assert.Contains(t, out.FragmentSource, "layout( location = 0 ) uniform vec4 u_diffuse;")
	assert.Contains(t, out.FragmentSource, "layout( binding = 0 ) uniform sampler2D u_tex;")
	assert.Contains(t, out.VertexSource, "layout( std140, binding = 0 ) uniform u_viewProjectionBuffer")
	assert.Contains(t, out.VertexSource, "\tmat4 u_viewMatrix;\n")
}

func TestAdapt_LegacyVersionKeepsBaselineSyntax(t *testing.T) {
	out, err := Adapt(litInput(), Conversion{API: wgpu.BackendTypeOpenGL, Version: 120, JointBuffer: true})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.VertexSource, "#version 120\n"))
	assert.Contains(t, out.VertexSource, "attribute vec3 a_position;")
	assert.Contains(t, out.VertexSource, "varying vec3 v_normal;")
	assert.Contains(t, out.FragmentSource, "gl_FragColor = u_diffuse * texture2D( u_tex, v_normal.xy );")
	assert.NotContains(t, out.FragmentSource, "fragColor;")
}

func TestAdapt_NodeBindingKeepsUniform(t *testing.T) {
	in := litInput()
	in.Parameters[0].NodeName = "camera_rig"

	out, err := Adapt(in, Conversion{API: wgpu.BackendTypeOpenGL, Version: 330})
	require.NoError(t, err)

	mvp := findParam(t, out.Parameters, "u_mvp")
	assert.Equal(t, "camera_rig", mvp.NodeName)
	assert.Equal(t, wgpu.ShaderStageVertex, mvp.Stages)
	assert.Contains(t, out.VertexSource, "uniform mat4 u_mvp;")
	assert.Contains(t, out.VertexSource, "gl_Position = u_mvp * vec4( a_position, 1.0 );")
}

func TestAdapt_ReusesKeptModelUniform(t *testing.T) {
	in := litInput()
	in.VertexSource = strings.Replace(in.VertexSource, "uniform mat4 u_mvp;", "uniform mat4 u_mvp;\nuniform mat4 u_world;", 1)
	in.Parameters = append(in.Parameters, uniformParam("u_world", gfx.ValueMat4, model.SemanticModel))

	out, err := Adapt(in, Conversion{API: wgpu.BackendTypeOpenGL, Version: 330})
	require.NoError(t, err)

	assert.Contains(t, out.VertexSource, "( u_projectionMatrix * ( u_viewMatrix * u_world ) )")
	assert.NotContains(t, uniformNames(out.Parameters), ModelMatrixUniform)
}

func TestAdapt_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *Input)
		target  error
		uniform string
	}{
		{
			name: "attribute without location",
			mutate: func(in *Input) {
				in.Attributes[1].Semantic = model.AttributeUnknown
			},
			target:  ErrNoAttributeLocation,
			uniform: "a_normal",
		},
		{
			name: "view semantic with wrong type",
			mutate: func(in *Input) {
				in.Parameters[0].Type = gfx.ValueVec4
			},
			target:  ErrUnsupportedUniform,
			uniform: "u_mvp",
		},
		{
			name: "unknown type",
			mutate: func(in *Input) {
				in.Parameters[2].Type = gfx.ValueUnknown
			},
			target:  ErrUnsupportedUniform,
			uniform: "u_diffuse",
		},
		{
			name: "uniform used by no stage",
			mutate: func(in *Input) {
				in.Parameters = append(in.Parameters, uniformParam("u_unused", gfx.ValueFloat, model.SemanticNone))
			},
			target:  ErrNoStage,
			uniform: "u_unused",
		},
		{
			name: "undeclared technique uniform",
			mutate: func(in *Input) {
				in.Parameters = in.Parameters[:3]
			},
			target:  ErrUnknownUniform,
			uniform: "u_tex",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := litInput()
			tt.mutate(&in)

			_, err := Adapt(in, Conversion{API: wgpu.BackendTypeOpenGL, Version: 330})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))

			var adaptErr *AdaptError
			require.True(t, errors.As(err, &adaptErr))
			assert.Equal(t, in.Technique, adaptErr.Technique)
			assert.Equal(t, tt.uniform, adaptErr.Uniform)
		})
	}
}

func TestAdapt_DefaultInput(t *testing.T) {
	out, err := Adapt(DefaultInput("broken"), Conversion{API: wgpu.BackendTypeOpenGLES, Version: 300})
	require.NoError(t, err)

	assert.Contains(t, out.VertexSource, "layout( location = 0 ) in vec3 a_position;")
	assert.Contains(t, out.VertexSource, "gl_Position = ( u_projectionMatrix * ( u_viewMatrix * u_modelMatrix ) ) * vec4( a_position, 1.0 );")
	assert.Equal(t, []string{ModelMatrixUniform, ViewMatrixUniform, ProjectionMatrixUniform}, uniformNames(out.Parameters))
}

func TestConversion_Normalized(t *testing.T) {
	c := Conversion{API: wgpu.BackendTypeVulkan, Multiview: true}.Normalized()
	assert.True(t, c.ExplicitLayout)
	assert.True(t, c.ViewProjectionBuffer)
	assert.Equal(t, 2, c.Views())
	assert.Equal(t, DefaultMaxJoints, c.MaxJoints)

	legacy := Conversion{API: wgpu.BackendTypeOpenGL, Version: 120, Multiview: true, JointBuffer: true}.Normalized()
	assert.False(t, legacy.Multiview)
	assert.False(t, legacy.JointBuffer)
	assert.False(t, legacy.ViewProjectionBuffer)

	fromCaps := ConversionForCaps(gfx.Caps{API: wgpu.BackendTypeOpenGL, Version: 410, MaxJoints: 32})
	assert.True(t, fromCaps.JointBuffer)
	assert.False(t, fromCaps.ExplicitLayout)
	assert.Equal(t, 32, fromCaps.MaxJoints)
}
