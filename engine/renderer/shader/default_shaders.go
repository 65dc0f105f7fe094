package shader

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

const defaultVertexSource = `precision highp float;
uniform mat4 u_modelViewProjectionMatrix;
attribute vec3 a_position;
void main()
{
	gl_Position = u_modelViewProjectionMatrix * vec4( a_position, 1.0 );
}
`

const defaultFragmentSource = `precision highp float;
void main()
{
	gl_FragColor = vec4( 1.0, 0.0, 1.0, 1.0 );
}
`

// DefaultInput returns the position-only program substituted for a technique whose
// attributes cannot all be given a fixed location.
//
// Parameters:
//   - technique: the name of the technique being replaced
//
// Returns:
//   - Input: the default program
func DefaultInput(technique string) Input {
	return Input{
		Technique:      technique,
		VertexSource:   defaultVertexSource,
		FragmentSource: defaultFragmentSource,
		Attributes: []model.Attribute{{
			Name:     "a_position",
			Semantic: model.AttributePosition,
			Format:   wgpu.VertexFormatFloat32x3,
		}},
		Parameters: []model.Parameter{{
			Name:     "modelViewProjectionMatrix",
			Uniform:  "u_modelViewProjectionMatrix",
			Type:     gfx.ValueMat4,
			Count:    1,
			Semantic: model.SemanticModelViewProjection,
			Node:     model.None,
			Texture:  model.None,
		}},
	}
}
