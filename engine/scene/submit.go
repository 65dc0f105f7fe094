package scene

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
)

func (s *scene) Submit(stream gfx.CommandStream) FrameStats {
	var stats FrameStats
	if s.destroyed {
		return stats
	}
	st := &s.state
	for _, t := range s.activeSubTrees() {
		if !st.Visible[t] {
			continue
		}
		sub := &s.data.SubTrees[t]
		for n := sub.Root; n < sub.Root+sub.NodeCount; n++ {
			node := &s.data.Nodes[n]
			if len(node.Models) == 0 {
				continue
			}
			skinned := node.Skin != model.None
			if skinned && st.SkinCulled[node.Skin] {
				stats.CulledNodes++
				continue
			}
			modelMatrix := s.modelMatrix(n)
			for _, m := range node.Models {
				mdl := &s.data.Models[m]
				if !skinned && s.cull(modelMatrix, mdl.Bounds) {
					stats.CulledModels++
					continue
				}
				for i := range mdl.Surfaces {
					surf := &mdl.Surfaces[i]
					if !skinned && len(mdl.Surfaces) > 1 && s.cull(modelMatrix, surf.Bounds) {
						stats.CulledSurfaces++
						continue
					}
					stream.Submit(s.command(n, modelMatrix, surf))
					stats.Draws++
				}
			}
		}
	}
	for _, culled := range st.SkinCulled {
		if culled {
			stats.CulledSkins++
		}
	}
	return stats
}

// modelMatrix returns the world matrix the models of a node are drawn with.
func (s *scene) modelMatrix(node int) [16]float32 {
	if n := s.data.modelNode(node); n != model.None {
		return s.state.Globals[n]
	}
	return common.IdentityMatrix()
}

// cull reports whether model-space bounds are outside every view. Empty bounds are never culled.
func (s *scene) cull(modelMatrix [16]float32, box common.AABB) bool {
	return s.culling && !box.IsEmpty() && common.CullBoxInViews(s.state.viewProjs, modelMatrix[:], box)
}

// command builds the draw of one surface with a binding for every technique parameter.
func (s *scene) command(node int, modelMatrix [16]float32, surf *model.Surface) gfx.Command {
	mat := &s.data.Materials[surf.Material]
	tech := &s.data.Techniques[mat.Technique]
	cmd := gfx.Command{
		Pipeline: surf.Pipeline,
		Geometry: s.data.Geometries[surf.Geometry].GPU,
		Bindings: make([]gfx.Binding, len(tech.Parameters)),
	}
	for i := range tech.Parameters {
		cmd.Bindings[i] = s.bind(i, &tech.Parameters[i], node, modelMatrix)
	}
	for _, v := range mat.Values {
		if v.Parameter >= 0 && v.Parameter < len(cmd.Bindings) {
			s.overlay(&cmd.Bindings[v.Parameter], v)
		}
	}
	return cmd
}

// bind resolves one parameter. A parameter bound to a node always takes that node's global
// transform, whatever its semantic.
func (s *scene) bind(index int, p *model.Parameter, node int, modelMatrix [16]float32) gfx.Binding {
	b := gfx.Binding{Parameter: index, Type: p.Type}
	if p.Node != model.None {
		setMatrix(&b, s.state.Globals[p.Node])
		return b
	}

	eye := &s.state.views[0]
	switch p.Semantic {
	case model.SemanticLocal:
		setMatrix(&b, s.state.Locals[node].Matrix())
	case model.SemanticModel:
		setMatrix(&b, modelMatrix)
	case model.SemanticModelInverse:
		setMatrix(&b, inverse(modelMatrix))
	case model.SemanticModelInverseTranspose:
		setInverseTranspose(&b, modelMatrix)
	case model.SemanticView:
		setMatrix(&b, eye.view)
	case model.SemanticProjection:
		setMatrix(&b, eye.projection)
	case model.SemanticViewInverse:
		setMatrix(&b, eye.viewInverse)
	case model.SemanticProjectionInverse:
		setMatrix(&b, eye.projectionInverse)
	case model.SemanticModelView:
		setMatrix(&b, multiply(eye.view, modelMatrix))
	case model.SemanticModelViewProjection:
		setMatrix(&b, multiply(eye.viewProjection, modelMatrix))
	case model.SemanticModelViewInverse:
		setMatrix(&b, inverse(multiply(eye.view, modelMatrix)))
	case model.SemanticModelViewProjectionInverse:
		setMatrix(&b, inverse(multiply(eye.viewProjection, modelMatrix)))
	case model.SemanticModelViewInverseTranspose:
		setInverseTranspose(&b, multiply(eye.view, modelMatrix))
	case model.SemanticViewport:
		viewport := s.state.Viewport
		b.Floats = viewport[:]
	case model.SemanticJointMatrix:
		b.Floats = s.jointFloats(node, max(p.Count, 1))
	case model.SemanticJointBuffer:
		if k := s.data.Nodes[node].Skin; k != model.None {
			b.Buffer = s.data.Skins[k].GPU
		}
	case model.SemanticViewProjectionBuffer:
		b.Buffer = s.vpBuffer
	default:
		if p.Type.IsSampler() {
			if p.Texture != model.None {
				b.Texture = s.data.Textures[p.Texture].GPU
			}
		} else {
			setFloats(&b, p.Value)
		}
	}
	return b
}

func (s *scene) overlay(b *gfx.Binding, v model.MaterialValue) {
	if b.Type.IsSampler() {
		if v.Texture != model.None {
			b.Texture = s.data.Textures[v.Texture].GPU
		}
		return
	}
	if len(v.Value) > 0 {
		setFloats(b, v.Value)
	}
}

// jointFloats flattens the node's joint matrices, padding with identity up to count.
func (s *scene) jointFloats(node, count int) []float32 {
	var joints [][16]float32
	if k := s.data.Nodes[node].Skin; k != model.None {
		joints = s.state.JointMatrices[k]
	}
	out := make([]float32, 0, count*16)
	identity := common.IdentityMatrix()
	for j := range count {
		if j < len(joints) {
			out = append(out, joints[j][:]...)
		} else {
			out = append(out, identity[:]...)
		}
	}
	return out
}

func setFloats(b *gfx.Binding, values []float32) {
	if b.Type.IsInteger() {
		b.Ints = make([]int32, len(values))
		for i, v := range values {
			b.Ints[i] = int32(v)
		}
		b.Floats = nil
		return
	}
	b.Floats = values
}

// setMatrix binds a 4x4 matrix, truncated to the upper-left block for mat3 and mat2 parameters.
func setMatrix(b *gfx.Binding, m [16]float32) {
	switch b.Type {
	case gfx.ValueMat3:
		b.Floats = []float32{m[0], m[1], m[2], m[4], m[5], m[6], m[8], m[9], m[10]}
	case gfx.ValueMat2:
		b.Floats = []float32{m[0], m[1], m[4], m[5]}
	default:
		b.Floats = m[:]
	}
}

// setInverseTranspose binds the inverse transpose of m's upper-left 3x3 block.
func setInverseTranspose(b *gfx.Binding, m [16]float32) {
	inv := inverse(m)
	var t [16]float32
	for c := range 4 {
		for r := range 4 {
			t[c*4+r] = inv[r*4+c]
		}
	}
	setMatrix(b, t)
}

func inverse(m [16]float32) [16]float32 {
	var out [16]float32
	if !common.Invert4(out[:], m[:]) {
		return common.IdentityMatrix()
	}
	return out
}

func multiply(a, b [16]float32) [16]float32 {
	var out [16]float32
	common.Mul4(out[:], a[:], b[:])
	return out
}
