package scene

import (
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/chewxy/math32"
)

// updateSkins evaluates every skin instantiated in a visible subtree of the active sub-scene
// once: joint matrices in skin-parent space, skeleton bounds and the cull flag. Skins that
// survive culling are uploaded to their joint buffer.
func (s *scene) updateSkins() error {
	st := &s.state
	clear(st.skinDone)
	clear(st.SkinCulled)

	for _, t := range s.activeSubTrees() {
		if !st.Visible[t] {
			continue
		}
		sub := &s.data.SubTrees[t]
		for n := sub.Root; n < sub.Root+sub.NodeCount; n++ {
			k := s.data.Nodes[n].Skin
			if k == model.None || st.skinDone[k] {
				continue
			}
			st.skinDone[k] = true
			if err := s.evaluateSkin(k); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *scene) evaluateSkin(k int) error {
	st := &s.state
	skin := &s.data.Skins[k]

	parentGlobal := common.IdentityMatrix()
	if skin.Parent != model.None {
		parentGlobal = st.Globals[skin.Parent]
	}
	var parentInverse [16]float32
	if !common.Invert4(parentInverse[:], parentGlobal[:]) {
		parentInverse = common.IdentityMatrix()
	}

	withBounds := len(skin.JointBounds) == len(skin.Joints) && len(skin.Joints) > 0
	bounds := common.EmptyAABB()
	var jointLocal [16]float32
	matrices := st.JointMatrices[k]
	for j, joint := range skin.Joints {
		common.Mul4(jointLocal[:], parentInverse[:], st.Globals[joint.Node][:])
		common.Mul4(matrices[j][:], jointLocal[:], skin.InverseBindMatrices[j][:])
		if withBounds {
			bounds.Extend(skin.JointBounds[j].Transform(jointLocal[:]))
		}
	}
	st.SkinBounds[k] = bounds

	if withBounds && s.culling && common.CullBoxInViews(st.viewProjs, parentGlobal[:], bounds) {
		st.SkinCulled[k] = true
		return nil
	}
	if skin.GPU == 0 {
		return nil
	}
	err := gfx.WithMappedBuffer(s.backend, skin.GPU, func(mem []byte) error {
		return putMatrices(mem, 0, matrices)
	})
	if err != nil {
		return fmt.Errorf("failed to upload joints of skin %q: %w", skin.Name, err)
	}
	return nil
}

// uploadViewProjection writes every view's matrices into the packed view/projection buffer.
func (s *scene) uploadViewProjection() error {
	if s.vpBuffer == 0 {
		return nil
	}
	views := s.state.views[:min(len(s.state.views), s.conv.Views())]
	offsets, _ := shader.ViewProjectionLayout(s.conv.Views())
	err := gfx.WithMappedBuffer(s.backend, s.vpBuffer, func(mem []byte) error {
		for eye, v := range views {
			stride := eye * 64
			for i, m := range [4]*[16]float32{&v.view, &v.viewInverse, &v.projection, &v.projectionInverse} {
				if err := putMatrices(mem, offsets[i]+stride, [][16]float32{*m}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upload view/projection buffer: %w", err)
	}
	return nil
}

// putMatrices writes column-major matrices as little-endian float32 starting at offset.
func putMatrices(mem []byte, offset int, matrices [][16]float32) error {
	if need := offset + len(matrices)*64; need > len(mem) {
		return fmt.Errorf("mapped buffer holds %d bytes, need %d", len(mem), need)
	}
	for _, m := range matrices {
		for _, f := range m {
			binary.LittleEndian.PutUint32(mem[offset:], math32.Float32bits(f))
			offset += 4
		}
	}
	return nil
}
