package camera

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

// SceneBounds returns the world-space box around every model of the active sub-scene, using
// the global transforms of the last Update. Skinned models are placed by their skin's parent
// node and use their bind-pose bounds. The box is empty when nothing is drawable.
//
// Parameters:
//   - s: the scene to measure
//
// Returns:
//   - common.AABB: the combined bounds
func SceneBounds(s scene.Scene) common.AABB {
	d := s.Data()
	bounds := common.EmptyAABB()
	active := s.ActiveSubScene()
	if active < 0 || active >= len(d.SubScenes) {
		return bounds
	}
	for _, t := range d.SubScenes[active].SubTrees {
		tree := d.SubTrees[t]
		for n := tree.Root; n < tree.Root+tree.NodeCount; n++ {
			node := d.Nodes[n]
			if len(node.Models) == 0 {
				continue
			}
			global := common.IdentityMatrix()
			switch {
			case node.Skin == model.None:
				global = s.GlobalTransform(n)
			case d.Skins[node.Skin].Parent != model.None:
				global = s.GlobalTransform(d.Skins[node.Skin].Parent)
			}
			for _, m := range node.Models {
				if b := d.Models[m].Bounds; !b.IsEmpty() {
					bounds.Extend(b.Transform(global[:]))
				}
			}
		}
	}
	return bounds
}
