package loader

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/document"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

func (st *gltfImport) loadSkins() error {
	sec := st.section(sectionSkins)
	st.data.Skins = make([]model.Skin, sec.ChildCount())
	for i := range st.data.Skins {
		id, n := sec.Name(i), sec.Child(i)
		skin, err := st.skin(id, n)
		if err != nil {
			return err
		}
		st.data.Skins[i] = skin
	}
	st.index(sectionSkins, ids(sec))
	return nil
}

// skin loads one skin. The bind-shape matrix is folded into every inverse-bind matrix and
// joint nodes are left for the link pass.
func (st *gltfImport) skin(id string, n document.Node) (model.Skin, error) {
	referrer := "skin " + id
	names := stringList(n.ChildByName("jointNames"))
	if st.conv.MaxJoints > 0 && len(names) > st.conv.MaxJoints {
		return model.Skin{}, fmt.Errorf("%s has %d joints, limit %d: %w", referrer, len(names), st.conv.MaxJoints, ErrTooManyJoints)
	}

	skin := model.Skin{
		Name:                id,
		Joints:              make([]model.Joint, len(names)),
		InverseBindMatrices: make([][16]float32, len(names)),
		Parent:              model.None,
	}
	for j, name := range names {
		skin.Joints[j] = model.Joint{Name: name, Node: model.None}
		skin.InverseBindMatrices[j] = common.IdentityMatrix()
	}

	if acc := st.ref(sectionAccessors, n.ChildByName("inverseBindMatrices"), referrer); acc != model.None {
		values, err := st.readFloats(acc, model.AccessorMat4)
		if err != nil {
			return skin, fmt.Errorf("%s: %w", referrer, err)
		}
		if len(values) != len(names)*16 {
			return skin, fmt.Errorf("%s: %d inverse bind matrices for %d joints: %w", referrer, len(values)/16, len(names), ErrSampleCount)
		}
		for j := range skin.InverseBindMatrices {
			copy(skin.InverseBindMatrices[j][:], values[j*16:])
		}
	}
	bindShape := matrix(n.ChildByName("bindShapeMatrix"), common.IdentityMatrix())
	if bindShape != common.IdentityMatrix() {
		for j := range skin.InverseBindMatrices {
			ibm := skin.InverseBindMatrices[j]
			common.Mul4(skin.InverseBindMatrices[j][:], ibm[:], bindShape[:])
		}
	}

	ext := n.ChildByName("extensions").ChildByName(extSkinCulling)
	if acc := st.ref(sectionAccessors, ext.ChildByName("jointBounds"), referrer); acc != model.None {
		values, err := st.readFloats(acc, model.AccessorVec3)
		if err != nil {
			return skin, fmt.Errorf("%s joint bounds: %w", referrer, err)
		}
		if len(values) != len(names)*6 {
			return skin, fmt.Errorf("%s: %d joint bounds for %d joints: %w", referrer, len(values)/6, len(names), ErrSampleCount)
		}
		skin.JointBounds = make([]common.AABB, len(names))
		for j := range skin.JointBounds {
			copy(skin.JointBounds[j].Min[:], values[j*6:])
			copy(skin.JointBounds[j].Max[:], values[j*6+3:])
		}
	}

	if len(names) > 0 {
		buf, err := st.backend.CreateBuffer(gfx.BufferDesc{
			Label: id,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
			Size:  len(names) * 64,
		})
		if err != nil {
			return skin, fmt.Errorf("failed to create joint buffer for %s: %w", referrer, err)
		}
		skin.GPU = buf
	}
	return skin, nil
}

// linkSkin resolves joints against node joint names and finds the skin's parent node. With
// skeleton roots set, a joint only matches inside one of their subtrees.
func (st *gltfImport) linkSkin(skin *model.Skin, jointNames *model.NameIndex) {
	nodes := st.data.Nodes
	cursor := jointNames.NewCursor()
	failed := false
	for j := range skin.Joints {
		name := skin.Joints[j].Name
		node, ok := model.None, false
		if len(skin.Skeletons) == 0 {
			node, ok = cursor.Find(name)
		}
		for _, root := range skin.Skeletons {
			if node, ok = cursor.FindInRange(name, root, root+nodes[root].SubtreeCount); ok {
				break
			}
		}
		if !ok {
			st.linkErrs = append(st.linkErrs, &LinkError{Kind: "joint", Name: name, Referrer: "skin " + skin.Name})
			failed = true
			continue
		}
		skin.Joints[j].Node = node
	}
	if !failed && len(st.linkErrs) == 0 {
		skin.Parent = skinParent(nodes, skin.Joints)
	}
}

// skinParent returns the closest common ancestor of all joints that is not itself a joint,
// or model.None when the skeleton hangs from the scene root. Nodes must be in storage order.
func skinParent(nodes []model.Node, joints []model.Joint) int {
	if len(joints) == 0 {
		return model.None
	}
	anc := joints[0].Node
	for _, j := range joints[1:] {
		for anc != model.None && !(anc <= j.Node && j.Node <= anc+nodes[anc].SubtreeCount) {
			anc = nodes[anc].Parent
		}
	}
	isJoint := func(n int) bool {
		return slices.ContainsFunc(joints, func(j model.Joint) bool { return j.Node == n })
	}
	for anc != model.None && isJoint(anc) {
		anc = nodes[anc].Parent
	}
	return anc
}
