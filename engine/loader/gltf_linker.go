package loader

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

// link resolves the references that name nodes once the hierarchy is in storage order,
// then assigns every subtree the animations and timelines that touch it.
func (st *gltfImport) link() error {
	d := st.data
	for i := range d.Techniques {
		tech := &d.Techniques[i]
		for j := range tech.Parameters {
			if p := &tech.Parameters[j]; p.NodeName != "" {
				p.Node = st.resolve(sectionNodes, p.NodeName, "technique "+tech.Name)
			}
		}
	}
	for i := range d.Animations {
		anim := &d.Animations[i]
		for j := range anim.Channels {
			ch := &anim.Channels[j]
			ch.Node = st.resolve(sectionNodes, ch.NodeName, "animation "+anim.Name)
		}
	}

	if err := st.linkSkins(); err != nil {
		return err
	}
	if len(st.linkErrs) > 0 {
		return nil
	}

	for t := range d.SubTrees {
		tree := &d.SubTrees[t]
		for a := range d.Animations {
			anim := &d.Animations[a]
			if !slices.ContainsFunc(anim.Channels, func(ch model.Channel) bool { return tree.Contains(ch.Node) }) {
				continue
			}
			tree.Animations = append(tree.Animations, a)
			for _, tl := range anim.TimeLines {
				if !slices.Contains(tree.TimeLines, tl) {
					tree.TimeLines = append(tree.TimeLines, tl)
				}
			}
		}
		slices.Sort(tree.TimeLines)
	}
	return nil
}

// linkSkins binds every skin instance to its joint nodes. Joints resolve inside the subtrees
// of the instance's skeleton roots, or against every node when it names none. A skin shared
// by nodes with different skeleton roots is cloned so each instance owns its joint bindings
// and joint buffer.
func (st *gltfImport) linkSkins() error {
	d := st.data
	jointNames := make([]string, len(d.Nodes))
	for s := range d.Nodes {
		jointNames[s] = d.Nodes[s].JointName
	}
	joints := model.NewNameIndex(jointNames)

	skinCount := len(d.Skins)
	linked := make([]bool, skinCount)
	// instances[i] lists the skins, original first, that share source skin i.
	instances := make([][]int, skinCount)
	for s := range d.Nodes {
		source := d.Nodes[s].Skin
		if source == model.None {
			continue
		}
		referrer := "node " + d.Nodes[s].Name
		var names []string
		var roots []int
		for _, name := range st.nodeSkeletons[s] {
			if slices.Contains(names, name) {
				continue
			}
			names = append(names, name)
			if root := st.resolve(sectionNodes, name, referrer); root != model.None {
				roots = append(roots, root)
			}
		}

		if !linked[source] {
			linked[source] = true
			instances[source] = []int{source}
			d.Skins[source].SkeletonNames = names
			d.Skins[source].Skeletons = roots
			st.linkSkin(&d.Skins[source], joints)
			continue
		}
		shared := slices.IndexFunc(instances[source], func(i int) bool {
			return slices.Equal(d.Skins[i].Skeletons, roots) && slices.Equal(d.Skins[i].SkeletonNames, names)
		})
		if shared >= 0 {
			d.Nodes[s].Skin = instances[source][shared]
			continue
		}

		inst, err := st.instanceSkin(&d.Skins[source], len(instances[source]))
		if err != nil {
			return err
		}
		inst.SkeletonNames = names
		inst.Skeletons = roots
		d.Skins = append(d.Skins, inst)
		i := len(d.Skins) - 1
		instances[source] = append(instances[source], i)
		d.Nodes[s].Skin = i
		st.linkSkin(&d.Skins[i], joints)
	}
	for i := range skinCount {
		if !linked[i] {
			st.linkSkin(&d.Skins[i], joints)
		}
	}
	return nil
}

// instanceSkin copies a skin for another set of skeleton roots. Matrices and joint bounds are
// shared; joint bindings and the joint buffer are not.
func (st *gltfImport) instanceSkin(src *model.Skin, n int) (model.Skin, error) {
	inst := *src
	inst.Name = fmt.Sprintf("%s#%d", src.Name, n)
	inst.Joints = slices.Clone(src.Joints)
	for j := range inst.Joints {
		inst.Joints[j].Node = model.None
	}
	inst.Parent = model.None
	inst.GPU = 0
	if len(inst.Joints) > 0 {
		buf, err := st.backend.CreateBuffer(gfx.BufferDesc{
			Label: inst.Name,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
			Size:  len(inst.Joints) * 64,
		})
		if err != nil {
			return inst, fmt.Errorf("failed to create joint buffer for skin %s: %w", inst.Name, err)
		}
		inst.GPU = buf
	}
	return inst, nil
}
