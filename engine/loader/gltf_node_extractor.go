package loader

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/document"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
)

const defaultSubScene = "default"

func (st *gltfImport) loadCameras() error {
	sec := st.section(sectionCameras)
	st.data.Cameras = make([]model.Camera, sec.ChildCount())
	for i := range st.data.Cameras {
		id, n := sec.Name(i), sec.Child(i)
		cam := model.Camera{Name: id}
		switch typ := n.ChildByName("type").String(""); typ {
		case "perspective":
			p := n.ChildByName("perspective")
			cam.Type = model.CameraPerspective
			cam.AspectRatio = float32(p.ChildByName("aspectRatio").Float(0))
			cam.YFov = float32(p.ChildByName("yfov").Float(0))
			cam.ZNear = float32(p.ChildByName("znear").Float(0))
			cam.ZFar = float32(p.ChildByName("zfar").Float(0))
		case "orthographic":
			o := n.ChildByName("orthographic")
			cam.Type = model.CameraOrthographic
			cam.XMag = float32(o.ChildByName("xmag").Float(0))
			cam.YMag = float32(o.ChildByName("ymag").Float(0))
			cam.ZNear = float32(o.ChildByName("znear").Float(0))
			cam.ZFar = float32(o.ChildByName("zfar").Float(0))
		default:
			return fmt.Errorf("camera %q type %q: %w", id, typ, ErrCameraType)
		}
		st.data.Cameras[i] = cam
	}
	st.index(sectionCameras, ids(sec))
	return nil
}

// loadNodes reads the nodes in document order, builds the hierarchy and stores them in
// storage order. The node name index maps document ids to storage indices.
func (st *gltfImport) loadNodes() error {
	sec := st.section(sectionNodes)
	names := ids(sec)
	input := model.NewNameIndex(names)
	nodes := make([]model.Node, len(names))
	children := make([][]int, len(names))
	skeletons := make([][]string, len(names))

	for i, id := range names {
		n := sec.Child(i)
		referrer := "node " + id
		node := model.Node{
			Name:       id,
			JointName:  n.ChildByName("jointName").String(""),
			Local:      localTransform(n),
			ChildNames: stringList(n.ChildByName("children")),
			Parent:     model.None,
			Camera:     st.ref(sectionCameras, n.ChildByName("camera"), referrer),
			Skin:       st.ref(sectionSkins, n.ChildByName("skin"), referrer),
		}
		for _, mesh := range stringList(n.ChildByName("meshes")) {
			if m := st.resolve(sectionMeshes, mesh, referrer); m != model.None {
				node.Models = append(node.Models, m)
			}
		}
		cursor := input.NewCursor()
		for _, child := range node.ChildNames {
			c, ok := cursor.Find(child)
			if !ok {
				st.linkErrs = append(st.linkErrs, &LinkError{Kind: sectionNodes, Name: child, Referrer: referrer})
				continue
			}
			children[i] = append(children[i], c)
		}
		skeletons[i] = stringList(n.ChildByName("skeletons"))
		nodes[i] = node
	}
	if len(st.linkErrs) > 0 {
		return nil
	}

	h, err := scene.BuildHierarchy(children)
	if err != nil {
		return err
	}
	st.data.Nodes = h.Arrange(nodes)
	st.data.SubTrees = h.SubTrees()

	stored := make([]string, len(h.Order))
	st.nodeSkeletons = make([][]string, len(h.Order))
	for s, old := range h.Order {
		stored[s] = names[old]
		st.nodeSkeletons[s] = skeletons[old]
	}
	st.data.NodeNames = st.index(sectionNodes, stored)
	return nil
}

// localTransform reads a node's local transform from either its matrix or its
// translation, rotation and scale properties.
func localTransform(n document.Node) model.Transform {
	if m := n.ChildByName("matrix"); m.ChildCount() == 16 {
		t, r, s := common.DecomposeTRS(matrix(m, common.IdentityMatrix()))
		return model.Transform{Translation: t, Rotation: r, Scale: s}
	}
	tr := model.IdentityTransform()
	if v := n.ChildByName("translation"); v.ChildCount() == 3 {
		v.Floats(tr.Translation[:])
	}
	if v := n.ChildByName("rotation"); v.ChildCount() == 4 {
		v.Floats(tr.Rotation[:])
	}
	if v := n.ChildByName("scale"); v.ChildCount() == 3 {
		v.Floats(tr.Scale[:])
	}
	return tr
}

// loadScenes maps each scene's root nodes to subtrees. A document without scenes gets a
// single sub-scene holding every subtree.
func (st *gltfImport) loadScenes() error {
	sec := st.section(sectionScenes)
	if sec.ChildCount() == 0 {
		all := make([]int, len(st.data.SubTrees))
		for i := range all {
			all[i] = i
		}
		st.data.SubScenes = []model.SubScene{{Name: defaultSubScene, SubTrees: all}}
		st.data.SubSceneNames = st.index(sectionScenes, []string{defaultSubScene})
		return nil
	}

	st.data.SubScenes = make([]model.SubScene, sec.ChildCount())
	for i := range st.data.SubScenes {
		id, n := sec.Name(i), sec.Child(i)
		sub := model.SubScene{Name: id}
		for _, root := range stringList(n.ChildByName("nodes")) {
			node := st.resolve(sectionNodes, root, "scene "+id)
			if node == model.None {
				continue
			}
			t := slices.IndexFunc(st.data.SubTrees, func(t model.SubTree) bool { return t.Contains(node) })
			if t >= 0 && !slices.Contains(sub.SubTrees, t) {
				sub.SubTrees = append(sub.SubTrees, t)
			}
		}
		st.data.SubScenes[i] = sub
	}
	st.data.SubSceneNames = st.index(sectionScenes, ids(sec))
	if def := st.root.ChildByName("scene").String(""); def != "" {
		if s := st.resolve(sectionScenes, def, "document"); s != model.None {
			st.data.DefaultSubScene = s
		}
	}
	return nil
}
