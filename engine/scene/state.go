package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
)

// View is one eye's camera.
type View struct {
	View       [16]float32
	Projection [16]float32
}

// viewState caches the matrices derived from a View.
type viewState struct {
	view, projection               [16]float32
	viewInverse, projectionInverse [16]float32
	viewProjection                 [16]float32
}

func newViewState(v View) viewState {
	vs := viewState{view: v.View, projection: v.Projection}
	if !common.Invert4(vs.viewInverse[:], v.View[:]) {
		vs.viewInverse = common.IdentityMatrix()
	}
	if !common.Invert4(vs.projectionInverse[:], v.Projection[:]) {
		vs.projectionInverse = common.IdentityMatrix()
	}
	common.Mul4(vs.viewProjection[:], v.Projection[:], v.View[:])
	return vs
}

// State is the mutable per-frame data of a scene, kept apart from the loaded tables.
type State struct {
	// Locals and Globals are indexed by node.
	Locals  []model.Transform
	Globals [][16]float32

	// SkinBounds, SkinCulled and JointMatrices are indexed by skin.
	SkinBounds    []common.AABB
	SkinCulled    []bool
	JointMatrices [][][16]float32

	// Visible is indexed by subtree.
	Visible []bool
	// Active is the displayed sub-scene.
	Active int

	Viewport [4]float32

	views     []viewState
	viewProjs [][16]float32
	skinDone  []bool
}

func newState(d *Data, views int) State {
	st := State{
		Locals:        make([]model.Transform, len(d.Nodes)),
		Globals:       make([][16]float32, len(d.Nodes)),
		SkinBounds:    make([]common.AABB, len(d.Skins)),
		SkinCulled:    make([]bool, len(d.Skins)),
		JointMatrices: make([][][16]float32, len(d.Skins)),
		Visible:       make([]bool, len(d.SubTrees)),
		Active:        d.DefaultSubScene,
		skinDone:      make([]bool, len(d.Skins)),
	}
	for i := range d.Nodes {
		st.Locals[i] = d.Nodes[i].Local
		st.Globals[i] = common.IdentityMatrix()
	}
	for i := range d.Skins {
		st.SkinBounds[i] = common.EmptyAABB()
		st.JointMatrices[i] = make([][16]float32, len(d.Skins[i].Joints))
		for j := range st.JointMatrices[i] {
			st.JointMatrices[i][j] = common.IdentityMatrix()
		}
	}
	for i := range st.Visible {
		st.Visible[i] = true
	}
	identity := View{View: common.IdentityMatrix(), Projection: common.IdentityMatrix()}
	st.setViews(views, []View{identity})
	return st
}

// setViews stores one view state per rendered view, repeating the last supplied view when
// fewer views than rendered are given. Views beyond count are dropped.
func (st *State) setViews(count int, views []View) {
	st.views = st.views[:0]
	st.viewProjs = st.viewProjs[:0]
	for i := range count {
		vs := newViewState(views[min(i, len(views)-1)])
		st.views = append(st.views, vs)
		st.viewProjs = append(st.viewProjs, vs.viewProjection)
	}
}

// ViewProjection returns the combined view-projection matrix of an eye.
func (st *State) ViewProjection(eye int) [16]float32 {
	if eye < 0 || eye >= len(st.views) {
		return common.IdentityMatrix()
	}
	return st.views[eye].viewProjection
}

func (s *scene) SetViews(views ...View) error {
	if len(views) == 0 || len(views) > 2 {
		return fmt.Errorf("%w: %d", ErrViewCount, len(views))
	}
	s.state.setViews(s.conv.Views(), views)
	return nil
}

func (s *scene) SetViewFromCamera(node int, aspect float32) error {
	if node < 0 || node >= len(s.data.Nodes) {
		return fmt.Errorf("%w: %d", ErrNoNode, node)
	}
	cam := s.data.Nodes[node].Camera
	if cam == model.None {
		return fmt.Errorf("%w: %q", ErrNoCamera, s.data.Nodes[node].Name)
	}
	var v View
	global := s.state.Globals[node]
	if !common.Invert4(v.View[:], global[:]) {
		v.View = common.IdentityMatrix()
	}
	v.Projection = s.data.Cameras[cam].Projection(aspect)
	return s.SetViews(v)
}

func (s *scene) SetViewport(x, y, width, height float32) {
	s.state.Viewport = [4]float32{x, y, width, height}
}
