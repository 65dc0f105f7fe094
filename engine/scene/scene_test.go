package scene

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx/recorder"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/animator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(name string, translation [3]float32, children ...int) model.Node {
	local := model.IdentityTransform()
	local.Translation = translation
	return model.Node{
		Name:     name,
		Local:    local,
		Children: children,
		Parent:   model.None,
		Camera:   model.None,
		Skin:     model.None,
	}
}

// forest arranges nodes into storage order and wraps them in one sub-scene holding every subtree.
func forest(t *testing.T, nodes ...model.Node) *Data {
	t.Helper()
	children := make([][]int, len(nodes))
	for i := range nodes {
		children[i] = nodes[i].Children
	}
	h, err := BuildHierarchy(children)
	require.NoError(t, err)

	d := &Data{Nodes: h.Arrange(nodes), SubTrees: h.SubTrees()}
	all := make([]int, len(d.SubTrees))
	names := make([]string, len(d.Nodes))
	for i := range all {
		all[i] = i
	}
	for i := range d.Nodes {
		names[i] = d.Nodes[i].Name
	}
	d.SubScenes = []model.SubScene{{Name: "default", SubTrees: all}}
	d.NodeNames = model.NewNameIndex(names)
	d.SubSceneNames = model.NewNameIndex([]string{"default"})
	return d
}

func translation(m [16]float32) []float32 {
	return m[12:15]
}

// drawable gives node 0 of d one model with one surface whose technique has the given parameters.
func drawable(d *Data, bounds common.AABB, params ...model.Parameter) {
	d.Techniques = []model.Technique{{Name: "t", Parameters: params}}
	d.Materials = []model.Material{{Name: "m", Technique: 0}}
	d.Geometries = []model.Geometry{{Key: "g", GPU: 7}}
	d.Models = []model.Model{{
		Name:     "mesh",
		Surfaces: []model.Surface{{Material: 0, Geometry: 0, Pipeline: 3, Bounds: bounds}},
		Bounds:   bounds,
	}}
}

func param(uniform string, typ gfx.ValueType, sem model.Semantic) model.Parameter {
	return model.Parameter{Name: uniform, Uniform: uniform, Type: typ, Count: 1, Semantic: sem, Node: model.None, Texture: model.None}
}

func unitBox() common.AABB {
	return common.AABB{Min: [3]float32{-0.5, -0.5, -0.5}, Max: [3]float32{0.5, 0.5, 0.5}}
}

func TestScene_ChildInheritsParentTranslation(t *testing.T) {
	d := forest(t,
		node("root", [3]float32{0, 0, 0}, 1),
		node("child", [3]float32{1, 0, 0}),
	)
	s, err := NewScene(recorder.NewRecorder(), d)
	require.NoError(t, err)
	require.NoError(t, s.Update())

	child, ok := s.FindNode("child")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0, 0}, translation(s.GlobalTransform(child)))
}

func TestScene_AnimateWritesNodeTransforms(t *testing.T) {
	d := forest(t,
		node("root", [3]float32{0, 1, 0}, 1),
		node("child", [3]float32{0, 0, 0}),
	)
	d.TimeLines = []model.TimeLine{animator.NewTimeLine(0, []float32{0, 1})}
	d.Animations = []model.Animation{{
		Name:      "move",
		TimeLines: []int{0},
		Channels: []model.Channel{{
			Node:        1,
			TimeLine:    0,
			Translation: [][3]float32{{0, 0, 0}, {2, 0, 0}},
		}},
	}}
	d.SubTrees[0].Animations = []int{0}
	d.SubTrees[0].TimeLines = []int{0}

	rec := recorder.NewRecorder()
	s, err := NewScene(rec, d)
	require.NoError(t, err)

	_, err = s.Frame(1.5, rec)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1, 1, 0}, translation(s.GlobalTransform(1)), 1e-5)
}

// countingPlayer records which timelines and animations a frame evaluates.
type countingPlayer struct {
	animator.Player
	updated []int
	applied []string
}

func (p *countingPlayer) Update(timeLines []model.TimeLine, active []int) {
	p.updated = append(p.updated, active...)
	p.Player.Update(timeLines, active)
}

func (p *countingPlayer) Apply(anim *model.Animation, locals []model.Transform) {
	p.applied = append(p.applied, anim.Name)
	p.Player.Apply(anim, locals)
}

func TestScene_AnimateEvaluatesSharedWorkOnce(t *testing.T) {
	d := forest(t,
		node("left", [3]float32{0, 0, 0}),
		node("right", [3]float32{0, 0, 0}),
	)
	d.TimeLines = []model.TimeLine{animator.NewTimeLine(0, []float32{0, 1})}
	d.Animations = []model.Animation{{
		Name:      "both",
		TimeLines: []int{0},
		Channels: []model.Channel{
			{Node: 0, TimeLine: 0, Translation: [][3]float32{{0, 0, 0}, {2, 0, 0}}},
			{Node: 1, TimeLine: 0, Translation: [][3]float32{{0, 0, 0}, {0, 2, 0}}},
		},
	}}
	for i := range d.SubTrees {
		d.SubTrees[i].Animations = []int{0}
		d.SubTrees[i].TimeLines = []int{0}
	}

	p := &countingPlayer{Player: animator.NewPlayer()}
	rec := recorder.NewRecorder()
	s, err := NewScene(rec, d, WithPlayer(p))
	require.NoError(t, err)

	_, err = s.Frame(0.5, rec)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, p.updated)
	assert.Equal(t, []string{"both"}, p.applied)
	assert.InDeltaSlice(t, []float32{1, 0, 0}, translation(s.GlobalTransform(0)), 1e-5)
	assert.InDeltaSlice(t, []float32{0, 1, 0}, translation(s.GlobalTransform(1)), 1e-5)
}

func TestScene_ExplicitNodeBindingWinsOverSemantic(t *testing.T) {
	d := forest(t,
		node("mesh", [3]float32{0, 0, 0}),
		node("anchor", [3]float32{5, 0, 0}),
	)
	bound := param("u_bound", gfx.ValueMat4, model.SemanticModel)
	bound.Node = 1
	color := param("u_color", gfx.ValueVec4, model.SemanticNone)
	color.Value = []float32{1, 0, 0, 1}
	drawable(d, common.EmptyAABB(), bound, param("u_model", gfx.ValueMat4, model.SemanticModel), color)
	d.Materials[0].Values = []model.MaterialValue{{Parameter: 2, Value: []float32{0, 1, 0, 1}, Texture: model.None}}
	d.Nodes[0].Models = []int{0}

	rec := recorder.NewRecorder()
	s, err := NewScene(rec, d)
	require.NoError(t, err)
	stats, err := s.Frame(0, rec)
	require.NoError(t, err)

	require.Equal(t, 1, stats.Draws)
	cmd := rec.Commands()[0]
	assert.Equal(t, gfx.Pipeline(3), cmd.Pipeline)
	assert.Equal(t, gfx.Geometry(7), cmd.Geometry)
	require.Len(t, cmd.Bindings, 3)
	assert.Equal(t, []float32{5, 0, 0}, cmd.Bindings[0].Floats[12:15])
	assert.Equal(t, []float32{0, 0, 0}, cmd.Bindings[1].Floats[12:15])
	assert.Equal(t, []float32{0, 1, 0, 1}, cmd.Bindings[2].Floats)
	assert.Equal(t, 2, cmd.Bindings[2].Parameter)
}

func TestScene_CullsModelsOutsideView(t *testing.T) {
	d := forest(t, node("mesh", [3]float32{0, 0, 0}))
	drawable(d, unitBox(), param("u_mvp", gfx.ValueMat4, model.SemanticModelViewProjection))
	d.Nodes[0].Models = []int{0}

	rec := recorder.NewRecorder()
	s, err := NewScene(rec, d)
	require.NoError(t, err)

	stats, err := s.Frame(0, rec)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Draws)

	moved := model.IdentityTransform()
	moved.Translation = [3]float32{10, 0, 0}
	require.NoError(t, s.SetNodeTransform(0, moved))
	rec.Reset()
	stats, err = s.Frame(0, rec)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Draws)
	assert.Equal(t, 1, stats.CulledModels)
	assert.Empty(t, rec.Commands())
}

func TestScene_HiddenSubTreeIsNotDrawn(t *testing.T) {
	d := forest(t, node("mesh", [3]float32{0, 0, 0}))
	drawable(d, unitBox())
	d.Nodes[0].Models = []int{0}

	rec := recorder.NewRecorder()
	s, err := NewScene(rec, d)
	require.NoError(t, err)
	require.NoError(t, s.SetSubTreeVisible(0, false))
	assert.False(t, s.SubTreeVisible(0))

	stats, err := s.Frame(0, rec)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Draws)
	assert.ErrorIs(t, s.SetSubTreeVisible(4, true), ErrNoSubTree)
	assert.ErrorIs(t, s.SetActiveSubScene(2), ErrNoSubScene)
}

func skinnedFixture(t *testing.T, rec recorder.Recorder) *Data {
	t.Helper()
	d := forest(t,
		node("body", [3]float32{0, 0, 0}),
		node("bone", [3]float32{0.25, 0, 0}),
	)
	drawable(d, common.EmptyAABB(), param("u_joints", gfx.ValueMat4, model.SemanticJointMatrix))
	buf, err := rec.CreateBuffer(gfx.BufferDesc{Label: "joints", Size: 64})
	require.NoError(t, err)
	d.Skins = []model.Skin{{
		Name:                "skin",
		Joints:              []model.Joint{{Name: "bone", Node: 1}},
		InverseBindMatrices: [][16]float32{common.IdentityMatrix()},
		JointBounds:         []common.AABB{unitBox()},
		Parent:              model.None,
		GPU:                 buf,
	}}
	d.Nodes[0].Skin = 0
	d.Nodes[0].Models = []int{0}
	return d
}

func TestScene_SkinUploadsJointMatrices(t *testing.T) {
	rec := recorder.NewRecorder()
	d := skinnedFixture(t, rec)
	s, err := NewScene(rec, d)
	require.NoError(t, err)

	stats, err := s.Frame(0, rec)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Draws)
	assert.False(t, s.State().SkinCulled[0])
	assert.Equal(t, 1, rec.BufferWrites(d.Skins[0].GPU))

	data, ok := rec.BufferData(d.Skins[0].GPU)
	require.True(t, ok)
	x := math.Float32frombits(binary.LittleEndian.Uint32(data[48:]))
	assert.InDelta(t, 0.25, x, 1e-6)

	bounds := s.State().SkinBounds[0]
	assert.InDeltaSlice(t, []float32{-0.25, -0.5, -0.5}, bounds.Min[:], 1e-6)
	assert.InDeltaSlice(t, []float32{0.75, 0.5, 0.5}, bounds.Max[:], 1e-6)

	joints := rec.Commands()[0].Bindings[0]
	assert.InDelta(t, 0.25, joints.Floats[12], 1e-6)
}

func TestScene_SkinOutsideViewIsCulled(t *testing.T) {
	rec := recorder.NewRecorder()
	d := skinnedFixture(t, rec)
	s, err := NewScene(rec, d)
	require.NoError(t, err)

	far := model.IdentityTransform()
	far.Translation = [3]float32{10, 0, 0}
	require.NoError(t, s.SetNodeTransform(1, far))

	stats, err := s.Frame(0, rec)
	require.NoError(t, err)
	assert.True(t, s.State().SkinCulled[0])
	assert.Equal(t, 0, stats.Draws)
	assert.Equal(t, 1, stats.CulledNodes)
	assert.Equal(t, 1, stats.CulledSkins)
	assert.Equal(t, 0, rec.BufferWrites(d.Skins[0].GPU))
}

func TestScene_CullingDisabled(t *testing.T) {
	rec := recorder.NewRecorder()
	d := skinnedFixture(t, rec)
	s, err := NewScene(rec, d, WithCulling(false))
	require.NoError(t, err)

	far := model.IdentityTransform()
	far.Translation = [3]float32{10, 0, 0}
	require.NoError(t, s.SetNodeTransform(1, far))
	stats, err := s.Frame(0, rec)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Draws)
}

func TestScene_ViewProjectionBuffer(t *testing.T) {
	d := forest(t, node("mesh", [3]float32{0, 0, 0}))
	drawable(d, common.EmptyAABB(), param("u_viewProjectionBuffer", gfx.ValueBuffer, model.SemanticViewProjectionBuffer))
	d.Nodes[0].Models = []int{0}

	rec := recorder.NewRecorder()
	s, err := NewScene(rec, d, WithName("vp"))
	require.NoError(t, err)
	assert.Equal(t, "vp", s.Name())

	view := common.IdentityMatrix()
	view[14] = -3
	require.NoError(t, s.SetViews(View{View: view, Projection: common.IdentityMatrix()}))
	_, err = s.Frame(0, rec)
	require.NoError(t, err)

	buf := rec.Commands()[0].Bindings[0].Buffer
	require.NotZero(t, buf)
	data, ok := rec.BufferData(buf)
	require.True(t, ok)
	require.Len(t, data, 256)
	assert.Equal(t, float32(-3), math.Float32frombits(binary.LittleEndian.Uint32(data[56:])))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(data[64+56:])))

	assert.ErrorIs(t, s.SetViews(), ErrViewCount)
}

func TestScene_SetViewsDropsExtraViews(t *testing.T) {
	d := forest(t, node("mesh", [3]float32{10, 0, 0}))
	drawable(d, unitBox(), param("u_mvp", gfx.ValueMat4, model.SemanticModelViewProjection))
	d.Nodes[0].Models = []int{0}

	rec := recorder.NewRecorder()
	s, err := NewScene(rec, d)
	require.NoError(t, err)

	shifted := common.IdentityMatrix()
	shifted[12] = -10
	id := common.IdentityMatrix()
	require.NoError(t, s.SetViews(View{View: id, Projection: id}, View{View: shifted, Projection: id}))

	impl := s.(*scene)
	assert.Len(t, impl.state.views, 1)
	assert.Len(t, impl.state.viewProjs, 1)

	stats, err := s.Frame(0, rec)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Draws)
	assert.Equal(t, 1, stats.CulledModels)
}

func TestScene_SetViewFromCamera(t *testing.T) {
	cam := node("eye", [3]float32{0, 0, 5})
	cam.Camera = 0
	d := forest(t, cam)
	d.Cameras = []model.Camera{{Name: "c", Type: model.CameraPerspective, YFov: 0.8, ZNear: 0.1, ZFar: 100}}

	s, err := NewScene(recorder.NewRecorder(), d)
	require.NoError(t, err)
	require.NoError(t, s.SetViewFromCamera(0, 1.5))

	impl := s.(*scene)
	assert.InDelta(t, -5, impl.state.views[0].view[14], 1e-6)
	assert.NotEqual(t, common.IdentityMatrix(), impl.state.views[0].projection)

	assert.ErrorIs(t, s.SetViewFromCamera(3, 1), ErrNoNode)
}

func TestScene_DestroyReleasesResources(t *testing.T) {
	rec := recorder.NewRecorder()
	d := skinnedFixture(t, rec)
	s, err := NewScene(rec, d)
	require.NoError(t, err)
	require.Equal(t, 1, rec.Live(recorder.KindBuffer))

	s.Destroy()
	assert.Equal(t, 0, rec.Live(recorder.KindBuffer))
	assert.ErrorIs(t, s.Update(), ErrDestroyed)
	assert.Equal(t, FrameStats{}, s.Submit(rec))
}
