package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/gfx"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	ErrNoSubScene   = errors.New("sub-scene index out of range")
	ErrNoNode       = errors.New("node index out of range")
	ErrNoCamera     = errors.New("node has no camera")
	ErrViewCount    = errors.New("unsupported number of views")
	ErrDestroyed    = errors.New("scene has been destroyed")
	ErrNoSubTree    = errors.New("subtree index out of range")
	ErrNilBackend   = errors.New("scene requires a backend")
	ErrNilSceneData = errors.New("scene requires loaded data")
)

// FrameStats counts the work done by one Submit.
type FrameStats struct {
	Draws          int
	CulledNodes    int
	CulledModels   int
	CulledSurfaces int
	CulledSkins    int
}

// scene is the implementation of the Scene interface.
type scene struct {
	name    string
	backend gfx.Backend
	data    *Data
	conv    shader.Conversion
	player  animator.Player
	culling bool

	state     State
	vpBuffer  gfx.Buffer
	destroyed bool

	// timeLines and animations collect the active sub-scene's work in Animate.
	timeLines  []int
	animations []int
}

// Scene owns a loaded document's entity tables, the backend resources created for them and
// the mutable runtime state driven once per frame.
//
// A frame is Animate, Update and Submit in that order; Frame runs all three. A Scene is not
// safe for concurrent use.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Data returns the immutable entity tables.
	//
	// Returns:
	//   - *Data: the tables; callers must not modify them
	Data() *Data

	// State returns the mutable runtime state.
	//
	// Returns:
	//   - *State: the runtime state of the current frame
	State() *State

	// Player returns the playback clock driving the scene's animations.
	Player() animator.Player

	// FindNode resolves a node name.
	//
	// Parameters:
	//   - name: the node id
	//
	// Returns:
	//   - int: the node index in storage order
	//   - bool: false if no node has the name
	FindNode(name string) (int, bool)

	// FindSubScene resolves a sub-scene name.
	//
	// Parameters:
	//   - name: the sub-scene id
	//
	// Returns:
	//   - int: the sub-scene index
	//   - bool: false if no sub-scene has the name
	FindSubScene(name string) (int, bool)

	// ActiveSubScene returns the index of the displayed sub-scene.
	ActiveSubScene() int

	// SetActiveSubScene selects the sub-scene to animate and draw.
	//
	// Parameters:
	//   - index: the sub-scene index
	//
	// Returns:
	//   - error: ErrNoSubScene if index is out of range
	SetActiveSubScene(index int) error

	// SetSubTreeVisible shows or hides one subtree.
	//
	// Parameters:
	//   - subtree: the subtree index
	//   - visible: false to skip the subtree's skins and draws
	//
	// Returns:
	//   - error: ErrNoSubTree if subtree is out of range
	SetSubTreeVisible(subtree int, visible bool) error

	// SubTreeVisible reports whether a subtree is drawn.
	SubTreeVisible(subtree int) bool

	// SetNodeTransform overrides a node's local transform. Animations applied later in the
	// frame overwrite the components they animate.
	//
	// Parameters:
	//   - node: the node index
	//   - t: the new local transform
	//
	// Returns:
	//   - error: ErrNoNode if node is out of range
	SetNodeTransform(node int, t model.Transform) error

	// GlobalTransform returns a node's world matrix as of the last Update.
	GlobalTransform(node int) [16]float32

	// SetViews sets the per-eye view and projection matrices.
	//
	// Parameters:
	//   - views: one view, or two for stereo rendering
	//
	// Returns:
	//   - error: ErrViewCount for zero or more than two views
	SetViews(views ...View) error

	// SetViewFromCamera sets a single view looking through a camera node.
	//
	// Parameters:
	//   - node: a node carrying a camera
	//   - aspect: the viewport aspect ratio, used when the camera does not fix one
	//
	// Returns:
	//   - error: ErrNoNode or ErrNoCamera
	SetViewFromCamera(node int, aspect float32) error

	// SetViewport sets the value bound to VIEWPORT uniforms.
	SetViewport(x, y, width, height float32)

	// Animate advances the playback clock and writes every animation of the active
	// sub-scene into node local transforms.
	//
	// Parameters:
	//   - delta: elapsed time in seconds
	Animate(delta float32)

	// Update propagates global transforms, evaluates skins and culls them, and uploads
	// joint and view/projection buffers.
	//
	// Returns:
	//   - error: a buffer upload error
	Update() error

	// Submit culls and records one draw per visible surface of the active sub-scene.
	//
	// Parameters:
	//   - stream: the command stream receiving the draws
	//
	// Returns:
	//   - FrameStats: counts of draws and culled entities
	Submit(stream gfx.CommandStream) FrameStats

	// Frame runs Animate, Update and Submit.
	Frame(delta float32, stream gfx.CommandStream) (FrameStats, error)

	// Destroy releases every backend resource the scene owns. The scene is unusable afterwards.
	Destroy()
}

var _ Scene = &scene{}

// NewScene creates the runtime for loaded data. Node transforms start at their loaded local
// values, every subtree is visible and the view is the identity.
//
// Parameters:
//   - backend: the backend that created data's resources
//   - data: the loaded entity tables; ownership passes to the scene
//   - options: optional SceneBuilderOption functions
//
// Returns:
//   - Scene: the new scene
//   - error: an error if the view/projection buffer cannot be created
func NewScene(backend gfx.Backend, data *Data, options ...SceneBuilderOption) (Scene, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	if data == nil {
		return nil, ErrNilSceneData
	}
	s := &scene{
		backend: backend,
		data:    data,
		conv:    shader.ConversionForCaps(backend.Caps()),
		culling: true,
	}
	for _, option := range options {
		option(s)
	}
	if s.player == nil {
		s.player = animator.NewPlayer()
	}
	s.state = newState(data, s.conv.Views())

	if s.needsViewProjectionBuffer() {
		_, size := shader.ViewProjectionLayout(s.conv.Views())
		buf, err := backend.CreateBuffer(gfx.BufferDesc{
			Label: "view_projection",
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
			Size:  size,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create view/projection buffer: %w", err)
		}
		s.vpBuffer = buf
	}

	s.updateTransforms()
	common.Logger().Info("scene created",
		"name", s.name,
		"nodes", len(data.Nodes),
		"subtrees", len(data.SubTrees),
		"subscenes", len(data.SubScenes),
		"views", s.conv.Views(),
	)
	return s, nil
}

func (s *scene) needsViewProjectionBuffer() bool {
	for _, t := range s.data.Techniques {
		for _, p := range t.Parameters {
			if p.Semantic == model.SemanticViewProjectionBuffer {
				return true
			}
		}
	}
	return false
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Data() *Data {
	return s.data
}

func (s *scene) State() *State {
	return &s.state
}

func (s *scene) Player() animator.Player {
	return s.player
}

func (s *scene) FindNode(name string) (int, bool) {
	return s.data.NodeNames.Find(name)
}

func (s *scene) FindSubScene(name string) (int, bool) {
	return s.data.SubSceneNames.Find(name)
}

func (s *scene) ActiveSubScene() int {
	return s.state.Active
}

func (s *scene) SetActiveSubScene(index int) error {
	if index < 0 || index >= len(s.data.SubScenes) {
		return fmt.Errorf("%w: %d", ErrNoSubScene, index)
	}
	s.state.Active = index
	return nil
}

func (s *scene) SetSubTreeVisible(subtree int, visible bool) error {
	if subtree < 0 || subtree >= len(s.state.Visible) {
		return fmt.Errorf("%w: %d", ErrNoSubTree, subtree)
	}
	s.state.Visible[subtree] = visible
	return nil
}

func (s *scene) SubTreeVisible(subtree int) bool {
	return subtree >= 0 && subtree < len(s.state.Visible) && s.state.Visible[subtree]
}

func (s *scene) SetNodeTransform(node int, t model.Transform) error {
	if node < 0 || node >= len(s.state.Locals) {
		return fmt.Errorf("%w: %d", ErrNoNode, node)
	}
	s.state.Locals[node] = t
	return nil
}

func (s *scene) GlobalTransform(node int) [16]float32 {
	if node < 0 || node >= len(s.state.Globals) {
		return common.IdentityMatrix()
	}
	return s.state.Globals[node]
}

// activeSubTrees returns the subtrees of the active sub-scene.
func (s *scene) activeSubTrees() []int {
	if s.state.Active < 0 || s.state.Active >= len(s.data.SubScenes) {
		return nil
	}
	return s.data.SubScenes[s.state.Active].SubTrees
}

func (s *scene) Animate(delta float32) {
	s.player.Advance(delta)
	s.timeLines, s.animations = s.timeLines[:0], s.animations[:0]
	for _, st := range s.activeSubTrees() {
		sub := &s.data.SubTrees[st]
		s.timeLines = append(s.timeLines, sub.TimeLines...)
		s.animations = append(s.animations, sub.Animations...)
	}
	slices.Sort(s.timeLines)
	s.timeLines = slices.Compact(s.timeLines)
	slices.Sort(s.animations)
	s.animations = slices.Compact(s.animations)

	s.player.Update(s.data.TimeLines, s.timeLines)
	for _, a := range s.animations {
		s.player.Apply(&s.data.Animations[a], s.state.Locals)
	}
}

func (s *scene) Update() error {
	if s.destroyed {
		return ErrDestroyed
	}
	s.updateTransforms()
	if err := s.updateSkins(); err != nil {
		return err
	}
	return s.uploadViewProjection()
}

// updateTransforms recomputes global matrices of the active sub-scene in storage order.
func (s *scene) updateTransforms() {
	nodes := s.data.Nodes
	for _, st := range s.activeSubTrees() {
		sub := &s.data.SubTrees[st]
		for i := sub.Root; i < sub.Root+sub.NodeCount; i++ {
			local := s.state.Locals[i].Matrix()
			if p := nodes[i].Parent; p != model.None {
				common.Mul4(s.state.Globals[i][:], s.state.Globals[p][:], local[:])
			} else {
				s.state.Globals[i] = local
			}
		}
	}
}

func (s *scene) Frame(delta float32, stream gfx.CommandStream) (FrameStats, error) {
	s.Animate(delta)
	if err := s.Update(); err != nil {
		return FrameStats{}, err
	}
	return s.Submit(stream), nil
}

func (s *scene) Destroy() {
	if s.destroyed {
		return
	}
	if s.vpBuffer != 0 {
		s.backend.DestroyBuffer(s.vpBuffer)
		s.vpBuffer = 0
	}
	s.data.Release(s.backend)
	s.destroyed = true
	common.Logger().Info("scene destroyed", "name", s.name)
}
