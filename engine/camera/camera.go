package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/chewxy/math32"
)

// cameraImpl is the implementation of the Camera interface.
type cameraImpl struct {
	mu *sync.Mutex

	up     [3]float32
	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix       [16]float32
	projectionMatrix [16]float32

	controller CameraController
}

// Camera is a host-side perspective camera for documents that carry no camera node, or for
// viewing a scene from outside its own cameras. Position and target come from the attached
// CameraController; the camera turns them into the view the scene culls and draws with.
type Camera interface {
	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewMatrix returns the world-to-eye matrix computed by the last Update.
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the projection matrix computed by the last Update.
	ProjectionMatrix() [16]float32

	// View returns the matrices in the form scene.SetViews expects.
	//
	// Returns:
	//   - scene.View: view and projection of this camera
	View() scene.View

	// Controller returns the attached controller, or nil.
	Controller() CameraController

	// SetController attaches a CameraController to the camera.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl CameraController)

	// SetAspect sets the aspect ratio and recomputes the matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetClip sets the near and far plane distances and recomputes the matrices.
	//
	// Parameters:
	//   - near: near plane distance
	//   - far: far plane distance
	SetClip(near, far float32)

	// Frame points the controller at the centre of a bounding box and backs it off far enough
	// for the whole box to fit the vertical field of view. The clip planes are fitted to the
	// box as well. An empty box leaves the camera unchanged.
	//
	// Parameters:
	//   - bounds: world-space box to frame
	//
	// Returns:
	//   - bool: whether the camera moved
	Frame(bounds common.AABB) bool

	// Update recomputes the matrices from the controller's current position and target.
	Update()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a perspective camera. Without a controller the view matrix stays identity.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:               &sync.Mutex{},
		up:               [3]float32{0, 1, 0},
		fov:              45 * math32.Pi / 180,
		aspect:           1,
		near:             0.1,
		far:              100,
		viewMatrix:       common.IdentityMatrix(),
		projectionMatrix: common.IdentityMatrix(),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) View() scene.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return scene.View{View: c.viewMatrix, Projection: c.projectionMatrix}
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetClip(near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near, c.far = near, far
	c.updateMatrices()
}

func (c *cameraImpl) Frame(bounds common.AABB) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil || bounds.IsEmpty() {
		return false
	}

	var centre [3]float32
	var r2 float32
	for i := range 3 {
		centre[i] = (bounds.Min[i] + bounds.Max[i]) / 2
		h := (bounds.Max[i] - bounds.Min[i]) / 2
		r2 += h * h
	}
	r := max(math32.Sqrt(r2), 1e-3)
	distance := r / math32.Sin(c.fov/2)

	c.controller.SetTarget(centre)
	c.controller.SetRadius(distance)
	distance = c.controller.Radius()
	c.near = max(distance-r, distance*1e-3)
	c.far = distance + r
	c.updateMatrices()
	return true
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

// updateMatrices recalculates the projection, and the view when a controller is attached.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	if c.controller == nil {
		return
	}
	p := c.controller.Position()
	t := c.controller.Target()
	common.LookAt(c.viewMatrix[:],
		p[0], p[1], p[2],
		t[0], t[1], t[2],
		c.up[0], c.up[1], c.up[2],
	)
}
