package camera

// CameraController owns the eye position of a host camera. The position orbits a target point
// on a sphere described by radius, azimuth and elevation.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - [3]float32: world-space camera position
	Position() [3]float32

	// Target returns the look-at point.
	//
	// Returns:
	//   - [3]float32: world-space target position
	Target() [3]float32

	// SetTarget moves the pivot point and recomputes the position from the spherical coordinates.
	//
	// Parameters:
	//   - target: world-space coordinates
	SetTarget(target [3]float32)

	// Orbit rotates the camera around the target. Elevation is clamped to the controller bounds.
	//
	// Parameters:
	//   - azimuth: horizontal rotation in radians
	//   - elevation: vertical rotation in radians
	Orbit(azimuth, elevation float32)

	// Zoom moves the camera toward the target. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: zoom amount scaled by ZoomSpeed
	Zoom(delta float32)

	// Pan translates both position and target along the camera's right and up axes.
	//
	// Parameters:
	//   - right: distance along the right axis
	//   - up: distance along the up axis
	Pan(right, up float32)

	// Radius returns the current distance from the target.
	Radius() float32

	// SetRadius sets the distance from the target, clamped to the controller bounds.
	//
	// Parameters:
	//   - radius: new distance from target
	SetRadius(radius float32)

	// Azimuth returns the horizontal angle around the Y axis in radians.
	Azimuth() float32

	// Elevation returns the vertical angle from the horizontal plane in radians.
	Elevation() float32

	// ZoomSpeed returns the zoom speed multiplier.
	ZoomSpeed() float32
}
