package common

import "github.com/chewxy/math32"

// AABB is an axis-aligned bounding box. An empty box has Min greater than Max on every axis.
type AABB struct {
	Min [3]float32
	Max [3]float32
}

// EmptyAABB returns a box that contains nothing and grows to fit the first point added.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: [3]float32{inf, inf, inf},
		Max: [3]float32{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// ExtendPoint grows the box to include p.
func (b *AABB) ExtendPoint(p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Extend grows the box to include another box.
func (b *AABB) Extend(o AABB) {
	if o.IsEmpty() {
		return
	}
	b.ExtendPoint(o.Min)
	b.ExtendPoint(o.Max)
}

// Transform returns the box enclosing all eight corners of b after applying m.
//
// Parameters:
//   - m: a column-major 4x4 affine matrix
//
// Returns:
//   - AABB: the transformed bounds, still axis-aligned in the destination space
func (b AABB) Transform(m []float32) AABB {
	out := EmptyAABB()
	if b.IsEmpty() {
		return out
	}
	for c := 0; c < 8; c++ {
		corner := [3]float32{b.Min[0], b.Min[1], b.Min[2]}
		if c&1 != 0 {
			corner[0] = b.Max[0]
		}
		if c&2 != 0 {
			corner[1] = b.Max[1]
		}
		if c&4 != 0 {
			corner[2] = b.Max[2]
		}
		out.ExtendPoint(TransformPoint(m, corner))
	}
	return out
}
