package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertMatrixInDelta(t *testing.T, want, got [16]float32) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "element %d", i)
	}
}

func TestInvert4_RoundTrip(t *testing.T) {
	var m, inv, product [16]float32
	ComposeTRS(m[:], [3]float32{1, -2, 3}, NormalizeQuat([4]float32{0.2, 0.4, 0.1, 0.9}), [3]float32{2, 1, 0.5})

	require.True(t, Invert4(inv[:], m[:]))
	Mul4(product[:], m[:], inv[:])
	assertMatrixInDelta(t, IdentityMatrix(), product)
}

func TestInvert4_Singular(t *testing.T) {
	var zero [16]float32
	out := IdentityMatrix()
	assert.False(t, Invert4(out[:], zero[:]))
	assert.Equal(t, IdentityMatrix(), out)
}

func TestDecomposeTRS_RecoversComponents(t *testing.T) {
	tr := [3]float32{4, 5, 6}
	r := NormalizeQuat([4]float32{0, math32.Sin(0.5), 0, math32.Cos(0.5)})
	s := [3]float32{1, 2, 3}
	var m [16]float32
	ComposeTRS(m[:], tr, r, s)

	gotT, gotR, gotS := DecomposeTRS(m)
	assert.Equal(t, tr, gotT)
	for i := range 4 {
		assert.InDelta(t, r[i], gotR[i], 1e-5)
	}
	for i := range 3 {
		assert.InDelta(t, s[i], gotS[i], 1e-5)
	}
}

func TestQuatLerp_Normalizes(t *testing.T) {
	a := [4]float32{0, 0, 0, 1}
	b := [4]float32{0, 1, 0, 0}
	q := QuatLerp(a, b, 0.5)
	assert.InDelta(t, 1, math32.Sqrt(q[0]*q[0]+q[1]*q[1]+q[2]*q[2]+q[3]*q[3]), 1e-5)
	assert.InDelta(t, q[1], q[3], 1e-5)
}

func TestAABB_Transform(t *testing.T) {
	box := AABB{Min: [3]float32{-1, -1, -1}, Max: [3]float32{1, 1, 1}}
	var m [16]float32
	ComposeTRS(m[:], [3]float32{10, 0, 0}, [4]float32{0, 0, 0, 1}, [3]float32{2, 1, 1})

	assert.Equal(t, AABB{Min: [3]float32{8, -1, -1}, Max: [3]float32{12, 1, 1}}, box.Transform(m[:]))
	assert.True(t, EmptyAABB().Transform(m[:]).IsEmpty())
}

func TestFrustum_CullBox(t *testing.T) {
	var view, proj, viewProj [16]float32
	LookAt(view[:], 0, 0, 5, 0, 0, 0, 0, 1, 0)
	Perspective(proj[:], math32.Pi/2, 1, 0.1, 100)
	Mul4(viewProj[:], proj[:], view[:])
	f := ExtractFrustumFromMatrix(viewProj[:])

	unit := AABB{Min: [3]float32{-0.5, -0.5, -0.5}, Max: [3]float32{0.5, 0.5, 0.5}}
	tests := []struct {
		name   string
		offset [3]float32
		culled bool
	}{
		{name: "centre", culled: false},
		{name: "far left", offset: [3]float32{-50, 0, 0}, culled: true},
		{name: "behind the eye", offset: [3]float32{0, 0, 10}, culled: true},
		{name: "beyond far plane", offset: [3]float32{0, 0, -200}, culled: true},
		{name: "straddling the edge", offset: [3]float32{5.2, 0, 0}, culled: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := unit
			for i := range 3 {
				box.Min[i] += tt.offset[i]
				box.Max[i] += tt.offset[i]
			}
			assert.Equal(t, tt.culled, f.CullBox(box))
		})
	}
	assert.True(t, f.CullBox(EmptyAABB()))
}

func TestCullBoxInViews_AnyViewKeepsBox(t *testing.T) {
	var left, right, proj [16]float32
	Perspective(proj[:], math32.Pi/3, 1, 0.1, 100)
	var view [16]float32
	LookAt(view[:], 0, 0, 0, -1, 0, 0, 0, 1, 0)
	Mul4(left[:], proj[:], view[:])
	LookAt(view[:], 0, 0, 0, 1, 0, 0, 0, 1, 0)
	Mul4(right[:], proj[:], view[:])

	id := IdentityMatrix()
	box := AABB{Min: [3]float32{4, -0.5, -0.5}, Max: [3]float32{5, 0.5, 0.5}}
	assert.True(t, CullBoxInViews([][16]float32{left}, id[:], box))
	assert.False(t, CullBoxInViews([][16]float32{left, right}, id[:], box))
}
