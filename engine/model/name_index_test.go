package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameIndexFind(t *testing.T) {
	names := make([]string, 300)
	for i := range names {
		names[i] = fmt.Sprintf("node_%d", i)
	}
	idx := NewNameIndex(names)

	for i, name := range names {
		got, ok := idx.Find(name)
		assert.True(t, ok, name)
		assert.Equal(t, i, got)
	}

	got, ok := idx.Find("node_300")
	assert.False(t, ok)
	assert.Equal(t, None, got)
}

func TestNameIndexDuplicatesResolveToFirst(t *testing.T) {
	idx := NewNameIndex([]string{"a", "b", "a"})
	got, ok := idx.Find("a")
	assert.True(t, ok)
	assert.Equal(t, 0, got)
}

func TestNameIndexEmpty(t *testing.T) {
	_, ok := NewNameIndex(nil).Find("anything")
	assert.False(t, ok)

	var nilIndex *NameIndex
	_, ok = nilIndex.Find("anything")
	assert.False(t, ok)
}

func TestCursorSequentialAndRandomAccess(t *testing.T) {
	idx := NewNameIndex([]string{"root", "arm", "hand", "leg"})
	c := idx.NewCursor()

	for i, name := range []string{"root", "arm", "hand", "leg"} {
		got, ok := c.Find(name)
		assert.True(t, ok)
		assert.Equal(t, i, got)
	}

	got, ok := c.Find("arm")
	assert.True(t, ok)
	assert.Equal(t, 1, got)

	got, ok = c.Find("hand")
	assert.True(t, ok)
	assert.Equal(t, 2, got)

	_, ok = c.Find("tail")
	assert.False(t, ok)
}

func TestParseSemantics(t *testing.T) {
	sem, ok := ParseSemantic("MODELVIEWPROJECTION")
	assert.True(t, ok)
	assert.Equal(t, SemanticModelViewProjection, sem)
	assert.True(t, sem.IsViewDerived())
	assert.Equal(t, "MODELVIEWPROJECTION", sem.String())

	sem, ok = ParseSemantic("")
	assert.True(t, ok)
	assert.Equal(t, SemanticNone, sem)

	_, ok = ParseSemantic("MODELVIEWSOMETHING")
	assert.False(t, ok)

	loc, ok := ParseAttributeSemantic("TEXCOORD_0").Location()
	assert.True(t, ok)
	assert.Equal(t, uint32(5), loc)

	_, ok = ParseAttributeSemantic("TEXCOORD_7").Location()
	assert.False(t, ok)
}

func TestCameraProjectionUsesDocumentAspect(t *testing.T) {
	c := Camera{Type: CameraPerspective, AspectRatio: 2, YFov: 1, ZNear: 0.1, ZFar: 100}
	m := c.Projection(1)
	assert.InDelta(t, m[5]/2, m[0], 1e-6)

	c.AspectRatio = 0
	m = c.Projection(4)
	assert.InDelta(t, m[5]/4, m[0], 1e-6)

	o := Camera{Type: CameraOrthographic, XMag: 2, YMag: 4, ZNear: 0, ZFar: 10}
	m = o.Projection(1)
	assert.InDelta(t, 0.5, m[0], 1e-6)
	assert.InDelta(t, 0.25, m[5], 1e-6)
}

func TestNameIndexFindInRange(t *testing.T) {
	idx := NewNameIndex([]string{"rig", "hip", "knee", "rig", "hip", "knee", ""})

	tests := []struct {
		name   string
		lo, hi int
		want   int
		found  bool
	}{
		{name: "hip", lo: 0, hi: 2, want: 1, found: true},
		{name: "hip", lo: 3, hi: 5, want: 4, found: true},
		{name: "knee", lo: 4, hi: 6, want: 5, found: true},
		{name: "knee", lo: 3, hi: 4, want: None, found: false},
		{name: "tail", lo: 0, hi: 6, want: None, found: false},
	}
	for _, tt := range tests {
		got, ok := idx.FindInRange(tt.name, tt.lo, tt.hi)
		assert.Equal(t, tt.found, ok, "%s in [%d, %d]", tt.name, tt.lo, tt.hi)
		assert.Equal(t, tt.want, got, "%s in [%d, %d]", tt.name, tt.lo, tt.hi)
	}
}

func TestCursorFindInRange(t *testing.T) {
	idx := NewNameIndex([]string{"hip", "knee", "hip", "knee"})
	c := idx.NewCursor()

	got, ok := c.FindInRange("hip", 2, 3)
	assert.True(t, ok)
	assert.Equal(t, 2, got)

	got, ok = c.FindInRange("knee", 2, 3)
	assert.True(t, ok)
	assert.Equal(t, 3, got)

	_, ok = c.FindInRange("knee", 0, 0)
	assert.False(t, ok)
}
