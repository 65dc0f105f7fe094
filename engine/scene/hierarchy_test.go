package scene

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHierarchy_Order(t *testing.T) {
	h, err := BuildHierarchy([][]int{{1, 2}, {3}, {}, {}, {}})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 3, 2, 4}, h.Order)
	assert.Equal(t, []int{3, 1, 0, 0, 0}, h.SubtreeCount)
	assert.Equal(t, []int{0, 4}, h.Roots)
	assert.Equal(t, []int{model.None, 0, 1, 0, model.None}, h.Parent)
	assert.Equal(t, []int{1, 3}, h.Children[0])
	assert.Equal(t, []model.SubTree{{Root: 0, NodeCount: 4}, {Root: 4, NodeCount: 1}}, h.SubTrees())
}

// randomForest returns child lists of a forest over n nodes in shuffled input order.
func randomForest(r *rand.Rand, n int) [][]int {
	perm := r.Perm(n)
	children := make([][]int, n)
	for i := 1; i < n; i++ {
		if r.IntN(5) == 0 {
			continue
		}
		parent := perm[r.IntN(i)]
		children[parent] = append(children[parent], perm[i])
	}
	return children
}

func descendants(children [][]int, node int) []int {
	var out []int
	for _, c := range children[node] {
		out = append(out, c)
		out = append(out, descendants(children, c)...)
	}
	return out
}

func TestBuildHierarchy_DescendantsAreContiguous(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 50; trial++ {
		children := randomForest(r, 1+r.IntN(40))
		h, err := BuildHierarchy(children)
		require.NoError(t, err)
		require.Len(t, h.Order, len(children))

		for s, node := range h.Order {
			want := descendants(children, node)
			require.Equal(t, len(want), h.SubtreeCount[s])

			run := slices.Clone(h.Order[s+1 : s+1+h.SubtreeCount[s]])
			slices.Sort(run)
			slices.Sort(want)
			assert.Equal(t, want, run)

			var rederived []int
			for c := s + 1; c <= s+h.SubtreeCount[s]; c++ {
				if h.Parent[c] == s {
					rederived = append(rederived, h.Order[c])
				}
			}
			assert.Equal(t, children[node], rederived)
		}
	}
}

func TestBuildHierarchy_Errors(t *testing.T) {
	tests := []struct {
		name     string
		children [][]int
		target   error
		node     int
	}{
		{name: "two parents", children: [][]int{{2}, {2}, {}}, target: ErrMultipleParents, node: 2},
		{name: "cycle without root", children: [][]int{{1}, {0}}, target: ErrCycle, node: model.None},
		{name: "cycle beside root", children: [][]int{{}, {2}, {1}}, target: ErrCycle, node: model.None},
		{name: "self parent", children: [][]int{{0}}, target: ErrCycle, node: 0},
		{name: "bad child", children: [][]int{{5}}, target: ErrBadChild, node: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildHierarchy(tt.children)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))

			var herr *HierarchyError
			require.True(t, errors.As(err, &herr))
			assert.Equal(t, tt.node, herr.Node)
		})
	}
}

func TestBuildHierarchy_CycleReportsCounts(t *testing.T) {
	_, err := BuildHierarchy([][]int{{}, {2}, {1}})
	var herr *HierarchyError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, 1, herr.Emitted)
	assert.Equal(t, 3, herr.Total)
}
