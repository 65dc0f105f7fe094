package scene

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/model"
)

var (
	ErrMultipleParents = errors.New("node has more than one parent")
	ErrCycle           = errors.New("hierarchy contains a cycle")
	ErrBadChild        = errors.New("child index out of range")
)

// HierarchyError reports a node graph that is not a forest.
type HierarchyError struct {
	// Node is the offending node in input order, or -1 when the error is not tied to one node.
	Node   int
	Reason error
	// Emitted and Total are the node counts compared by the final check.
	Emitted, Total int
}

func (e *HierarchyError) Error() string {
	if e.Node >= 0 {
		return fmt.Sprintf("scene: hierarchy: node %d: %v", e.Node, e.Reason)
	}
	return fmt.Sprintf("scene: hierarchy: %v (%d of %d nodes reachable from a root)", e.Reason, e.Emitted, e.Total)
}

func (e *HierarchyError) Unwrap() error {
	return e.Reason
}

// Hierarchy is a storage order in which every node precedes its descendants and the
// descendants of every node form one contiguous run directly after it.
type Hierarchy struct {
	// Order maps a storage index to the input index.
	Order []int
	// Remap maps an input index to its storage index.
	Remap []int
	// Parent holds the storage index of each node's parent, or model.None for roots.
	Parent []int
	// Children holds the storage indices of each node's children, in input order.
	Children [][]int
	// SubtreeCount is the number of descendants of each node.
	SubtreeCount []int
	// Roots lists the storage indices of the roots in input order.
	Roots []int
}

// BuildHierarchy orders a node forest given each node's child list.
//
// Roots are the nodes no other node lists as a child. Each root's tree is emitted depth
// first in child-list order, so the run [i, i+SubtreeCount[i]] holds node i and all of
// its descendants.
//
// Parameters:
//   - children: the child indices of every node, in input order
//
// Returns:
//   - Hierarchy: the storage order
//   - error: a *HierarchyError if a node has two parents, a child index is invalid, or a
//     cycle leaves nodes unreachable from every root
func BuildHierarchy(children [][]int) (Hierarchy, error) {
	n := len(children)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = model.None
	}
	for p, list := range children {
		for _, c := range list {
			if c < 0 || c >= n {
				return Hierarchy{}, &HierarchyError{Node: p, Reason: fmt.Errorf("%w: %d", ErrBadChild, c)}
			}
			if c == p {
				return Hierarchy{}, &HierarchyError{Node: c, Reason: ErrCycle}
			}
			if parent[c] != model.None {
				return Hierarchy{}, &HierarchyError{Node: c, Reason: ErrMultipleParents}
			}
			parent[c] = p
		}
	}

	h := Hierarchy{
		Order:        make([]int, 0, n),
		Remap:        make([]int, n),
		Parent:       make([]int, n),
		Children:     make([][]int, n),
		SubtreeCount: make([]int, n),
	}
	for i := range h.Remap {
		h.Remap[i] = model.None
	}

	stack := make([]int, 0, n)
	for root := range n {
		if parent[root] != model.None {
			continue
		}
		h.Roots = append(h.Roots, len(h.Order))
		stack = append(stack[:0], root)
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			h.Remap[node] = len(h.Order)
			h.Order = append(h.Order, node)
			list := children[node]
			for i := len(list) - 1; i >= 0; i-- {
				stack = append(stack, list[i])
			}
		}
	}
	if len(h.Order) != n {
		return Hierarchy{}, &HierarchyError{Node: model.None, Reason: ErrCycle, Emitted: len(h.Order), Total: n}
	}

	for s, node := range h.Order {
		if p := parent[node]; p != model.None {
			h.Parent[s] = h.Remap[p]
		} else {
			h.Parent[s] = model.None
		}
		for _, c := range children[node] {
			h.Children[s] = append(h.Children[s], h.Remap[c])
		}
	}
	for s := n - 1; s >= 0; s-- {
		for _, c := range h.Children[s] {
			h.SubtreeCount[s] += 1 + h.SubtreeCount[c]
		}
	}
	return h, nil
}

// Arrange returns nodes in storage order with Parent, Children and SubtreeCount filled in.
//
// Parameters:
//   - nodes: the nodes in input order
//
// Returns:
//   - []model.Node: the nodes in storage order
func (h Hierarchy) Arrange(nodes []model.Node) []model.Node {
	out := make([]model.Node, len(h.Order))
	for s, old := range h.Order {
		n := nodes[old]
		n.Parent = h.Parent[s]
		n.Children = h.Children[s]
		n.SubtreeCount = h.SubtreeCount[s]
		out[s] = n
	}
	return out
}

// SubTrees returns one subtree per root, in root order.
func (h Hierarchy) SubTrees() []model.SubTree {
	out := make([]model.SubTree, len(h.Roots))
	for i, r := range h.Roots {
		out[i] = model.SubTree{Root: r, NodeCount: 1 + h.SubtreeCount[r]}
	}
	return out
}
