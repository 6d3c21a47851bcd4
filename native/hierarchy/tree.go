// Package hierarchy builds trees over ordered items and walks them level by
// level, leaves-first or root-first.
package hierarchy

import (
	"errors"
	"fmt"
)

// ErrCycle is returned by BuildForest when parent links loop.
var ErrCycle = errors.New("hierarchy: parent links form a cycle")

// Node is a single tree position. Parent points at the parent's payload and
// is nil for roots.
type Node[T any] struct {
	Value    T
	Parent   *T
	Index    int
	Depth    int
	Children []*Node[T]
}

// Left returns the first child in the binary layout.
func (n *Node[T]) Left() *Node[T] {
	if n == nil || len(n.Children) < 1 {
		return nil
	}
	return n.Children[0]
}

// Right returns the second child in the binary layout.
func (n *Node[T]) Right() *Node[T] {
	if n == nil || len(n.Children) < 2 {
		return nil
	}
	return n.Children[1]
}

// Build places items into a complete binary tree in level order: the children
// of item i sit at 2i+1 and 2i+2. It returns nil for an empty slice.
func Build[T any](items []T) *Node[T] {
	if len(items) == 0 {
		return nil
	}
	nodes := make([]*Node[T], len(items))
	for i := range items {
		nodes[i] = &Node[T]{Value: items[i], Index: i}
	}
	for i, node := range nodes {
		if i > 0 {
			parent := nodes[(i-1)/2]
			node.Parent = &parent.Value
			node.Depth = parent.Depth + 1
			parent.Children = append(parent.Children, node)
		}
	}
	return nodes[0]
}

// Height returns 1 + max(height(left), height(right)); an empty tree has
// height 0. Computed iteratively so deep trees cannot exhaust the stack.
func Height[T any](root *Node[T]) int {
	return Forest[T]{root}.Height()
}

// Levels groups the nodes under root by depth, root level first.
func Levels[T any](root *Node[T]) [][]*Node[T] {
	return Forest[T]{root}.Levels()
}

// Forest is an ordered set of roots.
type Forest[T any] []*Node[T]

// BuildForest links items through their parent keys. Items whose parent is
// the zero key, or whose parent is not among items, become roots. Children
// keep the input order.
func BuildForest[T any, K comparable](items []T, key func(T) K, parent func(T) K) (Forest[T], error) {
	var zero K
	nodes := make(map[K]*Node[T], len(items))
	ordered := make([]*Node[T], 0, len(items))
	for i, item := range items {
		k := key(item)
		if _, dup := nodes[k]; dup {
			return nil, fmt.Errorf("hierarchy: duplicate key %v", k)
		}
		node := &Node[T]{Value: item, Index: i}
		nodes[k] = node
		ordered = append(ordered, node)
	}

	var roots Forest[T]
	for _, node := range ordered {
		p := parent(node.Value)
		parentNode, ok := nodes[p]
		if p == zero || !ok {
			roots = append(roots, node)
			continue
		}
		node.Parent = &parentNode.Value
		parentNode.Children = append(parentNode.Children, node)
	}

	// Depths are assigned from the roots; anything left unreached sits on a
	// cycle with no root.
	reached := 0
	queue := append([]*Node[T](nil), roots...)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		reached++
		for _, child := range node.Children {
			child.Depth = node.Depth + 1
			queue = append(queue, child)
		}
	}
	if reached != len(ordered) {
		return nil, ErrCycle
	}
	return roots, nil
}

// Levels groups every node of the forest by depth, shallowest first.
func (f Forest[T]) Levels() [][]*Node[T] {
	var levels [][]*Node[T]
	current := make([]*Node[T], 0, len(f))
	for _, root := range f {
		if root != nil {
			current = append(current, root)
		}
	}
	for len(current) > 0 {
		levels = append(levels, current)
		var next []*Node[T]
		for _, node := range current {
			for _, child := range node.Children {
				if child != nil {
					next = append(next, child)
				}
			}
		}
		current = next
	}
	return levels
}

// Height returns the number of levels in the forest.
func (f Forest[T]) Height() int {
	return len(f.Levels())
}

// Len returns the number of nodes in the forest.
func (f Forest[T]) Len() int {
	total := 0
	for _, level := range f.Levels() {
		total += len(level)
	}
	return total
}
