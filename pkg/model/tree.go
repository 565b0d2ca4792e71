package model

import "errors"

// ErrStopWalk can be returned from a WalkFunc to end the walk early.
var ErrStopWalk = errors.New("stop walk")

// TreeReader reads a hierarchical data description from a file.
type TreeReader interface {
	ReadTree(filename string) (*Tree, error)
}

// Tree describes hierarchical (e.g. adaptive mesh) data.
type Tree struct {
	Root *TreeNode
}

// TreeNode is one node of a Tree.
type TreeNode struct {
	ID       int
	Level    int
	Children []*TreeNode
}

// WalkFunc is called for every node visited by Walk.
type WalkFunc func(n *TreeNode) error

// Walk visits the nodes in depth-first pre-order.
// Returning ErrStopWalk ends the walk without error.
func (t *Tree) Walk(fn WalkFunc) error {
	if t == nil || t.Root == nil {
		return nil
	}
	err := walk(t.Root, fn)
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

func walk(n *TreeNode, fn WalkFunc) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	count := 0
	_ = t.Walk(func(*TreeNode) error {
		count++
		return nil
	})
	return count
}

// Depth returns the number of levels below and including the root.
func (t *Tree) Depth() int {
	depth := 0
	_ = t.Walk(func(n *TreeNode) error {
		if n.Level+1 > depth {
			depth = n.Level + 1
		}
		return nil
	})
	return depth
}
