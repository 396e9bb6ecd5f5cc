// Package skewheap implements an intrusive skew heap: a self-adjusting
// mergeable priority queue with amortized O(log n) insert/remove/merge and
// no auxiliary balance information, the structure the stride scheduler uses
// for its run queue keyed on ascending process stride.
package skewheap

// Node is a link in an intrusive skew heap. Callers embed a Node in the
// struct they want to order and recover it from a returned *Node the same
// way they would recover a list element from an intrusive list Node.
type Node struct {
	left, right *Node
}

// Less reports whether a orders before b. Callers supply one when the
// comparison needs context that isn't available on the Node alone.
type Less func(a, b *Node) bool

// merge merges two heaps rooted at a and b, returning the new root.
func merge(a, b *Node, less Less) *Node {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if less(b, a) {
		a, b = b, a
	}
	a.right = merge(a.right, b, less)
	a.left, a.right = a.right, a.left
	return a
}

// Insert adds n to the heap rooted at root and returns the new root.
func Insert(root *Node, n *Node, less Less) *Node {
	n.left, n.right = nil, nil
	return merge(root, n, less)
}

// Min returns the minimum element of the heap rooted at root, or nil if the
// heap is empty.
func Min(root *Node) *Node {
	return root
}

// RemoveMin removes the minimum element of the heap rooted at root and
// returns the new root.
func RemoveMin(root *Node, less Less) *Node {
	if root == nil {
		return nil
	}
	next := merge(root.left, root.right, less)
	root.left, root.right = nil, nil
	return next
}

// Remove removes n from the heap rooted at root and returns the new root. n
// must be a member of the heap. The implementation rebuilds the heap from
// every node reachable from root except n; this mirrors the reference
// skew_heap_remove contract (a bare pointer-based remove with no parent
// links) at the cost of an O(n) rebuild, acceptable given the run queue
// holds at most the live process count.
func Remove(root *Node, n *Node, less Less) *Node {
	if root == nil {
		return nil
	}
	var nodes []*Node
	collect(root, n, &nodes)
	var result *Node
	for _, node := range nodes {
		node.left, node.right = nil, nil
		result = merge(result, node, less)
	}
	return result
}

func collect(node, skip *Node, out *[]*Node) {
	if node == nil {
		return
	}
	left, right := node.left, node.right
	if node != skip {
		*out = append(*out, node)
	}
	collect(left, skip, out)
	collect(right, skip, out)
}
