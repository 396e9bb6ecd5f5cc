// Package list implements an intrusive doubly-linked circular list, the
// building block used throughout the kernel for the process list and pid
// hash chains, the run queue link, the free-frame list and the swap clock
// list. Callers embed a Node value in their own struct and recover the
// owning struct with unsafe pointer arithmetic on the Node's offset,
// mirroring the list_entry/le2proc macro pattern used for linked structures
// written in C.
package list

// Node is a link in an intrusive doubly-linked list. The zero Node has nil
// links; Init must be called before it is used as a list head.
type Node struct {
	prev, next *Node
}

// Init makes n an empty list head, linked to itself.
func (n *Node) Init() {
	n.prev = n
	n.next = n
}

// Empty reports whether n is an empty list head.
func (n *Node) Empty() bool {
	return n.next == n
}

// Next returns the node following n.
func (n *Node) Next() *Node { return n.next }

// Prev returns the node preceding n.
func (n *Node) Prev() *Node { return n.prev }

// AddAfter inserts elem immediately after n.
func (n *Node) AddAfter(elem *Node) {
	elem.prev = n
	elem.next = n.next
	n.next.prev = elem
	n.next = elem
}

// AddBefore inserts elem immediately before n.
func (n *Node) AddBefore(elem *Node) {
	n.prev.AddAfter(elem)
}

// Del removes n from whatever list it is linked into and re-initializes it
// as an empty list head.
func (n *Node) Del() {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.Init()
}
