// Package dlist is a generic doubly linked list whose nodes are handed back
// to the caller, so a holder of a node can unlink it in O(1).
package dlist

import "errors"

var ErrForeignNode = errors.New("dlist: node does not belong to this list")

type Node[T any] struct {
	Prev  *Node[T]
	Next  *Node[T]
	Value T

	list *List[T]
}

type List[T any] struct {
	Head   *Node[T]
	Tail   *Node[T]
	Length int
}

func New[T any]() *List[T] {
	return &List[T]{}
}

// PushFront links value at the head and returns its node.
func (l *List[T]) PushFront(value T) *Node[T] {
	node := &Node[T]{Value: value, list: l}
	if l.Head == nil {
		l.Head, l.Tail = node, node
	} else {
		node.Next, l.Head.Prev, l.Head = l.Head, node, node
	}
	l.Length++
	return node
}

// PushBack links value at the tail and returns its node.
func (l *List[T]) PushBack(value T) *Node[T] {
	node := &Node[T]{Value: value, list: l}
	if l.Tail == nil {
		l.Head, l.Tail = node, node
	} else {
		node.Prev, l.Tail.Next, l.Tail = l.Tail, node, node
	}
	l.Length++
	return node
}

// Remove unlinks node. Removing a node twice, or one owned by another list,
// returns ErrForeignNode and leaves the list untouched.
func (l *List[T]) Remove(node *Node[T]) error {
	if node == nil || node.list != l {
		return ErrForeignNode
	}
	if node.Prev != nil {
		node.Prev.Next = node.Next
	} else {
		l.Head = node.Next
	}
	if node.Next != nil {
		node.Next.Prev = node.Prev
	} else {
		l.Tail = node.Prev
	}
	node.Next, node.Prev, node.list = nil, nil, nil
	l.Length--
	return nil
}

// Each visits nodes head to tail until fn returns false. fn may Remove the
// node it is given.
func (l *List[T]) Each(fn func(node *Node[T]) bool) {
	for node := l.Head; node != nil; {
		next := node.Next
		if !fn(node) {
			return
		}
		node = next
	}
}

// Empty unlinks every node.
func (l *List[T]) Empty() {
	for node := l.Head; node != nil; {
		next := node.Next
		node.Next, node.Prev, node.list = nil, nil, nil
		node = next
	}
	l.Head, l.Tail = nil, nil
	l.Length = 0
}

func (l *List[T]) Len() int {
	return l.Length
}
