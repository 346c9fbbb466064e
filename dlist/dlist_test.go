package dlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func values[T any](l *List[T]) []T {
	var out []T
	l.Each(func(n *Node[T]) bool {
		out = append(out, n.Value)
		return true
	})
	return out
}

func TestNewList(t *testing.T) {
	list := New[int]()
	assert.Nil(t, list.Head)
	assert.Nil(t, list.Tail)
	assert.Equal(t, 0, list.Len())
}

func TestPushFrontAndBack(t *testing.T) {
	list := New[int]()
	list.PushBack(5)
	list.PushBack(10)
	list.PushFront(1)
	assert.Equal(t, 1, list.Head.Value)
	assert.Equal(t, 10, list.Tail.Value)
	assert.Equal(t, 3, list.Len())
	assert.Equal(t, []int{1, 5, 10}, values(list))
}

func TestRemoveMiddleHeadTail(t *testing.T) {
	list := New[int]()
	a := list.PushBack(1)
	b := list.PushBack(2)
	c := list.PushBack(3)

	assert.NoError(t, list.Remove(b))
	assert.Equal(t, []int{1, 3}, values(list))
	assert.NoError(t, list.Remove(a))
	assert.Equal(t, 3, list.Head.Value)
	assert.NoError(t, list.Remove(c))
	assert.Nil(t, list.Head)
	assert.Nil(t, list.Tail)
	assert.Equal(t, 0, list.Len())
}

func TestRemoveTwiceIsRejected(t *testing.T) {
	list := New[int]()
	n := list.PushBack(1)
	list.PushBack(2)
	assert.NoError(t, list.Remove(n))
	assert.ErrorIs(t, list.Remove(n), ErrForeignNode)
	assert.Equal(t, 1, list.Len())

	other := New[int]()
	m := other.PushBack(9)
	assert.ErrorIs(t, list.Remove(m), ErrForeignNode)
	assert.ErrorIs(t, list.Remove(nil), ErrForeignNode)
}

func TestEachAllowsRemoval(t *testing.T) {
	list := New[int]()
	for i := 0; i < 6; i++ {
		list.PushBack(i)
	}
	list.Each(func(n *Node[int]) bool {
		if n.Value%2 == 0 {
			assert.NoError(t, list.Remove(n))
		}
		return true
	})
	assert.Equal(t, []int{1, 3, 5}, values(list))
}

func TestEmpty(t *testing.T) {
	list := New[int]()
	n := list.PushBack(5)
	list.PushBack(10)
	list.Empty()
	assert.Nil(t, list.Head)
	assert.Nil(t, list.Tail)
	assert.Equal(t, 0, list.Len())
	assert.ErrorIs(t, list.Remove(n), ErrForeignNode)
}
