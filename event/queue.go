package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/eapache/queue"
)

// Queue is a bounded FIFO of elements handed from the dispatching goroutine
// to workers. Push never blocks; PopWait blocks until an element arrives,
// the context ends or the queue is closed.
type Queue struct {
	mu       sync.Mutex
	q        *queue.Queue
	capacity int

	// one token per element that can be popped
	tokens    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewQueue(capacity int) (*Queue, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: queue capacity %d", ErrInvalidInput, capacity)
	}
	return &Queue{
		q:        queue.New(),
		capacity: capacity,
		tokens:   make(chan struct{}, capacity),
		done:     make(chan struct{}),
	}, nil
}

// Push appends elem, failing with ErrFull at capacity and ErrClosed after
// Close.
func (q *Queue) Push(elem Elem) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	q.mu.Lock()
	if q.q.Length() >= q.capacity {
		q.mu.Unlock()
		return ErrFull
	}
	q.q.Add(elem)
	q.mu.Unlock()

	q.tokens <- struct{}{}
	return nil
}

// Pop removes the oldest element or fails with ErrEmpty.
func (q *Queue) Pop() (Elem, error) {
	select {
	case <-q.tokens:
		return q.take(), nil
	default:
		return Elem{}, ErrEmpty
	}
}

// PopWait removes the oldest element, waiting for one if necessary.
func (q *Queue) PopWait(ctx context.Context) (Elem, error) {
	select {
	case <-q.tokens:
		return q.take(), nil
	default:
	}
	select {
	case <-q.tokens:
		return q.take(), nil
	case <-ctx.Done():
		return Elem{}, ctx.Err()
	case <-q.done:
		return Elem{}, ErrClosed
	}
}

func (q *Queue) take() Elem {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.q.Remove().(Elem)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.q.Length()
}

// Close wakes every waiter. Elements still queued can be drained with Pop.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}
