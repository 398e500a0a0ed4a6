package broadcast

import (
	"sync"
	"sync/atomic"
)

// Queue has the same surface as Broadcaster but hands each value to exactly
// one receiver. A full queue blocks the sender instead of dropping values.
type Queue[T any] struct {
	mu     sync.RWMutex
	ch     chan T
	subs   atomic.Int64
	closed bool
}

type QueueReceiver[T any] struct {
	q    *Queue[T]
	once sync.Once
}

func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		panic("capacity must be > 0")
	}

	return &Queue[T]{
		ch: make(chan T, capacity),
	}
}

func (q *Queue[T]) Subscribe() *QueueReceiver[T] {
	q.mu.RLock()
	defer q.mu.RUnlock()

	r := &QueueReceiver[T]{q: q}
	if q.closed {
		// nothing will be counted or released for this receiver
		r.once.Do(func() {})
		return r
	}

	q.subs.Add(1)
	return r
}

// Send blocks until a slot is free. Senders hold the read lock so that Close
// waits for in-flight sends before closing the channel.
func (q *Queue[T]) Send(v T) (int, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return 0, ErrClosed
	}
	if q.subs.Load() == 0 {
		return 0, ErrNoSubscribers
	}

	q.ch <- v
	return 1, nil
}

func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

func (q *Queue[T]) Subscribers() int {
	return int(q.subs.Load())
}

func (r *QueueReceiver[T]) Recv() (T, error) {
	var zero T

	v, ok := <-r.q.ch
	if !ok {
		return zero, ErrClosed
	}

	return v, nil
}

// Unsubscribe only stops counting the receiver, the shared channel stays open
// for the others.
func (r *QueueReceiver[T]) Unsubscribe() {
	r.once.Do(func() {
		r.q.subs.Add(-1)
	})
}
