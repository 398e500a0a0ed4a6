package broadcast

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	ErrClosed        = errors.New("broadcast: channel closed")
	ErrNoSubscribers = errors.New("broadcast: no active subscribers")
)

// LaggedError is returned by Recv when the receiver fell behind and the oldest
// buffered values were dropped to make room for new ones.
type LaggedError struct {
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("broadcast: receiver lagged, %d messages skipped", e.Skipped)
}

// Broadcaster delivers every sent value to every current subscriber. Each
// subscriber owns a buffer of the same capacity, a slow subscriber never
// blocks the sender.
type Broadcaster[T any] struct {
	mu       sync.Mutex
	capacity int
	subs     map[uint64]*Receiver[T]
	next     uint64
	closed   bool
}

type Receiver[T any] struct {
	id     uint64
	b      *Broadcaster[T]
	ch     chan T
	lagged atomic.Uint64
}

func New[T any](capacity int) *Broadcaster[T] {
	if capacity < 1 {
		panic("capacity must be > 0")
	}

	return &Broadcaster[T]{
		capacity: capacity,
		subs:     make(map[uint64]*Receiver[T]),
	}
}

// Subscribe registers a new receiver. Values sent before this call are never
// delivered to it. Subscribing to a closed broadcaster returns a receiver that
// is already closed.
func (b *Broadcaster[T]) Subscribe() *Receiver[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := &Receiver[T]{
		id: b.next,
		b:  b,
		ch: make(chan T, b.capacity),
	}
	b.next++

	if b.closed {
		close(r.ch)
		return r
	}

	b.subs[r.id] = r
	return r
}

// Send delivers v to all current subscribers and returns how many there were.
func (b *Broadcaster[T]) Send(v T) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}
	if len(b.subs) == 0 {
		return 0, ErrNoSubscribers
	}

	for _, r := range b.subs {
		select {
		case r.ch <- v:
		default:
			// buffer full, drop the oldest value for this subscriber
			select {
			case <-r.ch:
				r.lagged.Add(1)
			default:
			}
			// we are the only writer, so there is room now
			r.ch <- v
		}
	}

	return len(b.subs), nil
}

// Close stops the broadcaster. Receivers still get every buffered value
// before Recv reports ErrClosed.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, r := range b.subs {
		close(r.ch)
		delete(b.subs, id)
	}
}

func (b *Broadcaster[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs)
}

func (b *Broadcaster[T]) unsubscribe(r *Receiver[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subs[r.id]; !exists {
		return
	}
	delete(b.subs, r.id)
	close(r.ch)
}

// Recv waits for the next value. A pending lag is reported before the next
// value is returned.
func (r *Receiver[T]) Recv() (T, error) {
	var zero T

	if n := r.lagged.Swap(0); n > 0 {
		return zero, &LaggedError{Skipped: n}
	}

	v, ok := <-r.ch
	if !ok {
		return zero, ErrClosed
	}

	return v, nil
}

// Unsubscribe detaches the receiver. Values already buffered can still be
// received.
func (r *Receiver[T]) Unsubscribe() {
	r.b.unsubscribe(r)
}

// Len returns the number of buffered values
func (r *Receiver[T]) Len() int {
	return len(r.ch)
}
