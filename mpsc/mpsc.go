// Package mpsc provides multi-producer single-consumer channels with
// disconnect semantics: sends fail once the receiver is gone, and receives
// fail once every sender is gone and the buffer has drained. The asynchronous
// Channel buffers without bound; Sync blocks senders at a fixed bound.
package mpsc

import (
	"context"
	"errors"
	"iter"
	"sync"
	"sync/atomic"
)

// ErrDisconnected reports that the other side of the channel is gone: every
// sender dropped (on receive) or the receiver dropped (on send).
var ErrDisconnected = errors.New("mpsc: channel disconnected")

type state[T any] struct {
	mu       sync.Mutex
	buf      []T
	bound    int // 0 means unbounded
	senders  int
	recvGone bool

	// recvReady wakes the single consumer: data arrived or the last sender
	// dropped. sendReady hands one freed slot to one blocked sender. Both
	// carry at most one token; closed wakes every blocked sender at once.
	recvReady chan struct{}
	sendReady chan struct{}
	closed    chan struct{}
}

// Channel returns the two halves of an unbounded asynchronous channel.
func Channel[T any]() (*Sender[T], *Receiver[T]) {
	return newChannel[T](0)
}

// Sync returns the two halves of a bounded channel. Send blocks while bound
// values are in flight. A bound below one is treated as one.
func Sync[T any](bound int) (*Sender[T], *Receiver[T]) {
	if bound < 1 {
		bound = 1
	}
	return newChannel[T](bound)
}

func newChannel[T any](bound int) (*Sender[T], *Receiver[T]) {
	st := &state[T]{
		bound:     bound,
		senders:   1,
		recvReady: make(chan struct{}, 1),
		sendReady: make(chan struct{}, 1),
		closed:    make(chan struct{}),
	}
	return &Sender[T]{st: st}, &Receiver[T]{st: st}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Sender is the producing half. It may be cloned for additional producers;
// each clone must eventually be closed.
type Sender[T any] struct {
	st      *state[T]
	dropped atomic.Bool
}

// Send enqueues v for the consumer, blocking while a bounded channel is full.
// It returns ErrDisconnected once the receiver is gone.
func (s *Sender[T]) Send(v T) error {
	return s.SendContext(context.Background(), v)
}

// SendContext is Send with cancellation while blocked on a full channel.
func (s *Sender[T]) SendContext(ctx context.Context, v T) error {
	if s.dropped.Load() {
		panic("mpsc: send on closed sender")
	}
	for {
		s.st.mu.Lock()
		if s.st.recvGone {
			s.st.mu.Unlock()
			return ErrDisconnected
		}
		if s.st.bound == 0 || len(s.st.buf) < s.st.bound {
			s.st.buf = append(s.st.buf, v)
			spare := s.st.bound > 0 && len(s.st.buf) < s.st.bound
			s.st.mu.Unlock()
			signal(s.st.recvReady)
			if spare {
				// Cascade the wakeup so one freed slot does not strand a
				// second blocked sender.
				signal(s.st.sendReady)
			}
			return nil
		}
		s.st.mu.Unlock()

		select {
		case <-s.st.sendReady:
		case <-s.st.closed:
			return ErrDisconnected
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Clone adds a producer sharing the same channel.
func (s *Sender[T]) Clone() *Sender[T] {
	if s.dropped.Load() {
		panic("mpsc: clone of closed sender")
	}
	s.st.mu.Lock()
	s.st.senders++
	s.st.mu.Unlock()
	return &Sender[T]{st: s.st}
}

// Close drops this producer. When the last producer closes, a blocked
// consumer observes ErrDisconnected after draining the buffer. Close is
// idempotent.
func (s *Sender[T]) Close() {
	if s.dropped.Swap(true) {
		return
	}
	s.st.mu.Lock()
	s.st.senders--
	last := s.st.senders == 0
	s.st.mu.Unlock()
	if last {
		signal(s.st.recvReady)
	}
}

// Receiver is the consuming half. It must not be shared across goroutines.
type Receiver[T any] struct {
	st      *state[T]
	dropped bool
}

// Recv blocks until a value is available and returns it. It returns
// ErrDisconnected once every sender is gone and the buffer is empty.
func (r *Receiver[T]) Recv() (T, error) {
	return r.RecvContext(context.Background())
}

// RecvContext is Recv with cancellation while blocked on an empty channel.
func (r *Receiver[T]) RecvContext(ctx context.Context) (T, error) {
	var zero T
	if r.dropped {
		panic("mpsc: receive on closed receiver")
	}
	for {
		if v, ok := r.pop(); ok {
			return v, nil
		}
		r.st.mu.Lock()
		empty := len(r.st.buf) == 0
		done := r.st.senders == 0
		r.st.mu.Unlock()
		if empty && done {
			return zero, ErrDisconnected
		}
		if !empty {
			continue
		}

		select {
		case <-r.st.recvReady:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// TryRecv returns a buffered value without blocking. ok reports whether a
// value was returned; err is ErrDisconnected when the channel is both empty
// and sender-less.
func (r *Receiver[T]) TryRecv() (T, bool, error) {
	var zero T
	if r.dropped {
		panic("mpsc: receive on closed receiver")
	}
	if v, ok := r.pop(); ok {
		return v, true, nil
	}
	r.st.mu.Lock()
	done := r.st.senders == 0 && len(r.st.buf) == 0
	r.st.mu.Unlock()
	if done {
		return zero, false, ErrDisconnected
	}
	return zero, false, nil
}

// Iter yields received values until the channel disconnects.
func (r *Receiver[T]) Iter() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, err := r.Recv()
			if err != nil {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Close drops the consumer. Pending and future sends fail with
// ErrDisconnected; buffered values are discarded. Close is idempotent.
func (r *Receiver[T]) Close() {
	if r.dropped {
		return
	}
	r.dropped = true
	r.st.mu.Lock()
	r.st.recvGone = true
	r.st.buf = nil
	r.st.mu.Unlock()
	close(r.st.closed)
}

func (r *Receiver[T]) pop() (T, bool) {
	var zero T
	r.st.mu.Lock()
	if len(r.st.buf) == 0 {
		r.st.mu.Unlock()
		return zero, false
	}
	v := r.st.buf[0]
	r.st.buf[0] = zero
	r.st.buf = r.st.buf[1:]
	bounded := r.st.bound > 0
	r.st.mu.Unlock()
	if bounded {
		signal(r.st.sendReady)
	}
	return v, true
}
