// Package unboundedchan provides a FIFO queue with channel ends, whose
// sender never blocks for long on a slow receiver.
package unboundedchan

import "sync/atomic"

// UnboundedChannel is a queue with no capacity limit. Values go in on In()
// and come out, in order, on Out(). Closing In() lets the queue drain and
// then closes Out().
// Use small values for T (pointers for anything big): queued items are held
// by value.
type UnboundedChannel[T any] struct {
	in      chan T
	out     chan T
	pending atomic.Int64
}

// NewUnboundedChannel creates an UnboundedChannel and starts its goroutine.
func NewUnboundedChannel[T any]() *UnboundedChannel[T] {
	uc := &UnboundedChannel[T]{
		in:  make(chan T),
		out: make(chan T),
	}
	go uc.run()
	return uc
}

func (uc *UnboundedChannel[T]) run() {
	defer close(uc.out)
	var queue []T
	in := uc.in
	for in != nil || len(queue) > 0 {
		// A nil channel blocks forever, which disables that select case.
		var out chan T
		var head T
		if len(queue) > 0 {
			out = uc.out
			head = queue[0]
		}
		select {
		case v, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			queue = append(queue, v)
			uc.pending.Add(1)
		case out <- head:
			var zero T
			queue[0] = zero
			queue = queue[1:]
			uc.pending.Add(-1)
		}
	}
}

// In returns the sending end of the queue.
func (uc *UnboundedChannel[T]) In() chan<- T {
	return uc.in
}

// Out returns the receiving end of the queue.
func (uc *UnboundedChannel[T]) Out() <-chan T {
	return uc.out
}

// Len returns the number of values queued but not yet received.
func (uc *UnboundedChannel[T]) Len() int {
	return int(uc.pending.Load())
}
