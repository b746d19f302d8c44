// Package ringchan provides a bounded channel-like buffer with
// overwrite-oldest semantics.
package ringchan

import "sync/atomic"

// RingChannel wraps a buffered channel and ensures producers never block
// indefinitely: if the buffer is full, the oldest element is discarded.
//
// Writers use Send or TrySend. Readers use C() as a normal <-chan T.
type RingChannel[T any] struct {
	ch          chan T
	written     atomic.Uint64
	overwritten atomic.Uint64
}

// New creates a RingChannel with the given capacity.
func New[T any](capacity int) *RingChannel[T] {
	if capacity <= 0 {
		panic("ringchan: capacity must be > 0")
	}
	return &RingChannel[T]{ch: make(chan T, capacity)}
}

// C returns the underlying receive-only channel.
// Consumers can range over this until it's closed.
func (rc *RingChannel[T]) C() <-chan T {
	return rc.ch
}

// Send inserts an item. If the buffer is full, it discards the oldest.
// This call always succeeds and never blocks indefinitely.
func (rc *RingChannel[T]) Send(v T) {
	select {
	case rc.ch <- v:
		rc.written.Add(1)
	default:
		select {
		case <-rc.ch: // drop oldest
			rc.overwritten.Add(1)
		default:
		}
		rc.ch <- v
		rc.written.Add(1)
	}
}

// TrySend attempts to insert without blocking.
// Returns true if successful, false if the buffer is full.
func (rc *RingChannel[T]) TrySend(v T) bool {
	select {
	case rc.ch <- v:
		rc.written.Add(1)
		return true
	default:
		return false
	}
}

// Written returns the number of successfully inserted items.
func (rc *RingChannel[T]) Written() uint64 { return rc.written.Load() }

// Overwritten returns the number of items discarded to make room.
func (rc *RingChannel[T]) Overwritten() uint64 { return rc.overwritten.Load() }
