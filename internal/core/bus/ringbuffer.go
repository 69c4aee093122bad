// Lock-free bounded ring between one frame producer and one consumer.
// CRITICAL: Both writePos and readPos increment freely (never masked). Only
// use the mask when indexing into the buffer array. The emptiness check
// readPos==writePos relies on both counters using the same domain.
// readPos advances by CAS only: the producer's eviction paths and the
// consumer's Read contend on it, and a blind increment from either side
// could push readPos past writePos.

package bus

import (
	"sync/atomic"
)

// BackpressureStrategy defines how the ring handles overflow.
type BackpressureStrategy uint8

const (
	// DropNonKeyframes refuses incoming interframes when full but makes
	// room for keyframes, audio, and config-bearing frames by evicting the
	// oldest entry. The default: a stream that skips interframes recovers
	// at the next keyframe, a stream that skips keyframes does not.
	DropNonKeyframes BackpressureStrategy = iota
	// DropOldest evicts the oldest frame when the ring is full.
	DropOldest
	// DropNewest refuses the incoming frame when the ring is full.
	DropNewest
)

// RingBuffer is a bounded circular buffer for frame delivery, lock-free for
// a single producer and single consumer. Slots are atomic pointers: when
// the ring is full, an evicting producer stores into the same slot a
// concurrent Read loads from.
type RingBuffer struct {
	buffer   []atomic.Pointer[Frame]
	size     uint32
	mask     uint32 // size - 1, for index = pos & mask
	writePos uint32 // atomic, free-running
	readPos  uint32 // atomic, free-running
	strategy BackpressureStrategy
	dropped  uint64 // atomic
}

// NewRingBuffer creates a ring with the given capacity, rounded up to a
// power of two for bitmask indexing.
func NewRingBuffer(capacity uint32, strategy BackpressureStrategy) *RingBuffer {
	actualSize := uint32(1)
	for actualSize < capacity {
		actualSize <<= 1
	}
	return &RingBuffer{
		buffer:   make([]atomic.Pointer[Frame], actualSize),
		size:     actualSize,
		mask:     actualSize - 1,
		strategy: strategy,
	}
}

// Write offers a frame to the ring. Returns false when the frame was
// refused under pressure. Single writer only.
func (rb *RingBuffer) Write(frame *Frame) bool {
	if frame == nil {
		return false
	}

	writePos := atomic.LoadUint32(&rb.writePos)
	readPos := atomic.LoadUint32(&rb.readPos)

	// Full when the used count equals capacity. Unsigned subtraction is
	// correct even after uint32 wrap.
	if writePos-readPos >= rb.size {
		switch rb.strategy {
		case DropNewest:
			atomic.AddUint64(&rb.dropped, 1)
			return false
		case DropNonKeyframes:
			if frame.Type == FrameTypeVideo && !frame.Keyframe && !frame.ConfigBearing() {
				atomic.AddUint64(&rb.dropped, 1)
				return false
			}
			// Keyframe, audio, or config: evict the oldest instead.
			rb.evictOldest(readPos)
		case DropOldest:
			rb.evictOldest(readPos)
		}
	}

	rb.buffer[writePos&rb.mask].Store(frame)
	atomic.StoreUint32(&rb.writePos, writePos+1)
	return true
}

// evictOldest frees the oldest slot from the producer side. The CAS loses
// against a concurrent Read, which means the consumer already freed the
// slot and nothing needs dropping.
func (rb *RingBuffer) evictOldest(readPos uint32) {
	if atomic.CompareAndSwapUint32(&rb.readPos, readPos, readPos+1) {
		atomic.AddUint64(&rb.dropped, 1)
	}
}

// Read takes the next frame, or returns false when the ring is empty.
// Single reader only; the CAS retry covers a concurrent eviction stealing
// the slot.
func (rb *RingBuffer) Read() (*Frame, bool) {
	for {
		readPos := atomic.LoadUint32(&rb.readPos)
		writePos := atomic.LoadUint32(&rb.writePos)

		if readPos == writePos {
			return nil, false
		}

		frame := rb.buffer[readPos&rb.mask].Load()
		if atomic.CompareAndSwapUint32(&rb.readPos, readPos, readPos+1) {
			return frame, true
		}
	}
}

// Dropped returns the number of frames dropped under pressure.
func (rb *RingBuffer) Dropped() uint64 {
	return atomic.LoadUint64(&rb.dropped)
}

// Len returns the number of frames currently buffered.
func (rb *RingBuffer) Len() uint32 {
	writePos := atomic.LoadUint32(&rb.writePos)
	readPos := atomic.LoadUint32(&rb.readPos)
	return writePos - readPos
}

// Available returns the number of free slots.
func (rb *RingBuffer) Available() uint32 {
	return rb.size - rb.Len()
}
