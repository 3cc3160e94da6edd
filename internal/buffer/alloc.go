// Package buffer provides a bounded pool of reusable byte buffers for
// checksum scratch space.
package buffer

import (
	"errors"
	"math/bits"
	"sync"
)

// MaxSize is the largest buffer the pool hands out. It covers any IPv4
// payload plus its pseudo-header; requests beyond it are refused.
const MaxSize = 65536

var defaultAllocator = NewAllocator()

// Get fetches a buffer of length size from the shared allocator. It returns
// nil when size is not positive or exceeds MaxSize.
func Get(size int) []byte { return defaultAllocator.Get(size) }

// Put returns a buffer obtained from Get to the shared allocator.
func Put(buf []byte) error { return defaultAllocator.Put(buf) }

// Allocator hands out pooled buffers with power-of-two capacities so a
// returned buffer always maps back onto the pool it came from.
type Allocator struct {
	buffers []sync.Pool
}

// NewAllocator builds an allocator for buffers of 1 byte up to MaxSize.
func NewAllocator() *Allocator {
	alloc := new(Allocator)
	alloc.buffers = make([]sync.Pool, 17) // 1B -> 64K
	for k := range alloc.buffers {
		i := k
		alloc.buffers[k].New = func() any {
			return make([]byte, 1<<uint(i))
		}
	}
	return alloc
}

// Get returns a buffer of length size, or nil when size is out of range.
// Contents are unspecified; callers overwrite the whole buffer.
func (alloc *Allocator) Get(size int) []byte {
	if size <= 0 || size > MaxSize {
		return nil
	}

	b := msb(size)
	if size == 1<<b {
		return alloc.buffers[b].Get().([]byte)[:size]
	}

	return alloc.buffers[b+1].Get().([]byte)[:size]
}

// Put recycles a buffer handed out by Get. The capacity must be an exact
// power of two within the pool bound or the buffer is rejected.
func (alloc *Allocator) Put(buf []byte) error {
	b := msb(cap(buf))
	if cap(buf) == 0 || cap(buf) > MaxSize || cap(buf) != 1<<b {
		return errors.New("strix: put of non-pooled buffer")
	}

	//nolint:staticcheck // SA6002: slice reuse is the point of the pool
	alloc.buffers[b].Put(buf[:cap(buf)])
	return nil
}

// msb returns the position of the most significant bit.
func msb(size int) uint {
	return uint(bits.Len32(uint32(size)) - 1)
}
