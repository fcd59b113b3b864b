// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package ring implements the mirror-mapped SPSC byte ring buffer from
// spec §3.5/§4.9: capacity rounded to a power of two, a virtual memory
// range of twice the capacity double-mapped so any contiguous window of
// length <= capacity reads or writes as if linear regardless of wrap.
package ring

import (
	"fmt"
	"sync/atomic"
)

// Buffer is a single-producer/single-consumer byte ring. head/tail are
// plain uint64 (only ever touched by their respective side); fill is the
// cross-goroutine handoff, using atomic store/load as Go's sequentially
// consistent sync/atomic is a safe superset of the release/acquire
// ordering spec §3.5 asks for (see DESIGN.md).
type Buffer struct {
	data     []byte // length 2*capacity when mirrored, else capacity
	cap      uint64
	mirrored bool // true when data[i] == data[i+cap] physically, per platform

	head uint64 // producer-owned write cursor
	tail uint64 // consumer-owned read cursor
	fill atomic.Uint64
}

// New allocates a ring buffer with capacity rounded up to the next power
// of two, at least minCapacity bytes. It uses the platform's
// double-mapping primitive when available (see ring_linux.go) and falls
// back to a plain backing slice with split-read/write on other
// platforms (see ring_fallback.go).
func New(minCapacity int) (*Buffer, error) {
	if minCapacity <= 0 {
		return nil, fmt.Errorf("ring: capacity must be > 0")
	}
	capacity := nextPow2(uint64(minCapacity))

	data, err := allocateMirror(capacity)
	if err != nil {
		return nil, err
	}

	return &Buffer{data: data, cap: capacity, mirrored: len(data) == int(2*capacity)}, nil
}

func nextPow2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// Capacity reports the buffer's usable byte capacity.
func (b *Buffer) Capacity() uint64 { return b.cap }

// Fill reports the number of bytes currently buffered (acquire read).
func (b *Buffer) Fill() uint64 { return b.fill.Load() }

// Free reports the number of bytes available for the producer to write.
func (b *Buffer) Free() uint64 { return b.cap - b.fill.Load() }

// Write copies up to len(p) bytes into the buffer, limited by available
// free space, returning the number of bytes actually written. On
// mirror-mapped platforms this is always one contiguous memcpy
// regardless of wrap; elsewhere it splits at the capacity boundary.
func (b *Buffer) Write(p []byte) int {
	free := b.Free()
	n := uint64(len(p))
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}

	off := b.head % b.cap
	b.copyIn(off, p[:n])

	b.head += n
	b.fill.Add(n) // release-commit: producer makes bytes visible to consumer
	return int(n)
}

// Read copies up to len(p) bytes out of the buffer, limited by available
// filled data, returning the number of bytes actually read.
func (b *Buffer) Read(p []byte) int {
	fill := b.fill.Load() // acquire-read: see producer's committed bytes
	n := uint64(len(p))
	if n > fill {
		n = fill
	}
	if n == 0 {
		return 0
	}

	off := b.tail % b.cap
	b.copyOut(p[:n], off)

	b.tail += n
	b.fill.Add(^(n - 1)) // atomic subtract n
	return int(n)
}

// copyIn writes src into the ring starting at byte offset off (< cap).
func (b *Buffer) copyIn(off uint64, src []byte) {
	n := uint64(len(src))
	if b.mirrored {
		copy(b.data[off:off+n], src)
		return
	}
	first := b.cap - off
	if first >= n {
		copy(b.data[off:off+n], src)
		return
	}
	copy(b.data[off:b.cap], src[:first])
	copy(b.data[0:n-first], src[first:])
}

// copyOut reads len(dst) bytes out of the ring starting at byte offset off.
func (b *Buffer) copyOut(dst []byte, off uint64) {
	n := uint64(len(dst))
	if b.mirrored {
		copy(dst, b.data[off:off+n])
		return
	}
	first := b.cap - off
	if first >= n {
		copy(dst, b.data[off:off+n])
		return
	}
	copy(dst[:first], b.data[off:b.cap])
	copy(dst[first:], b.data[0:n-first])
}

// Reset discards all buffered data without copying, for use after a seek.
func (b *Buffer) Reset() {
	b.head = 0
	b.tail = 0
	b.fill.Store(0)
}
