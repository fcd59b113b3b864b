// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package sink defines the output-plugin contract (spec §4.11): a
// capability interface a concrete device backend implements, and a
// SinkContext that wraps the player's ring buffer with the pull-mode
// render callback a backend drives from its own goroutine.
package sink

import (
	"github.com/kelindar/audiocore/internal/pcm"
	"github.com/kelindar/audiocore/internal/ring"
)

// OutputSession represents one opened audio device/session: format
// negotiation plus the ability to open output streams against it.
type OutputSession interface {
	// Open begins a stream at the given PCM spec, handing back an
	// OutputStream the caller drives via Start/Stop.
	Open(spec pcm.Spec) (OutputStream, error)

	// Close releases the session and any streams still open on it.
	Close() error
}

// OutputStream is a single render stream: start/stop the flow of
// audio, and report the fixed hardware+buffering delay between a frame
// being pulled and it reaching the listener's ears.
type OutputStream interface {
	// Start begins pulling frames from ctx's ring buffer via its render
	// callback, on a goroutine owned by the implementation.
	Start(ctx *SinkContext) error

	// Stop halts the render goroutine and blocks until it has returned.
	Stop() error

	// Delay reports the device's output latency in frames, used by the
	// player to compute wall-clock position (spec §4.10's "clock
	// computed from consumed samples minus sink delay").
	Delay() uint32
}

// SinkContext wraps a ring.Buffer with the pull-mode render callback
// protocol: a backend's render goroutine calls Render to obtain the
// next chunk of interleaved f32 samples (as raw bytes, already PCM-
// blitted by the player pipeline), and Notify to wake the player
// goroutine when the buffer has room for more.
type SinkContext struct {
	buf *ring.Buffer

	// wake is the auto-reset-event-equivalent: a size-1 channel drained
	// non-blockingly, which is the idiomatic Go analog of the original's
	// auto_reset_event for producer/consumer handoff.
	wake chan struct{}
}

// NewSinkContext wraps buf for pull-mode rendering.
func NewSinkContext(buf *ring.Buffer) *SinkContext {
	return &SinkContext{buf: buf, wake: make(chan struct{}, 1)}
}

// Render copies up to len(dst) bytes of buffered PCM into dst, returning
// the number of bytes actually supplied (less than len(dst) only when
// the producer hasn't kept up -- callers should zero-fill the remainder
// to avoid an audible glitch).
func (c *SinkContext) Render(dst []byte) int {
	n := c.buf.Read(dst)
	c.notifyProducer()
	return n
}

// notifyProducer wakes the player goroutine if it is blocked waiting for
// ring buffer space, without blocking itself.
func (c *SinkContext) notifyProducer() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Wait blocks the player's producer goroutine until the sink has
// consumed data. A caller typically selects on this alongside its own cancellation
// channel.
func (c *SinkContext) Wait() <-chan struct{} { return c.wake }

// Buffer exposes the underlying ring buffer for the player's write side.
func (c *SinkContext) Buffer() *ring.Buffer { return c.buf }
