// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package player implements the engine's playback state machine (spec
// §4.10): a single goroutine driving feed -> decode -> PCM-convert ->
// filter -> ring-write, a channel-backed SPSC event queue, two-phase
// gapless track rotation, and wall-clock position tracking.
package player

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kelindar/audiocore/internal/filter"
	"github.com/kelindar/audiocore/internal/sink"
)

// State is one of the three playback states spec §4.10 names.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// EventKind tags an Event's payload shape.
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventTrackChanged
	EventPosition
	EventError
	EventEndOfPlaylist
)

// Event is one entry in the player's SPSC notification queue.
type Event struct {
	Kind     EventKind
	State    State
	Position time.Duration
	Err      error
}

// Source is the decode-side pipeline for one track: a demuxer already
// positioned at its first packet, its resolved decoder, and the PCM
// conversion spec to feed the filter chain. The player package doesn't
// know about audiocore.Demuxer/Decoder directly (that would create an
// import cycle back to the root package); it depends on these two small
// closures instead, which the root engine.go wires up per track.
type Source struct {
	// Feed pulls the next filter-chain-ready batch of interleaved f32
	// samples, or returns ok=false at end of stream.
	Feed func() (samples []float32, ok bool, err error)

	// Format is the PCM shape Feed's samples arrive in, before the
	// player's own filter chain (channel mix / resample / ReplayGain).
	Format filter.Format

	// Close releases the demuxer/decoder pair.
	Close func()
}

// Engine drives one gapless playback pipeline: a current Source plus, once
// the player has begun priming the next track, a pendingSource that
// takes over transparently when the current one ends (spec §4.10's
// two-phase gapless rotation).
type Engine struct {
	mu    sync.Mutex
	state atomic.Int32

	current Source
	pending *Source
	hasSrc  bool

	sinkCtx    *sink.SinkContext
	sinkFormat filter.Format
	chain      *filter.Chain

	consumedFrames atomic.Uint64
	sinkDelay      atomic.Uint32

	events chan Event
	stop   chan struct{}
	wg     sync.WaitGroup

	log *log.Logger
}

// New constructs an Engine writing converted, filtered PCM to ctx and
// logging through logger (nil selects the package default logger).
func New(ctx *sink.SinkContext, sinkFormat filter.Format, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{
		sinkCtx:    ctx,
		sinkFormat: sinkFormat,
		events:     make(chan Event, 64),
		log:        logger,
	}
	e.state.Store(int32(Stopped))
	return e
}

// State reports the current playback state.
func (e *Engine) State() State { return State(e.state.Load()) }

// Events returns the channel callers drain for state/track/error
// notifications.
func (e *Engine) Events() <-chan Event { return e.events }

// SetSource installs the track to play next. If the engine is currently
// stopped, it becomes the immediately-playable current source; if the
// engine is mid-playback, it is staged as pendingSource and swapped in
// seamlessly (spec's gapless two-phase rotation) once the current
// source's Feed reports end of stream.
func (e *Engine) SetSource(src Source) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	chain, err := filter.Build(nil, src.Format, e.sinkFormat, nil, nil)
	if err != nil {
		return fmt.Errorf("player: build filter chain: %w", err)
	}

	if !e.hasSrc {
		e.current = src
		e.hasSrc = true
		e.chain = chain
		return nil
	}

	e.pending = &src
	e.log.Debug("staged pending track for gapless rotation")
	return nil
}

// Play starts (or resumes) the render goroutine.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasSrc {
		return fmt.Errorf("player: no source set")
	}

	switch State(e.state.Load()) {
	case Playing:
		return nil
	case Paused:
		e.state.Store(int32(Playing))
		e.emit(Event{Kind: EventStateChanged, State: Playing})
		return nil
	}

	e.state.Store(int32(Playing))
	e.stop = make(chan struct{})
	e.wg.Add(1)
	go e.run(e.stop)
	e.emit(Event{Kind: EventStateChanged, State: Playing})
	return nil
}

// Pause halts rendering without discarding the decode pipeline.
func (e *Engine) Pause() {
	if State(e.state.Load()) != Playing {
		return
	}
	e.state.Store(int32(Paused))
	e.emit(Event{Kind: EventStateChanged, State: Paused})
}

// Stop halts the render goroutine and releases the current source.
func (e *Engine) Stop() {
	e.mu.Lock()
	stopCh := e.stop
	e.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		e.wg.Wait()
	}

	e.mu.Lock()
	if e.hasSrc && e.current.Close != nil {
		e.current.Close()
	}
	e.hasSrc = false
	e.pending = nil
	e.mu.Unlock()

	e.state.Store(int32(Stopped))
	e.consumedFrames.Store(0)
	e.emit(Event{Kind: EventStateChanged, State: Stopped})
}

// Position reports the current wall-clock playback position, computed
// from consumed frames minus the sink's reported output delay.
func (e *Engine) Position(sampleRate uint32) time.Duration {
	if sampleRate == 0 {
		return 0
	}
	consumed := e.consumedFrames.Load()
	delay := uint64(e.sinkDelay.Load())
	frames := uint64(0)
	if consumed > delay {
		frames = consumed - delay
	}
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

// SetSinkDelay records the output backend's reported latency in frames.
func (e *Engine) SetSinkDelay(frames uint32) { e.sinkDelay.Store(frames) }

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.log.Warn("event queue full, dropping event", "kind", ev.Kind)
	}
}

// run is the single pipeline goroutine: feed -> filter -> ring-write,
// looping until stopCh closes or the playlist is exhausted.
func (e *Engine) run(stopCh chan struct{}) {
	defer e.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		if State(e.state.Load()) == Paused {
			time.Sleep(5 * time.Millisecond)
			continue
		}

		e.mu.Lock()
		src := e.current
		e.mu.Unlock()

		samples, ok, err := src.Feed()
		if err != nil {
			e.log.Error("decode pipeline error", "err", err)
			e.emit(Event{Kind: EventError, Err: err})
			return
		}

		if !ok {
			if e.rotateToPending() {
				continue
			}
			e.emit(Event{Kind: EventEndOfPlaylist})
			e.state.Store(int32(Stopped))
			return
		}

		e.mu.Lock()
		processed, ferr := e.chain.Process(samples)
		e.mu.Unlock()
		if ferr != nil {
			e.log.Error("filter chain error", "err", ferr)
			e.emit(Event{Kind: EventError, Err: ferr})
			return
		}

		e.writeFrames(processed, stopCh)
	}
}

// writeFrames pushes processed samples into the ring buffer, blocking
// (via the sink's wake channel) when it's full, until stopCh closes.
func (e *Engine) writeFrames(samples []float32, stopCh chan struct{}) {
	raw := f32ToBytes(samples)
	for len(raw) > 0 {
		n := e.sinkCtx.Buffer().Write(raw)
		raw = raw[n:]
		frameBytes := uint64(4 * e.sinkFormat.Channels) // 4 bytes per f32 sample, Channels samples per frame
		if frameBytes == 0 {
			frameBytes = 4
		}
		e.consumedFrames.Add(uint64(n) / frameBytes)

		if len(raw) == 0 {
			return
		}
		select {
		case <-stopCh:
			return
		case <-e.sinkCtx.Wait():
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// rotateToPending swaps in the staged pendingSource, closing the
// exhausted current source, per spec §4.10's two-phase gapless rotation.
func (e *Engine) rotateToPending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending == nil {
		return false
	}

	if e.current.Close != nil {
		e.current.Close()
	}
	e.current = *e.pending
	e.pending = nil

	chain, err := filter.Build(nil, e.current.Format, e.sinkFormat, nil, nil)
	if err != nil {
		e.log.Error("rebuild filter chain for rotated track", "err", err)
		return false
	}
	e.chain = chain
	e.consumedFrames.Store(0)

	e.log.Info("rotated to next track")
	e.emit(Event{Kind: EventTrackChanged})
	return true
}

func f32ToBytes(samples []float32) []byte {
	// Reinterprets the float32 slice as raw little/native-endian bytes
	// for the ring buffer, which is a byte-oriented transport; actual
	// endian-correct PCM conversion already happened upstream in the
	// pcm package, so this is a flat memory copy, not a format change.
	out := make([]byte, len(samples)*4)
	for i, v := range samples {
		bits := math.Float32bits(v)
		out[i*4+0] = byte(bits)
		out[i*4+1] = byte(bits >> 8)
		out[i*4+2] = byte(bits >> 16)
		out[i*4+3] = byte(bits >> 24)
	}
	return out
}
