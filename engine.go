// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kelindar/audiocore/internal/filter"
	"github.com/kelindar/audiocore/internal/player"
	"github.com/kelindar/audiocore/internal/ring"
	"github.com/kelindar/audiocore/internal/sink"
)

// Engine is the public facade tying together demuxing, decoding, PCM
// conversion, filtering, and the mirror-mapped ring buffer into a
// gapless playback pipeline, per spec §4.10.
type Engine struct {
	registry *Registry
	cfg      EngineConfig
	rg       ReplayGainConfig
	logger   *log.Logger

	sinkFormat filter.Format
	buffer     *ring.Buffer
	sinkCtx    *sink.SinkContext
	runtime    *player.Engine
}

// NewEngine constructs an Engine rendering at sinkFormat (the fixed PCM
// shape the downstream OutputStream expects) using reg to resolve
// demuxers and decoders, configured by cfg.
func NewEngine(reg *Registry, sinkFormat CodecFormat, cfg EngineConfig) (*Engine, error) {
	if err := sinkFormat.Validate(); err != nil {
		return nil, WrapError(ErrInvalidArgument, err, "engine: invalid sink format")
	}

	rg, err := cfg.ReplayGain()
	if err != nil {
		return nil, err
	}

	capacityBytes := int(sinkFormat.SampleRate) * int(sinkFormat.Channels) * 4 *
		int(cfg.RingBufferTime/time.Millisecond) / 1000
	if capacityBytes <= 0 {
		capacityBytes = int(sinkFormat.SampleRate) * int(sinkFormat.Channels) * 4 / 2 // 500ms default
	}

	buf, err := ring.New(capacityBytes)
	if err != nil {
		return nil, WrapError(ErrUnexpected, err, "engine: allocate ring buffer")
	}
	sinkCtx := sink.NewSinkContext(buf)

	logger := log.Default()
	sf := filter.Format{
		SampleRate:    sinkFormat.SampleRate,
		Channels:      sinkFormat.Channels,
		ChannelLayout: sinkFormat.ChannelLayout,
	}

	return &Engine{
		registry:   reg,
		cfg:        cfg,
		rg:         rg,
		logger:     logger,
		sinkFormat: sf,
		buffer:     buf,
		sinkCtx:    sinkCtx,
		runtime:    player.New(sinkCtx, sf, logger),
	}, nil
}

// SinkContext exposes the ring buffer wrapper an OutputStream renders
// from.
func (e *Engine) SinkContext() *sink.SinkContext { return e.sinkCtx }

// State reports the playback state.
func (e *Engine) State() State { return State(e.runtime.State()) }

// Play starts or resumes the render goroutine for the currently opened
// source.
func (e *Engine) Play() error { return e.runtime.Play() }

// Pause halts rendering without discarding the decode pipeline.
func (e *Engine) Pause() { e.runtime.Pause() }

// Stop halts rendering and releases the current source.
func (e *Engine) Stop() { e.runtime.Stop() }

// Position reports the current wall-clock playback position against
// the engine's configured sink sample rate.
func (e *Engine) Position() time.Duration { return e.runtime.Position(e.sinkFormat.SampleRate) }

// SetSinkDelay records the output backend's reported latency in
// frames, used by Position's clock computation.
func (e *Engine) SetSinkDelay(frames uint32) { e.runtime.SetSinkDelay(frames) }

// Events returns the channel of player notifications.
func (e *Engine) Events() <-chan player.Event { return e.runtime.Events() }

// State mirrors player.State in the public API so callers don't need to
// import the internal package.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// Open resolves uri's demuxer (by its path extension) and decoder (by
// the resolved codec id), builds a gapless-rotation-ready Source, and
// stages it on the runtime engine.
func (e *Engine) Open(uri string, tags map[string]string) error {
	ext := strings.TrimPrefix(filepath.Ext(uri), ".")

	s, err := OpenFile(uri)
	if err != nil {
		return err
	}

	demux, err := e.registry.ResolveDemuxer(ext, s, OpenPlayback)
	if err != nil {
		s.Close()
		return err
	}

	info, err := demux.GetInfo(0)
	if err != nil {
		demux.Close()
		s.Close()
		return err
	}

	decoder, err := e.registry.ResolveDecoder(info.Format)
	if err != nil {
		demux.Close()
		s.Close()
		return err
	}

	scale := e.rg.Scale(e.rg.Resolve(NormalizeTags(tags)))

	src := player.Source{
		Format: filter.Format{
			SampleRate:    info.Format.SampleRate,
			Channels:      info.Format.Channels,
			ChannelLayout: info.Format.ChannelLayout,
		},
		Feed: makeFeedFunc(demux, decoder, int(info.Format.Channels), scale),
		Close: func() {
			demux.Close()
			s.Close()
		},
	}

	return e.runtime.SetSource(src)
}

// makeFeedFunc adapts a Demuxer+Decoder pull loop into the
// player.Source.Feed contract: pull compressed packets, send them to
// the decoder, and drain decoded frames until the decoder asks for more
// or the demuxer is exhausted.
func makeFeedFunc(demux Demuxer, decoder Decoder, channels int, gainScale float64) func() ([]float32, bool, error) {
	const frameBatch = 1024
	pkt := &AudioPacket{}
	out := make([]float32, frameBatch*channels)

	return func() ([]float32, bool, error) {
		for {
			frames, status, err := decoder.Recv(out)
			if err != nil {
				return nil, false, err
			}
			if frames > 0 {
				samples := append([]float32(nil), out[:frames*channels]...)
				if gainScale != 1 {
					for i := range samples {
						samples[i] *= float32(gainScale)
					}
				}
				return samples, true, nil
			}
			_ = status // DecodeNeedMore: fall through and feed another packet.

			pkt.Reset()
			more, err := demux.Feed(pkt)
			if err != nil {
				return nil, false, err
			}
			if !more {
				return nil, false, nil
			}
			if err := decoder.Send(pkt); err != nil {
				return nil, false, err
			}
		}
	}
}
