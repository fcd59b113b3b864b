// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package external adapts push-style "decode one frame" codec functions —
// the shape every pure-Go AAC/MP3/FLAC implementation in the wider
// ecosystem exposes, e.g. llehouerou/go-aac's Config/FrameInfo pair — to
// the pull-style audiocore.Decoder contract.
//
// The adapter itself has no codec-specific dependency and registers
// nothing. The AAC codec ids are wired to a real decode function only in
// aac.go, which builds under the audiocore_aac build tag; without that
// tag no decoder is registered for them, mirroring the original engine's
// optional platform `.so`/`.dylib` codec plugins.
package external

import "github.com/kelindar/audiocore"

// DecodeFunc decodes one compressed frame into interleaved f32 samples.
// Implementations retain no state across calls except what's needed to
// continue a truncated frame; decoder-internal state (e.g. SBR history)
// lives behind the closure.
type DecodeFunc func(frame []byte) ([]float32, error)

// Decoder adapts a DecodeFunc to audiocore.Decoder's Send/Recv pull loop:
// Send decodes immediately and buffers the result; Recv drains it.
type Decoder struct {
	decode  DecodeFunc
	delay   uint32
	pending []float32
}

// New wraps decode as an audiocore.Decoder reporting delay frames of
// decoder priming (e.g. one frames_per_packet of SBR lookahead for
// HE-AAC).
func New(decode DecodeFunc, delay uint32) *Decoder {
	return &Decoder{decode: decode, delay: delay}
}

// Send decodes p's frame immediately and appends the result to the
// pending buffer; external decoders in the pack are not itself
// streaming/incremental, so there is no partial-frame carry state.
func (d *Decoder) Send(p *audiocore.AudioPacket) error {
	out, err := d.decode(p.Data)
	if err != nil {
		return audiocore.WrapError(audiocore.ErrInvalidDataFormat, err, "external: decode frame")
	}
	d.pending = append(d.pending, out...)
	return nil
}

// Recv drains as many decoded samples as fit in out.
func (d *Decoder) Recv(out []float32) (int, audiocore.DecodeStatus, error) {
	if len(d.pending) == 0 {
		return 0, audiocore.DecodeNeedMore, nil
	}
	n := copy(out, d.pending)
	d.pending = d.pending[n:]
	return n, audiocore.DecodeOK, nil
}

// Flush discards buffered decoded samples.
func (d *Decoder) Flush() { d.pending = d.pending[:0] }

// GetDecoderDelay reports the fixed priming delay this codec needs.
func (d *Decoder) GetDecoderDelay() uint32 { return d.delay }
