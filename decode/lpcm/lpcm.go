// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package lpcm implements audiocore.Decoder over uncompressed linear PCM,
// wrapping the internal/pcm blitter so LPCM packets pass straight through
// conversion with no intermediate copy beyond what the blitter itself does.
package lpcm

import (
	"github.com/kelindar/audiocore"
	"github.com/kelindar/audiocore/internal/pcm"
)

func init() {
	audiocore.DefaultRegistry.RegisterDecoder(audiocore.CodecLPCM, New)
}

// Decoder converts raw LPCM packets to interleaved f32 via a pcm.Converter
// calibrated once from the resolved CodecFormat.
type Decoder struct {
	conv       *pcm.Converter
	channels   int
	frameBytes int
	pending    []float32
}

// New constructs a Decoder for format, which must describe an LPCM stream.
func New(format audiocore.CodecFormat) (audiocore.Decoder, error) {
	if format.CodecID != audiocore.CodecLPCM {
		return nil, audiocore.NewError(audiocore.ErrInvalidArgument, "lpcm: not an LPCM format")
	}

	channels := int(format.Channels)
	bytesPerSample := 0
	if channels > 0 {
		bytesPerSample = int(format.BytesPerPacket) / channels
	}

	conv, err := pcm.NewConverter(pcm.Spec{
		BytesPerSample: bytesPerSample,
		BitsPerSample:  int(format.BitsPerSample),
		Channels:       channels,
		Flags:          pcm.Flags(format.Flags),
	})
	if err != nil {
		return nil, audiocore.WrapError(audiocore.ErrUnsupportedFormat, err, "lpcm: build converter")
	}

	return &Decoder{conv: conv, channels: channels, frameBytes: bytesPerSample * channels}, nil
}

// Send converts p's raw bytes into the pending f32 buffer. LPCM has no
// internal buffering state, so this fully drains the packet.
func (d *Decoder) Send(p *audiocore.AudioPacket) error {
	if d.frameBytes == 0 {
		return audiocore.NewError(audiocore.ErrInvalidArgument, "lpcm: zero frame size")
	}

	out, err := d.conv.Convert(nil, p.Data, len(p.Data)/d.frameBytes)
	if err != nil {
		return audiocore.WrapError(audiocore.ErrInvalidDataFormat, err, "lpcm: convert packet")
	}
	d.pending = append(d.pending, out...)
	return nil
}

// Recv drains as many complete frames as fit in out.
func (d *Decoder) Recv(out []float32) (int, audiocore.DecodeStatus, error) {
	if len(d.pending) == 0 {
		return 0, audiocore.DecodeNeedMore, nil
	}
	n := copy(out, d.pending)
	frames := n / d.channels
	consumed := frames * d.channels
	d.pending = d.pending[consumed:]
	return frames, audiocore.DecodeOK, nil
}

// Flush discards any buffered decoded samples.
func (d *Decoder) Flush() { d.pending = d.pending[:0] }

// GetDecoderDelay reports zero: LPCM has no decode priming.
func (d *Decoder) GetDecoderDelay() uint32 { return 0 }
