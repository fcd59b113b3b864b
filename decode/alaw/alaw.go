// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package alaw implements audiocore.Decoder for ITU-T G.711 A-law and
// μ-law companded PCM, both one byte per sample.
package alaw

import "github.com/kelindar/audiocore"

func init() {
	audiocore.DefaultRegistry.RegisterDecoder(audiocore.CodecALaw, newALaw)
	audiocore.DefaultRegistry.RegisterDecoder(audiocore.CodecULaw, newULaw)
}

// Decoder expands 8-bit companded samples to f32 via a precomputed
// 256-entry lookup table, the standard G.711 decode approach.
type Decoder struct {
	table   [256]float32
	pending []float32
}

func newALaw(format audiocore.CodecFormat) (audiocore.Decoder, error) {
	return &Decoder{table: alawTable}, nil
}

func newULaw(format audiocore.CodecFormat) (audiocore.Decoder, error) {
	return &Decoder{table: ulawTable}, nil
}

// Send expands one packet of companded bytes into the pending f32 buffer.
func (d *Decoder) Send(p *audiocore.AudioPacket) error {
	for _, b := range p.Data {
		d.pending = append(d.pending, d.table[b])
	}
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

// GetDecoderDelay reports zero: G.711 companding has no lookahead.
func (d *Decoder) GetDecoderDelay() uint32 { return 0 }

var alawTable = buildALawTable()
var ulawTable = buildULawTable()

// buildALawTable expands all 256 A-law codes per the ITU-T G.711 decode
// algorithm, scaled to the [-1,1] float32 range.
func buildALawTable() (table [256]float32) {
	for i := 0; i < 256; i++ {
		table[i] = float32(decodeALawSample(uint8(i))) / 32768.0
	}
	return table
}

func decodeALawSample(a uint8) int16 {
	a ^= 0x55
	sign := a & 0x80
	exponent := (a >> 4) & 0x07
	mantissa := a & 0x0F

	var sample int16
	if exponent == 0 {
		sample = int16(mantissa)<<4 + 8
	} else {
		sample = (int16(mantissa)<<4 + 0x108) << (exponent - 1)
	}
	if sign == 0 {
		sample = -sample
	}
	return sample
}

func buildULawTable() (table [256]float32) {
	for i := 0; i < 256; i++ {
		table[i] = float32(decodeULawSample(uint8(i))) / 32768.0
	}
	return table
}

func decodeULawSample(u uint8) int16 {
	u = ^u
	sign := u & 0x80
	exponent := (u >> 4) & 0x07
	mantissa := u & 0x0F

	sample := ((int16(mantissa) << 3) + 0x84) << exponent
	sample -= 0x84
	if sign != 0 {
		sample = -sample
	}
	return sample
}
