// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package pcm converts arbitrary linear PCM wire formats into interleaved
// float32, the only sample representation the filter chain and ring
// buffer operate on. See spec §4.7 for the encoding table this mirrors.
package pcm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Flags mirrors audiocore.SampleFlags without importing the root
// package (which would create an import cycle, since audiocore wires
// pcm.Spec into its own facade types).
type Flags uint32

const (
	FlagSignedInt Flags = 1 << iota
	FlagIEEEFloat
	FlagBigEndian
	FlagNonInterleaved
	FlagAlignedHigh
)

// Spec describes one linear PCM wire format.
type Spec struct {
	BytesPerSample int // 1, 2, 3, 4, or 8
	BitsPerSample  int // effective bit width, <= BytesPerSample*8
	Channels       int
	Flags          Flags
}

// encoding is the derived 4-bit selector spec §4.7 describes.
type encoding int

const (
	encI8 encoding = iota
	encI16LE
	encI16BE
	encI24LE
	encI24BE
	encI32LE
	encI32BE
	encF32LE
	encF32BE
	encF64LE
	encF64BE
)

// Converter is a precomputed PCM-to-f32 blitter for one Spec.
type Converter struct {
	spec     Spec
	encoding encoding
	scale    float32
	signFlip uint32 // XOR mask applied before sign interpretation
}

// NewConverter derives the encoding selector, scale factor, and sign-flip
// mask from spec once, so Convert does no per-sample branching on format
// details.
func NewConverter(spec Spec) (*Converter, error) {
	enc, err := deriveEncoding(spec)
	if err != nil {
		return nil, err
	}

	width := spec.BitsPerSample
	if width == 0 {
		width = spec.BytesPerSample * 8
	}

	c := &Converter{spec: spec, encoding: enc}
	if spec.Flags&FlagIEEEFloat == 0 {
		c.scale = 1.0 / float32(int64(1)<<uint(width-1))
		if spec.Flags&FlagSignedInt == 0 {
			c.signFlip = uint32(1) << uint(width-1)
		}
	}
	return c, nil
}

func deriveEncoding(spec Spec) (encoding, error) {
	be := spec.Flags&FlagBigEndian != 0
	isFloat := spec.Flags&FlagIEEEFloat != 0

	switch {
	case isFloat && spec.BytesPerSample == 4:
		if be {
			return encF32BE, nil
		}
		return encF32LE, nil
	case isFloat && spec.BytesPerSample == 8:
		if be {
			return encF64BE, nil
		}
		return encF64LE, nil
	case !isFloat && spec.BytesPerSample == 1:
		return encI8, nil
	case !isFloat && spec.BytesPerSample == 2:
		if be {
			return encI16BE, nil
		}
		return encI16LE, nil
	case !isFloat && spec.BytesPerSample == 3:
		if be {
			return encI24BE, nil
		}
		return encI24LE, nil
	case !isFloat && spec.BytesPerSample == 4:
		if be {
			return encI32BE, nil
		}
		return encI32LE, nil
	default:
		return 0, fmt.Errorf("pcm: unsupported spec %+v", spec)
	}
}

// Convert reads frames*Channels samples from src (interleaved, per Spec)
// and appends their float32 equivalents to dst, returning the grown
// slice. For FlagNonInterleaved input, callers use ConvertPlanar instead.
func (c *Converter) Convert(dst []float32, src []byte, frames int) ([]float32, error) {
	n := frames * c.spec.Channels
	need := n * c.spec.BytesPerSample
	if len(src) < need {
		return dst, fmt.Errorf("pcm: src has %d bytes, need %d", len(src), need)
	}

	if cap(dst)-len(dst) < n {
		grown := make([]float32, len(dst), len(dst)+n)
		copy(grown, dst)
		dst = grown
	}
	base := len(dst)
	dst = dst[:base+n]

	bps := c.spec.BytesPerSample
	for i := 0; i < n; i++ {
		dst[base+i] = c.convertOne(src[i*bps : i*bps+bps])
	}
	return dst, nil
}

// ConvertPlanar converts one channel plane (frames samples, not
// interleaved) into dst at the given channel stride, matching spec
// §4.7's scatter-with-stride planar path. A dedicated fast path handles
// the common 2-channel case without extra bookkeeping.
func (c *Converter) ConvertPlanar(dst []float32, plane []byte, frames, channelIndex, totalChannels int) error {
	bps := c.spec.BytesPerSample
	if len(plane) < frames*bps {
		return fmt.Errorf("pcm: plane has %d bytes, need %d", len(plane), frames*bps)
	}
	if len(dst) < frames*totalChannels {
		return fmt.Errorf("pcm: dst too small for %d frames x %d channels", frames, totalChannels)
	}

	if totalChannels == 2 {
		c.convertPlanarStereo(dst, plane, frames, channelIndex)
		return nil
	}

	for f := 0; f < frames; f++ {
		dst[f*totalChannels+channelIndex] = c.convertOne(plane[f*bps : f*bps+bps])
	}
	return nil
}

// convertPlanarStereo is the 2-channel fast path referenced in spec
// §4.7; Go has no portable SIMD intrinsic surface to hand-vectorize this
// the way the original's SSE2/AVX2 kernel does (see DESIGN.md), so this
// remains a flat, alias-free loop the compiler can auto-vectorize.
func (c *Converter) convertPlanarStereo(dst []float32, plane []byte, frames, channelIndex int) {
	bps := c.spec.BytesPerSample
	for f := 0; f < frames; f++ {
		dst[f*2+channelIndex] = c.convertOne(plane[f*bps : f*bps+bps])
	}
}

func (c *Converter) convertOne(b []byte) float32 {
	switch c.encoding {
	case encI8:
		v := uint32(b[0]) ^ c.signFlip
		return float32(int8(v)) * c.scale
	case encI16LE:
		v := uint32(binary.LittleEndian.Uint16(b)) ^ c.signFlip
		return float32(int16(v)) * c.scale
	case encI16BE:
		v := uint32(binary.BigEndian.Uint16(b)) ^ c.signFlip
		return float32(int16(v)) * c.scale
	case encI24LE:
		raw := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
		return float32(signExtend24(raw^c.signFlip)) * c.scale
	case encI24BE:
		raw := uint32(b[2]) | uint32(b[1])<<8 | uint32(b[0])<<16
		return float32(signExtend24(raw^c.signFlip)) * c.scale
	case encI32LE:
		v := binary.LittleEndian.Uint32(b) ^ c.signFlip
		return float32(int32(v)) * c.scale
	case encI32BE:
		v := binary.BigEndian.Uint32(b) ^ c.signFlip
		return float32(int32(v)) * c.scale
	case encF32LE:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case encF32BE:
		return math.Float32frombits(binary.BigEndian.Uint32(b))
	case encF64LE:
		return float32(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	case encF64BE:
		return float32(math.Float64frombits(binary.BigEndian.Uint64(b)))
	default:
		return 0
	}
}

func signExtend24(v uint32) int32 {
	if v&0x800000 != 0 {
		return int32(v | 0xFF000000)
	}
	return int32(v)
}
