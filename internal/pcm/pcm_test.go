// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package pcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertI16LE(t *testing.T) {
	c, err := NewConverter(Spec{BytesPerSample: 2, BitsPerSample: 16, Channels: 1, Flags: FlagSignedInt})
	require.NoError(t, err)

	src := []byte{0x00, 0x80} // int16 min, little-endian
	out, err := c.Convert(nil, src, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, -1.0, out[0], 1e-6)
}

func TestConvertU8(t *testing.T) {
	c, err := NewConverter(Spec{BytesPerSample: 1, BitsPerSample: 8, Channels: 1})
	require.NoError(t, err)

	out, err := c.Convert(nil, []byte{128}, 1) // midpoint of unsigned 8-bit == 0
	require.NoError(t, err)
	assert.InDelta(t, 0.0, out[0], 1e-6)
}

func TestConvertF32LE(t *testing.T) {
	c, err := NewConverter(Spec{BytesPerSample: 4, Channels: 1, Flags: FlagIEEEFloat})
	require.NoError(t, err)

	src := []byte{0x00, 0x00, 0x00, 0x3F} // 0.5f little-endian
	out, err := c.Convert(nil, src, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, out[0], 1e-6)
}

func TestConvertStereoInterleaved(t *testing.T) {
	c, err := NewConverter(Spec{BytesPerSample: 2, BitsPerSample: 16, Channels: 2, Flags: FlagSignedInt})
	require.NoError(t, err)

	src := []byte{0x00, 0x00, 0xFF, 0x7F} // L=0, R=max
	out, err := c.Convert(nil, src, 1)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 0.0, out[0], 1e-6)
	assert.InDelta(t, 1.0, out[1], 1e-4)
}

func TestConvertPlanarStereo(t *testing.T) {
	c, err := NewConverter(Spec{BytesPerSample: 2, BitsPerSample: 16, Channels: 2, Flags: FlagSignedInt | FlagNonInterleaved})
	require.NoError(t, err)

	left := []byte{0x00, 0x40, 0x00, 0x00}  // two frames, left channel
	dst := make([]float32, 4)
	require.NoError(t, c.ConvertPlanar(dst, left, 2, 0, 2))
	assert.InDelta(t, 0.5, dst[0], 1e-3)
	assert.InDelta(t, 0.0, dst[2], 1e-6)
}

func TestConvertI24LE(t *testing.T) {
	c, err := NewConverter(Spec{BytesPerSample: 3, BitsPerSample: 24, Channels: 1, Flags: FlagSignedInt})
	require.NoError(t, err)

	out, err := c.Convert(nil, []byte{0x00, 0x00, 0x80}, 1) // min 24-bit
	require.NoError(t, err)
	assert.InDelta(t, -1.0, out[0], 1e-6)
}
