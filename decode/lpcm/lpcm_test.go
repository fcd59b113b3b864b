// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package lpcm

import (
	"encoding/binary"
	"testing"

	"github.com/kelindar/audiocore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeI16StereoRoundTrip(t *testing.T) {
	format := audiocore.CodecFormat{
		CodecID:        audiocore.CodecLPCM,
		SampleRate:     44100,
		Channels:       2,
		BitsPerSample:  16,
		BytesPerPacket: 4,
		Flags:          audiocore.FlagSignedInt,
	}
	dec, err := New(format)
	require.NoError(t, err)

	raw := make([]byte, 8)
	binary.LittleEndian.PutUint16(raw[0:], uint16(int16(1000)))
	binary.LittleEndian.PutUint16(raw[2:], uint16(int16(-1000)))
	binary.LittleEndian.PutUint16(raw[4:], uint16(int16(32767)))
	binary.LittleEndian.PutUint16(raw[6:], uint16(int16(-32768)))

	require.NoError(t, dec.Send(&audiocore.AudioPacket{Data: raw}))

	out := make([]float32, 16)
	frames, status, err := dec.Recv(out)
	require.NoError(t, err)
	assert.Equal(t, audiocore.DecodeOK, status)
	assert.Equal(t, 2, frames)
	assert.InDelta(t, 1000.0/32768.0, out[0], 1e-6)
	assert.InDelta(t, -1.0, out[3], 1e-6)
}

func TestDecodeNeedsMoreWhenEmpty(t *testing.T) {
	dec, err := New(audiocore.CodecFormat{
		CodecID: audiocore.CodecLPCM, SampleRate: 8000, Channels: 1,
		BitsPerSample: 8, BytesPerPacket: 1, Flags: 0,
	})
	require.NoError(t, err)

	out := make([]float32, 4)
	frames, status, err := dec.Recv(out)
	require.NoError(t, err)
	assert.Equal(t, 0, frames)
	assert.Equal(t, audiocore.DecodeNeedMore, status)
}

func TestGetDecoderDelayIsZero(t *testing.T) {
	dec, err := New(audiocore.CodecFormat{CodecID: audiocore.CodecLPCM, SampleRate: 8000, Channels: 1, BitsPerSample: 8, BytesPerPacket: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 0, dec.GetDecoderDelay())
}
