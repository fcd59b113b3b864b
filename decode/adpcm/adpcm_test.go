// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package adpcm

import (
	"testing"

	"github.com/kelindar/audiocore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentPacket() []byte {
	pkt := make([]byte, packetBytes)
	return pkt // zero header -> predictor 0, index 0; zero nibbles -> silence
}

func TestDecodeMonoSilentPacket(t *testing.T) {
	dec, err := New(audiocore.CodecFormat{Channels: 1})
	require.NoError(t, err)

	require.NoError(t, dec.Send(&audiocore.AudioPacket{Data: silentPacket()}))

	out := make([]float32, samplesPerPkt)
	frames, status, err := dec.Recv(out)
	require.NoError(t, err)
	assert.Equal(t, audiocore.DecodeOK, status)
	assert.Equal(t, samplesPerPkt, frames)
	for _, v := range out {
		assert.InDelta(t, 0.0, v, 1e-6)
	}
}

func TestDecodeStereoInterleaves(t *testing.T) {
	dec, err := New(audiocore.CodecFormat{Channels: 2})
	require.NoError(t, err)

	pkt := append(silentPacket(), silentPacket()...)
	require.NoError(t, dec.Send(&audiocore.AudioPacket{Data: pkt}))

	out := make([]float32, samplesPerPkt*2)
	frames, _, err := dec.Recv(out)
	require.NoError(t, err)
	assert.Equal(t, samplesPerPkt, frames)
}

func TestFlushResetsPredictorState(t *testing.T) {
	dec, err := New(audiocore.CodecFormat{Channels: 1})
	require.NoError(t, err)
	d := dec.(*Decoder)
	d.states[0] = channelState{predictor: 1234, index: 10}
	dec.Flush()
	assert.Equal(t, channelState{}, d.states[0])
}
