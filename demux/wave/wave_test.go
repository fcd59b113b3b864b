// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package wave

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/kelindar/audiocore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPCMWave constructs a minimal PCM WAVE file with the given channel
// count, sample rate, bit depth and sample frames (already interleaved)
// as raw bytes.
func buildPCMWave(t *testing.T, channels, sampleRate, bits uint16, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	blockAlign := channels * (bits / 8)
	byteRate := uint32(sampleRate) * uint32(blockAlign)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, channels)
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, blockAlign)
	binary.Write(&buf, binary.LittleEndian, bits)

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	return buf.Bytes()
}

func TestOpenParsesFmtAndData(t *testing.T) {
	data := make([]byte, 16) // 4 stereo frames of 16-bit silence
	raw := buildPCMWave(t, 2, 44100, 16, data)

	s := audiocore.NewMemoryStream(raw)
	demux, err := Open(s, audiocore.OpenPlayback)
	require.NoError(t, err)
	defer demux.Close()

	info, err := demux.GetInfo(0)
	require.NoError(t, err)
	assert.Equal(t, audiocore.CodecLPCM, info.Format.CodecID)
	assert.EqualValues(t, 44100, info.Format.SampleRate)
	assert.EqualValues(t, 2, info.Format.Channels)
	assert.EqualValues(t, 4, info.TotalFrames)
}

func TestFeedReturnsAllDataThenFalse(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8} // 2 stereo frames
	raw := buildPCMWave(t, 2, 8000, 16, data)

	s := audiocore.NewMemoryStream(raw)
	demux, err := Open(s, audiocore.OpenPlayback)
	require.NoError(t, err)

	var pkt audiocore.AudioPacket
	more, err := demux.Feed(&pkt)
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, data, pkt.Data)

	more, err = demux.Feed(&pkt)
	require.NoError(t, err)
	assert.False(t, more)
}

func TestOpenRejectsNonRIFF(t *testing.T) {
	s := audiocore.NewMemoryStream([]byte("not a wave file at all"))
	_, err := Open(s, audiocore.OpenPlayback)
	assert.Error(t, err)
}

func TestSeekRepositionsWithinData(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	raw := buildPCMWave(t, 2, 8000, 16, data)

	s := audiocore.NewMemoryStream(raw)
	demux, err := Open(s, audiocore.OpenPlayback)
	require.NoError(t, err)

	_, err = demux.Seek(1)
	require.NoError(t, err)

	var pkt audiocore.AudioPacket
	_, err = demux.Feed(&pkt)
	require.NoError(t, err)
	assert.Equal(t, data[4:], pkt.Data)
}
