// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package realmedia

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/kelindar/audiocore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildRAv4 constructs a minimal version-4 ".ra" header for the given
// codec fourCC, followed by raw frame data.
func buildRAv4(codecTag string, frameSize, subPacketH, subPacketSize uint16, sampleRate, channels uint16, data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(".ra")
	buf.WriteByte(0xfd)
	binary.Write(&buf, binary.BigEndian, uint16(4)) // version

	binary.Write(&buf, binary.BigEndian, uint32(0))  // header_size (unused by parser)
	binary.Write(&buf, binary.BigEndian, uint16(0))  // flavor
	binary.Write(&buf, binary.BigEndian, uint32(0))  // coded_frame_size
	binary.Write(&buf, binary.BigEndian, uint32(0))  // unused1
	binary.Write(&buf, binary.BigEndian, uint32(0))  // unused2
	binary.Write(&buf, binary.BigEndian, subPacketH)
	binary.Write(&buf, binary.BigEndian, frameSize)
	binary.Write(&buf, binary.BigEndian, subPacketSize)
	binary.Write(&buf, binary.BigEndian, sampleRate)
	binary.Write(&buf, binary.BigEndian, uint16(16)) // sample_size
	binary.Write(&buf, binary.BigEndian, channels)

	buf.WriteString(codecTag)
	buf.WriteByte(0) // title len
	buf.WriteByte(0) // author len
	buf.WriteByte(0) // copyright len

	buf.Write(data)
	return buf.Bytes()
}

func TestOpenResolvesDNetCodec(t *testing.T) {
	raw := buildRAv4(codecDNet, 32, 1, 32, 44100, 2, bytes.Repeat([]byte{0xAB}, 64))
	s := audiocore.NewMemoryStream(raw)

	demux, err := Open(s, audiocore.OpenPlayback)
	require.NoError(t, err)
	defer demux.Close()

	info, err := demux.GetInfo(0)
	require.NoError(t, err)
	assert.Equal(t, audiocore.CodecAC3, info.Format.CodecID)
	assert.EqualValues(t, 44100, info.Format.SampleRate)
	assert.EqualValues(t, 2, info.Format.Channels)
}

func TestFeedPlainReturnsFixedFrames(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	raw := buildRAv4(codecDNet, 4, 1, 4, 44100, 1, data)
	s := audiocore.NewMemoryStream(raw)

	demux, err := Open(s, audiocore.OpenPlayback)
	require.NoError(t, err)

	var pkt audiocore.AudioPacket
	more, err := demux.Feed(&pkt)
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, []byte{1, 2, 3, 4}, pkt.Data)

	more, err = demux.Feed(&pkt)
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, []byte{5, 6, 7, 8}, pkt.Data)

	more, err = demux.Feed(&pkt)
	require.NoError(t, err)
	assert.False(t, more)
}

func TestSwapNibblesExchangesLowBits(t *testing.T) {
	buf := []byte{0x1A, 0x2B}
	swapNibbles(buf, 0, 1)
	assert.Equal(t, byte(0x1B), buf[0])
	assert.Equal(t, byte(0x2A), buf[1])
}

func TestDescrambleSIPRDeinterleavesRows(t *testing.T) {
	// 2 rows of 4 bytes, subPacketSize=2 -> 2 sub-packets per row-pair.
	block := []byte{
		0x10, 0x11, 0x12, 0x13, // row 0
		0x20, 0x21, 0x22, 0x23, // row 1
	}
	subs := descrambleSIPR(block, 2, 4, 2)
	require.Len(t, subs, 2)
	assert.Equal(t, []byte{0x10, 0x11, 0x20, 0x21}, subs[0])
	assert.Equal(t, []byte{0x12, 0x13, 0x22, 0x23}, subs[1])
}

func TestOpenRejectsMissingMagic(t *testing.T) {
	s := audiocore.NewMemoryStream([]byte("not a real audio file!!"))
	_, err := Open(s, audiocore.OpenPlayback)
	assert.Error(t, err)
}
