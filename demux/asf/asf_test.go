// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package asf

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/kelindar/audiocore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecodePacketHeaderFlags pins the conformance vector: a packet
// with length_type_flags=0x5D and property_flags=0x5D must decode to
// packet_length=2, sequence absent, padding_length=1, media_object_number=2,
// offset_into_media_object=4, replicated_data_length=1.
func TestDecodePacketHeaderFlags(t *testing.T) {
	lt := decodeLengthTypeFlags(0x5D)
	assert.Equal(t, 2, lt.packetLengthWidth)
	assert.Equal(t, 0, lt.sequenceWidth)
	assert.Equal(t, 1, lt.paddingLengthWidth)
	assert.True(t, lt.multiplePayloadsPresent)

	pf := decodePropertyFlags(0x5D)
	assert.Equal(t, 2, pf.mediaObjectNumberWidth)
	assert.Equal(t, 4, pf.offsetIntoMediaObjectWidth)
	assert.Equal(t, 1, pf.replicatedDataLengthWidth)
}

func writeGUID(buf *bytes.Buffer, g guid) { buf.Write(g[:]) }

func writeObjectHeader(buf *bytes.Buffer, g guid, bodySize int) {
	writeGUID(buf, g)
	binary.Write(buf, binary.LittleEndian, uint64(24+bodySize))
}

// buildFileProperties returns a File Properties Object's full bytes
// (header + body) with the given fixed packet size.
func buildFileProperties(packetSize uint32) []byte {
	var body bytes.Buffer
	writeGUID(&body, guid{}) // file_id, unused by this parser
	binary.Write(&body, binary.LittleEndian, uint64(0)) // file_size
	binary.Write(&body, binary.LittleEndian, uint64(0)) // creation_date
	binary.Write(&body, binary.LittleEndian, uint64(1)) // data_packets_count
	binary.Write(&body, binary.LittleEndian, uint64(0)) // play_duration
	binary.Write(&body, binary.LittleEndian, uint64(0)) // send_duration
	binary.Write(&body, binary.LittleEndian, uint64(0)) // preroll
	binary.Write(&body, binary.LittleEndian, uint32(0)) // flags
	binary.Write(&body, binary.LittleEndian, packetSize) // minimum_data_packet_size
	binary.Write(&body, binary.LittleEndian, packetSize) // maximum_data_packet_size
	binary.Write(&body, binary.LittleEndian, uint32(0)) // max_bitrate

	var out bytes.Buffer
	writeObjectHeader(&out, guidFileProperties, body.Len())
	out.Write(body.Bytes())
	return out.Bytes()
}

// buildStreamProperties returns a Stream Properties Object describing
// a PCM audio_media stream.
func buildStreamProperties(sampleRate, byteRate uint32, channels, bitsPerSample uint16) []byte {
	var typeSpecific bytes.Buffer
	binary.Write(&typeSpecific, binary.LittleEndian, uint16(0x0001)) // WAVE_FORMAT_PCM
	binary.Write(&typeSpecific, binary.LittleEndian, channels)
	binary.Write(&typeSpecific, binary.LittleEndian, sampleRate)
	binary.Write(&typeSpecific, binary.LittleEndian, byteRate)
	binary.Write(&typeSpecific, binary.LittleEndian, uint16(channels*bitsPerSample/8)) // blockAlign
	binary.Write(&typeSpecific, binary.LittleEndian, bitsPerSample)

	var body bytes.Buffer
	writeGUID(&body, guidAudioMedia)
	writeGUID(&body, guid{})
	binary.Write(&body, binary.LittleEndian, uint64(0))                    // time_offset
	binary.Write(&body, binary.LittleEndian, uint32(typeSpecific.Len()))   // type_specific_data_length
	binary.Write(&body, binary.LittleEndian, uint32(0))                    // error_correction_data_length
	binary.Write(&body, binary.LittleEndian, uint16(0))                    // flags
	binary.Write(&body, binary.LittleEndian, uint32(0))                    // reserved
	body.Write(typeSpecific.Bytes())

	var out bytes.Buffer
	writeObjectHeader(&out, guidStreamProperties, body.Len())
	out.Write(body.Bytes())
	return out.Bytes()
}

// buildASFPacket lays out one fixed-size data packet with no error
// correction, packet_length/padding_length omitted (width 0), a
// present sequence field, and a single payload of payload.
func buildASFPacket(packetSize uint32, payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(0x01) // length_type_flags: bit0=1 (sequence omitted), rest 0 (all widths 0)
	buf.WriteByte(0x00) // property_flags: all widths 0
	buf.Write(make([]byte, 6)) // send_time(4) + duration(2)
	buf.Write(payload)
	padding := int(packetSize) - buf.Len()
	if padding > 0 {
		buf.Write(make([]byte, padding))
	}
	return buf.Bytes()
}

func buildASF(sampleRate, byteRate uint32, channels, bitsPerSample uint16, packetSize uint32, payload []byte) []byte {
	var header bytes.Buffer
	fileProps := buildFileProperties(packetSize)
	streamProps := buildStreamProperties(sampleRate, byteRate, channels, bitsPerSample)

	writeObjectHeader(&header, guidHeader, 6+len(fileProps)+len(streamProps))
	binary.Write(&header, binary.LittleEndian, uint32(2)) // num_header_objects
	header.WriteByte(1) // reserved1
	header.WriteByte(2) // reserved2
	header.Write(fileProps)
	header.Write(streamProps)

	packet := buildASFPacket(packetSize, payload)

	var data bytes.Buffer
	writeObjectHeader(&data, guidDataObject, 26+len(packet))
	writeGUID(&data, guid{}) // file_id
	binary.Write(&data, binary.LittleEndian, uint64(1)) // total_data_packets
	binary.Write(&data, binary.LittleEndian, uint16(0)) // reserved
	data.Write(packet)

	var out bytes.Buffer
	out.Write(header.Bytes())
	out.Write(data.Bytes())
	return out.Bytes()
}

func TestOpenResolvesAudioStreamProperties(t *testing.T) {
	raw := buildASF(44100, 176400, 2, 16, 12, []byte{1, 2, 3, 4})
	s := audiocore.NewMemoryStream(raw)

	demux, err := Open(s, audiocore.OpenPlayback)
	require.NoError(t, err)
	defer demux.Close()

	info, err := demux.GetInfo(0)
	require.NoError(t, err)
	assert.Equal(t, audiocore.CodecLPCM, info.Format.CodecID)
	assert.EqualValues(t, 44100, info.Format.SampleRate)
	assert.EqualValues(t, 2, info.Format.Channels)
}

func TestFeedReturnsPacketPayload(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	raw := buildASF(44100, 176400, 2, 16, 12, payload)
	s := audiocore.NewMemoryStream(raw)

	demux, err := Open(s, audiocore.OpenPlayback)
	require.NoError(t, err)

	var pkt audiocore.AudioPacket
	more, err := demux.Feed(&pkt)
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, payload, pkt.Data)

	more, err = demux.Feed(&pkt)
	require.NoError(t, err)
	assert.False(t, more)
}

func TestOpenRejectsMissingHeaderGUID(t *testing.T) {
	s := audiocore.NewMemoryStream(bytes.Repeat([]byte{0}, 32))
	_, err := Open(s, audiocore.OpenPlayback)
	assert.Error(t, err)
}
