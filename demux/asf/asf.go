// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package asf implements audiocore.Demuxer for the Advanced Systems
// Format (ASF/WMA), per spec §4.5.2: a GUID object stream, audio
// stream-properties selection, and a variable-width packet header
// decoded through a documented bit layout (see decodeLengthTypeFlags /
// decodePropertyFlags below) rather than full multiple-payload support.
package asf

import (
	"encoding/binary"

	"github.com/kelindar/audiocore"
	"github.com/kelindar/audiocore/internal/ioprim"
	"github.com/kelindar/audiocore/internal/stream"
)

func init() {
	audiocore.DefaultRegistry.RegisterDemuxer("asf", Open)
	audiocore.DefaultRegistry.RegisterDemuxer("wma", Open)
}

// guid is a raw 16-byte ASF object identifier, stored exactly as it
// appears on the wire (Microsoft's mixed-endian GUID encoding means
// these byte arrays are NOT the same order as the canonical hyphenated
// string form, but comparisons only ever need byte equality).
type guid [16]byte

var (
	guidHeader           = guid{0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11, 0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C}
	guidDataObject       = guid{0x36, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11, 0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C}
	guidFileProperties   = guid{0xA1, 0xDC, 0xAB, 0x8C, 0x47, 0xA9, 0xCF, 0x11, 0x8E, 0xE4, 0x00, 0xC0, 0x0C, 0x20, 0x53, 0x65}
	guidStreamProperties = guid{0x91, 0x07, 0xDC, 0xB7, 0xB7, 0xA9, 0xCF, 0x11, 0x8E, 0xE6, 0x00, 0xC0, 0x0C, 0x20, 0x53, 0x65}
	guidAudioMedia       = guid{0x40, 0x9E, 0x69, 0xF8, 0x4D, 0x5B, 0xCF, 0x11, 0xA8, 0xFD, 0x00, 0x80, 0x5F, 0x5C, 0x44, 0x2B}
)

// Demuxer reads fixed-size ASF data packets sequentially out of the
// Data Object, decoding each packet's Payload Parsing Information to
// locate its single audio payload (no multiple-payload packing).
type Demuxer struct {
	s audiocore.Stream

	format         audiocore.CodecFormat
	packetSize     uint32
	dataStart      int64
	packetCount    int64
	cursor         int64
}

// Open reads the Header Object for a Stream Properties object
// describing an audio_media stream, then locates the Data Object.
func Open(s audiocore.Stream, mode audiocore.OpenMode) (audiocore.Demuxer, error) {
	var topGUID guid
	var topSize uint64
	if err := stream.Gather(s, binary.LittleEndian, ioprim.Bytes(topGUID[:], 16), ioprim.U64(&topSize)); err != nil {
		return nil, err
	}
	if topGUID != guidHeader {
		return nil, audiocore.NewError(audiocore.ErrInvalidDataFormat, "asf: missing Header Object GUID")
	}

	var numObjects uint32
	var reserved1, reserved2 uint8
	if err := stream.Gather(s, binary.LittleEndian, ioprim.U32(&numObjects), ioprim.U8(&reserved1), ioprim.U8(&reserved2)); err != nil {
		return nil, err
	}

	d := &Demuxer{s: s}
	foundAudio := false

	for i := uint32(0); i < numObjects; i++ {
		var childGUID guid
		var childSize uint64
		start, _ := s.Tell()
		if err := stream.Gather(s, binary.LittleEndian, ioprim.Bytes(childGUID[:], 16), ioprim.U64(&childSize)); err != nil {
			return nil, err
		}

		switch childGUID {
		case guidFileProperties:
			if err := d.parseFileProperties(); err != nil {
				return nil, err
			}
		case guidStreamProperties:
			audio, err := d.parseStreamProperties()
			if err == nil && audio && !foundAudio {
				foundAudio = true
			}
		}

		if _, err := s.Seek(start+int64(childSize), stream.SeekSet); err != nil {
			return nil, err
		}
	}

	if !foundAudio {
		return nil, audiocore.NewError(audiocore.ErrInvalidDataFormat, "asf: no audio_media stream found")
	}

	// The Data Object immediately follows the Header Object in every
	// conformant ASF file; this parser relies on that instead of a
	// second top-level scan.
	var dataGUID guid
	var dataSize uint64
	if err := stream.Gather(s, binary.LittleEndian, ioprim.Bytes(dataGUID[:], 16), ioprim.U64(&dataSize)); err != nil {
		return nil, err
	}
	if dataGUID != guidDataObject {
		return nil, audiocore.NewError(audiocore.ErrInvalidDataFormat, "asf: expected Data Object after Header Object")
	}

	var fileID guid
	var totalPackets uint64
	var reserved uint16
	if err := stream.Gather(s, binary.LittleEndian, ioprim.Bytes(fileID[:], 16), ioprim.U64(&totalPackets), ioprim.U16(&reserved)); err != nil {
		return nil, err
	}
	d.packetCount = int64(totalPackets)
	d.dataStart, _ = s.Tell()

	if err := d.format.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Demuxer) parseFileProperties() error {
	var fileID guid
	var fileSize, creationDate, dataPackets, playDuration, sendDuration, preroll uint64
	var flags, minPacket, maxPacket, maxBitrate uint32
	if err := stream.Gather(d.s, binary.LittleEndian,
		ioprim.Bytes(fileID[:], 16), ioprim.U64(&fileSize), ioprim.U64(&creationDate), ioprim.U64(&dataPackets),
		ioprim.U64(&playDuration), ioprim.U64(&sendDuration), ioprim.U64(&preroll),
		ioprim.U32(&flags), ioprim.U32(&minPacket), ioprim.U32(&maxPacket), ioprim.U32(&maxBitrate)); err != nil {
		return err
	}
	d.packetSize = maxPacket
	return nil
}

// parseStreamProperties reads one Stream Properties object's body;
// when stream_type is audio_media, it decodes the nested WAVEFORMATEX
// type-specific data into d.format.
func (d *Demuxer) parseStreamProperties() (bool, error) {
	var streamType, errorCorrectionType guid
	var timeOffset uint64
	var typeSpecificLen, errorCorrectionLen uint32
	var flags uint16
	var reserved uint32
	if err := stream.Gather(d.s, binary.LittleEndian,
		ioprim.Bytes(streamType[:], 16), ioprim.Bytes(errorCorrectionType[:], 16), ioprim.U64(&timeOffset),
		ioprim.U32(&typeSpecificLen), ioprim.U32(&errorCorrectionLen), ioprim.U16(&flags), ioprim.U32(&reserved)); err != nil {
		return false, err
	}
	if streamType != guidAudioMedia {
		return false, nil
	}

	var tag, channels, bitsPerSample uint16
	var sampleRate, byteRate uint32
	var blockAlign uint16
	if err := stream.Gather(d.s, binary.LittleEndian,
		ioprim.U16(&tag), ioprim.U16(&channels), ioprim.U32(&sampleRate),
		ioprim.U32(&byteRate), ioprim.U16(&blockAlign), ioprim.U16(&bitsPerSample)); err != nil {
		return false, err
	}

	var codec audiocore.CodecID
	switch tag {
	case 0x0001, 0x0003:
		codec = audiocore.CodecLPCM
	case 0x0160:
		codec = audiocore.CodecWMAv1
	case 0x0162:
		codec = audiocore.CodecWMAPro
	case 0x0163:
		codec = audiocore.CodecWMALossless
	case 0x000A:
		codec = audiocore.CodecWMAVoice
	default: // 0x0161 and anything else; no package in this module registers a WMA decoder
		codec = audiocore.CodecWMAv2
	}

	d.format = audiocore.CodecFormat{
		CodecID:         codec,
		SampleRate:      sampleRate,
		Channels:        uint32(channels),
		BitsPerSample:   uint32(bitsPerSample),
		BytesPerPacket:  uint32(blockAlign),
		FramesPerPacket: 1,
		BitRate:         byteRate * 8,
	}
	d.format.ChannelLayout = defaultLayout(uint32(channels))
	return true, nil
}

func defaultLayout(channels uint32) uint32 {
	switch channels {
	case 1:
		return audiocore.LayoutMono
	case 2:
		return audiocore.LayoutStereo
	case 6:
		return audiocore.Layout5Point1
	default:
		return 0
	}
}

// widthCode maps a 2-bit type code to its encoded field width, used by
// both length_type_flags and property_flags.
var widthCode = [4]int{0, 1, 2, 4}

// lengthTypeFields is the decoded form of one packet's Length Type
// Flags byte, per this parser's documented bit layout:
//
//	bit 0:      sequenceOmitted (1 = no Sequence field, 0 = 4-byte Sequence)
//	bits 1-2:   packetLengthType (standard 2-bit width code)
//	bit 3:      multiplePayloadsPresent (unsupported; Feed errors if set)
//	bits 4-5:   paddingLengthType (standard 2-bit width code)
//	bits 6-7:   reserved
type lengthTypeFields struct {
	sequenceWidth          int
	packetLengthWidth      int
	multiplePayloadsPresent bool
	paddingLengthWidth     int
}

func decodeLengthTypeFlags(b byte) lengthTypeFields {
	var f lengthTypeFields
	if b&0x01 == 0 {
		f.sequenceWidth = 4
	}
	f.packetLengthWidth = widthCode[(b>>1)&0x03]
	f.multiplePayloadsPresent = b&0x08 != 0
	f.paddingLengthWidth = widthCode[(b>>4)&0x03]
	return f
}

// propertyFields is the decoded form of one packet's Property Flags
// byte:
//
//	bit 0:      reserved
//	bits 1-2:   mediaObjectNumberType (standard 2-bit width code)
//	bits 3-4:   offsetIntoMediaObjectType (standard 2-bit width code)
//	bit 5:      reserved
//	bits 6-7:   replicatedDataLengthType (standard 2-bit width code)
type propertyFields struct {
	mediaObjectNumberWidth    int
	offsetIntoMediaObjectWidth int
	replicatedDataLengthWidth int
}

func decodePropertyFlags(b byte) propertyFields {
	return propertyFields{
		mediaObjectNumberWidth:     widthCode[(b>>1)&0x03],
		offsetIntoMediaObjectWidth: widthCode[(b>>3)&0x03],
		replicatedDataLengthWidth:  widthCode[(b>>6)&0x03],
	}
}

// readVarWidth reads a little-endian unsigned integer of the given
// byte width (0, 1, 2, or 4), returning 0 for width 0.
func readVarWidth(s audiocore.Stream, width int) (uint32, error) {
	if width == 0 {
		return 0, nil
	}
	buf := make([]byte, width)
	if _, err := s.Read(buf); err != nil {
		return 0, audiocore.WrapError(audiocore.ErrReadFault, err, "asf: read var-width field")
	}
	switch width {
	case 1:
		return uint32(buf[0]), nil
	case 2:
		return uint32(binary.LittleEndian.Uint16(buf)), nil
	default:
		return binary.LittleEndian.Uint32(buf), nil
	}
}

// Feed decodes one packet's Payload Parsing Information and returns
// its single audio payload.
func (d *Demuxer) Feed(out *audiocore.AudioPacket) (bool, error) {
	if d.cursor >= d.packetCount {
		return false, nil
	}
	packetStart := d.dataStart + d.cursor*int64(d.packetSize)
	if _, err := d.s.Seek(packetStart, stream.SeekSet); err != nil {
		return false, err
	}

	var ecFlags [1]byte
	if _, err := d.s.Read(ecFlags[:]); err != nil {
		return false, audiocore.WrapError(audiocore.ErrReadFault, err, "asf: read error correction flags")
	}

	lengthTypeByte := ecFlags[0]
	if ecFlags[0]&0x80 != 0 {
		ecDataLen := int(ecFlags[0] & 0x0F)
		if ecDataLen > 0 {
			if _, err := d.s.Seek(int64(ecDataLen), stream.SeekCur); err != nil {
				return false, err
			}
		}
		var b [1]byte
		if _, err := d.s.Read(b[:]); err != nil {
			return false, audiocore.WrapError(audiocore.ErrReadFault, err, "asf: read length type flags")
		}
		lengthTypeByte = b[0]
	}
	lt := decodeLengthTypeFlags(lengthTypeByte)
	if lt.multiplePayloadsPresent {
		return false, audiocore.NewError(audiocore.ErrNotImplemented, "asf: multiple payloads per packet not supported")
	}

	var propByte [1]byte
	if _, err := d.s.Read(propByte[:]); err != nil {
		return false, audiocore.WrapError(audiocore.ErrReadFault, err, "asf: read property flags")
	}
	pf := decodePropertyFlags(propByte[0])

	packetLength, err := readVarWidth(d.s, lt.packetLengthWidth)
	if err != nil {
		return false, err
	}
	if packetLength == 0 {
		packetLength = d.packetSize
	}
	if lt.sequenceWidth > 0 {
		if _, err := readVarWidth(d.s, lt.sequenceWidth); err != nil {
			return false, err
		}
	}
	paddingLength, err := readVarWidth(d.s, lt.paddingLengthWidth)
	if err != nil {
		return false, err
	}

	var sendTimeDuration [6]byte // send_time(4) + duration(2), always present
	if _, err := d.s.Read(sendTimeDuration[:]); err != nil {
		return false, audiocore.WrapError(audiocore.ErrReadFault, err, "asf: read send time/duration")
	}

	if _, err := readVarWidth(d.s, pf.mediaObjectNumberWidth); err != nil {
		return false, err
	}
	if _, err := readVarWidth(d.s, pf.offsetIntoMediaObjectWidth); err != nil {
		return false, err
	}
	replicatedLen, err := readVarWidth(d.s, pf.replicatedDataLengthWidth)
	if err != nil {
		return false, err
	}
	if replicatedLen > 0 {
		if _, err := d.s.Seek(int64(replicatedLen), stream.SeekCur); err != nil {
			return false, err
		}
	}

	pos, _ := d.s.Tell()
	consumed := pos - packetStart
	payloadLen := int64(packetLength) - consumed - int64(paddingLength)
	if payloadLen < 0 {
		payloadLen = 0
	}

	buf := make([]byte, payloadLen)
	if _, err := d.s.Read(buf); err != nil && payloadLen > 0 {
		return false, audiocore.WrapError(audiocore.ErrReadFault, err, "asf: read payload")
	}

	out.Data = buf
	out.FrameCount = d.format.FramesPerPacket
	out.KeyFrame = true
	d.cursor++
	return true, nil
}

// Seek jumps to the packet index nearest ptsFrames using a binary
// estimate (fixed packet size × average bytes-per-frame), accepting
// imprecision: WMA's variable bitrate framing means true sample-exact
// seek requires send_time probing this simplified parser doesn't do.
func (d *Demuxer) Seek(ptsFrames int64) (int64, error) {
	if d.format.BitRate == 0 || d.format.SampleRate == 0 {
		d.cursor = 0
		return 0, nil
	}
	bytesPerFrame := float64(d.format.BitRate) / 8 / float64(d.format.SampleRate)
	estimatedByte := float64(ptsFrames) * bytesPerFrame
	estimatedPacket := int64(estimatedByte / float64(d.packetSize))
	if estimatedPacket < 0 {
		estimatedPacket = 0
	}
	if estimatedPacket > d.packetCount {
		estimatedPacket = d.packetCount
	}
	d.cursor = estimatedPacket
	return 0, nil
}

// GetInfo reports the resolved format and an estimated total frame
// count derived from packet count and average bitrate.
func (d *Demuxer) GetInfo(chapter uint32) (audiocore.StreamInfo, error) {
	total := uint64(0)
	if d.format.BitRate > 0 {
		totalBytes := uint64(d.packetCount) * uint64(d.packetSize)
		total = totalBytes * uint64(d.format.SampleRate) * 8 / uint64(d.format.BitRate)
	}
	return audiocore.StreamInfo{Format: d.format, TotalFrames: total}, nil
}

// GetImage reports no embedded picture: this parser doesn't walk the
// Content Description / Extended Content Description objects that
// would carry WM/Picture.
func (d *Demuxer) GetImage(kind audiocore.ImageType) (audiocore.Image, error) {
	return audiocore.Image{}, audiocore.NewError(audiocore.ErrNotImplemented, "asf: no embedded pictures")
}

// GetChapterCount reports 1: ASF script commands aren't modeled as chapters here.
func (d *Demuxer) GetChapterCount() uint32 { return 1 }

// Close is a no-op: the demuxer holds no resources beyond the caller-owned Stream.
func (d *Demuxer) Close() error { return nil }
