// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package realmedia implements audiocore.Demuxer for standalone
// RealAudio (".ra") streams (spec §4.5.3): a version-dependent fixed
// header, a four-character codec id selecting the per-stream
// descrambler, and — for the "sipr" codec — row-interleaved sub-packets
// straightened out via a nibble-swap table before de-interleaving.
package realmedia

import (
	"encoding/binary"

	"github.com/kelindar/audiocore"
	"github.com/kelindar/audiocore/internal/ioprim"
	"github.com/kelindar/audiocore/internal/stream"
)

func init() {
	audiocore.DefaultRegistry.RegisterDemuxer("ra", Open)
	audiocore.DefaultRegistry.RegisterDemuxer("rm", Open)
}

const (
	codecGeneric = "genr"
	codecDNet    = "dnet" // AC-3
	codec288     = "28_8"
	codecCook    = "cook"
	codecAtrc    = "atrc"
	codecSipr    = "sipr"
)

// Demuxer reads fixed-size RealAudio frames, de-interleaving SIPR's
// row-major sub-packet layout when the codec requires it.
type Demuxer struct {
	s audiocore.Stream

	format        audiocore.CodecFormat
	codecTag      string
	subPacketH    uint16
	frameSize     uint16
	subPacketSize uint16

	dataStart int64
	dataSize  int64

	pending []([]byte) // de-interleaved sub-packets awaiting Feed, for interleaved codecs
	cursor  int
	pos     int64 // byte offset within data for non-interleaved codecs
}

// Open reads the ".ra" magic, a version 3/4/5 header, and positions
// the stream at the start of audio data.
func Open(s audiocore.Stream, mode audiocore.OpenMode) (audiocore.Demuxer, error) {
	var magic [4]byte
	var version uint16
	if err := stream.Gather(s, binary.BigEndian, ioprim.Bytes(magic[:], 4), ioprim.U16(&version)); err != nil {
		return nil, err
	}
	if magic != [4]byte{'.', 'r', 'a', 0xfd} {
		return nil, audiocore.NewError(audiocore.ErrInvalidDataFormat, "realmedia: missing '.ra' magic")
	}

	d := &Demuxer{s: s}
	switch version {
	case 3:
		if err := d.parseV3(); err != nil {
			return nil, err
		}
	case 4, 5:
		if err := d.parseV4V5(version); err != nil {
			return nil, err
		}
	default:
		return nil, audiocore.NewError(audiocore.ErrUnsupportedFormat, "realmedia: unsupported .ra version %d", version)
	}

	d.dataStart, _ = s.Tell()
	total, err := s.Size()
	if err == nil {
		d.dataSize = total - d.dataStart
	}
	if err := d.format.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// parseV3 handles the legacy, low-bitrate version 3 header: a fixed
// 8kHz mono stream with no codec fourCC, common to early RealAudio.
func (d *Demuxer) parseV3() error {
	var headerSize uint16
	var unused [10]byte
	var dataSize uint32
	if err := stream.Gather(d.s, binary.BigEndian,
		ioprim.U16(&headerSize), ioprim.Bytes(unused[:], 10), ioprim.U32(&dataSize)); err != nil {
		return err
	}
	d.codecTag = codecGeneric
	d.format = audiocore.CodecFormat{
		CodecID:         audiocore.CodecRealAudio144,
		SampleRate:      8000,
		Channels:        1,
		FramesPerPacket: 160,
	}
	d.format.ChannelLayout = audiocore.LayoutMono
	d.frameSize = 20
	d.subPacketH = 1
	d.subPacketSize = d.frameSize
	return nil
}

// parseV4V5 handles the common modern header: fixed numeric fields
// followed by a four-character codec id and three length-prefixed
// metadata strings (title/author/copyright).
func (d *Demuxer) parseV4V5(version uint16) error {
	var headerSize, codedFrameSize, unused1, unused2 uint32
	var flavor, subPacketH, frameSize, subPacketSize, sampleRate, sampleSize, channels uint16
	if err := stream.Gather(d.s, binary.BigEndian,
		ioprim.U32(&headerSize), ioprim.U16(&flavor), ioprim.U32(&codedFrameSize),
		ioprim.U32(&unused1), ioprim.U32(&unused2), ioprim.U16(&subPacketH), ioprim.U16(&frameSize),
		ioprim.U16(&subPacketSize), ioprim.U16(&sampleRate), ioprim.U16(&sampleSize), ioprim.U16(&channels)); err != nil {
		return err
	}
	_ = headerSize
	_ = codedFrameSize
	_ = flavor

	if version == 5 {
		var reserved [4]byte
		if err := stream.Gather(d.s, binary.BigEndian, ioprim.Bytes(reserved[:], 4)); err != nil {
			return err
		}
	}

	var codecTag [4]byte
	if err := stream.Gather(d.s, binary.BigEndian, ioprim.Bytes(codecTag[:], 4)); err != nil {
		return err
	}
	if version == 5 {
		var reserved [3]byte
		if err := stream.Gather(d.s, binary.BigEndian, ioprim.Bytes(reserved[:], 3)); err != nil {
			return err
		}
	}

	for i := 0; i < 3; i++ { // title, author, copyright
		var n uint8
		if err := stream.Gather(d.s, binary.BigEndian, ioprim.U8(&n)); err != nil {
			return err
		}
		if n > 0 {
			if _, err := d.s.Seek(int64(n), stream.SeekCur); err != nil {
				return err
			}
		}
	}

	d.codecTag = string(codecTag[:])
	d.subPacketH = subPacketH
	d.frameSize = frameSize
	d.subPacketSize = subPacketSize

	var codec audiocore.CodecID
	switch d.codecTag {
	case codecSipr:
		codec = audiocore.CodecRealAudioSipr
	case codecCook:
		codec = audiocore.CodecRealAudioCook
	case codecAtrc:
		codec = audiocore.CodecRealAudioAtrc
	case codec288:
		codec = audiocore.CodecRealAudio288
	case codecDNet:
		codec = audiocore.CodecAC3
	default:
		codec = audiocore.CodecRealAudio144
	}

	d.format = audiocore.CodecFormat{
		CodecID:         codec,
		SampleRate:      uint32(sampleRate),
		Channels:        uint32(channels),
		BitsPerSample:   uint32(sampleSize),
		FramesPerPacket: uint32(subPacketSize),
	}
	d.format.ChannelLayout = defaultLayout(uint32(channels))
	return nil
}

func defaultLayout(channels uint32) uint32 {
	switch channels {
	case 1:
		return audiocore.LayoutMono
	case 2:
		return audiocore.LayoutStereo
	default:
		return 0
	}
}

// siprSwaps lists (offset_a, offset_b) byte-index pairs whose low
// nibbles are exchanged before a SIPR interleave block is de-rowed.
// The table holds only these eight pairs; a pair that falls outside the
// block is skipped by swapNibbles. Additional pairs extend the table
// without changing the swap mechanism.
var siprSwaps = [][2]int{
	{0, 63}, {1, 22}, {2, 44}, {3, 90},
	{5, 81}, {7, 31}, {8, 86}, {9, 58},
}

// swapNibbles exchanges the low 4 bits of buf[a] and buf[b] in place.
func swapNibbles(buf []byte, a, b int) {
	if a >= len(buf) || b >= len(buf) {
		return
	}
	loA, loB := buf[a]&0x0F, buf[b]&0x0F
	buf[a] = (buf[a] & 0xF0) | loB
	buf[b] = (buf[b] & 0xF0) | loA
}

// descrambleSIPR straightens one interleave block: subPacketH rows of
// frameSize bytes, nibble-swapped per siprSwaps then transposed into
// frameSize/subPacketSize logical sub-packets in playback order.
func descrambleSIPR(block []byte, subPacketH int, frameSize, subPacketSize uint16) [][]byte {
	for _, p := range siprSwaps {
		swapNibbles(block, p[0], p[1])
	}

	if subPacketSize == 0 {
		return nil
	}
	cols := int(frameSize) / int(subPacketSize)
	out := make([][]byte, 0, cols)
	for c := 0; c < cols; c++ {
		sub := make([]byte, 0, subPacketH*int(subPacketSize))
		for r := 0; r < subPacketH; r++ {
			rowStart := r*int(frameSize) + c*int(subPacketSize)
			if rowStart+int(subPacketSize) > len(block) {
				continue
			}
			sub = append(sub, block[rowStart:rowStart+int(subPacketSize)]...)
		}
		out = append(out, sub)
	}
	return out
}

// Feed returns the next audio sub-packet. Non-interleaved codecs yield
// one frameSize-byte frame per call; SIPR yields de-interleaved
// sub-packets one full block at a time.
func (d *Demuxer) Feed(out *audiocore.AudioPacket) (bool, error) {
	if d.codecTag == codecSipr {
		return d.feedSIPR(out)
	}
	return d.feedPlain(out)
}

func (d *Demuxer) feedPlain(out *audiocore.AudioPacket) (bool, error) {
	frame := int64(d.frameSize)
	if frame == 0 {
		frame = 1
	}
	remaining := d.dataSize - d.pos
	if remaining <= 0 {
		return false, nil
	}
	want := frame
	if want > remaining {
		want = remaining
	}
	buf := make([]byte, want)
	n, err := d.s.Read(buf)
	if err != nil && n == 0 {
		return false, audiocore.WrapError(audiocore.ErrReadFault, err, "realmedia: read frame")
	}
	out.Data = buf[:n]
	out.FrameCount = d.format.FramesPerPacket
	out.KeyFrame = true
	d.pos += int64(n)
	return true, nil
}

func (d *Demuxer) feedSIPR(out *audiocore.AudioPacket) (bool, error) {
	if d.cursor < len(d.pending) {
		out.Data = d.pending[d.cursor]
		out.FrameCount = d.format.FramesPerPacket
		out.KeyFrame = true
		d.cursor++
		return true, nil
	}

	blockSize := int64(d.subPacketH) * int64(d.frameSize)
	remaining := d.dataSize - d.pos
	if remaining <= 0 || blockSize == 0 {
		return false, nil
	}
	if blockSize > remaining {
		blockSize = remaining
	}
	block := make([]byte, blockSize)
	n, err := d.s.Read(block)
	if err != nil && n == 0 {
		return false, audiocore.WrapError(audiocore.ErrReadFault, err, "realmedia: read SIPR block")
	}
	d.pos += int64(n)

	d.pending = descrambleSIPR(block[:n], int(d.subPacketH), d.frameSize, d.subPacketSize)
	d.cursor = 0
	if len(d.pending) == 0 {
		return false, nil
	}
	return d.feedSIPR(out)
}

// Seek repositions by frame count using a fixed bytes-per-frame estimate.
func (d *Demuxer) Seek(ptsFrames int64) (int64, error) {
	if d.format.FramesPerPacket == 0 {
		return 0, nil
	}
	frameIdx := ptsFrames / int64(d.format.FramesPerPacket)
	offset := frameIdx * int64(d.frameSize)
	if _, err := d.s.Seek(d.dataStart+offset, stream.SeekSet); err != nil {
		return 0, err
	}
	d.pos = offset
	d.pending = nil
	d.cursor = 0
	return 0, nil
}

// GetInfo reports the resolved format and an estimated total frame count.
func (d *Demuxer) GetInfo(chapter uint32) (audiocore.StreamInfo, error) {
	total := uint64(0)
	if d.frameSize > 0 {
		frames := d.dataSize / int64(d.frameSize)
		total = uint64(frames) * uint64(d.format.FramesPerPacket)
	}
	return audiocore.StreamInfo{Format: d.format, TotalFrames: total}, nil
}

// GetImage reports no embedded picture: standalone .ra streams carry
// only title/author/copyright strings, not cover art.
func (d *Demuxer) GetImage(kind audiocore.ImageType) (audiocore.Image, error) {
	return audiocore.Image{}, audiocore.NewError(audiocore.ErrNotImplemented, "realmedia: no embedded pictures")
}

// GetChapterCount reports 1: RealMedia's event markers aren't modeled as chapters here.
func (d *Demuxer) GetChapterCount() uint32 { return 1 }

// Close is a no-op: the demuxer holds no resources beyond the caller-owned Stream.
func (d *Demuxer) Close() error { return nil }
