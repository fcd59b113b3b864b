// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package caf implements audiocore.Demuxer for Apple's Core Audio Format
// (spec §4.5.3): big-endian chunks (desc/pakt/kuki/info/data), with
// either a constant frames-per-packet stream or an explicit packet table.
package caf

import (
	"encoding/binary"

	"github.com/kelindar/audiocore"
	"github.com/kelindar/audiocore/internal/ioprim"
	"github.com/kelindar/audiocore/internal/stream"
)

func init() {
	audiocore.DefaultRegistry.RegisterDemuxer("caf", Open)
}

// formatID 4-char codes CAF's "desc" chunk carries in mFormatID.
const (
	formatLPCM  = "lpcm"
	formatALaw  = "alaw"
	formatULaw  = "ulaw"
	formatAAC   = "aac "
)

// packetEntry is one entry of an explicit variable-bitrate packet table.
type packetEntry struct {
	offset    int64
	byteSize  int64
	numFrames int64
}

// Demuxer walks CAF's big-endian chunk list.
type Demuxer struct {
	s audiocore.Stream

	format          audiocore.CodecFormat
	bytesPerPacket  uint32
	framesPerPacket uint32

	dataOffset int64
	dataSize   int64

	packets []packetEntry // non-nil only when "pakt" supplied an explicit table
	cursor  int
	pos     int64
}

// Open parses the CAF header (magic + version) and chunk list.
func Open(s audiocore.Stream, mode audiocore.OpenMode) (audiocore.Demuxer, error) {
	var magic [4]byte
	var version, flags uint16
	if err := stream.Gather(s, binary.BigEndian,
		ioprim.Bytes(magic[:], 4), ioprim.U16(&version), ioprim.U16(&flags)); err != nil {
		return nil, err
	}
	if string(magic[:]) != "caff" {
		return nil, audiocore.NewError(audiocore.ErrInvalidDataFormat, "caf: missing 'caff' magic")
	}

	d := &Demuxer{s: s}

	for {
		var chunkType [4]byte
		var chunkSize int64
		if err := stream.Gather(s, binary.BigEndian, ioprim.Bytes(chunkType[:], 4), ioprim.I64(&chunkSize)); err != nil {
			break
		}
		chunkStart, _ := s.Tell()
		name := string(chunkType[:])

		switch name {
		case "desc":
			if err := d.parseDesc(); err != nil {
				return nil, err
			}
		case "pakt":
			if err := d.parsePakt(chunkSize); err != nil {
				return nil, err
			}
		case "data":
			d.dataOffset = chunkStart + 4 // 4-byte mEditCount precedes raw data
			d.dataSize = chunkSize - 4
			if chunkSize < 0 {
				// "until EOF" sentinel (-1): resolve against stream size.
				total, _ := s.Size()
				d.dataSize = total - d.dataOffset
			}
			if _, err := s.Seek(d.dataOffset, stream.SeekSet); err != nil {
				return nil, err
			}
			return d, d.finalize()
		}

		if chunkSize >= 0 {
			if _, err := s.Seek(chunkStart+chunkSize, stream.SeekSet); err != nil {
				break
			}
		}
	}

	return nil, audiocore.NewError(audiocore.ErrInvalidDataFormat, "caf: missing data chunk")
}

func (d *Demuxer) parseDesc() error {
	var sampleRate float64
	var formatID [4]byte
	var formatFlags uint32
	var bytesPerPacket, framesPerPacket, channels, bitsPerChannel uint32

	if err := stream.Gather(d.s, binary.BigEndian,
		ioprim.F64(&sampleRate), ioprim.Bytes(formatID[:], 4), ioprim.U32(&formatFlags),
		ioprim.U32(&bytesPerPacket), ioprim.U32(&framesPerPacket), ioprim.U32(&channels), ioprim.U32(&bitsPerChannel)); err != nil {
		return err
	}

	d.bytesPerPacket = bytesPerPacket
	d.framesPerPacket = framesPerPacket
	formatFrames := framesPerPacket
	if formatFrames == 0 {
		formatFrames = 1
	}

	var codec audiocore.CodecID
	var flags audiocore.SampleFlags
	switch string(formatID[:]) {
	case formatLPCM:
		codec = audiocore.CodecLPCM
		if formatFlags&1 != 0 {
			flags |= audiocore.FlagIEEEFloat
		} else {
			flags |= audiocore.FlagSignedInt
		}
		if formatFlags&2 != 0 {
			flags |= audiocore.FlagBigEndian
		}
	case formatALaw:
		codec = audiocore.CodecALaw
	case formatULaw:
		codec = audiocore.CodecULaw
	case formatAAC:
		codec = audiocore.CodecAACLC
	default:
		return audiocore.NewError(audiocore.ErrUnsupportedFormat, "caf: unsupported format id %q", string(formatID[:]))
	}

	d.format = audiocore.CodecFormat{
		CodecID:         codec,
		SampleRate:      uint32(sampleRate),
		Channels:        channels,
		BitsPerSample:   bitsPerChannel,
		BytesPerPacket:  bytesPerPacket,
		FramesPerPacket: formatFrames,
		Flags:           flags,
	}
	d.format.ChannelLayout = defaultLayout(channels)
	return nil
}

// parsePakt reads CAF's variable packet-size table: a priming/remainder
// header followed by per-packet LEB128-encoded (byteSize, numFrames)
// pairs, used by VBR codecs like AAC.
func (d *Demuxer) parsePakt(chunkSize int64) error {
	var numPackets, numFrames int64
	var primingFrames, remainderFrames int32
	if err := stream.Gather(d.s, binary.BigEndian,
		ioprim.I64(&numPackets), ioprim.I64(&numFrames), ioprim.I32(&primingFrames), ioprim.I32(&remainderFrames)); err != nil {
		return err
	}

	offset := int64(0)
	entries := make([]packetEntry, 0, numPackets)
	for i := int64(0); i < numPackets; i++ {
		byteSize, err := readLEB128(d.s)
		if err != nil {
			return err
		}
		frames := int64(d.framesPerPacket)
		if d.framesPerPacket == 0 {
			frames, err = readLEB128(d.s)
			if err != nil {
				return err
			}
		}
		entries = append(entries, packetEntry{offset: offset, byteSize: byteSize, numFrames: frames})
		offset += byteSize
	}
	d.packets = entries
	return nil
}

// readLEB128 decodes CAF's variable-length integer encoding: 7 bits per
// byte, high bit set on every byte but the last.
func readLEB128(s audiocore.Stream) (int64, error) {
	var v int64
	for {
		var b [1]byte
		if _, err := s.Read(b[:]); err != nil {
			return 0, audiocore.WrapError(audiocore.ErrReadFault, err, "caf: read varint")
		}
		v = (v << 7) | int64(b[0]&0x7F)
		if b[0]&0x80 == 0 {
			return v, nil
		}
	}
}

func defaultLayout(channels uint32) uint32 {
	switch channels {
	case 1:
		return audiocore.LayoutMono
	case 2:
		return audiocore.LayoutStereo
	case 6:
		return audiocore.Layout5Point1
	case 8:
		return audiocore.Layout7Point1
	default:
		return 0
	}
}

func (d *Demuxer) finalize() error {
	if err := d.format.Validate(); err != nil {
		return err
	}
	d.pos = 0
	return nil
}

// Feed reads one packet: either a fixed-size LPCM/G.711 chunk, or the
// next entry of the explicit VBR packet table when one was parsed.
func (d *Demuxer) Feed(out *audiocore.AudioPacket) (bool, error) {
	if len(d.packets) > 0 {
		return d.feedFromTable(out)
	}
	return d.feedFixed(out)
}

func (d *Demuxer) feedFromTable(out *audiocore.AudioPacket) (bool, error) {
	if d.cursor >= len(d.packets) {
		return false, nil
	}
	entry := d.packets[d.cursor]
	d.cursor++

	if _, err := d.s.Seek(d.dataOffset+entry.offset, stream.SeekSet); err != nil {
		return false, err
	}
	buf := make([]byte, entry.byteSize)
	if _, err := d.s.Read(buf); err != nil {
		return false, audiocore.WrapError(audiocore.ErrReadFault, err, "caf: read packet")
	}
	out.Data = buf
	out.FrameCount = uint32(entry.numFrames)
	out.KeyFrame = true
	return true, nil
}

func (d *Demuxer) feedFixed(out *audiocore.AudioPacket) (bool, error) {
	const packetFrames = 4096
	bytesPerFrame := int64(d.bytesPerPacket)
	if bytesPerFrame == 0 {
		bytesPerFrame = 1
	}
	remaining := d.dataSize - d.pos
	if remaining <= 0 {
		return false, nil
	}

	want := packetFrames * bytesPerFrame
	if want > remaining {
		want = remaining
	}
	buf := make([]byte, want)
	n, err := d.s.Read(buf)
	if err != nil && n == 0 {
		return false, audiocore.WrapError(audiocore.ErrReadFault, err, "caf: read data chunk")
	}
	out.Data = buf[:n]
	out.FrameCount = uint32(int64(n) / bytesPerFrame)
	out.KeyFrame = true
	d.pos += int64(n)
	return true, nil
}

// Seek repositions to the packet/frame nearest ptsFrames.
func (d *Demuxer) Seek(ptsFrames int64) (int64, error) {
	if len(d.packets) > 0 {
		frames := int64(0)
		for i, p := range d.packets {
			if frames+p.numFrames > ptsFrames {
				d.cursor = i
				return 0, nil
			}
			frames += p.numFrames
		}
		d.cursor = len(d.packets)
		return 0, nil
	}

	bytesPerFrame := int64(d.bytesPerPacket)
	if bytesPerFrame == 0 {
		bytesPerFrame = 1
	}
	offset := ptsFrames * bytesPerFrame
	if _, err := d.s.Seek(d.dataOffset+offset, stream.SeekSet); err != nil {
		return 0, err
	}
	d.pos = offset
	return 0, nil
}

// GetInfo reports the resolved format and total frame count.
func (d *Demuxer) GetInfo(chapter uint32) (audiocore.StreamInfo, error) {
	if len(d.packets) > 0 {
		total := int64(0)
		for _, p := range d.packets {
			total += p.numFrames
		}
		return audiocore.StreamInfo{Format: d.format, TotalFrames: uint64(total)}, nil
	}
	bytesPerFrame := int64(d.bytesPerPacket)
	if bytesPerFrame == 0 {
		bytesPerFrame = 1
	}
	return audiocore.StreamInfo{Format: d.format, TotalFrames: uint64(d.dataSize / bytesPerFrame)}, nil
}

// GetImage reports no embedded picture: this parser doesn't read CAF's
// "info" chunk's free-form string metadata for cover art.
func (d *Demuxer) GetImage(kind audiocore.ImageType) (audiocore.Image, error) {
	return audiocore.Image{}, audiocore.NewError(audiocore.ErrNotImplemented, "caf: no embedded pictures")
}

// GetChapterCount reports 1: CAF chapter marks aren't modeled here.
func (d *Demuxer) GetChapterCount() uint32 { return 1 }

// Close is a no-op: the demuxer holds no resources beyond the caller-owned Stream.
func (d *Demuxer) Close() error { return nil }
