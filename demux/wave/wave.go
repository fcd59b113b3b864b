// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package wave implements audiocore.Demuxer for RIFF/WAVE and RF64's
// 64-bit chunk-size override, per spec §4.5.3: a flat FOURCC chunk
// walker plus a WAVEFORMATEX/EXTENSIBLE -> CodecFormat translation.
// Wave64 (GUID-keyed chunks) is not parsed; Open rejects it.
package wave

import (
	"encoding/binary"

	"github.com/kelindar/audiocore"
	"github.com/kelindar/audiocore/internal/ioprim"
	"github.com/kelindar/audiocore/internal/stream"
)

func init() {
	audiocore.DefaultRegistry.RegisterDemuxer("wav", Open)
	audiocore.DefaultRegistry.RegisterDemuxer("wave", Open)
}

const (
	fmtExtensible = 0xFFFE
	fmtPCM        = 0x0001
	fmtIEEEFloat  = 0x0003
	fmtALaw       = 0x0006
	fmtULaw       = 0x0007
)

// Demuxer walks a RIFF/WAVE (or RF64) chunk list, exposing the single
// audio stream every WAVE file carries.
type Demuxer struct {
	s audiocore.Stream

	format     audiocore.CodecFormat
	dataOffset int64
	dataSize   int64
	pos        int64

	blockAlign uint32
}

// Open parses the RIFF header and chunk list, positioning the stream at
// the first audio byte of the "data" chunk.
func Open(s audiocore.Stream, mode audiocore.OpenMode) (audiocore.Demuxer, error) {
	var riffTag [4]byte
	var riffSize uint32
	var waveTag [4]byte
	if err := stream.Gather(s, binary.LittleEndian,
		ioprim.Bytes(riffTag[:], 4), ioprim.U32(&riffSize), ioprim.Bytes(waveTag[:], 4)); err != nil {
		return nil, err
	}
	if string(riffTag[:]) != "RIFF" && string(riffTag[:]) != "RF64" {
		return nil, audiocore.NewError(audiocore.ErrInvalidDataFormat, "wave: not a RIFF/RF64 file")
	}
	if string(waveTag[:]) != "WAVE" {
		return nil, audiocore.NewError(audiocore.ErrInvalidDataFormat, "wave: missing WAVE tag")
	}

	d := &Demuxer{s: s}
	isRF64 := string(riffTag[:]) == "RF64"
	var ds64DataSize int64 = -1

	for {
		var id [4]byte
		var size uint32
		if err := stream.Gather(s, binary.LittleEndian, ioprim.Bytes(id[:], 4), ioprim.U32(&size)); err != nil {
			break // end of chunk list, tolerate trailing garbage/EOF
		}

		chunkStart, _ := s.Tell()
		name := string(id[:])

		switch name {
		case "ds64":
			if isRF64 {
				var riffSize64, dataSize64, sampleCount64 uint64
				var tableCount uint32
				if err := stream.Gather(s, binary.LittleEndian,
					ioprim.U64(&riffSize64), ioprim.U64(&dataSize64), ioprim.U64(&sampleCount64), ioprim.U32(&tableCount)); err == nil {
					ds64DataSize = int64(dataSize64)
				}
			}
		case "fmt ":
			if err := d.parseFmt(size); err != nil {
				return nil, err
			}
		case "data":
			d.dataOffset = chunkStart
			d.dataSize = int64(size)
			if ds64DataSize >= 0 {
				d.dataSize = ds64DataSize
			}
			if _, err := s.Seek(d.dataOffset, stream.SeekSet); err != nil {
				return nil, err
			}
			return d, d.finalize()
		}

		next := chunkStart + int64(size) + int64(size&1) // chunks are word-aligned
		if _, err := s.Seek(next, stream.SeekSet); err != nil {
			break
		}
	}

	return nil, audiocore.NewError(audiocore.ErrInvalidDataFormat, "wave: missing data chunk")
}

func (d *Demuxer) parseFmt(size uint32) error {
	var tag, channels, bitsPerSample uint16
	var sampleRate, byteRate uint32
	var blockAlign uint16

	if err := stream.Gather(d.s, binary.LittleEndian,
		ioprim.U16(&tag), ioprim.U16(&channels), ioprim.U32(&sampleRate),
		ioprim.U32(&byteRate), ioprim.U16(&blockAlign), ioprim.U16(&bitsPerSample)); err != nil {
		return err
	}
	d.blockAlign = uint32(blockAlign)

	consumed := uint32(16)
	if tag == fmtExtensible && size >= 40 {
		var extSize uint16
		var validBits uint16
		var channelMask uint32
		var subFormat [16]byte
		if err := stream.Gather(d.s, binary.LittleEndian,
			ioprim.U16(&extSize), ioprim.U16(&validBits), ioprim.U32(&channelMask), ioprim.Bytes(subFormat[:], 16)); err == nil {
			tag = binary.LittleEndian.Uint16(subFormat[0:2])
			if validBits != 0 {
				bitsPerSample = validBits
			}
			d.format.ChannelLayout = channelMask
			consumed += 2 + uint32(extSize)
		}
	}

	var codec audiocore.CodecID
	var flags audiocore.SampleFlags
	switch tag {
	case fmtPCM:
		codec = audiocore.CodecLPCM
		flags = audiocore.FlagSignedInt
		if bitsPerSample == 8 {
			flags = 0 // 8-bit WAVE PCM is conventionally unsigned
		}
	case fmtIEEEFloat:
		codec = audiocore.CodecLPCM
		flags = audiocore.FlagIEEEFloat
	case fmtALaw:
		codec = audiocore.CodecALaw
	case fmtULaw:
		codec = audiocore.CodecULaw
	default:
		return audiocore.NewError(audiocore.ErrUnsupportedFormat, "wave: unsupported format tag 0x%04x", tag)
	}

	d.format = audiocore.CodecFormat{
		CodecID:         codec,
		SampleRate:      sampleRate,
		Channels:        uint32(channels),
		ChannelLayout:   d.format.ChannelLayout,
		BitsPerSample:   uint32(bitsPerSample),
		BytesPerPacket:  d.blockAlign,
		FramesPerPacket: 1,
		BitRate:         byteRate * 8,
		Flags:           flags,
	}
	if d.format.ChannelLayout == 0 {
		d.format.ChannelLayout = defaultLayout(uint32(channels))
	}

	remaining := int64(size) - int64(consumed)
	if remaining > 0 {
		if _, err := d.s.Seek(remaining, stream.SeekCur); err != nil {
			return err
		}
	}
	return nil
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

// Feed reads one packet of raw LPCM/companded bytes; WAVE has no
// internal packet framing, so a packet is an arbitrary chunk-aligned
// slice of the data region.
func (d *Demuxer) Feed(out *audiocore.AudioPacket) (bool, error) {
	const packetFrames = 4096
	bytesPerFrame := int64(d.format.BytesPerPacket)
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
		return false, audiocore.WrapError(audiocore.ErrReadFault, err, "wave: read data chunk")
	}

	out.Data = buf[:n]
	out.FrameCount = uint32(int64(n) / bytesPerFrame)
	out.KeyFrame = true
	d.pos += int64(n)
	return true, nil
}

// Seek repositions within the data chunk to the frame containing
// ptsFrames; LPCM has a fixed bytes-per-frame stride so this is exact,
// with zero priming.
func (d *Demuxer) Seek(ptsFrames int64) (int64, error) {
	bytesPerFrame := int64(d.format.BytesPerPacket)
	if bytesPerFrame == 0 {
		bytesPerFrame = 1
	}
	offset := d.dataOffset + ptsFrames*bytesPerFrame
	if _, err := d.s.Seek(offset, stream.SeekSet); err != nil {
		return 0, err
	}
	d.pos = ptsFrames * bytesPerFrame
	return 0, nil
}

// GetInfo reports the resolved stream format; WAVE has no chapters.
func (d *Demuxer) GetInfo(chapter uint32) (audiocore.StreamInfo, error) {
	bytesPerFrame := int64(d.format.BytesPerPacket)
	if bytesPerFrame == 0 {
		bytesPerFrame = 1
	}
	return audiocore.StreamInfo{
		Format:      d.format,
		TotalFrames: uint64(d.dataSize / bytesPerFrame),
	}, nil
}

// GetImage reports no embedded picture: WAVE carries no cover art in the
// formats this demuxer parses.
func (d *Demuxer) GetImage(kind audiocore.ImageType) (audiocore.Image, error) {
	return audiocore.Image{}, audiocore.NewError(audiocore.ErrNotImplemented, "wave: no embedded pictures")
}

// GetChapterCount reports 1: WAVE is never chaptered.
func (d *Demuxer) GetChapterCount() uint32 { return 1 }

// Close is a no-op: the demuxer holds no resources beyond the caller-owned Stream.
func (d *Demuxer) Close() error { return nil }
