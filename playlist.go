// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/kelindar/audiocore/internal/lz4block"
)

// PlayOrder selects how Playlist.Next advances through its tracks.
type PlayOrder int

const (
	OrderLinear PlayOrder = iota
	OrderRandom
	OrderRepeat
)

// Playlist is an ordered collection of tracks plus playback-order state.
type Playlist struct {
	Tracks  []Track
	Current int
	Order   PlayOrder
}

const (
	amplMagic   = uint32(0x414D504C) // "AMPL" read as a big-endian uint32
	amplVersion = uint16(1)
)

// amplMagicBytes is "AMPL" in file order. Marshal copies these bytes into
// the header and Unmarshal compares against them; amplMagic itself is
// never written or read.
var amplMagicBytes = [4]byte{'A', 'M', 'P', 'L'}

// Marshal serializes p into the AMPL playlist wire format (spec §6.2): a
// 12-byte header followed by an LZ4-compressed body.
func (p *Playlist) Marshal() ([]byte, error) {
	body, err := p.marshalBody()
	if err != nil {
		return nil, err
	}

	compressed := lz4block.Compress(body)

	out := make([]byte, 12+len(compressed))
	copy(out[0:4], amplMagicBytes[:])
	binary.LittleEndian.PutUint16(out[4:6], amplVersion)
	binary.LittleEndian.PutUint16(out[6:8], 0) // flags
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(body)))
	copy(out[12:], compressed)
	return out, nil
}

func (p *Playlist) marshalBody() ([]byte, error) {
	var buf bytes.Buffer

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(p.Tracks)))
	buf.Write(u32[:])

	for _, t := range p.Tracks {
		writeString(&buf, t.URI)
		if err := writeStringMap(&buf, t.Tags); err != nil {
			return nil, err
		}
		if err := writeStringMap(&buf, t.Properties); err != nil {
			return nil, err
		}

		var fixed [8 + 8 + 4 + 4 + 4]byte
		binary.LittleEndian.PutUint64(fixed[0:8], t.StartOffset)
		binary.LittleEndian.PutUint64(fixed[8:16], t.Length)
		binary.LittleEndian.PutUint32(fixed[16:20], t.SampleRate)
		binary.LittleEndian.PutUint32(fixed[20:24], t.ChannelLayout)
		binary.LittleEndian.PutUint32(fixed[24:28], t.Chapter)
		buf.Write(fixed[:])
	}

	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) {
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(s)))
	buf.Write(u32[:])
	buf.WriteString(s)
}

func writeStringMap(buf *bytes.Buffer, m map[string]string) error {
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(m)))
	buf.Write(u32[:])
	for k, v := range m {
		writeString(buf, k)
		writeString(buf, v)
	}
	return nil
}

// UnmarshalPlaylist parses the AMPL wire format produced by Marshal.
func UnmarshalPlaylist(data []byte) (*Playlist, error) {
	if len(data) < 12 {
		return nil, NewError(ErrInvalidDataFormat, "ampl: header truncated")
	}
	if !bytes.Equal(data[0:4], amplMagicBytes[:]) {
		return nil, NewError(ErrInvalidDataFormat, "ampl: bad magic")
	}
	version := binary.LittleEndian.Uint16(data[4:6])
	if version != amplVersion {
		return nil, NewError(ErrUnsupportedFormat, "ampl: unsupported version %d", version)
	}
	decompressedSize := binary.LittleEndian.Uint32(data[8:12])

	body, err := lz4block.Decompress(data[12:], int(decompressedSize))
	if err != nil {
		return nil, WrapError(ErrInvalidDataFormat, err, "ampl: decompress body")
	}

	return parsePlaylistBody(body)
}

type byteCursor struct {
	data []byte
	pos  int
}

func (c *byteCursor) u32() (uint32, error) {
	if c.pos+4 > len(c.data) {
		return 0, fmt.Errorf("ampl: truncated u32 at offset %d", c.pos)
	}
	v := binary.LittleEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *byteCursor) u64() (uint64, error) {
	if c.pos+8 > len(c.data) {
		return 0, fmt.Errorf("ampl: truncated u64 at offset %d", c.pos)
	}
	v := binary.LittleEndian.Uint64(c.data[c.pos:])
	c.pos += 8
	return v, nil
}

func (c *byteCursor) str() (string, error) {
	n, err := c.u32()
	if err != nil {
		return "", err
	}
	if c.pos+int(n) > len(c.data) {
		return "", fmt.Errorf("ampl: truncated string at offset %d", c.pos)
	}
	s := string(c.data[c.pos : c.pos+int(n)])
	c.pos += int(n)
	return s, nil
}

// internedStringMap is stringMap for tag values specifically: an AMPL
// playlist commonly repeats the same album/artist/genre value across many
// consecutive tracks. Values are run through internTagValue, which
// validates them as UTF-8 and returns a copy; repeats are not collapsed
// to one shared backing array.
func (c *byteCursor) internedStringMap() (map[string]string, error) {
	count, err := c.u32()
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, count)
	for i := uint32(0); i < count; i++ {
		k, err := c.str()
		if err != nil {
			return nil, err
		}
		v, err := c.str()
		if err != nil {
			return nil, err
		}
		m[k] = internTagValue(v)
	}
	return m, nil
}

func (c *byteCursor) stringMap() (map[string]string, error) {
	count, err := c.u32()
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, count)
	for i := uint32(0); i < count; i++ {
		k, err := c.str()
		if err != nil {
			return nil, err
		}
		v, err := c.str()
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

func parsePlaylistBody(body []byte) (*Playlist, error) {
	c := &byteCursor{data: body}
	count, err := c.u32()
	if err != nil {
		return nil, WrapError(ErrInvalidDataFormat, err, "ampl: track count")
	}

	tracks := make([]Track, 0, count)
	for i := uint32(0); i < count; i++ {
		var t Track
		if t.URI, err = c.str(); err != nil {
			return nil, WrapError(ErrInvalidDataFormat, err, "ampl: track %d uri", i)
		}
		if t.Tags, err = c.internedStringMap(); err != nil {
			return nil, WrapError(ErrInvalidDataFormat, err, "ampl: track %d tags", i)
		}
		if t.Properties, err = c.stringMap(); err != nil {
			return nil, WrapError(ErrInvalidDataFormat, err, "ampl: track %d properties", i)
		}
		if t.StartOffset, err = c.u64(); err != nil {
			return nil, WrapError(ErrInvalidDataFormat, err, "ampl: track %d start_offset", i)
		}
		if t.Length, err = c.u64(); err != nil {
			return nil, WrapError(ErrInvalidDataFormat, err, "ampl: track %d length", i)
		}
		var v uint32
		if v, err = c.u32(); err != nil {
			return nil, WrapError(ErrInvalidDataFormat, err, "ampl: track %d sample_rate", i)
		}
		t.SampleRate = v
		if v, err = c.u32(); err != nil {
			return nil, WrapError(ErrInvalidDataFormat, err, "ampl: track %d channel_layout", i)
		}
		t.ChannelLayout = v
		if v, err = c.u32(); err != nil {
			return nil, WrapError(ErrInvalidDataFormat, err, "ampl: track %d chapter", i)
		}
		t.Chapter = v

		tracks = append(tracks, t)
	}

	return &Playlist{Tracks: tracks}, nil
}

// Next advances Current according to Order and returns the resulting
// track, or false if the list is exhausted (OrderLinear only -- Random
// and Repeat never exhaust).
func (p *Playlist) Next(rand func(n int) int) (Track, bool) {
	if len(p.Tracks) == 0 {
		return Track{}, false
	}

	switch p.Order {
	case OrderRepeat:
		return p.Tracks[p.Current], true
	case OrderRandom:
		p.Current = rand(len(p.Tracks))
		return p.Tracks[p.Current], true
	default: // OrderLinear
		if p.Current+1 >= len(p.Tracks) {
			return Track{}, false
		}
		p.Current++
		return p.Tracks[p.Current], true
	}
}
