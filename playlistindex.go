// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import (
	"bytes"
	"encoding/binary"
)

// PlaylistIndexEntry names one playlist file (by uid) at a given
// position in the library's playlist ordering.
type PlaylistIndexEntry struct {
	UID  uint32
	Pos  uint32
	Name string
}

// PlaylistIndex is the deserialized form of index.dat: the set of
// playlists known to the library, plus which one is currently selected.
type PlaylistIndex struct {
	Entries   []PlaylistIndexEntry
	Selection uint32
}

// Marshal serializes the index per spec §6.2: u32 entry_count, u32
// selection, then per entry u32 uid, u32 pos, u32 name_len, name_bytes.
func (idx *PlaylistIndex) Marshal() []byte {
	var buf bytes.Buffer
	var u32 [4]byte

	binary.LittleEndian.PutUint32(u32[:], uint32(len(idx.Entries)))
	buf.Write(u32[:])
	binary.LittleEndian.PutUint32(u32[:], idx.Selection)
	buf.Write(u32[:])

	for _, e := range idx.Entries {
		binary.LittleEndian.PutUint32(u32[:], e.UID)
		buf.Write(u32[:])
		binary.LittleEndian.PutUint32(u32[:], e.Pos)
		buf.Write(u32[:])
		binary.LittleEndian.PutUint32(u32[:], uint32(len(e.Name)))
		buf.Write(u32[:])
		buf.WriteString(e.Name)
	}

	return buf.Bytes()
}

// UnmarshalPlaylistIndex parses the wire format produced by Marshal.
func UnmarshalPlaylistIndex(data []byte) (*PlaylistIndex, error) {
	c := &byteCursor{data: data}

	count, err := c.u32()
	if err != nil {
		return nil, WrapError(ErrInvalidDataFormat, err, "index: entry_count")
	}
	selection, err := c.u32()
	if err != nil {
		return nil, WrapError(ErrInvalidDataFormat, err, "index: selection")
	}

	entries := make([]PlaylistIndexEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		uid, err := c.u32()
		if err != nil {
			return nil, WrapError(ErrInvalidDataFormat, err, "index: entry %d uid", i)
		}
		pos, err := c.u32()
		if err != nil {
			return nil, WrapError(ErrInvalidDataFormat, err, "index: entry %d pos", i)
		}
		name, err := c.str()
		if err != nil {
			return nil, WrapError(ErrInvalidDataFormat, err, "index: entry %d name", i)
		}
		entries = append(entries, PlaylistIndexEntry{UID: uid, Pos: pos, Name: name})
	}

	return &PlaylistIndex{Entries: entries, Selection: selection}, nil
}
