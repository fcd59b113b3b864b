// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaylistMarshalUnmarshalRoundTrip(t *testing.T) {
	p := &Playlist{
		Tracks: []Track{
			{
				URI:           "track1.flac",
				Tags:          map[string]string{TagArtist: "Boards of Canada", TagAlbum: "Geogaddi"},
				Properties:    map[string]string{"bit_depth": "16"},
				StartOffset:   0,
				Length:        44100 * 180,
				SampleRate:    44100,
				ChannelLayout: LayoutStereo,
				Chapter:       0,
			},
			{
				URI:        "track2.flac",
				Tags:       map[string]string{TagArtist: "Boards of Canada", TagAlbum: "Geogaddi"},
				SampleRate: 44100,
			},
		},
	}

	data, err := p.Marshal()
	require.NoError(t, err)

	out, err := UnmarshalPlaylist(data)
	require.NoError(t, err)
	require.Len(t, out.Tracks, 2)
	assert.Equal(t, p.Tracks[0].URI, out.Tracks[0].URI)
	assert.Equal(t, p.Tracks[0].Tags[TagArtist], out.Tracks[0].Tags[TagArtist])
	assert.Equal(t, p.Tracks[0].Length, out.Tracks[0].Length)
	assert.Equal(t, p.Tracks[1].Tags[TagAlbum], out.Tracks[1].Tags[TagAlbum])
}

func TestUnmarshalPlaylistRejectsBadMagic(t *testing.T) {
	_, err := UnmarshalPlaylist([]byte("not-ampl-data-------"))
	require.Error(t, err)
	assert.Equal(t, ErrInvalidDataFormat, KindOf(err))
}

func TestUnmarshalPlaylistRejectsTruncatedHeader(t *testing.T) {
	_, err := UnmarshalPlaylist([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestNextLinearAdvancesAndExhausts(t *testing.T) {
	p := &Playlist{Tracks: []Track{{URI: "a"}, {URI: "b"}}, Order: OrderLinear}
	tr, ok := p.Next(nil)
	require.True(t, ok)
	assert.Equal(t, "b", tr.URI)

	_, ok = p.Next(nil)
	assert.False(t, ok)
}

func TestNextRepeatReturnsSameTrack(t *testing.T) {
	p := &Playlist{Tracks: []Track{{URI: "a"}, {URI: "b"}}, Order: OrderRepeat, Current: 1}
	tr, ok := p.Next(nil)
	require.True(t, ok)
	assert.Equal(t, "b", tr.URI)
}

func TestNextRandomUsesProvidedPicker(t *testing.T) {
	p := &Playlist{Tracks: []Track{{URI: "a"}, {URI: "b"}, {URI: "c"}}, Order: OrderRandom}
	tr, ok := p.Next(func(n int) int { return 2 })
	require.True(t, ok)
	assert.Equal(t, "c", tr.URI)
	assert.Equal(t, 2, p.Current)
}

func TestNextOnEmptyPlaylist(t *testing.T) {
	p := &Playlist{Order: OrderLinear}
	_, ok := p.Next(nil)
	assert.False(t, ok)
}

func TestPlaylistIndexMarshalUnmarshalRoundTrip(t *testing.T) {
	idx := &PlaylistIndex{
		Entries: []PlaylistIndexEntry{
			{UID: 1, Pos: 0, Name: "Favorites"},
			{UID: 2, Pos: 1, Name: "Recently Added"},
		},
		Selection: 1,
	}
	data := idx.Marshal()

	out, err := UnmarshalPlaylistIndex(data)
	require.NoError(t, err)
	assert.Equal(t, idx.Selection, out.Selection)
	require.Len(t, out.Entries, 2)
	assert.Equal(t, idx.Entries[1].Name, out.Entries[1].Name)
}
