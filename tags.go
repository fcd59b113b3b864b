// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import (
	"strings"

	"github.com/kelindar/audiocore/internal/ustring"
)

// Canonical tag keys (spec §6.3).
const (
	TagArtist              = "artist"
	TagAlbum               = "album"
	TagAlbumArtist         = "album_artist"
	TagTitle               = "title"
	TagTrackNumber         = "track_number"
	TagTrackTotal          = "track_total"
	TagDiscNumber          = "disc_number"
	TagDiscTotal           = "disc_total"
	TagDate                = "date"
	TagGenre               = "genre"
	TagComposer            = "composer"
	TagComment             = "comment"
	TagEncodedBy           = "encoded_by"
	TagEncoder             = "encoder"
	TagCopyright           = "copyright"
	TagBPM                 = "bpm"
	TagISRC                = "isrc"
	TagReplayGainTrackGain = "replaygain_track_gain"
	TagReplayGainTrackPeak = "replaygain_track_peak"
	TagReplayGainAlbumGain = "replaygain_album_gain"
	TagReplayGainAlbumPeak = "replaygain_album_peak"
	TagCueSheet            = "cue_sheet"
	TagLyrics              = "lyrics"
)

// tagAliases maps case-insensitive, container-specific variants to their
// canonical key. Entries cover the common ID3v2, Vorbis comment, and MP4
// iTunes-atom spellings.
var tagAliases = map[string]string{
	"artist":          TagArtist,
	"tpe1":            TagArtist,
	"©art":            TagArtist,
	"albumartist":     TagAlbumArtist,
	"album artist":    TagAlbumArtist,
	"tpe2":            TagAlbumArtist,
	"aart":            TagAlbumArtist,
	"album":           TagAlbum,
	"talb":            TagAlbum,
	"©alb":            TagAlbum,
	"title":           TagTitle,
	"tit2":            TagTitle,
	"©nam":            TagTitle,
	"tracknumber":     TagTrackNumber,
	"track":           TagTrackNumber,
	"trck":            TagTrackNumber,
	"trkn":            TagTrackNumber,
	"tracktotal":      TagTrackTotal,
	"totaltracks":     TagTrackTotal,
	"discnumber":      TagDiscNumber,
	"disc":            TagDiscNumber,
	"tpos":            TagDiscNumber,
	"disk":            TagDiscNumber,
	"disctotal":       TagDiscTotal,
	"totaldiscs":      TagDiscTotal,
	"date":            TagDate,
	"year":            TagDate,
	"tyer":            TagDate,
	"tdrc":            TagDate,
	"©day":            TagDate,
	"genre":           TagGenre,
	"tcon":            TagGenre,
	"©gen":            TagGenre,
	"composer":        TagComposer,
	"tcom":            TagComposer,
	"©wrt":            TagComposer,
	"comment":         TagComment,
	"comm":            TagComment,
	"©cmt":            TagComment,
	"encodedby":       TagEncodedBy,
	"tenc":            TagEncodedBy,
	"©too":            TagEncoder,
	"encoder":         TagEncoder,
	"copyright":       TagCopyright,
	"tcop":            TagCopyright,
	"cprt":            TagCopyright,
	"bpm":             TagBPM,
	"tbpm":            TagBPM,
	"tmpo":            TagBPM,
	"isrc":            TagISRC,
	"tsrc":            TagISRC,
	"replaygain_track_gain": TagReplayGainTrackGain,
	"replaygain_track_peak": TagReplayGainTrackPeak,
	"replaygain_album_gain": TagReplayGainAlbumGain,
	"replaygain_album_peak": TagReplayGainAlbumPeak,
	"cuesheet":   TagCueSheet,
	"cue_sheet":  TagCueSheet,
	"lyrics":     TagLyrics,
	"uslt":       TagLyrics,
	"©lyr":       TagLyrics,
}

// musicBrainzPrefix is treated as a wildcard family: any input key with
// this prefix (case-insensitive) passes through lowercased rather than
// requiring an individual alias entry.
const musicBrainzPrefix = "musicbrainz_"

// CanonicalTagKey normalizes a container-specific tag key (ID3v2 frame
// id, Vorbis comment name, or MP4 atom name) to the fixed vocabulary in
// spec §6.3. Keys it doesn't recognize are lowercased and returned
// as-is, so unknown-but-present metadata survives round-tripping.
func CanonicalTagKey(key string) string {
	lower := strings.ToLower(strings.TrimSpace(key))
	if strings.HasPrefix(lower, musicBrainzPrefix) {
		return lower
	}
	if canon, ok := tagAliases[lower]; ok {
		return canon
	}
	return lower
}

// NormalizeTags rewrites every key of src through CanonicalTagKey,
// returning a fresh map. When several keys normalize to the same
// canonical key only one of their values is kept, and which one depends
// on map iteration order. Values pass through internTagValue, so each is
// returned as a validated copy that shares no storage with other values.
func NormalizeTags(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[CanonicalTagKey(k)] = internTagValue(v)
	}
	return out
}

// internTagValue promotes v into the intern table (which checks it is
// valid UTF-8) and returns a copy of its content, or v unchanged if
// promotion fails. The caller only needs the Go string, not a long-lived
// handle, so the interned representative is released immediately after.
func internTagValue(v string) string {
	bld := ustring.NewBuilder()
	bld.WriteString(v)
	s, err := bld.Promote()
	if err != nil {
		return v
	}
	canon := ustring.Intern(s)
	out := canon.String()
	canon.Release()
	return out
}
