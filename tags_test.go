// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalTagKeyMapsKnownAliases(t *testing.T) {
	assert.Equal(t, TagArtist, CanonicalTagKey("TPE1"))
	assert.Equal(t, TagArtist, CanonicalTagKey("©ART"))
	assert.Equal(t, TagAlbumArtist, CanonicalTagKey("Album Artist"))
	assert.Equal(t, TagTrackNumber, CanonicalTagKey("TRCK"))
}

func TestCanonicalTagKeyPassesThroughMusicBrainzPrefix(t *testing.T) {
	assert.Equal(t, "musicbrainz_trackid", CanonicalTagKey("MusicBrainz_TrackId"))
}

func TestCanonicalTagKeyLowersUnknownKeys(t *testing.T) {
	assert.Equal(t, "x-custom-field", CanonicalTagKey("X-Custom-Field"))
}

func TestNormalizeTagsRewritesKeysAndPreservesValues(t *testing.T) {
	src := map[string]string{
		"TPE1": "Boards of Canada",
		"TALB": "Music Has the Right to Children",
	}
	out := NormalizeTags(src)
	assert.Equal(t, "Boards of Canada", out[TagArtist])
	assert.Equal(t, "Music Has the Right to Children", out[TagAlbum])
}

func TestNormalizeTagsCollapsesDuplicateKeys(t *testing.T) {
	src := map[string]string{
		"artist": "first",
		"TPE1":   "second",
	}
	out := NormalizeTags(src)
	_, hasOnlyOne := out[TagArtist]
	assert.True(t, hasOnlyOne)
	assert.Len(t, out, 1)
}
