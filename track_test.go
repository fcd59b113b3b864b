// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAtOffsetsNoOffsetsReturnsSingleTrack(t *testing.T) {
	track := Track{URI: "album.wav", Length: 1000}
	out, err := track.SplitAtOffsets(nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, track, out[0])
}

func TestSplitAtOffsetsProducesContiguousSegments(t *testing.T) {
	track := Track{
		URI:         "album.wav",
		StartOffset: 0,
		Length:      300,
		Tags:        map[string]string{TagAlbum: "Compilation"},
	}
	out, err := track.SplitAtOffsets([]uint64{100, 200})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, uint64(0), out[0].StartOffset)
	assert.Equal(t, uint64(100), out[0].Length)
	assert.Equal(t, uint64(100), out[1].StartOffset)
	assert.Equal(t, uint64(100), out[1].Length)
	assert.Equal(t, uint64(200), out[2].StartOffset)
	assert.Equal(t, uint64(100), out[2].Length)

	for _, seg := range out {
		assert.Equal(t, "Compilation", seg.Tags[TagAlbum])
	}

	// clone independence: mutating one segment's tags must not affect another.
	out[0].Tags[TagAlbum] = "Mutated"
	assert.Equal(t, "Compilation", out[1].Tags[TagAlbum])
}

func TestSplitAtOffsetsRejectsNonIncreasingOffsets(t *testing.T) {
	track := Track{Length: 300}
	_, err := track.SplitAtOffsets([]uint64{100, 100})
	require.Error(t, err)
	assert.Equal(t, ErrInvalidArgument, KindOf(err))
}

func TestSplitAtOffsetsRejectsOffsetAtOrBeyondLength(t *testing.T) {
	track := Track{Length: 300}
	_, err := track.SplitAtOffsets([]uint64{300})
	require.Error(t, err)
}
