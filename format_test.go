// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecIDStringKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "aac_lc", CodecAACLC.String())
	assert.Equal(t, "unknown", CodecID(9999).String())
}

func TestValidateRejectsZeroSampleRate(t *testing.T) {
	f := CodecFormat{SampleRate: 0, Channels: 2}
	require.Error(t, f.Validate())
	assert.Equal(t, ErrInvalidArgument, KindOf(f.Validate()))
}

func TestValidateRejectsOutOfRangeChannels(t *testing.T) {
	f := CodecFormat{SampleRate: 44100, Channels: 0}
	assert.Error(t, f.Validate())

	f.Channels = 9
	assert.Error(t, f.Validate())
}

func TestValidateRejectsMismatchedChannelLayoutPopcount(t *testing.T) {
	f := CodecFormat{SampleRate: 44100, Channels: 2, ChannelLayout: LayoutMono}
	assert.Error(t, f.Validate())

	f.ChannelLayout = LayoutStereo
	assert.NoError(t, f.Validate())
}

func TestValidateRejectsLPCMCapacityShortfall(t *testing.T) {
	f := CodecFormat{
		CodecID:        CodecLPCM,
		SampleRate:     44100,
		Channels:       2,
		BitsPerSample:  16,
		BytesPerPacket: 2, // 1 byte/channel: can't hold 16 bits
	}
	assert.Error(t, f.Validate())

	f.BytesPerPacket = 4
	assert.NoError(t, f.Validate())
}
