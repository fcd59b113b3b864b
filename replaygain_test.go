// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveReturnsUnityWhenModeNone(t *testing.T) {
	cfg := ReplayGainConfig{Mode: ReplayGainNone}
	v := cfg.Resolve(map[string]string{TagReplayGainTrackGain: "-6.00 dB"})
	assert.Equal(t, defaultReplayGain, v)
}

func TestResolveReadsTrackGain(t *testing.T) {
	cfg := ReplayGainConfig{Mode: ReplayGainTrack}
	tags := map[string]string{
		TagReplayGainTrackGain: "-6.50 dB",
		TagReplayGainTrackPeak: "0.98",
	}
	v := cfg.Resolve(tags)
	assert.InDelta(t, -6.5, v.GainDB, 1e-9)
	assert.InDelta(t, 0.98, v.Peak, 1e-9)
}

func TestResolveFallsBackToAlbumWhenTrackMissing(t *testing.T) {
	cfg := ReplayGainConfig{Mode: ReplayGainTrack}
	tags := map[string]string{TagReplayGainAlbumGain: "-3.2 dB"}
	v := cfg.Resolve(tags)
	assert.InDelta(t, -3.2, v.GainDB, 1e-9)
	assert.Equal(t, 1.0, v.Peak) // no peak tag present either direction
}

func TestResolveDefaultsWhenNoTagPresent(t *testing.T) {
	cfg := ReplayGainConfig{Mode: ReplayGainAlbum}
	assert.Equal(t, defaultReplayGain, cfg.Resolve(nil))
}

func TestScaleAppliesPreampAndClipsToPeak(t *testing.T) {
	cfg := ReplayGainConfig{Mode: ReplayGainTrack, Preamp: 0}
	v := ReplayGainValue{GainDB: 0, Peak: 1}
	assert.InDelta(t, 1.0, cfg.Scale(v), 1e-9)

	// A positive gain that would push scale*peak above 1 clips to 1/peak.
	loud := ReplayGainValue{GainDB: 12, Peak: 0.9}
	scale := cfg.Scale(loud)
	assert.InDelta(t, 1/0.9, scale, 1e-9)
}
