// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "none", cfg.ReplayGainMode)
	assert.Equal(t, 500*time.Millisecond, cfg.RingBufferTime)
}

func TestSaveAndLoadConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audiocore.yaml")

	cfg := EngineConfig{
		OutputSessionID: "wasapi",
		DeviceID:        "default",
		FilterPreset:    []string{"replaygain", "resample"},
		ReplayGainMode:  "album",
		ReplayGainPream: 3.5,
		RingBufferTime:  750 * time.Millisecond,
	}
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ErrFileNotFound, KindOf(err))
}

func TestReplayGainResolvesMode(t *testing.T) {
	cfg := EngineConfig{ReplayGainMode: "track", ReplayGainPream: 2}
	rg, err := cfg.ReplayGain()
	require.NoError(t, err)
	assert.Equal(t, ReplayGainTrack, rg.Mode)
	assert.Equal(t, 2.0, rg.Preamp)
}

func TestReplayGainRejectsUnknownMode(t *testing.T) {
	cfg := EngineConfig{ReplayGainMode: "loudest"}
	_, err := cfg.ReplayGain()
	require.Error(t, err)
	assert.Equal(t, ErrInvalidArgument, KindOf(err))
}
