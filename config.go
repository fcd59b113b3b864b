// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EngineConfig is the YAML-serializable record an embedding application
// writes to configure the engine: which output device to render to,
// which filters to apply in what order, ReplayGain mode, and how much
// the ring buffer should hold. audiocore only reads and applies this
// file; producing it is left to the (out-of-scope) GUI shell.
type EngineConfig struct {
	OutputSessionID string        `yaml:"output_session_id"`
	DeviceID        string        `yaml:"device_id"`
	FilterPreset    []string      `yaml:"filter_preset"`
	ReplayGainMode  string        `yaml:"replaygain_mode"` // "none" | "track" | "album"
	ReplayGainPream float64       `yaml:"replaygain_preamp_db"`
	RingBufferTime  time.Duration `yaml:"ring_buffer_duration"`
}

// DefaultConfig returns the configuration the engine falls back to when
// no audiocore.yaml is present.
func DefaultConfig() EngineConfig {
	return EngineConfig{
		ReplayGainMode: "none",
		RingBufferTime: 500 * time.Millisecond,
	}
}

// LoadConfig reads and parses path as YAML into an EngineConfig,
// grounded on the same gopkg.in/yaml.v3 dependency the pack's
// game/level-data config loader uses.
func LoadConfig(path string) (EngineConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, WrapError(ErrFileNotFound, err, "config: %s not found", path)
		}
		return cfg, WrapError(ErrReadFault, err, "config: reading %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, WrapError(ErrInvalidDataFormat, err, "config: parsing %s", path)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func (cfg EngineConfig) Save(path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return WrapError(ErrUnexpected, err, "config: marshaling")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return WrapError(ErrWriteFault, err, "config: writing %s", path)
	}
	return nil
}

// ReplayGain resolves the configured mode string into a ReplayGainConfig.
func (cfg EngineConfig) ReplayGain() (ReplayGainConfig, error) {
	var mode ReplayGainMode
	switch cfg.ReplayGainMode {
	case "", "none":
		mode = ReplayGainNone
	case "track":
		mode = ReplayGainTrack
	case "album":
		mode = ReplayGainAlbum
	default:
		return ReplayGainConfig{}, NewError(ErrInvalidArgument, "config: unknown replaygain_mode %q", cfg.ReplayGainMode)
	}
	return ReplayGainConfig{Mode: mode, Preamp: cfg.ReplayGainPream}, nil
}
