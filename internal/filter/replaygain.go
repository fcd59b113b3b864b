// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package filter

// ReplayGainScaler applies a precomputed linear scale to every sample,
// clamping to [-1, +1] per spec §4.8. Its scale/peak are supplied by the
// caller (audiocore.ReplayGainConfig.Resolve + Scale) rather than
// computed here, since tag lookup belongs to the root package's data
// model, not this package.
type ReplayGainScaler struct {
	scale float32
}

// NewReplayGainScaler builds a scaler with a fixed linear multiplier.
func NewReplayGainScaler(scale float32) *ReplayGainScaler {
	return &ReplayGainScaler{scale: scale}
}

func (g *ReplayGainScaler) Calibrate(in Format) (Format, error) { return in, nil }

func (g *ReplayGainScaler) Process(samples []float32) ([]float32, error) {
	for i, v := range samples {
		v *= g.scale
		switch {
		case v > 1:
			v = 1
		case v < -1:
			v = -1
		}
		samples[i] = v
	}
	return samples, nil
}

func (g *ReplayGainScaler) Drain(samples []float32) ([]float32, error) { return samples, nil }
func (g *ReplayGainScaler) Flush()                                     {}
func (g *ReplayGainScaler) Latency() uint64                            { return 0 }
