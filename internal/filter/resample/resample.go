// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package resample implements the linear-interpolation resampler that
// spec §4.8 requires at least one real entry in the resampler factory
// list for. There is no DSP/resampling library in the retrieval pack to
// ground a fancier (windowed-sinc, polyphase) implementation on; the
// scalar conversion style here follows the teacher's own loop-based
// internal/bitmap pixel-format conversion code (see DESIGN.md).
package resample

import "github.com/kelindar/audiocore/internal/filter"

// Linear is a per-channel linear-interpolation sample-rate converter.
// It keeps one trailing input frame per channel across Process calls so
// interpolation is continuous at call boundaries.
type Linear struct {
	srcRate  uint32
	dstRate  uint32
	channels int

	// position is the fractional read cursor into the (virtual) stream
	// of input frames, in source-frame units.
	position float64
	history  []float32 // last input frame, one sample per channel
	primed   bool
}

// NewLinear returns an uncalibrated resampler; Calibrate sets its rates.
func NewLinear() *Linear { return &Linear{} }

func (r *Linear) Calibrate(in filter.Format) (filter.Format, error) {
	r.dstRate = in.SampleRate
	r.channels = int(in.Channels)
	r.history = make([]float32, r.channels)
	return in, nil
}

// SetSourceRate is called by the chain builder with the upstream rate,
// since Calibrate's argument in the chain-build protocol instead carries
// the sink format this resampler must produce (see filter.Build).
func (r *Linear) SetSourceRate(rate uint32) { r.srcRate = rate }

func (r *Linear) Process(samples []float32) ([]float32, error) {
	if r.channels == 0 || r.srcRate == 0 || r.srcRate == r.dstRate {
		return samples, nil
	}

	ratio := float64(r.srcRate) / float64(r.dstRate)
	srcFrames := len(samples) / r.channels

	// Build a virtual frame sequence: index -1 is r.history, 0..srcFrames-1
	// are samples.
	frameAt := func(idx int, ch int) float32 {
		if idx < 0 {
			return r.history[ch]
		}
		return samples[idx*r.channels+ch]
	}

	var out []float32
	for r.position < float64(srcFrames) {
		idx := int(r.position)
		frac := float32(r.position - float64(idx))
		for ch := 0; ch < r.channels; ch++ {
			a := frameAt(idx-1, ch)
			b := frameAt(idx, ch)
			out = append(out, a+(b-a)*frac)
		}
		r.position += ratio
	}
	r.position -= float64(srcFrames)

	if srcFrames > 0 {
		for ch := 0; ch < r.channels; ch++ {
			r.history[ch] = samples[(srcFrames-1)*r.channels+ch]
		}
		r.primed = true
	}

	return out, nil
}

func (r *Linear) Drain(samples []float32) ([]float32, error) { return samples, nil }

func (r *Linear) Flush() {
	r.position = 0
	r.primed = false
	for i := range r.history {
		r.history[i] = 0
	}
}

func (r *Linear) Latency() uint64 {
	if !r.primed {
		return 0
	}
	return 1
}
