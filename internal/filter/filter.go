// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package filter implements the post-decode processing chain: channel
// mixing, resampling, and ReplayGain scaling, per spec §4.8. Filters
// operate in-place on interleaved float32 frames.
package filter

import "fmt"

// Format describes the PCM shape flowing between filters: sample rate,
// channel count, and layout bitmask. The bit positions mirror
// audiocore.ChFL..ChTBR exactly (FL, FR, FC, LFE, BL, BR, FLC, FRC, BC,
// SL, SR, TC, TFL, TFC, TFR, TBL, TBC, TBR) -- duplicated here rather
// than imported to keep this package import-cycle-free of the root
// facade, which itself depends on filter.
type Format struct {
	SampleRate    uint32
	Channels      uint32
	ChannelLayout uint32
}

const (
	ChFL uint32 = 1 << iota
	ChFR
	ChFC
	ChLFE
	ChBL
	ChBR
	ChFLC
	ChFRC
	ChBC
	ChSL
	ChSR
	ChTC
	ChTFL
	ChTFC
	ChTFR
	ChTBL
	ChTBC
	ChTBR
)

// Filter is one stage of the post-decode processing chain.
type Filter interface {
	// Calibrate validates in and returns the format this filter produces,
	// possibly mutating its internal state (e.g. a resampler storing its
	// target rate).
	Calibrate(in Format) (Format, error)

	// Process transforms frames and returns the result, either samples
	// modified in place or a newly allocated slice. samples is
	// interleaved Calibrate-input-channels wide.
	Process(samples []float32) ([]float32, error)

	// Drain appends any tail samples the filter owes on stream end
	// (e.g. a resampler's final partial output frame).
	Drain(samples []float32) ([]float32, error)

	// Flush discards internal state, called after a seek.
	Flush()

	// Latency reports frames still owed to downstream before output
	// catches up with input (e.g. resampler history).
	Latency() uint64
}

// Factory constructs a Filter instance by configuration id.
type Factory func() Filter

// SourceRateSetter is implemented by resamplers that need the upstream
// sample rate told to them separately from Calibrate's argument (which
// in the chain-build protocol carries the desired output format).
type SourceRateSetter interface {
	SetSourceRate(rate uint32)
}

// registry is the user-configured-filter-id -> constructor table that
// Build looks each configured id up in, in the order the ids are given,
// per spec §4.8's rebuild procedure.
var registry = map[string]Factory{}

// Register adds a named filter factory to the chain-building registry.
func Register(id string, factory Factory) { registry[id] = factory }

// Chain is an ordered, calibrated sequence of filters.
type Chain struct {
	filters []Filter
	sink    Format
}

// Build instantiates one filter per id in order, then chain-calibrates
// each through src, appending a channel mixer if the resulting layout
// differs from sink and a resampler if the rate differs, per spec
// §4.8's rebuild procedure. rg, if non-nil, is calibrated last
// against the track's tags.
func Build(ids []string, src, sink Format, resamplers []Factory, rg Filter) (*Chain, error) {
	c := &Chain{sink: sink}

	cur := src
	for _, id := range ids {
		factory, ok := registry[id]
		if !ok {
			return nil, fmt.Errorf("filter: unknown filter id %q", id)
		}
		f := factory()
		out, err := f.Calibrate(cur)
		if err != nil {
			return nil, fmt.Errorf("filter: calibrate %q: %w", id, err)
		}
		c.filters = append(c.filters, f)
		cur = out
	}

	if cur.ChannelLayout != sink.ChannelLayout && sink.ChannelLayout != 0 {
		mixer := NewChannelMixer(cur, sink)
		c.filters = append(c.filters, mixer)
		cur.Channels = sink.Channels
		cur.ChannelLayout = sink.ChannelLayout
	}

	if cur.SampleRate != sink.SampleRate && sink.SampleRate != 0 {
		var resampled bool
		for _, rf := range resamplers {
			r := rf()
			if sourced, ok := r.(SourceRateSetter); ok {
				sourced.SetSourceRate(cur.SampleRate)
			}
			out, err := r.Calibrate(Format{SampleRate: sink.SampleRate, Channels: cur.Channels, ChannelLayout: cur.ChannelLayout})
			if err != nil {
				continue
			}
			c.filters = append(c.filters, r)
			cur = out
			resampled = true
			break
		}
		if !resampled {
			return nil, fmt.Errorf("filter: no resampler accepts %d -> %d Hz", cur.SampleRate, sink.SampleRate)
		}
	}

	if rg != nil {
		if _, err := rg.Calibrate(cur); err != nil {
			return nil, fmt.Errorf("filter: calibrate replaygain: %w", err)
		}
		c.filters = append(c.filters, rg)
	}

	return c, nil
}

// Process runs samples through every filter stage in order.
func (c *Chain) Process(samples []float32) ([]float32, error) {
	var err error
	for _, f := range c.filters {
		samples, err = f.Process(samples)
		if err != nil {
			return nil, err
		}
	}
	return samples, nil
}

// Drain collects tail samples from every stage in order.
func (c *Chain) Drain() ([]float32, error) {
	var out []float32
	for _, f := range c.filters {
		tail, err := f.Drain(nil)
		if err != nil {
			return nil, err
		}
		out = append(out, tail...)
	}
	return out, nil
}

// Flush resets every stage, called after a seek.
func (c *Chain) Flush() {
	for _, f := range c.filters {
		f.Flush()
	}
}

// Latency sums every stage's owed frame count.
func (c *Chain) Latency() uint64 {
	var total uint64
	for _, f := range c.filters {
		total += f.Latency()
	}
	return total
}
