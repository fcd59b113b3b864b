// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

// Track is an immutable record describing one playable unit within a
// container: its location, tags, codec properties, and frame range. A
// single physical file may back several Tracks when split by cue points
// (see SplitAtOffsets).
type Track struct {
	URI           string
	Tags          map[string]string
	Properties    map[string]string
	StartOffset   uint64
	Length        uint64
	SampleRate    uint32
	ChannelLayout uint32
	Chapter       uint32
}

// clone returns a deep-enough copy so that callers mutating the maps of
// one split result can't affect another.
func (t Track) clone() Track {
	out := t
	out.Tags = make(map[string]string, len(t.Tags))
	for k, v := range t.Tags {
		out.Tags[k] = v
	}
	out.Properties = make(map[string]string, len(t.Properties))
	for k, v := range t.Properties {
		out.Properties[k] = v
	}
	return out
}

// SplitAtOffsets divides a single track spanning the full container into
// consecutive sub-tracks at the given frame offsets (each relative to
// t.StartOffset, strictly increasing). It implements the
// observable effect of a CUE sheet without parsing CUE text itself: the
// caller (an out-of-scope .cue parser) supplies the cut points, and this
// produces one Track per resulting segment, each inheriting the parent's
// tags/properties/sample rate/channel layout and chapter number, with a
// fresh, non-overlapping StartOffset/Length.
//
// offsets must be strictly increasing and all less than t.Length; an
// empty or nil offsets returns []Track{t} unchanged.
func (t Track) SplitAtOffsets(offsets []uint64) ([]Track, error) {
	if len(offsets) == 0 {
		return []Track{t}, nil
	}

	bounds := make([]uint64, 0, len(offsets)+2)
	bounds = append(bounds, t.StartOffset)
	prev := uint64(0)
	for i, off := range offsets {
		if i > 0 && off <= offsets[i-1] {
			return nil, NewError(ErrInvalidArgument, "cue offsets must be strictly increasing")
		}
		if off >= t.Length {
			return nil, NewError(ErrInvalidArgument, "cue offset %d exceeds track length %d", off, t.Length)
		}
		bounds = append(bounds, t.StartOffset+off)
		prev = off
	}
	_ = prev
	bounds = append(bounds, t.StartOffset+t.Length)

	out := make([]Track, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		seg := t.clone()
		seg.StartOffset = bounds[i]
		seg.Length = bounds[i+1] - bounds[i]
		out = append(out, seg)
	}
	return out, nil
}
