// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import "time"

// StreamInfo is the demuxer-reported shape of a single audio stream: its
// compressed format plus timing metadata needed to schedule decode and
// seek operations.
type StreamInfo struct {
	Format          CodecFormat
	TotalFrames     uint64
	DecoderDelay    uint32
	TrailingPadding uint32
	TrackIndex      int
	Language        string
}

// Duration reports the stream's playback length, derived from
// TotalFrames and the codec's sample rate. It returns 0 if SampleRate is
// unset (a malformed or not-yet-resolved format).
func (si *StreamInfo) Duration() time.Duration {
	if si.Format.SampleRate == 0 {
		return 0
	}
	return time.Duration(si.TotalFrames) * time.Second / time.Duration(si.Format.SampleRate)
}

// UsableFrames reports TotalFrames with decoder priming/trailing padding
// excluded, i.e. the frame count a listener actually hears.
func (si *StreamInfo) UsableFrames() uint64 {
	trim := uint64(si.DecoderDelay) + uint64(si.TrailingPadding)
	if trim >= si.TotalFrames {
		return 0
	}
	return si.TotalFrames - trim
}
