// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

// AudioPacket is a single unit of compressed (or raw) data handed from a
// Demuxer to a Decoder, or from a Decoder to the filter chain.
type AudioPacket struct {
	Data            []byte
	PresentationPTS int64
	DecodingPTS     int64
	Duration        uint32
	FrameCount      uint32
	KeyFrame        bool
	Discontinuity   bool
}

// Reset clears the packet for reuse in a pool, keeping the backing array.
func (p *AudioPacket) Reset() {
	p.Data = p.Data[:0]
	p.PresentationPTS = 0
	p.DecodingPTS = 0
	p.Duration = 0
	p.FrameCount = 0
	p.KeyFrame = false
	p.Discontinuity = false
}

// Len reports the number of bytes carried by the packet.
func (p *AudioPacket) Len() int { return len(p.Data) }
