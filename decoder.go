// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

// DecodeStatus reports the outcome of a Decoder.Recv call.
type DecodeStatus int

const (
	// DecodeOK means packet was filled with frames×channels interleaved
	// f32 samples.
	DecodeOK DecodeStatus = iota
	// DecodeNeedMore means the decoder has no buffered output left;
	// Send must be called again before the next Recv.
	DecodeNeedMore
)

// Decoder turns compressed AudioPacket data into interleaved f32 PCM.
// Implementations are created from a resolved CodecFormat via the
// Registry, never directly.
type Decoder interface {
	// Send hands a compressed packet to the decoder. The decoder may
	// retain or consume p as needed; callers must not reuse p afterward.
	Send(p *AudioPacket) error

	// Recv requests the next batch of PCM frames, writing interleaved
	// f32 samples into out (sized to at least frames×channels). It
	// returns the number of frames actually written and the status.
	Recv(out []float32) (frames int, status DecodeStatus, err error)

	// Flush discards any buffered decoder state, called after a seek.
	Flush()

	// GetDecoderDelay reports the constant number of frames this
	// decoder absorbs before producing aligned output (e.g. one full
	// frames_per_packet of SBR priming for HE-AAC).
	GetDecoderDelay() uint32
}
