// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package adpcm implements audiocore.Decoder for IMA4 (QuickTime variant)
// ADPCM, the codec the MP4 demuxer's legacy fixed-compression FOURCC
// table wires the "ima4" tag to.
package adpcm

import "github.com/kelindar/audiocore"

func init() {
	audiocore.DefaultRegistry.RegisterDecoder(audiocore.CodecADPCMIMA, New)
}

const (
	packetBytes    = 34 // one IMA4 packet per channel, per QuickTime's framing
	samplesPerPkt  = 64
	headerBytes    = 2
)

var indexTable = [16]int{-1, -1, -1, -1, 2, 4, 6, 8, -1, -1, -1, -1, 2, 4, 6, 8}

var stepTable = [89]int{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17,
	19, 21, 23, 25, 28, 31, 34, 37, 41, 45,
	50, 55, 60, 66, 73, 80, 88, 97, 107, 118,
	130, 143, 157, 173, 190, 209, 230, 253, 279, 307,
	337, 371, 408, 449, 494, 544, 598, 658, 724, 796,
	876, 963, 1060, 1166, 1282, 1411, 1552, 1707, 1878, 2066,
	2272, 2499, 2749, 3024, 3327, 3660, 4026, 4428, 4871, 5358,
	5894, 6484, 7132, 7845, 8630, 9493, 10442, 11487, 12635, 13899,
	15289, 16818, 18500, 20350, 22385, 24623, 27086, 29794, 32767,
}

// channelState tracks one channel's predictor/step-index pair across
// packets, per the standard IMA ADPCM decode recurrence.
type channelState struct {
	predictor int
	index     int
}

// Decoder decodes fixed-size IMA4 packets (one per channel per 64
// samples) into interleaved f32.
type Decoder struct {
	channels int
	states   []channelState
	pending  []float32
}

// New constructs a Decoder for format's channel count.
func New(format audiocore.CodecFormat) (audiocore.Decoder, error) {
	channels := int(format.Channels)
	if channels == 0 {
		channels = 1
	}
	return &Decoder{channels: channels, states: make([]channelState, channels)}, nil
}

// Send decodes one or more per-channel IMA4 packets from p and appends
// the resulting interleaved samples to the pending buffer.
func (d *Decoder) Send(p *audiocore.AudioPacket) error {
	data := p.Data
	stride := packetBytes * d.channels
	for len(data) >= stride {
		frame := make([][]float32, d.channels)
		for ch := 0; ch < d.channels; ch++ {
			pkt := data[ch*packetBytes : (ch+1)*packetBytes]
			frame[ch] = d.decodePacket(ch, pkt)
		}
		d.interleave(frame)
		data = data[stride:]
	}
	return nil
}

func (d *Decoder) interleave(frame [][]float32) {
	n := len(frame[0])
	base := len(d.pending)
	d.pending = append(d.pending, make([]float32, n*d.channels)...)
	for ch := range frame {
		for i, v := range frame[ch] {
			d.pending[base+i*d.channels+ch] = v
		}
	}
}

// decodePacket expands one 34-byte IMA4 packet (2-byte header + 32 bytes
// of nibble-packed deltas) into 64 f32 samples.
func (d *Decoder) decodePacket(ch int, pkt []byte) []float32 {
	st := &d.states[ch]

	header := uint16(pkt[0])<<8 | uint16(pkt[1])
	st.predictor = int(int16(header & 0xFF80))
	st.index = int(header & 0x7F)
	if st.index > 88 {
		st.index = 88
	}

	out := make([]float32, samplesPerPkt)
	for i := 0; i < samplesPerPkt/2; i++ {
		b := pkt[headerBytes+i]
		out[i*2] = decodeNibble(st, b&0x0F)
		out[i*2+1] = decodeNibble(st, b>>4)
	}
	return out
}

// decodeNibble applies one 4-bit ADPCM delta to st, returning the
// resulting sample scaled to [-1,1].
func decodeNibble(st *channelState, nibble byte) float32 {
	step := stepTable[st.index]

	diff := step >> 3
	if nibble&1 != 0 {
		diff += step >> 2
	}
	if nibble&2 != 0 {
		diff += step >> 1
	}
	if nibble&4 != 0 {
		diff += step
	}
	if nibble&8 != 0 {
		diff = -diff
	}

	st.predictor += diff
	switch {
	case st.predictor > 32767:
		st.predictor = 32767
	case st.predictor < -32768:
		st.predictor = -32768
	}

	st.index += indexTable[nibble]
	switch {
	case st.index < 0:
		st.index = 0
	case st.index > 88:
		st.index = 88
	}

	return float32(st.predictor) / 32768.0
}

// Recv drains as many decoded samples as fit in out.
func (d *Decoder) Recv(out []float32) (int, audiocore.DecodeStatus, error) {
	if len(d.pending) == 0 {
		return 0, audiocore.DecodeNeedMore, nil
	}
	n := copy(out, d.pending)
	frames := n / d.channels
	consumed := frames * d.channels
	d.pending = d.pending[consumed:]
	return frames, audiocore.DecodeOK, nil
}

// Flush discards buffered decoded samples and per-channel predictor
// state, since a seek invalidates the ADPCM recurrence.
func (d *Decoder) Flush() {
	d.pending = d.pending[:0]
	for i := range d.states {
		d.states[i] = channelState{}
	}
}

// GetDecoderDelay reports zero: IMA4 has no priming samples.
func (d *Decoder) GetDecoderDelay() uint32 { return 0 }
