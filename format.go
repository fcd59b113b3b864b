// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import "math/bits"

// CodecID identifies a compressed audio codec. The numeric values are
// stable across releases since they're used as registry keys and may be
// persisted (e.g. in a track's cached properties).
type CodecID uint32

const (
	CodecUnknown CodecID = iota
	CodecLPCM
	CodecALaw
	CodecULaw
	CodecAACLC
	CodecHEAACv1
	CodecHEAACv2
	CodecAACLTP
	CodecAACLD
	CodecAACELD
	CodecAACELDSBR
	CodecAACMain
	CodecAACSSR
	CodecAACScalable
	CodecMP1
	CodecMP2
	CodecMP3
	CodecFLAC
	CodecALAC
	CodecAC3
	CodecEAC3
	CodecDTS
	CodecDTSHD
	CodecDTSExpress
	CodecWMAv1
	CodecWMAv2
	CodecWMAPro
	CodecWMALossless
	CodecWMAVoice
	CodecOpus
	CodecVorbis
	CodecATRAC3
	CodecATRAC3Plus
	CodecRealAudio144
	CodecRealAudio288
	CodecRealAudioCook
	CodecRealAudioRALF
	CodecRealAudioSipr
	CodecRealAudioAtrc
	CodecADPCMIMA
	CodecADPCMMS
	CodecG722
	CodecG726
	CodecG723_1
	CodecAMRNB
	CodecAMRWB
	CodecAMRWBPlus
	CodecQCELP
	CodecQDesign1
	CodecQDesign2
	CodecMACE
	CodecALS
)

var codecNames = map[CodecID]string{
	CodecUnknown:       "unknown",
	CodecLPCM:          "lpcm",
	CodecALaw:          "alaw",
	CodecULaw:          "ulaw",
	CodecAACLC:         "aac_lc",
	CodecHEAACv1:       "he_aac_v1",
	CodecHEAACv2:       "he_aac_v2",
	CodecAACLTP:        "aac_ltp",
	CodecAACLD:         "aac_ld",
	CodecAACELD:        "aac_eld",
	CodecAACELDSBR:     "aac_eld_sbr",
	CodecAACMain:       "aac_main",
	CodecAACSSR:        "aac_ssr",
	CodecAACScalable:   "aac_scalable",
	CodecMP1:           "mpeg_layer1",
	CodecMP2:           "mpeg_layer2",
	CodecMP3:           "mpeg_layer3",
	CodecFLAC:          "flac",
	CodecALAC:          "alac",
	CodecAC3:           "ac3",
	CodecEAC3:          "eac3",
	CodecDTS:           "dts",
	CodecDTSHD:         "dts_hd",
	CodecDTSExpress:    "dts_express",
	CodecWMAv1:         "wmav1",
	CodecWMAv2:         "wmav2",
	CodecWMAPro:        "wma_pro",
	CodecWMALossless:   "wma_lossless",
	CodecWMAVoice:      "wma_voice",
	CodecOpus:          "opus",
	CodecVorbis:        "vorbis",
	CodecATRAC3:        "atrac3",
	CodecATRAC3Plus:    "atrac3plus",
	CodecRealAudio144:  "ra_14_4",
	CodecRealAudio288:  "ra_28_8",
	CodecRealAudioCook: "ra_cook",
	CodecRealAudioRALF: "ra_lossless",
	CodecRealAudioSipr: "ra_sipr",
	CodecRealAudioAtrc: "ra_atrac3",
	CodecADPCMIMA:      "adpcm_ima",
	CodecADPCMMS:       "adpcm_ms",
	CodecG722:          "g722",
	CodecG726:          "g726",
	CodecG723_1:        "g723_1",
	CodecAMRNB:         "amr_nb",
	CodecAMRWB:         "amr_wb",
	CodecAMRWBPlus:     "amr_wb_plus",
	CodecQCELP:         "qcelp",
	CodecQDesign1:      "qdesign1",
	CodecQDesign2:      "qdesign2",
	CodecMACE:          "mace",
	CodecALS:           "als",
}

func (c CodecID) String() string {
	if name, ok := codecNames[c]; ok {
		return name
	}
	return "unknown"
}

// Channel layout bit positions: the 18 canonical speaker positions, in the
// spec's declared order.
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

const MaxChannels = 18

// Common layouts.
const (
	LayoutMono    = ChFC
	LayoutStereo  = ChFL | ChFR
	Layout5Point1 = ChFL | ChFR | ChFC | ChLFE | ChBL | ChBR
	Layout7Point1 = ChFL | ChFR | ChFC | ChLFE | ChBL | ChBR | ChSL | ChSR
)

// SampleFlags describes the wire layout of LPCM samples, shared between
// CodecFormat and pcm.Spec.
type SampleFlags uint32

const (
	FlagSignedInt SampleFlags = 1 << iota
	FlagIEEEFloat
	FlagBigEndian
	FlagNonInterleaved
	FlagAlignedHigh
)

// CodecFormat describes a compressed (or LPCM) audio stream.
type CodecFormat struct {
	CodecID         CodecID
	SampleRate      uint32
	Channels        uint32
	ChannelLayout   uint32
	BitsPerSample   uint32
	BytesPerPacket  uint32
	FramesPerPacket uint32
	BitRate         uint32
	Flags           SampleFlags
	Extra           []byte
}

// Validate checks the invariants from spec §3.1.
func (f *CodecFormat) Validate() error {
	if f.SampleRate == 0 {
		return NewError(ErrInvalidArgument, "sample_rate must be > 0")
	}
	if f.Channels == 0 || f.Channels > 8 {
		return NewError(ErrInvalidArgument, "channels must be in [1,8], got %d", f.Channels)
	}
	if f.ChannelLayout != 0 && uint32(bits.OnesCount32(f.ChannelLayout)) != f.Channels {
		return NewError(ErrInvalidArgument, "channel_layout popcount must equal channels")
	}
	if f.CodecID == CodecLPCM && f.BitsPerSample > 0 {
		if f.BytesPerPacket*8/f.Channels < f.BitsPerSample {
			return NewError(ErrInvalidArgument, "bits_per_sample exceeds bytes_per_packet capacity")
		}
	}
	return nil
}
