// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

//go:build audiocore_aac

package external

import (
	"github.com/llehouerou/go-aac"

	"github.com/kelindar/audiocore"
)

func init() {
	audiocore.DefaultRegistry.RegisterDecoder(audiocore.CodecAACLC, newAACDecoder)
	audiocore.DefaultRegistry.RegisterDecoder(audiocore.CodecHEAACv1, newAACDecoder)
	audiocore.DefaultRegistry.RegisterDecoder(audiocore.CodecHEAACv2, newAACDecoder)
}

// newAACDecoder wraps an aac.Decoder's push-style Decode into the
// audiocore.Decoder pull loop via the generic adapter in external.go. SBR/PS
// priming delay is one full frame (FrameLength), matching
// GetDecoderDelay's documented meaning for HE-AAC v1/v2.
func newAACDecoder(format audiocore.CodecFormat) (audiocore.Decoder, error) {
	dec := aac.NewDecoder()

	delay := format.FramesPerPacket
	if delay == 0 {
		delay = 1024
	}

	decodeFn := func(frame []byte) ([]float32, error) {
		samples, _, err := dec.Decode(frame)
		if err != nil {
			return nil, err
		}
		return toF32(samples, int(format.Channels))
	}

	return New(decodeFn, delay), nil
}

// toF32 normalizes aac.Decoder's interface{} sample buffer (int16 or
// float32 depending on Config.OutputFormat) into interleaved f32.
func toF32(samples interface{}, channels int) ([]float32, error) {
	switch s := samples.(type) {
	case []int16:
		out := make([]float32, len(s))
		for i, v := range s {
			out[i] = float32(v) / 32768.0
		}
		return out, nil
	case []float32:
		return s, nil
	default:
		return nil, audiocore.NewError(audiocore.ErrUnsupportedFormat, "external: unexpected AAC sample type %T", samples)
	}
}
