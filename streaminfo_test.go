// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationComputesFromFramesAndSampleRate(t *testing.T) {
	si := StreamInfo{Format: CodecFormat{SampleRate: 44100}, TotalFrames: 44100 * 3}
	assert.Equal(t, 3*time.Second, si.Duration())
}

func TestDurationZeroWhenSampleRateUnset(t *testing.T) {
	si := StreamInfo{TotalFrames: 1000}
	assert.Equal(t, time.Duration(0), si.Duration())
}

func TestUsableFramesExcludesDelayAndPadding(t *testing.T) {
	si := StreamInfo{TotalFrames: 1000, DecoderDelay: 100, TrailingPadding: 50}
	assert.Equal(t, uint64(850), si.UsableFrames())
}

func TestUsableFramesClampsToZero(t *testing.T) {
	si := StreamInfo{TotalFrames: 10, DecoderDelay: 20}
	assert.Equal(t, uint64(0), si.UsableFrames())
}
