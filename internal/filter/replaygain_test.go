// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplayGainScalerClamps(t *testing.T) {
	g := NewReplayGainScaler(2.0)
	out, err := g.Process([]float32{0.9, -0.9, 0.1})
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, out[0], 1e-6)
	assert.InDelta(t, -1.0, out[1], 1e-6)
	assert.InDelta(t, 0.2, out[2], 1e-6)
}

func TestReplayGainScalerUnity(t *testing.T) {
	g := NewReplayGainScaler(1.0)
	out, err := g.Process([]float32{0.5})
	assert.NoError(t, err)
	assert.InDelta(t, 0.5, out[0], 1e-6)
}
