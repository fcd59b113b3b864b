// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package external

import (
	"errors"
	"testing"

	"github.com/kelindar/audiocore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderDrainsDecodedFrame(t *testing.T) {
	dec := New(func(frame []byte) ([]float32, error) {
		return []float32{0.1, 0.2, 0.3, 0.4}, nil
	}, 1024)

	require.NoError(t, dec.Send(&audiocore.AudioPacket{Data: []byte{0, 1, 2}}))

	out := make([]float32, 4)
	n, status, err := dec.Recv(out)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, audiocore.DecodeOK, status)
	assert.EqualValues(t, 1024, dec.GetDecoderDelay())
}

func TestDecoderPropagatesDecodeError(t *testing.T) {
	dec := New(func(frame []byte) ([]float32, error) {
		return nil, errors.New("bad frame")
	}, 0)

	err := dec.Send(&audiocore.AudioPacket{Data: []byte{0}})
	require.Error(t, err)
	assert.Equal(t, audiocore.ErrInvalidDataFormat, audiocore.KindOf(err))
}

func TestRecvNeedsMoreWhenEmpty(t *testing.T) {
	dec := New(func(frame []byte) ([]float32, error) { return nil, nil }, 0)
	out := make([]float32, 4)
	n, status, err := dec.Recv(out)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, audiocore.DecodeNeedMore, status)
}
