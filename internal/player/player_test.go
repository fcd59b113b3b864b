// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package player

import (
	"testing"
	"time"

	"github.com/kelindar/audiocore/internal/filter"
	"github.com/kelindar/audiocore/internal/ring"
	"github.com/kelindar/audiocore/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSource(frames int, channels int) Source {
	remaining := frames
	return Source{
		Format: filter.Format{SampleRate: 44100, Channels: uint32(channels), ChannelLayout: filter.ChFL | filter.ChFR},
		Feed: func() ([]float32, bool, error) {
			if remaining <= 0 {
				return nil, false, nil
			}
			n := 64
			if n > remaining {
				n = remaining
			}
			remaining -= n
			return make([]float32, n*channels), true, nil
		},
	}
}

func newTestEngine(t *testing.T) (*Engine, *ring.Buffer) {
	t.Helper()
	buf, err := ring.New(1 << 16)
	require.NoError(t, err)
	ctx := sink.NewSinkContext(buf)
	e := New(ctx, filter.Format{SampleRate: 44100, Channels: 2, ChannelLayout: filter.ChFL | filter.ChFR}, nil)
	return e, buf
}

func TestEngineStartsStopped(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.Equal(t, Stopped, e.State())
}

func TestEnginePlayRequiresSource(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.Error(t, e.Play())
}

func TestEnginePlayPauseStop(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.SetSource(fixedSource(1024, 2)))

	require.NoError(t, e.Play())
	assert.Equal(t, Playing, e.State())

	e.Pause()
	assert.Equal(t, Paused, e.State())

	e.Stop()
	assert.Equal(t, Stopped, e.State())
}

func TestEngineEmitsEndOfPlaylist(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.SetSource(fixedSource(64, 2)))
	require.NoError(t, e.Play())

	select {
	case ev := <-e.Events():
		if ev.Kind != EventEndOfPlaylist {
			// state-changed(Playing) arrives first; drain once more.
			ev = <-e.Events()
			assert.Equal(t, EventEndOfPlaylist, ev.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for end-of-playlist event")
	}
}
