// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDecoder struct{}

func (fakeDecoder) Send(pkt *AudioPacket) error                    { return nil }
func (fakeDecoder) Recv(out []float32) (int, DecodeStatus, error) { return 0, DecodeNeedMore, nil }
func (fakeDecoder) Flush()                                        {}
func (fakeDecoder) GetDecoderDelay() uint32                        { return 0 }

func TestResolveDecoderFirstSuccessWins(t *testing.T) {
	r := NewRegistry()
	r.RegisterDecoder(CodecFLAC, func(f CodecFormat) (Decoder, error) {
		return nil, NewError(ErrUnsupportedFormat, "first factory declines")
	})
	r.RegisterDecoder(CodecFLAC, func(f CodecFormat) (Decoder, error) {
		return fakeDecoder{}, nil
	})

	dec, err := r.ResolveDecoder(CodecFormat{CodecID: CodecFLAC})
	require.NoError(t, err)
	assert.NotNil(t, dec)
}

func TestResolveDecoderNoneRegistered(t *testing.T) {
	r := NewRegistry()
	_, err := r.ResolveDecoder(CodecFormat{CodecID: CodecOpus})
	require.Error(t, err)
	assert.Equal(t, ErrProtocolNotSupported, KindOf(err))
}

func TestResolveDecoderReturnsLastErrorWhenAllFail(t *testing.T) {
	r := NewRegistry()
	r.RegisterDecoder(CodecMP3, func(f CodecFormat) (Decoder, error) {
		return nil, NewError(ErrFailure, "first")
	})
	r.RegisterDecoder(CodecMP3, func(f CodecFormat) (Decoder, error) {
		return nil, NewError(ErrFailure, "second")
	})

	_, err := r.ResolveDecoder(CodecFormat{CodecID: CodecMP3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second")
}

func TestRegisterDemuxerIsCaseInsensitiveByExtension(t *testing.T) {
	r := NewRegistry()
	called := false
	r.RegisterDemuxer("WAV", func(s Stream, mode OpenMode) (Demuxer, error) {
		called = true
		return nil, nil
	})

	_, err := r.ResolveDemuxer("wav", nil, OpenPlayback)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestResolveStreamUnknownScheme(t *testing.T) {
	r := NewRegistry()
	_, err := r.ResolveStream("https", "https://example.com/track.flac")
	require.Error(t, err)
	assert.Equal(t, ErrProtocolNotSupported, KindOf(err))
}
