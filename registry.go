// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import (
	"strings"
	"sync"

	"github.com/kelindar/intmap"
)

// DecoderFactory constructs a Decoder for a resolved CodecFormat.
type DecoderFactory func(format CodecFormat) (Decoder, error)

// DemuxerFactory constructs a Demuxer over an already-open stream.
type DemuxerFactory func(s Stream, mode OpenMode) (Demuxer, error)

// StreamFactory constructs a Stream for a URI whose scheme it owns.
type StreamFactory func(uri string) (Stream, error)

// Registry holds the three resolution multimaps described in spec §4.3:
// codec id to decoder, file extension to demuxer, URI scheme to stream.
// Resolution always tries registered factories in registration order and
// returns the first that succeeds.
type Registry struct {
	mu sync.Mutex

	decoderIndex *intmap.Map // codec id -> bucket index into decoderOrder
	decoderNext  uint32
	decoderOrder [][]DecoderFactory

	demuxers map[string][]DemuxerFactory
	streams  map[string][]StreamFactory
}

// NewRegistry returns an empty Registry ready for registration.
func NewRegistry() *Registry {
	return &Registry{
		decoderIndex: intmap.New(64, .95),
		demuxers:     make(map[string][]DemuxerFactory),
		streams:      make(map[string][]StreamFactory),
	}
}

// RegisterDecoder appends factory to the bucket for id.
func (r *Registry) RegisterDecoder(id CodecID, factory DecoderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := uint32(id)
	idx, ok := r.decoderIndex.Load(key)
	if !ok {
		idx = r.decoderNext
		r.decoderNext++
		r.decoderIndex.Store(key, idx)
		r.decoderOrder = append(r.decoderOrder, nil)
	}
	r.decoderOrder[idx] = append(r.decoderOrder[idx], factory)
}

// RegisterDemuxer appends factory to the bucket for ext (a file
// extension without the leading dot, case-insensitive).
func (r *Registry) RegisterDemuxer(ext string, factory DemuxerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ext = strings.ToLower(ext)
	r.demuxers[ext] = append(r.demuxers[ext], factory)
}

// RegisterStream appends factory to the bucket for scheme (case-insensitive).
func (r *Registry) RegisterStream(scheme string, factory StreamFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	scheme = strings.ToLower(scheme)
	r.streams[scheme] = append(r.streams[scheme], factory)
}

// ResolveDecoder tries every registered decoder factory for format.CodecID
// in registration order, returning the first to succeed.
func (r *Registry) ResolveDecoder(format CodecFormat) (Decoder, error) {
	r.mu.Lock()
	idx, ok := r.decoderIndex.Load(uint32(format.CodecID))
	var factories []DecoderFactory
	if ok {
		factories = append(factories, r.decoderOrder[idx]...)
	}
	r.mu.Unlock()

	if len(factories) == 0 {
		return nil, NewError(ErrProtocolNotSupported, "no decoder registered for codec %s", format.CodecID)
	}

	var lastErr error
	for _, factory := range factories {
		dec, err := factory(format)
		if err == nil {
			return dec, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// ResolveDemuxer tries every registered demuxer factory for ext (without
// leading dot) in registration order.
func (r *Registry) ResolveDemuxer(ext string, s Stream, mode OpenMode) (Demuxer, error) {
	ext = strings.ToLower(ext)

	r.mu.Lock()
	factories := append([]DemuxerFactory(nil), r.demuxers[ext]...)
	r.mu.Unlock()

	if len(factories) == 0 {
		return nil, NewError(ErrProtocolNotSupported, "no demuxer registered for extension %q", ext)
	}

	var lastErr error
	for _, factory := range factories {
		demux, err := factory(s, mode)
		if err == nil {
			return demux, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// ResolveStream tries every registered stream factory for scheme in
// registration order.
func (r *Registry) ResolveStream(scheme, uri string) (Stream, error) {
	scheme = strings.ToLower(scheme)

	r.mu.Lock()
	factories := append([]StreamFactory(nil), r.streams[scheme]...)
	r.mu.Unlock()

	if len(factories) == 0 {
		return nil, NewError(ErrProtocolNotSupported, "no stream factory registered for scheme %q", scheme)
	}

	var lastErr error
	for _, factory := range factories {
		s, err := factory(uri)
		if err == nil {
			return s, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// DefaultRegistry is the process-wide registry that demux/* and
// decode/* packages register themselves into from their init()
// functions, mirroring the teacher's own lazy per-format dispatch in
// sdk_files.go generalized into an explicit plugin table.
var DefaultRegistry = NewRegistry()
