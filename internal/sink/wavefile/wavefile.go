// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package wavefile is a reference sink.OutputStream implementation that
// renders to a WAV file instead of a real device, so the pipeline is
// testable end-to-end without hardware. The header-writing code is
// generalized from the teacher's fixed mono/16-bit/22050Hz wavHeader
// into the parameterized form spec §4.11 needs.
package wavefile

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kelindar/audiocore/internal/pcm"
	"github.com/kelindar/audiocore/internal/sink"
)

// Session is a sink.OutputSession that writes every opened stream to a
// distinct WAV file under dir.
type Session struct {
	dir   string
	mu    sync.Mutex
	count int
}

// Open returns a Session rooted at dir, which must already exist.
func Open(dir string) *Session { return &Session{dir: dir} }

// OpenNamed creates a WAV file stream with an explicit file name (without
// extension), for callers that want a predictable output path.
func (s *Session) OpenNamed(name string, spec pcm.Spec) (*Stream, error) {
	f, err := os.Create(s.dir + "/" + name + ".wav")
	if err != nil {
		return nil, fmt.Errorf("wavefile: create %s: %w", name, err)
	}

	st := &Stream{file: f, spec: spec}
	if err := st.writePlaceholderHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return st, nil
}

// Open implements sink.OutputSession, auto-naming each stream in
// creation order (stream-0.wav, stream-1.wav, ...).
func (s *Session) Open(spec pcm.Spec) (sink.OutputStream, error) {
	s.mu.Lock()
	name := fmt.Sprintf("stream-%d", s.count)
	s.count++
	s.mu.Unlock()

	return s.OpenNamed(name, spec)
}

func (s *Session) Close() error { return nil }

// Stream renders pulled PCM frames to a WAV file on its own goroutine.
type Stream struct {
	file      *os.File
	spec      pcm.Spec
	mu        sync.Mutex
	dataBytes uint32
	stop      chan struct{}
	done      chan struct{}
}

// Start launches the render goroutine, pulling fixed-size chunks from
// ctx until Stop is called.
func (s *Stream) Start(ctx *sink.SinkContext) error {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		chunk := make([]byte, 4096)
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
			case <-ctx.Wait():
			}

			for {
				n := ctx.Render(chunk)
				if n == 0 {
					break
				}
				s.mu.Lock()
				s.file.Write(chunk[:n])
				s.dataBytes += uint32(n)
				s.mu.Unlock()
			}
		}
	}()
	return nil
}

func (s *Stream) Stop() error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	<-s.done
	return s.finalizeHeader()
}

// Delay reports zero, since a file sink has no hardware playback
// latency -- the player's clock computation treats this as "instant".
func (s *Stream) Delay() uint32 { return 0 }

// writePlaceholderHeader writes a 44-byte canonical WAV header with a
// zero data-length placeholder that finalizeHeader patches in on Stop,
// since the total byte count isn't known until rendering ends.
func (s *Stream) writePlaceholderHeader() error {
	_, err := s.file.Write(s.header(0))
	return err
}

func (s *Stream) finalizeHeader() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.WriteAt(s.header(s.dataBytes), 0); err != nil {
		return fmt.Errorf("wavefile: patch header: %w", err)
	}
	return s.file.Close()
}

// header builds a 44-byte canonical WAVEFORMATEX PCM header for the
// stream's negotiated spec, generalizing the teacher's fixed-format
// wavHeader to an arbitrary channel/bit-depth combination. pcm.Spec
// carries no sample rate, so the header always records 44100 Hz.
func (s *Stream) header(dataLen uint32) []byte {
	channels := uint16(s.spec.Channels)
	bitsPerSample := uint16(s.spec.BitsPerSample)
	if bitsPerSample == 0 {
		bitsPerSample = uint16(s.spec.BytesPerSample * 8)
	}
	sampleRate := uint32(44100)

	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * uint32(blockAlign)
	chunkSize := 36 + dataLen

	h := make([]byte, 44)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], chunkSize)
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(h[22:24], channels)
	binary.LittleEndian.PutUint32(h[24:28], sampleRate)
	binary.LittleEndian.PutUint32(h[28:32], byteRate)
	binary.LittleEndian.PutUint16(h[32:34], blockAlign)
	binary.LittleEndian.PutUint16(h[34:36], bitsPerSample)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], dataLen)
	return h
}
