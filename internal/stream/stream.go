// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package stream implements the abstract random-access byte stream that
// every demuxer reads from, plus the file and in-memory backends. The
// out-of-scope HTTP/URI fetch layer is expected to buffer bytes itself and
// hand them to NewMemoryStream, or implement Stream directly.
package stream

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/kelindar/audiocore/internal/ioprim"
)

// Whence mirrors io.Seeker's constants under the names the spec uses.
type Whence = int

const (
	SeekSet Whence = io.SeekStart
	SeekCur Whence = io.SeekCurrent
	SeekEnd Whence = io.SeekEnd
)

// Error kinds specific to stream I/O; mapped onto the shared audiocore
// error-kind enum by callers that need it (see errors.go in the root
// package).
var (
	ErrEndOfFile    = errors.New("stream: end of file")
	ErrReadFault    = errors.New("stream: read fault")
	ErrSeekError    = errors.New("stream: seek error")
	ErrFileNotFound = errors.New("stream: file not found")
)

// Stream is the capability set every demuxer and codec-private-data parser
// reads through.
type Stream interface {
	io.Reader

	// Seek repositions the stream. whence is one of SeekSet/SeekCur/SeekEnd.
	Seek(offset int64, whence Whence) (int64, error)

	// Tell returns the current read position.
	Tell() (int64, error)

	// Size returns the total stream length in bytes.
	Size() (int64, error)

	// Remain returns Size() - Tell().
	Remain() (int64, error)

	// Close releases any resources (file handles, mappings) held by the
	// stream.
	Close() error
}

// Remain is a helper implementing Stream.Remain in terms of Tell and Size,
// for backends that don't need a more efficient override.
func Remain(s Stream) (int64, error) {
	pos, err := s.Tell()
	if err != nil {
		return 0, err
	}
	size, err := s.Size()
	if err != nil {
		return 0, err
	}
	return size - pos, nil
}

// ReadFull reads exactly len(buf) bytes from s, translating io.EOF,
// io.ErrUnexpectedEOF and a stream's own ErrEndOfFile into ErrEndOfFile.
func ReadFull(s Stream, buf []byte) error {
	n, err := io.ReadFull(s, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, ErrEndOfFile) {
			return ErrEndOfFile
		}
		return ErrReadFault
	}
	_ = n
	return nil
}

// ReadT decodes a single scalar of type T at the stream's current position,
// advancing it by sizeof(T).
func ReadT[T ioprim.Numeric](s Stream, order binary.ByteOrder) (T, error) {
	var zero T
	buf := make([]byte, ioprim.SizeOf[T]())
	if err := ReadFull(s, buf); err != nil {
		return zero, err
	}
	return ioprim.Load[T](order, buf), nil
}

// Gather decodes a packed sequence of fields at the stream's current
// position, advancing it by their total size.
func Gather(s Stream, order binary.ByteOrder, fields ...ioprim.Field) error {
	buf := make([]byte, ioprim.Size(fields...))
	if err := ReadFull(s, buf); err != nil {
		return err
	}
	return ioprim.GatherBuf(buf, order, fields...)
}
