// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package stream

import (
	"fmt"
	"os"

	"codeberg.org/go-mmap/mmap"
)

// FileStream is a read-only, memory-mapped file backend for Stream. It
// uses codeberg.org/go-mmap/mmap for the same reason the teacher's own
// internal/uofile and internal/uop readers do: audio container files are
// read randomly (seek table lookups, box tree walks) far more than they
// are read sequentially start-to-end, and a mapping avoids a syscall per
// seek+read pair.
type FileStream struct {
	file *mmap.File
	size int64
	pos  int64
}

// OpenFile memory-maps path for reading.
func OpenFile(path string) (*FileStream, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrReadFault, path, err)
	}

	f, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadFault, path, err)
	}

	return &FileStream{file: f, size: info.Size()}, nil
}

func (s *FileStream) Read(buf []byte) (int, error) {
	if s.pos >= s.size {
		return 0, ErrEndOfFile
	}
	n, err := s.file.ReadAt(buf, s.pos)
	s.pos += int64(n)
	if err != nil && n == 0 {
		return n, ErrReadFault
	}
	return n, nil
}

func (s *FileStream) Seek(offset int64, whence Whence) (int64, error) {
	var target int64
	switch whence {
	case SeekSet:
		target = offset
	case SeekCur:
		target = s.pos + offset
	case SeekEnd:
		target = s.size + offset
	default:
		return 0, fmt.Errorf("%w: invalid whence %d", ErrSeekError, whence)
	}
	if target < 0 {
		return 0, ErrSeekError
	}
	s.pos = target
	return target, nil
}

func (s *FileStream) Tell() (int64, error) { return s.pos, nil }
func (s *FileStream) Size() (int64, error) { return s.size, nil }
func (s *FileStream) Remain() (int64, error) { return s.size - s.pos, nil }

func (s *FileStream) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
