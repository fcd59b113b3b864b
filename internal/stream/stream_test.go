// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package stream

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStreamReadSeek(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	s := NewMemoryStream(data)

	size, err := s.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 8, size)

	buf := make([]byte, 4)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)

	pos, err := s.Tell()
	require.NoError(t, err)
	assert.EqualValues(t, 4, pos)

	remain, err := s.Remain()
	require.NoError(t, err)
	assert.EqualValues(t, 4, remain)

	_, err = s.Seek(-2, SeekEnd)
	require.NoError(t, err)
	n, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{7, 8}, buf[:n])

	_, err = s.Read(buf)
	assert.ErrorIs(t, err, ErrEndOfFile)
}

func TestReadTGeneric(t *testing.T) {
	s := NewMemoryStream([]byte{0xEF, 0xBE, 0xAD, 0xDE})
	v, err := ReadT[uint32](s, binary.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v)
}

func TestFileStreamOpenMissing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestFileStreamReadSeek(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello, audiocore"), 0o600))

	s, err := OpenFile(path)
	require.NoError(t, err)
	defer s.Close()

	buf := make([]byte, 5)
	_, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	_, err = s.Seek(7, SeekSet)
	require.NoError(t, err)
	_, err = s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "audio", string(buf))
}
