// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package ustring

import (
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromoteValidatesUTF8(t *testing.T) {
	bld := NewBuilder()
	bld.WriteString("hello")
	s, err := bld.Promote()
	require.NoError(t, err)
	assert.Equal(t, "hello", s.String())
	assert.Equal(t, crc32.Checksum([]byte("hello"), castagnoli), s.Hash())

	bld2 := NewBuilder()
	bld2.Write([]byte{0xFF, 0xFE, 0xFD})
	_, err = bld2.Promote()
	assert.ErrorIs(t, err, ErrInvalidUnicode)
}

func TestInternReturnsIdenticalPointerForEqualBytes(t *testing.T) {
	build := func() *String {
		bld := NewBuilder()
		bld.WriteString("rock")
		s, err := bld.Promote()
		require.NoError(t, err)
		return s
	}

	a := Intern(build())
	b := Intern(build())
	assert.Same(t, a, b)
	assert.Equal(t, a.Hash(), b.Hash())

	a.Release()
	b.Release()
}

func TestReleaseUninternsAtZeroRefcount(t *testing.T) {
	bld := NewBuilder()
	bld.WriteString("unique-value-for-release-test")
	s, err := bld.Promote()
	require.NoError(t, err)

	canon := Intern(s)
	canon.Release()

	bld2 := NewBuilder()
	bld2.WriteString("unique-value-for-release-test")
	s2, err := bld2.Promote()
	require.NoError(t, err)
	canon2 := Intern(s2)
	defer canon2.Release()

	assert.NotSame(t, canon, canon2, "unlinked representation must not be reused by a later Intern")
}

func TestDetachCopiesBytesIndependently(t *testing.T) {
	bld := NewBuilder()
	bld.WriteString("frozen")
	s, err := bld.Promote()
	require.NoError(t, err)
	defer s.Release()

	detached := Detach(s)
	detached.Write([]byte("-mutated"))
	assert.Equal(t, "frozen", s.String())
	assert.Equal(t, "frozen-mutated", string(detached.Bytes()))
}

func TestFromUTF16HandlesBOMAndExplicitOrder(t *testing.T) {
	// "hi" in UTF-16BE with a BOM.
	be := []byte{0xFE, 0xFF, 0x00, 'h', 0x00, 'i'}
	s, err := FromUTF16(be, false, false)
	require.NoError(t, err)
	assert.Equal(t, "hi", s.String())

	le := []byte{'h', 0x00, 'i', 0x00}
	s2, err := FromUTF16(le, false, false)
	require.NoError(t, err)
	assert.Equal(t, "hi", s2.String())
}

func TestFromUTF32RoundTripsASCII(t *testing.T) {
	data := []byte{0x68, 0, 0, 0, 0x69, 0, 0, 0} // "hi" little-endian
	s, err := FromUTF32(data, false, false)
	require.NoError(t, err)
	assert.Equal(t, "hi", s.String())
}

func TestFromUTF32RejectsSurrogateCodePoint(t *testing.T) {
	data := []byte{0x00, 0xD8, 0, 0} // LE 0x0000D800, a surrogate
	_, err := FromUTF32(data, false, false)
	assert.ErrorIs(t, err, ErrInvalidUnicode)

	lossy, err := FromUTF32(data, false, true)
	require.NoError(t, err)
	assert.Equal(t, "�", lossy.String())
}

func TestFromCP1252DecodesLatin1Bytes(t *testing.T) {
	s, err := FromCP1252([]byte{0xE9}) // é in Windows-1252
	require.NoError(t, err)
	assert.Equal(t, "é", s.String())
}
