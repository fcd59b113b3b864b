// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package ioprim

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStoreRoundTrip(t *testing.T) {
	orders := []binary.ByteOrder{binary.LittleEndian, binary.BigEndian}

	t.Run("uint8", func(t *testing.T) { roundTrip[uint8](t, orders, 0xAB) })
	t.Run("int8", func(t *testing.T) { roundTrip[int8](t, orders, -12) })
	t.Run("uint16", func(t *testing.T) { roundTrip[uint16](t, orders, 0xBEEF) })
	t.Run("int16", func(t *testing.T) { roundTrip[int16](t, orders, -1234) })
	t.Run("uint32", func(t *testing.T) { roundTrip[uint32](t, orders, 0xDEADBEEF) })
	t.Run("int32", func(t *testing.T) { roundTrip[int32](t, orders, -123456) })
	t.Run("uint64", func(t *testing.T) { roundTrip[uint64](t, orders, 0x0123456789ABCDEF) })
	t.Run("int64", func(t *testing.T) { roundTrip[int64](t, orders, -9876543210) })
	t.Run("float32", func(t *testing.T) { roundTrip[float32](t, orders, 3.1415927) })
	t.Run("float64", func(t *testing.T) { roundTrip[float64](t, orders, 2.718281828459045) })
}

func roundTrip[T Numeric](t *testing.T, orders []binary.ByteOrder, v T) {
	t.Helper()
	for _, order := range orders {
		buf := make([]byte, SizeOf[T]())
		Store(order, buf, v)
		got := Load[T](order, buf)
		assert.Equal(t, v, got)
	}
}

func TestLoad24RoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		for _, v := range []int32{0, 1, -1, 0x7FFFFF, -0x800000, 12345, -54321} {
			buf := make([]byte, 3)
			Store24(order, buf, v)
			got := Load24(order, buf)
			require.Equal(t, v, got)
		}
	}
}

func TestGatherScatter(t *testing.T) {
	type header struct {
		magic   uint32
		version uint16
		flags   uint16
		size    uint32
	}

	var h header
	var tag [4]byte

	src := header{magic: 0x504C4D41, version: 1, flags: 0, size: 9001}
	var buf []byte
	{
		var out writeBuffer
		tagBytes := []byte("AMPL")
		err := Scatter(&out, binary.LittleEndian,
			Bytes(tagBytes, 4),
			U16(&src.version),
			U16(&src.flags),
			U32(&src.size),
		)
		require.NoError(t, err)
		buf = out.buf
	}

	err := GatherBuf(buf, binary.LittleEndian,
		Bytes(tag[:], 4),
		U16(&h.version),
		U16(&h.flags),
		U32(&h.size),
	)
	require.NoError(t, err)
	assert.Equal(t, "AMPL", string(tag[:]))
	assert.Equal(t, uint16(1), h.version)
	assert.Equal(t, uint16(0), h.flags)
	assert.Equal(t, uint32(9001), h.size)
}

func TestGatherIgnore(t *testing.T) {
	buf := []byte{0xAA, 0xBB, 0xCC, 0xDD, 0x01, 0x00, 0x00, 0x00}
	var v uint32
	err := GatherBuf(buf, binary.LittleEndian, Ignore(4), U32(&v))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)
}

// writeBuffer is a tiny io.Writer so this test file doesn't need to import
// bytes.Buffer just for Scatter's sink.
type writeBuffer struct{ buf []byte }

func (w *writeBuffer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}
