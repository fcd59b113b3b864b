// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package ioprim provides endian-aware typed load/store primitives and a
// struct-tag-free gather/scatter walker for the fixed byte layouts used by
// container demuxers (box headers, WAVEFORMATEX, GUID object headers, ...).
//
// The original engine this package is modeled on relies on pointer punning
// (`reinterpret_cast` through an `may_alias` attribute) to get aligned loads
// and stores for arbitrary POD layouts. Go has no equivalent safe trick, so
// Gather/Scatter instead walk an explicit list of field descriptors and copy
// byte-by-byte through local variables; on any recent Go compiler the result
// still vectorizes for the common fixed-width cases.
package ioprim

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Numeric lists every scalar type Load/Store know how to encode.
type Numeric interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// ErrUnsupportedType reports a numeric type outside Numeric. Load and
// Store return no error, since their type parameter is statically
// constrained, and no function in this package returns this value.
var ErrUnsupportedType = errors.New("ioprim: unsupported numeric type")

// Load decodes a single value of type T from the front of p using the given
// byte order. p must contain at least SizeOf[T]() bytes.
func Load[T Numeric](order binary.ByteOrder, p []byte) T {
	var out T
	switch dst := any(&out).(type) {
	case *int8:
		*dst = int8(p[0])
	case *uint8:
		*dst = p[0]
	case *int16:
		*dst = int16(order.Uint16(p))
	case *uint16:
		*dst = order.Uint16(p)
	case *int32:
		*dst = int32(order.Uint32(p))
	case *uint32:
		*dst = order.Uint32(p)
	case *int64:
		*dst = int64(order.Uint64(p))
	case *uint64:
		*dst = order.Uint64(p)
	case *float32:
		*dst = math.Float32frombits(order.Uint32(p))
	case *float64:
		*dst = math.Float64frombits(order.Uint64(p))
	}
	return out
}

// Store encodes v into the front of p using the given byte order. p must
// have at least SizeOf[T]() bytes of capacity.
func Store[T Numeric](order binary.ByteOrder, p []byte, v T) {
	switch src := any(v).(type) {
	case int8:
		p[0] = byte(src)
	case uint8:
		p[0] = src
	case int16:
		order.PutUint16(p, uint16(src))
	case uint16:
		order.PutUint16(p, src)
	case int32:
		order.PutUint32(p, uint32(src))
	case uint32:
		order.PutUint32(p, src)
	case int64:
		order.PutUint64(p, uint64(src))
	case uint64:
		order.PutUint64(p, src)
	case float32:
		order.PutUint32(p, math.Float32bits(src))
	case float64:
		order.PutUint64(p, math.Float64bits(src))
	}
}

// SizeOf returns the encoded width in bytes of T.
func SizeOf[T Numeric]() int {
	var zero T
	switch any(zero).(type) {
	case int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	case int64, uint64, float64:
		return 8
	}
	return 0
}

// LoadN decodes n values of type T from src into dst, which must have
// length >= n.
func LoadN[T Numeric](order binary.ByteOrder, src []byte, n int, dst []T) {
	width := SizeOf[T]()
	for i := 0; i < n; i++ {
		dst[i] = Load[T](order, src[i*width:])
	}
}

// StoreN encodes n values of type T from src into dst, which must have
// capacity >= n*SizeOf[T]().
func StoreN[T Numeric](order binary.ByteOrder, dst []byte, n int, src []T) {
	width := SizeOf[T]()
	for i := 0; i < n; i++ {
		Store[T](order, dst[i*width:], src[i])
	}
}

// Load24 decodes a 24-bit two's-complement integer, sign-extended to int32.
func Load24(order binary.ByteOrder, p []byte) int32 {
	if order == binary.BigEndian {
		x := int32(p[0])<<16 | int32(p[1])<<8 | int32(p[2])
		return signExtend24(x)
	}
	x := int32(p[0]) | int32(p[1])<<8 | int32(p[2])<<16
	return signExtend24(x)
}

// Store24 encodes the low 24 bits of v.
func Store24(order binary.ByteOrder, p []byte, v int32) {
	if order == binary.BigEndian {
		p[0] = byte(v >> 16)
		p[1] = byte(v >> 8)
		p[2] = byte(v)
		return
	}
	p[0] = byte(v)
	p[1] = byte(v >> 8)
	p[2] = byte(v >> 16)
}

func signExtend24(x int32) int32 {
	return (x << 8) >> 8
}

// Swap16/32/64 perform an unconditional byte swap, used by the PCM blitter
// and demuxers when the native load/store helpers aren't a convenient fit.
func Swap16(v uint16) uint16 { return v<<8 | v>>8 }

func Swap32(v uint32) uint32 {
	return v<<24 | (v<<8)&0x00FF0000 | (v>>8)&0x0000FF00 | v>>24
}

func Swap64(v uint64) uint64 {
	return v<<56 | (v<<40)&0x00FF000000000000 | (v<<24)&0x0000FF0000000000 |
		(v<<8)&0x000000FF00000000 | (v>>8)&0x00000000FF000000 |
		(v>>24)&0x0000000000FF0000 | (v>>40)&0x000000000000FF00 | v>>56
}

// Reader is the minimal capability Gather needs: a plain io.Reader,
// read sequentially from wherever the source is already positioned.
type Reader = io.Reader

// Writer is the minimal capability Scatter needs.
type Writer = io.Writer
