// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package ioprim

import (
	"encoding/binary"
	"fmt"
	"io"
)

// fieldKind tags the shape of a single Field descriptor.
type fieldKind int

const (
	kindU8 fieldKind = iota
	kindI8
	kindU16
	kindI16
	kindU32
	kindI32
	kindU64
	kindI64
	kindF32
	kindF64
	kindIgnore
	kindBytes
)

// Field is one entry in a packed, no-padding byte layout. The offset of a
// field is implicitly the sum of the encoded sizes of every field before
// it -- callers never specify offsets directly, matching the original
// layout-by-concatenation semantics.
type Field struct {
	kind fieldKind
	size int // byte width for this field (Ignore/Bytes use it directly)
	dst  any // pointer to the destination/source lvalue, nil for Ignore
}

func U8(p *uint8) Field   { return Field{kind: kindU8, size: 1, dst: p} }
func I8(p *int8) Field    { return Field{kind: kindI8, size: 1, dst: p} }
func U16(p *uint16) Field { return Field{kind: kindU16, size: 2, dst: p} }
func I16(p *int16) Field  { return Field{kind: kindI16, size: 2, dst: p} }
func U32(p *uint32) Field { return Field{kind: kindU32, size: 4, dst: p} }
func I32(p *int32) Field  { return Field{kind: kindI32, size: 4, dst: p} }
func U64(p *uint64) Field { return Field{kind: kindU64, size: 8, dst: p} }
func I64(p *int64) Field  { return Field{kind: kindI64, size: 8, dst: p} }
func F32(p *float32) Field { return Field{kind: kindF32, size: 4, dst: p} }
func F64(p *float64) Field { return Field{kind: kindF64, size: 8, dst: p} }

// Ignore skips n bytes without reading them into any destination.
func Ignore(n int) Field { return Field{kind: kindIgnore, size: n} }

// Bytes reads/writes a fixed-size array directly into/from p, which must
// have length == n.
func Bytes(p []byte, n int) Field { return Field{kind: kindBytes, size: n, dst: p} }

// Size returns the total packed byte width of the given fields.
func Size(fields ...Field) int {
	n := 0
	for _, f := range fields {
		n += f.size
	}
	return n
}

// Gather reads len(fields) packed values from r, in order, converting each
// according to order and writing it through the field's destination
// pointer. It is the byte-wise replacement for the original's aliased
// struct overlay: every field is decoded through a small stack buffer.
func Gather(r io.Reader, order binary.ByteOrder, fields ...Field) error {
	buf := make([]byte, Size(fields...))
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	return gatherBuf(buf, order, fields...)
}

// GatherBuf behaves like Gather but reads from an in-memory buffer that
// must already contain exactly Size(fields...) bytes.
func GatherBuf(buf []byte, order binary.ByteOrder, fields ...Field) error {
	return gatherBuf(buf, order, fields...)
}

func gatherBuf(buf []byte, order binary.ByteOrder, fields ...Field) error {
	off := 0
	for _, f := range fields {
		switch f.kind {
		case kindIgnore:
			// no destination, just skip the bytes
		case kindBytes:
			dst, ok := f.dst.([]byte)
			if !ok || len(dst) != f.size {
				return fmt.Errorf("ioprim: Bytes field destination must be a []byte of length %d", f.size)
			}
			copy(dst, buf[off:off+f.size])
		case kindU8:
			*f.dst.(*uint8) = buf[off]
		case kindI8:
			*f.dst.(*int8) = int8(buf[off])
		case kindU16:
			*f.dst.(*uint16) = order.Uint16(buf[off:])
		case kindI16:
			*f.dst.(*int16) = int16(order.Uint16(buf[off:]))
		case kindU32:
			*f.dst.(*uint32) = order.Uint32(buf[off:])
		case kindI32:
			*f.dst.(*int32) = int32(order.Uint32(buf[off:]))
		case kindU64:
			*f.dst.(*uint64) = order.Uint64(buf[off:])
		case kindI64:
			*f.dst.(*int64) = int64(order.Uint64(buf[off:]))
		case kindF32:
			*f.dst.(*float32) = Load[float32](order, buf[off:])
		case kindF64:
			*f.dst.(*float64) = Load[float64](order, buf[off:])
		}
		off += f.size
	}
	return nil
}

// Scatter writes len(fields) packed values to w, in order, reading each
// field's source value and encoding it per order.
func Scatter(w io.Writer, order binary.ByteOrder, fields ...Field) error {
	buf := make([]byte, Size(fields...))
	off := 0
	for _, f := range fields {
		switch f.kind {
		case kindIgnore:
			// zero-filled padding
		case kindBytes:
			src, ok := f.dst.([]byte)
			if !ok || len(src) != f.size {
				return fmt.Errorf("ioprim: Bytes field source must be a []byte of length %d", f.size)
			}
			copy(buf[off:off+f.size], src)
		case kindU8:
			buf[off] = *f.dst.(*uint8)
		case kindI8:
			buf[off] = byte(*f.dst.(*int8))
		case kindU16:
			order.PutUint16(buf[off:], *f.dst.(*uint16))
		case kindI16:
			order.PutUint16(buf[off:], uint16(*f.dst.(*int16)))
		case kindU32:
			order.PutUint32(buf[off:], *f.dst.(*uint32))
		case kindI32:
			order.PutUint32(buf[off:], uint32(*f.dst.(*int32)))
		case kindU64:
			order.PutUint64(buf[off:], *f.dst.(*uint64))
		case kindI64:
			order.PutUint64(buf[off:], uint64(*f.dst.(*int64)))
		case kindF32:
			Store[float32](order, buf[off:], *f.dst.(*float32))
		case kindF64:
			Store[float64](order, buf[off:], *f.dst.(*float64))
		}
		off += f.size
	}
	_, err := w.Write(buf)
	return err
}
