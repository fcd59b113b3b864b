// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package lz4block implements the minimal LZ4 block format (no frame
// header, no checksums) needed to round-trip the playlist serialization
// in spec §6.2. None of the retrieved example repos import an LZ4
// library, so this is a hand-rolled, from-scratch encoder/decoder rather
// than a dependency — see DESIGN.md. It implements only what the
// playlist format needs: single-block compress/decompress of a byte
// slice whose decompressed size is already known (carried in the AMPL
// header), so there is no end-of-block sentinel to parse.
package lz4block

import (
	"encoding/binary"
	"fmt"
)

const (
	minMatch     = 4
	hashLog      = 16
	hashTableLen = 1 << hashLog
)

// Compress returns src encoded as a sequence of LZ4 sequences (token,
// literals, offset, match length), compatible with any standard LZ4
// block decoder. It is a straightforward greedy single-pass matcher
// (no lazy matching, no HC chains) -- throughput is secondary to this
// package existing as infra rather than a pretend dependency.
func Compress(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}

	var table [hashTableLen]int32
	for i := range table {
		table[i] = -1
	}

	dst := make([]byte, 0, len(src))
	anchor := 0
	i := 0
	end := len(src)
	// Last 5 bytes must always be emitted as literals, and the last match
	// must start at least 12 bytes before the end (LZ4 block-format rules).
	lastLiterals := end - 5
	matchLimit := end - 12
	if matchLimit < 0 {
		matchLimit = 0
	}

	for i < matchLimit {
		h := hash4(src, i)
		ref := table[h]
		table[h] = int32(i)

		if ref < 0 || int(ref) >= i || !matches(src, int(ref), i) {
			i++
			continue
		}

		litLen := i - anchor
		matchStart := i
		matchRef := int(ref)

		i += minMatch
		matchRef += minMatch
		for i < lastLiterals && matchRef < matchStart && src[i] == src[matchRef] {
			i++
			matchRef++
		}
		matchLen := i - matchStart

		dst = appendSequence(dst, src[anchor:matchStart], litLen, matchStart-matchRef, matchLen-minMatch)
		anchor = i
	}

	// Trailing literals.
	litLen := end - anchor
	dst = appendLastLiterals(dst, src[anchor:end], litLen)
	return dst
}

func hash4(src []byte, i int) uint32 {
	v := binary.LittleEndian.Uint32(src[i:])
	return (v * 2654435761) >> (32 - hashLog)
}

func matches(src []byte, ref, cur int) bool {
	if cur+minMatch > len(src) || ref+minMatch > len(src) {
		return false
	}
	return binary.LittleEndian.Uint32(src[ref:]) == binary.LittleEndian.Uint32(src[cur:])
}

func appendSequence(dst []byte, literals []byte, litLen, offset, matchLenMinus4 int) []byte {
	tokenPos := len(dst)
	dst = append(dst, 0)
	token := byte(0)

	token |= encodeLength(&dst, litLen, 0xF, true)
	dst = append(dst, literals...)

	dst = append(dst, byte(offset), byte(offset>>8))

	token |= encodeLength(&dst, matchLenMinus4, 0xF, false) << 0
	dst[tokenPos] = token
	return dst
}

// encodeLength writes the extension bytes for a length value exceeding
// the 4-bit token nibble, returning the nibble to OR into the token (high
// nibble if isLiteral, low nibble otherwise).
func encodeLength(dst *[]byte, length int, mask int, isLiteral bool) byte {
	nibble := length
	if nibble > mask {
		nibble = mask
	}
	nib := byte(nibble)
	if isLiteral {
		nib <<= 4
	}
	if length >= mask {
		rem := length - mask
		for rem >= 255 {
			*dst = append(*dst, 255)
			rem -= 255
		}
		*dst = append(*dst, byte(rem))
	}
	return nib
}

func appendLastLiterals(dst []byte, literals []byte, litLen int) []byte {
	tokenPos := len(dst)
	dst = append(dst, 0)
	token := encodeLength(&dst, litLen, 0xF, true)
	dst = append(dst, literals...)
	dst[tokenPos] = token
	return dst
}

// Decompress expands src, which must decode to exactly decompressedSize
// bytes (the playlist format always carries this length in its header,
// so there is no need to grow the destination speculatively).
func Decompress(src []byte, decompressedSize int) ([]byte, error) {
	dst := make([]byte, 0, decompressedSize)
	i := 0
	for i < len(src) {
		if i >= len(src) {
			return nil, fmt.Errorf("lz4block: truncated token")
		}
		token := src[i]
		i++

		litLen := int(token >> 4)
		if litLen == 0xF {
			for {
				if i >= len(src) {
					return nil, fmt.Errorf("lz4block: truncated literal length")
				}
				b := src[i]
				i++
				litLen += int(b)
				if b != 255 {
					break
				}
			}
		}
		if i+litLen > len(src) {
			return nil, fmt.Errorf("lz4block: literal run exceeds input")
		}
		dst = append(dst, src[i:i+litLen]...)
		i += litLen

		if i >= len(src) {
			// Final sequence: literals only, no match follows.
			break
		}
		if i+2 > len(src) {
			return nil, fmt.Errorf("lz4block: truncated offset")
		}
		offset := int(src[i]) | int(src[i+1])<<8
		i += 2
		if offset == 0 || offset > len(dst) {
			return nil, fmt.Errorf("lz4block: invalid offset %d at output position %d", offset, len(dst))
		}

		matchLen := int(token & 0xF)
		if matchLen == 0xF {
			for {
				if i >= len(src) {
					return nil, fmt.Errorf("lz4block: truncated match length")
				}
				b := src[i]
				i++
				matchLen += int(b)
				if b != 255 {
					break
				}
			}
		}
		matchLen += minMatch

		matchPos := len(dst) - offset
		for j := 0; j < matchLen; j++ {
			dst = append(dst, dst[matchPos+j])
		}
	}

	if len(dst) != decompressedSize {
		return nil, fmt.Errorf("lz4block: decompressed size mismatch: got %d want %d", len(dst), decompressedSize)
	}
	return dst, nil
}
