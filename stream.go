// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import "github.com/kelindar/audiocore/internal/stream"

// Stream is the seekable byte-stream capability every Demuxer is opened
// over. It is an alias for internal/stream.Stream so the public API
// doesn't leak an internal import path into callers' type signatures.
type Stream = stream.Stream

// OpenFile opens path as a memory-mapped, read-only Stream.
func OpenFile(path string) (Stream, error) { return stream.OpenFile(path) }

// NewMemoryStream wraps data as a Stream, for callers that already hold
// a fully (or incrementally) buffered resource in memory.
func NewMemoryStream(data []byte) Stream { return stream.NewMemoryStream(data) }
