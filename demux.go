// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

// OpenMode is a bitmask passed to a Demuxer constructor selecting which
// parts of the container to resolve eagerly.
type OpenMode uint32

const (
	OpenPlayback OpenMode = 1 << iota
	OpenMetadata
	OpenPictures
)

// Has reports whether all bits of want are set in m.
func (m OpenMode) Has(want OpenMode) bool { return m&want == want }

// ImageType selects which embedded picture GetImage should return.
type ImageType int

const (
	ImageFrontCover ImageType = iota
	ImageBackCover
	ImageArtist
)

// Image is an embedded picture extracted from a container's metadata.
type Image struct {
	MIMEType string
	Data     []byte
}

// Demuxer reads compressed packets and metadata out of one container
// format. A constructor (registered per extension via Registry) takes a
// Stream and an OpenMode; for OpenPlayback it parses headers, resolves
// total_frames and average bit rate, and positions the stream at the
// first packet.
type Demuxer interface {
	// Feed reads the next compressed packet into out, updating
	// InstantBitRate as it goes. It returns false at end of stream.
	Feed(out *AudioPacket) (bool, error)

	// Seek positions the stream before the packet containing ptsFrames,
	// returning the priming offset (in frames) the player must discard
	// from decoder output before it reaches ptsFrames.
	Seek(ptsFrames int64) (primingFrames int64, err error)

	// GetInfo reports the resolved stream properties for the given
	// chapter (0 for a non-chaptered container).
	GetInfo(chapter uint32) (StreamInfo, error)

	// GetImage extracts an embedded picture of the given type, or
	// ErrNotImplemented if the container carries none.
	GetImage(kind ImageType) (Image, error)

	// GetChapterCount reports how many chapters the container declares
	// (1 if unchaptered but playable).
	GetChapterCount() uint32

	// Close releases any resources held by the demuxer (not the
	// underlying Stream, which the caller owns).
	Close() error
}
