// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package audiocore implements the playback core of a desktop music
// player: container demuxers, decoder resolution, PCM format
// conversion, a filter chain (channel mixing, resampling, ReplayGain),
// a mirror-mapped SPSC ring buffer, a gapless playback engine, and the
// output plugin contract a platform-specific backend implements.
//
// Container and codec support live in the demux/* and decode/*
// subpackages; callers register the ones they need against a Registry
// and build an Engine around it.
package audiocore
