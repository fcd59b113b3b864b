// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Command audiocorectl drives the engine against a single input file
// and renders it to a WAV file instead of a real output device, so the
// full demux -> decode -> filter -> ring-buffer pipeline can be
// exercised from the command line without hardware.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/kelindar/audiocore"
	_ "github.com/kelindar/audiocore/decode/adpcm"
	_ "github.com/kelindar/audiocore/decode/alaw"
	_ "github.com/kelindar/audiocore/decode/external"
	_ "github.com/kelindar/audiocore/decode/lpcm"
	_ "github.com/kelindar/audiocore/demux/adts"
	_ "github.com/kelindar/audiocore/demux/asf"
	_ "github.com/kelindar/audiocore/demux/caf"
	_ "github.com/kelindar/audiocore/demux/mp4"
	_ "github.com/kelindar/audiocore/demux/realmedia"
	_ "github.com/kelindar/audiocore/demux/wave"
	"github.com/kelindar/audiocore/internal/pcm"
	"github.com/kelindar/audiocore/internal/player"
	"github.com/kelindar/audiocore/internal/sink/wavefile"
)

func main() {
	var (
		input      = pflag.StringP("input", "i", "", "path to the audio file to decode")
		outDir     = pflag.StringP("out", "o", ".", "directory to write the rendered WAV file into")
		configPath = pflag.String("config", "", "path to an audiocore.yaml config file")
		sampleRate = pflag.Uint32("rate", 44100, "sink sample rate in Hz")
		channels   = pflag.Uint32("channels", 2, "sink channel count")
		timeout    = pflag.Duration("timeout", 0, "stop rendering after this long (0 = until end of stream)")
		verbose    = pflag.BoolP("verbose", "v", false, "enable debug logging")
	)
	pflag.Parse()

	logger := log.Default()
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if *input == "" {
		logger.Error("missing required flag", "flag", "--input")
		pflag.Usage()
		os.Exit(2)
	}

	if err := run(logger, *input, *outDir, *configPath, *sampleRate, *channels, *timeout); err != nil {
		logger.Error("audiocorectl failed", "err", err)
		os.Exit(1)
	}
}

func run(logger *log.Logger, input, outDir, configPath string, sampleRate, channels uint32, timeout time.Duration) error {
	cfg := audiocore.DefaultConfig()
	if configPath != "" {
		loaded, err := audiocore.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	sinkFormat := audiocore.CodecFormat{
		CodecID:         audiocore.CodecLPCM,
		SampleRate:      sampleRate,
		Channels:        channels,
		BitsPerSample:   32,
		BytesPerPacket:  4 * channels,
		FramesPerPacket: 1,
		Flags:           audiocore.FlagIEEEFloat,
	}

	engine, err := audiocore.NewEngine(audiocore.DefaultRegistry, sinkFormat, cfg)
	if err != nil {
		return fmt.Errorf("construct engine: %w", err)
	}

	if err := engine.Open(input, nil); err != nil {
		return fmt.Errorf("open %s: %w", input, err)
	}

	session := wavefile.Open(outDir)
	stream, err := session.Open(pcm.Spec{
		BytesPerSample: 4,
		BitsPerSample:  32,
		Channels:       int(channels),
		Flags:          pcm.FlagIEEEFloat,
	})
	if err != nil {
		return fmt.Errorf("open wav sink: %w", err)
	}

	if err := stream.Start(engine.SinkContext()); err != nil {
		return fmt.Errorf("start sink: %w", err)
	}

	if err := engine.Play(); err != nil {
		stream.Stop()
		return fmt.Errorf("play: %w", err)
	}
	logger.Info("rendering", "input", input, "rate", sampleRate, "channels", channels)

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case ev, ok := <-engine.Events():
			if !ok {
				return finish(engine, stream)
			}
			switch ev.Kind {
			case player.EventEndOfPlaylist:
				return finish(engine, stream)
			case player.EventError:
				logger.Error("playback error", "err", ev.Err)
				return finish(engine, stream)
			default:
				logger.Debug("event", "kind", ev.Kind, "state", ev.State)
			}
		case <-deadline:
			logger.Info("timeout reached, stopping")
			return finish(engine, stream)
		case <-time.After(200 * time.Millisecond):
			if engine.State() == audiocore.StateStopped {
				return finish(engine, stream)
			}
		}
	}
}

func finish(engine *audiocore.Engine, stream interface{ Stop() error }) error {
	engine.Stop()
	return stream.Stop()
}
