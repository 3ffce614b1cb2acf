// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package capture

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync/atomic"

	"github.com/google/gopacket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/vulntor/hostprint/pkg/fingerprint"
)

// Sink consumes decoded packets. It must be safe for concurrent use.
type Sink interface {
	ProcessPacket(f *fingerprint.Fields, meta fingerprint.PacketMeta)
}

// Stats summarizes a feed run.
type Stats struct {
	Files     int    `json:"files"`
	Packets   uint64 `json:"packets"`
	Delivered uint64 `json:"delivered"`
	Skipped   uint64 `json:"skipped"`
}

// Feeder reads capture files and hands every IP packet to a Sink from a
// pool of decode workers.
type Feeder struct {
	Sink Sink
	// Workers is the number of concurrent decoders; zero means GOMAXPROCS.
	Workers int
	Logger  *zerolog.Logger
}

type framedPacket struct {
	frame uint64
	pkt   gopacket.Packet
}

// Run feeds paths in order. Frame numbers restart at 1 for every file. The
// first open or read error stops the run.
func (f Feeder) Run(ctx context.Context, paths ...string) (Stats, error) {
	if f.Sink == nil {
		return Stats{}, errors.New("capture sink is not configured")
	}
	logger := log.Logger
	if f.Logger != nil {
		logger = *f.Logger
	}
	logger = logger.With().Str("component", "capture").Logger()

	workers := f.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		packets   atomic.Uint64
		delivered atomic.Uint64
		skipped   atomic.Uint64
		files     int
	)

	g, gctx := errgroup.WithContext(ctx)
	queue := make(chan framedPacket, 256)

	g.Go(func() error {
		defer close(queue)
		for _, path := range paths {
			n, err := readFile(gctx, path, queue)
			packets.Add(n)
			if err != nil {
				return err
			}
			files++
			logger.Debug().Str("file", path).Uint64("packets", n).Msg("capture file read")
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for fp := range queue {
				fields, meta, ok := Decode(fp.pkt, fp.frame)
				if !ok {
					skipped.Add(1)
					continue
				}
				f.Sink.ProcessPacket(&fields, meta)
				delivered.Add(1)
			}
			return nil
		})
	}

	err := g.Wait()
	stats := Stats{
		Files:     files,
		Packets:   packets.Load(),
		Delivered: delivered.Load(),
		Skipped:   skipped.Load(),
	}
	if err != nil {
		logger.Warn().Err(err).Msg("capture feed stopped")
		return stats, err
	}
	logger.Debug().
		Int("files", stats.Files).
		Uint64("packets", stats.Packets).
		Uint64("skipped", stats.Skipped).
		Msg("capture feed complete")
	return stats, nil
}

func readFile(ctx context.Context, path string, out chan<- framedPacket) (uint64, error) {
	r, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = r.Close() }()

	var frame uint64
	for {
		pkt, err := r.Next()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return frame, nil
		}
		if err != nil {
			return frame, err
		}
		frame++
		select {
		case out <- framedPacket{frame: frame, pkt: pkt}:
		case <-ctx.Done():
			return frame, ctx.Err()
		}
	}
}
