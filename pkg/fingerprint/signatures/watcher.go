// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package signatures

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReloadFunc receives every corpus rebuilt by a Watcher.
type ReloadFunc func(*Corpus, Report)

// Watcher reloads a signature directory whenever one of its table files
// changes. Rapid successive writes are coalesced into a single reload.
//
// A reload always builds a fresh Corpus; corpora already handed out are
// never modified.
type Watcher struct {
	dir      string
	loader   *Loader
	onReload ReloadFunc

	watcher       *fsnotify.Watcher
	debounceDelay time.Duration
	logger        zerolog.Logger

	// mu protects debounceTimer and stopped
	mu            sync.Mutex
	debounceTimer *time.Timer
	stopped       bool
	inflight      sync.WaitGroup
}

// NewWatcher creates a watcher for dir. Start must be called to begin
// watching.
func NewWatcher(dir string, loader *Loader, onReload ReloadFunc, logger zerolog.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		dir:           dir,
		loader:        loader,
		onReload:      onReload,
		watcher:       watcher,
		debounceDelay: 200 * time.Millisecond,
		logger:        logger.With().Str("component", "signatures.watcher").Logger(),
	}, nil
}

// Start blocks until ctx is canceled, reloading on table file changes:
//
//	go watcher.Start(ctx)
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		w.logger.Error().
			Err(err).
			Str("dir", w.dir).
			Msg("Failed to watch signature directory")
		return err
	}

	w.logger.Info().
		Str("dir", w.dir).
		Dur("debounce", w.debounceDelay).
		Msg("Started watching signature directory")

	defer func() {
		w.shutdown()
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("Error closing watcher")
		}
		w.logger.Info().Msg("Stopped watching signature directory")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !isTableFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.logger.Debug().
					Str("op", event.Op.String()).
					Str("file", event.Name).
					Msg("Detected signature file change")
				w.scheduleReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().
				Err(err).
				Msg("File watcher error")
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		w.mu.Lock()
		if w.stopped {
			w.mu.Unlock()
			return
		}
		w.inflight.Add(1)
		w.mu.Unlock()
		defer w.inflight.Done()

		corpus, report := w.loader.Load(DirSource{Dir: w.dir})
		if err := report.Err(); err != nil {
			w.logger.Warn().Err(err).Msg("Signature reload finished with errors")
		} else {
			w.logger.Info().Msg("Signatures reloaded successfully")
		}
		if w.onReload != nil {
			w.onReload(corpus, report)
		}
	})
}

// shutdown cancels a pending reload and waits for a running one, so no
// ReloadFunc call happens after Start returns.
func (w *Watcher) shutdown() {
	w.mu.Lock()
	w.stopped = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()
	w.inflight.Wait()
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func isTableFile(path string) bool {
	base := filepath.Base(path)
	for _, t := range Tables() {
		if base == t.FileName() {
			return true
		}
	}
	return false
}
