// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package signatures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const lockFileName = ".sync.lock"

// Fetcher retrieves the raw bytes of a signature table from a remote or
// local origin.
type Fetcher interface {
	Fetch(ctx context.Context, t Table) ([]byte, error)
}

// FileFetcher reads tables from a local directory.
type FileFetcher struct {
	Dir string
}

func (f FileFetcher) Fetch(_ context.Context, t Table) ([]byte, error) {
	if f.Dir == "" {
		return nil, errors.New("directory is empty")
	}
	return os.ReadFile(filepath.Join(f.Dir, t.FileName()))
}

// HTTPFetcher downloads <BaseURL>/<table>.yaml using the provided
// http.Client (or a default one with a 30s timeout).
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

func (h HTTPFetcher) Fetch(ctx context.Context, t Table) ([]byte, error) {
	if h.BaseURL == "" {
		return nil, errors.New("url is empty")
	}
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	url := strings.TrimRight(h.BaseURL, "/") + "/" + t.FileName()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", t.FileName(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status for %s: %s", t.FileName(), resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", t.FileName(), err)
	}
	return data, nil
}

// bytesSource serves tables already held in memory.
type bytesSource struct {
	name   string
	tables map[Table][]byte
}

func (b bytesSource) Name() string { return b.name }

func (b bytesSource) ReadTable(t Table) ([]byte, error) {
	data, ok := b.tables[t]
	if !ok {
		return nil, fmt.Errorf("%s not fetched", t.FileName())
	}
	return data, nil
}

// SyncService refreshes the on-disk signature cache.
type SyncService struct {
	Fetcher  Fetcher
	Loader   *Loader
	CacheDir string
	// LockTimeout bounds the wait for a concurrent sync; zero means 10s.
	LockTimeout time.Duration
}

// Sync fetches all three tables, validates them as a set and, only if every
// table is valid, writes them into CacheDir. Concurrent syncs against the
// same cache directory are serialized with a lock file.
func (s SyncService) Sync(ctx context.Context) (*Corpus, Report, error) {
	if s.Fetcher == nil {
		return nil, Report{}, errors.New("signature fetcher is not configured")
	}
	if s.Loader == nil {
		return nil, Report{}, errors.New("signature loader is not configured")
	}
	if s.CacheDir == "" {
		return nil, Report{}, errors.New("cache directory is not configured")
	}

	src := bytesSource{name: "sync", tables: make(map[Table][]byte, 3)}
	for _, t := range Tables() {
		data, err := s.Fetcher.Fetch(ctx, t)
		if err != nil {
			return nil, Report{}, WrapSyncError(fmt.Errorf("fetch signatures: %w", err))
		}
		src.tables[t] = data
	}

	corpus, report := s.Loader.Load(src)
	if err := report.Err(); err != nil {
		return nil, report, fmt.Errorf("validate signatures: %w", err)
	}

	if err := os.MkdirAll(s.CacheDir, 0o755); err != nil {
		return nil, report, WrapSyncError(fmt.Errorf("create cache directory: %w", err))
	}

	timeout := s.LockTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lock := flock.New(filepath.Join(s.CacheDir, lockFileName))
	locked, err := lock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil {
		return nil, report, WrapSyncError(fmt.Errorf("acquire cache lock: %w", err))
	}
	if !locked {
		return nil, report, WrapSyncError(errors.New("acquire cache lock: cache is locked by another process"))
	}
	defer func() { _ = lock.Unlock() }()

	for _, t := range Tables() {
		if err := writeAtomic(filepath.Join(s.CacheDir, t.FileName()), src.tables[t]); err != nil {
			return nil, report, WrapSyncError(fmt.Errorf("save %s: %w", t.FileName(), err))
		}
	}

	report.Source = DirSource{Dir: s.CacheDir}.Name()
	return corpus, report, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
