// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package signatures loads the static signature corpus (TCP stack, JA3 and
// MAC vendor tables) used to classify passively observed hosts.
package signatures

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultVersionConstraint accepts every 1.x data release.
const DefaultVersionConstraint = ">= 1.0.0, < 2.0.0"

//go:embed data/*.yaml
var embeddedData embed.FS

// Source yields the raw bytes of a signature table.
type Source interface {
	Name() string
	ReadTable(t Table) ([]byte, error)
}

// EmbeddedSource reads the tables compiled into the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) Name() string { return "embedded" }

func (EmbeddedSource) ReadTable(t Table) ([]byte, error) {
	return embeddedData.ReadFile("data/" + t.FileName())
}

// DirSource reads tables from <Dir>/<table>.yaml.
type DirSource struct {
	Dir string
}

func (s DirSource) Name() string { return "dir:" + s.Dir }

func (s DirSource) ReadTable(t Table) ([]byte, error) {
	if s.Dir == "" {
		return nil, errors.New("signature directory not specified")
	}
	return os.ReadFile(filepath.Join(s.Dir, t.FileName()))
}

// TableStatus is the load outcome of one table.
type TableStatus struct {
	Table    Table  `json:"table"`
	Version  string `json:"version,omitempty"`
	Count    int    `json:"count"`
	Err      error  `json:"-"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Report summarizes a corpus load.
type Report struct {
	Source string        `json:"source"`
	Tables []TableStatus `json:"tables"`
}

// Err joins every table error, or returns nil if all tables loaded.
func (r Report) Err() error {
	var errs []error
	for _, t := range r.Tables {
		if t.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Table, t.Err))
		}
	}
	return errors.Join(errs...)
}

// Loader parses and validates signature tables.
type Loader struct {
	logger     zerolog.Logger
	constraint *semver.Constraints
	validate   *validator.Validate
}

// NewLoader creates a Loader that accepts table versions matching
// constraint (DefaultVersionConstraint when empty).
func NewLoader(constraint string, logger zerolog.Logger) (*Loader, error) {
	if constraint == "" {
		constraint = DefaultVersionConstraint
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("parse version constraint %q: %w", constraint, err)
	}

	v := validator.New()
	if err := v.RegisterValidation("altnum", validateAlternatives); err != nil {
		return nil, fmt.Errorf("register validation: %w", err)
	}

	return &Loader{
		logger:     logger.With().Str("component", "signatures").Logger(),
		constraint: c,
		validate:   v,
	}, nil
}

// Load reads all three tables from src. It never fails: a TCP table that
// cannot be loaded is replaced by BuiltinTCPSignatures, JA3 and MAC tables
// that cannot be loaded stay empty. Problems are logged and reported.
func (l *Loader) Load(src Source) (*Corpus, Report) {
	report := Report{Source: src.Name()}

	tcpVersion, tcp, tcpErr := decodeTable[TCPSignature](l, src, TableTCP)
	if tcpErr == nil {
		tcpErr = checkUnique(tcp, func(s TCPSignature) string { return s.ID }, "id")
	}
	ja3Version, ja3, ja3Err := decodeTable[JA3Signature](l, src, TableJA3)
	if ja3Err == nil {
		ja3Err = checkUnique(ja3, func(s JA3Signature) string { return s.JA3Hash }, "ja3_hash")
	}
	macVersion, mac, macErr := decodeTable[MACVendor](l, src, TableMAC)
	if macErr == nil {
		macErr = checkOUIs(mac)
	}

	tcpStatus := TableStatus{Table: TableTCP, Version: tcpVersion, Count: len(tcp), Err: tcpErr}
	if tcpErr != nil {
		tcp = BuiltinTCPSignatures()
		tcpStatus = TableStatus{Table: TableTCP, Version: BuiltinVersion, Count: len(tcp), Err: tcpErr, Fallback: true}
		l.logger.Warn().Err(tcpErr).Str("source", src.Name()).Msg("TCP signature table unavailable, using built-in stack signatures")
	}
	ja3Status := TableStatus{Table: TableJA3, Version: ja3Version, Count: len(ja3), Err: ja3Err}
	if ja3Err != nil {
		ja3, ja3Status.Count = nil, 0
		l.logger.Warn().Err(ja3Err).Str("source", src.Name()).Msg("JA3 signature table unavailable, continuing without it")
	}
	macStatus := TableStatus{Table: TableMAC, Version: macVersion, Count: len(mac), Err: macErr}
	if macErr != nil {
		mac, macStatus.Count = nil, 0
		l.logger.Warn().Err(macErr).Str("source", src.Name()).Msg("MAC vendor table unavailable, continuing without it")
	}
	if tcpErr != nil && ja3Err != nil && macErr != nil {
		l.logger.Warn().Str("source", src.Name()).Msg("No signature table could be loaded, running on the built-in corpus")
	}

	report.Tables = []TableStatus{tcpStatus, ja3Status, macStatus}

	corpus := NewCorpus(tcp, ja3, mac)
	for _, st := range report.Tables {
		if st.Err == nil || st.Fallback {
			corpus.versions[st.Table] = st.Version
		}
	}

	l.logger.Debug().
		Str("source", src.Name()).
		Int("tcp", len(corpus.tcp)).
		Int("ja3", len(corpus.ja3)).
		Int("mac", len(corpus.mac)).
		Msg("signature corpus loaded")

	return corpus, report
}

func decodeTable[T any](l *Loader, src Source, t Table) (string, []T, error) {
	data, err := src.ReadTable(t)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", t.FileName(), err)
	}

	var file tableFile[T]
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return "", nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidTable, t.FileName(), err)
	}

	if err := l.checkVersion(file.Version); err != nil {
		return file.Version, nil, fmt.Errorf("%w: %s: %v", ErrInvalidTable, t.FileName(), err)
	}
	if err := l.validate.Struct(file); err != nil {
		return file.Version, nil, fmt.Errorf("%w: %s: %v", ErrInvalidTable, t.FileName(), err)
	}
	if len(file.Signatures) == 0 {
		return file.Version, nil, fmt.Errorf("%w: %s", ErrEmptyTable, t.FileName())
	}
	return file.Version, file.Signatures, nil
}

func (l *Loader) checkVersion(raw string) error {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("version %q: %w", raw, err)
	}
	if !l.constraint.Check(v) {
		return fmt.Errorf("version %s does not satisfy %s", v, l.constraint)
	}
	return nil
}

func checkUnique[T any](entries []T, key func(T) string, field string) error {
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		k := key(e)
		if prev, ok := seen[k]; ok {
			return fmt.Errorf("%w: duplicate %s %q at index %d (first at %d)", ErrInvalidTable, field, k, i, prev)
		}
		seen[k] = i
	}
	return nil
}

func checkOUIs(entries []MACVendor) error {
	for i, e := range entries {
		if NormalizeOUI(e.OUI) == "" {
			return fmt.Errorf("%w: invalid oui %q at index %d", ErrInvalidTable, e.OUI, i)
		}
	}
	return checkUnique(entries, func(v MACVendor) string { return NormalizeOUI(v.OUI) }, "oui")
}

// validateAlternatives accepts "|"-separated unsigned integers.
func validateAlternatives(fl validator.FieldLevel) bool {
	for _, alt := range strings.Split(fl.Field().String(), "|") {
		if _, err := strconv.ParseUint(strings.TrimSpace(alt), 10, 32); err != nil {
			return false
		}
	}
	return true
}

var (
	defaultOnce   sync.Once
	defaultCorpus *Corpus
)

// Default returns the corpus built from the embedded tables, loading it on
// first use.
func Default() *Corpus {
	defaultOnce.Do(func() {
		l, err := NewLoader("", log.Logger)
		if err != nil {
			defaultCorpus = NewCorpus(BuiltinTCPSignatures(), nil, nil)
			return
		}
		defaultCorpus, _ = l.Load(EmbeddedSource{})
	})
	return defaultCorpus
}
