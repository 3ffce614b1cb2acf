// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// OutputMode defines the output format for CLI commands
type OutputMode string

const (
	// ModeJSON outputs data as JSON
	ModeJSON OutputMode = "json"
	// ModeTable outputs data as aligned columns
	ModeTable OutputMode = "table"
)

// Formatter renders command results. Data goes to stdout; in table mode
// human notes go to stdout too, in JSON mode they move to stderr so stdout
// stays machine-readable.
type Formatter struct {
	stdout io.Writer
	stderr io.Writer
	mode   OutputMode
	color  bool
}

// New creates a new Formatter
func New(stdout, stderr io.Writer, mode OutputMode, color bool) *Formatter {
	return &Formatter{stdout: stdout, stderr: stderr, mode: mode, color: color}
}

// Mode reports the output mode.
func (f *Formatter) Mode() OutputMode {
	return f.mode
}

// PrintJSON outputs data as indented JSON to stdout
func (f *Formatter) PrintJSON(data any) error {
	enc := json.NewEncoder(f.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintTable outputs rows under headers. In JSON mode each row becomes an
// object keyed by header.
func (f *Formatter) PrintTable(headers []string, rows [][]string) error {
	if f.mode == ModeJSON {
		items := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			item := make(map[string]string, len(headers))
			for i, header := range headers {
				if i < len(row) {
					item[header] = row[i]
				}
			}
			items = append(items, item)
		}
		return f.PrintJSON(items)
	}

	w := tabwriter.NewWriter(f.stdout, 0, 0, 2, ' ', 0)
	head := make([]string, len(headers))
	for i, h := range headers {
		head[i] = strings.ToUpper(h)
		if f.color {
			head[i] = color.New(color.Bold).Sprint(head[i])
		}
	}
	if _, err := fmt.Fprintln(w, strings.Join(head, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}

// PrintSummary outputs a one-line note.
func (f *Formatter) PrintSummary(message string) error {
	out := f.stdout
	if f.mode == ModeJSON {
		out = f.stderr
	}
	if f.color {
		_, err := color.New(color.FgGreen).Fprintln(out, message)
		return err
	}
	_, err := fmt.Fprintln(out, message)
	return err
}

// PrintWarning outputs a note to stderr.
func (f *Formatter) PrintWarning(message string) error {
	if f.color {
		_, err := color.New(color.FgYellow).Fprintf(f.stderr, "⚠ %s\n", message)
		return err
	}
	_, err := fmt.Fprintf(f.stderr, "⚠ %s\n", message)
	return err
}

// PrintError outputs an error to stderr (or JSON to stdout in JSON mode)
func (f *Formatter) PrintError(err error) error {
	if err == nil {
		return nil
	}
	if f.mode == ModeJSON {
		return f.PrintJSON(map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}
	if f.color {
		_, werr := color.New(color.FgRed).Fprintf(f.stderr, "Error: %v\n", err)
		return werr
	}
	_, werr := fmt.Fprintf(f.stderr, "Error: %v\n", err)
	return werr
}

// ValidateMode checks if the output mode is valid
func ValidateMode(mode string) error {
	switch OutputMode(strings.ToLower(mode)) {
	case ModeJSON, ModeTable:
		return nil
	default:
		return fmt.Errorf("invalid output mode: %s (must be 'json' or 'table')", mode)
	}
}

// ParseMode converts a string to OutputMode, defaulting to table.
func ParseMode(mode string) OutputMode {
	if strings.EqualFold(mode, string(ModeJSON)) {
		return ModeJSON
	}
	return ModeTable
}
