// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// Stat is one labelled value of a summary box.
type Stat struct {
	Label string
	Value string
}

// PrintSummaryBox renders stats inside a bordered box. Plain output (no
// color, or JSON mode on stderr) drops the border.
func (f *Formatter) PrintSummaryBox(title string, stats []Stat) error {
	out := f.stdout
	if f.mode == ModeJSON {
		out = f.stderr
	}

	width := 0
	for _, s := range stats {
		width = max(width, len(s.Label))
	}

	lines := make([]string, 0, len(stats)+1)
	if f.color {
		lines = append(lines, titleStyle.Render(title))
	} else {
		lines = append(lines, title)
	}
	for _, s := range stats {
		label := fmt.Sprintf("%-*s", width+1, s.Label+":")
		if f.color {
			label = labelStyle.Render(label)
		}
		lines = append(lines, label+" "+s.Value)
	}

	body := strings.Join(lines, "\n")
	if f.color && f.mode != ModeJSON {
		body = boxStyle.Render(body)
	}
	_, err := fmt.Fprintln(out, body)
	return err
}

// PrintFailure prints an error with the suggestions registered for its code.
//
//	✗ Failed to sync signatures: invalid signature table: ...
//
//	💡 Suggestions:
//	  → Run 'hostprint signatures validate --dir <dir>' for per-entry details
func (f *Formatter) PrintFailure(operation string, err error, errorCode string, extra []string) error {
	suggestions := append(GetSuggestions(errorCode), extra...)

	if f.mode == ModeJSON {
		return f.PrintJSON(map[string]any{
			"success":     false,
			"operation":   operation,
			"error":       err.Error(),
			"error_code":  errorCode,
			"suggestions": suggestions,
		})
	}

	var sb strings.Builder
	msg := fmt.Sprintf("✗ Failed to %s: %v", operation, err)
	if f.color {
		sb.WriteString(color.RedString("%s\n", msg))
	} else {
		sb.WriteString(msg + "\n")
	}
	if len(suggestions) > 0 {
		sb.WriteString("\n💡 Suggestions:\n")
		seen := make(map[string]bool, len(suggestions))
		for _, s := range suggestions {
			if seen[s] {
				continue
			}
			seen[s] = true
			sb.WriteString("  → " + s + "\n")
		}
	}
	_, werr := f.stderr.Write([]byte(sb.String()))
	return werr
}

// GetSuggestions returns actionable hints for CLI-level error codes.
// Signature errors carry their own hints.
func GetSuggestions(errorCode string) []string {
	switch errorCode {
	case "HOST_NOT_FOUND":
		return []string{
			"List observed hosts:     hostprint analyze <capture...>",
			"Check --exclude and analyzer.exclude do not cover the address",
		}
	case "CAPTURE_OPEN_FAILED":
		return []string{
			"Check the path and read permissions",
			"Only pcap and pcapng files are supported",
		}
	default:
		return nil
	}
}
