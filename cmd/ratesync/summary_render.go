package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"ratesync/internal/outcome"
	"ratesync/internal/report"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	summaryLabelWidth = 24
	summaryIndent     = "  "
)

// writeSummary prints the end-of-run breakdown as aligned label/value lines.
func writeSummary(out io.Writer, s *outcome.Summary) {
	colorize := shouldColorize(out)

	title := "Sync complete"
	if s.DryRun {
		title = "Dry run complete"
	}
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}

	for _, stat := range report.Stats(s) {
		line := fmt.Sprintf("%s%-*s %s", summaryIndent, summaryLabelWidth, stat.Label+":", stat.Value)
		if colorize {
			if color := statColor(stat.Label); color != "" {
				line = color + line + ansiReset
			}
		}
		fmt.Fprintln(out, line)
	}
}

func statColor(label string) string {
	switch label {
	case "Updated", "Would update":
		return ansiGreen
	case "Skipped unchanged", "Filtered by type":
		return ""
	case "Processed":
		return ansiBlue
	case "Rate failed errors":
		return ansiRed
	default:
		return ansiYellow
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
