package main

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// writeTable prints rows as an aligned plain-text table. Widths are measured
// in display cells so Indonesian titles with wide glyphs still line up.
func writeTable(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if n := runewidth.StringWidth(row[i]); n > widths[i] {
				widths[i] = n
			}
		}
	}

	line := func(cells []string) string {
		var sb strings.Builder
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			if i < len(widths)-1 {
				sb.WriteString("  ")
			}
		}
		return strings.TrimRight(sb.String(), " ") + "\n"
	}

	if _, err := io.WriteString(w, line(header)); err != nil {
		return err
	}
	sep := make([]string, len(widths))
	for i, n := range widths {
		sep[i] = strings.Repeat("-", n)
	}
	if _, err := io.WriteString(w, line(sep)); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := io.WriteString(w, line(row)); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}
