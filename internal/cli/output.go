package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Format selects how command results are written.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an --output value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// Printer writes records in the chosen format. Table output is for people;
// json and yaml carry v unchanged for scripts.
type Printer struct {
	Format Format
	Out    io.Writer
}

// Table writes v as json or yaml, or headers and rows as a table.
func (p Printer) Table(v any, headers []string, rows [][]string) error {
	switch p.Format {
	case FormatJSON, FormatYAML:
		return p.encode(v)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(p.Out, "No records.")
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(p.Out, t.Render())
	return err
}

// Result writes v as json or yaml, or the one-line summary as text.
func (p Printer) Result(v any, summary string) error {
	switch p.Format {
	case FormatJSON, FormatYAML:
		return p.encode(v)
	}
	_, err := fmt.Fprintln(p.Out, summary)
	return err
}

func (p Printer) encode(v any) error {
	if p.Format == FormatYAML {
		enc := yaml.NewEncoder(p.Out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}
