package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/r9s-ai/open-line-parsers/internal/logx"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func normalizeOutputFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", formatText:
		return formatText, nil
	case formatJSON, formatYAML:
		return f, nil
	case "yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("unsupported --format %q (supported: text, json, yaml)", s)
	}
}

func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported structured format %q", format)
	}
}

// styles renders summary lines, colored only on a terminal.
type styles struct {
	ok   lipgloss.Style
	warn lipgloss.Style
	dim  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	if !logx.UseColor(w) {
		plain := lipgloss.NewStyle()
		return styles{ok: plain, warn: plain, dim: plain}
	}
	return styles{
		ok:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		warn: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		dim:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
}
