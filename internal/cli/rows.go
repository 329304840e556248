package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/open-line-parsers/pkg/config"
	"github.com/r9s-ai/open-line-parsers/pkg/rowexport"
	"github.com/r9s-ai/open-line-parsers/pkg/rowreader"
)

type rowFlags struct {
	delimiter    string
	comment      string
	minColumns   int
	maxLineBytes int
}

func (f *rowFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.delimiter, "delimiter", "d", "", "field delimiter, one byte (overrides rows.delimiter)")
	fs.StringVar(&f.comment, "comment", "", "comment marker, one byte (overrides rows.comment)")
	fs.IntVarP(&f.minColumns, "min-columns", "m", -1, "skip rows with fewer fields (overrides rows.min_columns)")
	fs.IntVar(&f.maxLineBytes, "max-line-bytes", 0, "line length bound in bytes (overrides rows.max_line_bytes)")
}

// options merges the flags over the config's rows section.
func (f rowFlags) options(cfg *config.Config) (rowreader.Options, error) {
	opts := cfg.RowOptions()
	if f.delimiter != "" {
		if len(f.delimiter) != 1 {
			return opts, fmt.Errorf("--delimiter must be exactly one byte, got %q", f.delimiter)
		}
		opts.Delimiter = f.delimiter[0]
	}
	if f.comment != "" {
		if len(f.comment) != 1 {
			return opts, fmt.Errorf("--comment must be exactly one byte, got %q", f.comment)
		}
		opts.Comment = f.comment[0]
	}
	if opts.Delimiter == opts.Comment {
		return opts, errors.New("--delimiter and --comment must differ")
	}
	if f.minColumns >= 0 {
		opts.MinColumns = f.minColumns
	}
	if f.maxLineBytes > 0 {
		opts.MaxLineBytes = f.maxLineBytes
	}
	return opts, nil
}

type rowsOptions struct {
	rowFlags
	format string
}

type rowsReport struct {
	File      string             `json:"file" yaml:"file"`
	Count     int                `json:"count" yaml:"count"`
	LineCount int                `json:"line_count" yaml:"line_count"`
	Truncated int                `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Rows      []rowexport.Record `json:"rows" yaml:"rows"`

	delimiter byte
}

func newRowsCmd(g *globalOptions) *cobra.Command {
	var opts rowsOptions
	cmd := &cobra.Command{
		Use:   "rows FILE",
		Short: "Print the rows of a delimited file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			return runRowsWithOptions(cmd.OutOrStdout(), cfg, args[0], opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: text, json or yaml")
	return cmd
}

func runRowsWithOptions(out io.Writer, cfg *config.Config, path string, opts rowsOptions) error {
	format, err := normalizeOutputFormat(opts.format)
	if err != nil {
		return err
	}
	rep, err := readRows(cfg, path, opts.rowFlags)
	if err != nil {
		return err
	}
	if format != formatText {
		return writeStructured(out, format, rep)
	}
	return writeRowsText(out, rep)
}

func readRows(cfg *config.Config, path string, flags rowFlags) (rowsReport, error) {
	ropts, err := flags.options(cfg)
	if err != nil {
		return rowsReport{}, err
	}
	rr := rowreader.New(ropts)
	recs, err := rowexport.CollectFile(rr, path)
	if err != nil {
		return rowsReport{}, fmt.Errorf("read rows %q: %w", path, err)
	}
	if recs == nil {
		recs = []rowexport.Record{}
	}
	return rowsReport{
		File:      path,
		Count:     len(recs),
		LineCount: rr.Line(),
		Truncated: rr.Truncated(),
		Rows:      recs,
		delimiter: ropts.Delimiter,
	}, nil
}

func writeRowsText(out io.Writer, rep rowsReport) error {
	st := newStyles(out)
	var b strings.Builder
	for _, r := range rep.Rows {
		fmt.Fprintf(&b, "line#%d: ", r.Line)
		for _, f := range r.Fields {
			b.WriteString(f)
			b.WriteByte(rep.delimiter)
		}
		b.WriteByte('\n')
	}
	summary := fmt.Sprintf("%d rows from %d lines", rep.Count, rep.LineCount)
	b.WriteString(st.dim.Render(summary))
	b.WriteByte('\n')
	if rep.Truncated > 0 {
		b.WriteString(st.warn.Render(fmt.Sprintf("%d lines truncated", rep.Truncated)))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(out, b.String())
	return err
}
