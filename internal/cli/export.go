package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/open-line-parsers/pkg/config"
	"github.com/r9s-ai/open-line-parsers/pkg/rowexport"
)

type exportOptions struct {
	rowFlags
	out    string
	format string
}

func newExportCmd(g *globalOptions) *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export the rows of a delimited file as parquet, csv or json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			return runExportWithOptions(cmd.OutOrStdout(), cfg, args[0], opts)
		},
	}
	opts.register(cmd)
	fs := cmd.Flags()
	fs.StringVarP(&opts.out, "out", "o", "", "output file path (default: FILE with the format extension)")
	fs.StringVarP(&opts.format, "format", "f", "", "parquet, csv or json (default: from --out extension, else parquet)")
	return cmd
}

func runExportWithOptions(out io.Writer, cfg *config.Config, path string, opts exportOptions) error {
	dst := strings.TrimSpace(opts.out)
	format := rowexport.FormatParquet
	switch {
	case strings.TrimSpace(opts.format) != "":
		f, err := rowexport.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		format = f
	case dst != "":
		f, err := rowexport.FormatFromPath(dst)
		if err != nil {
			return fmt.Errorf("%w (use --format)", err)
		}
		format = f
	}
	if dst == "" {
		dst = rowexport.DefaultPath(path, format)
	}

	rep, err := readRows(cfg, path, opts.rowFlags)
	if err != nil {
		return err
	}
	if err := rowexport.ExportFile(dst, format, rep.Rows); err != nil {
		return fmt.Errorf("export %q: %w", dst, err)
	}
	st := newStyles(out)
	_, err = fmt.Fprintln(out, st.ok.Render(fmt.Sprintf("wrote %d rows to %s (%s)", rep.Count, dst, format)))
	return err
}
