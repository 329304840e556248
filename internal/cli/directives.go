package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/open-line-parsers/pkg/config"
	"github.com/r9s-ai/open-line-parsers/pkg/directive"
)

type directiveFlags struct {
	keys []string
	stop []string
}

func (f *directiveFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringArrayVarP(&f.keys, "key", "k", nil, "known directive key, repeatable (overrides directives.known_keys)")
	fs.StringArrayVar(&f.stop, "stop", nil, "key that stops parsing, repeatable (overrides directives.stop_keys)")
}

func (f directiveFlags) options(cfg *config.Config) directive.CollectOptions {
	opts := directive.CollectOptions{
		Known:        cfg.Directives.KnownKeys,
		Stop:         cfg.Directives.StopKeys,
		MaxLineBytes: cfg.Directives.MaxLineBytes,
	}
	if len(f.keys) > 0 {
		opts.Known = f.keys
	}
	if len(f.stop) > 0 {
		opts.Stop = f.stop
	}
	return opts
}

type directivesOptions struct {
	directiveFlags
	format string
}

type directivesReport struct {
	File             string `json:"file" yaml:"file"`
	directive.Result `yaml:",inline"`
}

func newDirectivesCmd(g *globalOptions) *cobra.Command {
	var opts directivesOptions
	cmd := &cobra.Command{
		Use:   "directives FILE",
		Short: "Print the KEY = VALUE directives of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			return runDirectivesWithOptions(cmd.OutOrStdout(), cfg, args[0], opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: text, json or yaml")
	return cmd
}

func runDirectivesWithOptions(out io.Writer, cfg *config.Config, path string, opts directivesOptions) error {
	format, err := normalizeOutputFormat(opts.format)
	if err != nil {
		return err
	}
	rep, err := readDirectives(cfg, path, opts.directiveFlags)
	if err != nil {
		return err
	}
	if format != formatText {
		return writeStructured(out, format, rep)
	}
	return writeDirectivesText(out, rep)
}

func readDirectives(cfg *config.Config, path string, flags directiveFlags) (directivesReport, error) {
	res, err := directive.CollectFile(path, flags.options(cfg))
	if err != nil {
		return directivesReport{}, fmt.Errorf("read directives %q: %w", path, err)
	}
	if res.Assignments == nil {
		res.Assignments = []directive.Assignment{}
	}
	return directivesReport{File: path, Result: res}, nil
}

func writeDirectivesText(out io.Writer, rep directivesReport) error {
	st := newStyles(out)
	var b strings.Builder
	for _, a := range rep.Assignments {
		if a.Known {
			fmt.Fprintf(&b, "line#%d: the command '%s' got the value '%s'\n", a.Line, a.Key, a.Value)
			continue
		}
		b.WriteString(st.warn.Render(fmt.Sprintf("line#%d: unhandled command '%s' got the value '%s'", a.Line, a.Key, a.Value)))
		b.WriteByte('\n')
	}
	if !rep.Completed {
		b.WriteString(st.warn.Render(fmt.Sprintf("stopped at line#%d", rep.StoppedAt)))
		b.WriteByte('\n')
	}
	if rep.Truncated > 0 {
		b.WriteString(st.warn.Render(fmt.Sprintf("%d lines truncated", rep.Truncated)))
		b.WriteByte('\n')
	}
	b.WriteString(st.dim.Render(fmt.Sprintf("%d directives from %d lines", len(rep.Assignments), rep.Lines)))
	b.WriteByte('\n')
	_, err := io.WriteString(out, b.String())
	return err
}
