package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/open-line-parsers/internal/logx"
	"github.com/r9s-ai/open-line-parsers/internal/watch"
	"github.com/r9s-ai/open-line-parsers/pkg/config"
)

const (
	watchModeRows       = "rows"
	watchModeDirectives = "directives"
)

type watchOptions struct {
	rowFlags
	directiveFlags
	mode   string
	format string
}

func newWatchCmd(g *globalOptions) *cobra.Command {
	var opts watchOptions
	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-read a file every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatchWithOptions(ctx, cmd.OutOrStdout(), cfg, args[0], opts)
		},
	}
	opts.rowFlags.register(cmd)
	opts.directiveFlags.register(cmd)
	fs := cmd.Flags()
	fs.StringVar(&opts.mode, "mode", watchModeRows, "what to read: rows or directives")
	fs.StringVarP(&opts.format, "format", "f", formatText, "output format: text, json or yaml")
	return cmd
}

func runWatchWithOptions(ctx context.Context, out io.Writer, cfg *config.Config, path string, opts watchOptions) error {
	mode := strings.ToLower(strings.TrimSpace(opts.mode))
	if mode != watchModeRows && mode != watchModeDirectives {
		return fmt.Errorf("unsupported --mode %q (supported: rows, directives)", opts.mode)
	}
	format, err := normalizeOutputFormat(opts.format)
	if err != nil {
		return err
	}

	logger, logClose, err := logx.Open(cfg.Logging, nil)
	if err != nil {
		return fmt.Errorf("init log: %w", err)
	}
	if logClose != nil {
		defer func() { _ = logClose.Close() }()
	}

	render := func() {
		var err error
		switch mode {
		case watchModeDirectives:
			err = runDirectivesWithOptions(out, cfg, path, directivesOptions{directiveFlags: opts.directiveFlags, format: format})
		default:
			err = runRowsWithOptions(out, cfg, path, rowsOptions{rowFlags: opts.rowFlags, format: format})
		}
		if err != nil {
			logger.Printf("watch render failed: path=%q err=%v", path, err)
		}
	}
	// validate flags once before waiting on changes.
	if mode == watchModeRows {
		if _, err := opts.rowFlags.options(cfg); err != nil {
			return err
		}
	}

	render()
	debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
	closer, err := watch.Install(path, debounce, render)
	if err != nil {
		return fmt.Errorf("watch %q: %w", path, err)
	}
	defer func() { _ = closer.Close() }()

	logger.Printf("watching: path=%q mode=%s debounce_ms=%d", path, mode, cfg.Watch.DebounceMs)
	<-ctx.Done()
	return nil
}
