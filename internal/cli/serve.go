package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/open-line-parsers/internal/logx"
	"github.com/r9s-ai/open-line-parsers/internal/server"
	"github.com/r9s-ai/open-line-parsers/pkg/config"
)

type serveOptions struct {
	listen string
}

func newServeCmd(g *globalOptions) *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the row and directive readers over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServeWithOptions(ctx, cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.listen, "listen", "", "http listen address (overrides server.listen / LP_LISTEN)")
	return cmd
}

func runServeWithOptions(ctx context.Context, cfg *config.Config, opts serveOptions) error {
	if v := strings.TrimSpace(opts.listen); v != "" {
		cfg.Server.Listen = v
	}
	logger, logClose, err := logx.Open(cfg.Logging, nil)
	if err != nil {
		return fmt.Errorf("init log: %w", err)
	}
	if logClose != nil {
		defer func() { _ = logClose.Close() }()
	}
	return server.Run(ctx, cfg, logger)
}
