// Package cli implements the lineparse command tree.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/open-line-parsers/pkg/config"
)

const defaultConfigPath = "lineparse.yaml"

type globalOptions struct {
	cfgPath string
}

// loadConfig reads the config file when it exists and defaults otherwise.
func (g *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadIfExists(strings.TrimSpace(g.cfgPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", g.cfgPath, err)
	}
	return cfg, nil
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{cfgPath: defaultConfigPath}
	cmd := &cobra.Command{
		Use:           "lineparse",
		Short:         "Read delimited rows and KEY = VALUE directive files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&g.cfgPath, "config", "c", defaultConfigPath, "config yaml path")

	cmd.AddCommand(newRowsCmd(g))
	cmd.AddCommand(newDirectivesCmd(g))
	cmd.AddCommand(newExportCmd(g))
	cmd.AddCommand(newWatchCmd(g))
	cmd.AddCommand(newServeCmd(g))
	cmd.AddCommand(newTUICmd(g))
	cmd.AddCommand(newVersionCmd())
	return cmd
}
