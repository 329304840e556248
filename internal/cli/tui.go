package cli

import (
	"github.com/spf13/cobra"

	"github.com/r9s-ai/open-line-parsers/internal/tui"
)

func newTUICmd(g *globalOptions) *cobra.Command {
	var flags rowFlags
	cmd := &cobra.Command{
		Use:   "tui FILE",
		Short: "Browse the rows of a delimited file interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			rep, err := readRows(cfg, args[0], flags)
			if err != nil {
				return err
			}
			return tui.Run(args[0], rep.Rows, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	flags.register(cmd)
	return cmd
}
