package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/open-line-parsers/internal/version"
)

func newVersionCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := normalizeOutputFormat(format)
			if err != nil {
				return err
			}
			info := version.Get()
			if f != formatText {
				return writeStructured(cmd.OutOrStdout(), f, info)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), info)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, json or yaml")
	return cmd
}
