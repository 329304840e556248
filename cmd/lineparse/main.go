package main

import (
	"context"
	"fmt"
	"os"

	"github.com/r9s-ai/open-line-parsers/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
