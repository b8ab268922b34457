// Package main is the main package.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/act3-ai/go-common/pkg/cmd"

	"github.com/act3-ai/forge/docs"
	"github.com/act3-ai/forge/internal/cli"
)

// version is set at build time with ldflags.
var version = "dev"

func main() {
	root := cli.NewCLI(version)

	embedded := docs.Embedded(root)
	root.AddCommand(
		cmd.NewInfoCmd(embedded),
		cmd.NewGendocsCmd(embedded),
		cmd.NewGenschemaCmd(docs.Schemas(), docs.SchemaAssociations),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
