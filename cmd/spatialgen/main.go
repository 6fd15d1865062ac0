package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/spatialgen/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx); err != nil {
		cli.PrintError("%s", cli.ErrorMessage(err))
		cancel()
		os.Exit(cli.ExitCode(err))
	}
}
