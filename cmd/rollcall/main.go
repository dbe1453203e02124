package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/cli"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "rollcall:", cli.Describe(err))
		stop()
		os.Exit(1)
	}
}
