package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"licensegate/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.New().Command().ExecuteContext(ctx)
	code := cli.ExitCode(err)
	if code == cli.ExitFailure {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	stop()
	os.Exit(code)
}
