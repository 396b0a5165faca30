// Package main provides the pivotsql command.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/nao1215/pivotsql/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.NewApp().Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
