package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	rootcmd "github.com/go-ports/todo/cmd/todo/root"
	"github.com/go-ports/todo/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	return rootcmd.New().ExecuteContext(ctx)
}
