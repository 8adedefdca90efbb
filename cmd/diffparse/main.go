// Package main is the entry point for the diffparse CLI.
//
// All logic lives in the commands package.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/JNZader/diffparse/cmd/diffparse/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
