package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/imcctl/internal/observability"
	_ "github.com/danmuck/imcctl/internal/protocol/messages"
)

func main() {
	observability.InitLogger("imcctl")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "imcctl: %v\n", err)
		stop()
		os.Exit(1)
	}
}
