package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// main wires the process environment into the root command and turns its
// outcome into an exit code. Everything else lives in internal packages.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], environment{
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		getenv:  os.Getenv,
		connect: connectPostgres,
		now:     time.Now,
	})
	stop()
	os.Exit(code)
}
