package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Station-Manager/serialmon/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	env := cli.Env{Stdout: os.Stdout, Stderr: os.Stderr}
	code := cli.RunHeartbeat(ctx, os.Args[1:], env)
	stop()
	os.Exit(code)
}
