// Command serialprobe reads twenty lines from a device at 115200 baud and
// prints them numbered, as a quick check that a board is talking.
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
	code := cli.Run(ctx, os.Args[1:], env, cli.ProbePreset)
	stop()
	os.Exit(code)
}
