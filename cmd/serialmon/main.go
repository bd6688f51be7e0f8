// Command serialmon prints lines from a serial device until interrupted.
//
//	serialmon [-device /dev/ttyACM0] [flags] [baud]
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
	code := cli.Run(ctx, os.Args[1:], env, cli.MonitorPreset)
	stop()
	os.Exit(code)
}
