package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"
)

// RunHeartbeat prints a numbered message at a fixed interval until ctx is
// cancelled or -count messages have been written. It stands in for a device
// when testing whatever consumes serialmon's output.
func RunHeartbeat(ctx context.Context, args []string, env Env) int {
	fs := flag.NewFlagSet("heartbeat", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	interval := fs.Duration("interval", 2*time.Second, "time between messages")
	message := fs.String("message", "output from pi", "message text; the counter is appended as #N")
	count := fs.Int("count", 0, "stop after this many messages (0 runs until interrupted)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}
	if *interval <= 0 || *count < 0 {
		fmt.Fprintln(env.Stderr, "heartbeat: -interval must be positive and -count not negative")
		return ExitUsage
	}

	fmt.Fprintln(env.Stdout, "# Test output from Pi starting...")
	fmt.Fprintf(env.Stdout, "# Outputting message every %s\n", *interval)
	fmt.Fprintln(env.Stdout, "# Press Ctrl+C to stop")

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for n := 1; ; n++ {
		fmt.Fprintf(env.Stdout, "%s #%d\n", *message, n)
		if *count > 0 && n >= *count {
			return ExitOK
		}
		select {
		case <-ctx.Done():
			fmt.Fprintln(env.Stdout, "\n# Stopped by user")
			return ExitOK
		case <-ticker.C:
		}
	}
}
