package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunHeartbeat_Count(t *testing.T) {
	var out, errOut bytes.Buffer
	code := RunHeartbeat(context.Background(), []string{"-interval=1ms", "-count=3"}, Env{Stdout: &out, Stderr: &errOut})

	assert.Equal(t, ExitOK, code)
	assert.Equal(t,
		"# Test output from Pi starting...\n"+
			"# Outputting message every 1ms\n"+
			"# Press Ctrl+C to stop\n"+
			"output from pi #1\n"+
			"output from pi #2\n"+
			"output from pi #3\n",
		out.String())
}

func TestRunHeartbeat_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	start := time.Now()
	code := RunHeartbeat(ctx, []string{"-interval=1h", "-message=tick"}, Env{Stdout: &out, Stderr: &bytes.Buffer{}})

	assert.Equal(t, ExitOK, code)
	assert.Less(t, time.Since(start), time.Minute)
	assert.Contains(t, out.String(), "tick #1\n")
	assert.NotContains(t, out.String(), "tick #2")
	assert.Contains(t, out.String(), "\n# Stopped by user\n")
}

func TestRunHeartbeat_Usage(t *testing.T) {
	for _, args := range [][]string{{"-interval=0s"}, {"-count=-1"}, {"-bogus"}} {
		var out, errOut bytes.Buffer
		assert.Equal(t, ExitUsage, RunHeartbeat(context.Background(), args, Env{Stdout: &out, Stderr: &errOut}), args)
		assert.Empty(t, out.String())
	}
}
