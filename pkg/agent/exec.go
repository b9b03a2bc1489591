package agent

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// ExecuteCommand runs cmd through bash, returning its exit status and
// combined stdout/stderr — grounded on node-agent/pkg/utils's
// ExecuteCommand(cmd, timeout) (statusCode int, output string)
// signature and its timeout-kill contract (the source's exec_test.go
// asserts status -1 and output "signal: killed" on timeout).
func ExecuteCommand(cmd string, timeout time.Duration) (int, string) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, "bash", "-c", cmd)
	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out
	err := c.Run()
	output := strings.TrimRight(out.String(), "\n")

	if err == nil {
		return 0, output
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if ctx.Err() == context.DeadlineExceeded {
			return -1, err.Error()
		}
		return exitErr.ExitCode(), output
	}
	return -1, err.Error()
}

// ExecuteScript runs an executable with args through exec.Command
// directly (no shell interpolation), mirroring ExecuteScript's
// signature in the same teacher package.
func ExecuteScript(args []string, timeout time.Duration) (int, string) {
	if len(args) == 0 {
		return -1, "no command given"
	}
	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, args[0], args[1:]...)
	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out
	err := c.Run()
	output := strings.TrimRight(out.String(), "\n")

	if err == nil {
		return 0, output
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if ctx.Err() == context.DeadlineExceeded {
			return -1, err.Error()
		}
		return exitErr.ExitCode(), output
	}
	return -1, err.Error()
}
