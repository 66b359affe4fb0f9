// Package hooks runs operator-configured shell commands when the poller
// publishes an event.
package hooks

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Timeouts for hook commands.
const (
	DefaultTimeout = 30 * time.Second
	MaxTimeout     = 300 * time.Second

	waitDelay = 2 * time.Second
)

// Result is the outcome of one hook command. Output is stdout, or stderr
// when stdout was empty. ExitCode is -1 if the command did not exit on its
// own, such as after a timeout kill.
type Result struct {
	Output   string
	ExitCode int
	Err      error
}

// Execute runs command via "sh -c" with the given timeout in seconds. env is
// overlaid on the process environment.
func Execute(ctx context.Context, command string, timeoutSec int, env map[string]string) Result {
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}

	hookCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(hookCtx, "sh", "-c", command) //nolint:gosec // hook commands come from the config file
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children of sh can keep the output pipes open after a timeout kill.
	cmd.WaitDelay = waitDelay

	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	res := Result{Err: cmd.Run()}
	res.Output = strings.TrimSpace(stdout.String())
	if res.Output == "" {
		res.Output = strings.TrimSpace(stderr.String())
	}

	var exitErr *exec.ExitError
	switch {
	case res.Err == nil:
	case errors.As(res.Err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
	}
	return res
}
