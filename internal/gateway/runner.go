package gateway

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Runner abstracts process execution so the client can be tested without the
// real control script.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands on the host via os/exec.
type ExecRunner struct{}

// Output runs name with args and returns combined stdout and stderr, trimmed.
// A non-zero exit status is not an error: the script reports failures as text.
func (ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	out := strings.TrimSpace(buf.String())
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, nil
	}
	return out, err
}
