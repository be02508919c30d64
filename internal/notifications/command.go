package notifications

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
)

// Executor abstracts command execution for the mail transport.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdin io.Reader) (stderr []byte, err error)
}

// commandExecutor executes commands using os/exec.
type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdin = stdin
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// CommandOption configures a CommandTransport.
type CommandOption func(*CommandTransport)

// WithExecutor overrides the command executor.
func WithExecutor(exec Executor) CommandOption {
	return func(t *CommandTransport) {
		if exec != nil {
			t.exec = exec
		}
	}
}

// CommandTransport pipes the body into a mail(1)-compatible binary:
//
//	mail -s <subject> <recipient> --attach <file>...
//
// Exit status 0 is success.
type CommandTransport struct {
	binary string
	exec   Executor
}

// NewCommandTransport constructs a transport around binary.
func NewCommandTransport(binary string, opts ...CommandOption) *CommandTransport {
	t := &CommandTransport{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Args returns the argument list passed to the mail binary.
func (t *CommandTransport) Args(msg Message) []string {
	args := []string{"-s", msg.Subject, msg.Recipient}
	for _, file := range msg.Attachments {
		args = append(args, "--attach", file)
	}
	return args
}

func (t *CommandTransport) Send(ctx context.Context, msg Message) error {
	stderr, err := t.exec.Run(ctx, t.binary, t.Args(msg), strings.NewReader(msg.Body))
	if err == nil {
		return nil
	}
	transportErr := &TransportError{
		ExitCode: -1,
		Stderr:   strings.TrimSpace(string(stderr)),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		transportErr.ExitCode = exitErr.ExitCode()
	}
	return transportErr
}
