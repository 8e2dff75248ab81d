package tools

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ExitMissing is the exit code reported when a binary cannot be found,
// matching shell convention.
const ExitMissing int32 = 127

// Invocation describes one external command together with its execution
// context. Dir and Env apply to the child process only; Env entries are
// appended to the inherited environment.
type Invocation struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
}

// Command renders the invocation as a single display string for logs.
func (i Invocation) Command() string {
	if len(i.Args) == 0 {
		return i.Name
	}
	return i.Name + " " + strings.Join(i.Args, " ")
}

// CommandRunner abstracts external command execution for pipeline steps.
type CommandRunner interface {
	// Run executes a short probe command and returns captured stdout,
	// stderr, the exit code, and any execution error. A missing binary
	// reports ExitMissing.
	Run(name string, args ...string) ([]byte, []byte, int32, error)

	// Stream executes a long-running command with its output wired to the
	// given writers. Cancelling the context kills the child process.
	Stream(ctx context.Context, inv Invocation, stdout, stderr io.Writer) error
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

// tools command-runner implementation backed by os/exec.
func (r ExecRunner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := exec.Command(name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), int32(exitErr.ExitCode()), err
	}

	exitCode := int32(1)
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		exitCode = ExitMissing
	}
	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}

// tools streaming executor for long builds (configure, make, ninja).
func (r ExecRunner) Stream(ctx context.Context, inv Invocation, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...)
	if inv.Dir != "" {
		cmd.Dir = inv.Dir
	}
	if len(inv.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range inv.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}
	if stdout != nil {
		cmd.Stdout = stdout
	}
	if stderr != nil {
		cmd.Stderr = stderr
	}
	return cmd.Run()
}
