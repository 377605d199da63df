package mixin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// DefaultWaitDelay bounds how long output pipes are drained after a child
// exits while a descendant still holds them open.
const DefaultWaitDelay = 2 * time.Second

// ExitStatus is how a child process terminated.
type ExitStatus struct {
	Code   int
	Signal string
	desc   string
}

// ExitCode builds the status of a process that exited normally.
func ExitCode(code int) ExitStatus {
	return ExitStatus{Code: code, desc: fmt.Sprintf("exit status %d", code)}
}

func (s ExitStatus) Success() bool {
	return s.Code == 0 && s.Signal == ""
}

func (s ExitStatus) String() string {
	switch {
	case s.desc != "":
		return s.desc
	case s.Signal != "":
		return "signal: " + s.Signal
	default:
		return fmt.Sprintf("exit status %d", s.Code)
	}
}

func exitStatusOf(ps *os.ProcessState) ExitStatus {
	st := ExitStatus{Code: ps.ExitCode(), desc: ps.String()}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		st.Signal = ws.Signal().String()
	}
	return st
}

// ProcessResult is the full outcome of a child process.
type ProcessResult struct {
	Status ExitStatus
	Stdout []byte
	Stderr []byte
}

// Command describes one child process. Input, when set, is passed as the
// last argument; it is kept apart from Args so diagnostics can name the
// configured arguments without the scratch file.
type Command struct {
	Binary string
	Args   []string
	Input  string
	Dir    string
}

func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Args...)
	if c.Input != "" {
		argv = append(argv, c.Input)
	}
	return argv
}

// Runner runs a command to completion. A non-zero exit is not an error;
// only failing to launch (or being cancelled) is.
type Runner interface {
	Run(ctx context.Context, c Command) (ProcessResult, error)
}

// ExecRunner runs commands with os/exec, capturing both output streams.
type ExecRunner struct {
	// Env, when non-nil, replaces the inherited environment.
	Env []string
	// WaitDelay overrides DefaultWaitDelay when positive.
	WaitDelay time.Duration
}

func (r ExecRunner) Run(ctx context.Context, c Command) (ProcessResult, error) {
	cmd := exec.Command(c.Binary, c.Argv()...)
	cmd.Dir = c.Dir
	if r.Env != nil {
		cmd.Env = r.Env
	}
	cmd.WaitDelay = DefaultWaitDelay
	if r.WaitDelay > 0 {
		cmd.WaitDelay = r.WaitDelay
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return ProcessResult{}, &LaunchError{Binary: c.Binary, Args: c.Args, Err: err}
	}

	stop := killOnCancel(ctx, cmd.Process.Pid)
	err := cmd.Wait()
	if stop() {
		return ProcessResult{}, &LaunchError{Binary: c.Binary, Args: c.Args, Err: context.Cause(ctx)}
	}
	// ErrWaitDelay means the child exited but a descendant kept a pipe
	// open; the status and the output read so far stand.
	if errors.Is(err, exec.ErrWaitDelay) {
		err = nil
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return ProcessResult{}, &LaunchError{Binary: c.Binary, Args: c.Args, Err: err}
	}
	return ProcessResult{
		Status: exitStatusOf(cmd.ProcessState),
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}, nil
}
