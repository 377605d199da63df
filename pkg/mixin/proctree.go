package mixin

import (
	"context"

	"github.com/shirou/gopsutil/v4/process"
)

// killOnCancel kills the process tree rooted at pid if ctx is cancelled
// before the returned stop function is called. stop reports whether the
// kill fired.
func killOnCancel(ctx context.Context, pid int) (stop func() bool) {
	if ctx.Done() == nil {
		return func() bool { return false }
	}
	done := make(chan struct{})
	fired := make(chan bool, 1)
	go func() {
		select {
		case <-ctx.Done():
			_ = killTree(int32(pid))
			fired <- true
		case <-done:
			fired <- false
		}
	}()
	return func() bool {
		close(done)
		return <-fired
	}
}

// killTree kills pid and all of its descendants, children first.
func killTree(pid int32) error {
	p, err := process.NewProcess(pid)
	if err != nil {
		return err
	}
	children, _ := p.Children()
	for _, c := range children {
		_ = killTree(c.Pid)
	}
	return p.Kill()
}
