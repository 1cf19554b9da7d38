// Package sysexec runs host programs: blocking helpers such as pactl and
// detached launches of user applications.
package sysexec

import (
	"context"
	"os/exec"
)

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands on the host.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Launcher starts a program without waiting for it.
type Launcher func(name string, args ...string) error

// StartDetached starts the program and reaps it in the background.
func StartDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
