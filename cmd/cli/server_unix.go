//go:build !windows

package main

import (
	"os/exec"
	"syscall"
)

// detachServer runs the auto-started server in its own session so it
// outlives the CLI and ignores the terminal's signals.
func detachServer(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
