//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// detachServer keeps Ctrl+C in the CLI console from reaching the server
func detachServer(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}
