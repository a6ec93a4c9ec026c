//go:build linux

package remoteshell

import (
	"os/exec"
	"syscall"
)

// attachControllingTTY makes the pty slave (wired to fd 0 via
// cmd.Stdin) the child's controlling terminal and starts it in its own
// session, the usual pairing for a pty-backed shell.
func attachControllingTTY(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true, Ctty: 0}
}
