// Package installer runs the external installer binary and hands the
// rest of the deployment off to it (C6). Grounded on the teacher's
// firecracker VM launch (internal/firecracker/vm.go): exec.Command with
// SysProcAttr.Setpgid so the child survives the parent's exit, Start()
// without Wait().
package installer

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"github.com/edgefleet/agent/internal/agent"
	"github.com/edgefleet/agent/internal/logging"
)

// ErrInstallerMissing is returned when the configured installer binary
// does not exist; no lock file is written in this case.
var ErrInstallerMissing = errors.New("installer binary not found")

// Run writes the lock file and spawns the installer as a detached
// child with artifactPath as argv[1] (spec §4.6). It does not wait for
// the installer to finish — the installer is expected to outlive the
// agent and reboot the system. Returns true only once the child has
// been successfully started.
func Run(paths agent.Paths, deploymentID, artifactPath string) (bool, error) {
	if _, err := os.Stat(paths.Installer); err != nil {
		return false, ErrInstallerMissing
	}

	if err := agent.WriteLockFile(paths, deploymentID); err != nil {
		return false, err
	}

	cmd := exec.Command(paths.Installer, artifactPath)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		logging.Op().Error("installer: failed to spawn", "error", err)
		os.Remove(paths.LockFile)
		return false, err
	}

	logging.Op().Info("installer: spawned detached installer", "deployment_id", deploymentID, "pid", cmd.Process.Pid)
	return true, nil
}
