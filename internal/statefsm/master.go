package statefsm

import (
	"time"

	"github.com/edgefleet/agent/internal/agent"
	"github.com/edgefleet/agent/internal/logging"
)

const lockFilePollInterval = 60 * time.Second

// RunMaster is the top-level loop: wait out any lock file left by a
// previous installer run, then alternate Unauthorized/Authorized until
// m.Ctx.Quit is set (spec §4.9). It does not return in normal
// operation.
func RunMaster(m *Machine) {
	waitForLockFile(m.Ctx.Paths)

	for !m.Ctx.Quit {
		RunUnauthorized(m)
		if m.Ctx.Quit {
			return
		}
		RunAuthorized(m)
	}
}

// waitForLockFile blocks in 60-second ticks while an installer from a
// previous run still holds the lock file, per spec §4.9's startup gate.
func waitForLockFile(paths agent.Paths) {
	for agent.LockFileExists(paths) {
		logging.Op().Info("lock file present, waiting for installer to finish")
		time.Sleep(lockFilePollInterval)
	}
}
