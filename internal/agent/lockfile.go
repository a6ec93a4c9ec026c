package agent

import (
	"os"
	"strings"
)

// LockFileExists reports whether an update is in progress, per spec §3:
// the lock file's presence alone is the authoritative cross-process flag.
func LockFileExists(paths Paths) bool {
	_, err := os.Stat(paths.LockFile)
	return err == nil
}

// WriteLockFile records deploymentID as the in-progress deployment. The
// installer (external contract) removes the file on completion.
func WriteLockFile(paths Paths, deploymentID string) error {
	return os.WriteFile(paths.LockFile, []byte(deploymentID), 0644)
}

// ReadLockFile returns the deployment ID recorded in the lock file, used
// by the `report` CLI subcommand which requires a live lock file.
func ReadLockFile(paths Paths) (string, error) {
	data, err := os.ReadFile(paths.LockFile)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
