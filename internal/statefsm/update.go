package statefsm

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/edgefleet/agent/internal/client"
	"github.com/edgefleet/agent/internal/installer"
	"github.com/edgefleet/agent/internal/logging"
)

const (
	defaultDownloadResumeMinInterval = 60
	defaultDownloadResumeMaxInterval = 600
)

// downloadResumeInterval reads DOWNLOAD_RESUME_MIN_INTERVAL /
// DOWNLOAD_RESUME_MAX_INTERVAL, which exist purely as a test seam (spec
// §8 scenario 5 sets them to 2/5 to force fast backoff exhaustion) — they
// are not part of the enumerated Config keys.
func downloadResumeInterval(envVar string, fallback int) int {
	v := os.Getenv(envVar)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// ErrUnsupportedState is raised when the update reaches one of the
// rollback-family states this agent doesn't implement (spec §4.9's
// table lists them only to name the gap).
var ErrUnsupportedState = errors.New("reached an unsupported update state")

// updateState names a node in the Update state machine's table.
type updateState string

const (
	stateDownload        updateState = "Download"
	stateArtifactInstall updateState = "ArtifactInstall"
	stateArtifactFailure updateState = "ArtifactFailure"
	stateArtifactReboot  updateState = "ArtifactReboot"
	stateCommit          updateState = "Commit"
	stateRollback        updateState = "Rollback"
	stateRollbackReboot  updateState = "RollbackReboot"
	stateDone            updateState = ""
)

// updateStep is the capability every state implements: act on the
// machine's context and report which state follows. The dispatcher in
// RunUpdate holds no per-state knowledge beyond this table — new states
// plug in by adding a function and a table entry, not a new type
// hierarchy.
type updateStep func(m *Machine) (next updateState, err error)

var updateTable = map[updateState]updateStep{
	stateDownload:        stepDownload,
	stateArtifactInstall: stepArtifactInstall,
	stateArtifactFailure: stepArtifactFailure,
	stateArtifactReboot:  stepUnsupported,
	stateCommit:          stepUnsupported,
	stateRollback:        stepUnsupported,
	stateRollbackReboot:  stepUnsupported,
}

// RunUpdate drives the deployment stashed on m.Ctx.Deployment to
// completion, starting at Download (spec §4.9). It returns
// client.ErrUnauthorized if a 401 surfaces anywhere in the subtree, or
// ErrUnsupportedState if the table reaches one of the unimplemented
// rollback states. A successful ArtifactInstall step never returns: the
// process exits 0 directly, per spec, since the installer owns the
// reboot.
func RunUpdate(m *Machine) error {
	state := stateDownload
	for state != stateDone {
		step, ok := updateTable[state]
		if !ok {
			return fmt.Errorf("update state machine: no step registered for %q", state)
		}

		next, err := step(m)
		if err != nil {
			if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, ErrUnsupportedState) {
				return err
			}
			logging.Op().Warn("update step failed", "state", state, "error", err)
		}
		state = next

		if state != stateDone {
			time.Sleep(1 * time.Second)
		}
	}
	return nil
}

func stepDownload(m *Machine) (updateState, error) {
	dep := m.Ctx.Deployment
	minInterval := downloadResumeInterval("DOWNLOAD_RESUME_MIN_INTERVAL", defaultDownloadResumeMinInterval)
	maxInterval := downloadResumeInterval("DOWNLOAD_RESUME_MAX_INTERVAL", defaultDownloadResumeMaxInterval)
	err := client.Download(m.API, dep.ArtifactURI, m.Ctx.Paths.Artifact, minInterval, maxInterval)
	if err != nil {
		return stateArtifactFailure, err
	}

	if err := client.ReportStatus(m.API, m.Ctx.Token, dep.ID, client.StatusDownloading); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return stateDone, err
		}
		logging.Op().Warn("failed to report downloading status", "error", err)
	}
	return stateArtifactInstall, nil
}

func stepArtifactInstall(m *Machine) (updateState, error) {
	dep := m.Ctx.Deployment
	ok, err := installer.Run(m.Ctx.Paths, dep.ID, m.Ctx.Paths.Artifact)
	if !ok {
		return stateArtifactFailure, err
	}

	logging.Op().Info("installer spawned, exiting for it to take over", "deployment_id", dep.ID)
	os.Exit(0)
	return stateDone, nil // unreachable; keeps the compiler satisfied
}

func stepArtifactFailure(m *Machine) (updateState, error) {
	dep := m.Ctx.Deployment

	if err := client.ReportStatus(m.API, m.Ctx.Token, dep.ID, client.StatusFailure); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return stateDone, err
		}
		logging.Op().Warn("failed to report failure status", "error", err)
	}

	records := m.Ctx.DeploymentLogSink.Marshal()
	if err := client.ReportLog(m.API, m.Ctx.Token, dep.ID, records); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return stateDone, err
		}
		logging.Op().Warn("failed to upload deployment log", "error", err)
	}

	m.Ctx.DeploymentLogSink.Disable()
	m.Ctx.Deployment = nil
	return stateDone, nil
}

func stepUnsupported(m *Machine) (updateState, error) {
	return stateDone, ErrUnsupportedState
}
