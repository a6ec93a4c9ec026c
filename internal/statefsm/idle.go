package statefsm

import (
	"github.com/edgefleet/agent/internal/client"
	"github.com/edgefleet/agent/internal/identity"
	"github.com/edgefleet/agent/internal/logging"
	"github.com/edgefleet/agent/internal/timer"
)

// RunIdle polls inventory and update cadences until a deployment is
// accepted, returning nil once one is stashed on the context. It
// returns client.ErrUnauthorized the moment either poll surfaces a 401,
// unwinding straight back to Authorized's caller (spec §4.9).
func RunIdle(m *Machine) error {
	for !m.Ctx.Quit {
		m.Shell.EnsureRunning()

		if m.Ctx.InventoryTimer.IsItTime() {
			if err := syncInventory(m); err == client.ErrUnauthorized {
				return err
			}
		}

		if m.Ctx.UpdateTimer.IsItTime() {
			deviceType := identity.First(identity.DeviceType(m.Ctx.Paths), "device_type")
			artifactName := identity.First(identity.ArtifactInfo(m.Ctx.Paths), "artifact_name")

			info, err := client.PollNextDeployment(m.API, m.Ctx.Token, deviceType, artifactName)
			if err == client.ErrUnauthorized {
				return err
			}
			if info != nil {
				m.Ctx.Deployment = info
				if err := m.Ctx.DeploymentLogSink.Enable(); err != nil {
					logging.Op().Warn("failed to enable deployment log sink", "error", err)
				}
				logging.Op().Info("deployment accepted", "deployment_id", info.ID, "artifact", info.ArtifactName)
				return nil
			}
		}

		timer.Sleep(m.Ctx.UpdateTimer, m.Ctx.InventoryTimer)
	}
	return nil
}

// syncInventory aggregates the inventory scripts, device_type, and
// artifact_info (original aggregator.inventory.aggregate's dict.update
// order) and uploads the result if non-empty.
func syncInventory(m *Machine) error {
	attrs := mergeKeyValues(
		mergeKeyValues(identity.CollectInventory(m.Ctx.Paths), identity.DeviceType(m.Ctx.Paths)),
		identity.ArtifactInfo(m.Ctx.Paths),
	)
	if len(attrs) == 0 {
		return nil
	}

	err := client.SyncInventory(m.API, m.Ctx.Token, attrs)
	if err != nil && err != client.ErrUnauthorized {
		logging.Op().Warn("inventory sync failed", "error", err)
		return nil
	}
	return err
}
