package statefsm

import (
	"github.com/edgefleet/agent/internal/client"
	"github.com/edgefleet/agent/internal/logging"
)

// RunAuthorized alternates Idle and Update until either child signals
// client.ErrUnauthorized, at which point it clears the token/authorized
// flag and returns control to Master (spec §4.9).
func RunAuthorized(m *Machine) {
	for !m.Ctx.Quit {
		if err := RunIdle(m); err != nil {
			unwindUnauthorized(m, err)
			return
		}
		if m.Ctx.Deployment == nil {
			// Quit was set mid-Idle; nothing to drive.
			return
		}

		if err := RunUpdate(m); err != nil {
			if err == ErrUnsupportedState {
				logging.Op().Error("update reached an unsupported state, abandoning deployment", "deployment_id", m.Ctx.Deployment.ID)
				m.Ctx.Deployment = nil
				continue
			}
			unwindUnauthorized(m, err)
			return
		}
	}
}

func unwindUnauthorized(m *Machine, err error) {
	if err != client.ErrUnauthorized {
		logging.Op().Error("unexpected error in authorized subtree, unwinding to unauthorized", "error", err)
	}
	m.Ctx.Authorized = false
	m.Ctx.Token = ""
}
