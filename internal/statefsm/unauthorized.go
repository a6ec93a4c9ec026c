package statefsm

import (
	"github.com/edgefleet/agent/internal/client"
	"github.com/edgefleet/agent/internal/logging"
	"github.com/edgefleet/agent/internal/timer"
)

// RunUnauthorized loops Authorize-then-Idle until a token is acquired,
// then stores it on the context and returns (spec §4.9).
func RunUnauthorized(m *Machine) {
	for !m.Ctx.Quit {
		if m.Ctx.RetryTimer.IsItTime() {
			token := client.Authenticate(m.API, m.Ctx.Identity, m.Ctx.Key, m.Ctx.Config.TenantToken)
			if token != "" {
				m.Ctx.Token = token
				m.Ctx.Authorized = true
				logging.Op().Info("authorized with the server")
				return
			}
			logging.Op().Info("not yet authorized, will retry", "retry_in_seconds", m.Ctx.RetryTimer.SecondsTillNext())
		}
		timer.Sleep(m.Ctx.RetryTimer, nil)
	}
}
