package agent

import (
	"github.com/edgefleet/agent/internal/config"
	"github.com/edgefleet/agent/internal/deploylog"
	"github.com/edgefleet/agent/internal/security"
	"github.com/edgefleet/agent/internal/timer"
)

// Context is the process-wide state the master loop owns exclusively;
// every other component receives it as an immutable-for-their-duration
// view (spec §3). It replaces the dynamic attribute-bag pattern with
// fields declared up front; optional fields use explicit pointer/empty-
// string absence rather than an "attribute present?" check.
type Context struct {
	Config   *config.Config
	Paths    Paths
	Identity map[string][]string
	Key      security.Signer

	Token      string
	Authorized bool

	Deployment *DeploymentInfo

	InventoryTimer *timer.IntervalTimer
	UpdateTimer    *timer.IntervalTimer
	RetryTimer     *timer.IntervalTimer

	DeploymentLogSink *deploylog.Sink

	// Quit is checked at the top of each state-machine loop iteration to
	// allow a best-effort graceful shutdown (spec §5 — there is no
	// cross-cutting cancellation token).
	Quit bool
}

// New assembles a Context from its already-loaded parts. Called once at
// startup by the daemon command after config/identity/key have been
// resolved.
func New(cfg *config.Config, paths Paths, identity map[string][]string, key security.Signer) *Context {
	return &Context{
		Config:   cfg,
		Paths:    paths,
		Identity: identity,
		Key:      key,

		InventoryTimer: timer.New(cfg.InventoryPollIntervalSeconds),
		UpdateTimer:    timer.New(cfg.UpdatePollIntervalSeconds),
		RetryTimer:     timer.New(cfg.RetryPollIntervalSeconds),

		DeploymentLogSink: deploylog.New(paths.DeploymentLog),
	}
}
