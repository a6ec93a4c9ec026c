// Package statefsm implements the hierarchical control-flow machine
// (C9) that composes every other component: Master loops between
// Unauthorized and Authorized; Authorized alternates Idle polling with
// driving an accepted deployment to completion. Grounded on the
// teacher's workflow dispatch shape (internal/workflow, deleted after
// this package replaced it): a small set of named states, each taking
// the shared run context and returning what happens next, rather than
// a class hierarchy — Design Note in the source spec calls this out
// explicitly as a capability-interface dispatcher.
package statefsm

import (
	"github.com/edgefleet/agent/internal/agent"
	"github.com/edgefleet/agent/internal/client"
	"github.com/edgefleet/agent/internal/remoteshell"
)

// Machine bundles the shared run context with the collaborators every
// state needs: the HTTP client and the remote shell controller. Unlike
// agent.Context, these don't belong on Context itself — client imports
// agent for DeploymentInfo, so the reverse import would cycle.
type Machine struct {
	Ctx   *agent.Context
	API   *client.ApiClient
	Shell *remoteshell.Controller
}

// New assembles a Machine from its already-constructed parts.
func New(ctx *agent.Context, api *client.ApiClient, shell *remoteshell.Controller) *Machine {
	return &Machine{Ctx: ctx, API: api, Shell: shell}
}

// mergeKeyValues applies b on top of a, per-key override (not append) —
// the same semantics the original aggregator's dict.update() has when
// folding device_type and artifact_info into the inventory scripts'
// output.
func mergeKeyValues(a, b map[string][]string) map[string][]string {
	out := make(map[string][]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
