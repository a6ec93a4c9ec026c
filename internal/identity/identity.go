// Package identity wires the KV aggregator (C2) to the four concrete
// sources named in spec §4.2: the identity script, the inventory script
// directory, the device_type file, and the artifact_info file.
package identity

import (
	"github.com/edgefleet/agent/internal/agent"
	"github.com/edgefleet/agent/internal/kvaggregate"
)

// Collect runs the identity script (append mode).
func Collect(paths agent.Paths) map[string][]string {
	return kvaggregate.FromExecutable(paths.IdentityScript, kvaggregate.Append)
}

// CollectInventory runs every script in the inventory directory
// (append mode across all of them).
func CollectInventory(paths agent.Paths) map[string][]string {
	return kvaggregate.FromDirectory(paths.InventoryDir, kvaggregate.Append)
}

// DeviceType reads the device_type file (unique mode, single key).
func DeviceType(paths agent.Paths) map[string][]string {
	return kvaggregate.FromFileSingleKey(paths.DeviceType)
}

// ArtifactInfo reads the artifact_info file (append mode).
func ArtifactInfo(paths agent.Paths) map[string][]string {
	return kvaggregate.FromFile(paths.ArtifactInfo, kvaggregate.Append)
}

// First returns the first value for key in m, or "" if absent — a small
// convenience for the single-valued keys (device_type, artifact_name)
// pulled out of an otherwise multi-valued map.
func First(m map[string][]string, key string) string {
	if vs, ok := m[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}
