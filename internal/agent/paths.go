// Package agent holds the process-wide data model shared by every
// component: the filesystem layout (Paths), the mutable run Context, and
// the deployment record shape. It replaces the dynamic attribute-bag and
// global-singleton patterns called out in spec §9 with declared fields.
package agent

import "path/filepath"

// Paths is the filesystem layout from spec §6, rooted at a configurable
// state directory. It is constructed once at startup and passed by value
// to every component that needs a path — there is no global PATHS
// singleton.
type Paths struct {
	DataDir string

	LocalConfig  string // /etc/mender/mender.conf
	GlobalConfig string // <data>/mender.conf

	PrivateKey string // <data>/mender-agent.pem
	DeviceType string // <data>/device_type

	ArtifactInfo string // /etc/mender/artifact_info
	Artifact     string // <data>/artifact.mender

	LockFile      string // <data>/update.lock
	DeploymentLog string // <data>/deployment.log

	IdentityScript string // /usr/share/mender/identity/mender-device-identity
	InventoryDir   string // /usr/share/mender/inventory
	Installer      string // /usr/share/mender/install
}

// NewPaths builds a Paths value rooted at dataDir, with the two
// system-wide files (local config, artifact_info) fixed per spec §6
// regardless of dataDir.
func NewPaths(dataDir string) Paths {
	return Paths{
		DataDir: dataDir,

		LocalConfig:  "/etc/mender/mender.conf",
		GlobalConfig: filepath.Join(dataDir, "mender.conf"),

		PrivateKey: filepath.Join(dataDir, "mender-agent.pem"),
		DeviceType: filepath.Join(dataDir, "device_type"),

		ArtifactInfo: "/etc/mender/artifact_info",
		Artifact:     filepath.Join(dataDir, "artifact.mender"),

		LockFile:      filepath.Join(dataDir, "update.lock"),
		DeploymentLog: filepath.Join(dataDir, "deployment.log"),

		IdentityScript: "/usr/share/mender/identity/mender-device-identity",
		InventoryDir:   "/usr/share/mender/inventory",
		Installer:      "/usr/share/mender/install",
	}
}
