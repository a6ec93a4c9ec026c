// Package config loads and merges the agent's configuration per spec §3/§6:
// an enumerated set of recognized keys, a local file that overrides a
// global file, and documented defaults for anything missing.
package config

import (
	"os"

	"github.com/edgefleet/agent/internal/logging"
	"gopkg.in/yaml.v3"
)

// Config holds the agent's enumerated configuration keys. Unknown keys
// encountered while decoding a file are logged and dropped rather than
// causing a decode failure.
type Config struct {
	ServerURL        string `yaml:"ServerURL"`
	RootfsPartA      string `yaml:"RootfsPartA"`
	RootfsPartB      string `yaml:"RootfsPartB"`
	TenantToken      string `yaml:"TenantToken"`
	ServerCertificate string `yaml:"ServerCertificate"`

	InventoryPollIntervalSeconds int `yaml:"InventoryPollIntervalSeconds"`
	UpdatePollIntervalSeconds    int `yaml:"UpdatePollIntervalSeconds"`
	RetryPollIntervalSeconds     int `yaml:"RetryPollIntervalSeconds"`
}

const defaultPollIntervalSeconds = 5

// recognizedKeys is the enumerated key set from spec §3. Anything else
// found in a config file is logged and ignored rather than merged.
var recognizedKeys = map[string]bool{
	"ServerURL":                    true,
	"RootfsPartA":                  true,
	"RootfsPartB":                  true,
	"TenantToken":                  true,
	"ServerCertificate":            true,
	"InventoryPollIntervalSeconds": true,
	"UpdatePollIntervalSeconds":    true,
	"RetryPollIntervalSeconds":     true,
}

// Default returns a Config with the documented defaults: all poll
// intervals at 5 seconds, everything else empty.
func Default() *Config {
	return &Config{
		InventoryPollIntervalSeconds: defaultPollIntervalSeconds,
		UpdatePollIntervalSeconds:    defaultPollIntervalSeconds,
		RetryPollIntervalSeconds:     defaultPollIntervalSeconds,
	}
}

// Load reads the global config file, then the local config file if
// present, applying local values on top of global ones key-by-key. A
// missing file at either path is not an error — the loader falls back to
// the other file's values (or the documented default).
func Load(globalPath, localPath string) (*Config, error) {
	cfg := Default()

	if err := mergeFile(cfg, globalPath); err != nil {
		return nil, err
	}
	if err := mergeFile(cfg, localPath); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeFile decodes path as a raw key/value document and applies only the
// recognized keys onto cfg, leaving any key absent from the file
// untouched. A missing file is logged (ConfigMissing, recoverable) and
// skipped.
func mergeFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Op().Info("config file not present, using defaults for its keys", "path", path)
			return nil
		}
		return err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	for key, value := range raw {
		if !recognizedKeys[key] {
			logging.Op().Info("ignoring unrecognized config key", "path", path, "key", key)
			continue
		}
		applyKey(cfg, key, value)
	}

	return nil
}

func applyKey(cfg *Config, key string, value any) {
	switch key {
	case "ServerURL":
		cfg.ServerURL, _ = value.(string)
	case "RootfsPartA":
		cfg.RootfsPartA, _ = value.(string)
	case "RootfsPartB":
		cfg.RootfsPartB, _ = value.(string)
	case "TenantToken":
		cfg.TenantToken, _ = value.(string)
	case "ServerCertificate":
		cfg.ServerCertificate, _ = value.(string)
	case "InventoryPollIntervalSeconds":
		if v, ok := asInt(value); ok && v >= 0 {
			cfg.InventoryPollIntervalSeconds = v
		}
	case "UpdatePollIntervalSeconds":
		if v, ok := asInt(value); ok && v >= 0 {
			cfg.UpdatePollIntervalSeconds = v
		}
	case "RetryPollIntervalSeconds":
		if v, ok := asInt(value); ok && v >= 0 {
			cfg.RetryPollIntervalSeconds = v
		}
	}
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
