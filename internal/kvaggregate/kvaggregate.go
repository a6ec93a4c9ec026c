// Package kvaggregate parses `key=value` lines emitted by identity,
// inventory, device-type, and artifact-info scripts/files into a
// multimap, per spec §4.2.
package kvaggregate

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/edgefleet/agent/internal/logging"
)

// Mode controls how repeated keys are merged.
type Mode int

const (
	// Append accumulates values per key in insertion order (default).
	Append Mode = iota
	// Unique keeps only the last value seen for a key.
	Unique
)

const execTimeout = 100 * time.Second

// FromExecutable runs path as a child process and parses its stdout. A
// non-zero exit, a timeout, or a spawn failure all yield an empty map;
// stderr is logged in that case.
func FromExecutable(path string, mode Mode) map[string][]string {
	ctx, cancel := context.WithTimeout(context.Background(), execTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			logging.Op().Warn("kvaggregate: executable timed out", "path", path, "timeout", execTimeout)
		} else {
			logging.Op().Warn("kvaggregate: executable failed", "path", path, "error", err, "stderr", stderr.String())
		}
		return map[string][]string{}
	}

	return parse(&stdout, mode)
}

// FromFile reads path whole and parses it. A missing file yields an empty
// map.
func FromFile(path string, mode Mode) map[string][]string {
	f, err := os.Open(path)
	if err != nil {
		logging.Op().Warn("kvaggregate: cannot read file", "path", path, "error", err)
		return map[string][]string{}
	}
	defer f.Close()
	return parse(f, mode)
}

func parse(r interface{ Read([]byte) (int, error) }, mode Mode) map[string][]string {
	out := make(map[string][]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "=")
		if len(parts) != 2 {
			logging.Op().Info("kvaggregate: skipping malformed line", "line", line)
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		switch mode {
		case Unique:
			out[key] = []string{value}
		default:
			out[key] = append(out[key], value)
		}
	}
	return out
}

// FromDirectory runs FromExecutable for every executable regular file in
// dir (used for the inventory scripts directory, where each file is its
// own executable contributing to the same append-mode multimap).
// Non-executable files are logged and skipped.
func FromDirectory(dir string, mode Mode) map[string][]string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Op().Warn("kvaggregate: cannot list directory", "dir", dir, "error", err)
		return map[string][]string{}
	}

	out := make(map[string][]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := dir + "/" + entry.Name()
		if !isExecutable(path) {
			logging.Op().Info("kvaggregate: not executable", "path", path)
			continue
		}
		for k, vs := range FromExecutable(path, mode) {
			out[k] = append(out[k], vs...)
		}
	}
	return out
}

// FromFileSingleKey is FromFile in Unique mode with the additional
// device_type contract: if the file defines more than one distinct key,
// that's a hard error and the result is empty (spec §4.2).
func FromFileSingleKey(path string) map[string][]string {
	m := FromFile(path, Unique)
	if len(m) > 1 {
		logging.Op().Warn("kvaggregate: file defines multiple keys, expected exactly one", "path", path, "keys", len(m))
		return map[string][]string{}
	}
	return m
}

func isExecutable(path string) bool {
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return false
	}
	return fi.Mode()&0111 != 0
}
