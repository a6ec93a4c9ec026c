// Package deploylog implements the per-deployment log capture sink (C7):
// disabled by default, truncated on Enable, appended to while enabled,
// and marshalled back into records for upload on deployment failure.
// Adapted from the teacher's mutex-protected file-backed Logger
// (internal/logging/logger.go in oriys-nova), repurposed from
// per-invocation request logs to per-deployment log records.
package deploylog

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Record is one captured log line, uploaded verbatim on a failure report
// (spec §3, §4.7).
type Record struct {
	Level     string `json:"level"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// Sink is the single process-wide deployment log, driven by the master
// loop (Enable/Disable/Marshal). Records enter it only through explicit
// Append calls, which are safe under concurrent use; the operational
// logger (logging.Op) does not write into the sink.
type Sink struct {
	mu      sync.Mutex
	path    string
	enabled bool
}

// New creates a sink backed by path, disabled.
func New(path string) *Sink {
	return &Sink{path: path}
}

// Enable truncates the backing file and starts accumulating records. Must
// happen-before any log record belonging to the new deployment, and
// happen-after Marshal of the previous one (spec §5).
func (s *Sink) Enable() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	f.Close()

	s.enabled = true
	return nil
}

// Disable stops accumulating; a call on the "update reported" edge keeps
// the next deployment's records from mixing with this one's.
func (s *Sink) Disable() {
	s.mu.Lock()
	s.enabled = false
	s.mu.Unlock()
}

// Append adds a record if the sink is enabled; otherwise it's a no-op.
func (s *Sink) Append(level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return
	}

	rec := Record{
		Level:     level,
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		Message:   message,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	f.Write(append(data, '\n'))
}

// Marshal reads the backing file line by line, decoding each as a
// Record. A line that fails to decode is skipped (readers must tolerate
// a truncated trailing line written concurrently by Append).
func (s *Sink) Marshal() []Record {
	f, err := os.Open(s.path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}
