package deploylog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAppendNoOpWhenDisabled(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "deployment.log"))
	s.Append("info", "should not be recorded")
	if got := s.Marshal(); len(got) != 0 {
		t.Fatalf("expected no records while disabled, got %+v", got)
	}
}

func TestEnableAppendMarshalRoundTrip(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "deployment.log"))
	if err := s.Enable(); err != nil {
		t.Fatal(err)
	}
	s.Append("info", "r1")
	s.Append("error", "r2")

	got := s.Marshal()
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(got), got)
	}
	if got[0].Message != "r1" || got[1].Message != "r2" {
		t.Fatalf("expected append order preserved, got %+v", got)
	}
}

func TestEnableTruncatesPreviousDeploymentRecords(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "deployment.log"))
	s.Enable()
	s.Append("info", "old deployment record")
	s.Disable()

	s.Enable()
	s.Append("info", "new deployment record")

	got := s.Marshal()
	if len(got) != 1 || got[0].Message != "new deployment record" {
		t.Fatalf("expected only the new deployment's record, got %+v", got)
	}
}

func TestMarshalSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployment.log")
	s := New(path)
	s.Enable()
	s.Append("info", "good")

	appendRaw(t, path, "{not valid json")

	got := s.Marshal()
	if len(got) != 1 || got[0].Message != "good" {
		t.Fatalf("expected malformed trailing line to be skipped, got %+v", got)
	}
}

func appendRaw(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		t.Fatal(err)
	}
}
