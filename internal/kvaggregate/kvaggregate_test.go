package kvaggregate

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromFileAppendMode(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "kv", "key=val\nkey=val2\nkey2=val\nbroken-line\na=b=c\n")

	got := FromFile(path, Append)
	if len(got["key"]) != 2 || got["key"][0] != "val" || got["key"][1] != "val2" {
		t.Fatalf("unexpected append-mode result for key: %+v", got["key"])
	}
	if len(got["key2"]) != 1 || got["key2"][0] != "val" {
		t.Fatalf("unexpected append-mode result for key2: %+v", got["key2"])
	}
	if _, ok := got["broken-line"]; ok {
		t.Fatal("line with no '=' must be skipped")
	}
	if _, ok := got["a"]; ok {
		t.Fatal("line with more than one '=' must be skipped")
	}
}

func TestFromFileUniqueModeOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "kv", "key=val\nkey=val2\n")

	got := FromFile(path, Unique)
	if len(got["key"]) != 1 || got["key"][0] != "val2" {
		t.Fatalf("unique mode should keep only the last value, got %+v", got["key"])
	}
}

func TestFromFileMissingReturnsEmpty(t *testing.T) {
	got := FromFile("/nonexistent/path/kv", Append)
	if len(got) != 0 {
		t.Fatalf("expected empty map for missing file, got %+v", got)
	}
}

func TestFromFileSingleKeyRejectsMultipleKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "device_type", "device_type=foo\nother=bar\n")

	got := FromFileSingleKey(path)
	if len(got) != 0 {
		t.Fatalf("expected empty map when file defines multiple distinct keys, got %+v", got)
	}
}

func TestFromFileSingleKeyAcceptsOneKey(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "device_type", "device_type=foo\n")

	got := FromFileSingleKey(path)
	if len(got) != 1 || got["device_type"][0] != "foo" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestFromExecutableNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "script.sh", "#!/bin/sh\necho oops 1>&2\nexit 1\n")
	os.Chmod(path, 0755)

	got := FromExecutable(path, Append)
	if len(got) != 0 {
		t.Fatalf("expected empty map on non-zero exit, got %+v", got)
	}
}

func TestFromExecutableSuccess(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "script.sh", "#!/bin/sh\necho mac=c8:5b:76:fb:c8:75\n")
	os.Chmod(path, 0755)

	got := FromExecutable(path, Append)
	if len(got["mac"]) != 1 || got["mac"][0] != "c8:5b:76:fb:c8:75" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestFromDirectorySkipsNonExecutable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "not-exec.sh", "key=val\n")
	exec := writeFile(t, dir, "exec.sh", "#!/bin/sh\necho key=val\n")
	os.Chmod(exec, 0755)

	got := FromDirectory(dir, Append)
	if len(got["key"]) != 1 {
		t.Fatalf("expected one contribution from the executable script only, got %+v", got["key"])
	}
}
