package agent

import "testing"

func TestLockFileLifecycle(t *testing.T) {
	paths := NewPaths(t.TempDir())

	if LockFileExists(paths) {
		t.Fatal("lock file should not exist before creation")
	}

	if err := WriteLockFile(paths, "dep-42"); err != nil {
		t.Fatal(err)
	}
	if !LockFileExists(paths) {
		t.Fatal("lock file should exist after WriteLockFile")
	}

	id, err := ReadLockFile(paths)
	if err != nil {
		t.Fatal(err)
	}
	if id != "dep-42" {
		t.Fatalf("expected deployment id dep-42, got %q", id)
	}
}
