package store

import (
	"testing"
	"time"
)

func TestCaptureAndListVersions(t *testing.T) {
	db := testDB(t)
	tree := seedTree(t, db)

	id, err := CaptureVersion(db.DB, tree, "user-1", "merged Ada into Ada L.", map[string]int{"stories": 1})
	if err != nil {
		t.Fatalf("CaptureVersion: %v", err)
	}
	if id == "" {
		t.Fatal("expected version id")
	}

	versions, err := db.ListVersions(tree)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("len = %d, want 1", len(versions))
	}
	if versions[0].ID != id {
		t.Errorf("id = %q, want %q", versions[0].ID, id)
	}
	if versions[0].Description != "merged Ada into Ada L." {
		t.Errorf("description = %q", versions[0].Description)
	}
	if string(versions[0].Changes) != `{"stories":1}` {
		t.Errorf("changes = %s", versions[0].Changes)
	}
}

func TestEditLocks(t *testing.T) {
	db := testDB(t)

	locked, err := db.IsLocked("m1")
	if err != nil {
		t.Fatalf("IsLocked: %v", err)
	}
	if locked {
		t.Error("unlocked entity reported locked")
	}

	if err := db.LockEntity("m1", "user-2", time.Minute); err != nil {
		t.Fatalf("LockEntity: %v", err)
	}
	locked, _ = db.IsLocked("m1")
	if !locked {
		t.Error("locked entity reported unlocked")
	}

	if err := db.UnlockEntity("m1"); err != nil {
		t.Fatalf("UnlockEntity: %v", err)
	}
	locked, _ = db.IsLocked("m1")
	if locked {
		t.Error("entity still locked after unlock")
	}
}

func TestExpiredLockCountsAsUnlocked(t *testing.T) {
	db := testDB(t)

	if err := db.LockEntity("m1", "user-2", -time.Minute); err != nil {
		t.Fatalf("LockEntity: %v", err)
	}
	locked, err := db.IsLocked("m1")
	if err != nil {
		t.Fatalf("IsLocked: %v", err)
	}
	if locked {
		t.Error("expired lock reported locked")
	}
}
