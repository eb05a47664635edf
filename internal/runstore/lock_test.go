package runstore

import (
	"path/filepath"
	"testing"
)

func TestBatchLockBlocksSecondAcquire(t *testing.T) {
	root := t.TempDir()

	first, err := AcquireBatchLock(root)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	if _, err := AcquireBatchLock(root); err == nil {
		t.Fatal("second acquire should fail while lock is held")
	}

	if err := first.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	second, err := AcquireBatchLock(root)
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	_ = second.Release()
}

func TestListBatchDirsSkipsDirsWithoutManifest(t *testing.T) {
	root := t.TempDir()
	withManifest := filepath.Join(root, "20240101T000000_vina")
	without := filepath.Join(root, "scratch")
	if err := Mkdir(withManifest); err != nil {
		t.Fatal(err)
	}
	if err := Mkdir(without); err != nil {
		t.Fatal(err)
	}
	if err := WriteJSON(ManifestPath(withManifest), map[string]int{"schema_version": 1}); err != nil {
		t.Fatal(err)
	}

	dirs, err := ListBatchDirs(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(dirs) != 1 || dirs[0] != withManifest {
		t.Fatalf("unexpected batch dirs: %v", dirs)
	}

	latest, err := LatestBatchDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if latest != withManifest {
		t.Fatalf("unexpected latest dir: %s", latest)
	}
}
