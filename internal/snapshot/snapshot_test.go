package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCreateAndRestore(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	proj := filepath.Join(root, "proj")
	writeFile(t, proj, "main.py", "x = 1\n")
	writeFile(t, proj, "pkg/util.py", "y = 2\n")

	archive, err := Create(proj, "v1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if filepath.Base(archive) != "proj_v1.tar.gz" {
		t.Errorf("archive name = %s", filepath.Base(archive))
	}
	if filepath.Dir(archive) != root {
		t.Errorf("archive should sit beside the tree, got %s", archive)
	}

	// Mutate, then roll back.
	writeFile(t, proj, "main.py", "x = 999\n")
	if err := Restore(archive, proj); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(proj, "main.py"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "x = 1\n" {
		t.Errorf("main.py = %q after restore", data)
	}
	data, err = os.ReadFile(filepath.Join(proj, "pkg", "util.py"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "y = 2\n" {
		t.Errorf("pkg/util.py = %q after restore", data)
	}
}

func TestCreateSkipsArtifactsAndEditLeftovers(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	proj := filepath.Join(root, "proj")
	writeFile(t, proj, "kept.py", "x = 1\n")
	writeFile(t, proj, "node_modules/dep/index.js", "skip\n")
	writeFile(t, proj, ".git/HEAD", "ref\n")
	writeFile(t, proj, "kept.py.bak", "stale backup\n")
	writeFile(t, proj, "old_v1.patch", "stale patch\n")

	archive, err := Create(proj, "v1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	out := filepath.Join(root, "restored")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Restore(archive, out); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	var found []string
	err = filepath.WalkDir(out, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(out, path)
		found = append(found, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(found, ","); got != "kept.py" {
		t.Errorf("archive contents = %q, want kept.py only", got)
	}
}

func TestRestoreIntoMissingDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	proj := filepath.Join(root, "proj")
	writeFile(t, proj, "ok.py", "x\n")
	archive, err := Create(proj, "v1")
	if err != nil {
		t.Fatal(err)
	}

	// Restoring into a missing directory is fine; entries are created.
	out := filepath.Join(root, "fresh")
	if err := Restore(archive, out); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "ok.py")); err != nil {
		t.Errorf("restored file missing: %v", err)
	}
}
