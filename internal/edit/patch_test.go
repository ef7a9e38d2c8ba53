package edit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readTreeFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestGeneratedDiffAppliesCleanly(t *testing.T) {
	t.Parallel()

	original := "line 1\nline 2\nline 3\nline 4\nline 5\n"
	updated := "line 1\nline 2 changed\nline 3\nline 4\nextra\nline 5\n"

	body, err := UnifiedDiff("notes.txt", original, updated)
	require.NoError(t, err)
	require.NotEmpty(t, body)

	dir := t.TempDir()
	target := filepath.Join(dir, "proj")
	writeTree(t, target, map[string]string{"notes.txt": original})

	pa := NewPatchApplier(nil)
	res := pa.Apply(target, body, "v1", false)
	require.True(t, res.Success, res.Err)
	assert.True(t, res.Modified)
	assert.Equal(t, updated, readTreeFile(t, target, "notes.txt"))

	// No leftover backups on success.
	_, err = os.Stat(filepath.Join(target, "notes.txt.bak"))
	assert.True(t, os.IsNotExist(err))

	// The patch body is persisted beside the tree.
	persisted, err := os.ReadFile(filepath.Join(dir, "proj_v1.patch"))
	require.NoError(t, err)
	assert.Equal(t, body, string(persisted))
}

func TestApplyMultipleFiles(t *testing.T) {
	t.Parallel()

	aOrig, aNew := "alpha\nbeta\n", "alpha\nbeta prime\n"
	bOrig, bNew := "one\ntwo\nthree\n", "zero\none\ntwo\nthree\n"

	da, err := UnifiedDiff("a.txt", aOrig, aNew)
	require.NoError(t, err)
	db, err := UnifiedDiff("sub/b.txt", bOrig, bNew)
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "proj")
	writeTree(t, target, map[string]string{"a.txt": aOrig, "sub/b.txt": bOrig})

	pa := NewPatchApplier(nil)
	res := pa.Apply(target, da+db, "v2", false)
	require.True(t, res.Success, res.Err)
	assert.Equal(t, 2, res.Metadata["files_modified"])
	assert.Equal(t, aNew, readTreeFile(t, target, "a.txt"))
	assert.Equal(t, bNew, readTreeFile(t, target, "sub/b.txt"))
}

func TestApplyEmptyPatchIsNoOp(t *testing.T) {
	t.Parallel()

	pa := NewPatchApplier(nil)
	res := pa.Apply(t.TempDir(), "   \n", "v1", false)
	require.True(t, res.Success)
	assert.False(t, res.Modified)
	assert.Equal(t, 0, res.Metadata["files_modified"])
}

func TestApplyMalformedPatch(t *testing.T) {
	t.Parallel()

	pa := NewPatchApplier(nil)
	res := pa.Apply(t.TempDir(), "this is not a diff\n", "v1", false)
	require.False(t, res.Success)
	assert.Contains(t, res.Err, "invalid input")
}

func TestApplyDryRunTouchesNothing(t *testing.T) {
	t.Parallel()

	original := "a\nb\nc\n"
	body, err := UnifiedDiff("f.txt", original, "a\nB\nc\n")
	require.NoError(t, err)

	dir := t.TempDir()
	target := filepath.Join(dir, "proj")
	writeTree(t, target, map[string]string{"f.txt": original})

	pa := NewPatchApplier(nil)
	res := pa.Apply(target, body, "v1", true)
	require.True(t, res.Success)
	assert.False(t, res.Modified)
	assert.Equal(t, true, res.Metadata["dry_run"])
	assert.Equal(t, []string{"f.txt"}, res.Metadata["files"])
	assert.Equal(t, original, readTreeFile(t, target, "f.txt"))

	// Dry runs do not persist the patch either.
	_, err = os.Stat(filepath.Join(dir, "proj_v1.patch"))
	assert.True(t, os.IsNotExist(err))
}

func TestStrictModeFailsOnContextMismatch(t *testing.T) {
	t.Parallel()

	body, err := UnifiedDiff("f.txt", "expected\ncontent\nhere\n", "expected\nchanged\nhere\n")
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "proj")
	writeTree(t, target, map[string]string{"f.txt": "totally\ndifferent\nfile\n"})

	pa := NewPatchApplier(nil)
	pa.Strict = true
	res := pa.Apply(target, body, "v1", false)
	require.False(t, res.Success)
	assert.Equal(t, "totally\ndifferent\nfile\n", readTreeFile(t, target, "f.txt"))
}

func TestLenientModeSkipsFailingFiles(t *testing.T) {
	t.Parallel()

	goodOrig, goodNew := "keep\nme\n", "keep\nme please\n"
	dGood, err := UnifiedDiff("good.txt", goodOrig, goodNew)
	require.NoError(t, err)
	dBad, err := UnifiedDiff("bad.txt", "was\nhere\n", "was\nthere\n")
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "proj")
	writeTree(t, target, map[string]string{
		"good.txt": goodOrig,
		"bad.txt":  "mismatched\nbody\n",
	})

	pa := NewPatchApplier(nil)
	res := pa.Apply(target, dBad+dGood, "v1", false)
	require.True(t, res.Success, res.Err)
	assert.Equal(t, 1, res.Metadata["files_modified"])
	assert.Equal(t, goodNew, readTreeFile(t, target, "good.txt"))
	assert.Equal(t, "mismatched\nbody\n", readTreeFile(t, target, "bad.txt"))
}

func TestValidateRejectsBadHunkCounts(t *testing.T) {
	t.Parallel()

	// Declared counts do not match the body.
	body := "--- a/f.txt\n+++ b/f.txt\n@@ -1,5 +1,5 @@\n context\n-old\n+new\n"

	target := filepath.Join(t.TempDir(), "proj")
	writeTree(t, target, map[string]string{"f.txt": "context\nold\n"})

	pa := NewPatchApplier(nil)
	pa.Validate = true
	res := pa.Apply(target, body, "v1", false)
	require.False(t, res.Success)
	assert.Contains(t, res.Err, "declares")

	pa.Validate = false
	res = pa.Apply(target, body, "v1", false)
	assert.True(t, res.Success, res.Err)
}

func TestApplyHunksInsertion(t *testing.T) {
	t.Parallel()

	original := "one\ntwo\nthree\n"
	updated := "one\ntwo\ninserted\nthree\n"
	body, err := UnifiedDiff("f.txt", original, updated)
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "proj")
	writeTree(t, target, map[string]string{"f.txt": original})

	pa := NewPatchApplier(nil)
	res := pa.Apply(target, body, "v1", false)
	require.True(t, res.Success, res.Err)
	assert.Equal(t, updated, readTreeFile(t, target, "f.txt"))
}
