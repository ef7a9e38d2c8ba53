package edit

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// PatchApplier applies unified-diff text to a target directory. The patch
// body is persisted beside the tree, structurally validated, and applied
// hunk by hunk; every real write is preceded by a backup and failures
// after a successful parse restore from it.
type PatchApplier struct {
	// Strict makes any hunk failure abort the whole patch and roll back.
	// Otherwise failures are logged, the failed files are left untouched,
	// and application continues.
	Strict bool
	// Validate pre-checks that each hunk's declared add/remove line
	// counts match its body.
	Validate bool

	log *slog.Logger
}

// NewPatchApplier returns a lenient, non-validating applier.
func NewPatchApplier(logger *slog.Logger) *PatchApplier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PatchApplier{log: logger.With("component", "patch")}
}

// Apply persists patchBody as {dirname}_{version}.patch beside targetDir
// and applies it. With dryRun the patch is parsed and reported only;
// nothing is written, including the patch file itself.
func (pa *PatchApplier) Apply(targetDir, patchBody, version string, dryRun bool) Result {
	if strings.TrimSpace(patchBody) == "" {
		// An empty patch is a successful no-op.
		return Result{Success: true, Modified: false}.withMeta("files_modified", 0)
	}

	fileDiffs, err := diff.ParseMultiFileDiff([]byte(patchBody))
	if err != nil {
		verr := &EditValidationError{Editor: "patch", Msg: err.Error()}
		return failure(verr.Error())
	}
	if len(fileDiffs) == 0 {
		verr := &EditValidationError{Editor: "patch", Msg: "no file diffs found in patch body"}
		return failure(verr.Error())
	}

	if pa.Validate {
		if err := validateHunkCounts(fileDiffs); err != nil {
			return failure(err.Error())
		}
	}

	if dryRun {
		res := Result{Success: true, Modified: false}
		res = res.withMeta("dry_run", true)
		res = res.withMeta("files", patchedPaths(fileDiffs))
		res = res.withMeta("hunks", countHunks(fileDiffs))
		return res
	}

	patchPath := patchFilePath(targetDir, version)
	if err := os.WriteFile(patchPath, []byte(patchBody), 0o644); err != nil {
		return failure(fmt.Sprintf("persisting patch: %v", err))
	}

	return pa.applyParsed(targetDir, fileDiffs).withMeta("patch_file", patchPath)
}

// applyParsed computes every file's new content in memory first, then
// writes with backup/restore. Hunk failures never leave a half-patched
// file behind.
func (pa *PatchApplier) applyParsed(targetDir string, fileDiffs []*diff.FileDiff) Result {
	type pending struct {
		path     string
		original string
		updated  string
	}
	var writes []pending

	for _, fd := range fileDiffs {
		rel := strippedPath(fd)
		if rel == "" {
			return failure((&EditValidationError{Editor: "patch", Msg: "file diff without a usable path"}).Error())
		}
		target := filepath.Join(targetDir, filepath.FromSlash(rel))

		data, err := os.ReadFile(target)
		if err != nil && !os.IsNotExist(err) {
			return failure(fmt.Sprintf("reading %s: %v", target, err))
		}
		original := string(data)

		updated, err := applyHunks(original, fd.Hunks)
		if err != nil {
			operr := &EditOperationError{Editor: "patch", Msg: fmt.Sprintf("hunk failed for %s", rel), Err: err}
			if pa.Strict {
				return failure(operr.Error())
			}
			pa.log.Warn("hunk failed, file skipped", "path", rel, "err", err)
			continue
		}
		if updated == original {
			continue
		}
		writes = append(writes, pending{path: target, original: original, updated: updated})
	}

	if len(writes) == 0 {
		return Result{Success: true, Modified: false}.withMeta("files_modified", 0)
	}

	// Back up, then write; restore everything if any write fails.
	for _, w := range writes {
		if err := os.WriteFile(w.path+".bak", []byte(w.original), 0o644); err != nil {
			return failure(fmt.Sprintf("backing up %s: %v", w.path, err))
		}
	}
	for i, w := range writes {
		if err := os.WriteFile(w.path, []byte(w.updated), 0o644); err != nil {
			for j := 0; j <= i; j++ {
				restoreFromBackup(writes[j].path, writes[j].original, pa.log)
			}
			operr := &EditOperationError{Editor: "patch", Msg: fmt.Sprintf("writing %s", w.path), Err: err}
			return failure(operr.Error())
		}
	}
	for _, w := range writes {
		_ = os.Remove(w.path + ".bak")
	}

	res := Result{Success: true, Modified: true}
	res = res.withMeta("files_modified", len(writes))
	if len(writes) == 1 {
		res.OriginalContent = writes[0].original
		res.NewContent = writes[0].updated
	}
	return res
}

func restoreFromBackup(path, original string, log *slog.Logger) {
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		log.Error("restore failed", "path", path, "err", err)
		return
	}
	_ = os.Remove(path + ".bak")
}

// applyHunks applies the hunks of one file diff to its original content.
func applyHunks(original string, hunks []*diff.Hunk) (string, error) {
	sorted := make([]*diff.Hunk, len(hunks))
	copy(sorted, hunks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OrigStartLine < sorted[j].OrigStartLine
	})

	origLines := strings.Split(original, "\n")
	trailingNewline := strings.HasSuffix(original, "\n")
	if trailingNewline {
		origLines = origLines[:len(origLines)-1]
	}
	if original == "" {
		origLines = nil
	}

	var out []string
	cursor := 0 // next unconsumed original line

	for _, h := range sorted {
		start := int(h.OrigStartLine) - 1
		if h.OrigLines == 0 {
			// Pure insertion: OrigStartLine is the line to insert after.
			start = int(h.OrigStartLine)
		}
		if start < cursor || start > len(origLines) {
			return "", fmt.Errorf("hunk at line %d out of range", h.OrigStartLine)
		}
		out = append(out, origLines[cursor:start]...)
		cursor = start

		body := strings.TrimSuffix(string(h.Body), "\n")
		for _, bl := range strings.Split(body, "\n") {
			marker, text := ' ', ""
			if len(bl) > 0 {
				marker = rune(bl[0])
				text = bl[1:]
			}
			switch marker {
			case ' ':
				if cursor >= len(origLines) || origLines[cursor] != text {
					return "", fmt.Errorf("context mismatch at line %d", cursor+1)
				}
				out = append(out, text)
				cursor++
			case '-':
				if cursor >= len(origLines) || origLines[cursor] != text {
					return "", fmt.Errorf("removed line mismatch at line %d", cursor+1)
				}
				cursor++
			case '+':
				out = append(out, text)
			case '\\':
				// "\ No newline at end of file" is metadata, not content.
			default:
				return "", fmt.Errorf("malformed hunk line %q", bl)
			}
		}
	}

	out = append(out, origLines[cursor:]...)
	updated := strings.Join(out, "\n")
	if trailingNewline || original == "" {
		if len(out) > 0 {
			updated += "\n"
		}
	}
	return updated, nil
}

// validateHunkCounts checks each hunk's declared line counts against its
// body: structurally implausible patches are rejected before any write.
func validateHunkCounts(fileDiffs []*diff.FileDiff) error {
	for _, fd := range fileDiffs {
		for _, h := range fd.Hunks {
			var orig, updated int32
			body := strings.TrimSuffix(string(h.Body), "\n")
			for _, bl := range strings.Split(body, "\n") {
				if bl == "" {
					orig++
					updated++
					continue
				}
				switch bl[0] {
				case ' ':
					orig++
					updated++
				case '-':
					orig++
				case '+':
					updated++
				}
			}
			if orig != h.OrigLines || updated != h.NewLines {
				return &EditValidationError{
					Editor: "patch",
					Msg: fmt.Sprintf("hunk at %s:%d declares %d/%d lines but carries %d/%d",
						strippedPath(fd), h.OrigStartLine, h.OrigLines, h.NewLines, orig, updated),
				}
			}
		}
	}
	return nil
}

// strippedPath returns the repo-relative path of a file diff without the
// a/ or b/ header prefix.
func strippedPath(fd *diff.FileDiff) string {
	for _, name := range []string{fd.NewName, fd.OrigName} {
		if name == "" || name == "/dev/null" {
			continue
		}
		name = strings.TrimPrefix(name, "a/")
		name = strings.TrimPrefix(name, "b/")
		return name
	}
	return ""
}

func patchedPaths(fileDiffs []*diff.FileDiff) []string {
	out := make([]string, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		out = append(out, strippedPath(fd))
	}
	return out
}

func countHunks(fileDiffs []*diff.FileDiff) int {
	n := 0
	for _, fd := range fileDiffs {
		n += len(fd.Hunks)
	}
	return n
}

// patchFilePath is {dirname}_{version}.patch beside the target tree.
func patchFilePath(targetDir, version string) string {
	dir := filepath.Dir(targetDir)
	base := filepath.Base(targetDir)
	if version == "" {
		version = "v1"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.patch", base, version))
}
