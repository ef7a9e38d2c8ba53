package edit

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Operation types accepted by the line editor.
const (
	OpInsert  = "insert"
	OpReplace = "replace"
	OpDelete  = "delete"
)

// ContentLines is an operation's content payload. The wire form is a
// JSON array of lines; a bare string is accepted too and split on
// newlines.
type ContentLines []string

func (c *ContentLines) UnmarshalJSON(data []byte) error {
	var lines []string
	if err := json.Unmarshal(data, &lines); err == nil {
		*c = lines
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("content must be a string or an array of strings")
	}
	*c = splitContent(s)
	return nil
}

// Operation is one line-oriented edit. Insert places Content after
// AfterLine (0 means before the first line); replace and delete act on
// the inclusive [StartLine, EndLine] range. Lines are 1-based.
type Operation struct {
	Type      string       `json:"type"`
	FilePath  string       `json:"file_path"`
	AfterLine int          `json:"after_line,omitempty"`
	StartLine int          `json:"start_line,omitempty"`
	EndLine   int          `json:"end_line,omitempty"`
	Content   ContentLines `json:"content,omitempty"`
}

// OperationList is the wire form of a batch of operations.
type OperationList struct {
	Version    string      `json:"version,omitempty"`
	Operations []Operation `json:"operations"`
}

// ParseOperationList decodes and validates an operation batch.
func ParseOperationList(data []byte) (*OperationList, error) {
	var list OperationList
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&list); err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("decoding operations: %v", err)}
	}
	for i, op := range list.Operations {
		if err := validateOperation(op); err != nil {
			return nil, &ValidationError{Msg: fmt.Sprintf("operation %d: %v", i, err)}
		}
	}
	return &list, nil
}

func validateOperation(op Operation) error {
	if op.FilePath == "" {
		return fmt.Errorf("file_path is required")
	}
	if filepath.IsAbs(op.FilePath) || strings.Contains(op.FilePath, "..") {
		return fmt.Errorf("file_path must be relative and inside the tree: %q", op.FilePath)
	}
	switch op.Type {
	case OpInsert:
		if op.AfterLine < 0 {
			return fmt.Errorf("after_line must be >= 0")
		}
		if len(op.Content) == 0 {
			return fmt.Errorf("insert requires content")
		}
	case OpReplace:
		if op.StartLine < 1 || op.EndLine < op.StartLine {
			return fmt.Errorf("replace requires 1 <= start_line <= end_line")
		}
	case OpDelete:
		if op.StartLine < 1 || op.EndLine < op.StartLine {
			return fmt.Errorf("delete requires 1 <= start_line <= end_line")
		}
	default:
		return fmt.Errorf("unknown operation type %q", op.Type)
	}
	return nil
}

// OpsEditor turns operation batches into unified diffs and applies them
// through the patch machinery, so both editors share one write path.
type OpsEditor struct {
	applier *PatchApplier
	log     *slog.Logger
}

// NewOpsEditor wires an editor around the given applier.
func NewOpsEditor(applier *PatchApplier, logger *slog.Logger) *OpsEditor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if applier == nil {
		applier = NewPatchApplier(logger)
	}
	return &OpsEditor{applier: applier, log: logger.With("component", "ops")}
}

// Apply materializes the operations against targetDir. A batch whose
// operations change nothing yields an empty patch and Modified=false.
func (e *OpsEditor) Apply(targetDir string, list *OperationList, dryRun bool) Result {
	patch, err := e.RenderPatch(targetDir, list)
	if err != nil {
		return failure(err.Error())
	}
	if patch == "" {
		return Result{Success: true, Modified: false}.withMeta("files_modified", 0)
	}
	version := list.Version
	if version == "" {
		version = "ops"
	}
	return e.applier.Apply(targetDir, patch, version, dryRun)
}

// RenderPatch computes the unified diff the operations would produce
// without touching any file.
func (e *OpsEditor) RenderPatch(targetDir string, list *OperationList) (string, error) {
	if list == nil || len(list.Operations) == 0 {
		return "", nil
	}

	byFile := map[string][]Operation{}
	var order []string
	for _, op := range list.Operations {
		if _, seen := byFile[op.FilePath]; !seen {
			order = append(order, op.FilePath)
		}
		byFile[op.FilePath] = append(byFile[op.FilePath], op)
	}

	var b strings.Builder
	for _, rel := range order {
		target := filepath.Join(targetDir, filepath.FromSlash(rel))
		data, err := os.ReadFile(target)
		if err != nil {
			return "", &EditOperationError{Editor: "ops", Msg: fmt.Sprintf("reading %s", rel), Err: err}
		}
		original := string(data)

		updated, err := applyOps(original, byFile[rel])
		if err != nil {
			return "", &EditValidationError{Editor: "ops", Msg: fmt.Sprintf("%s: %v", rel, err)}
		}
		if updated == original {
			continue
		}
		d, err := UnifiedDiff(rel, original, updated)
		if err != nil {
			return "", &EditOperationError{Editor: "ops", Msg: fmt.Sprintf("diffing %s", rel), Err: err}
		}
		b.WriteString(d)
	}
	return b.String(), nil
}

// applyOps applies one file's operations bottom-up so earlier splices
// never shift the line numbers of later ones.
func applyOps(original string, ops []Operation) (string, error) {
	sorted := make([]Operation, len(ops))
	copy(sorted, ops)
	sort.SliceStable(sorted, func(i, j int) bool {
		return anchorLine(sorted[i]) > anchorLine(sorted[j])
	})

	lines := strings.Split(original, "\n")
	trailingNewline := strings.HasSuffix(original, "\n")
	if trailingNewline {
		lines = lines[:len(lines)-1]
	}
	if original == "" {
		lines = nil
	}

	for _, op := range sorted {
		switch op.Type {
		case OpInsert:
			if op.AfterLine > len(lines) {
				return "", fmt.Errorf("after_line %d beyond end of file (%d lines)", op.AfterLine, len(lines))
			}
			lines = spliceLines(lines, op.AfterLine, 0, op.Content)
		case OpReplace:
			if op.EndLine > len(lines) {
				return "", fmt.Errorf("end_line %d beyond end of file (%d lines)", op.EndLine, len(lines))
			}
			lines = spliceLines(lines, op.StartLine-1, op.EndLine-op.StartLine+1, op.Content)
		case OpDelete:
			if op.EndLine > len(lines) {
				return "", fmt.Errorf("end_line %d beyond end of file (%d lines)", op.EndLine, len(lines))
			}
			lines = spliceLines(lines, op.StartLine-1, op.EndLine-op.StartLine+1, nil)
		}
	}

	updated := strings.Join(lines, "\n")
	if trailingNewline && len(lines) > 0 {
		updated += "\n"
	}
	return updated, nil
}

func anchorLine(op Operation) int {
	if op.Type == OpInsert {
		return op.AfterLine
	}
	return op.StartLine
}

func splitContent(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}
