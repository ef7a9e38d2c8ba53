package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperationList(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"version": "v3",
		"operations": [
			{"type": "insert", "file_path": "a.py", "after_line": 2, "content": ["x = 1", "y = 2"]},
			{"type": "replace", "file_path": "a.py", "start_line": 5, "end_line": 6, "content": ["z = 3"]},
			{"type": "delete", "file_path": "b.py", "start_line": 1, "end_line": 1}
		]
	}`)

	list, err := ParseOperationList(data)
	require.NoError(t, err)
	assert.Equal(t, "v3", list.Version)
	require.Len(t, list.Operations, 3)
	assert.Equal(t, OpInsert, list.Operations[0].Type)
	assert.Equal(t, ContentLines{"x = 1", "y = 2"}, list.Operations[0].Content)
}

func TestParseOperationListStringContent(t *testing.T) {
	t.Parallel()

	// A bare string with embedded newlines decodes to one line per segment.
	data := []byte(`{"operations":[{"type":"insert","file_path":"a.py","after_line":0,"content":"x = 1\ny = 2\n"}]}`)

	list, err := ParseOperationList(data)
	require.NoError(t, err)
	require.Len(t, list.Operations, 1)
	assert.Equal(t, ContentLines{"x = 1", "y = 2"}, list.Operations[0].Content)
}

func TestParseOperationListValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"unknown type", `{"operations":[{"type":"rename","file_path":"a.py"}]}`},
		{"missing path", `{"operations":[{"type":"delete","start_line":1,"end_line":1}]}`},
		{"absolute path", `{"operations":[{"type":"delete","file_path":"/etc/passwd","start_line":1,"end_line":1}]}`},
		{"escaping path", `{"operations":[{"type":"delete","file_path":"../a.py","start_line":1,"end_line":1}]}`},
		{"inverted range", `{"operations":[{"type":"replace","file_path":"a.py","start_line":5,"end_line":2}]}`},
		{"insert without content", `{"operations":[{"type":"insert","file_path":"a.py","after_line":1}]}`},
		{"negative after_line", `{"operations":[{"type":"insert","file_path":"a.py","after_line":-1,"content":"x"}]}`},
		{"unknown field", `{"operations":[{"type":"delete","file_path":"a.py","start_line":1,"end_line":1,"mode":"hard"}]}`},
		{"not json", `operations: []`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseOperationList([]byte(tt.body))
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestOpsDeleteMiddleLine(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	writeTree(t, target, map[string]string{"f.txt": "l1\nl2\nl3\nl4\nl5\n"})

	editor := NewOpsEditor(nil, nil)
	list := &OperationList{Operations: []Operation{
		{Type: OpDelete, FilePath: "f.txt", StartLine: 3, EndLine: 3},
	}}

	res := editor.Apply(target, list, false)
	require.True(t, res.Success, res.Err)
	assert.True(t, res.Modified)
	assert.Equal(t, "l1\nl2\nl4\nl5\n", readTreeFile(t, target, "f.txt"))
}

func TestOpsInsertAtTopAndBottom(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	writeTree(t, target, map[string]string{"f.txt": "middle\n"})

	editor := NewOpsEditor(nil, nil)
	list := &OperationList{Operations: []Operation{
		{Type: OpInsert, FilePath: "f.txt", AfterLine: 0, Content: ContentLines{"first"}},
		{Type: OpInsert, FilePath: "f.txt", AfterLine: 1, Content: ContentLines{"last"}},
	}}

	res := editor.Apply(target, list, false)
	require.True(t, res.Success, res.Err)
	assert.Equal(t, "first\nmiddle\nlast\n", readTreeFile(t, target, "f.txt"))
}

func TestOpsDescendingApplicationKeepsLineNumbers(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	writeTree(t, target, map[string]string{"f.txt": "a\nb\nc\nd\n"})

	// Both operations use line numbers of the original file; applying the
	// earlier one first would shift the later one.
	editor := NewOpsEditor(nil, nil)
	list := &OperationList{Operations: []Operation{
		{Type: OpReplace, FilePath: "f.txt", StartLine: 1, EndLine: 1, Content: ContentLines{"A"}},
		{Type: OpDelete, FilePath: "f.txt", StartLine: 3, EndLine: 3},
	}}

	res := editor.Apply(target, list, false)
	require.True(t, res.Success, res.Err)
	assert.Equal(t, "A\nb\nd\n", readTreeFile(t, target, "f.txt"))
}

func TestOpsNoOpYieldsEmptyPatch(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	writeTree(t, target, map[string]string{"f.txt": "a\nb\nc\n"})

	editor := NewOpsEditor(nil, nil)

	// Replacing a line with itself changes nothing.
	list := &OperationList{Operations: []Operation{
		{Type: OpReplace, FilePath: "f.txt", StartLine: 2, EndLine: 2, Content: ContentLines{"b"}},
	}}

	patch, err := editor.RenderPatch(target, list)
	require.NoError(t, err)
	assert.Empty(t, patch)

	res := editor.Apply(target, list, false)
	require.True(t, res.Success)
	assert.False(t, res.Modified)
	assert.Equal(t, "a\nb\nc\n", readTreeFile(t, target, "f.txt"))
}

func TestOpsInsertThenDeleteCancelsOut(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	writeTree(t, target, map[string]string{"f.txt": "a\nb\nc\nd\ne\n"})

	editor := NewOpsEditor(nil, nil)

	// Delete line 3 and insert its copy after line 2. Applied in descending
	// order the pair restores the original content exactly.
	list := &OperationList{Operations: []Operation{
		{Type: OpInsert, FilePath: "f.txt", AfterLine: 2, Content: ContentLines{"c"}},
		{Type: OpDelete, FilePath: "f.txt", StartLine: 3, EndLine: 3},
	}}

	patch, err := editor.RenderPatch(target, list)
	require.NoError(t, err)
	assert.Empty(t, patch)

	res := editor.Apply(target, list, false)
	require.True(t, res.Success)
	assert.False(t, res.Modified)
	assert.Equal(t, "a\nb\nc\nd\ne\n", readTreeFile(t, target, "f.txt"))
}

func TestOpsEmptyBatch(t *testing.T) {
	t.Parallel()

	editor := NewOpsEditor(nil, nil)
	res := editor.Apply(t.TempDir(), &OperationList{}, false)
	require.True(t, res.Success)
	assert.False(t, res.Modified)
}

func TestOpsOutOfRange(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	writeTree(t, target, map[string]string{"f.txt": "only\n"})

	editor := NewOpsEditor(nil, nil)
	list := &OperationList{Operations: []Operation{
		{Type: OpDelete, FilePath: "f.txt", StartLine: 1, EndLine: 9},
	}}

	res := editor.Apply(target, list, false)
	require.False(t, res.Success)
	assert.Contains(t, res.Err, "beyond end of file")
	assert.Equal(t, "only\n", readTreeFile(t, target, "f.txt"))
}

func TestOpsMissingFile(t *testing.T) {
	t.Parallel()

	editor := NewOpsEditor(nil, nil)
	list := &OperationList{Operations: []Operation{
		{Type: OpDelete, FilePath: "ghost.txt", StartLine: 1, EndLine: 1},
	}}

	res := editor.Apply(t.TempDir(), list, false)
	assert.False(t, res.Success)
}
