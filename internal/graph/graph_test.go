package graph

import (
	"reflect"
	"testing"

	"codemap/internal/model"
)

func record(path string) *model.FileRecord {
	return model.NewFileRecord(path, "python")
}

func TestBuildCrossFileReference(t *testing.T) {
	t.Parallel()

	a := record("a.py")
	a.References = []model.Reference{
		{Name: "foo", Kind: model.RefCall, File: "a.py", Line: 3},
	}
	b := record("b.py")
	b.Symbols = []model.Symbol{
		{Name: "foo", Kind: model.Function, File: "b.py", StartLine: 1, EndLine: 2},
	}

	deps := Build([]*model.FileRecord{a, b})

	want := []model.Dependency{{Source: "a.py", Target: "b.py", Symbols: []string{"foo"}}}
	if !reflect.DeepEqual(deps, want) {
		t.Errorf("Build = %v, want %v", deps, want)
	}
	if !a.Dependencies.Has("b.py") {
		t.Error("a.py should depend on b.py")
	}
	if !b.Dependents.Has("a.py") {
		t.Error("b.py should list a.py as dependent")
	}
}

func TestBuildNoSelfEdges(t *testing.T) {
	t.Parallel()

	a := record("a.py")
	a.Symbols = []model.Symbol{{Name: "local", Kind: model.Function, File: "a.py", StartLine: 1, EndLine: 1}}
	a.References = []model.Reference{{Name: "local", Kind: model.RefCall, File: "a.py", Line: 5}}

	if deps := Build([]*model.FileRecord{a}); len(deps) != 0 {
		t.Errorf("self references should not create edges: %v", deps)
	}
}

func TestBuildImportResolution(t *testing.T) {
	t.Parallel()

	main := record("main.py")
	main.Imports = []string{"pkg.util"}
	util := record("pkg/util.py")

	deps := Build([]*model.FileRecord{main, util})

	want := []model.Dependency{{Source: "main.py", Target: "pkg/util.py", Symbols: []string{"pkg.util"}}}
	if !reflect.DeepEqual(deps, want) {
		t.Errorf("Build = %v, want %v", deps, want)
	}
}

func TestBuildMarkdownLinkResolution(t *testing.T) {
	t.Parallel()

	guide := model.NewFileRecord("docs/guide.md", "markdown")
	guide.Imports = []string{"other.md", "./setup.md#install"}
	other := model.NewFileRecord("docs/other.md", "markdown")
	setup := model.NewFileRecord("docs/setup.md", "markdown")

	deps := Build([]*model.FileRecord{guide, other, setup})

	want := []model.Dependency{
		{Source: "docs/guide.md", Target: "docs/other.md", Symbols: []string{"other.md"}},
		{Source: "docs/guide.md", Target: "docs/setup.md", Symbols: []string{"./setup.md#install"}},
	}
	if !reflect.DeepEqual(deps, want) {
		t.Errorf("Build = %v, want %v", deps, want)
	}
}

func TestBuildModulePrefixedImport(t *testing.T) {
	t.Parallel()

	// Go-style imports carry the module prefix, which never appears in
	// repo-relative paths. Leading segments are shed until a match.
	main := model.NewFileRecord("cmd/app/main.go", "go")
	main.Imports = []string{"example.com/app/internal/util"}
	util := model.NewFileRecord("internal/util/util.go", "go")

	deps := Build([]*model.FileRecord{main, util})

	want := []model.Dependency{
		{Source: "cmd/app/main.go", Target: "internal/util/util.go", Symbols: []string{"example.com/app/internal/util"}},
	}
	if !reflect.DeepEqual(deps, want) {
		t.Errorf("Build = %v, want %v", deps, want)
	}
}

func TestBuildDeduplicatesSymbols(t *testing.T) {
	t.Parallel()

	a := record("a.py")
	a.References = []model.Reference{
		{Name: "foo", Kind: model.RefCall, File: "a.py", Line: 1},
		{Name: "foo", Kind: model.RefCall, File: "a.py", Line: 9},
		{Name: "bar", Kind: model.RefAccess, File: "a.py", Line: 4},
	}
	b := record("b.py")
	b.Symbols = []model.Symbol{
		{Name: "foo", Kind: model.Function, File: "b.py", StartLine: 1, EndLine: 1},
		{Name: "bar", Kind: model.Variable, File: "b.py", StartLine: 3, EndLine: 3},
	}

	deps := Build([]*model.FileRecord{a, b})
	if len(deps) != 1 {
		t.Fatalf("want one deduplicated edge, got %v", deps)
	}
	if !reflect.DeepEqual(deps[0].Symbols, []string{"bar", "foo"}) {
		t.Errorf("edge symbols = %v, want sorted unique [bar foo]", deps[0].Symbols)
	}
}

func TestBuildSkipsImportReferencesInPass2(t *testing.T) {
	t.Parallel()

	// An import-kind reference whose name happens to match a symbol should
	// not double as a symbol edge.
	a := record("a.py")
	a.References = []model.Reference{{Name: "util", Kind: model.RefImport, File: "a.py", Line: 1}}
	b := record("b.py")
	b.Symbols = []model.Symbol{{Name: "util", Kind: model.Function, File: "b.py", StartLine: 1, EndLine: 1}}

	if deps := Build([]*model.FileRecord{a, b}); len(deps) != 0 {
		t.Errorf("import references belong to pass 1 only: %v", deps)
	}
}

func TestBuildCallGraph(t *testing.T) {
	t.Parallel()

	a := record("a.py")
	a.Symbols = []model.Symbol{{Name: "main", Kind: model.Function, File: "a.py", StartLine: 1, EndLine: 5}}
	a.References = []model.Reference{
		{Name: "helper", Kind: model.RefCall, File: "a.py", Line: 2, Enclosing: "main"},
		{Name: "helper", Kind: model.RefCall, File: "a.py", Line: 3, Enclosing: "main"}, // duplicate
		{Name: "unknown", Kind: model.RefCall, File: "a.py", Line: 4, Enclosing: "main"},
		{Name: "helper", Kind: model.RefCall, File: "a.py", Line: 9}, // top-level, no caller
	}
	b := record("b.py")
	b.Symbols = []model.Symbol{{Name: "helper", Kind: model.Function, File: "b.py", StartLine: 1, EndLine: 2}}

	edges := BuildCallGraph([]*model.FileRecord{a, b})

	want := []model.CallEdge{{Caller: "main", Callee: "helper"}}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("BuildCallGraph = %v, want %v", edges, want)
	}
}
