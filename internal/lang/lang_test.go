package lang

import (
	"strings"
	"testing"

	"codemap/internal/model"
)

func TestRegistryForPath(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()

	tests := []struct {
		path string
		want string
	}{
		{"main.py", "python"},
		{"pkg/util.go", "go"},
		{"lib/app.rb", "ruby"},
		{"src/index.js", "javascript"},
		{"src/widget.jsx", "javascript"},
		{"README.md", "markdown"},
		{"style.css", ""},
		{"Makefile", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			p := reg.ForPath(tt.path)
			got := ""
			if p != nil {
				got = p.Name()
			}
			if got != tt.want {
				t.Errorf("ForPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestRegistryFirstPluginWinsExtension(t *testing.T) {
	t.Parallel()

	reg := &Registry{plugins: []Plugin{NewPython(), NewMarkdown()}}
	reg.Register(&Markdown{}) // same extensions, registered later

	p := reg.ForPath("notes.md")
	if p == nil {
		t.Fatal("ForPath returned nil for .md")
	}
	if p != reg.Plugins()[1] {
		t.Error("extension should resolve to the first registered claimant")
	}
}

func TestRegistryGet(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if reg.Get("python") == nil {
		t.Error("Get(python) = nil")
	}
	if reg.Get("cobol") != nil {
		t.Error("Get(cobol) should be nil")
	}
}

func TestGetTagQueryCompiles(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"go", "python", "ruby", "javascript"} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			reg := NewRegistry()
			l, ok := reg.Get(name).(*Language)
			if !ok {
				t.Fatalf("plugin %q is not grammar-backed", name)
			}
			q, err := l.GetTagQuery()
			if err != nil {
				t.Fatalf("GetTagQuery: %v", err)
			}
			if q == nil {
				t.Fatal("GetTagQuery returned nil query")
			}
		})
	}
}

func TestRenderSkeleton(t *testing.T) {
	t.Parallel()

	rec := model.NewFileRecord("app.py", "python")
	rec.Symbols = []model.Symbol{
		{Name: "run", Kind: model.Method, Parent: "App", StartLine: 5, EndLine: 9, Signature: "def run(self)"},
		{Name: "App", Kind: model.Class, StartLine: 3, EndLine: 9, Signature: "class App", Doc: "Application core.\nMore detail."},
	}

	got := renderSkeleton(rec, "#")

	if !strings.HasPrefix(got, "app.py:\n") {
		t.Errorf("skeleton should start with the path header, got %q", got)
	}
	// Sorted by start line: class first, then the method indented deeper.
	classIdx := strings.Index(got, "[class] class App  (3-9)")
	methodIdx := strings.Index(got, "    [method] def run(self)  (5-9)")
	if classIdx < 0 || methodIdx < 0 || classIdx > methodIdx {
		t.Errorf("unexpected skeleton ordering:\n%s", got)
	}
	if !strings.Contains(got, "# Application core.") {
		t.Errorf("doc first line should render as a comment:\n%s", got)
	}
	if strings.Contains(got, "More detail") {
		t.Errorf("only the doc's first line should render:\n%s", got)
	}
}

func TestRenderSkeletonEmpty(t *testing.T) {
	t.Parallel()

	if got := renderSkeleton(model.NewFileRecord("empty.py", "python"), "#"); got != "" {
		t.Errorf("empty record should render empty skeleton, got %q", got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	got := CollapseWhitespace("def  foo(\n    a,\n    b\n)")
	if got != "def foo( a, b )" {
		t.Errorf("CollapseWhitespace = %q", got)
	}
}
