package lang

import (
	"os"
	"path/filepath"
	"testing"

	"codemap/internal/model"
)

func TestDefaultRulesLookup(t *testing.T) {
	t.Parallel()

	rs := defaultRules()

	r, ok := rs.Lookup("definition.class")
	if !ok || r.Kind != "definition" || r.Symbol != model.Class {
		t.Errorf("definition.class rule = %+v, ok=%v", r, ok)
	}

	r, ok = rs.Lookup("reference.call")
	if !ok || r.Kind != "reference" || r.Ref != model.RefCall {
		t.Errorf("reference.call rule = %+v, ok=%v", r, ok)
	}

	if _, ok := rs.Lookup("definition.widget"); ok {
		t.Error("unknown capture should not resolve")
	}
}

func TestLoadRulesOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ruleYAML := `rules:
  - capture: definition.function
    kind: definition
    symbol: method
`
	if err := os.WriteFile(filepath.Join(dir, "python.yaml"), []byte(ruleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry()
	if err := reg.LoadRules(dir); err != nil {
		t.Fatalf("LoadRules: %v", err)
	}

	py := reg.Get("python").(*Language)
	r, ok := py.Rules().Lookup("definition.function")
	if !ok || r.Symbol != model.Method {
		t.Errorf("override not applied: %+v, ok=%v", r, ok)
	}
	// Untouched captures keep their defaults.
	r, ok = py.Rules().Lookup("definition.class")
	if !ok || r.Symbol != model.Class {
		t.Errorf("default rule lost: %+v, ok=%v", r, ok)
	}

	// Languages without a rule file are untouched.
	rb := reg.Get("ruby").(*Language)
	r, _ = rb.Rules().Lookup("definition.function")
	if r.Symbol != model.Function {
		t.Errorf("ruby rules should be defaults, got %+v", r)
	}
}

func TestLoadRulesRejectsMissingCapture(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := `rules:
  - kind: definition
    symbol: class
`
	if err := os.WriteFile(filepath.Join(dir, "go.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry()
	if err := reg.LoadRules(dir); err == nil {
		t.Error("LoadRules should reject a rule without a capture name")
	}
}
