package lang

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"codemap/internal/model"
)

// Rule maps a query capture name to the symbol or reference kind it
// produces. Rules are declarative so a language's extraction behavior can
// be adjusted without touching plugin code.
type Rule struct {
	Capture string           `yaml:"capture"`
	Kind    string           `yaml:"kind"` // "definition" or "reference"
	Symbol  model.SymbolKind `yaml:"symbol,omitempty"`
	Ref     model.RefKind    `yaml:"ref,omitempty"`
}

// RuleSet is an indexed collection of capture rules.
type RuleSet map[string]Rule

// NewRuleSet builds a set keyed by capture name.
func NewRuleSet(rules ...Rule) RuleSet {
	rs := make(RuleSet, len(rules))
	for _, r := range rules {
		rs[r.Capture] = r
	}
	return rs
}

// Lookup returns the rule for a capture name.
func (rs RuleSet) Lookup(capture string) (Rule, bool) {
	r, ok := rs[capture]
	return r, ok
}

// defaultRules is the base capture vocabulary shared by the tree-sitter
// plugins. Individual languages only deviate by which captures their query
// emits.
func defaultRules() RuleSet {
	return NewRuleSet(
		Rule{Capture: "definition.class", Kind: "definition", Symbol: model.Class},
		Rule{Capture: "definition.function", Kind: "definition", Symbol: model.Function},
		Rule{Capture: "definition.method", Kind: "definition", Symbol: model.Method},
		Rule{Capture: "definition.module", Kind: "definition", Symbol: model.Module},
		Rule{Capture: "definition.variable", Kind: "definition", Symbol: model.Variable},
		Rule{Capture: "definition.constant", Kind: "definition", Symbol: model.Constant},
		Rule{Capture: "reference.call", Kind: "reference", Ref: model.RefCall},
		Rule{Capture: "reference.inheritance", Kind: "reference", Ref: model.RefInheritance},
		Rule{Capture: "reference.import", Kind: "reference", Ref: model.RefImport},
		Rule{Capture: "reference.access", Kind: "reference", Ref: model.RefAccess},
	)
}

// ruleFile is the YAML shape of an external rule file.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules replaces a language's default rules with {dir}/{lang}.yaml when
// such a file exists. Languages without a rule file keep their defaults.
func (r *Registry) LoadRules(dir string) error {
	for _, p := range r.plugins {
		l, ok := p.(*Language)
		if !ok {
			continue
		}
		path := filepath.Join(dir, l.LangName+".yaml")
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading rule file %s: %w", path, err)
		}
		var rf ruleFile
		if err := yaml.Unmarshal(data, &rf); err != nil {
			return fmt.Errorf("parsing rule file %s: %w", path, err)
		}
		if len(rf.Rules) == 0 {
			continue
		}
		rs := defaultRules()
		for _, rule := range rf.Rules {
			if rule.Capture == "" {
				return fmt.Errorf("rule file %s: rule without capture name", path)
			}
			rs[rule.Capture] = rule
		}
		l.SetRules(rs)
	}
	return nil
}
