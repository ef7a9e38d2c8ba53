// Package parse extracts file records from source files using tree-sitter
// and the declarative capture rules supplied by each language plugin.
package parse

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"codemap/internal/lang"
	"codemap/internal/model"
)

// Session wraps one parser for one language. Parsers are not thread-safe,
// so each worker goroutine owns its own session; the compiled query and the
// rule set are shared.
type Session struct {
	lang   *lang.Language
	parser *sitter.Parser
	query  *sitter.Query
}

// NewSession creates a parse session for a grammar-backed plugin.
func NewSession(l *lang.Language) (*Session, error) {
	q, err := l.GetTagQuery()
	if err != nil {
		return nil, fmt.Errorf("query for %s: %w", l.Name(), err)
	}
	return &Session{lang: l, parser: l.NewParser(), query: q}, nil
}

// ParseFile parses source and returns a fully populated file record:
// symbols with signatures, docs and content slices, references with
// enclosing definitions, and the import/export name lists. The dependency
// sets stay empty; the graph builder fills them in.
func (s *Session) ParseFile(source []byte, path string, modTime time.Time) (*model.FileRecord, error) {
	rec := model.NewFileRecord(path, s.lang.Name())
	rec.ModTime = modTime
	if len(source) == 0 {
		return rec, nil
	}

	tree, err := s.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(s.query, tree.RootNode())

	rules := s.lang.Rules()

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		// Find the @name capture and the rule capture.
		var nameNode *sitter.Node
		var rule lang.Rule
		var defNode *sitter.Node
		matched := false

		for _, c := range match.Captures {
			cname := s.query.CaptureNameForId(c.Index)
			if cname == "name" {
				nameNode = c.Node
			} else if r, ok := rules.Lookup(cname); ok {
				rule = r
				defNode = c.Node
				matched = true
			}
		}

		if nameNode == nil || !matched || defNode == nil {
			continue
		}

		name := lang.NodeText(nameNode, source)

		switch rule.Kind {
		case "definition":
			rec.Symbols = append(rec.Symbols, s.buildSymbol(name, rule.Symbol, nameNode, defNode, rec.Path, source))
		case "reference":
			ref := s.buildReference(name, rule.Ref, nameNode, defNode, rec.Path, source)
			rec.References = append(rec.References, ref)
			if ref.Kind == model.RefImport {
				rec.Imports = append(rec.Imports, ref.Name)
			}
		}
	}

	rec.Exports = exportedNames(rec.Symbols, s.lang.Name())
	return rec, nil
}

func (s *Session) buildSymbol(name string, kind model.SymbolKind, nameNode, defNode *sitter.Node, path string, source []byte) model.Symbol {
	var parent string

	// A function nested in a class body is really a method.
	if kind == model.Function && s.lang.FindMethodClass != nil {
		if cls := s.lang.FindMethodClass(defNode, source); cls != "" {
			kind = model.Method
			parent = cls
		}
	}
	if kind == model.Method && parent == "" {
		if s.lang.FindReceiverType != nil {
			parent = s.lang.FindReceiverType(defNode, source)
		} else if s.lang.FindMethodClass != nil {
			parent = s.lang.FindMethodClass(defNode, source)
		}
	}

	var signature string
	if s.lang.ExtractSignature != nil {
		signature = s.lang.ExtractSignature(defNode, kind, source)
	}

	var doc string
	if s.lang.ExtractDoc != nil {
		doc = s.lang.ExtractDoc(defNode, source)
	}

	startLine := int(defNode.StartPoint().Row) + 1
	endLine := int(defNode.EndPoint().Row) + 1
	if endLine < startLine {
		endLine = startLine
	}

	var modifiers []string
	if p := defNode.Parent(); p != nil && p.Type() == "decorated_definition" {
		modifiers = append(modifiers, "decorated")
	}

	return model.Symbol{
		Name:      name,
		Kind:      kind,
		File:      path,
		StartLine: startLine,
		EndLine:   endLine,
		Signature: signature,
		Doc:       doc,
		Content:   lang.NodeText(defNode, source),
		Parent:    parent,
		Modifiers: modifiers,
		Params:    paramsFromSignature(signature),
	}
}

func (s *Session) buildReference(name string, kind model.RefKind, nameNode, refNode *sitter.Node, path string, source []byte) model.Reference {
	if kind == model.RefImport {
		name = strings.Trim(name, "\"'`")
	}
	ref := model.Reference{
		Name: name,
		Kind: kind,
		File: path,
		Line: int(nameNode.StartPoint().Row) + 1,
	}
	if s.lang.FindEnclosingDef != nil {
		ref.Enclosing = s.lang.FindEnclosingDef(refNode, source)
	}
	return ref
}

// paramsFromSignature pulls the parameter list out of a rendered signature.
func paramsFromSignature(sig string) []string {
	open := strings.IndexByte(sig, '(')
	if open < 0 {
		return nil
	}
	end := strings.LastIndexByte(sig, ')')
	if end <= open {
		return nil
	}
	inner := sig[open+1 : end]
	if strings.TrimSpace(inner) == "" {
		return nil
	}
	parts := strings.Split(inner, ",")
	params := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			params = append(params, p)
		}
	}
	return params
}

// exportedNames returns the sorted public top-level definition names.
// Go exports by capitalization; the other languages treat a leading
// underscore as private.
func exportedNames(symbols []model.Symbol, language string) []string {
	seen := model.StringSet{}
	for i := range symbols {
		s := &symbols[i]
		if s.Parent != "" || s.Name == "" {
			continue
		}
		if language == "go" {
			r := []rune(s.Name)[0]
			if !unicode.IsUpper(r) {
				continue
			}
		} else if strings.HasPrefix(s.Name, "_") {
			continue
		}
		seen.Add(s.Name)
	}
	return seen.Sorted()
}
