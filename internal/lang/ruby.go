package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"codemap/internal/model"
)

// NewRuby returns the Ruby plugin.
func NewRuby() *Language {
	return &Language{
		LangName:         "ruby",
		Exts:             []string{".rb"},
		CommentTok:       "#",
		lang:             ruby.GetLanguage(),
		rules:            defaultRules(),
		FindMethodClass:  rubyFindMethodClass,
		FindEnclosingDef: rubyFindEnclosingDef,
		ExtractSignature: rubyExtractSignature,
		ExtractDoc:       precedingCommentDoc,
	}
}

// rubyFindEnclosingDef returns the qualified name of the method containing
// the given call-site node (e.g., "MyClass.method" or "methodName").
// Returns "" if the call is at class/module body level or script top-level.
func rubyFindEnclosingDef(node *sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		switch current.Type() {
		case "method":
			var methodName string
			for i := 0; i < int(current.ChildCount()); i++ {
				child := current.Child(i)
				if child.Type() == "identifier" {
					methodName = NodeText(child, source)
					break
				}
			}
			return rubyQualify(current, methodName, source)

		case "singleton_method":
			// def self.foo: take the last identifier (the method name, not "self").
			var methodName string
			for i := 0; i < int(current.ChildCount()); i++ {
				child := current.Child(i)
				if child.Type() == "identifier" {
					methodName = NodeText(child, source)
				}
			}
			return rubyQualify(current, methodName, source)
		}
		current = current.Parent()
	}
	return ""
}

// rubyQualify prefixes a method name with its enclosing class or module.
func rubyQualify(methodNode *sitter.Node, methodName string, source []byte) string {
	if methodName == "" {
		return ""
	}
	ancestor := methodNode.Parent()
	for ancestor != nil {
		if ancestor.Type() == "class" || ancestor.Type() == "module" {
			if cls := rubyClassName(ancestor, source); cls != "" {
				return cls + "." + methodName
			}
			break
		}
		ancestor = ancestor.Parent()
	}
	return methodName
}

// rubyFindMethodClass walks the parent chain looking for a class or module node.
func rubyFindMethodClass(funcNode *sitter.Node, source []byte) string {
	node := funcNode.Parent()
	for node != nil {
		if node.Type() == "class" || node.Type() == "module" {
			return rubyClassName(node, source)
		}
		node = node.Parent()
	}
	return ""
}

// rubyClassName extracts the name from a class or module node.
func rubyClassName(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "constant" || child.Type() == "scope_resolution" {
			return NodeText(child, source)
		}
	}
	return ""
}

func rubyExtractSignature(defNode *sitter.Node, kind model.SymbolKind, source []byte) string {
	if kind == model.Class || kind == model.Module {
		return rubyExtractClassSignature(defNode, source)
	}
	return rubyExtractMethodSignature(defNode, source)
}

func rubyExtractClassSignature(node *sitter.Node, source []byte) string {
	var name, superclass string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "constant", "scope_resolution":
			if name == "" {
				name = NodeText(child, source)
			}
		case "superclass":
			// superclass node contains "< ClassName"
			for j := 0; j < int(child.ChildCount()); j++ {
				sc := child.Child(j)
				if sc.Type() == "constant" || sc.Type() == "scope_resolution" {
					superclass = NodeText(sc, source)
				}
			}
		}
	}
	if superclass != "" {
		return name + " < " + superclass
	}
	return name
}

func rubyExtractMethodSignature(node *sitter.Node, source []byte) string {
	var name, params string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			name = NodeText(child, source)
		case "method_parameters":
			params = CollapseWhitespace(NodeText(child, source))
		}
	}
	if params != "" {
		return name + params
	}
	return name
}
