package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"codemap/internal/model"
)

// NewJavaScript returns the JavaScript plugin.
func NewJavaScript() *Language {
	return &Language{
		LangName:         "javascript",
		Exts:             []string{".js", ".jsx", ".mjs", ".cjs"},
		CommentTok:       "//",
		lang:             javascript.GetLanguage(),
		rules:            defaultRules(),
		FindMethodClass:  jsFindMethodClass,
		FindEnclosingDef: jsFindEnclosingDef,
		ExtractSignature: jsExtractSignature,
		ExtractDoc:       precedingCommentDoc,
	}
}

// jsFindMethodClass returns the enclosing class name for a method_definition
// node, "" otherwise.
func jsFindMethodClass(node *sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		if current.Type() == "class_declaration" || current.Type() == "class" {
			if n := current.ChildByFieldName("name"); n != nil {
				return NodeText(n, source)
			}
			return ""
		}
		current = current.Parent()
	}
	return ""
}

// jsFindEnclosingDef returns the qualified name of the function or method
// containing a reference site, "" at module top level.
func jsFindEnclosingDef(node *sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		switch current.Type() {
		case "function_declaration":
			if n := current.ChildByFieldName("name"); n != nil {
				return NodeText(n, source)
			}
			return ""
		case "method_definition":
			var name string
			if n := current.ChildByFieldName("name"); n != nil {
				name = NodeText(n, source)
			}
			if name == "" {
				return ""
			}
			if cls := jsFindMethodClass(current, source); cls != "" {
				return cls + "." + name
			}
			return name
		}
		current = current.Parent()
	}
	return ""
}

func jsExtractSignature(defNode *sitter.Node, kind model.SymbolKind, source []byte) string {
	if kind == model.Class {
		var name, heritage string
		for i := 0; i < int(defNode.ChildCount()); i++ {
			child := defNode.Child(i)
			switch child.Type() {
			case "identifier":
				name = NodeText(child, source)
			case "class_heritage":
				heritage = CollapseWhitespace(NodeText(child, source))
			}
		}
		if heritage != "" {
			return name + " " + heritage
		}
		return name
	}
	if kind == model.Variable {
		for i := 0; i < int(defNode.ChildCount()); i++ {
			child := defNode.Child(i)
			if child.Type() == "variable_declarator" {
				if n := child.ChildByFieldName("name"); n != nil {
					return NodeText(n, source)
				}
			}
		}
		return ""
	}

	var name, params string
	for i := 0; i < int(defNode.ChildCount()); i++ {
		child := defNode.Child(i)
		switch child.Type() {
		case "identifier", "property_identifier":
			name = NodeText(child, source)
		case "formal_parameters":
			params = CollapseWhitespace(NodeText(child, source))
		}
	}
	return name + params
}
