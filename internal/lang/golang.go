package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"codemap/internal/model"
)

// NewGo returns the Go plugin.
func NewGo() *Language {
	return &Language{
		LangName:         "go",
		Exts:             []string{".go"},
		CommentTok:       "//",
		lang:             golang.GetLanguage(),
		rules:            defaultRules(),
		FindReceiverType: goFindReceiverType,
		FindEnclosingDef: goFindEnclosingDef,
		ExtractSignature: goExtractSignature,
		ExtractDoc:       precedingCommentDoc,
	}
}

// goFindEnclosingDef walks up from a reference site to the containing
// function or method declaration and returns its (receiver-qualified) name.
func goFindEnclosingDef(node *sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		switch current.Type() {
		case "function_declaration":
			if n := current.ChildByFieldName("name"); n != nil {
				return NodeText(n, source)
			}
			return ""
		case "method_declaration":
			var name string
			if n := current.ChildByFieldName("name"); n != nil {
				name = NodeText(n, source)
			}
			if name == "" {
				return ""
			}
			if recv := goFindReceiverType(current, source); recv != "" {
				return recv + "." + name
			}
			return name
		}
		current = current.Parent()
	}
	return ""
}

// goFindReceiverType extracts the receiver type name from a method_declaration.
// Navigates: method_declaration → parameter_list (receiver) → parameter_declaration → type.
func goFindReceiverType(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "parameter_list" {
			continue
		}
		// The receiver is the parameter_list that appears before the
		// method name.
		if !isReceiverList(node, child) {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			param := child.Child(j)
			if param.Type() == "parameter_declaration" {
				return goExtractTypeName(param, source)
			}
		}
	}
	return ""
}

// goExtractTypeName extracts the type name from a parameter_declaration,
// unwrapping pointer_type if present.
func goExtractTypeName(param *sitter.Node, source []byte) string {
	for i := 0; i < int(param.ChildCount()); i++ {
		child := param.Child(i)
		switch child.Type() {
		case "type_identifier":
			return NodeText(child, source)
		case "pointer_type":
			for k := 0; k < int(child.ChildCount()); k++ {
				inner := child.Child(k)
				if inner.Type() == "type_identifier" {
					return NodeText(inner, source)
				}
			}
		}
	}
	return ""
}

func goExtractSignature(defNode *sitter.Node, kind model.SymbolKind, source []byte) string {
	if kind == model.Class {
		// Type definition: just the type name
		for i := 0; i < int(defNode.ChildCount()); i++ {
			child := defNode.Child(i)
			if child.Type() == "type_identifier" {
				return NodeText(child, source)
			}
		}
		return ""
	}
	if kind == model.Constant || kind == model.Variable {
		if n := defNode.ChildByFieldName("name"); n != nil {
			return NodeText(n, source)
		}
		return CollapseWhitespace(NodeText(defNode, source))
	}

	// Function or method
	var name, params, result string
	for i := 0; i < int(defNode.ChildCount()); i++ {
		child := defNode.Child(i)
		switch child.Type() {
		case "identifier", "field_identifier":
			name = NodeText(child, source)
		case "parameter_list":
			// For methods, the first parameter_list is the receiver; skip it
			if kind == model.Method && params == "" && isReceiverList(defNode, child) {
				continue
			}
			params = CollapseWhitespace(NodeText(child, source))
		case "simple_type", "pointer_type", "qualified_type",
			"slice_type", "map_type", "channel_type",
			"interface_type", "struct_type", "function_type",
			"type_identifier":
			result = CollapseWhitespace(NodeText(child, source))
		}
	}

	sig := name + params
	if result != "" {
		sig += " " + result
	}
	return sig
}

// isReceiverList checks if a parameter_list is the receiver (appears before the method name).
func isReceiverList(parent, paramList *sitter.Node) bool {
	if parent.Type() != "method_declaration" {
		return false
	}
	foundList := false
	for i := 0; i < int(parent.ChildCount()); i++ {
		child := parent.Child(i)
		if child.StartByte() == paramList.StartByte() && child.Type() == "parameter_list" {
			foundList = true
			continue
		}
		if foundList && child.Type() == "field_identifier" {
			return true
		}
	}
	return false
}

// precedingCommentDoc collects the run of comment nodes immediately above a
// definition. Shared by the languages that use line comments for docs.
func precedingCommentDoc(node *sitter.Node, source []byte) string {
	var lines []string
	current := node
	prev := current.PrevNamedSibling()
	for prev != nil && prev.Type() == "comment" {
		// A blank line between comment and definition breaks the doc block.
		if int(current.StartPoint().Row)-int(prev.EndPoint().Row) > 1 {
			break
		}
		lines = append([]string{trimCommentMarkers(NodeText(prev, source))}, lines...)
		current = prev
		prev = current.PrevNamedSibling()
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func trimCommentMarkers(s string) string {
	s = strings.TrimPrefix(s, "///")
	s = strings.TrimPrefix(s, "//")
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimPrefix(s, "/*")
	s = strings.TrimSuffix(s, "*/")
	return strings.TrimSpace(s)
}
