package lang

import (
	"fmt"
	"sort"
	"strings"

	"codemap/internal/model"
)

// RenderSkeleton renders the structural skeleton of a parsed file: one line
// per definition with its signature, children indented under their parent,
// doc first-lines shown as comments. Bodies are omitted.
func (l *Language) RenderSkeleton(rec *model.FileRecord) string {
	return renderSkeleton(rec, l.CommentTok)
}

func renderSkeleton(rec *model.FileRecord, commentTok string) string {
	if rec == nil || len(rec.Symbols) == 0 {
		return ""
	}

	syms := make([]model.Symbol, len(rec.Symbols))
	copy(syms, rec.Symbols)
	sort.SliceStable(syms, func(i, j int) bool {
		return syms[i].StartLine < syms[j].StartLine
	})

	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", rec.Path)
	for i := range syms {
		s := &syms[i]
		indent := "  "
		if s.Parent != "" {
			indent = "    "
		}
		if doc := docFirstLine(s.Doc); doc != "" && commentTok != "" {
			fmt.Fprintf(&b, "%s%s %s\n", indent, commentTok, doc)
		}
		sig := s.Signature
		if sig == "" {
			sig = s.Name
		}
		fmt.Fprintf(&b, "%s[%s] %s  (%d-%d)\n", indent, s.Kind, sig, s.StartLine, s.EndLine)
	}
	return b.String()
}

func docFirstLine(doc string) string {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return ""
	}
	if i := strings.IndexByte(doc, '\n'); i >= 0 {
		doc = doc[:i]
	}
	return strings.TrimSpace(doc)
}
