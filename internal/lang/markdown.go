package lang

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"codemap/internal/model"
)

var (
	mdHeadingRe = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	mdLinkRe    = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)\)`)
)

// Markdown is a regex-fallback plugin: markdown has no reliable grammar
// support here, so headings become section symbols and link targets become
// references. Records are tagged Fallback.
type Markdown struct{}

// NewMarkdown returns the markdown fallback plugin.
func NewMarkdown() *Markdown { return &Markdown{} }

func (m *Markdown) Name() string         { return "markdown" }
func (m *Markdown) Extensions() []string { return []string{".md", ".markdown"} }

func (m *Markdown) CanParse(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// ParseFile extracts headings and link targets line by line.
func (m *Markdown) ParseFile(source []byte, path string, modTime time.Time) *model.FileRecord {
	rec := model.NewFileRecord(path, "markdown")
	rec.ModTime = modTime
	rec.Fallback = true

	lines := strings.Split(string(source), "\n")
	headingEnds := []int{} // index into rec.Symbols of sections awaiting an end line
	for i, line := range lines {
		lineNo := i + 1
		if hm := mdHeadingRe.FindStringSubmatch(line); hm != nil {
			level := len(hm[1])
			// Close sections at the same or deeper level.
			for len(headingEnds) > 0 {
				last := &rec.Symbols[headingEnds[len(headingEnds)-1]]
				if len(last.Modifiers) > 0 && last.Modifiers[0] >= fmt.Sprintf("h%d", level) {
					last.EndLine = lineNo - 1
					headingEnds = headingEnds[:len(headingEnds)-1]
					continue
				}
				break
			}
			rec.Symbols = append(rec.Symbols, model.Symbol{
				Name:      hm[2],
				Kind:      model.Section,
				File:      rec.Path,
				StartLine: lineNo,
				EndLine:   lineNo,
				Signature: hm[1] + " " + hm[2],
				Modifiers: []string{fmt.Sprintf("h%d", level)},
			})
			headingEnds = append(headingEnds, len(rec.Symbols)-1)
			continue
		}
		for _, lm := range mdLinkRe.FindAllStringSubmatch(line, -1) {
			target := lm[1]
			rec.References = append(rec.References, model.Reference{
				Name: target,
				Kind: model.RefImport,
				File: rec.Path,
				Line: lineNo,
			})
			if !strings.Contains(target, "://") {
				rec.Imports = append(rec.Imports, target)
			}
		}
	}
	// Open sections run to end of file.
	for _, idx := range headingEnds {
		rec.Symbols[idx].EndLine = len(lines)
	}
	for i := range rec.Symbols {
		rec.Exports = append(rec.Exports, rec.Symbols[i].Name)
	}
	return rec
}

// RenderSkeleton renders the heading outline.
func (m *Markdown) RenderSkeleton(rec *model.FileRecord) string {
	if rec == nil || len(rec.Symbols) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", rec.Path)
	for i := range rec.Symbols {
		s := &rec.Symbols[i]
		fmt.Fprintf(&b, "  %s  (%d-%d)\n", s.Signature, s.StartLine, s.EndLine)
	}
	return b.String()
}
