// Package lang provides the language plugin registry: tree-sitter backed
// plugins with embedded query files and declarative capture rules, plus
// regex-fallback plugins for languages without reliable grammar support.
package lang

import (
	"embed"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"codemap/internal/model"
)

//go:embed queries/*.scm
var queryFS embed.FS

var whitespaceRe = regexp.MustCompile(`\s+`)

// Plugin is the capability contract every language implements. Extraction
// itself is either grammar-driven (see Language and the parse package) or
// regex-driven (see RegexPlugin).
type Plugin interface {
	Name() string
	Extensions() []string
	CanParse(path string) bool
	// RenderSkeleton renders the structural skeleton of a parsed file:
	// signatures without bodies.
	RenderSkeleton(rec *model.FileRecord) string
}

// RegexPlugin is implemented by fallback plugins that extract symbols with
// regular expressions instead of a grammar. Their records are tagged
// Fallback=true.
type RegexPlugin interface {
	Plugin
	ParseFile(source []byte, path string, modTime time.Time) *model.FileRecord
}

// Language holds tree-sitter configuration for a grammar-backed plugin.
type Language struct {
	LangName   string
	Exts       []string
	CommentTok string // line comment token used in skeleton rendering
	lang       *sitter.Language
	rules      RuleSet
	queryOnce  sync.Once
	query      *sitter.Query
	queryErr   error

	// FindMethodClass returns the enclosing class name if a function
	// definition is actually a method (Python/Ruby style). "" if not.
	FindMethodClass func(node *sitter.Node, source []byte) string

	// FindReceiverType returns the receiver type name for a method
	// definition node (Go style). "" if not applicable.
	FindReceiverType func(node *sitter.Node, source []byte) string

	// FindEnclosingDef returns the qualified name of the function or method
	// containing a reference site, "" at top level.
	FindEnclosingDef func(node *sitter.Node, source []byte) string

	// ExtractSignature returns a signature string for a definition node.
	ExtractSignature func(node *sitter.Node, kind model.SymbolKind, source []byte) string

	// ExtractDoc returns the documentation text for a definition node.
	ExtractDoc func(node *sitter.Node, source []byte) string
}

func (l *Language) Name() string         { return l.LangName }
func (l *Language) Extensions() []string { return l.Exts }

// CanParse reports whether this language handles the file's extension.
func (l *Language) CanParse(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range l.Exts {
		if e == ext {
			return true
		}
	}
	return false
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Rules returns the active capture rule set.
func (l *Language) Rules() RuleSet { return l.rules }

// SetRules replaces the capture rules, e.g. from an external rule file.
func (l *Language) SetRules(rs RuleSet) { l.rules = rs }

// GetTagQuery returns the compiled tree-sitter query (safe to share
// across goroutines).
func (l *Language) GetTagQuery() (*sitter.Query, error) {
	l.queryOnce.Do(func() {
		data, err := queryFS.ReadFile(fmt.Sprintf("queries/%s.scm", l.LangName))
		if err != nil {
			l.queryErr = fmt.Errorf("reading query file: %w", err)
			return
		}
		q, err := sitter.NewQuery(data, l.lang)
		if err != nil {
			l.queryErr = fmt.Errorf("compiling query: %w", err)
			return
		}
		l.query = q
	})
	return l.query, l.queryErr
}

// Registry is an explicit, ordered set of plugins owned by the caller.
// Extension resolution is computed once and cached; there is no
// process-wide plugin state.
type Registry struct {
	plugins []Plugin
	extOnce sync.Once
	extMap  map[string]Plugin
}

// NewRegistry returns a registry with the built-in plugins in their
// default order.
func NewRegistry() *Registry {
	return &Registry{plugins: []Plugin{
		NewGo(),
		NewPython(),
		NewRuby(),
		NewJavaScript(),
		NewMarkdown(),
	}}
}

// Register appends a plugin. Must be called before the first resolution.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
}

// Plugins returns the registered plugins in order.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// Get returns the plugin with the given name, or nil.
func (r *Registry) Get(name string) Plugin {
	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// ForPath resolves the plugin for a file path by extension. The first
// registered plugin claiming an extension wins.
func (r *Registry) ForPath(path string) Plugin {
	r.extOnce.Do(func() {
		r.extMap = make(map[string]Plugin)
		for _, p := range r.plugins {
			for _, ext := range p.Extensions() {
				if _, taken := r.extMap[ext]; !taken {
					r.extMap[ext] = p
				}
			}
		}
	})
	return r.extMap[strings.ToLower(filepath.Ext(path))]
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
