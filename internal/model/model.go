// Package model defines the core data structures shared by the analysis
// and editing packages: symbols, references, file records, the layered
// repository map, and the uniform edit result.
package model

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"time"
)

// SymbolKind indicates the syntactic kind of a symbol.
type SymbolKind string

const (
	Class    SymbolKind = "class"
	Function SymbolKind = "function"
	Method   SymbolKind = "method"
	Variable SymbolKind = "variable"
	Constant SymbolKind = "constant"
	Module   SymbolKind = "module"
	Field    SymbolKind = "field"
	Section  SymbolKind = "section"
)

// RefKind indicates how a symbol is used at a reference site.
type RefKind string

const (
	RefCall        RefKind = "call"
	RefInheritance RefKind = "inheritance"
	RefImport      RefKind = "import"
	RefAccess      RefKind = "access"
)

// Symbol is a single named definition extracted from a source file.
// EndLine is always >= StartLine.
type Symbol struct {
	Name      string     `json:"name"`
	Kind      SymbolKind `json:"kind"`
	File      string     `json:"file"`       // repo-relative, forward slashes
	StartLine int        `json:"start_line"` // 1-based
	EndLine   int        `json:"end_line"`
	Signature string     `json:"signature,omitempty"`
	Doc       string     `json:"doc,omitempty"`
	Content   string     `json:"content,omitempty"`
	Parent    string     `json:"parent,omitempty"`
	Modifiers []string   `json:"modifiers,omitempty"`
	Params    []string   `json:"params,omitempty"`
}

// FullName returns "Parent.Name" when the symbol has a parent, else Name.
func (s *Symbol) FullName() string {
	if s.Parent != "" {
		return s.Parent + "." + s.Name
	}
	return s.Name
}

// Reference is a use of a named symbol elsewhere in the code.
type Reference struct {
	Name string  `json:"name"`
	Kind RefKind `json:"kind"`
	File string  `json:"file"` // repo-relative, forward slashes
	Line int     `json:"line"`
	// Enclosing is the qualified name of the containing definition,
	// "" when the reference occurs at file top level.
	Enclosing string `json:"enclosing,omitempty"`
}

// StringSet is a set of strings that serializes as a sorted JSON list,
// so round-trips are lossy only for ordering.
type StringSet map[string]struct{}

// Add inserts s into the set.
func (ss StringSet) Add(s string) { ss[s] = struct{}{} }

// Has reports whether s is in the set.
func (ss StringSet) Has(s string) bool {
	_, ok := ss[s]
	return ok
}

// Sorted returns the members in sorted order.
func (ss StringSet) Sorted() []string {
	out := make([]string, 0, len(ss))
	for s := range ss {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted JSON array.
func (ss StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(ss.Sorted())
}

// UnmarshalJSON decodes a JSON array into the set.
func (ss *StringSet) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	set := make(StringSet, len(items))
	for _, s := range items {
		set.Add(s)
	}
	*ss = set
	return nil
}

// FileRecord wraps one parsed file: its symbols, references, import/export
// name lists, and the dependency sets filled in later by the graph builder.
type FileRecord struct {
	Path       string      `json:"path"` // repo-relative, forward slashes
	Language   string      `json:"language"`
	Symbols    []Symbol    `json:"symbols"`
	References []Reference `json:"references"`
	Imports    []string    `json:"imports,omitempty"`
	Exports    []string    `json:"exports,omitempty"`
	// Dependencies and Dependents are populated by the graph builder,
	// not by the plugin that produced the record.
	Dependencies StringSet `json:"dependencies,omitempty"`
	Dependents   StringSet `json:"dependents,omitempty"`
	ModTime      time.Time `json:"mod_time"`
	// Fallback marks records produced by regex extraction rather than a
	// grammar-backed parse.
	Fallback bool `json:"fallback,omitempty"`
}

// NewFileRecord returns an empty record for path. Parse failures degrade to
// exactly this, so one bad file never poisons the batch.
func NewFileRecord(path, language string) *FileRecord {
	return &FileRecord{
		Path:         NormalizePath(path),
		Language:     language,
		Dependencies: StringSet{},
		Dependents:   StringSet{},
	}
}

// CallEdge is a deduplicated caller->callee edge in the call graph.
type CallEdge struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
}

// Dependency is a file->file edge: Source references symbols defined in
// Target, via the listed symbol names.
type Dependency struct {
	Source  string   `json:"source"` // path
	Target  string   `json:"target"` // path
	Symbols []string `json:"symbols"`
}

// LogicLayer is the overview layer: directory tree, key symbols, the call
// graph, and the file dependency graph.
type LogicLayer struct {
	Tree         []string     `json:"tree"` // sorted repo-relative paths
	KeySymbols   []Symbol     `json:"key_symbols"`
	CallEdges    []CallEdge   `json:"call_edges"`
	Dependencies []Dependency `json:"dependencies"`
}

// SkeletonLayer holds the per-file structural skeleton text and a
// symbol-name -> signature index.
type SkeletonLayer struct {
	Skeletons  map[string]string `json:"skeletons"`  // path -> rendered skeleton
	Signatures map[string]string `json:"signatures"` // full symbol name -> signature
}

// ImplLayer is the full implementation layer: every file record, symbols
// carrying their content.
type ImplLayer struct {
	Files map[string]*FileRecord `json:"files"` // path -> record
}

// RepoMap owns the three layers, the per-file importance scores, and the
// analysis timestamp. It is immutable once assembled; a mutation to any file
// invalidates it and the caller re-analyzes. Every file key present in one
// layer is resolvable in the others from the same instance.
type RepoMap struct {
	Name       string             `json:"name"`
	Root       string             `json:"root"` // path
	Logic      LogicLayer         `json:"logic"`
	Skeleton   SkeletonLayer      `json:"skeleton"`
	Impl       ImplLayer          `json:"impl"`
	Importance map[string]float64 `json:"importance"` // path -> score
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Files returns the sorted file paths of the implementation layer.
func (rm *RepoMap) Files() []string {
	out := make([]string, 0, len(rm.Impl.Files))
	for p := range rm.Impl.Files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Record returns the file record for path, or nil.
func (rm *RepoMap) Record(path string) *FileRecord {
	return rm.Impl.Files[NormalizePath(path)]
}

// NormalizePath converts a filesystem path to its serialized form
// (forward slashes), so loading never has to guess from string shape.
func NormalizePath(p string) string {
	return filepath.ToSlash(p)
}
