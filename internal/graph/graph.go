// Package graph builds the file dependency graph and computes the
// importance ranking.
package graph

import (
	"sort"
	"strings"

	"codemap/internal/model"
)

// Build derives the dependency edges for a set of file records in two
// heuristic passes: import-name resolution against known file paths, then
// reference resolution against known symbol definitions. Edges are
// deduplicated and the per-record dependency/dependent sets are populated.
// Both passes are O(files × symbols); for large repositories an index is
// the right fix, not a smarter heuristic.
func Build(records []*model.FileRecord) []model.Dependency {
	type edgeKey struct{ src, tgt string }
	edgeSymbols := make(map[edgeKey][]string)

	addEdge := func(src, tgt, symbol string) {
		if src == tgt {
			return // no self-edges
		}
		key := edgeKey{src, tgt}
		if !contains(edgeSymbols[key], symbol) {
			edgeSymbols[key] = append(edgeSymbols[key], symbol)
		}
	}

	// Pass 1: import names resolved by path-token matching. "pkg/util" or
	// "pkg.util" matches any known file whose path contains the slashified
	// token sequence. Substring matching can produce false positives for
	// short names; the trade-off is deliberate.
	paths := make([]string, 0, len(records))
	exts := make(map[string]struct{})
	for _, rec := range records {
		paths = append(paths, rec.Path)
		if ext := pathExt(rec.Path); ext != "" {
			exts[ext] = struct{}{}
		}
	}
	sort.Strings(paths)

	for _, rec := range records {
		for _, imp := range rec.Imports {
			for _, target := range resolveImport(imp, paths, exts) {
				addEdge(rec.Path, target, imp)
			}
		}
	}

	// Pass 2: references resolved by exact symbol-name match against every
	// known definition.
	defines := make(map[string]map[string]struct{})
	for _, rec := range records {
		for i := range rec.Symbols {
			sym := &rec.Symbols[i]
			if defines[sym.Name] == nil {
				defines[sym.Name] = make(map[string]struct{})
			}
			defines[sym.Name][rec.Path] = struct{}{}
		}
	}

	for _, rec := range records {
		for i := range rec.References {
			ref := &rec.References[i]
			if ref.Kind == model.RefImport {
				continue // handled by pass 1
			}
			defFiles := defines[ref.Name]
			if defFiles == nil {
				continue
			}
			// Iterate in sorted order for determinism
			for _, defFile := range sortedKeys(defFiles) {
				addEdge(rec.Path, defFile, ref.Name)
			}
		}
	}

	var deps []model.Dependency
	for key, syms := range edgeSymbols {
		sort.Strings(syms)
		deps = append(deps, model.Dependency{
			Source:  key.src,
			Target:  key.tgt,
			Symbols: syms,
		})
	}

	// Sort for deterministic output
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Source != deps[j].Source {
			return deps[i].Source < deps[j].Source
		}
		return deps[i].Target < deps[j].Target
	})

	byPath := make(map[string]*model.FileRecord, len(records))
	for _, rec := range records {
		byPath[rec.Path] = rec
	}
	for _, d := range deps {
		if src := byPath[d.Source]; src != nil {
			src.Dependencies.Add(d.Target)
		}
		if tgt := byPath[d.Target]; tgt != nil {
			tgt.Dependents.Add(d.Source)
		}
	}

	return deps
}

// resolveImport matches an import name against the known file paths. An
// import ending in an extension the tree actually uses is a path already
// (markdown links, relative includes): the extension is dropped instead of
// being treated as a package separator. Everything else has dots turned
// into slashes. Leading segments that never occur in the tree (module
// prefixes, "..") are shed until something matches.
func resolveImport(imp string, paths []string, exts map[string]struct{}) []string {
	token := strings.Trim(imp, "/")
	if i := strings.IndexByte(token, '#'); i >= 0 {
		token = token[:i] // drop link fragments
	}
	if ext := pathExt(token); ext != "" {
		if _, known := exts[ext]; known {
			token = strings.TrimSuffix(token, ext)
		} else {
			token = strings.ReplaceAll(token, ".", "/")
		}
	} else {
		token = strings.ReplaceAll(token, ".", "/")
	}
	token = strings.Trim(token, "/")
	if token == "" {
		return nil
	}

	segs := strings.Split(token, "/")
	for i := 0; i < len(segs); i++ {
		t := strings.Join(segs[i:], "/")
		if t == "" || t == "." || t == ".." {
			continue
		}
		var out []string
		for _, p := range paths {
			stem := strings.TrimSuffix(p, pathExt(p))
			if strings.Contains(stem, t) {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func pathExt(p string) string {
	if i := strings.LastIndexByte(p, '.'); i > strings.LastIndexByte(p, '/') {
		return p[i:]
	}
	return ""
}

// BuildCallGraph builds function-level call edges from the parsed records.
// An edge is only included when the callee is a known definition in the repo
// and the caller (Enclosing) is non-empty. Edges are deduplicated and sorted.
func BuildCallGraph(records []*model.FileRecord) []model.CallEdge {
	knownDefs := make(map[string]struct{})
	for _, rec := range records {
		for i := range rec.Symbols {
			knownDefs[rec.Symbols[i].Name] = struct{}{}
		}
	}

	type edgeKey struct{ caller, callee string }
	seen := make(map[edgeKey]struct{})

	var edges []model.CallEdge
	for _, rec := range records {
		for i := range rec.References {
			ref := &rec.References[i]
			if ref.Kind != model.RefCall || ref.Enclosing == "" {
				continue
			}
			if _, ok := knownDefs[ref.Name]; !ok {
				continue
			}
			key := edgeKey{ref.Enclosing, ref.Name}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			edges = append(edges, model.CallEdge{Caller: ref.Enclosing, Callee: ref.Name})
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Caller != edges[j].Caller {
			return edges[i].Caller < edges[j].Caller
		}
		return edges[i].Callee < edges[j].Callee
	})

	return edges
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
