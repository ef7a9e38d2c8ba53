// Package render produces the textual renderings of repository map layers:
// the compact tabular overview of the logic layer and the directory tree.
package render

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"codemap/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Overview renders the logic layer as compact tabular text: the directory
// tree, ranked files, key symbols, dependency edges, and call edges.
func Overview(rm *model.RepoMap) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("repo: %s", encodeValue(rm.Name)))
	parts = append(parts, "tree:\n"+indent(Tree(rm.Logic.Tree), "  "))

	type ranked struct {
		path  string
		score float64
	}
	files := make([]ranked, 0, len(rm.Impl.Files))
	for p := range rm.Impl.Files {
		files = append(files, ranked{p, rm.Importance[p]})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].score != files[j].score {
			return files[i].score > files[j].score
		}
		return files[i].path < files[j].path
	})

	var fileRows [][]string
	for _, f := range files {
		rec := rm.Impl.Files[f.path]
		fileRows = append(fileRows, []string{
			f.path,
			rec.Language,
			fmt.Sprintf("%.4f", f.score),
		})
	}
	parts = append(parts, formatTabular("files", []string{"path", "language", "rank"}, fileRows))

	var symbolRows [][]string
	for i := range rm.Logic.KeySymbols {
		s := &rm.Logic.KeySymbols[i]
		symbolRows = append(symbolRows, []string{
			s.File,
			s.FullName(),
			string(s.Kind),
			fmt.Sprintf("%d", s.StartLine),
			s.Signature,
		})
	}
	parts = append(parts, formatTabular("symbols", []string{"file", "name", "kind", "line", "signature"}, symbolRows))

	var depRows [][]string
	for i := range rm.Logic.Dependencies {
		d := &rm.Logic.Dependencies[i]
		depRows = append(depRows, []string{
			d.Source,
			d.Target,
			strings.Join(d.Symbols, " "),
		})
	}
	parts = append(parts, formatTabular("dependencies", []string{"source", "target", "symbols"}, depRows))

	var callRows [][]string
	for i := range rm.Logic.CallEdges {
		ce := &rm.Logic.CallEdges[i]
		callRows = append(callRows, []string{ce.Caller, ce.Callee})
	}
	parts = append(parts, formatTabular("calls", []string{"caller", "callee"}, callRows))

	return strings.Join(parts, "\n")
}

// Tree renders sorted repo-relative paths as an indented directory tree.
func Tree(paths []string) string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	var b strings.Builder
	var prev []string
	for _, p := range sorted {
		segs := strings.Split(p, "/")
		common := 0
		for common < len(prev) && common < len(segs)-1 && prev[common] == segs[common] {
			common++
		}
		for i := common; i < len(segs); i++ {
			fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", i), segs[i])
		}
		prev = segs[:len(segs)-1]
	}
	return strings.TrimRight(b.String(), "\n")
}

func indent(s, prefix string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
