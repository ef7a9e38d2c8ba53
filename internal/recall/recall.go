// Package recall serves bounded, query-relevant slices of a repository
// map. It is stateless: every call works only on the map value and the
// query it is given.
package recall

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"codemap/internal/model"
	"codemap/internal/render"
)

// Layer names accepted in Options.Layers.
const (
	LayerLogic          = "logic"
	LayerSkeleton       = "skeleton"
	LayerImplementation = "implementation"
)

const (
	skeletonFileWeight   = 10
	skeletonSymbolWeight = 5
	implContentWeight    = 15
	implSignatureWeight  = 12
	implDocWeight        = 8
	implNameWeight       = 5

	maxSkeletonFiles   = 3
	maxSkeletonSymbols = 10
	maxImplSymbols     = 8

	// Near-miss symbol names still count as name matches above this
	// Jaro-Winkler similarity.
	nameSimilarityThreshold = 0.85

	charsPerToken = 4
)

// Options selects layers and bounds the result size.
type Options struct {
	Layers    []string
	MaxTokens int
}

// Recall returns one rendered text block per requested layer. Unknown
// layer names are ignored; an empty layer list means all three.
func Recall(rm *model.RepoMap, query string, opts Options) map[string]string {
	layers := opts.Layers
	if len(layers) == 0 {
		layers = []string{LayerLogic, LayerSkeleton, LayerImplementation}
	}
	// Unknown names are dropped up front so they do not dilute the
	// per-layer budget.
	known := layers[:0:0]
	for _, layer := range layers {
		switch layer {
		case LayerLogic, LayerSkeleton, LayerImplementation:
			known = append(known, layer)
		}
	}
	if len(known) == 0 {
		return map[string]string{}
	}
	mentions := Mentions(query)
	matchers := compileMatchers(mentions)

	budget := 0
	if opts.MaxTokens > 0 {
		budget = opts.MaxTokens * charsPerToken / len(known)
	}

	out := make(map[string]string, len(known))
	for _, layer := range known {
		var text string
		switch layer {
		case LayerLogic:
			text = render.Overview(rm)
		case LayerSkeleton:
			text = renderSkeletonSlice(rm, matchers)
		case LayerImplementation:
			text = renderImplSlice(rm, matchers)
		}
		if budget > 0 && len(text) > budget {
			text = truncate(text, budget) + "\n...[truncated]"
		}
		out[layer] = text
	}
	return out
}

// truncate cuts text to at most n bytes, backing up so a multi-byte rune
// is never split. Callers guarantee n < len(text).
func truncate(text string, n int) string {
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}

// Mentions splits a query into matchable terms.
func Mentions(query string) []string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !(r == '_' || r == '.' || ('a' <= r && r <= 'z') ||
			('A' <= r && r <= 'Z') || ('0' <= r && r <= '9'))
	})
	seen := map[string]struct{}{}
	var out []string
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// matcher matches one query mention: as a case-insensitive regular
// expression when the mention compiles, otherwise by plain substring.
type matcher struct {
	term string
	re   *regexp.Regexp // nil when the mention is not a valid pattern
}

func compileMatchers(mentions []string) []matcher {
	out := make([]matcher, 0, len(mentions))
	for _, m := range mentions {
		re, err := regexp.Compile("(?i)" + m)
		if err != nil {
			re = nil
		}
		out = append(out, matcher{term: strings.ToLower(m), re: re})
	}
	return out
}

func (m *matcher) matches(text string) bool {
	if m.re != nil {
		return m.re.MatchString(text)
	}
	return strings.Contains(strings.ToLower(text), m.term)
}

// count returns the number of match occurrences in text.
func (m *matcher) count(text string) int {
	if m.re != nil {
		return len(m.re.FindAllStringIndex(text, -1))
	}
	return strings.Count(strings.ToLower(text), m.term)
}

// matchesName is matches plus a fuzzy assist for near-miss symbol names.
func (m *matcher) matchesName(name string) bool {
	if m.matches(name) {
		return true
	}
	sim, err := edlib.StringsSimilarity(strings.ToLower(name), m.term, edlib.JaroWinkler)
	return err == nil && float64(sim) >= nameSimilarityThreshold
}

func renderSkeletonSlice(rm *model.RepoMap, matchers []matcher) string {
	type scored struct {
		path  string
		score int
	}
	var files []scored
	for _, path := range rm.Files() {
		rec := rm.Impl.Files[path]
		score := 0
		for i := range matchers {
			m := &matchers[i]
			if m.matches(path) {
				score += skeletonFileWeight
			}
			for j := range rec.Symbols {
				if m.matchesName(rec.Symbols[j].Name) {
					score += skeletonSymbolWeight
				}
			}
		}
		if score > 0 {
			files = append(files, scored{path, score})
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].score > files[j].score
	})
	if len(files) > maxSkeletonFiles {
		files = files[:maxSkeletonFiles]
	}

	var b strings.Builder
	for _, f := range files {
		rec := rm.Impl.Files[f.path]
		fmt.Fprintf(&b, "%s  (score %d)\n", f.path, f.score)
		shown := 0
		for i := range rec.Symbols {
			if shown >= maxSkeletonSymbols {
				break
			}
			sym := &rec.Symbols[i]
			sig := sym.Signature
			if sig == "" {
				sig = sym.FullName()
			}
			fmt.Fprintf(&b, "  [%s] %s\n", sym.Kind, sig)
			shown++
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderImplSlice(rm *model.RepoMap, matchers []matcher) string {
	type scored struct {
		sym     *model.Symbol
		score   int
		fields  []string
		ordinal int
	}
	var candidates []scored

	ordinal := 0
	for _, path := range rm.Files() {
		rec := rm.Impl.Files[path]
		for i := range rec.Symbols {
			sym := &rec.Symbols[i]
			score := 0
			var fields []string
			for j := range matchers {
				m := &matchers[j]
				if n := m.count(sym.Content); n > 0 {
					score += implContentWeight * n
					fields = appendUnique(fields, "content")
				}
				if sym.Signature != "" && m.matches(sym.Signature) {
					score += implSignatureWeight
					fields = appendUnique(fields, "signature")
				}
				if sym.Doc != "" && m.matches(sym.Doc) {
					score += implDocWeight
					fields = appendUnique(fields, "doc")
				}
				if m.matchesName(sym.Name) {
					score += implNameWeight
					fields = appendUnique(fields, "name")
				}
			}
			if score > 0 {
				candidates = append(candidates, scored{sym, score, fields, ordinal})
			}
			ordinal++
		}
	}

	// Descending score; ties keep original encounter order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > maxImplSymbols {
		candidates = candidates[:maxImplSymbols]
	}

	var b strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&b, "%s:%d-%d %s  (score %d, matched: %s)\n",
			c.sym.File, c.sym.StartLine, c.sym.EndLine, c.sym.FullName(),
			c.score, strings.Join(c.fields, ","))
		if c.sym.Content != "" {
			b.WriteString(c.sym.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
