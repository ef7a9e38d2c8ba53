package edit

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const defaultSimilarityThreshold = 0.8

// SearchReplacer mutates file content by locating a search block and
// substituting a replacement. Strategies run in a fixed cascade; the first
// that matches wins. The last two are opt-in because they trade precision
// for recall.
type SearchReplacer struct {
	// IndentNormalized enables the indentation-normalized block match.
	IndentNormalized bool
	// Similarity enables the similarity-window match.
	Similarity bool
	// SimilarityThreshold is the minimum accepted sequence ratio;
	// 0 means the 0.8 default.
	SimilarityThreshold float64

	log *slog.Logger
}

// NewSearchReplacer returns a replacer with only the exact strategies
// enabled.
func NewSearchReplacer(logger *slog.Logger) *SearchReplacer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SearchReplacer{log: logger.With("component", "searchreplace")}
}

// ReplaceInFile runs the cascade against the file at path and writes the
// result back when a strategy matched. The caller owns re-analysis of the
// touched file.
func (sr *SearchReplacer) ReplaceInFile(path, search, replace string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return failure(fmt.Sprintf("reading %s: %v", path, err))
	}
	res := sr.Replace(string(data), search, replace)
	if !res.Success || !res.Modified {
		return res
	}
	if err := os.WriteFile(path, []byte(res.NewContent), 0o644); err != nil {
		return failure(fmt.Sprintf("writing %s: %v", path, err))
	}
	return res.withMeta("file", path)
}

// Replace runs the strategy cascade over content. A cascade with no match
// returns a failure result, not an error: the caller decides what a miss
// means.
func (sr *SearchReplacer) Replace(content, search, replace string) Result {
	if search == "" {
		return failure("empty search text")
	}

	type strategy struct {
		name    string
		enabled bool
		apply   func(content, search, replace string) (string, bool)
	}
	strategies := []strategy{
		{"exact_lines", true, matchExactLines},
		{"inner_substring", true, matchInnerSubstring},
		{"indent_normalized", sr.IndentNormalized, matchIndentNormalized},
		{"similarity_window", sr.Similarity, sr.matchSimilarityWindow},
	}

	for _, st := range strategies {
		if !st.enabled {
			continue
		}
		if updated, ok := st.apply(content, search, replace); ok {
			sr.log.Debug("strategy matched", "strategy", st.name)
			return Result{
				Success:         true,
				Modified:        updated != content,
				OriginalContent: content,
				NewContent:      updated,
			}.withMeta("strategy", st.name)
		}
	}

	return failure("no matching content")
}

// splitBlock turns a text block into lines, dropping the trailing empty
// element a terminal newline produces.
func splitBlock(s string) []string {
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// matchExactLines slides a window of the search text's line count across
// the content lines looking for exact tuple equality.
func matchExactLines(content, search, replace string) (string, bool) {
	contentLines := strings.Split(content, "\n")
	searchLines := splitBlock(search)
	if len(searchLines) == 0 || len(searchLines) > len(contentLines) {
		return "", false
	}
	replaceLines := splitBlock(replace)

	for i := 0; i+len(searchLines) <= len(contentLines); i++ {
		if !linesEqual(contentLines[i:i+len(searchLines)], searchLines) {
			continue
		}
		updated := spliceLines(contentLines, i, len(searchLines), replaceLines)
		return strings.Join(updated, "\n"), true
	}
	return "", false
}

// matchInnerSubstring strips both texts and falls back to exact substring
// containment.
func matchInnerSubstring(content, search, replace string) (string, bool) {
	ts := strings.TrimSpace(search)
	if ts == "" || !strings.Contains(content, ts) {
		return "", false
	}
	return strings.Replace(content, ts, strings.TrimSpace(replace), 1), true
}

// matchIndentNormalized strips the common leading indent from search and
// replacement, matches candidate blocks ignoring their own indent, and
// re-applies the candidate's indent to the replacement.
func matchIndentNormalized(content, search, replace string) (string, bool) {
	contentLines := strings.Split(content, "\n")
	searchLines := stripCommonIndent(splitBlock(search))
	if len(searchLines) == 0 || len(searchLines) > len(contentLines) {
		return "", false
	}
	replaceLines := stripCommonIndent(splitBlock(replace))

	for i := 0; i+len(searchLines) <= len(contentLines); i++ {
		window := contentLines[i : i+len(searchLines)]
		if !linesEqual(stripCommonIndent(window), searchLines) {
			continue
		}
		indent := leadingIndent(window[0])
		indented := make([]string, len(replaceLines))
		for j, l := range replaceLines {
			if l == "" {
				indented[j] = ""
				continue
			}
			indented[j] = indent + l
		}
		updated := spliceLines(contentLines, i, len(searchLines), indented)
		return strings.Join(updated, "\n"), true
	}
	return "", false
}

// matchSimilarityWindow scores candidate blocks whose length is within
// ±10% of the search text's line count and accepts the best candidate at
// or above the threshold.
func (sr *SearchReplacer) matchSimilarityWindow(content, search, replace string) (string, bool) {
	threshold := sr.SimilarityThreshold
	if threshold <= 0 {
		threshold = defaultSimilarityThreshold
	}

	contentLines := strings.Split(content, "\n")
	searchLines := splitBlock(search)
	n := len(searchLines)
	if n == 0 {
		return "", false
	}
	replaceLines := splitBlock(replace)

	slack := n / 10
	minLen, maxLen := n-slack, n+slack
	if minLen < 1 {
		minLen = 1
	}

	bestScore := 0.0
	bestStart, bestLen := -1, 0
	for size := minLen; size <= maxLen; size++ {
		for i := 0; i+size <= len(contentLines); i++ {
			score := similarityRatio(searchLines, contentLines[i:i+size])
			if score > bestScore {
				bestScore = score
				bestStart, bestLen = i, size
			}
		}
	}

	if bestStart < 0 || bestScore < threshold {
		return "", false
	}
	sr.log.Debug("similarity match", "score", bestScore, "start", bestStart)
	updated := spliceLines(contentLines, bestStart, bestLen, replaceLines)
	return strings.Join(updated, "\n"), true
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func spliceLines(lines []string, start, count int, replacement []string) []string {
	out := make([]string, 0, len(lines)-count+len(replacement))
	out = append(out, lines[:start]...)
	out = append(out, replacement...)
	out = append(out, lines[start+count:]...)
	return out
}

// stripCommonIndent removes the longest shared leading-whitespace prefix.
func stripCommonIndent(lines []string) []string {
	common := ""
	first := true
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		indent := leadingIndent(l)
		if first {
			common = indent
			first = false
			continue
		}
		common = commonPrefix(common, indent)
	}
	if common == "" {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimPrefix(l, common)
	}
	return out
}

func leadingIndent(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

func commonPrefix(a, b string) string {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}
	i := 0
	for i < max && a[i] == b[i] {
		i++
	}
	return a[:i]
}
