package edit

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff generates a unified-diff body between two file contents with
// a/{rel} and b/{rel} headers and three lines of context.
func UnifiedDiff(relPath, original, updated string) (string, error) {
	if original == updated {
		return "", nil
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(updated),
		FromFile: "a/" + relPath,
		ToFile:   "b/" + relPath,
		Context:  3,
	}
	body, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("generating diff for %s: %w", relPath, err)
	}
	return body, nil
}

// similarityRatio is the sequence similarity of two line slices in [0, 1].
func similarityRatio(a, b []string) float64 {
	return difflib.NewMatcher(a, b).Ratio()
}
