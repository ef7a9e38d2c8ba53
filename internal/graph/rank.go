package graph

import (
	"math"
	"strings"

	"codemap/internal/model"
)

const (
	damping       = 0.85
	maxIterations = 100
	tolerance     = 1e-6
	mentionBoost  = 10.0
)

// Rank computes per-file importance via power iteration over the dependency
// graph. The raw scores sum to 1.0 across all files. Every file with no
// edges still participates (dangling mass is redistributed uniformly); an
// empty record set yields an empty map.
func Rank(records []*model.FileRecord, deps []model.Dependency) map[string]float64 {
	if len(records) == 0 {
		return map[string]float64{}
	}

	nodes := make(map[string]struct{}, len(records))
	for _, rec := range records {
		nodes[rec.Path] = struct{}{}
	}

	if len(deps) == 0 {
		uniform := 1.0 / float64(len(records))
		out := make(map[string]float64, len(records))
		for node := range nodes {
			out[node] = uniform
		}
		return out
	}

	// Each symbol on an edge is one unit of weight.
	outEdges := make(map[string][]string)
	outDegree := make(map[string]int)
	for _, d := range deps {
		for range d.Symbols {
			outEdges[d.Source] = append(outEdges[d.Source], d.Target)
			outDegree[d.Source]++
		}
	}

	ranks, converged := pageRank(nodes, outEdges, outDegree, damping, maxIterations, tolerance)
	if !converged {
		uniform := 1.0 / float64(len(nodes))
		for node := range nodes {
			ranks[node] = uniform
		}
	}
	return ranks
}

// ApplyMentionWeights multiplies each file's score by mentionBoost when any
// of its symbol names case-insensitively contains a query mention. Scores
// are weighted in place; the result no longer sums to 1.
func ApplyMentionWeights(scores map[string]float64, records []*model.FileRecord, mentions []string) {
	if len(mentions) == 0 {
		return
	}
	lowered := make([]string, len(mentions))
	for i, m := range mentions {
		lowered[i] = strings.ToLower(m)
	}
	for _, rec := range records {
		if fileMentioned(rec, lowered) {
			scores[rec.Path] *= mentionBoost
		}
	}
}

func fileMentioned(rec *model.FileRecord, lowered []string) bool {
	for i := range rec.Symbols {
		name := strings.ToLower(rec.Symbols[i].Name)
		for _, m := range lowered {
			if m != "" && strings.Contains(name, m) {
				return true
			}
		}
	}
	return false
}

func pageRank(
	nodes map[string]struct{},
	outEdges map[string][]string,
	outDegree map[string]int,
	alpha float64,
	maxIter int,
	tol float64,
) (map[string]float64, bool) {
	n := len(nodes)
	if n == 0 {
		return nil, false
	}

	rank := make(map[string]float64, n)
	initial := 1.0 / float64(n)
	for node := range nodes {
		rank[node] = initial
	}

	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[string]float64, n)

		// Dangling node contribution (nodes with no outgoing edges)
		var danglingSum float64
		for node := range nodes {
			if outDegree[node] == 0 {
				danglingSum += rank[node]
			}
		}
		danglingContrib := alpha * danglingSum / float64(n)

		for node := range nodes {
			newRank[node] = teleport + danglingContrib
		}

		// Distribute rank through edges
		for src, targets := range outEdges {
			deg := float64(outDegree[src])
			contrib := alpha * rank[src] / deg
			for _, tgt := range targets {
				newRank[tgt] += contrib
			}
		}

		// Check convergence
		var diff float64
		for node := range nodes {
			diff += math.Abs(newRank[node] - rank[node])
		}

		rank = newRank

		if diff < tol {
			return rank, true
		}
	}

	return rank, false
}
