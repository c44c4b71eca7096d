package vector

import (
	"math"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

// Match is one scored hit. Score is cosine similarity for embedding
// search and a 0-100 ratio for the fuzzy fallback.
type Match struct {
	Entry types.VectorEntry
	Score float64
}

// Index searches a session's embedded knowledge entries.
type Index struct {
	entries []types.VectorEntry
}

func New(entries []types.VectorEntry) *Index {
	return &Index{entries: entries}
}

func (idx *Index) Len() int {
	return len(idx.entries)
}

// Search ranks entries by cosine similarity against the query vector,
// dropping anything under the score threshold. Ties keep insertion
// order.
func (idx *Index) Search(queryVec []float64, topK int) []Match {
	matches := make([]Match, 0, len(idx.entries))
	for _, entry := range idx.entries {
		score := Cosine(queryVec, entry.Vector)
		if score < types.VECTOR_SCORE_THRESHOLD {
			continue
		}
		matches = append(matches, Match{Entry: entry, Score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// FuzzySearch is the fallback when no embedding is available or cosine
// search came back empty. Scores are normalized against a perfect
// self-match so the 0-100 threshold is meaningful.
func (idx *Index) FuzzySearch(query string, topK int) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	texts := make([]string, len(idx.entries))
	for i, entry := range idx.entries {
		texts[i] = strings.ToLower(entry.Text)
	}

	perfect := fuzzy.Find(query, []string{query})
	if len(perfect) == 0 || perfect[0].Score <= 0 {
		return nil
	}
	best := float64(perfect[0].Score)

	// Long entries can outscore the query's own self-match, so several
	// hits saturate at 100. Ranking carries the entry position along to
	// break those ties by original record order.
	type hit struct {
		match Match
		pos   int
	}
	hits := make([]hit, 0, len(idx.entries))
	for _, m := range fuzzy.Find(query, texts) {
		score := float64(m.Score) / best * 100
		if score > 100 {
			score = 100
		}
		if score < types.FUZZY_SCORE_THRESHOLD {
			continue
		}
		hits = append(hits, hit{match: Match{Entry: idx.entries[m.Index], Score: score}, pos: m.Index})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].match.Score == hits[j].match.Score {
			return hits[i].pos < hits[j].pos
		}
		return hits[i].match.Score > hits[j].match.Score
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	matches := make([]Match, len(hits))
	for i, h := range hits {
		matches[i] = h.match
	}
	return matches
}

// Cosine returns the cosine similarity of two vectors, 0 when either
// is empty or lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
