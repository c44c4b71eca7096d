package vector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/vector"
)

func entries() []types.VectorEntry {
	return []types.VectorEntry{
		{ID: "1", Text: "Data Science Bootcamp completion requirements", Vector: []float64{1, 0, 0}},
		{ID: "2", Text: "Leadership Summit event schedule", Vector: []float64{0, 1, 0}},
		{ID: "3", Text: "Data Science certificate download steps", Vector: []float64{0.9, 0.1, 0}},
	}
}

func Test_Search_RanksByCosine(t *testing.T) {
	idx := vector.New(entries())

	matches := idx.Search([]float64{1, 0, 0}, 5)
	assert.Len(t, matches, 2)
	assert.Equal(t, "1", matches[0].Entry.ID)
	assert.Equal(t, "3", matches[1].Entry.ID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func Test_Search_ThresholdFiltersWeakHits(t *testing.T) {
	idx := vector.New(entries())

	matches := idx.Search([]float64{0, 0, 1}, 5)
	assert.Empty(t, matches)
}

func Test_Search_TopK(t *testing.T) {
	idx := vector.New(entries())

	matches := idx.Search([]float64{1, 0, 0}, 1)
	assert.Len(t, matches, 1)
	assert.Equal(t, "1", matches[0].Entry.ID)
}

func Test_FuzzySearch_Fallback(t *testing.T) {
	idx := vector.New(entries())

	matches := idx.FuzzySearch("data sci", 5)
	assert.NotEmpty(t, matches)
	assert.Equal(t, "1", matches[0].Entry.ID)

	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Score, float64(types.FUZZY_SCORE_THRESHOLD))
	}
}

func Test_FuzzySearch_TiesKeepRecordOrder(t *testing.T) {
	idx := vector.New(entries())

	// Entries 1 and 3 both contain the full query and saturate the
	// normalized score; the earlier record must stay first.
	matches := idx.FuzzySearch("data science", 5)
	assert.Len(t, matches, 2)
	assert.Equal(t, "1", matches[0].Entry.ID)
	assert.Equal(t, "3", matches[1].Entry.ID)
}

func Test_FuzzySearch_NoMatch(t *testing.T) {
	idx := vector.New(entries())

	assert.Empty(t, idx.FuzzySearch("weather today", 5))
	assert.Empty(t, idx.FuzzySearch("   ", 5))
}

func Test_Cosine(t *testing.T) {
	assert.InDelta(t, 1.0, vector.Cosine([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, vector.Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Equal(t, 0.0, vector.Cosine(nil, []float64{1}))
	assert.Equal(t, 0.0, vector.Cosine([]float64{1, 2}, []float64{1}))
}
