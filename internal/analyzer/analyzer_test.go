package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractIsCaseInsensitive(t *testing.T) {
	e := NewSkillExtractor(DefaultVocabulary())

	skills := e.Extract("Experienced with PYTHON, docker and PostgreSQL databases.")
	assert.Contains(t, skills, "Python")
	assert.Contains(t, skills, "Docker")
	assert.Contains(t, skills, "PostgreSQL")
}

func TestExtractDeduplicatesSynonyms(t *testing.T) {
	e := NewSkillExtractor(DefaultVocabulary())

	skills := e.Extract("Wrote services in Go and golang, deployed on k8s and Kubernetes.")
	count := func(name string) int {
		n := 0
		for _, s := range skills {
			if s == name {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, count("Go"))
	assert.Equal(t, 1, count("Kubernetes"))
}

func TestExtractRespectsWordBoundaries(t *testing.T) {
	e := NewSkillExtractor(Vocabulary{"Go": {"golang"}, "R": nil})

	assert.Empty(t, e.Extract("category theory"), "substring must not match")
	assert.Empty(t, e.Extract("error handling"), "R inside a word must not match")
	assert.Equal(t, []string{"Go"}, e.Extract("shipped a Go service"))
}

func TestExtractPunctuatedSkillNames(t *testing.T) {
	e := NewSkillExtractor(DefaultVocabulary())

	skills := e.Extract("Languages: C++, C#, Node.js.")
	assert.Contains(t, skills, "C++")
	assert.Contains(t, skills, "C#")
	assert.Contains(t, skills, "Node.js")
}

func TestMeanPool(t *testing.T) {
	pooled := MeanPool([][]float32{{1, 0, 3}, {3, 2, 1}})
	assert.Equal(t, []float32{2, 1, 2}, pooled)
	assert.Nil(t, MeanPool(nil))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 2}), "mismatched dims")
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}), "zero vector")
}

func TestMatchListingsScoresSortedInUnitRange(t *testing.T) {
	resume := [][]float32{{1, 0}, {1, 0}}
	listings := []ListingCandidate{
		{JobID: "opposite", Embedding: []float32{-1, 0}},
		{JobID: "aligned", Embedding: []float32{1, 0}},
		{JobID: "orthogonal", Embedding: []float32{0, 1}},
	}

	matches := MatchListings(resume, listings)
	require.Len(t, matches, 3)

	assert.Equal(t, "aligned", matches[0].JobID)
	assert.Equal(t, "orthogonal", matches[1].JobID)
	assert.Equal(t, "opposite", matches[2].JobID)
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Score, 0.0)
		assert.LessOrEqual(t, m.Score, 1.0)
	}
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	assert.InDelta(t, 0.0, matches[2].Score, 1e-9)
}

func TestMatchListingsTiesBrokenByRecency(t *testing.T) {
	now := time.Now()
	resume := [][]float32{{1, 1}}
	listings := []ListingCandidate{
		{JobID: "older", Embedding: []float32{1, 1}, CreatedAt: now.Add(-time.Hour)},
		{JobID: "newer", Embedding: []float32{2, 2}, CreatedAt: now},
	}

	matches := MatchListings(resume, listings)
	require.Len(t, matches, 2)
	assert.Equal(t, matches[0].Score, matches[1].Score)
	assert.Equal(t, "newer", matches[0].JobID, "newer posting ranks first on exact tie")
}

func TestMatchListingsEmptyResume(t *testing.T) {
	assert.Nil(t, MatchListings(nil, []ListingCandidate{{JobID: "a"}}))
}
