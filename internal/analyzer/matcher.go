package analyzer

import (
	"math"
	"sort"
	"time"
)

// ListingCandidate is a job listing the matcher scores a resume against.
type ListingCandidate struct {
	JobID     string
	Title     string
	Embedding []float32
	CreatedAt time.Time
}

// Match is one scored listing, Score in [0,1].
type Match struct {
	JobID string
	Title string
	Score float64
}

// MeanPool averages chunk vectors into one resume-level vector. All vectors
// must share one dimension (guaranteed upstream by the single-model rule).
func MeanPool(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	pooled := make([]float32, len(vectors[0]))
	for _, vec := range vectors {
		for i, v := range vec {
			pooled[i] += v
		}
	}
	n := float32(len(vectors))
	for i := range pooled {
		pooled[i] /= n
	}
	return pooled
}

// CosineSimilarity returns a value in [-1, 1]; zero for mismatched or
// degenerate inputs.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MatchListings scores each listing against the mean-pooled resume vector with
// cosine similarity mapped onto [0,1]. Results are sorted descending by score;
// exact ties rank newer listings first.
func MatchListings(resumeVectors [][]float32, listings []ListingCandidate) []Match {
	pooled := MeanPool(resumeVectors)
	if pooled == nil {
		return nil
	}

	matches := make([]Match, 0, len(listings))
	order := make(map[string]time.Time, len(listings))
	for _, l := range listings {
		score := (CosineSimilarity(pooled, l.Embedding) + 1) / 2
		score = math.Min(1, math.Max(0, score))
		matches = append(matches, Match{JobID: l.JobID, Title: l.Title, Score: score})
		order[l.JobID] = l.CreatedAt
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return order[matches[i].JobID].After(order[matches[j].JobID])
	})
	return matches
}
