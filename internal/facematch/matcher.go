package facematch

import "math"

// EuclideanDistance returns the L2 distance between two embeddings.
// Vectors of different or zero length are infinitely far apart.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Match finds the roster embedding nearest to probe. The nearest entry is
// accepted only when its distance is strictly below threshold. Ties resolve to
// the earliest roster position.
func Match(probe []float32, roster [][]float32, threshold float64) Result {
	if len(roster) == 0 {
		return NoMatch
	}

	best := -1
	bestDist := math.Inf(1)
	for i, emb := range roster {
		d := EuclideanDistance(probe, emb)
		if d < bestDist {
			best, bestDist = i, d
		}
	}

	return accept(best, bestDist, threshold)
}

// MatchCandidates is Match restricted to the given roster positions, used when
// an approximate index has already narrowed the search. Candidate order does
// not affect the result: ties still resolve to the lowest roster position.
func MatchCandidates(probe []float32, roster [][]float32, candidates []int, threshold float64) Result {
	if len(roster) == 0 || len(candidates) == 0 {
		return NoMatch
	}

	best := -1
	bestDist := math.Inf(1)
	for _, i := range candidates {
		if i < 0 || i >= len(roster) {
			continue
		}
		d := EuclideanDistance(probe, roster[i])
		if d < bestDist || (d == bestDist && best >= 0 && i < best) {
			best, bestDist = i, d
		}
	}

	return accept(best, bestDist, threshold)
}

func accept(index int, distance, threshold float64) Result {
	if index < 0 || distance >= threshold {
		return Unmatched(distance)
	}
	return Result{Index: index, Distance: distance, Matched: true}
}
