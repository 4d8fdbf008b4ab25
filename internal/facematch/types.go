// Package facematch provides the embedding comparison and box geometry used by
// the recognition loop and enrollment.
package facematch

import "math"

// DefaultThreshold is the reference acceptance threshold for Euclidean distance
// between 128-d face embeddings.
const DefaultThreshold = 0.6

// UnknownLabel is the label drawn for faces that match no enrolled student.
const UnknownLabel = "Unknown"

// Result is the outcome of matching one probe embedding against a roster.
type Result struct {
	Index    int     // roster position of the best match, -1 when unmatched
	Distance float64 // distance to the nearest roster entry, +Inf for an empty roster
	Matched  bool
}

// Unmatched returns the result for a probe that has no acceptable match.
func Unmatched(distance float64) Result {
	return Result{Index: -1, Distance: distance}
}

// NoMatch is the result for an empty roster.
var NoMatch = Unmatched(math.Inf(1))
