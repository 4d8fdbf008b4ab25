// Package roster holds the in-memory set of enrolled embeddings used for
// recognition and replaces it atomically after enrollment.
package roster

import (
	"github.com/coder/hnsw"
	"github.com/kozaktomas/campus-attendance/internal/database"
	"github.com/kozaktomas/campus-attendance/internal/facematch"
)

// Options controls when the approximate index is built.
type Options struct {
	// IndexMinSize is the roster size at which an HNSW graph is built.
	// Zero disables the index.
	IndexMinSize int
	// Candidates is how many neighbors the index returns for exact re-ranking.
	Candidates int
}

// Identity is the result of matching one face against a snapshot.
type Identity struct {
	StudentID string
	Name      string
	Distance  float64
	Known     bool
}

// Label returns the student's name, or the unknown label.
func (id Identity) Label() string {
	if !id.Known {
		return facematch.UnknownLabel
	}
	return id.Name
}

// Snapshot is an immutable roster. It must not be modified after NewSnapshot.
type Snapshot struct {
	entries    []database.RosterEntry
	embeddings [][]float32
	dim        int
	graph      *hnsw.Graph[int]
	candidates int
}

// NewSnapshot builds a snapshot over entries, which must share one dimension.
func NewSnapshot(entries []database.RosterEntry, opts Options) *Snapshot {
	s := &Snapshot{
		entries:    entries,
		embeddings: make([][]float32, len(entries)),
		candidates: opts.Candidates,
	}
	for i, e := range entries {
		s.embeddings[i] = e.Embedding
	}
	if len(entries) > 0 {
		s.dim = len(entries[0].Embedding)
	}

	if opts.IndexMinSize > 0 && len(entries) >= opts.IndexMinSize && s.dim > 0 {
		g := hnsw.NewGraph[int]()
		g.Distance = hnsw.EuclideanDistance
		for i, emb := range s.embeddings {
			if len(emb) != s.dim {
				continue
			}
			g.Add(hnsw.MakeNode(i, emb))
		}
		s.graph = g
		if s.candidates <= 0 {
			s.candidates = 32
		}
	}
	return s
}

// Empty returns a snapshot with no entries.
func Empty() *Snapshot {
	return &Snapshot{}
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Indexed reports whether matching goes through the HNSW graph.
func (s *Snapshot) Indexed() bool {
	return s.graph != nil
}

// Entries returns the entries in roster order. Callers must not modify them.
func (s *Snapshot) Entries() []database.RosterEntry {
	return s.entries
}

// Match returns the nearest enrolled student within threshold.
func (s *Snapshot) Match(probe []float32, threshold float64) Identity {
	var res facematch.Result
	switch {
	case len(s.entries) == 0:
		res = facematch.NoMatch
	case s.graph != nil && len(probe) == s.dim:
		k := min(s.candidates, len(s.entries))
		nodes := s.graph.Search(probe, k)
		candidates := make([]int, len(nodes))
		for i, n := range nodes {
			candidates[i] = n.Key
		}
		res = facematch.MatchCandidates(probe, s.embeddings, candidates, threshold)
	default:
		res = facematch.Match(probe, s.embeddings, threshold)
	}

	if !res.Matched {
		return Identity{Distance: res.Distance}
	}
	e := s.entries[res.Index]
	return Identity{StudentID: e.StudentID, Name: e.Name, Distance: res.Distance, Known: true}
}
