package search

import (
	"time"

	"github.com/rs/zerolog"
)

// Stats are observational counters for one search. They never influence
// the result.
type Stats struct {
	PositionsExamined       int           `yaml:"positions-examined"`
	PrunedAlpha             int           `yaml:"pruned-alpha"`
	PrunedBeta              int           `yaml:"pruned-beta"`
	PrunedSequence          int           `yaml:"pruned-sequence"`
	PrunedPlayedSequence    int           `yaml:"pruned-played-sequence"`
	PrunedDuplicatePosition int           `yaml:"pruned-duplicate-position"`
	Elapsed                 time.Duration `yaml:"elapsed"`
	TreeSize                int           `yaml:"tree-size"`
	Cache                   CacheStats    `yaml:"cache"`
}

func (st *Stats) count(r PruneReason) {
	switch r {
	case PrunedAlpha:
		st.PrunedAlpha++
	case PrunedBeta:
		st.PrunedBeta++
	case PrunedSequence:
		st.PrunedSequence++
	case PrunedPlayedSequence:
		st.PrunedPlayedSequence++
	case PrunedDuplicatePosition:
		st.PrunedDuplicatePosition++
	}
}

// Pruned returns the number of nodes pruned for reason r.
func (st Stats) Pruned(r PruneReason) int {
	switch r {
	case PrunedAlpha:
		return st.PrunedAlpha
	case PrunedBeta:
		return st.PrunedBeta
	case PrunedSequence:
		return st.PrunedSequence
	case PrunedPlayedSequence:
		return st.PrunedPlayedSequence
	case PrunedDuplicatePosition:
		return st.PrunedDuplicatePosition
	}
	return 0
}

// MarshalZerologObject lets the stats be logged with log.Info().Object.
func (st Stats) MarshalZerologObject(e *zerolog.Event) {
	e.Int("positions-examined", st.PositionsExamined).
		Int("pruned-alpha", st.PrunedAlpha).
		Int("pruned-beta", st.PrunedBeta).
		Int("pruned-sequence", st.PrunedSequence).
		Int("pruned-played-sequence", st.PrunedPlayedSequence).
		Int("pruned-duplicate-position", st.PrunedDuplicatePosition).
		Int("tree-size", st.TreeSize).
		Uint64("cache-created", st.Cache.Created).
		Uint64("cache-lookups", st.Cache.Lookups).
		Uint64("cache-hits", st.Cache.Hits).
		Uint64("cache-unusable", st.Cache.Unusable).
		Uint64("cache-t2collisions", st.Cache.T2Collisions).
		Float64("time-elapsed-sec", st.Elapsed.Seconds())
}
