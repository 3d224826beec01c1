package search

import (
	"errors"
	"fmt"

	"github.com/domino14/ddsolve/config"
)

// MaxTricks is the number of tricks in a full deal.
const MaxTricks = 13

var ErrBadTrickCap = errors.New("trick cap must be at least 1")

// Configurator holds the solver's optional behaviours. It is applied once,
// when the solver is built.
type Configurator struct {
	// MaxTricks stops the search once this many tricks have been played.
	MaxTricks                   int
	UseDuplicateRemoval         bool
	PruneSequenceSiblings       bool
	PrunePlayedSequenceSiblings bool
	// TerminateOnForcedRootMove skips the search when the root player has
	// a single meaningful card.
	TerminateOnForcedRootMove bool
	PruningStrategies         []PruningStrategy
}

func DefaultConfigurator() *Configurator {
	return &Configurator{
		MaxTricks:                   MaxTricks,
		UseDuplicateRemoval:         true,
		PruneSequenceSiblings:       true,
		PrunePlayedSequenceSiblings: true,
		TerminateOnForcedRootMove:   true,
		PruningStrategies:           []PruningStrategy{AlphaPruning{}, BetaPruning{}},
	}
}

func (c *Configurator) Validate() error {
	if c.MaxTricks < 1 {
		return fmt.Errorf("%w: got %d", ErrBadTrickCap, c.MaxTricks)
	}
	return nil
}

// strategies returns the strategies to run, in order, including any the
// toggles register.
func (c *Configurator) strategies() []PruningStrategy {
	out := append([]PruningStrategy(nil), c.PruningStrategies...)
	if c.PrunePlayedSequenceSiblings {
		out = append(out, PlayedSequencePruning{})
	}
	return out
}

// ConfiguratorFromConfig builds a Configurator from application settings.
func ConfiguratorFromConfig(cfg *config.Config) (*Configurator, error) {
	c := &Configurator{
		MaxTricks:                   cfg.GetInt(config.ConfigMaxTricks),
		UseDuplicateRemoval:         cfg.GetBool(config.ConfigDuplicateRemoval),
		PruneSequenceSiblings:       cfg.GetBool(config.ConfigPruneSequence),
		PrunePlayedSequenceSiblings: cfg.GetBool(config.ConfigPrunePlayedSequence),
		TerminateOnForcedRootMove:   cfg.GetBool(config.ConfigTerminateForcedRoot),
	}
	if cfg.GetBool(config.ConfigAlphaBeta) {
		c.PruningStrategies = []PruningStrategy{AlphaPruning{}, BetaPruning{}}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
