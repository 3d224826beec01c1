// Package analyzer solves many deals in parallel and summarizes the work
// the solver did.
package analyzer

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/domino14/ddsolve/config"
	"github.com/domino14/ddsolve/deal"
	"github.com/domino14/ddsolve/dealgen"
	"github.com/domino14/ddsolve/dealio"
	"github.com/domino14/ddsolve/deck"
	"github.com/domino14/ddsolve/resultstore"
	"github.com/domino14/ddsolve/search"
	"github.com/domino14/ddsolve/stats"
)

// Result is the outcome of solving one deal.
type Result struct {
	Name        string       `yaml:"name"`
	Fingerprint string       `yaml:"fingerprint"`
	Deal        string       `yaml:"deal"`
	OnLead      string       `yaml:"on-lead"`
	BestMoves   []string     `yaml:"best-moves"`
	WE          int          `yaml:"we"`
	NS          int          `yaml:"ns"`
	Path        string       `yaml:"path"`
	Stats       search.Stats `yaml:"stats"`
	// Stored is set when the result came from the result store.
	Stored bool `yaml:"stored,omitempty"`
}

// Summary describes the solver effort across a batch.
type Summary struct {
	Deals           int     `yaml:"deals"`
	Unique          int     `yaml:"unique"`
	MeanPositions   float64 `yaml:"mean-positions"`
	PositionsCI95   float64 `yaml:"positions-ci95"`
	StdDevPositions float64 `yaml:"stddev-positions"`
	MedianPositions float64 `yaml:"median-positions"`
	MaxPositions    float64 `yaml:"max-positions"`
	MeanElapsedSec  float64 `yaml:"mean-elapsed-sec"`
	DuplicatePrunes int     `yaml:"duplicate-prunes"`
	AlphaBetaPrunes int     `yaml:"alpha-beta-prunes"`
	SequencePrunes  int     `yaml:"sequence-prunes"`
}

// Report is what WriteReport emits.
type Report struct {
	Summary Summary   `yaml:"summary"`
	Results []*Result `yaml:"results"`
}

type Analyzer struct {
	config    *config.Config
	solverCfg *search.Configurator
	threads   int
	fraction  float64
	store     *resultstore.Store
}

func NewAnalyzer(cfg *config.Config) (*Analyzer, error) {
	sc, err := search.ConfiguratorFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	threads := cfg.GetInt(config.ConfigThreads)
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return &Analyzer{
		config:    cfg,
		solverCfg: sc,
		threads:   threads,
		fraction:  cfg.GetFloat64(config.ConfigCacheMemoryFraction),
	}, nil
}

func (an *Analyzer) Threads() int {
	return an.threads
}

// SetStore makes the analyzer look results up in store before solving,
// and record what it solves.
func (an *Analyzer) SetStore(store *resultstore.Store) {
	an.store = store
}

// settingsKey names the solver settings a stored result depends on.
func (an *Analyzer) settingsKey() string {
	c := an.solverCfg
	return fmt.Sprintf("max-tricks=%d dup=%t seq=%t played-seq=%t forced=%t strategies=%d",
		c.MaxTricks, c.UseDuplicateRemoval, c.PruneSequenceSiblings,
		c.PrunePlayedSequenceSiblings, c.TerminateOnForcedRootMove, len(c.PruningStrategies))
}

func (an *Analyzer) lookup(ctx context.Context, name, fingerprint string) (*Result, error) {
	if an.store == nil {
		return nil, nil
	}
	doc, ok, err := an.store.Get(ctx, fingerprint, an.settingsKey())
	if err != nil || !ok {
		return nil, err
	}
	r := &Result{}
	if err := yaml.Unmarshal(doc, r); err != nil {
		return nil, fmt.Errorf("stored result for %s: %w", name, err)
	}
	r.Name = name
	r.Stored = true
	return r, nil
}

func (an *Analyzer) record(ctx context.Context, r *Result) error {
	if an.store == nil {
		return nil
	}
	doc, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	return an.store.Put(ctx, r.Fingerprint, an.settingsKey(), doc)
}

// Fingerprint identifies a position independently of its name.
func Fingerprint(d *deal.Deal) string {
	return strconv.FormatUint(xxhash.Sum64String(dealio.FormatLine(d)), 16)
}

// Analyze solves a single deal.
func (an *Analyzer) Analyze(name string, d *deal.Deal) (*Result, error) {
	cache := search.NewPositionCache(an.fraction / float64(an.threads))
	s, err := search.NewSolverWithCache(d, an.solverCfg, cache)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	s.Search()
	root := s.Root()
	return &Result{
		Name:        name,
		Fingerprint: Fingerprint(d),
		Deal:        dealio.FormatLine(d),
		OnLead:      d.NextToPlay().String(),
		BestMoves:   lo.Map(s.BestMoves(), func(c deck.Card, _ int) string { return c.String() }),
		WE:          root.TricksTaken(deal.WestEast),
		NS:          root.TricksTaken(deal.NorthSouth),
		Path:        search.FormatPath(s.OptimalPath()),
		Stats:       s.Stats(),
	}, nil
}

type job struct {
	name string
	deal *deal.Deal
}

// AnalyzeEntries solves every entry, one solver per goroutine. Entries
// describing the same position are solved once. Results keep the order of
// the entries.
func (an *Analyzer) AnalyzeEntries(ctx context.Context, entries []dealio.Entry) ([]*Result, error) {
	jobs := make([]job, len(entries))
	for i, e := range entries {
		d, err := e.Deal()
		if err != nil {
			return nil, fmt.Errorf("deal %d (%s): %w", i+1, e.Name, err)
		}
		name := e.Name
		if name == "" {
			name = strconv.Itoa(i + 1)
		}
		jobs[i] = job{name: name, deal: d}
	}
	return an.run(ctx, jobs)
}

// AnalyzeRandom deals and solves n random deals. A zero seed draws from
// the system entropy source.
func (an *Analyzer) AnalyzeRandom(ctx context.Context, n, cardsPerHand int, trump deck.Trump, seed uint64) ([]*Result, error) {
	gen := dealgen.New()
	if seed != 0 {
		gen = dealgen.NewSeeded(seed)
	}
	jobs := make([]job, n)
	for i := range jobs {
		d, err := gen.Random(cardsPerHand, trump, deal.Directions[i%deal.NumPlayers])
		if err != nil {
			return nil, err
		}
		jobs[i] = job{name: "random-" + strconv.Itoa(i+1), deal: d}
	}
	return an.run(ctx, jobs)
}

func (an *Analyzer) run(ctx context.Context, jobs []job) ([]*Result, error) {
	fingerprints := lo.Map(jobs, func(j job, _ int) string { return Fingerprint(j.deal) })
	first := map[string]int{}
	for i, fp := range fingerprints {
		if _, ok := first[fp]; !ok {
			first[fp] = i
		}
	}

	results := make([]*Result, len(jobs))
	var mu sync.Mutex
	progress := &stats.Running{}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(an.threads)
	for i, j := range jobs {
		if first[fingerprints[i]] != i {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := an.lookup(ctx, j.name, fingerprints[i])
			if err != nil {
				return err
			}
			if r == nil {
				if r, err = an.Analyze(j.name, j.deal); err != nil {
					return err
				}
				if err := an.record(ctx, r); err != nil {
					return err
				}
			}
			results[i] = r
			mu.Lock()
			progress.Push(float64(r.Stats.PositionsExamined))
			log.Debug().Str("deal", j.name).Bool("stored", r.Stored).
				Int("done", progress.Count()).
				Float64("mean-positions", progress.Mean()).Msg("deal-solved")
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, fp := range fingerprints {
		if src := first[fp]; src != i {
			cp := *results[src]
			cp.Name = jobs[i].name
			results[i] = &cp
		}
	}
	log.Info().Int("deals", len(jobs)).Int("unique", len(first)).
		Int("threads", an.threads).Msg("batch-analyzed")
	return results, nil
}

// Summarize computes effort statistics over a batch.
func Summarize(results []*Result) Summary {
	sm := Summary{Deals: len(results)}
	if len(results) == 0 {
		return sm
	}
	unique := lo.UniqBy(results, func(r *Result) string { return r.Fingerprint })
	sm.Unique = len(unique)
	positions := lo.Map(unique, func(r *Result, _ int) float64 { return float64(r.Stats.PositionsExamined) })
	sm.MeanPositions, sm.StdDevPositions = stat.MeanStdDev(positions, nil)
	elapsed := &stats.Running{}
	spread := &stats.Running{}
	for _, p := range positions {
		spread.Push(p)
	}
	sm.PositionsCI95 = spread.HalfWidth(95)
	sorted := append([]float64(nil), positions...)
	sort.Float64s(sorted)
	sm.MedianPositions = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	sm.MaxPositions = sorted[len(sorted)-1]
	for _, r := range unique {
		elapsed.Push(r.Stats.Elapsed.Seconds())
		sm.DuplicatePrunes += r.Stats.PrunedDuplicatePosition
		sm.AlphaBetaPrunes += r.Stats.PrunedAlpha + r.Stats.PrunedBeta
		sm.SequencePrunes += r.Stats.PrunedSequence
	}
	sm.MeanElapsedSec = elapsed.Mean()
	return sm
}

// WriteHistogram draws the distribution of positions examined per deal.
func WriteHistogram(w io.Writer, results []*Result, bins int) error {
	unique := lo.UniqBy(results, func(r *Result) string { return r.Fingerprint })
	if len(unique) == 0 {
		return nil
	}
	data := lo.Map(unique, func(r *Result, _ int) float64 { return float64(r.Stats.PositionsExamined) })
	hist := histogram.Hist(bins, data)
	return histogram.Fprint(w, hist, histogram.Linear(40))
}

// WriteReport writes the summary and every result as YAML.
func WriteReport(w io.Writer, results []*Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Report{Summary: Summarize(results), Results: results}); err != nil {
		return err
	}
	return enc.Close()
}
