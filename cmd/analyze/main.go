// Command analyze solves a file of deals, or a batch of random deals, and
// reports the solver's effort.
//
//	analyze deals.txt
//	analyze --random 200 --cards 6 --trump S --seed 7
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/ddsolve/analyzer"
	"github.com/domino14/ddsolve/config"
	"github.com/domino14/ddsolve/dealio"
	"github.com/domino14/ddsolve/deck"
	"github.com/domino14/ddsolve/resultstore"
)

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.AdjustRelativePaths(exPath)

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	log.Debug().Interface("settings", cfg.SanitizedSettings()).Msg("loaded-config")

	if p := cfg.GetString(config.ConfigCPUProfile); p != "" {
		f, err := os.Create(p)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("analyze-failed")
		stop()
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	an, err := analyzer.NewAnalyzer(cfg)
	if err != nil {
		return err
	}
	if p := cfg.GetString(config.ConfigResultsDB); p != "" {
		store, err := resultstore.Open(ctx, p)
		if err != nil {
			return err
		}
		defer store.Close()
		an.SetStore(store)
	}

	var results []*analyzer.Result
	if n := cfg.GetInt(config.ConfigRandomDeals); n > 0 {
		trump, err := deck.ParseTrump(cfg.GetString(config.ConfigTrump))
		if err != nil {
			return err
		}
		results, err = an.AnalyzeRandom(ctx, n, cfg.GetInt(config.ConfigCardsPerHand),
			trump, cfg.GetUint64(config.ConfigSeed))
		if err != nil {
			return err
		}
	} else {
		args := cfg.Args()
		if len(args) != 1 {
			return fmt.Errorf("usage: analyze [flags] <deal file> or analyze --random N")
		}
		path := args[0]
		if _, err := os.Stat(path); os.IsNotExist(err) && !filepath.IsAbs(path) {
			path = filepath.Join(cfg.GetString(config.ConfigDealsPath), path)
		}
		entries, err := dealio.Load(path)
		if err != nil {
			return err
		}
		results, err = an.AnalyzeEntries(ctx, entries)
		if err != nil {
			return err
		}
	}

	if err := analyzer.WriteReport(os.Stdout, results); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "positions examined per deal:")
	return analyzer.WriteHistogram(os.Stderr, results, cfg.GetInt(config.ConfigHistogramBins))
}
