package main

import (
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/ddsolve/config"
	"github.com/domino14/ddsolve/shell"
)

var (
	GitVersion string
)

//go:embed ddsolve.txt
var banner string

func main() {
	// Relative data paths are resolved against the directory of the
	// executable.
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
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}

	var logger zerolog.Logger
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = zerolog.New(output).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logger = zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
	log.Debug().Msgf("executable path: %v", exPath)
	log.Debug().Msgf("Loaded config: %v", cfg.SanitizedSettings())

	if cfg.GetString(config.ConfigCPUProfile) != "" {
		f, err := os.Create(cfg.GetString(config.ConfigCPUProfile))
		if err != nil {
			panic("could not create CPU profile: " + err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic("could not start CPU profile: " + err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	sc, err := shell.NewShellController(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not start shell")
	}

	done := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Debug().Msg("got quit signal...")
		close(done)
	}()

	argsLine := strings.TrimSpace(strings.Join(cfg.Args(), " "))
	if argsLine == "" {
		fmt.Println(banner)
		fmt.Println(GitVersion)
		go sc.Loop(sig)
	} else {
		sc.Execute(argsLine)
		sig <- syscall.SIGINT
	}

	<-done

	if cfg.GetString(config.ConfigMemProfile) != "" {
		f, err := os.Create(cfg.GetString(config.ConfigMemProfile))
		if err != nil {
			panic("could not create memory profile: " + err.Error())
		}
		defer f.Close()
		memstats := &runtime.MemStats{}
		runtime.ReadMemStats(memstats)
		log.Info().Interface("memstats", memstats).Msg("memory-stats")
		if err := pprof.WriteHeapProfile(f); err != nil {
			panic("could not write memory profile: " + err.Error())
		}
		log.Info().Msg("wrote memory profile")
	}

	sc.Cleanup()
}
