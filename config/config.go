package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug               = "debug"
	ConfigMaxTricks           = "max-tricks"
	ConfigDuplicateRemoval    = "duplicate-removal"
	ConfigPruneSequence       = "prune-sequence"
	ConfigPrunePlayedSequence = "prune-played-sequence"
	ConfigTerminateForcedRoot = "terminate-forced-root"
	ConfigAlphaBeta           = "alpha-beta"
	ConfigCacheMemoryFraction = "cache-memory-fraction"
	ConfigThreads             = "threads"
	ConfigDealsPath           = "deals-path"
	ConfigConfigFile          = "config-file"
	ConfigRandomDeals         = "random"
	ConfigCardsPerHand        = "cards"
	ConfigTrump               = "trump"
	ConfigSeed                = "seed"
	ConfigHistogramBins       = "bins"
	ConfigCPUProfile          = "cpu-profile"
	ConfigMemProfile          = "mem-profile"
	ConfigResultsDB           = "results-db"
)

// Config wraps viper. Settings come, in increasing priority, from the
// defaults, an optional config file, DDSOLVE_ environment variables and
// command-line flags.
type Config struct {
	*viper.Viper
	args []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigMaxTricks, 13)
	v.SetDefault(ConfigDuplicateRemoval, true)
	v.SetDefault(ConfigPruneSequence, true)
	v.SetDefault(ConfigPrunePlayedSequence, true)
	v.SetDefault(ConfigTerminateForcedRoot, true)
	v.SetDefault(ConfigAlphaBeta, true)
	v.SetDefault(ConfigCacheMemoryFraction, 0.25)
	v.SetDefault(ConfigThreads, 0)
	v.SetDefault(ConfigDealsPath, "./data/deals")
	v.SetDefault(ConfigRandomDeals, 0)
	v.SetDefault(ConfigCardsPerHand, 5)
	v.SetDefault(ConfigTrump, "NT")
	v.SetDefault(ConfigSeed, 0)
	v.SetDefault(ConfigHistogramBins, 15)
}

// DefaultConfig returns a config holding only the defaults.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	setDefaults(c.Viper)
	return c
}

// Load reads settings from args, the environment and, when given, the
// config file.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	setDefaults(c.Viper)

	fs := pflag.NewFlagSet("ddsolve", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.Int(ConfigMaxTricks, 13, "stop searching once this many tricks have been played")
	fs.Bool(ConfigDuplicateRemoval, true, "reuse values of positions reached by transposition")
	fs.Bool(ConfigPruneSequence, true, "skip the lower of two touching cards")
	fs.Bool(ConfigPrunePlayedSequence, true, "register the played-sequence pruning strategy")
	fs.Bool(ConfigTerminateForcedRoot, true, "do not search when the first card is forced")
	fs.Bool(ConfigAlphaBeta, true, "use alpha and beta cut-offs")
	fs.Float64(ConfigCacheMemoryFraction, 0.25, "fraction of system memory the position cache may use")
	fs.Int(ConfigThreads, 0, "number of solver goroutines for batch analysis (0 = number of CPUs)")
	fs.String(ConfigDealsPath, "./data/deals", "directory holding deal files")
	fs.String(ConfigConfigFile, "", "optional YAML config file")
	fs.Int(ConfigRandomDeals, 0, "analyze this many random deals instead of a deal file")
	fs.Int(ConfigCardsPerHand, 5, "cards per hand for random deals")
	fs.String(ConfigTrump, "NT", "trump suit for random deals")
	fs.Uint64(ConfigSeed, 0, "seed for random deals (0 = unseeded)")
	fs.Int(ConfigHistogramBins, 15, "bins in the effort histogram")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.String(ConfigMemProfile, "", "write a heap profile to this file on exit")
	fs.String(ConfigResultsDB, "", "SQLite file remembering solved deals between runs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()
	if err := c.BindPFlags(fs); err != nil {
		return err
	}

	c.SetEnvPrefix("ddsolve")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if path := c.GetString(ConfigConfigFile); path != "" {
		c.SetConfigFile(path)
		if err := c.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || os.IsNotExist(err) {
				return fmt.Errorf("config file %s not found: %w", path, err)
			}
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}

// Args returns the positional arguments left over after flag parsing.
func (c *Config) Args() []string {
	return c.args
}

// AdjustRelativePaths resolves relative paths against basepath, the
// directory of the executable.
func (c *Config) AdjustRelativePaths(basepath string) {
	p := c.GetString(ConfigDealsPath)
	if p != "" && !filepath.IsAbs(p) {
		c.Set(ConfigDealsPath, filepath.Join(basepath, p))
	}
}

// SanitizedSettings returns every setting, for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
