package config

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug                 = "debug"
	ConfigThreads               = "threads"
	ConfigMultiThreaded         = "multi-threaded"
	ConfigExplorationConstant   = "exploration-constant"
	ConfigSearchTimeMin         = "search-time-min"
	ConfigSearchTimeMax         = "search-time-max"
	ConfigExpandThreshold       = "expand-threshold"
	ConfigFastStopEstimateCount = "fast-stop-estimate-count"
	ConfigFastStopStepsMin      = "fast-stop-steps-min"
	ConfigFastStopStepsMax      = "fast-stop-steps-max"
	ConfigSearchLog             = "search-log"
	ConfigAutoplayLog           = "autoplay-log"
	ConfigAutoplayMaxTurns      = "autoplay-max-turns"
	ConfigCPUProfile            = "cpu-profile"
	ConfigMemProfile            = "mem-profile"
	ConfigFile                  = "config-file"
)

const envPrefix = "MCTS2048"

// Config holds every setting of the program. Values come, in increasing
// priority, from defaults, a YAML config file, MCTS2048_* environment
// variables and command-line flags.
type Config struct {
	viper.Viper
	// args holds the command-line arguments left over after flags.
	args []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigThreads, runtime.NumCPU())
	v.SetDefault(ConfigMultiThreaded, true)
	v.SetDefault(ConfigExplorationConstant, 1.0)
	v.SetDefault(ConfigSearchTimeMin, 50*time.Millisecond)
	v.SetDefault(ConfigSearchTimeMax, 200*time.Millisecond)
	v.SetDefault(ConfigExpandThreshold, 1)
	v.SetDefault(ConfigFastStopEstimateCount, 4)
	v.SetDefault(ConfigFastStopStepsMin, 100)
	v.SetDefault(ConfigFastStopStepsMax, 400)
	v.SetDefault(ConfigSearchLog, "")
	v.SetDefault(ConfigAutoplayLog, "/tmp/autoplay.csv")
	v.SetDefault(ConfigAutoplayMaxTurns, 0)
	v.SetDefault(ConfigCPUProfile, "")
	v.SetDefault(ConfigMemProfile, "")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultConfig returns a config holding only defaults and environment
// overrides. Handy for tests.
func DefaultConfig() *Config {
	return &Config{Viper: *newViper()}
}

// Load parses command-line args, then reads the config file if one was
// given.
func (c *Config) Load(args []string) error {
	v := newViper()

	fs := pflag.NewFlagSet("mcts2048", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.Int(ConfigThreads, runtime.NumCPU(), "number of search worker threads")
	fs.Bool(ConfigMultiThreaded, true, "search with more than one thread")
	fs.Float64(ConfigExplorationConstant, 1.0, "UCB exploration constant")
	fs.Duration(ConfigSearchTimeMin, 50*time.Millisecond, "search budget early in the game")
	fs.Duration(ConfigSearchTimeMax, 200*time.Millisecond, "search budget for full, late boards")
	fs.Int(ConfigExpandThreshold, 1, "visits a node needs before it is expanded")
	fs.Int(ConfigFastStopEstimateCount, 4, "extra samples taken once a rollout exceeds its step budget")
	fs.Int(ConfigFastStopStepsMin, 100, "rollout step budget late in the game")
	fs.Int(ConfigFastStopStepsMax, 400, "rollout step budget early in the game")
	fs.String(ConfigSearchLog, "", "file to append search tree dumps to")
	fs.String(ConfigAutoplayLog, "/tmp/autoplay.csv", "file for autoplay game results")
	fs.Int(ConfigAutoplayMaxTurns, 0, "stop autoplay games after this many turns (0 plays to the end)")
	fs.String(ConfigCPUProfile, "", "write a CPU profile here")
	fs.String(ConfigMemProfile, "", "write a memory profile here")
	fs.String(ConfigFile, "", "YAML config file")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	if err := v.BindPFlags(fs); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	if cf := v.GetString(ConfigFile); cf != "" {
		v.SetConfigFile(cf)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", cf, err)
		}
	}
	c.Viper = *v
	c.args = fs.Args()
	return c.validate()
}

// Args returns the positional command-line arguments.
func (c *Config) Args() []string {
	return c.args
}

func (c *Config) validate() error {
	if c.GetDuration(ConfigSearchTimeMin) > c.GetDuration(ConfigSearchTimeMax) {
		return errors.New("search-time-min must not exceed search-time-max")
	}
	if c.GetInt(ConfigFastStopStepsMin) > c.GetInt(ConfigFastStopStepsMax) {
		return errors.New("fast-stop-steps-min must not exceed fast-stop-steps-max")
	}
	if c.GetInt(ConfigFastStopStepsMin) < 1 {
		return errors.New("fast-stop-steps-min must be positive")
	}
	if c.GetInt(ConfigThreads) < 1 {
		return errors.New("threads must be positive")
	}
	return nil
}

// SanitizedSettings renders every setting, sorted by key, for logging.
func (c *Config) SanitizedSettings() string {
	settings := c.AllSettings()
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%v ", k, settings[k])
	}
	return strings.TrimSpace(sb.String())
}
