package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/screa/pda-vanity-grinder/internal/crypto"
)

// EnvPrefix namespaces environment overrides, e.g. PDAGRIND_WORKERS.
const EnvPrefix = "PDAGRIND"

// Defaults
const (
	DefaultWindow      = 1
	DefaultSeedLen     = 8
	DefaultCount       = 1
	DefaultLogInterval = 5

	// Bump 0 is never tried, so at most 255 bumps fit in a window.
	MaxWindow = 255
)

// Keys shared by flags, config files and the environment.
const (
	KeyProgram     = "program"
	KeyPrefix      = "prefix"
	KeyWorkers     = "workers"
	KeyWindow      = "window"
	KeySeedLen     = "seed-len"
	KeyCount       = "count"
	KeyCanonical   = "canonical"
	KeyVerbose     = "verbose"
	KeyLogFile     = "log-file"
	KeyLogInterval = "log-interval"
	KeyResultsFile = "results-file"
)

// Errors
var (
	ErrNoProgramSpecified = errors.New("must specify --program")
	ErrInvalidProgramID   = crypto.ErrInvalidProgramID
	ErrNoPrefix           = errors.New("must specify a non-empty --prefix")
	ErrInvalidPrefix      = crypto.ErrInvalidPrefix
	ErrPrefixTooLong      = crypto.ErrPrefixTooLong
	ErrInvalidWorkers     = errors.New("worker count must be at least 1")
	ErrInvalidWindow      = fmt.Errorf("look-ahead window must be between 1 and %d", MaxWindow)
	ErrInvalidSeedLen     = fmt.Errorf("seed length must be between 1 and %d bytes", crypto.MaxSeedLen)
	ErrInvalidCount       = errors.New("match count must be at least 1")
	ErrInvalidLogInterval = errors.New("log interval must be at least 1 second")
)

// Config holds the application configuration
type Config struct {
	Program     string // base58 program id
	Prefix      string
	Workers     int
	Window      int // look-ahead window size
	SeedLen     int // random seed length in bytes
	Count       int // matches to collect before stopping
	Canonical   bool
	Verbose     bool
	LogFile     string
	LogInterval int // Logging interval in seconds
	ResultsFile string
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Workers:     runtime.NumCPU(),
		Window:      DefaultWindow,
		SeedLen:     DefaultSeedLen,
		Count:       DefaultCount,
		LogInterval: DefaultLogInterval,
	}
}

// NewViper returns a viper instance reading PDAGRIND_* variables and, if
// configFile is set, that file.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load overlays every key viper knows about onto c.
func (c *Config) Load(v *viper.Viper) {
	if v.IsSet(KeyProgram) {
		c.Program = v.GetString(KeyProgram)
	}
	if v.IsSet(KeyPrefix) {
		c.Prefix = v.GetString(KeyPrefix)
	}
	if v.IsSet(KeyWorkers) {
		c.Workers = v.GetInt(KeyWorkers)
	}
	if v.IsSet(KeyWindow) {
		c.Window = v.GetInt(KeyWindow)
	}
	if v.IsSet(KeySeedLen) {
		c.SeedLen = v.GetInt(KeySeedLen)
	}
	if v.IsSet(KeyCount) {
		c.Count = v.GetInt(KeyCount)
	}
	if v.IsSet(KeyCanonical) {
		c.Canonical = v.GetBool(KeyCanonical)
	}
	if v.IsSet(KeyVerbose) {
		c.Verbose = v.GetBool(KeyVerbose)
	}
	if v.IsSet(KeyLogFile) {
		c.LogFile = v.GetString(KeyLogFile)
	}
	if v.IsSet(KeyLogInterval) {
		c.LogInterval = v.GetInt(KeyLogInterval)
	}
	if v.IsSet(KeyResultsFile) {
		c.ResultsFile = v.GetString(KeyResultsFile)
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Program == "" {
		return ErrNoProgramSpecified
	}
	if _, err := c.ProgramID(); err != nil {
		return err
	}
	if c.Prefix == "" {
		return ErrNoPrefix
	}
	if _, err := crypto.NewPrefixMatcher(c.Prefix); err != nil {
		return err
	}
	if c.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.Window < 1 || c.Window > MaxWindow {
		return ErrInvalidWindow
	}
	if c.SeedLen < 1 || c.SeedLen > crypto.MaxSeedLen {
		return ErrInvalidSeedLen
	}
	if c.Count < 1 {
		return ErrInvalidCount
	}
	if c.Verbose && c.LogInterval < 1 {
		return ErrInvalidLogInterval
	}
	return nil
}

// ProgramID decodes the configured program id
func (c *Config) ProgramID() (crypto.ProgramID, error) {
	id, err := crypto.ParseProgramID(c.Program)
	if err != nil {
		return id, fmt.Errorf("%w: %q", err, c.Program)
	}
	return id, nil
}

// GetTargetDescription returns a human-readable description of the target
func (c *Config) GetTargetDescription() string {
	desc := fmt.Sprintf("prefix: %s, window: %d, seed length: %d", c.Prefix, c.Window, c.SeedLen)
	if c.Canonical {
		desc += ", canonical bumps only"
	}
	return desc
}

// ExpectedSeeds is a rough estimate of seeds scanned per match: one prefix
// hit every 58^len(prefix)/window seeds, and half of the hits are on curve.
// A leading '1' needs a zero byte, so each one weighs 256 instead of 58.
func (c *Config) ExpectedSeeds() float64 {
	n := 1.0
	leading := true
	for _, r := range c.Prefix {
		if leading && r == '1' {
			n *= 256
			continue
		}
		leading = false
		n *= 58
	}
	return 2 * n / float64(max(c.Window, 1))
}
