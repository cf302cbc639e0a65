package main

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/screa/pda-vanity-grinder/internal/config"
	"github.com/screa/pda-vanity-grinder/internal/crypto"
	logpkg "github.com/screa/pda-vanity-grinder/internal/logger"
	"github.com/screa/pda-vanity-grinder/pkg/grinder"
	"github.com/screa/pda-vanity-grinder/pkg/types"
)

var (
	errNoSeed       = errors.New("must specify one of --seed, --seed-u64 or --seed-text")
	errMultipleSeed = errors.New("only one of --seed, --seed-u64 or --seed-text may be set")
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pda-grinder",
		Short: "Vanity program derived address grinder",
		Long: `A command line utility for grinding Solana program derived addresses
whose base58 text starts with a chosen prefix. Candidate bumps are filtered by
prefix first. The off-curve check only runs on prefix hits.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Config file (yaml, toml or json). Values can also come from PDAGRIND_* env vars")

	rootCmd.AddCommand(newGrindCmd(), newCheckCmd())
	return rootCmd
}

func newGrindCmd() *cobra.Command {
	cfg := config.NewConfig()
	cmd := &cobra.Command{
		Use:   "grind",
		Short: "Search for a seed whose PDA starts with --prefix",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			v, err := config.NewViper(configFile)
			if err != nil {
				return err
			}
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg.Load(v)
			return runGrind(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.Program, config.KeyProgram, "P", "", "Owning program id (base58) (required)")
	cmd.Flags().StringVarP(&cfg.Prefix, config.KeyPrefix, "p", "", "Address prefix to match (base58, case-sensitive) (required)")
	cmd.Flags().IntVarP(&cfg.Workers, config.KeyWorkers, "w", runtime.NumCPU(), "Number of worker goroutines")
	cmd.Flags().IntVarP(&cfg.Window, config.KeyWindow, "W", config.DefaultWindow, "Look-ahead window: bumps hashed per seed, counting down from 255")
	cmd.Flags().IntVarP(&cfg.SeedLen, config.KeySeedLen, "n", config.DefaultSeedLen, "Random seed length in bytes (1-32)")
	cmd.Flags().IntVarP(&cfg.Count, config.KeyCount, "c", config.DefaultCount, "Number of matches to collect before stopping")
	cmd.Flags().BoolVar(&cfg.Canonical, config.KeyCanonical, false, "Only accept a match if it is also the canonical bump for its seed")
	cmd.Flags().BoolVarP(&cfg.Verbose, config.KeyVerbose, "v", false, "Verbose output")
	cmd.Flags().StringVarP(&cfg.LogFile, config.KeyLogFile, "l", "", "Log file for progress tracking (default: stdout)")
	cmd.Flags().IntVarP(&cfg.LogInterval, config.KeyLogInterval, "i", config.DefaultLogInterval, "Logging interval in seconds")
	cmd.Flags().StringVarP(&cfg.ResultsFile, config.KeyResultsFile, "o", "", "Append every match to this file")
	return cmd
}

func runGrind(cmd *cobra.Command, cfg *config.Config) error {
	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Printf("Starting PDA grinder with %d workers...", cfg.Workers)
	logger.Printf("Program: %s", cfg.Program)
	logger.Printf("Target: %s", cfg.GetTargetDescription())

	g, err := grinder.New(cfg, logger)
	if err != nil {
		return err
	}

	// Ctrl+C stops the workers and reports whatever was accepted so far
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := g.Run(ctx)
	if err != nil {
		return err
	}
	if ctx.Err() != nil && len(result.Matches) < cfg.Count {
		logger.Println("Received interrupt signal. Workers stopped.")
	}

	if len(result.Matches) == 0 {
		logger.Println("No match found.")
		return nil
	}
	for _, m := range result.Matches {
		reportMatch(logger, m)
	}
	reportRun(logger, result)
	return nil
}

func reportMatch(logger *logpkg.Logger, m *types.MatchResult) {
	logger.Printf("Found match!")
	logger.Printf("Address: %s", m.Address)
	logger.Printf("Seed: 0x%s", m.SeedHex())
	logger.Printf("Bump: %d", m.Bump)
}

func reportRun(logger *logpkg.Logger, result *types.Result) {
	logger.Printf("Seeds: %d", result.Seeds)
	logger.Printf("Hashes: %d", result.Hashes)
	logger.Printf("Duration: %v", result.Duration)

	// Calculate rate safely
	rate := 0.0
	if result.Duration.Seconds() > 0 {
		rate = float64(result.Hashes) / result.Duration.Seconds()
	}
	logger.Printf("Rate: %.2f hashes/sec", rate)
}

func setupLogging(cfg *config.Config) (*logpkg.Logger, func(), error) {
	var logger *logpkg.Logger
	closeLog := func() {}
	if cfg.LogFile != "" {
		// Log to file
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger = logpkg.NewWriter(file)
		closeLog = func() {
			_ = logger.Sync()
			_ = file.Close()
		}
	} else {
		// Log to stdout
		logger = logpkg.New()
		closeLog = func() { _ = logger.Sync() }
	}
	logger.SetVerbose(cfg.Verbose)
	return logger, closeLog, nil
}

type checkOptions struct {
	program  string
	seedHex  string
	seedU64  uint64
	seedText string
	bump     int
}

func newCheckCmd() *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Derive the canonical PDA for a seed, or verify a specific bump",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, &opts)
		},
	}
	cmd.Flags().StringVarP(&opts.program, "program", "P", "", "Owning program id (base58) (required)")
	cmd.Flags().StringVarP(&opts.seedHex, "seed", "s", "", "Seed bytes (hex, optional 0x prefix)")
	cmd.Flags().Uint64Var(&opts.seedU64, "seed-u64", 0, "Seed as a little-endian u64")
	cmd.Flags().StringVar(&opts.seedText, "seed-text", "", "Seed as raw UTF-8 text")
	cmd.Flags().IntVarP(&opts.bump, "bump", "b", -1, "Bump to verify instead of searching from 255")
	return cmd
}

func runCheck(cmd *cobra.Command, opts *checkOptions) error {
	programID, err := crypto.ParseProgramID(opts.program)
	if err != nil {
		return fmt.Errorf("%w: %q", err, opts.program)
	}
	seed, err := opts.seed(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.bump >= 0 {
		if opts.bump > 255 {
			return fmt.Errorf("bump %d out of range", opts.bump)
		}
		d, err := crypto.CreateProgramAddress([][]byte{seed, {byte(opts.bump)}}, programID)
		if err != nil {
			return fmt.Errorf("seed 0x%s bump %d: %w", hex.EncodeToString(seed), opts.bump, err)
		}
		fmt.Fprintf(out, "seed 0x%s bump %d for program %s gives %s\n", hex.EncodeToString(seed), opts.bump, programID, d)
		return nil
	}

	d, bump, err := crypto.FindProgramAddress([][]byte{seed}, programID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "seed 0x%s for program %s gives %s (canonical bump %d)\n", hex.EncodeToString(seed), programID, d, bump)
	return nil
}

func (o *checkOptions) seed(cmd *cobra.Command) ([]byte, error) {
	set := 0
	for _, name := range []string{"seed", "seed-u64", "seed-text"} {
		if cmd.Flags().Changed(name) {
			set++
		}
	}
	switch {
	case set == 0:
		return nil, errNoSeed
	case set > 1:
		return nil, errMultipleSeed
	}

	var seed []byte
	switch {
	case cmd.Flags().Changed("seed-u64"):
		seed = binary.LittleEndian.AppendUint64(nil, o.seedU64)
	case cmd.Flags().Changed("seed-text"):
		seed = []byte(o.seedText)
	default:
		h := strings.TrimPrefix(strings.TrimPrefix(o.seedHex, "0x"), "0X")
		b, err := hex.DecodeString(h)
		if err != nil {
			return nil, fmt.Errorf("invalid seed hex: %w", err)
		}
		seed = b
	}
	if len(seed) > crypto.MaxSeedLen {
		return nil, crypto.ErrMaxSeedLengthExceeded
	}
	return seed, nil
}
