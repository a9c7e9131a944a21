// Package app wires configuration, tokenizer, cache and the validation-set
// generator into the kmerds command.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	internal "github.com/ZanzyTHEbar/kmer-datasets/kmerds"
	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/cache"
	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/config"
	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/dataset"
	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/table"
	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/tensor"
	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/tokenizer"
	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/valset"

	"github.com/rs/zerolog"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/pflag"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// RunContext parses args, runs the generator to exhaustion and prints one
// summary line per dataset. It returns the process exit code.
func RunContext(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet(internal.DefaultAppName, pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "path to a config file (yaml, toml or json)")
	writeVocab := flags.Int("write-vocab", 0, "print the k-mer vocabulary for this k and exit")
	flags.String("dir", internal.DefaultValDir, "directory of validation CSV files")
	flags.Int("k", internal.DefaultKmer, "k-mer length")
	flags.Int("workers", internal.DefaultWorkers, "goroutines used to split sequences")
	flags.String("vocab", "", "vocab.txt path; empty generates a k-mer vocabulary")
	flags.String("tokenizer", internal.DefaultTokenizerKind, "tokenizer kind: vocab or wordpiece")
	flags.String("device", internal.DefaultDevice, "device stamped on produced tensors")
	flags.String("cache", internal.DefaultCacheDSN, "encoding cache DSN; empty keeps it in memory")
	flags.String("log-level", "info", "log level")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	logger := internal.GetLogger().Output(stderr)

	if *writeVocab > 0 {
		if err := tokenizer.WriteVocab(stdout, *writeVocab); err != nil {
			logger.Error().Err(err).Msg("write vocab")
			return exitError
		}
		return exitOK
	}

	cfg, err := config.LoadConfig(*configPath, flags)
	if err != nil {
		logger.Error().Err(err).Msg("load config")
		return exitUsage
	}
	logger = logger.Level(parseLevel(cfg.Log.Level))
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slogLevel(cfg.Log.Level)})))

	if err := Run(ctx, cfg, stdout); err != nil {
		logger.Error().Err(err).Msg("run failed")
		return exitError
	}
	return exitOK
}

// Run streams every dataset under cfg.Data.ValDir and writes a summary per dataset.
func Run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	tok, err := buildTokenizer(cfg)
	if err != nil {
		return err
	}

	store, err := cache.Open(cfg.Cache.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []valset.Option{
		valset.WithSchema(table.Schema{
			Sequence: table.ColumnAliases{cfg.Data.SequenceColumn},
			Class:    table.ColumnAliases(cfg.Data.ClassColumns),
		}),
		valset.WithEncodeOptions(tokenizer.Options{
			MaxLength:      cfg.Tokenizer.MaxLength,
			PadToMaxLength: cfg.Tokenizer.PadToMaxLength,
			Truncation:     cfg.Tokenizer.Truncation,
		}),
		valset.WithDevice(tensor.ParseDevice(cfg.Tensor.Device)),
		valset.WithWorkers(cfg.Kmer.Workers),
		valset.WithLabelBase(cfg.Data.LabelBase),
		valset.WithStrictAlphabet(cfg.Kmer.StrictAlphabet),
		valset.WithOutput(stdout),
		valset.WithCache(store),
		valset.WithLogger(slog.Default()),
	}
	if cfg.Data.IgnoreFile != "" {
		checker, err := ignore.CompileIgnoreFile(cfg.Data.IgnoreFile)
		if err != nil {
			return fmt.Errorf("error reading ignore file %s: %w", cfg.Data.IgnoreFile, err)
		}
		opts = append(opts, valset.WithIgnore(checker))
	}

	gen := valset.New(tok, cfg.Kmer.K, cfg.Data.ValDir, opts...)
	for ds, err := range gen.All(ctx) {
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, Summary(ds))
	}
	return nil
}

func buildTokenizer(cfg *config.Config) (tokenizer.Tokenizer, error) {
	if cfg.Tokenizer.VocabPath == "" {
		if kind := strings.ToLower(cfg.Tokenizer.Kind); kind != "" && kind != "vocab" && kind != "kmer" {
			return nil, fmt.Errorf("%w: tokenizer %q needs a vocab path", tokenizer.ErrUnsupported, cfg.Tokenizer.Kind)
		}
		v, err := tokenizer.NewKmerVocab(cfg.Kmer.K)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return tokenizer.New(cfg.Tokenizer.Kind, cfg.Tokenizer.VocabPath)
}

// Summary renders one dataset as "name rows=N labels=l:c,... tokens=mean±sd".
func Summary(ds *dataset.Dataset) string {
	s := ds.Stats()
	labels := s.SortedLabels()
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%d:%d", l, s.LabelCounts[l]))
	}
	return fmt.Sprintf("%s rows=%d labels=%s tokens=%.1f±%.1f device=%s",
		ds.Name(), s.Rows, strings.Join(parts, ","), s.MeanTokens, s.StdDevTokens, ds.Device())
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func slogLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
