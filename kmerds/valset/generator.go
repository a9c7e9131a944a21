// Package valset streams one labelled dataset per CSV file in a validation
// directory.
package valset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"

	internal "github.com/ZanzyTHEbar/kmer-datasets/kmerds"
	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/cache"
	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/dataset"
	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/kmer"
	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/table"
	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/tensor"
	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/tokenizer"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// DefaultDir is where validation CSVs are looked up when no directory is given.
var DefaultDir = internal.DefaultValDir

var (
	ErrNotAFile      = errors.New("validation entry is not a regular file")
	ErrEncodingShape = errors.New("tokenizer returned an encoding that does not match the input rows")
)

// IgnoreChecker reports whether a directory entry should be skipped.
// *ignore.GitIgnore from sabhiram/go-gitignore satisfies it.
type IgnoreChecker interface {
	MatchesPath(f string) bool
}

// Generator yields one dataset per file of a directory, in listing order.
// It is single-pass: once it has returned io.EOF or an error, every later
// call returns the same error.
type Generator struct {
	tok       tokenizer.Tokenizer
	k         int
	dir       string
	fs        afero.Fs
	schema    table.Schema
	opts      tokenizer.Options
	device    tensor.Device
	workers   int
	labelBase int
	strict    bool
	ignore    IgnoreChecker
	cache     cache.Store
	diag      zerolog.Logger
	logger    *slog.Logger

	listed  bool
	entries []os.FileInfo
	pos     int
	err     error
}

// Option configures a Generator.
type Option func(*Generator)

// WithFs swaps the filesystem the directory is read from.
func WithFs(fs afero.Fs) Option {
	return func(g *Generator) { g.fs = fs }
}

func WithSchema(s table.Schema) Option {
	return func(g *Generator) { g.schema = s }
}

// WithEncodeOptions overrides the batch-encoding options. Attention masks are
// always requested since datasets carry them.
func WithEncodeOptions(opts tokenizer.Options) Option {
	return func(g *Generator) {
		opts.ReturnAttentionMask = true
		g.opts = opts
	}
}

func WithDevice(d tensor.Device) Option {
	return func(g *Generator) { g.device = d }
}

// WithWorkers sets how many goroutines split sequences into k-mers.
func WithWorkers(n int) Option {
	return func(g *Generator) { g.workers = n }
}

// WithOutput redirects the per-file progress lines (stdout by default).
func WithOutput(w io.Writer) Option {
	return func(g *Generator) { g.diag = internal.GetDiagnosticLogger(w) }
}

func WithIgnore(ic IgnoreChecker) Option {
	return func(g *Generator) { g.ignore = ic }
}

func WithCache(s cache.Store) Option {
	return func(g *Generator) { g.cache = s }
}

// WithLabelBase sets the class value that maps to label 0.
func WithLabelBase(base int) Option {
	return func(g *Generator) { g.labelBase = base }
}

// WithStrictAlphabet rejects sequences containing anything but A, C, G, T.
func WithStrictAlphabet(strict bool) Option {
	return func(g *Generator) { g.strict = strict }
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// New prepares a generator over dir. Nothing is read until the first Next.
// An empty dir means DefaultDir.
func New(tok tokenizer.Tokenizer, k int, dir string, opts ...Option) *Generator {
	if dir == "" {
		dir = DefaultDir
	}
	g := &Generator{
		tok:       tok,
		k:         k,
		dir:       dir,
		fs:        afero.NewOsFs(),
		schema:    table.DefaultSchema(),
		opts:      tokenizer.DefaultOptions(),
		device:    tensor.CPU,
		workers:   internal.DefaultWorkers,
		labelBase: internal.DefaultLabelBase,
		diag:      internal.GetDiagnosticLogger(os.Stdout),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next loads, tokenizes and returns the dataset for the next file. It returns
// io.EOF after the last file.
func (g *Generator) Next(ctx context.Context) (*dataset.Dataset, error) {
	if g.err != nil {
		return nil, g.err
	}
	if err := ctx.Err(); err != nil {
		return nil, g.fail(err)
	}
	if !g.listed {
		if err := g.list(); err != nil {
			return nil, g.fail(err)
		}
	}

	for g.pos < len(g.entries) {
		entry := g.entries[g.pos]
		g.pos++
		if g.ignore != nil && g.ignore.MatchesPath(entry.Name()) {
			g.logger.Debug("Skipping ignored validation entry", "name", entry.Name())
			continue
		}
		if entry.IsDir() {
			return nil, g.fail(fmt.Errorf("%w: %s", ErrNotAFile, filepath.Join(g.dir, entry.Name())))
		}
		ds, err := g.load(entry.Name())
		if err != nil {
			return nil, g.fail(err)
		}
		return ds, nil
	}
	return nil, g.fail(io.EOF)
}

// All adapts Next to a range-over-func sequence. Iteration stops at the first
// error, which is yielded with a nil dataset.
func (g *Generator) All(ctx context.Context) iter.Seq2[*dataset.Dataset, error] {
	return func(yield func(*dataset.Dataset, error) bool) {
		for {
			ds, err := g.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(ds, err) || err != nil {
				return
			}
		}
	}
}

// Remaining reports how many listed entries have not been visited yet.
// Before the first Next it is zero.
func (g *Generator) Remaining() int {
	return len(g.entries) - g.pos
}

func (g *Generator) fail(err error) error {
	g.err = err
	return err
}

func (g *Generator) list() error {
	entries, err := afero.ReadDir(g.fs, g.dir)
	if err != nil {
		return fmt.Errorf("list validation directory %s: %w", g.dir, err)
	}
	g.entries = entries
	g.listed = true
	g.logger.Debug("Validation directory listed", "dir", g.dir, "entries", len(entries))
	return nil
}

func (g *Generator) load(name string) (*dataset.Dataset, error) {
	path := filepath.Join(g.dir, name)
	content, err := afero.ReadFile(g.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	tab, err := table.Parse(bytes.NewReader(content), g.schema)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	g.diag.Info().Int("rows", tab.Len()).Msg(name)

	if g.strict {
		for i, seq := range tab.Sequences {
			if err := kmer.Validate(seq, kmer.DNA); err != nil {
				return nil, fmt.Errorf("%s row %d: %w", path, i, err)
			}
		}
	}
	labels, err := table.Labels(tab.Classes, g.labelBase)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	enc, err := g.encode(content, tab.Sequences)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if enc.Len() != len(labels) || len(enc.AttentionMask) != len(labels) {
		return nil, fmt.Errorf("%s: %w: %d rows, %d ids, %d masks",
			path, ErrEncodingShape, len(labels), enc.Len(), len(enc.AttentionMask))
	}

	return dataset.New(enc.InputIDs, enc.AttentionMask, labels,
		dataset.WithName(name), dataset.WithDevice(g.device))
}

func (g *Generator) encode(content []byte, seqs []string) (*tokenizer.Encoding, error) {
	var key string
	if g.cache != nil {
		key = cache.Key(content, g.k, g.tok.Name(), g.opts)
		enc, ok, err := g.cache.Get(key)
		if err != nil {
			return nil, err
		}
		if ok {
			g.logger.Debug("Encoding cache hit", "key", key)
			return enc, nil
		}
	}

	kmers, err := kmer.SplitAll(seqs, g.k, g.workers)
	if err != nil {
		return nil, err
	}
	enc, err := g.tok.BatchEncode(kmers, g.opts)
	if err != nil {
		return nil, fmt.Errorf("batch encode: %w", err)
	}

	if g.cache != nil {
		if err := g.cache.Put(key, enc); err != nil {
			return nil, err
		}
	}
	return enc, nil
}
