// Package kmer splits nucleotide sequences into overlapping fixed-length
// substrings ("k-mers") and joins them into space-separated token strings.
package kmer

import (
	"errors"
	"fmt"
	"strings"

	conciter "github.com/sourcegraph/conc/iter"
)

// DefaultK is the k-mer length used when the caller has no preference.
const DefaultK = 6

// DNA is the canonical nucleotide alphabet.
const DNA = "ACGT"

var (
	ErrInvalidK        = errors.New("k-mer length must be at least 1")
	ErrInvalidAlphabet = errors.New("sequence contains a symbol outside the alphabet")
)

// Count returns how many k-mers a sequence of length seqLen yields.
func Count(seqLen, k int) int {
	if k < 1 || seqLen < k {
		return 0
	}
	return seqLen - k + 1
}

// Tokens returns every length-k substring of seq, taken at offsets
// 0..len(seq)-k in order. No case folding or alphabet check is applied.
func Tokens(seq string, k int) ([]string, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	n := Count(len(seq), k)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = seq[i : i+k]
	}
	return out, nil
}

// Split returns the k-mers of seq joined by single spaces. When k exceeds the
// sequence length the result is the empty string.
func Split(seq string, k int) (string, error) {
	if k < 1 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	n := Count(len(seq), k)
	if n == 0 {
		return "", nil
	}

	var b strings.Builder
	b.Grow(n*(k+1) - 1)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(seq[i : i+k])
	}
	return b.String(), nil
}

// SplitAll applies Split to every sequence, preserving order. With workers > 1
// the sequences are processed concurrently.
func SplitAll(seqs []string, k, workers int) ([]string, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if workers < 1 {
		workers = 1
	}
	mapper := conciter.Mapper[string, string]{MaxGoroutines: workers}
	return mapper.MapErr(seqs, func(seq *string) (string, error) {
		return Split(*seq, k)
	})
}

// Validate reports the first position of seq holding a byte outside alphabet.
// Comparison is exact, so lower-case input fails against DNA.
func Validate(seq, alphabet string) error {
	for i := 0; i < len(seq); i++ {
		if strings.IndexByte(alphabet, seq[i]) < 0 {
			return fmt.Errorf("%w: %q at offset %d", ErrInvalidAlphabet, seq[i], i)
		}
	}
	return nil
}
