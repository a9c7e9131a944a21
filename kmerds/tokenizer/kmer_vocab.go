package tokenizer

import (
	"bufio"
	"fmt"
	"io"

	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/kmer"
)

// MaxVocabK bounds generated vocabularies; 4^10 entries is already ~1M lines.
const MaxVocabK = 10

// SpecialTokens in the order they open a generated vocabulary.
var SpecialTokens = []string{PadToken, UnkToken, ClsToken, SepToken, MaskToken}

// KmerVocabulary lists the special tokens followed by every k-mer over ACGT
// in lexicographic order.
func KmerVocabulary(k int) ([]string, error) {
	if k < 1 || k > MaxVocabK {
		return nil, fmt.Errorf("%w: k=%d, want 1..%d", kmer.ErrInvalidK, k, MaxVocabK)
	}
	n := 1
	for i := 0; i < k; i++ {
		n *= len(kmer.DNA)
	}
	out := make([]string, 0, len(SpecialTokens)+n)
	out = append(out, SpecialTokens...)

	buf := make([]byte, k)
	for code := 0; code < n; code++ {
		c := code
		for pos := k - 1; pos >= 0; pos-- {
			buf[pos] = kmer.DNA[c%len(kmer.DNA)]
			c /= len(kmer.DNA)
		}
		out = append(out, string(buf))
	}
	return out, nil
}

// NewKmerVocab builds a Vocab directly from KmerVocabulary(k).
func NewKmerVocab(k int) (*Vocab, error) {
	tokens, err := KmerVocabulary(k)
	if err != nil {
		return nil, err
	}
	return NewVocab(tokens)
}

// WriteVocab writes KmerVocabulary(k) one token per line.
func WriteVocab(w io.Writer, k int) error {
	tokens, err := KmerVocabulary(k)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, tok := range tokens {
		if _, err := bw.WriteString(tok + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
