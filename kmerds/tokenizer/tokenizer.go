// Package tokenizer batch-encodes k-mer strings into fixed-width id and
// attention-mask rows.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	internal "github.com/ZanzyTHEbar/kmer-datasets/kmerds"
)

// Special tokens shared by BERT-style vocabularies.
const (
	PadToken  = "[PAD]"
	UnkToken  = "[UNK]"
	ClsToken  = "[CLS]"
	SepToken  = "[SEP]"
	MaskToken = "[MASK]"
)

var (
	ErrUnsupported         = errors.New("unsupported tokenizer configuration")
	ErrInvalidOptions      = errors.New("invalid encode options")
	ErrSequenceTooLong     = errors.New("encoded sequence exceeds max length and truncation is disabled")
	ErrMissingSpecialToken = errors.New("vocabulary lacks a required special token")
)

// Tokenizer converts k-mer strings into model-ready ids and attention masks.
type Tokenizer interface {
	Name() string
	BatchEncode(texts []string, opts Options) (*Encoding, error)
}

// Options mirror the batch-encoding switches of HuggingFace tokenizers.
type Options struct {
	MaxLength           int
	PadToMaxLength      bool
	Truncation          bool
	ReturnAttentionMask bool
}

// DefaultOptions pads and truncates every row to 512 tokens.
func DefaultOptions() Options {
	return Options{
		MaxLength:           internal.DefaultMaxLength,
		PadToMaxLength:      true,
		Truncation:          true,
		ReturnAttentionMask: true,
	}
}

func (o Options) Validate() error {
	if o.MaxLength < 2 {
		return fmt.Errorf("%w: max length %d leaves no room for [CLS] and [SEP]", ErrInvalidOptions, o.MaxLength)
	}
	return nil
}

// String is a stable rendering used in cache keys.
func (o Options) String() string {
	return fmt.Sprintf("max=%d pad=%t trunc=%t mask=%t", o.MaxLength, o.PadToMaxLength, o.Truncation, o.ReturnAttentionMask)
}

// Encoding is the batch output. Rows are aligned with the input texts.
// AttentionMask is nil when it was not requested.
type Encoding struct {
	InputIDs      [][]int64
	AttentionMask [][]int64
}

func (e *Encoding) Len() int { return len(e.InputIDs) }

// New builds a tokenizer by kind: "vocab" (plain whitespace lookup) or
// "wordpiece" (sugarme BERT WordPiece).
func New(kind, vocabPath string) (Tokenizer, error) {
	var (
		tok Tokenizer
		err error
	)
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "vocab", "kmer":
		tok, err = LoadVocabFile(vocabPath)
	case "wordpiece", "bert", "sugarme":
		tok, err = NewSugarWordPiece(vocabPath)
	default:
		return nil, fmt.Errorf("%w: kind %q", ErrUnsupported, kind)
	}
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// finalize applies truncation and padding to rows that already carry
// [CLS] and [SEP]. Truncation keeps [SEP] as the last token.
func finalize(rows [][]int64, opts Options, padID, sepID int64) (*Encoding, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	width := 0
	for i, row := range rows {
		if len(row) > opts.MaxLength {
			if !opts.Truncation {
				return nil, fmt.Errorf("row %d: %w: %d > %d", i, ErrSequenceTooLong, len(row), opts.MaxLength)
			}
			cut := append(row[:opts.MaxLength-1:opts.MaxLength-1], sepID)
			rows[i] = cut
			row = cut
		}
		width = max(width, len(row))
	}
	if opts.PadToMaxLength {
		width = opts.MaxLength
	}

	enc := &Encoding{InputIDs: make([][]int64, len(rows))}
	if opts.ReturnAttentionMask {
		enc.AttentionMask = make([][]int64, len(rows))
	}
	for i, row := range rows {
		ids := make([]int64, width)
		n := copy(ids, row)
		for j := n; j < width; j++ {
			ids[j] = padID
		}
		enc.InputIDs[i] = ids
		if opts.ReturnAttentionMask {
			mask := make([]int64, width)
			for j := 0; j < n; j++ {
				mask[j] = 1
			}
			enc.AttentionMask[i] = mask
		}
	}
	return enc, nil
}
