package tokenizer

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/armon/go-radix"
)

// Vocab is a whole-token vocabulary: input is split on whitespace and every
// token is looked up as-is. This matches how k-mer models are tokenized,
// where each k-mer is a vocabulary entry.
type Vocab struct {
	tokens      *radix.Tree
	size        int
	fingerprint string
	padID       int64
	unkID       int64
	clsID       int64
	sepID       int64
}

// LoadVocabFile reads a vocab.txt with one token per line; the line number
// is the token id.
func LoadVocabFile(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadVocab(f)
}

// ReadVocab parses vocab lines from r. Blank lines are skipped and do not
// consume an id.
func ReadVocab(r io.Reader) (*Vocab, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		tok := strings.TrimSpace(scanner.Text())
		if tok == "" {
			continue
		}
		lines = append(lines, tok)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return NewVocab(lines)
}

// NewVocab assigns ids in slice order. [PAD], [UNK], [CLS] and [SEP] must be present.
func NewVocab(tokens []string) (*Vocab, error) {
	tree := radix.New()
	for i, tok := range tokens {
		if _, ok := tree.Get(tok); ok {
			continue
		}
		tree.Insert(tok, int64(i))
	}
	h := sha256.New()
	for _, tok := range tokens {
		h.Write([]byte(tok))
		h.Write([]byte{'\n'})
	}
	v := &Vocab{tokens: tree, size: len(tokens), fingerprint: hex.EncodeToString(h.Sum(nil))}

	for _, sp := range []struct {
		name string
		dst  *int64
	}{
		{PadToken, &v.padID},
		{UnkToken, &v.unkID},
		{ClsToken, &v.clsID},
		{SepToken, &v.sepID},
	} {
		id, ok := v.ID(sp.name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSpecialToken, sp.name)
		}
		*sp.dst = id
	}
	return v, nil
}

// Name identifies the vocabulary by size and content, so two vocabularies
// that assign different ids never share a name.
func (v *Vocab) Name() string { return fmt.Sprintf("vocab(%d):%s", v.size, v.fingerprint[:16]) }

// Fingerprint is the hex sha256 of the vocab lines in id order.
func (v *Vocab) Fingerprint() string { return v.fingerprint }

// Size is the number of vocab lines, duplicates included.
func (v *Vocab) Size() int { return v.size }

func (v *Vocab) PadID() int64 { return v.padID }
func (v *Vocab) UnkID() int64 { return v.unkID }
func (v *Vocab) ClsID() int64 { return v.clsID }
func (v *Vocab) SepID() int64 { return v.sepID }

// ID looks up a single token.
func (v *Vocab) ID(tok string) (int64, bool) {
	raw, ok := v.tokens.Get(tok)
	if !ok {
		return 0, false
	}
	return raw.(int64), true
}

// WithPrefix lists vocabulary tokens starting with prefix, in lexical order.
func (v *Vocab) WithPrefix(prefix string) []string {
	var out []string
	v.tokens.WalkPrefix(prefix, func(s string, _ interface{}) bool {
		out = append(out, s)
		return false
	})
	return out
}

// Encode maps one text to [CLS] ids... [SEP] without padding.
func (v *Vocab) Encode(text string) []int64 {
	fields := strings.Fields(text)
	row := make([]int64, 0, len(fields)+2)
	row = append(row, v.clsID)
	for _, f := range fields {
		id, ok := v.ID(f)
		if !ok {
			id = v.unkID
		}
		row = append(row, id)
	}
	return append(row, v.sepID)
}

func (v *Vocab) BatchEncode(texts []string, opts Options) (*Encoding, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	rows := make([][]int64, len(texts))
	for i, t := range texts {
		rows[i] = v.Encode(t)
	}
	return finalize(rows, opts, v.padID, v.sepID)
}
