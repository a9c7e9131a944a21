package tokenizer

import (
	"fmt"
	"os"
	"path/filepath"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/pretokenizer"
	"github.com/sugarme/tokenizer/processor"
)

// SugarWordPiece wraps a sugarme/tokenizer BERT WordPiece pipeline. No
// normalizer is installed: k-mers are matched exactly as written.
type SugarWordPiece struct {
	t     *tk.Tokenizer
	vocab *Vocab
	path  string
}

// NewSugarWordPiece loads vocab.txt from vocabPath, or from vocabPath/vocab.txt
// when vocabPath is a directory.
func NewSugarWordPiece(vocabPath string) (*SugarWordPiece, error) {
	if fi, err := os.Stat(vocabPath); err == nil && fi.IsDir() {
		vocabPath = filepath.Join(vocabPath, "vocab.txt")
	}

	// Special ids come from the same file so [CLS]/[SEP]/[PAD] agree with the model.
	vocab, err := LoadVocabFile(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("load vocab %s: %w", vocabPath, err)
	}

	var wp wordpiece.WordPiece
	if nw, err := wordpiece.NewWordPieceFromFile(vocabPath, UnkToken); err == nil {
		wp = nw
	} else {
		wp = wordpiece.NewWordPieceBuilder().Files(vocabPath).Build()
	}

	t := tk.NewTokenizer(wp)
	t.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())
	t.WithPostProcessor(processor.NewBertProcessing(
		processor.PostToken{Value: SepToken, Id: int(vocab.SepID())},
		processor.PostToken{Value: ClsToken, Id: int(vocab.ClsID())},
	))
	// Truncation and padding are applied in finalize so both tokenizers share them.

	return &SugarWordPiece{t: t, vocab: vocab, path: vocabPath}, nil
}

func (s *SugarWordPiece) Name() string {
	return "wordpiece:" + filepath.Base(s.path) + ":" + s.vocab.Fingerprint()[:16]
}

func (s *SugarWordPiece) BatchEncode(texts []string, opts Options) (*Encoding, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	rows := make([][]int64, len(texts))
	for i, txt := range texts {
		enc, err := s.t.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(txt)), true)
		if err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i, err)
		}
		uids := enc.GetIds()
		row := make([]int64, len(uids))
		for j, id := range uids {
			row[j] = int64(id)
		}
		rows[i] = row
	}
	return finalize(rows, opts, s.vocab.PadID(), s.vocab.SepID())
}
