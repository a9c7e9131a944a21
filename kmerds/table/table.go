// Package table loads labelled sequence CSVs into memory.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	internal "github.com/ZanzyTHEbar/kmer-datasets/kmerds"

	"github.com/spf13/afero"
)

var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrEmptyFile       = errors.New("csv file has no header row")
	ErrLabelNotNumeric = errors.New("class value is not an integer")
	ErrLabelOutOfRange = errors.New("class value below label base")
)

// ColumnAliases is an ordered list of accepted header names. The first alias
// present in the header wins.
type ColumnAliases []string

// Resolve returns the index of the first alias found in header.
func (a ColumnAliases) Resolve(header []string) (int, string, error) {
	for _, alias := range a {
		for i, h := range header {
			if h == alias {
				return i, alias, nil
			}
		}
	}
	return -1, "", fmt.Errorf("%w: none of %s in header %v", ErrColumnNotFound, strings.Join(a, ", "), header)
}

// Schema names the columns a sequence CSV must carry.
type Schema struct {
	Sequence ColumnAliases
	Class    ColumnAliases
}

// DefaultSchema expects SEQ plus CLASS, falling back to Class.
func DefaultSchema() Schema {
	return Schema{
		Sequence: ColumnAliases{internal.DefaultSequenceColumn},
		Class:    append(ColumnAliases(nil), internal.DefaultClassColumns...),
	}
}

// Table holds the two resolved columns of one CSV file, row aligned.
type Table struct {
	Path           string
	SequenceColumn string
	ClassColumn    string
	Sequences      []string
	Classes        []string
}

func (t *Table) Len() int { return len(t.Sequences) }

// Read loads the whole file at path. The file handle is released before
// Read returns.
func Read(fs afero.Fs, path string, schema Schema) (*Table, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Parse(f, schema)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	t.Path = path
	return t, nil
}

// Parse reads CSV records from r. Rows may carry a different number of
// fields than the header as long as the resolved columns are present.
func Parse(r io.Reader, schema Schema) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, err
	}
	header = trimBOM(header)

	seqIdx, seqName, err := schema.Sequence.Resolve(header)
	if err != nil {
		return nil, err
	}
	clsIdx, clsName, err := schema.Class.Resolve(header)
	if err != nil {
		return nil, err
	}

	t := &Table{SequenceColumn: seqName, ClassColumn: clsName}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if seqIdx >= len(rec) || clsIdx >= len(rec) {
			return nil, fmt.Errorf("line %d: %w: row has %d fields", line, ErrColumnNotFound, len(rec))
		}
		t.Sequences = append(t.Sequences, rec[seqIdx])
		t.Classes = append(t.Classes, rec[clsIdx])
	}
	return t, nil
}

// Labels converts raw class values to zero-based labels by subtracting base.
// Non-integer values and values below base are rejected rather than guessed at.
func Labels(classes []string, base int) ([]int64, error) {
	out := make([]int64, len(classes))
	for i, c := range classes {
		v, err := strconv.ParseInt(strings.TrimSpace(c), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w: %q", i, ErrLabelNotNumeric, c)
		}
		if v < int64(base) {
			return nil, fmt.Errorf("row %d: %w: %d < %d", i, ErrLabelOutOfRange, v, base)
		}
		out[i] = v - int64(base)
	}
	return out, nil
}

func trimBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	out := make([]string, len(header))
	copy(out, header)
	return out
}
