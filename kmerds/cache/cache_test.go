package cache

import (
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/tokenizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEncoding() *tokenizer.Encoding {
	return &tokenizer.Encoding{
		InputIDs:      [][]int64{{2, 5, 3, 0}, {2, 6, 7, 3}},
		AttentionMask: [][]int64{{1, 1, 1, 0}, {1, 1, 1, 1}},
	}
}

func TestKey(t *testing.T) {
	opts := tokenizer.DefaultOptions()
	base := Key([]byte("SEQ,CLASS\nACGT,1\n"), 6, "vocab(4101)", opts)

	assert.Equal(t, base, Key([]byte("SEQ,CLASS\nACGT,1\n"), 6, "vocab(4101)", opts))
	assert.NotEqual(t, base, Key([]byte("SEQ,CLASS\nACGT,2\n"), 6, "vocab(4101)", opts))
	assert.NotEqual(t, base, Key([]byte("SEQ,CLASS\nACGT,1\n"), 5, "vocab(4101)", opts))
	assert.NotEqual(t, base, Key([]byte("SEQ,CLASS\nACGT,1\n"), 6, "wordpiece:vocab.txt", opts))

	opts.MaxLength = 128
	assert.NotEqual(t, base, Key([]byte("SEQ,CLASS\nACGT,1\n"), 6, "vocab(4101)", opts))
}

func TestMemoryStore(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put("k", sampleEncoding()))
	got, ok, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleEncoding(), got)
	assert.Equal(t, 1, s.(*MemoryStore).Len())
}

func TestLibSQLStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "encodings.db")

	s, err := NewLibSQLStore(path)
	require.NoError(t, err)

	_, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put("k", sampleEncoding()))
	firstRun := s.RunID()
	require.NoError(t, s.Close())

	reopened, err := NewLibSQLStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok, err := reopened.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleEncoding(), got)

	runs, err := reopened.Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.Contains(t, runs, firstRun)
	assert.Contains(t, runs, reopened.RunID())
}
