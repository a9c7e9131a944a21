package kmer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		k    int
		want string
	}{
		{name: "k=3", seq: "ACGTACGT", k: 3, want: "ACG CGT GTA TAC ACG CGT"},
		{name: "k longer than sequence", seq: "AC", k: 6, want: ""},
		{name: "k equals length", seq: "ACGTAC", k: 6, want: "ACGTAC"},
		{name: "k=1", seq: "ACGT", k: 1, want: "A C G T"},
		{name: "empty sequence", seq: "", k: 1, want: ""},
		{name: "no normalization", seq: "acGN", k: 2, want: "ac cG GN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.seq, tt.k)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitInvalidK(t *testing.T) {
	for _, k := range []int{0, -1} {
		_, err := Split("ACGT", k)
		assert.ErrorIs(t, err, ErrInvalidK)

		_, err = Tokens("ACGT", k)
		assert.ErrorIs(t, err, ErrInvalidK)
	}
}

func TestSplitProperties(t *testing.T) {
	seq := "TTAGGCATCGATCGGATCAAGCTTAGC"
	for k := 1; k <= len(seq)+2; k++ {
		got, err := Split(seq, k)
		require.NoError(t, err)

		again, err := Split(seq, k)
		require.NoError(t, err)
		assert.Equal(t, got, again, "k=%d not deterministic", k)

		if k > len(seq) {
			assert.Empty(t, got)
			continue
		}

		parts := strings.Split(got, " ")
		require.Len(t, parts, len(seq)-k+1, "k=%d", k)
		for i, p := range parts {
			assert.Len(t, p, k)
			assert.Equal(t, seq[i:i+k], p, "k=%d offset=%d", k, i)
		}
	}
}

func TestTokensMatchesSplit(t *testing.T) {
	toks, err := Tokens("ACGTACGT", 3)
	require.NoError(t, err)
	joined, err := Split("ACGTACGT", 3)
	require.NoError(t, err)
	assert.Equal(t, joined, strings.Join(toks, " "))
}

func TestCount(t *testing.T) {
	assert.Equal(t, 6, Count(8, 3))
	assert.Equal(t, 1, Count(6, 6))
	assert.Equal(t, 0, Count(2, 6))
	assert.Equal(t, 0, Count(5, 0))
}

func TestSplitAllPreservesOrder(t *testing.T) {
	seqs := []string{"ACGTACGT", "AC", "GGGCCC", "TTTT", "ACGTTGCA"}
	for _, workers := range []int{0, 1, 4} {
		got, err := SplitAll(seqs, 3, workers)
		require.NoError(t, err)
		require.Len(t, got, len(seqs))
		for i, s := range seqs {
			want, _ := Split(s, 3)
			assert.Equal(t, want, got[i], "workers=%d row=%d", workers, i)
		}
	}

	_, err := SplitAll(seqs, 0, 2)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("ACGTTGCA", DNA))
	assert.NoError(t, Validate("", DNA))

	err := Validate("ACGN", DNA)
	require.ErrorIs(t, err, ErrInvalidAlphabet)
	assert.Contains(t, err.Error(), "offset 3")

	assert.ErrorIs(t, Validate("acgt", DNA), ErrInvalidAlphabet)
}
