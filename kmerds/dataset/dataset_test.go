package dataset

import (
	"testing"

	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/tensor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, opts ...Option) *Dataset {
	t.Helper()
	ids := [][]int64{
		{2, 10, 11, 3, 0},
		{2, 12, 3, 0, 0},
		{2, 13, 14, 15, 3},
	}
	masks := [][]int64{
		{1, 1, 1, 1, 0},
		{1, 1, 1, 0, 0},
		{1, 1, 1, 1, 1},
	}
	labels := []int64{0, 1, 0}
	ds, err := New(ids, masks, labels, opts...)
	require.NoError(t, err)
	return ds
}

func TestNewRejectsMismatchedLengths(t *testing.T) {
	tests := []struct {
		name   string
		ids    [][]int64
		masks  [][]int64
		labels []int64
	}{
		{name: "short labels", ids: [][]int64{{1}, {2}}, masks: [][]int64{{1}, {1}}, labels: []int64{0}},
		{name: "short masks", ids: [][]int64{{1}, {2}}, masks: [][]int64{{1}}, labels: []int64{0, 1}},
		{name: "short ids", ids: [][]int64{{1}}, masks: [][]int64{{1}, {1}}, labels: []int64{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.ids, tt.masks, tt.labels)
			assert.ErrorIs(t, err, ErrLengthMismatch)
		})
	}
}

func TestLenAndGet(t *testing.T) {
	ds := fixture(t, WithName("a.csv"), WithDevice("cuda:0"))
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, "a.csv", ds.Name())

	ex, err := ds.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 12, 3, 0, 0}, ex.InputIDs.Data)
	assert.Equal(t, []int{5}, ex.InputIDs.Shape)
	assert.Equal(t, []int64{1, 1, 1, 0, 0}, ex.AttentionMask.Data)
	label, err := ex.Labels.Item()
	require.NoError(t, err)
	assert.Equal(t, int64(1), label)
	assert.Equal(t, tensor.Device("cuda:0"), ex.Labels.Device)

	m := ex.Map()
	assert.Len(t, m, 3)
	assert.Contains(t, m, KeyInputIDs)
	assert.Contains(t, m, KeyAttentionMask)
	assert.Contains(t, m, KeyLabels)
}

func TestGetBuildsFreshTensors(t *testing.T) {
	ds := fixture(t)
	first, err := ds.Get(0)
	require.NoError(t, err)
	first.InputIDs.Data[0] = 99

	second, err := ds.Get(0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.InputIDs.Data[0])
}

func TestGetOutOfRange(t *testing.T) {
	ds := fixture(t)
	for _, i := range []int{-1, 3, 100} {
		_, err := ds.Get(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", i)
	}
}

func TestBatches(t *testing.T) {
	ds := fixture(t)

	var offsets []int
	var sizes []int
	for b, err := range ds.Batches(2) {
		require.NoError(t, err)
		offsets = append(offsets, b.Offset)
		sizes = append(sizes, b.InputIDs.Shape[0])
		assert.Equal(t, 5, b.InputIDs.Shape[1])
		assert.Equal(t, b.InputIDs.Shape, b.AttentionMask.Shape)
		assert.Equal(t, []int{b.InputIDs.Shape[0]}, b.Labels.Shape)
	}
	assert.Equal(t, []int{0, 2}, offsets)
	assert.Equal(t, []int{2, 1}, sizes)

	for _, err := range ds.Batches(0) {
		assert.ErrorIs(t, err, ErrInvalidBatch)
	}
}

func TestStatsAndLabelIndex(t *testing.T) {
	ds := fixture(t)

	assert.Equal(t, []uint32{0, 2}, ds.Rows(0))
	assert.Equal(t, []uint32{1}, ds.Rows(1))
	assert.Nil(t, ds.Rows(7))

	s := ds.Stats()
	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, map[int64]uint64{0: 2, 1: 1}, s.LabelCounts)
	assert.Equal(t, []int64{0, 1}, s.SortedLabels())
	assert.InDelta(t, 4.0, s.MeanTokens, 1e-9)
	assert.InDelta(t, 1.0, s.StdDevTokens, 1e-9)
}

func TestStatsEmptyAndSingle(t *testing.T) {
	empty, err := New(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 0, empty.Stats().Rows)

	one, err := New([][]int64{{2, 3}}, [][]int64{{1, 1}}, []int64{4})
	require.NoError(t, err)
	s := one.Stats()
	assert.Equal(t, 2.0, s.MeanTokens)
	assert.Equal(t, 0.0, s.StdDevTokens)
}

func TestLabelIndexBuiltOnce(t *testing.T) {
	ds := fixture(t)
	first := ds.LabelIndex()
	second := ds.LabelIndex()
	require.Len(t, first, 2)
	assert.Same(t, first[0], second[0])
	assert.Same(t, first[1], second[1])
	assert.Equal(t, []uint32{0, 2}, ds.Rows(0))
	assert.Equal(t, []uint32{0, 2}, ds.Rows(0))
}
