package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDevice(t *testing.T) {
	assert.Equal(t, CPU, ParseDevice(""))
	assert.Equal(t, CPU, ParseDevice(" CPU "))
	assert.Equal(t, Device("cuda:0"), ParseDevice("CUDA:0"))
}

func TestFromSliceCopies(t *testing.T) {
	src := []int64{1, 2, 3}
	ts := FromSlice(src, CPU)
	src[0] = 9
	assert.Equal(t, []int64{1, 2, 3}, ts.Data)
	assert.Equal(t, []int{3}, ts.Shape)
	assert.Equal(t, 3, ts.Len())
}

func TestScalar(t *testing.T) {
	s := Scalar(7, "mps")
	assert.Empty(t, s.Shape)
	assert.Equal(t, 1, s.Len())
	v, err := s.Item()
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	_, err = FromSlice([]int64{1, 2}, CPU).Item()
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestStack(t *testing.T) {
	st, err := Stack([]Tensor{FromSlice([]int64{1, 2}, CPU), FromSlice([]int64{3, 4}, CPU)})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, st.Shape)
	assert.Equal(t, []int64{1, 2, 3, 4}, st.Data)

	_, err = Stack(nil)
	assert.ErrorIs(t, err, ErrEmptyStack)

	_, err = Stack([]Tensor{FromSlice([]int64{1}, CPU), FromSlice([]int64{1, 2}, CPU)})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
