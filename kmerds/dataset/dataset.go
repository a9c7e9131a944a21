package dataset

import (
	"errors"
	"fmt"
	"iter"
	"sync"

	"github.com/ZanzyTHEbar/kmer-datasets/kmerds/tensor"

	roaring "github.com/RoaringBitmap/roaring"
)

// Keys of the mapping returned by Example.Map.
const (
	KeyInputIDs      = "input_ids"
	KeyAttentionMask = "attention_mask"
	KeyLabels        = "labels"
)

var (
	ErrLengthMismatch  = errors.New("input ids, attention masks and labels differ in length")
	ErrIndexOutOfRange = errors.New("dataset index out of range")
	ErrInvalidBatch    = errors.New("batch size must be at least 1")
)

// Dataset is a read-only, indexable view over three parallel arrays.
// Row i of the input ids, the attention masks and the labels always
// describe the same example.
type Dataset struct {
	name           string
	device         tensor.Device
	inputIDs       [][]int64
	attentionMasks [][]int64
	labels         []int64

	labelOnce  sync.Once
	labelIndex map[int64]*roaring.Bitmap
}

// Option configures a Dataset at construction time.
type Option func(*Dataset)

// WithName labels the dataset, typically with its source file name.
func WithName(name string) Option {
	return func(d *Dataset) { d.name = name }
}

// WithDevice sets the device stamped on every tensor built by Get.
func WithDevice(dev tensor.Device) Option {
	return func(d *Dataset) { d.device = dev }
}

// New wraps the arrays without copying them. The caller must not mutate them
// afterwards.
func New(inputIDs, attentionMasks [][]int64, labels []int64, opts ...Option) (*Dataset, error) {
	if len(inputIDs) != len(labels) || len(attentionMasks) != len(labels) {
		return nil, fmt.Errorf("%w: %d ids, %d masks, %d labels",
			ErrLengthMismatch, len(inputIDs), len(attentionMasks), len(labels))
	}
	d := &Dataset{
		device:         tensor.CPU,
		inputIDs:       inputIDs,
		attentionMasks: attentionMasks,
		labels:         labels,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Dataset) Name() string          { return d.name }
func (d *Dataset) Device() tensor.Device { return d.device }

// Len is the number of labels.
func (d *Dataset) Len() int { return len(d.labels) }

// Labels exposes the label column. The slice is shared; do not modify it.
func (d *Dataset) Labels() []int64 { return d.labels }

// Example is one row converted to tensors.
type Example struct {
	InputIDs      tensor.Tensor
	AttentionMask tensor.Tensor
	Labels        tensor.Tensor
}

// Map returns the example keyed the way sequence-classification models expect.
func (e Example) Map() map[string]tensor.Tensor {
	return map[string]tensor.Tensor{
		KeyInputIDs:      e.InputIDs,
		KeyAttentionMask: e.AttentionMask,
		KeyLabels:        e.Labels,
	}
}

// Get builds fresh tensors for row i on every call.
func (d *Dataset) Get(i int) (Example, error) {
	if i < 0 || i >= d.Len() {
		return Example{}, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, d.Len())
	}
	return Example{
		InputIDs:      tensor.FromSlice(d.inputIDs[i], d.device),
		AttentionMask: tensor.FromSlice(d.attentionMasks[i], d.device),
		Labels:        tensor.Scalar(d.labels[i], d.device),
	}, nil
}

// Batch is a run of consecutive examples stacked along a leading axis.
type Batch struct {
	Offset        int
	InputIDs      tensor.Tensor
	AttentionMask tensor.Tensor
	Labels        tensor.Tensor
}

// Batches yields consecutive batches of at most size rows, in index order.
// The final batch may be short.
func (d *Dataset) Batches(size int) iter.Seq2[Batch, error] {
	return func(yield func(Batch, error) bool) {
		if size < 1 {
			yield(Batch{}, fmt.Errorf("%w: got %d", ErrInvalidBatch, size))
			return
		}
		for off := 0; off < d.Len(); off += size {
			end := min(off+size, d.Len())
			b, err := d.batch(off, end)
			if !yield(b, err) || err != nil {
				return
			}
		}
	}
}

func (d *Dataset) batch(from, to int) (Batch, error) {
	n := to - from
	ids := make([]tensor.Tensor, 0, n)
	masks := make([]tensor.Tensor, 0, n)
	labels := make([]int64, 0, n)
	for i := from; i < to; i++ {
		ex, err := d.Get(i)
		if err != nil {
			return Batch{}, err
		}
		ids = append(ids, ex.InputIDs)
		masks = append(masks, ex.AttentionMask)
		labels = append(labels, d.labels[i])
	}
	stackedIDs, err := tensor.Stack(ids)
	if err != nil {
		return Batch{}, fmt.Errorf("stack input ids: %w", err)
	}
	stackedMasks, err := tensor.Stack(masks)
	if err != nil {
		return Batch{}, fmt.Errorf("stack attention masks: %w", err)
	}
	return Batch{
		Offset:        from,
		InputIDs:      stackedIDs,
		AttentionMask: stackedMasks,
		Labels:        tensor.FromSlice(labels, d.device),
	}, nil
}
