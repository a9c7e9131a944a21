package dataset

import (
	"sort"

	roaring "github.com/RoaringBitmap/roaring"
	"gonum.org/v1/gonum/stat"
)

// LabelIndex maps each label to the bitmap of row indices carrying it. The
// index is built on first use and shared afterwards; do not modify it.
func (d *Dataset) LabelIndex() map[int64]*roaring.Bitmap {
	d.labelOnce.Do(func() {
		idx := make(map[int64]*roaring.Bitmap)
		for i, l := range d.labels {
			bm, ok := idx[l]
			if !ok {
				bm = roaring.New()
				idx[l] = bm
			}
			bm.Add(uint32(i))
		}
		d.labelIndex = idx
	})
	return d.labelIndex
}

// Rows returns the indices labelled l in ascending order.
func (d *Dataset) Rows(l int64) []uint32 {
	bm, ok := d.LabelIndex()[l]
	if !ok {
		return nil
	}
	return bm.ToArray()
}

// Stats summarizes a dataset for progress output.
type Stats struct {
	Rows        int
	LabelCounts map[int64]uint64
	// Attended tokens per row (sum of the attention mask), special tokens included.
	MeanTokens   float64
	StdDevTokens float64
}

// SortedLabels returns the labels present in ascending order.
func (s Stats) SortedLabels() []int64 {
	out := make([]int64, 0, len(s.LabelCounts))
	for l := range s.LabelCounts {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (d *Dataset) Stats() Stats {
	s := Stats{Rows: d.Len(), LabelCounts: make(map[int64]uint64)}
	for l, bm := range d.LabelIndex() {
		s.LabelCounts[l] = bm.GetCardinality()
	}
	if d.Len() == 0 {
		return s
	}

	attended := make([]float64, len(d.attentionMasks))
	for i, mask := range d.attentionMasks {
		var n int64
		for _, m := range mask {
			n += m
		}
		attended[i] = float64(n)
	}
	if len(attended) == 1 {
		s.MeanTokens = attended[0]
		return s
	}
	s.MeanTokens, s.StdDevTokens = stat.MeanStdDev(attended, nil)
	return s
}
