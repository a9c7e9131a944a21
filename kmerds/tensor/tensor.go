// Package tensor holds the minimal int64 tensor handed to model code.
package tensor

import (
	"errors"
	"fmt"
	"strings"
)

// Device names where a tensor is meant to live, e.g. "cpu" or "cuda:0".
// Placement is carried as metadata; the data itself always sits in host memory.
type Device string

const CPU Device = "cpu"

var (
	ErrShapeMismatch = errors.New("tensor shape mismatch")
	ErrEmptyStack    = errors.New("cannot stack zero tensors")
)

// ParseDevice normalizes a device name. Empty input means CPU.
func ParseDevice(s string) Device {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CPU
	}
	return Device(s)
}

// Tensor is a dense row-major int64 tensor.
type Tensor struct {
	Data   []int64
	Shape  []int
	Device Device
}

// FromSlice copies v into a new 1-D tensor on device d.
func FromSlice(v []int64, d Device) Tensor {
	data := make([]int64, len(v))
	copy(data, v)
	return Tensor{Data: data, Shape: []int{len(v)}, Device: d}
}

// Scalar returns a 0-D tensor holding v.
func Scalar(v int64, d Device) Tensor {
	return Tensor{Data: []int64{v}, Shape: []int{}, Device: d}
}

// Stack joins equally shaped tensors along a new leading axis.
func Stack(ts []Tensor) (Tensor, error) {
	if len(ts) == 0 {
		return Tensor{}, ErrEmptyStack
	}
	inner := ts[0].Shape
	size := ts[0].Len()
	data := make([]int64, 0, size*len(ts))
	for i, t := range ts {
		if !sameShape(t.Shape, inner) {
			return Tensor{}, fmt.Errorf("%w: element %d has shape %v, want %v", ErrShapeMismatch, i, t.Shape, inner)
		}
		data = append(data, t.Data...)
	}
	shape := append([]int{len(ts)}, inner...)
	return Tensor{Data: data, Shape: shape, Device: ts[0].Device}, nil
}

// Len is the total number of elements.
func (t Tensor) Len() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Item returns the single value of a 0-D or one-element tensor.
func (t Tensor) Item() (int64, error) {
	if len(t.Data) != 1 {
		return 0, fmt.Errorf("%w: item() on tensor with %d elements", ErrShapeMismatch, len(t.Data))
	}
	return t.Data[0], nil
}

func (t Tensor) String() string {
	return fmt.Sprintf("tensor(shape=%v, device=%s)", t.Shape, t.Device)
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
