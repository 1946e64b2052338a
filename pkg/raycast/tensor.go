package raycast

import (
	"fmt"

	"gorgonia.org/tensor"
)

// checkAccess rejects nil tensors and storage the engine cannot read
// in place.
func checkAccess(name string, t *tensor.Dense) error {
	if t == nil {
		return fmt.Errorf("%w: %s is nil", ErrShapeMismatch, name)
	}
	if !t.IsNativelyAccessible() {
		return fmt.Errorf("%w: %s storage is not natively accessible", ErrDeviceMismatch, name)
	}
	return nil
}

// checkQuery validates a query tensor: rank at least 2, a fixed
// trailing dimension and element type. It returns the number of
// records (rows of lastDim elements).
func checkQuery(name string, t *tensor.Dense, dt tensor.Dtype, lastDim int) (int, error) {
	if err := checkAccess(name, t); err != nil {
		return 0, err
	}
	shp := t.Shape()
	if len(shp) < 2 || shp[len(shp)-1] != lastDim {
		return 0, fmt.Errorf("%w: %s has shape %v, want (..., %d)", ErrShapeMismatch, name, shp, lastDim)
	}
	if t.Dtype() != dt {
		return 0, fmt.Errorf("%w: %s has dtype %v, want %v", ErrDtypeMismatch, name, t.Dtype(), dt)
	}
	return shp.TotalSize() / lastDim, nil
}

// checkBuffer validates a geometry buffer: exactly rank 2 with a
// trailing dimension of 3. It returns the row count.
func checkBuffer(name string, t *tensor.Dense, dt tensor.Dtype) (int, error) {
	if err := checkAccess(name, t); err != nil {
		return 0, err
	}
	shp := t.Shape()
	if len(shp) != 2 || shp[1] != 3 {
		return 0, fmt.Errorf("%w: %s has shape %v, want (n, 3)", ErrShapeMismatch, name, shp)
	}
	if t.Dtype() != dt {
		return 0, fmt.Errorf("%w: %s has dtype %v, want %v", ErrDtypeMismatch, name, t.Dtype(), dt)
	}
	return shp[0], nil
}

// float32Data returns the flat backing of t, materializing views that
// are not contiguous in memory.
func float32Data(t *tensor.Dense) []float32 {
	if !t.DataOrder().IsContiguous() {
		t = t.Materialize().(*tensor.Dense)
	}
	return t.Data().([]float32)
}

// uint32Data is float32Data for uint32 tensors.
func uint32Data(t *tensor.Dense) []uint32 {
	if !t.DataOrder().IsContiguous() {
		t = t.Materialize().(*tensor.Dense)
	}
	return t.Data().([]uint32)
}

// resultShape derives an output shape: the query's leading dimensions
// plus optional trailing components.
func resultShape(in tensor.Shape, trailing ...int) []int {
	out := make([]int, 0, len(in)-1+len(trailing))
	out = append(out, in[:len(in)-1]...)
	return append(out, trailing...)
}
