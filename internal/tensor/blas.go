package tensor

import (
	"fmt"

	"github.com/substrate-ml/substrate/internal/compute"
)

// Gemm implements C = alpha*op(A)*op(B) + beta*C, where op transposes its
// argument when the matching flag is set. Operands are coerced to their 2D
// views; the backend receives row/column counts and column strides, so the
// bridge assumes row-major layout with padding only between rows.
func Gemm(ctx *Context, c *Tensor, transA, transB bool, alpha float64, a, b *Tensor, beta float64) error {
	const op = "gemm"
	if err := ctx.check(op); err != nil {
		return err
	}
	if err := sameDatatype(op, c, a, b); err != nil {
		return err
	}
	if !c.DType().IsFloat() {
		return &compute.PrecisionError{Op: op, Got: c.DType()}
	}
	if err := sameDevice(op, c, a, b); err != nil {
		return err
	}
	if err := noPartialOverlap(op, c, a, b); err != nil {
		return err
	}

	a2, b2, c2 := a.Dims().As2D(), b.Dims().As2D(), c.Dims().As2D()
	aRows, aCols := opShape(a2, transA)
	bRows, bCols := opShape(b2, transB)
	cRows, cCols := c2.Shape()[0], c2.Shape()[1]

	switch {
	case aCols != bRows:
		return gemmShapeError("inner dimensions mismatch", aRows, aCols, bRows, bCols)
	case aRows != cRows:
		return gemmShapeError("row count mismatch with destination", aRows, aCols, cRows, cCols)
	case bCols != cCols:
		return gemmShapeError("column count mismatch with destination", bRows, bCols, cRows, cCols)
	}

	return ctx.Queue().Gemm(transA, transB, cRows, cCols, aCols, alpha,
		a.Buffer(), a.Dims().ColumnStride(),
		b.Buffer(), b.Dims().ColumnStride(),
		beta, c.Buffer(), c.Dims().ColumnStride())
}

// Gemv implements y = alpha*op(A)*x + beta*y. Both vectors must be
// vector-indexable: dense, or one column wide, so a single BLAS increment
// can walk them.
func Gemv(ctx *Context, y *Tensor, trans bool, alpha float64, a, x *Tensor, beta float64) error {
	const op = "gemv"
	if err := ctx.check(op); err != nil {
		return err
	}
	if err := sameDatatype(op, y, a, x); err != nil {
		return err
	}
	if !y.DType().IsFloat() {
		return &compute.PrecisionError{Op: op, Got: y.DType()}
	}
	if err := sameDevice(op, y, a, x); err != nil {
		return err
	}
	if err := noPartialOverlap(op, y, a, x); err != nil {
		return err
	}
	for _, v := range []*Tensor{x, y} {
		if !v.Dims().VectorIndexable() {
			return &compute.ShapeError{
				Op:     op,
				Reason: fmt.Sprintf("operand %s is not vector-indexable", v.Dims()),
				Axis:   -1,
			}
		}
	}

	a2 := a.Dims().As2D()
	opRows, opCols := opShape(a2, trans)
	if x.Ecount() != opCols {
		return &compute.ShapeError{
			Op:     op,
			Reason: "vector length mismatch with op(A) columns",
			Axis:   -1,
			Want:   []int{opCols},
			Got:    []int{x.Ecount()},
		}
	}
	if y.Ecount() != opRows {
		return &compute.ShapeError{
			Op:     op,
			Reason: "destination length mismatch with op(A) rows",
			Axis:   -1,
			Want:   []int{opRows},
			Got:    []int{y.Ecount()},
		}
	}

	return ctx.Queue().Gemv(trans, a2.Shape()[0], a2.Shape()[1], alpha,
		a.Buffer(), a.Dims().ColumnStride(),
		x.Buffer(), vectorIncrement(x.Dims()),
		beta, y.Buffer(), vectorIncrement(y.Dims()))
}

// opShape returns the transpose-adjusted row/column counts of a 2D view.
func opShape(d Dimensions, trans bool) (rows, cols int) {
	rows, cols = d.Shape()[0], d.Shape()[1]
	if trans {
		rows, cols = cols, rows
	}
	return rows, cols
}

// vectorIncrement derives the BLAS increment of a vector-indexable view:
// 1 when dense, otherwise the stride between consecutive elements.
func vectorIncrement(d Dimensions) int {
	if d.Dense() {
		return 1
	}
	if d.Rank() == 1 {
		return d.Strides()[0]
	}
	return d.ColumnStride()
}

func gemmShapeError(reason string, r1, c1, r2, c2 int) error {
	return &compute.ShapeError{
		Op:     "gemm",
		Reason: reason,
		Axis:   -1,
		Want:   []int{r1, c1},
		Got:    []int{r2, c2},
	}
}
