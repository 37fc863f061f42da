package problem

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// equalBoundsTol is the gap below which l and u describe an equality.
const equalBoundsTol = 1e-10

// DoubleSided is a problem written with two-sided linear constraints:
//
//	minimize    ½ xᵀPx + qᵀx
//	subject to  l <= Cx <= u
//	            lb <= x <= ub
type DoubleSided struct {
	Metadata

	P *mat.Dense
	Q []float64

	C *mat.Dense
	L []float64
	U []float64

	LB []float64
	UB []float64
}

// Convert rewrites d in the Ax = b, Gx <= h form. Rows whose bounds
// coincide become equalities; the others become the pair Cx <= u, -Cx <= -l,
// and rows with an infinite right-hand side are dropped.
func (d *DoubleSided) Convert() (*Problem, error) {
	m := rows(d.C)
	if len(d.L) != m || len(d.U) != m {
		return nil, fmt.Errorf("double-sided bounds have lengths l=%d u=%d, expected %d (rows of C)",
			len(d.L), len(d.U), m)
	}

	var eq, ineq []int
	for i := 0; i < m; i++ {
		if d.U[i]-d.L[i] < equalBoundsTol {
			eq = append(eq, i)
		} else {
			ineq = append(ineq, i)
		}
	}

	p := &Problem{
		Metadata: d.Metadata,
		P:        d.P,
		Q:        d.Q,
		LB:       d.LB,
		UB:       d.UB,
	}

	if len(eq) > 0 {
		p.A = selectRows(d.C, eq)
		p.B = make([]float64, len(eq))
		for k, i := range eq {
			p.B[k] = d.U[i]
		}
	}

	type row struct {
		src   int
		sign  float64
		bound float64
	}
	var keep []row
	for _, i := range ineq {
		if h := d.U[i]; h < math.Inf(1) {
			keep = append(keep, row{src: i, sign: 1, bound: h})
		}
	}
	for _, i := range ineq {
		if h := -d.L[i]; h < math.Inf(1) {
			keep = append(keep, row{src: i, sign: -1, bound: h})
		}
	}
	if len(keep) > 0 {
		n := cols(d.C)
		p.G = mat.NewDense(len(keep), n, nil)
		p.H = make([]float64, len(keep))
		for k, r := range keep {
			for j := 0; j < n; j++ {
				p.G.Set(k, j, r.sign*d.C.At(r.src, j))
			}
			p.H[k] = r.bound
		}
	}
	return p, nil
}

func selectRows(m *mat.Dense, idx []int) *mat.Dense {
	_, n := m.Dims()
	out := mat.NewDense(len(idx), n, nil)
	for k, i := range idx {
		for j := 0; j < n; j++ {
			out.Set(k, j, m.At(i, j))
		}
	}
	return out
}
