// Package problem holds the in-memory quadratic program and the loader that
// reads it from disk.
//
// A problem is
//
//	minimize    ½ xᵀPx + qᵀx
//	subject to  Gx <= h
//	            Ax  = b
//	            lb <= x <= ub
//
// Matrices are gonum dense matrices and vectors are plain float64 slices. An
// absent block is nil: a problem without equality constraints has A == nil
// and b == nil, never a zero-row matrix.
package problem

import (
	"gonum.org/v1/gonum/mat"
)

// Metadata describes where a problem comes from.
type Metadata struct {
	Name           string
	Classification string
	Provenance     string
}

// Problem is a convex quadratic program.
type Problem struct {
	Metadata

	P *mat.Dense
	Q []float64

	A *mat.Dense
	B []float64

	G *mat.Dense
	H []float64

	LB []float64
	UB []float64
}

// N returns the number of optimization variables. P declares it; q is the
// fallback when P is absent.
func (p *Problem) N() int {
	if p.P != nil {
		return rows(p.P)
	}
	return len(p.Q)
}

// Dims returns the number of variables, equality rows and inequality rows.
func (p *Problem) Dims() (n, meq, mineq int) {
	return p.N(), rows(p.A), rows(p.G)
}

// HasBounds reports whether either box bound is present.
func (p *Problem) HasBounds() bool {
	return p.LB != nil || p.UB != nil
}

// SymmetricP returns ½(P + Pᵀ). It returns nil if P is absent or not square.
func (p *Problem) SymmetricP() *mat.SymDense {
	if p.P == nil {
		return nil
	}
	r, c := p.P.Dims()
	if r != c {
		return nil
	}
	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			s.SetSym(i, j, 0.5*(p.P.At(i, j)+p.P.At(j, i)))
		}
	}
	return s
}

func rows(m *mat.Dense) int {
	if m == nil {
		return 0
	}
	r, _ := m.Dims()
	return r
}

func cols(m *mat.Dense) int {
	if m == nil {
		return 0
	}
	_, c := m.Dims()
	return c
}

// ApproxEqual reports whether a and b have the same metadata, the same block
// layout and entries equal within tol.
func ApproxEqual(a, b *Problem, tol float64) bool {
	if a.Metadata != b.Metadata {
		return false
	}
	return matEqual(a.P, b.P, tol) &&
		vecEqual(a.Q, b.Q, tol) &&
		matEqual(a.A, b.A, tol) &&
		vecEqual(a.B, b.B, tol) &&
		matEqual(a.G, b.G, tol) &&
		vecEqual(a.H, b.H, tol) &&
		vecEqual(a.LB, b.LB, tol) &&
		vecEqual(a.UB, b.UB, tol)
}

func matEqual(a, b *mat.Dense, tol float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	return mat.EqualApprox(a, b, tol)
}

func vecEqual(a, b []float64, tol float64) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == b[i] {
			// Covers matching infinities.
			continue
		}
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > tol {
			return false
		}
	}
	return true
}
