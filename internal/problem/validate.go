package problem

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Tolerance bounds the asymmetry accepted in P. Two mirrored entries x, y
// are considered equal when |x - y| <= Abs + Rel*max(|x|, |y|).
type Tolerance struct {
	Abs float64 `yaml:"abs"`
	Rel float64 `yaml:"rel"`
}

// DefaultTolerance is used when no tolerance is configured.
func DefaultTolerance() Tolerance {
	return Tolerance{Abs: 1e-10}
}

// Close reports whether x and y are equal within t.
func (t Tolerance) Close(x, y float64) bool {
	d := math.Abs(x - y)
	return d <= t.Abs+t.Rel*math.Max(math.Abs(x), math.Abs(y))
}

// Validate checks p with the default tolerance.
func Validate(p *Problem) error {
	return ValidateWithTolerance(p, DefaultTolerance())
}

// ValidateWithTolerance checks every structural and numerical invariant of p
// and returns an *InvalidProblemError listing all violations, or nil.
func ValidateWithTolerance(p *Problem, tol Tolerance) error {
	vs := checkDims(p)
	vs = append(vs, checkValues(p, tol)...)
	if len(vs) == 0 {
		return nil
	}
	return &InvalidProblemError{Name: p.Name, Violations: vs}
}

// checkDims verifies that every block agrees with n = rows(P).
func checkDims(p *Problem) []Violation {
	var vs []Violation
	add := func(block, format string, args ...any) {
		vs = append(vs, Violation{Block: block, Message: fmt.Sprintf(format, args...)})
	}

	n := p.N()
	if p.P == nil {
		add("P", "objective matrix is missing")
	} else if r, c := p.P.Dims(); r != c {
		add("P", "is %dx%d, expected a square matrix", r, c)
	}
	if p.Q == nil {
		add("q", "objective vector is missing")
	} else if p.P != nil && len(p.Q) != n {
		add("q", "has length %d, expected %d (order of P)", len(p.Q), n)
	}

	checkBlock := func(mname, vname string, m *mat.Dense, v []float64) {
		if m != nil {
			if c := cols(m); c != n {
				add(mname, "has %d columns, expected %d (order of P)", c, n)
			}
		}
		if r := rows(m); len(v) != r {
			add(vname, "has length %d, expected %d (rows of %s)", len(v), r, mname)
		}
	}
	checkBlock("A", "b", p.A, p.B)
	checkBlock("G", "h", p.G, p.H)

	if p.LB != nil && len(p.LB) != n {
		add("lb", "has length %d, expected %d", len(p.LB), n)
	}
	if p.UB != nil && len(p.UB) != n {
		add("ub", "has length %d, expected %d", len(p.UB), n)
	}
	return vs
}

// checkValues looks for NaN and infinite entries, an asymmetric P and
// crossed box bounds.
func checkValues(p *Problem, tol Tolerance) []Violation {
	var vs []Violation
	add := func(block, format string, args ...any) {
		vs = append(vs, Violation{Block: block, Message: fmt.Sprintf(format, args...)})
	}

	for _, b := range []struct {
		name string
		m    *mat.Dense
	}{{"P", p.P}, {"A", p.A}, {"G", p.G}} {
		if i, j, ok := firstNonFinite(b.m); ok {
			add(b.name, "entry (%d,%d) is not finite: %v", i, j, b.m.At(i, j))
		}
	}
	for _, b := range []struct {
		name      string
		v         []float64
		allowsInf bool
	}{
		{"q", p.Q, false},
		{"b", p.B, false},
		{"h", p.H, true},
		{"lb", p.LB, true},
		{"ub", p.UB, true},
	} {
		for i, x := range b.v {
			if math.IsNaN(x) || (!b.allowsInf && math.IsInf(x, 0)) {
				add(b.name, "entry %d is not finite: %v", i, x)
				break
			}
		}
	}

	if p.P != nil {
		if r, c := p.P.Dims(); r == c {
			if i, j, count := asymmetry(p.P, tol); count > 0 {
				add("P", "is not symmetric: %d mirrored pair(s) differ, first at (%d,%d): %g vs %g",
					count, i, j, p.P.At(i, j), p.P.At(j, i))
			}
		}
	}

	if len(p.LB) == len(p.UB) {
		crossed, first := 0, -1
		for i := range p.LB {
			if p.LB[i] > p.UB[i] {
				if first < 0 {
					first = i
				}
				crossed++
			}
		}
		if crossed > 0 {
			add("lb", "exceeds ub at %d index(es), first at %d: %g > %g",
				crossed, first, p.LB[first], p.UB[first])
		}
	}
	return vs
}

func firstNonFinite(m *mat.Dense) (int, int, bool) {
	if m == nil {
		return 0, 0, false
	}
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			x := m.At(i, j)
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// asymmetry returns the first mirrored pair outside tol and the number of
// such pairs.
func asymmetry(m *mat.Dense, tol Tolerance) (fi, fj, count int) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !tol.Close(m.At(i, j), m.At(j, i)) {
				if count == 0 {
					fi, fj = i, j
				}
				count++
			}
		}
	}
	return fi, fj, count
}
