package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Variable marks a variable or constraint count that depends on a
// parameter, written V in a classification code.
const Variable = -1

// Classification is a parsed CUTEr classification code XXXr-XX-n-m, e.g.
// QLR2-AN-4-2.
type Classification struct {
	Objective   byte // N, C, L, Q, S or O
	Constraints byte // U, X, B, N, L, Q or O
	Smoothness  byte // R or I
	Degree      int  // highest analytic derivative available: 0, 1 or 2
	Origin      byte // A, M or R
	Internal    bool // explicit internal variables
	Variables   int  // number of variables, or Variable
	Rows        int  // number of general constraints, or Variable
}

var (
	objectiveTypes = map[byte]string{
		'N': "none", 'C': "constant", 'L': "linear",
		'Q': "quadratic", 'S': "sum of squares", 'O': "other",
	}
	constraintTypes = map[byte]string{
		'U': "unconstrained", 'X': "fixed variables", 'B': "bounds",
		'N': "network", 'L': "linear", 'Q': "quadratic", 'O': "other",
	}
	smoothness = map[byte]string{'R': "regular", 'I': "irregular"}
	origins    = map[byte]string{'A': "academic", 'M': "modelling", 'R': "real application"}
)

// ParseClassification parses a CUTEr classification code.
func ParseClassification(code string) (Classification, error) {
	var c Classification
	bad := func(format string, args ...any) error {
		return fmt.Errorf("invalid classification %q: %s", code, fmt.Sprintf(format, args...))
	}

	parts := strings.Split(strings.TrimSpace(code), "-")
	if len(parts) != 4 {
		return c, bad("expected 4 dash-separated fields, got %d", len(parts))
	}
	head, kind, n, m := parts[0], parts[1], parts[2], parts[3]

	if len(head) != 4 {
		return c, bad("first field must have 4 characters")
	}
	c.Objective, c.Constraints, c.Smoothness = head[0], head[1], head[2]
	if _, ok := objectiveTypes[c.Objective]; !ok {
		return c, bad("unknown objective type %q", c.Objective)
	}
	if _, ok := constraintTypes[c.Constraints]; !ok {
		return c, bad("unknown constraint type %q", c.Constraints)
	}
	if _, ok := smoothness[c.Smoothness]; !ok {
		return c, bad("unknown smoothness %q", c.Smoothness)
	}
	if head[3] < '0' || head[3] > '2' {
		return c, bad("derivative degree must be 0, 1 or 2")
	}
	c.Degree = int(head[3] - '0')

	if len(kind) != 2 {
		return c, bad("second field must have 2 characters")
	}
	c.Origin = kind[0]
	if _, ok := origins[c.Origin]; !ok {
		return c, bad("unknown origin %q", c.Origin)
	}
	switch kind[1] {
	case 'Y':
		c.Internal = true
	case 'N':
	default:
		return c, bad("internal variables must be Y or N")
	}

	var err error
	if c.Variables, err = parseCount(n); err != nil {
		return c, bad("variables: %v", err)
	}
	if c.Rows, err = parseCount(m); err != nil {
		return c, bad("constraints: %v", err)
	}
	return c, nil
}

func parseCount(s string) (int, error) {
	if s == "V" {
		return Variable, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%q is neither a count nor V", s)
	}
	return v, nil
}

// String formats c back into its code.
func (c Classification) String() string {
	internal := 'N'
	if c.Internal {
		internal = 'Y'
	}
	return fmt.Sprintf("%c%c%c%d-%c%c-%s-%s",
		c.Objective, c.Constraints, c.Smoothness, c.Degree,
		c.Origin, internal, formatCount(c.Variables), formatCount(c.Rows))
}

func formatCount(v int) string {
	if v == Variable {
		return "V"
	}
	return strconv.Itoa(v)
}

// Describe renders c for humans, e.g. "quadratic objective, linear
// constraints, regular, academic, 4 variables, 2 constraints".
func (c Classification) Describe() string {
	count := func(v int, unit string) string {
		if v == Variable {
			return "variable number of " + unit
		}
		return fmt.Sprintf("%d %s", v, unit)
	}
	return strings.Join([]string{
		objectiveTypes[c.Objective] + " objective",
		constraintTypes[c.Constraints] + " constraints",
		smoothness[c.Smoothness],
		origins[c.Origin],
		count(c.Variables, "variables"),
		count(c.Rows, "constraints"),
	}, ", ")
}

// IsQP reports whether the code describes a quadratic objective under at
// most linear constraints.
func (c Classification) IsQP() bool {
	if c.Objective != 'Q' {
		return false
	}
	switch c.Constraints {
	case 'U', 'X', 'B', 'N', 'L':
		return true
	}
	return false
}
