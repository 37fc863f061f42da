package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassification(t *testing.T) {
	c, err := ParseClassification("QLR2-AN-4-2")
	require.NoError(t, err)
	assert.Equal(t, Classification{
		Objective:   'Q',
		Constraints: 'L',
		Smoothness:  'R',
		Degree:      2,
		Origin:      'A',
		Variables:   4,
		Rows:        2,
	}, c)
	assert.True(t, c.IsQP())
	assert.Equal(t, "QLR2-AN-4-2", c.String())
	assert.Equal(t,
		"quadratic objective, linear constraints, regular, academic, 4 variables, 2 constraints",
		c.Describe())
}

func TestParseClassification_VariableSizes(t *testing.T) {
	c, err := ParseClassification("QBR2-MY-V-V")
	require.NoError(t, err)
	assert.Equal(t, Variable, c.Variables)
	assert.Equal(t, Variable, c.Rows)
	assert.True(t, c.Internal)
	assert.Equal(t, "QBR2-MY-V-V", c.String())
	assert.Contains(t, c.Describe(), "variable number of variables")
}

func TestParseClassification_NotQP(t *testing.T) {
	c, err := ParseClassification("SQR2-RN-10-5")
	require.NoError(t, err)
	assert.False(t, c.IsQP())

	c, err = ParseClassification("QQR2-AN-3-1")
	require.NoError(t, err)
	assert.False(t, c.IsQP(), "quadratic constraints")
}

func TestParseClassification_Invalid(t *testing.T) {
	for _, code := range []string{
		"",
		"QLR2-AN-4",
		"QLR-AN-4-2",
		"ZLR2-AN-4-2",
		"QZR2-AN-4-2",
		"QLZ2-AN-4-2",
		"QLR3-AN-4-2",
		"QLR2-ZN-4-2",
		"QLR2-AZ-4-2",
		"QLR2-AN-x-2",
		"QLR2-AN-4--1",
	} {
		_, err := ParseClassification(code)
		assert.Error(t, err, "code %q", code)
	}
}
