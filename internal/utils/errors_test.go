package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidAssumptionError(t *testing.T) {
	err := NewInvalidAssumptionError("discount rate must exceed terminal growth rate")
	assert.EqualError(t, err, "discount rate must exceed terminal growth rate")

	var target *InvalidAssumptionError
	assert.True(t, errors.As(err, &target))
}

func TestInvalidAssumptionErrorf(t *testing.T) {
	err := NewInvalidAssumptionErrorf("expected %d growth entries, got %d", 5, 3)
	assert.EqualError(t, err, "expected 5 growth entries, got 3")
}

func TestNonConvergenceError(t *testing.T) {
	err := NewNonConvergenceError("irr solve did not converge", 1000, 0.153)
	assert.Contains(t, err.Error(), "iterations=1000")

	var target *NonConvergenceError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, 1000, target.Iterations)
}

func TestLBOCalculationErrorUnwrap(t *testing.T) {
	cause := NewNonConvergenceError("flat derivative", 12, 0.15)
	err := NewLBOCalculationError("irr solve failed", cause)

	assert.Contains(t, err.Error(), "irr solve failed")

	var target *NonConvergenceError
	assert.True(t, errors.As(err, &target))
}

func TestLBOCalculationErrorNoCause(t *testing.T) {
	err := NewLBOCalculationError("ebitda is zero in year 2", nil)
	assert.EqualError(t, err, "ebitda is zero in year 2")
	assert.NoError(t, errors.Unwrap(err))
}
