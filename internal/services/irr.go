package services

import (
	"math"

	"github.com/quantfolio/valuation-engine/internal/utils"
)

const (
	// irrInitialGuess is the starting rate for the Newton-Raphson solve.
	irrInitialGuess = 0.15
	// irrTolerance is the |NPV| threshold below which the solve converged.
	irrTolerance = 1e-6
	// irrDerivativeFloor guards against a flat slope step.
	irrDerivativeFloor = 1e-6
	// irrMaxIterations caps the solve.
	irrMaxIterations = 1000
)

// NetPresentValue computes NPV(rate) = sum CF_i / (1+rate)^i with CF_0
// undiscounted.
func NetPresentValue(rate float64, cashFlows []float64) float64 {
	npv := 0.0
	for i, cf := range cashFlows {
		npv += cf / math.Pow(1+rate, float64(i))
	}
	return npv
}

// npvDerivative computes d/dRate NPV(rate) = sum -i * CF_i / (1+rate)^(i+1).
func npvDerivative(rate float64, cashFlows []float64) float64 {
	d := 0.0
	for i, cf := range cashFlows {
		d -= float64(i) * cf / math.Pow(1+rate, float64(i+1))
	}
	return d
}

// InternalRateOfReturn solves NPV(rate) = 0 by Newton-Raphson starting from
// a 15% guess. The rate is not bounded or clamped between iterations: a
// pathological sign pattern (for example, no sign change in the cash flows)
// surfaces as a NonConvergenceError rather than looping silently.
func InternalRateOfReturn(cashFlows []float64) (float64, error) {
	if len(cashFlows) < 2 {
		return 0, utils.NewInvalidAssumptionErrorf("irr requires at least 2 cash flows, got %d", len(cashFlows))
	}

	rate := irrInitialGuess
	for i := 0; i < irrMaxIterations; i++ {
		npv := NetPresentValue(rate, cashFlows)
		if math.Abs(npv) < irrTolerance {
			return rate, nil
		}

		derivative := npvDerivative(rate, cashFlows)
		if math.Abs(derivative) < irrDerivativeFloor {
			return 0, utils.NewNonConvergenceError("irr solve hit near-zero derivative", i, rate)
		}

		rate -= npv / derivative
	}

	return 0, utils.NewNonConvergenceError("irr solve exceeded iteration cap", irrMaxIterations, rate)
}
