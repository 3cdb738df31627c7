package services

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/valuation-engine/internal/config"
	"github.com/quantfolio/valuation-engine/internal/models"
	"github.com/quantfolio/valuation-engine/internal/utils"
)

// flatAssumptions builds the pinned regression scenario: 5% growth, 20%
// EBITDA margin, depreciation 3% and capex 4% of projected revenue, no
// working capital change.
func flatAssumptions(baseRevenue float64, years int) models.ProjectionAssumptions {
	a := models.ProjectionAssumptions{
		RevenueGrowth:        make([]float64, years),
		EBITDAMargin:         make([]float64, years),
		Depreciation:         make([]float64, years),
		Capex:                make([]float64, years),
		WorkingCapitalChange: make([]float64, years),
	}
	revenue := baseRevenue
	for i := 0; i < years; i++ {
		revenue *= 1.05
		a.RevenueGrowth[i] = 0.05
		a.EBITDAMargin[i] = 0.20
		a.Depreciation[i] = 0.03 * revenue
		a.Capex[i] = 0.04 * revenue
	}
	return a
}

func testSnapshot() models.FinancialSnapshot {
	return models.FinancialSnapshot{
		Revenue:           1000,
		SharesOutstanding: 100,
		CurrentPrice:      150,
	}
}

func testParams() models.CostOfCapitalParams {
	return models.CostOfCapitalParams{
		DiscountRate:       0.10,
		TerminalGrowthRate: 0.025,
		TaxRate:            0.25,
	}
}

func TestCalculateDCFRegressionScenario(t *testing.T) {
	calc := NewDCFCalculator(nil, nil)

	result, err := calc.CalculateDCF(testSnapshot(), flatAssumptions(1000, 5), testParams())
	require.NoError(t, err)

	require.Len(t, result.ProjectedCashFlows, 5)
	assert.InDelta(t, 1050, result.ProjectedCashFlows[0].Revenue, 1e-9)
	assert.InDelta(t, 1276.2815625, result.ProjectedCashFlows[4].Revenue, 1e-6)

	// Hand-computed reference values for this scenario
	require.True(t, result.HasIntrinsicValue)
	require.True(t, result.HasUpside)
	assert.InDelta(t, 17.846546406495, result.IntrinsicValue, 1e-6)
	assert.InDelta(t, -0.881023023957, result.Upside, 1e-9)
}

func TestCalculateDCFTerminalValueFormula(t *testing.T) {
	cfg := config.Default()
	cfg.DCF.ProjectionYears = 1
	calc := NewDCFCalculator(cfg, nil)

	// One projected year engineered to land free cash flow at exactly 100
	assumptions := models.ProjectionAssumptions{
		RevenueGrowth:        []float64{0},
		EBITDAMargin:         []float64{0.20},
		Depreciation:         []float64{100},
		Capex:                []float64{100},
		WorkingCapitalChange: []float64{0},
	}
	snapshot := models.FinancialSnapshot{Revenue: 1000, SharesOutstanding: 10}
	params := models.CostOfCapitalParams{DiscountRate: 0.10, TerminalGrowthRate: 0.025}

	result, err := calc.CalculateDCF(snapshot, assumptions, params)
	require.NoError(t, err)

	require.InDelta(t, 100, result.ProjectedCashFlows[0].FreeCashFlow, 1e-9)
	assert.InDelta(t, 1366.67, result.TerminalValue, 0.01)
}

func TestCalculateDCFDeterminism(t *testing.T) {
	calc := NewDCFCalculator(nil, nil)

	first, err := calc.CalculateDCF(testSnapshot(), flatAssumptions(1000, 5), testParams())
	require.NoError(t, err)
	second, err := calc.CalculateDCF(testSnapshot(), flatAssumptions(1000, 5), testParams())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculateDCFRejectsInvertedRates(t *testing.T) {
	calc := NewDCFCalculator(nil, nil)

	params := models.CostOfCapitalParams{DiscountRate: 0.02, TerminalGrowthRate: 0.03}
	_, err := calc.CalculateDCF(testSnapshot(), flatAssumptions(1000, 5), params)
	require.Error(t, err)

	var target *utils.InvalidAssumptionError
	assert.True(t, errors.As(err, &target))
}

func TestCalculateDCFRejectsMismatchedLengths(t *testing.T) {
	calc := NewDCFCalculator(nil, nil)

	assumptions := flatAssumptions(1000, 5)
	assumptions.Capex = assumptions.Capex[:3]

	_, err := calc.CalculateDCF(testSnapshot(), assumptions, testParams())
	require.Error(t, err)

	var target *utils.InvalidAssumptionError
	assert.True(t, errors.As(err, &target))
}

func TestCalculateDCFRejectsNegativeShares(t *testing.T) {
	calc := NewDCFCalculator(nil, nil)

	snapshot := testSnapshot()
	snapshot.SharesOutstanding = -1

	_, err := calc.CalculateDCF(snapshot, flatAssumptions(1000, 5), testParams())
	assert.Error(t, err)
}

func TestCalculateDCFGuardsZeroDenominators(t *testing.T) {
	calc := NewDCFCalculator(nil, nil)

	snapshot := testSnapshot()
	snapshot.SharesOutstanding = 0

	result, err := calc.CalculateDCF(snapshot, flatAssumptions(1000, 5), testParams())
	require.NoError(t, err)
	assert.False(t, result.HasIntrinsicValue)
	assert.False(t, result.HasUpside)

	snapshot = testSnapshot()
	snapshot.CurrentPrice = 0

	result, err = calc.CalculateDCF(snapshot, flatAssumptions(1000, 5), testParams())
	require.NoError(t, err)
	assert.True(t, result.HasIntrinsicValue)
	assert.False(t, result.HasUpside)
}

func TestCalculateDCFEquityValue(t *testing.T) {
	calc := NewDCFCalculator(nil, nil)

	snapshot := testSnapshot()
	snapshot.TotalDebt = 200
	snapshot.Cash = 50

	result, err := calc.CalculateDCF(snapshot, flatAssumptions(1000, 5), testParams())
	require.NoError(t, err)
	assert.InDelta(t, result.PresentValue-150, result.EquityValue, 1e-9)
}

func TestDCFSensitivityGridCompleteness(t *testing.T) {
	calc := NewDCFCalculator(nil, nil)

	grid := calc.SensitivityGrid(testSnapshot(), flatAssumptions(1000, 5), testParams(), nil, nil)

	// 5 discount rates x 5 terminal growth rates, all valid pairs
	require.Len(t, grid.Points, 25)
	assert.Zero(t, grid.SkippedCells)
	assert.NotEmpty(t, grid.RunID)

	// discountRate-major, terminalGrowthRate-minor, both ascending
	assert.Equal(t, 0.08, grid.Points[0].DiscountRate)
	assert.Equal(t, 0.015, grid.Points[0].TerminalGrowthRate)
	assert.Equal(t, 0.08, grid.Points[4].DiscountRate)
	assert.Equal(t, 0.035, grid.Points[4].TerminalGrowthRate)
	assert.Equal(t, 0.12, grid.Points[24].DiscountRate)
	assert.Equal(t, 0.035, grid.Points[24].TerminalGrowthRate)

	for i := 1; i < len(grid.Points); i++ {
		prev, cur := grid.Points[i-1], grid.Points[i]
		require.True(t, cur.DiscountRate > prev.DiscountRate ||
			(cur.DiscountRate == prev.DiscountRate && cur.TerminalGrowthRate > prev.TerminalGrowthRate))
	}
}

func TestDCFSensitivityGridSkipsInvalidCells(t *testing.T) {
	calc := NewDCFCalculator(nil, nil)

	grid := calc.SensitivityGrid(testSnapshot(), flatAssumptions(1000, 5), testParams(),
		[]float64{0.02, 0.10}, []float64{0.03})

	// The 2%/3% pair is invalid and must be skipped, not abort the grid
	require.Len(t, grid.Points, 1)
	assert.Equal(t, 1, grid.SkippedCells)
	assert.Equal(t, 0.10, grid.Points[0].DiscountRate)
}

func TestDCFMonteCarloSampleCounts(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Workers = 1
	calc := NewDCFCalculator(cfg, nil)

	result := calc.MonteCarlo(testSnapshot(), flatAssumptions(1000, 5), testParams(),
		MonteCarloOptions{Simulations: 1000, Seed: 7})

	assert.Equal(t, 1000, result.Requested)
	assert.LessOrEqual(t, result.Simulations, 1000)
	assert.Positive(t, result.Simulations)

	// Reductions cover only the successful, filtered samples
	assert.LessOrEqual(t, result.IntrinsicValue.Count, result.Simulations)
	assert.LessOrEqual(t, result.Upside.Count, result.Simulations)
	assert.GreaterOrEqual(t, result.ProbPositiveUpside, 0.0)
	assert.LessOrEqual(t, result.ProbPositiveUpside, 1.0)
	assert.LessOrEqual(t, len(result.Samples), cfg.Simulation.PreviewSamples)
	assert.NotEmpty(t, result.RunID)
}

func TestDCFMonteCarloSeededDeterminism(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Workers = 1
	calc := NewDCFCalculator(cfg, nil)

	opts := MonteCarloOptions{Simulations: 500, Seed: 99}
	first := calc.MonteCarlo(testSnapshot(), flatAssumptions(1000, 5), testParams(), opts)
	second := calc.MonteCarlo(testSnapshot(), flatAssumptions(1000, 5), testParams(), opts)

	assert.Equal(t, first.Simulations, second.Simulations)
	assert.InDelta(t, first.IntrinsicValue.Mean, second.IntrinsicValue.Mean, 1e-12)
	assert.InDelta(t, first.Upside.StdDev, second.Upside.StdDev, 1e-12)
}

func TestDCFMonteCarloSummariesAreFinite(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Workers = 2
	calc := NewDCFCalculator(cfg, nil)

	result := calc.MonteCarlo(testSnapshot(), flatAssumptions(1000, 5), testParams(),
		MonteCarloOptions{Simulations: 2000, Seed: 3})

	for _, v := range []float64{
		result.IntrinsicValue.Mean, result.IntrinsicValue.Median, result.IntrinsicValue.StdDev,
		result.IntrinsicValue.P10, result.IntrinsicValue.P90,
		result.Upside.Mean, result.Upside.Median, result.Upside.StdDev,
	} {
		assert.False(t, math.IsNaN(v))
		assert.False(t, math.IsInf(v, 0))
	}
}
