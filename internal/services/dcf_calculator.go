package services

import (
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quantfolio/valuation-engine/internal/config"
	"github.com/quantfolio/valuation-engine/internal/logging"
	"github.com/quantfolio/valuation-engine/internal/models"
	"github.com/quantfolio/valuation-engine/internal/utils"
)

// Monte-Carlo perturbation widths for the DCF assumption draws.
const (
	dcfGrowthStdDev      = 0.02
	dcfMarginStdDev      = 0.03
	dcfSpendStdDev       = 0.01 // depreciation and capex, magnitude-folded
	dcfWorkingCapStdDev  = 0.005
	dcfDiscountStdDev    = 0.04
	dcfTerminalStdDev    = 0.02
	dcfDiscountRateFloor = 0.05
	dcfTerminalGrowthCap = 0.05
)

// MonteCarloOptions bounds one Monte-Carlo batch. Zero values fall back to
// the configured defaults; a zero Seed draws a clock-based seed.
type MonteCarloOptions struct {
	Simulations int
	Seed        int64
}

// DCFCalculator projects free cash flow from revenue and margin
// assumptions, discounts it at a cost-of-capital rate, and converts the
// resulting enterprise value to a per-share intrinsic value. All methods
// are pure over their inputs: varying parameters are passed explicitly per
// call, never stored and restored on the calculator.
type DCFCalculator struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewDCFCalculator creates a DCF engine. A nil cfg uses the built-in
// defaults; a nil logger discards diagnostics.
func NewDCFCalculator(cfg *config.Config, logger *logrus.Logger) *DCFCalculator {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &DCFCalculator{cfg: cfg, logger: logger}
}

// CalculateDCF computes the point estimate for one set of assumptions.
//
// For each projection year: revenue compounds on the prior year, EBITDA is
// revenue times margin, NOPAT is after-tax EBIT, and free cash flow adds
// back depreciation net of capex and working capital change. The terminal
// value is a perpetuity on the final year's free cash flow.
func (c *DCFCalculator) CalculateDCF(
	snapshot models.FinancialSnapshot,
	assumptions models.ProjectionAssumptions,
	params models.CostOfCapitalParams,
) (*models.DCFResult, error) {
	if err := c.validate(snapshot, assumptions, params); err != nil {
		return nil, err
	}

	years := assumptions.Years()
	records := make([]models.DCFYearRecord, 0, years)

	revenue := snapshot.Revenue
	pvSum := 0.0
	lastFCF := 0.0

	for y := 1; y <= years; y++ {
		i := y - 1
		revenue *= 1 + assumptions.RevenueGrowth[i]
		ebitda := revenue * assumptions.EBITDAMargin[i]
		ebit := ebitda - assumptions.Depreciation[i]
		nopat := ebit * (1 - params.TaxRate)
		fcf := nopat + assumptions.Depreciation[i] - assumptions.Capex[i] - assumptions.WorkingCapitalChange[i]
		pv := fcf / math.Pow(1+params.DiscountRate, float64(y))

		records = append(records, models.DCFYearRecord{
			Year:         y,
			Revenue:      revenue,
			EBITDA:       ebitda,
			EBIT:         ebit,
			NOPAT:        nopat,
			FreeCashFlow: fcf,
			PresentValue: pv,
		})

		pvSum += pv
		lastFCF = fcf
	}

	terminalValue := lastFCF * (1 + params.TerminalGrowthRate) / (params.DiscountRate - params.TerminalGrowthRate)
	terminalPV := terminalValue / math.Pow(1+params.DiscountRate, float64(years))
	presentValue := pvSum + terminalPV

	result := &models.DCFResult{
		ProjectedCashFlows: records,
		TerminalValue:      terminalValue,
		TerminalPV:         terminalPV,
		PresentValue:       presentValue,
		EquityValue:        presentValue - snapshot.TotalDebt + snapshot.Cash,
	}

	if snapshot.SharesOutstanding > 0 {
		result.IntrinsicValue = presentValue / snapshot.SharesOutstanding
		result.HasIntrinsicValue = true
		if snapshot.CurrentPrice > 0 {
			result.Upside = (result.IntrinsicValue - snapshot.CurrentPrice) / snapshot.CurrentPrice
			result.HasUpside = true
		}
	}

	return result, nil
}

func (c *DCFCalculator) validate(
	snapshot models.FinancialSnapshot,
	assumptions models.ProjectionAssumptions,
	params models.CostOfCapitalParams,
) error {
	years := c.cfg.DCF.ProjectionYears
	if assumptions.Years() != years {
		return utils.NewInvalidAssumptionErrorf(
			"expected %d revenue growth entries, got %d", years, assumptions.Years())
	}
	if len(assumptions.EBITDAMargin) != years ||
		len(assumptions.Depreciation) != years ||
		len(assumptions.Capex) != years ||
		len(assumptions.WorkingCapitalChange) != years {
		return utils.NewInvalidAssumptionErrorf(
			"all assumption sequences must have %d entries", years)
	}
	if params.DiscountRate <= params.TerminalGrowthRate {
		return utils.NewInvalidAssumptionErrorf(
			"discount rate %.4f must exceed terminal growth rate %.4f",
			params.DiscountRate, params.TerminalGrowthRate)
	}
	if snapshot.SharesOutstanding < 0 {
		return utils.NewInvalidAssumptionErrorf(
			"shares outstanding must not be negative, got %.2f", snapshot.SharesOutstanding)
	}
	return nil
}

// SensitivityGrid re-runs the point estimate across the Cartesian product
// of discount rates and terminal growth rates. Enumeration is
// discountRate-major, terminalGrowthRate-minor, both ascending. A cell
// that fails to evaluate is logged and skipped; the grid never aborts.
func (c *DCFCalculator) SensitivityGrid(
	snapshot models.FinancialSnapshot,
	assumptions models.ProjectionAssumptions,
	params models.CostOfCapitalParams,
	discountRates, terminalGrowthRates []float64,
) *models.DCFSensitivityResult {
	if len(discountRates) == 0 {
		discountRates = c.cfg.DCF.DiscountRates
	}
	if len(terminalGrowthRates) == 0 {
		terminalGrowthRates = c.cfg.DCF.TerminalGrowthRates
	}
	discountRates = sortedCopy(discountRates)
	terminalGrowthRates = sortedCopy(terminalGrowthRates)

	result := &models.DCFSensitivityResult{
		RunID:               uuid.NewString(),
		DiscountRates:       discountRates,
		TerminalGrowthRates: terminalGrowthRates,
		Points:              make([]models.DCFSensitivityPoint, 0, len(discountRates)*len(terminalGrowthRates)),
	}
	log := logging.WithRun(c.logger, "dcf", result.RunID)

	for _, r := range discountRates {
		for _, g := range terminalGrowthRates {
			cellParams := params
			cellParams.DiscountRate = r
			cellParams.TerminalGrowthRate = g

			point, err := c.CalculateDCF(snapshot, assumptions, cellParams)
			if err != nil {
				result.SkippedCells++
				log.WithError(err).WithFields(logrus.Fields{
					"discount_rate":   r,
					"terminal_growth": g,
				}).Warn("sensitivity cell skipped")
				continue
			}

			result.Points = append(result.Points, models.DCFSensitivityPoint{
				DiscountRate:       r,
				TerminalGrowthRate: g,
				IntrinsicValue:     point.IntrinsicValue,
				Upside:             point.Upside,
			})
		}
	}

	log.WithFields(logrus.Fields{
		"cells":   len(result.Points),
		"skipped": result.SkippedCells,
	}).Info("dcf sensitivity grid complete")

	return result
}

// MonteCarlo draws the assumption set from independent per-year Normal
// distributions centered on the base values and reduces the induced
// intrinsic-value and upside distributions to summary statistics. Draws
// are evaluated across a worker pool bounded by the CPU count; failed
// draws are logged and skipped, and the reported Simulations count always
// reflects the successful draws only.
func (c *DCFCalculator) MonteCarlo(
	snapshot models.FinancialSnapshot,
	assumptions models.ProjectionAssumptions,
	params models.CostOfCapitalParams,
	opts MonteCarloOptions,
) *models.DCFMonteCarloResult {
	requested := opts.Simulations
	if requested <= 0 {
		requested = c.cfg.Simulation.DCFSimulations
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	type draw struct {
		ok    bool
		iv    float64
		hasIV bool
		up    float64
		hasUp bool
	}

	draws := make([]draw, requested)
	workers := poolSize(c.cfg.Simulation.Workers, requested)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		start := w * requested / workers
		end := (w + 1) * requested / workers
		if start == end {
			continue
		}

		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + int64(worker)))
			for i := start; i < end; i++ {
				perturbed, drawnParams := c.drawAssumptions(rng, assumptions, params)
				point, err := c.CalculateDCF(snapshot, perturbed, drawnParams)
				if err != nil {
					// Clamped rate draws should never produce an invalid
					// pair, but a failed draw only costs one sample.
					c.logger.WithError(err).WithField("draw", i).Debug("dcf monte carlo draw skipped")
					continue
				}
				draws[i] = draw{
					ok:    true,
					iv:    point.IntrinsicValue,
					hasIV: point.HasIntrinsicValue,
					up:    point.Upside,
					hasUp: point.HasUpside,
				}
			}
		}(w, start, end)
	}
	wg.Wait()

	result := &models.DCFMonteCarloResult{
		RunID:     uuid.NewString(),
		Requested: requested,
	}

	intrinsicValues := make([]float64, 0, requested)
	upsides := make([]float64, 0, requested)
	positive := 0

	for _, d := range draws {
		if !d.ok {
			continue
		}
		result.Simulations++
		if d.hasIV && d.iv > 0 && !math.IsNaN(d.iv) {
			intrinsicValues = append(intrinsicValues, d.iv)
		}
		if d.hasUp && !math.IsNaN(d.up) {
			upsides = append(upsides, d.up)
			if d.up > 0 {
				positive++
			}
		}
		if len(result.Samples) < c.cfg.Simulation.PreviewSamples {
			result.Samples = append(result.Samples, models.DCFSample{IntrinsicValue: d.iv, Upside: d.up})
		}
	}

	result.IntrinsicValue = summarize(filterValid(intrinsicValues))
	result.Upside = summarize(filterValid(upsides))
	if len(upsides) > 0 {
		result.ProbPositiveUpside = float64(positive) / float64(len(upsides))
	}

	logging.WithRun(c.logger, "dcf", result.RunID).WithFields(logrus.Fields{
		"requested":   requested,
		"simulations": result.Simulations,
		"skipped":     requested - result.Simulations,
	}).Info("dcf monte carlo complete")

	return result
}

// drawAssumptions perturbs every per-year assumption and both rates for a
// single Monte-Carlo draw. Depreciation and capex draws are folded to
// non-negative magnitude; the discount rate is floored at 5% and the
// terminal growth rate clamped to [0%, 5%].
func (c *DCFCalculator) drawAssumptions(
	rng *rand.Rand,
	base models.ProjectionAssumptions,
	params models.CostOfCapitalParams,
) (models.ProjectionAssumptions, models.CostOfCapitalParams) {
	years := base.Years()
	drawn := models.ProjectionAssumptions{
		RevenueGrowth:        make([]float64, years),
		EBITDAMargin:         make([]float64, years),
		Depreciation:         make([]float64, years),
		Capex:                make([]float64, years),
		WorkingCapitalChange: make([]float64, years),
	}
	for i := 0; i < years; i++ {
		drawn.RevenueGrowth[i] = normalSample(rng, base.RevenueGrowth[i], dcfGrowthStdDev)
		drawn.EBITDAMargin[i] = normalSample(rng, base.EBITDAMargin[i], dcfMarginStdDev)
		drawn.Depreciation[i] = math.Abs(normalSample(rng, base.Depreciation[i], dcfSpendStdDev))
		drawn.Capex[i] = math.Abs(normalSample(rng, base.Capex[i], dcfSpendStdDev))
		drawn.WorkingCapitalChange[i] = normalSample(rng, base.WorkingCapitalChange[i], dcfWorkingCapStdDev)
	}

	drawnParams := params
	drawnParams.DiscountRate = math.Max(
		normalSample(rng, params.DiscountRate, dcfDiscountStdDev), dcfDiscountRateFloor)
	drawnParams.TerminalGrowthRate = clamp(
		normalSample(rng, params.TerminalGrowthRate, dcfTerminalStdDev), 0, dcfTerminalGrowthCap)

	return drawn, drawnParams
}

// poolSize resolves the Monte-Carlo worker count: the configured value if
// set, else one worker per CPU core, never more workers than jobs.
func poolSize(configured, jobs int) int {
	workers := configured
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > jobs {
		workers = jobs
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// sortedCopy returns an ascending copy, leaving the caller's slice intact.
func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}
