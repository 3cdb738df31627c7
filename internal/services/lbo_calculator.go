package services

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/quantfolio/valuation-engine/internal/config"
	"github.com/quantfolio/valuation-engine/internal/logging"
	"github.com/quantfolio/valuation-engine/internal/models"
	"github.com/quantfolio/valuation-engine/internal/utils"
)

// LBOCalculator builds a sources-and-uses capital structure, projects the
// hold period with debt amortization, and derives sponsor returns plus
// leverage and coverage credit metrics. Like the DCF engine, every method
// is pure over its inputs; varying parameters are passed per call.
type LBOCalculator struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewLBOCalculator creates an LBO engine. A nil cfg uses the built-in
// defaults; a nil logger discards diagnostics.
func NewLBOCalculator(cfg *config.Config, logger *logrus.Logger) *LBOCalculator {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LBOCalculator{cfg: cfg, logger: logger}
}

// CalculateLBO computes the point estimate for one deal.
//
// Two behaviors are preserved from the reference model on purpose and must
// not be "fixed" silently:
//   - revenue compounds as baseline * (1+growth[y-1])^y, anchored on the
//     unchanged baseline rather than chained year over year;
//   - the weighted interest rate omits the revolver tranche from the
//     weighting while still dividing by total debt including the revolver.
func (c *LBOCalculator) CalculateLBO(
	deal models.DealStructure,
	assumptions models.LBOAssumptions,
) (*models.LBOResult, error) {
	if err := c.validate(deal, assumptions); err != nil {
		return nil, err
	}

	totalDebt := deal.TotalDebt()
	equityContribution := deal.EnterpriseValue - totalDebt + deal.Fees
	if equityContribution <= 0 {
		return nil, utils.NewLBOCalculationError("equity contribution is not positive", nil)
	}

	baseline := assumptions.BaseRevenue
	if baseline == 0 {
		// Derived baseline: EBITDA at entry over the year-0 margin.
		baseline = deal.EBITDA / assumptions.EBITDAMargin[0]
	}

	weightedRate := c.weightedInterestRate(deal, assumptions.Rates, totalDebt)

	hold := assumptions.HoldPeriod
	projections := make([]models.LBOYearProjection, 0, hold+1)
	currentDebt := totalDebt
	maxLeverage := 0.0
	totalCashDistributed := 0.0
	cashFlows := make([]float64, 0, hold+1)
	cashFlows = append(cashFlows, -equityContribution)

	for y := 0; y <= hold; y++ {
		idx := y - 1
		if y == 0 {
			idx = 0
		}

		revenue := baseline
		if y > 0 {
			revenue = baseline * math.Pow(1+assumptions.RevenueGrowth[y-1], float64(y))
		}

		ebitda := revenue * assumptions.EBITDAMargin[idx]
		if ebitda == 0 {
			return nil, utils.NewLBOCalculationErrorf("ebitda is zero in year %d", y)
		}

		capex := revenue * assumptions.CapexPercent[idx]
		depreciation := capex // depreciation is not modeled independently
		ebit := ebitda - depreciation
		interest := currentDebt * weightedRate
		ebt := ebit - interest
		taxes := math.Max(0, ebt*assumptions.TaxRate)
		netIncome := ebt - taxes
		fcf := netIncome + depreciation - capex - assumptions.WorkingCapitalChange[idx]

		paydown := math.Max(0, fcf*c.cfg.LBO.DebtPaydownRate)
		cashToSponsor := fcf - paydown
		currentDebt = math.Max(0, currentDebt-paydown)

		metrics := models.CreditMetrics{
			DebtToEBITDA: currentDebt / ebitda,
		}
		if interest != 0 {
			metrics.EBITDAToInterest = ebitda / interest
			metrics.HasInterestCover = true
		}
		if currentDebt > 0 {
			metrics.FCFToDebt = fcf / currentDebt
			metrics.HasFCFToDebt = true
		}
		if metrics.DebtToEBITDA > maxLeverage {
			maxLeverage = metrics.DebtToEBITDA
		}

		projections = append(projections, models.LBOYearProjection{
			Year:          y,
			Revenue:       revenue,
			EBITDA:        ebitda,
			EBIT:          ebit,
			Interest:      interest,
			NetIncome:     netIncome,
			FreeCashFlow:  fcf,
			DebtBalance:   currentDebt,
			DebtPaydown:   paydown,
			CashToSponsor: cashToSponsor,
			CreditMetrics: metrics,
		})

		if y > 0 {
			totalCashDistributed += cashToSponsor
			cashFlows = append(cashFlows, cashToSponsor)
		}
	}

	exitEbitda := projections[hold].EBITDA
	exitEnterpriseValue := exitEbitda * deal.ExitMultiple
	exitEquityValue := exitEnterpriseValue - currentDebt
	cashFlows[len(cashFlows)-1] += exitEquityValue

	irr, err := InternalRateOfReturn(cashFlows)
	if err != nil {
		return nil, utils.NewLBOCalculationError("irr solve failed", err)
	}

	totalCashReturned := totalCashDistributed + exitEquityValue
	returns := models.LBOReturns{
		IRR:                  irr,
		TotalMultiple:        totalCashReturned / equityContribution,
		ExitEnterpriseValue:  exitEnterpriseValue,
		ExitEquityValue:      exitEquityValue,
		TotalCashDistributed: totalCashDistributed,
		TotalCashReturned:    totalCashReturned,
	}

	keyMetrics := models.LBOKeyMetrics{
		TargetIRRMet:      irr >= c.cfg.LBO.TargetIRR,
		LeverageWithinMax: maxLeverage <= c.cfg.LBO.LeverageCeiling,
		AdequateEquity:    equityContribution/deal.EnterpriseValue >= c.cfg.LBO.EquityFloor,
		MaxLeverage:       maxLeverage,
	}
	if maxLeverage > 0 {
		keyMetrics.RiskAdjustedReturn = irr / (maxLeverage / c.cfg.LBO.LeverageCeiling)
	}

	return &models.LBOResult{
		SourcesAndUses: c.buildSourcesAndUses(deal, totalDebt, equityContribution),
		Projections:    projections,
		Returns:        returns,
		KeyMetrics:     keyMetrics,
	}, nil
}

func (c *LBOCalculator) validate(deal models.DealStructure, assumptions models.LBOAssumptions) error {
	if assumptions.HoldPeriod <= 0 {
		return utils.NewInvalidAssumptionErrorf("hold period must be positive, got %d", assumptions.HoldPeriod)
	}
	hold := assumptions.HoldPeriod
	if len(assumptions.RevenueGrowth) != hold ||
		len(assumptions.EBITDAMargin) != hold ||
		len(assumptions.CapexPercent) != hold ||
		len(assumptions.WorkingCapitalChange) != hold {
		return utils.NewInvalidAssumptionErrorf("all assumption sequences must have %d entries", hold)
	}
	if deal.EnterpriseValue <= 0 {
		return utils.NewInvalidAssumptionErrorf("enterprise value must be positive, got %.2f", deal.EnterpriseValue)
	}
	if assumptions.BaseRevenue == 0 && assumptions.EBITDAMargin[0] == 0 {
		return utils.NewInvalidAssumptionError("cannot derive baseline revenue: year-0 ebitda margin is zero")
	}
	if assumptions.BaseRevenue < 0 {
		return utils.NewInvalidAssumptionErrorf("base revenue must not be negative, got %.2f", assumptions.BaseRevenue)
	}
	return nil
}

// weightedInterestRate blends the per-tranche rates by tranche size. The
// revolver is left out of the weighting while the divisor stays total debt
// including the revolver, and the weights are not renormalized; this is a
// documented quirk of the reference model, reproduced as-is.
func (c *LBOCalculator) weightedInterestRate(
	deal models.DealStructure,
	rates *models.TrancheRates,
	totalDebt float64,
) float64 {
	if rates == nil || totalDebt == 0 {
		return c.cfg.LBO.DefaultTrancheRate
	}
	return (deal.TermLoanA*rates.TermLoanA +
		deal.TermLoanB*rates.TermLoanB +
		deal.SubordinatedDebt*rates.SubordinatedDebt) / totalDebt
}

// buildSourcesAndUses assembles the presentation-contract money table in
// exact decimals.
func (c *LBOCalculator) buildSourcesAndUses(
	deal models.DealStructure,
	totalDebt, equityContribution float64,
) models.SourcesAndUses {
	ev := decimal.NewFromFloat(deal.EnterpriseValue)
	equity := decimal.NewFromFloat(equityContribution)

	return models.SourcesAndUses{
		Revolver:           decimal.NewFromFloat(deal.Revolver),
		TermLoanA:          decimal.NewFromFloat(deal.TermLoanA),
		TermLoanB:          decimal.NewFromFloat(deal.TermLoanB),
		SubordinatedDebt:   decimal.NewFromFloat(deal.SubordinatedDebt),
		TotalDebt:          decimal.NewFromFloat(totalDebt),
		EquityContribution: equity,
		EnterpriseValue:    ev,
		Fees:               decimal.NewFromFloat(deal.Fees),
		EquityPercent:      equity.Div(ev),
	}
}

// SensitivityGrid re-runs the point estimate across the Cartesian product
// of exit multiples and flat revenue growth rates. Each cell rebuilds the
// assumptions with a constant-filled growth sequence; a cell that fails is
// logged and skipped, so a grid with missing cells is valid output while
// an aborted grid is not.
func (c *LBOCalculator) SensitivityGrid(
	deal models.DealStructure,
	assumptions models.LBOAssumptions,
	exitMultiples, growthRates []float64,
) *models.LBOSensitivityResult {
	if len(exitMultiples) == 0 {
		exitMultiples = c.cfg.LBO.ExitMultiples
	}
	if len(growthRates) == 0 {
		growthRates = c.cfg.LBO.RevenueGrowthRates
	}
	exitMultiples = sortedCopy(exitMultiples)
	growthRates = sortedCopy(growthRates)

	result := &models.LBOSensitivityResult{
		RunID:              uuid.NewString(),
		ExitMultiples:      exitMultiples,
		RevenueGrowthRates: growthRates,
		Points:             make([]models.LBOSensitivityPoint, 0, len(exitMultiples)*len(growthRates)),
	}
	log := logging.WithRun(c.logger, "lbo", result.RunID)

	for _, multiple := range exitMultiples {
		for _, growth := range growthRates {
			cellDeal := deal
			cellDeal.ExitMultiple = multiple
			cellAssumptions := assumptions
			cellAssumptions.RevenueGrowth = constantSequence(growth, assumptions.HoldPeriod)

			point, err := c.CalculateLBO(cellDeal, cellAssumptions)
			if err != nil {
				result.SkippedCells++
				log.WithError(err).WithFields(logrus.Fields{
					"exit_multiple":  multiple,
					"revenue_growth": growth,
				}).Warn("sensitivity cell skipped")
				continue
			}

			result.Points = append(result.Points, models.LBOSensitivityPoint{
				ExitMultiple:  multiple,
				RevenueGrowth: growth,
				IRR:           point.Returns.IRR,
				TotalMultiple: point.Returns.TotalMultiple,
				MaxLeverage:   point.KeyMetrics.MaxLeverage,
			})
		}
	}

	log.WithFields(logrus.Fields{
		"cells":   len(result.Points),
		"skipped": result.SkippedCells,
	}).Info("lbo sensitivity grid complete")

	return result
}

// MonteCarlo perturbs the exit multiple and the per-year growth and margin
// assumptions with the supplied Normal distributions (nil members leave
// the base value unchanged), evaluates the point estimate across a worker
// pool, and reduces IRR, total multiple, and max leverage to summary
// statistics plus the probability of meeting the target IRR.
func (c *LBOCalculator) MonteCarlo(
	deal models.DealStructure,
	assumptions models.LBOAssumptions,
	dists *models.LBODistributions,
	opts MonteCarloOptions,
) *models.LBOMonteCarloResult {
	requested := opts.Simulations
	if requested <= 0 {
		requested = c.cfg.Simulation.LBOSimulations
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if dists == nil {
		dists = &models.LBODistributions{}
	}

	type draw struct {
		ok          bool
		irr         float64
		multiple    float64
		maxLeverage float64
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
				drawnDeal, drawnAssumptions := c.drawDeal(rng, deal, assumptions, dists)
				point, err := c.CalculateLBO(drawnDeal, drawnAssumptions)
				if err != nil {
					c.logger.WithError(err).WithField("draw", i).Debug("lbo monte carlo draw skipped")
					continue
				}
				draws[i] = draw{
					ok:          true,
					irr:         point.Returns.IRR,
					multiple:    point.Returns.TotalMultiple,
					maxLeverage: point.KeyMetrics.MaxLeverage,
				}
			}
		}(w, start, end)
	}
	wg.Wait()

	result := &models.LBOMonteCarloResult{
		RunID:     uuid.NewString(),
		Requested: requested,
		TargetIRR: c.cfg.LBO.TargetIRR,
	}

	irrs := make([]float64, 0, requested)
	multiples := make([]float64, 0, requested)
	leverages := make([]float64, 0, requested)
	hitTarget := 0

	for _, d := range draws {
		if !d.ok {
			continue
		}
		result.Simulations++
		if !math.IsNaN(d.irr) {
			irrs = append(irrs, d.irr)
			if d.irr >= c.cfg.LBO.TargetIRR {
				hitTarget++
			}
		}
		if !math.IsNaN(d.multiple) {
			multiples = append(multiples, d.multiple)
		}
		if !math.IsNaN(d.maxLeverage) {
			leverages = append(leverages, d.maxLeverage)
		}
		if len(result.Samples) < c.cfg.Simulation.PreviewSamples {
			result.Samples = append(result.Samples, models.LBOSample{
				IRR:           d.irr,
				TotalMultiple: d.multiple,
				MaxLeverage:   d.maxLeverage,
			})
		}
	}

	result.IRR = summarize(filterValid(irrs))
	result.TotalMultiple = summarize(filterValid(multiples))
	result.MaxLeverage = summarize(filterValid(leverages))
	if len(irrs) > 0 {
		result.ProbTargetIRR = float64(hitTarget) / float64(len(irrs))
	}

	logging.WithRun(c.logger, "lbo", result.RunID).WithFields(logrus.Fields{
		"requested":   requested,
		"simulations": result.Simulations,
		"skipped":     requested - result.Simulations,
	}).Info("lbo monte carlo complete")

	return result
}

// drawDeal perturbs one Monte-Carlo draw. The same growth and margin
// distributions are reused across years, with each year drawn
// independently.
func (c *LBOCalculator) drawDeal(
	rng *rand.Rand,
	deal models.DealStructure,
	assumptions models.LBOAssumptions,
	dists *models.LBODistributions,
) (models.DealStructure, models.LBOAssumptions) {
	drawnDeal := deal
	if dists.ExitMultiple != nil {
		drawnDeal.ExitMultiple = normalSample(rng, dists.ExitMultiple.Mean, dists.ExitMultiple.StdDev)
	}

	drawnAssumptions := assumptions
	if dists.RevenueGrowth != nil {
		growth := make([]float64, assumptions.HoldPeriod)
		for i := range growth {
			growth[i] = normalSample(rng, dists.RevenueGrowth.Mean, dists.RevenueGrowth.StdDev)
		}
		drawnAssumptions.RevenueGrowth = growth
	}
	if dists.EBITDAMargin != nil {
		margins := make([]float64, assumptions.HoldPeriod)
		for i := range margins {
			margins[i] = normalSample(rng, dists.EBITDAMargin.Mean, dists.EBITDAMargin.StdDev)
		}
		drawnAssumptions.EBITDAMargin = margins
	}

	return drawnDeal, drawnAssumptions
}

// constantSequence fills a sequence of the given length with one value.
func constantSequence(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}
