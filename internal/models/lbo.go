package models

import "github.com/shopspring/decimal"

// DealStructure describes the capital structure of a leveraged buyout.
// TotalDebt is always recomputed as the sum of the four tranches, never
// stored independently.
type DealStructure struct {
	EnterpriseValue  float64 `json:"enterprise_value"`
	EBITDA           float64 `json:"ebitda"`
	Revolver         float64 `json:"revolver"`
	TermLoanA        float64 `json:"term_loan_a"`
	TermLoanB        float64 `json:"term_loan_b"`
	SubordinatedDebt float64 `json:"subordinated_debt"`
	ExitMultiple     float64 `json:"exit_multiple"`
	Fees             float64 `json:"fees"`
}

// TotalDebt returns the sum of the four tranche amounts.
func (d DealStructure) TotalDebt() float64 {
	return d.Revolver + d.TermLoanA + d.TermLoanB + d.SubordinatedDebt
}

// TrancheRates optionally carries a per-tranche interest rate. When nil
// the engine falls back to a flat default rate.
type TrancheRates struct {
	Revolver         float64 `json:"revolver"`
	TermLoanA        float64 `json:"term_loan_a"`
	TermLoanB        float64 `json:"term_loan_b"`
	SubordinatedDebt float64 `json:"subordinated_debt"`
}

// LBOAssumptions holds the per-year operating assumptions over the hold
// period. All slices must have equal length equal to the hold period.
// BaseRevenue is optional; when zero the year-0 revenue is derived as
// EBITDA / EBITDAMargin[0].
type LBOAssumptions struct {
	HoldPeriod           int           `json:"hold_period"`
	BaseRevenue          float64       `json:"base_revenue"`
	RevenueGrowth        []float64     `json:"revenue_growth"`
	EBITDAMargin         []float64     `json:"ebitda_margin"`
	CapexPercent         []float64     `json:"capex_percent"`
	WorkingCapitalChange []float64     `json:"working_capital_change"`
	TaxRate              float64       `json:"tax_rate"`
	Rates                *TrancheRates `json:"rates,omitempty"`
}

// SourcesAndUses is the capital-structure table pairing financing sources
// against uses. It is a presentation-contract money table, so figures are
// exact decimals rather than floats.
type SourcesAndUses struct {
	Revolver           decimal.Decimal `json:"revolver"`
	TermLoanA          decimal.Decimal `json:"term_loan_a"`
	TermLoanB          decimal.Decimal `json:"term_loan_b"`
	SubordinatedDebt   decimal.Decimal `json:"subordinated_debt"`
	TotalDebt          decimal.Decimal `json:"total_debt"`
	EquityContribution decimal.Decimal `json:"equity_contribution"`
	EnterpriseValue    decimal.Decimal `json:"enterprise_value"`
	Fees               decimal.Decimal `json:"fees"`
	EquityPercent      decimal.Decimal `json:"equity_percent"`
}

// CreditMetrics carries the per-year leverage and coverage ratios. The
// Has* flags record which ratios were computable (interest or debt can
// legitimately reach zero once the debt is paid down).
type CreditMetrics struct {
	DebtToEBITDA     float64 `json:"debt_to_ebitda"`
	EBITDAToInterest float64 `json:"ebitda_to_interest"`
	HasInterestCover bool    `json:"has_interest_cover"`
	FCFToDebt        float64 `json:"fcf_to_debt"`
	HasFCFToDebt     bool    `json:"has_fcf_to_debt"`
}

// LBOYearProjection is one projected year of the LBO model, year ascending
// starting at year 0 (the acquisition year).
type LBOYearProjection struct {
	Year          int           `json:"year"`
	Revenue       float64       `json:"revenue"`
	EBITDA        float64       `json:"ebitda"`
	EBIT          float64       `json:"ebit"`
	Interest      float64       `json:"interest"`
	NetIncome     float64       `json:"net_income"`
	FreeCashFlow  float64       `json:"free_cash_flow"`
	DebtBalance   float64       `json:"debt_balance"`
	DebtPaydown   float64       `json:"debt_paydown"`
	CashToSponsor float64       `json:"cash_to_sponsor"`
	CreditMetrics CreditMetrics `json:"credit_metrics"`
}

// LBOReturns carries the sponsor return metrics of one LBO run.
type LBOReturns struct {
	IRR                  float64 `json:"irr"`
	TotalMultiple        float64 `json:"total_multiple"`
	ExitEnterpriseValue  float64 `json:"exit_enterprise_value"`
	ExitEquityValue      float64 `json:"exit_equity_value"`
	TotalCashDistributed float64 `json:"total_cash_distributed"`
	TotalCashReturned    float64 `json:"total_cash_returned"`
}

// LBOKeyMetrics summarises whether the deal clears the configured hurdles.
type LBOKeyMetrics struct {
	TargetIRRMet       bool    `json:"target_irr_met"`
	LeverageWithinMax  bool    `json:"leverage_within_max"`
	AdequateEquity     bool    `json:"adequate_equity"`
	MaxLeverage        float64 `json:"max_leverage"`
	RiskAdjustedReturn float64 `json:"risk_adjusted_return"`
}

// LBOResult is the output of a single LBO point estimate.
type LBOResult struct {
	SourcesAndUses SourcesAndUses      `json:"sources_and_uses"`
	Projections    []LBOYearProjection `json:"projections"`
	Returns        LBOReturns          `json:"returns"`
	KeyMetrics     LBOKeyMetrics       `json:"key_metrics"`
}

// LBOSensitivityPoint is one cell of the exit-multiple x revenue-growth
// sensitivity grid.
type LBOSensitivityPoint struct {
	ExitMultiple  float64 `json:"exit_multiple"`
	RevenueGrowth float64 `json:"revenue_growth"`
	IRR           float64 `json:"irr"`
	TotalMultiple float64 `json:"total_multiple"`
	MaxLeverage   float64 `json:"max_leverage"`
}

// LBOSensitivityResult carries the whole grid, exitMultiple-major,
// revenueGrowth-minor, both ascending. Cells that failed to evaluate are
// skipped, not aborted.
type LBOSensitivityResult struct {
	RunID              string                `json:"run_id"`
	ExitMultiples      []float64             `json:"exit_multiples"`
	RevenueGrowthRates []float64             `json:"revenue_growth_rates"`
	Points             []LBOSensitivityPoint `json:"points"`
	SkippedCells       int                   `json:"skipped_cells"`
}

// LBODistributions optionally describes the Normal perturbations applied
// during Monte-Carlo simulation. Nil members leave the base value unchanged.
type LBODistributions struct {
	ExitMultiple  *Distribution `json:"exit_multiple,omitempty"`
	RevenueGrowth *Distribution `json:"revenue_growth,omitempty"`
	EBITDAMargin  *Distribution `json:"ebitda_margin,omitempty"`
}

// LBOSample is a single Monte-Carlo draw's derived scalar outcomes.
type LBOSample struct {
	IRR           float64 `json:"irr"`
	TotalMultiple float64 `json:"total_multiple"`
	MaxLeverage   float64 `json:"max_leverage"`
}

// LBOMonteCarloResult summarises an LBO Monte-Carlo batch. Simulations is
// the number of successful draws, never the requested count.
type LBOMonteCarloResult struct {
	RunID         string       `json:"run_id"`
	Requested     int          `json:"requested"`
	Simulations   int          `json:"simulations"`
	IRR           SummaryStats `json:"irr"`
	TotalMultiple SummaryStats `json:"total_multiple"`
	MaxLeverage   SummaryStats `json:"max_leverage"`
	ProbTargetIRR float64      `json:"prob_target_irr"`
	TargetIRR     float64      `json:"target_irr"`
	Samples       []LBOSample  `json:"samples"`
}
