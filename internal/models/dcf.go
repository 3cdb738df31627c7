package models

// FinancialSnapshot holds the baseline figures for one company at one point
// in time. Supplied by the caller (market/fundamental data fetchers) and
// never mutated by the engines. All monetary values are in the caller's
// currency; rates are decimal fractions (0.05 = 5%).
type FinancialSnapshot struct {
	Revenue           float64 `json:"revenue"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	CurrentPrice      float64 `json:"current_price"`
	TotalDebt         float64 `json:"total_debt"`
	Cash              float64 `json:"cash"`
}

// ProjectionAssumptions holds the per-year assumption sequences driving a
// DCF projection. All five slices must have equal length matching the
// configured projection horizon. Growth and margin values may be negative
// (decline); the engine does not clamp them.
type ProjectionAssumptions struct {
	RevenueGrowth        []float64 `json:"revenue_growth"`
	EBITDAMargin         []float64 `json:"ebitda_margin"`
	Depreciation         []float64 `json:"depreciation"`
	Capex                []float64 `json:"capex"`
	WorkingCapitalChange []float64 `json:"working_capital_change"`
}

// Years returns the projection horizon implied by the growth sequence.
func (a ProjectionAssumptions) Years() int {
	return len(a.RevenueGrowth)
}

// CostOfCapitalParams carries the discounting inputs for a DCF run.
// DiscountRate must strictly exceed TerminalGrowthRate or the perpetuity
// terminal value diverges.
type CostOfCapitalParams struct {
	DiscountRate       float64 `json:"discount_rate"`
	TerminalGrowthRate float64 `json:"terminal_growth_rate"`
	TaxRate            float64 `json:"tax_rate"`
}

// DCFYearRecord is one projected year of the DCF model, year ascending.
// Field names and ordering are part of the contract with the presentation
// layer (spreadsheet cells are filled by field name).
type DCFYearRecord struct {
	Year         int     `json:"year"`
	Revenue      float64 `json:"revenue"`
	EBITDA       float64 `json:"ebitda"`
	EBIT         float64 `json:"ebit"`
	NOPAT        float64 `json:"nopat"`
	FreeCashFlow float64 `json:"free_cash_flow"`
	PresentValue float64 `json:"present_value"`
}

// DCFResult is the output of a single DCF point estimate.
//
// IntrinsicValue is only populated when SharesOutstanding > 0 and Upside
// only when CurrentPrice > 0; the Has* flags record whether the guarded
// fields were computed. EquityValue is enterprise value net of debt plus
// cash from the snapshot.
type DCFResult struct {
	ProjectedCashFlows []DCFYearRecord `json:"projected_cash_flows"`
	TerminalValue      float64         `json:"terminal_value"`
	TerminalPV         float64         `json:"terminal_pv"`
	PresentValue       float64         `json:"present_value"`
	EquityValue        float64         `json:"equity_value"`
	IntrinsicValue     float64         `json:"intrinsic_value"`
	HasIntrinsicValue  bool            `json:"has_intrinsic_value"`
	Upside             float64         `json:"upside"`
	HasUpside          bool            `json:"has_upside"`
}

// DCFSensitivityPoint is one cell of the discount-rate x terminal-growth
// sensitivity grid.
type DCFSensitivityPoint struct {
	DiscountRate       float64 `json:"discount_rate"`
	TerminalGrowthRate float64 `json:"terminal_growth_rate"`
	IntrinsicValue     float64 `json:"intrinsic_value"`
	Upside             float64 `json:"upside"`
}

// DCFSensitivityResult carries the whole grid plus the enumeration axes,
// discountRate-major, terminalGrowthRate-minor, both ascending.
type DCFSensitivityResult struct {
	RunID               string                `json:"run_id"`
	DiscountRates       []float64             `json:"discount_rates"`
	TerminalGrowthRates []float64             `json:"terminal_growth_rates"`
	Points              []DCFSensitivityPoint `json:"points"`
	SkippedCells        int                   `json:"skipped_cells"`
}

// DCFSample is a single Monte-Carlo draw's derived scalar outcomes.
type DCFSample struct {
	IntrinsicValue float64 `json:"intrinsic_value"`
	Upside         float64 `json:"upside"`
}

// DCFMonteCarloResult summarises a DCF Monte-Carlo batch. Simulations is
// the number of successful draws, never the requested count. Samples holds
// a bounded preview of the first raw draws.
type DCFMonteCarloResult struct {
	RunID              string       `json:"run_id"`
	Requested          int          `json:"requested"`
	Simulations        int          `json:"simulations"`
	IntrinsicValue     SummaryStats `json:"intrinsic_value"`
	Upside             SummaryStats `json:"upside"`
	ProbPositiveUpside float64      `json:"prob_positive_upside"`
	Samples            []DCFSample  `json:"samples"`
}
