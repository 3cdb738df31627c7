package models

// SummaryStats is the statistical reduction of one Monte-Carlo output
// metric. Percentiles are nearest-rank over the valid (NaN-filtered)
// sample set.
type SummaryStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	P10    float64 `json:"p10"`
	P90    float64 `json:"p90"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// Distribution describes a Normal distribution used to perturb one
// assumption during Monte-Carlo simulation. A nil *Distribution means the
// base value is used unchanged.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}
