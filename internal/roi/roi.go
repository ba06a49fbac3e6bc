// Package roi turns TCO differences between vendors into return-on-investment
// figures: ROI, payback, NPV, IRR, profitability index and scenario variants.
//
// ROI is defined as cumulative net benefit over the horizon relative to the
// initial investment:
//
//	ROI% = (monthlyBenefit × months − investment) / investment × 100
package roi

import "math"

// Input describes one subject vendor measured against a comparator.
type Input struct {
	SubjectTCO        float64
	ComparatorTCO     float64
	InitialInvestment float64
	Years             int
	DiscountRate      float64
}

// Result is the ROI analysis of one vendor.
type Result struct {
	// Percentage is the canonical ROI. When InitialInvestment is zero it is 0
	// and Unbounded reports whether the net benefit is positive.
	Percentage         float64     `json:"percentage"`
	Unbounded          bool        `json:"unbounded"`
	AnnualSavings      float64     `json:"annualSavings"`
	MonthlyBenefit     float64     `json:"monthlyBenefit"`
	SavingsPercent     float64     `json:"savingsPercent"`
	PaybackMonths      float64     `json:"paybackMonths"`
	NPV                float64     `json:"npv"`
	IRR                *float64    `json:"irr"`
	ProfitabilityIndex float64     `json:"profitabilityIndex"`
	CumulativeByYear   []float64   `json:"cumulativeByYear"`
	Sensitivity        Sensitivity `json:"sensitivityAnalysis"`
}

// Compute runs the ROI analysis for in. Scenario variants are derived with
// DefaultScenarioParams; use ComputeWithScenarios to override them.
func Compute(in Input) Result {
	return ComputeWithScenarios(in, DefaultScenarioParams())
}

// ComputeWithScenarios runs the ROI analysis and derives the scenarios with sp.
func ComputeWithScenarios(in Input, sp ScenarioParams) Result {
	years := in.Years
	if years < 1 {
		years = 1
	}
	investment := finiteOrZero(in.InitialInvestment)

	annual := finiteOrZero((in.ComparatorTCO - in.SubjectTCO) / float64(years))
	res := Result{
		AnnualSavings:  annual,
		MonthlyBenefit: annual / 12,
		SavingsPercent: SavingsPercent(in.SubjectTCO, in.ComparatorTCO),
	}
	res.Percentage, res.Unbounded = percentage(annual, investment, years)
	res.PaybackMonths = Payback(res.MonthlyBenefit, investment)

	flows := CashFlows(investment, annual, years)
	res.NPV = NPV(in.DiscountRate, flows)
	res.IRR = IRR(flows)
	if investment != 0 {
		res.ProfitabilityIndex = PresentValue(in.DiscountRate, flows) / investment
	}

	res.CumulativeByYear = make([]float64, years)
	for y := 1; y <= years; y++ {
		res.CumulativeByYear[y-1] = annual*float64(y) - investment
	}

	res.Sensitivity = Analyze(in, res, sp)
	return res
}

// percentage applies the canonical ROI definition for a horizon of years.
// A return too large to represent is reported as unbounded.
func percentage(annualSavings, investment float64, years int) (float64, bool) {
	monthly := annualSavings / 12
	cumulative := monthly*float64(years*12) - investment
	if investment == 0 {
		return 0, cumulative > 0
	}
	pct := cumulative / investment * 100
	switch {
	case math.IsNaN(pct):
		return 0, false
	case math.IsInf(pct, 1):
		return 0, true
	case math.IsInf(pct, -1):
		return -math.MaxFloat64, false
	}
	return pct, false
}

// SavingsPercent is the subject's saving relative to the comparator's TCO.
// A zero comparator yields 0.
func SavingsPercent(subject, comparator float64) float64 {
	if comparator == 0 {
		return 0
	}
	return finiteOrZero((comparator - subject) / comparator * 100)
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
