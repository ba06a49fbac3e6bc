package tco

import "github.com/Simplici0/nactco/internal/catalog"

// DefaultRiskScalingConstant leaves annualised exposure unscaled.
const DefaultRiskScalingConstant = 1.0

// RiskInput carries the organisation's risk exposure assumptions.
type RiskInput struct {
	Years                   int
	BreachCost              float64
	AnnualBreachProbability float64
	CompliancePenaltyRisk   float64
	DowntimeCostPerHour     float64
}

// RiskParams holds the tunables of the risk model.
type RiskParams struct {
	// ScalingConstant normalises annualised breach exposure into a cost
	// contribution. 1.0 counts the full expected loss.
	ScalingConstant float64
}

// DefaultRiskParams returns the standard risk model.
func DefaultRiskParams() RiskParams {
	return RiskParams{ScalingConstant: DefaultRiskScalingConstant}
}

// ComplianceProbability is the chance of a compliance finding given the
// vendor's compliance score (0-100).
func ComplianceProbability(v catalog.Vendor) float64 {
	return clamp01(1 - v.Scores.Compliance/100)
}

// AdjustForRisk adds breach, compliance and downtime exposure to b.
// RiskReductionFactor is clamped to [0,1] and scales the baseline breach
// exposure; 0 means the vendor leaves no breach risk behind.
func AdjustForRisk(b Breakdown, v catalog.Vendor, in RiskInput, params RiskParams) Breakdown {
	years := float64(in.Years)
	residual := clamp01(v.RiskReductionFactor)

	b.Risk = RiskCosts{
		Breach: nonNegative(in.BreachCost * clamp01(in.AnnualBreachProbability) * residual * years *
			params.ScalingConstant),
		Compliance: nonNegative(in.CompliancePenaltyRisk * ComplianceProbability(v) * years),
		Downtime:   nonNegative(in.DowntimeCostPerHour * v.Operations.AnnualDowntimeHours * years),
	}
	b.Total = nonNegative(b.TotalDirect) + b.Risk.Total()
	return b
}
