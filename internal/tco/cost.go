// Package tco aggregates a vendor's multi-year cost of ownership and folds in
// risk exposure.
package tco

import (
	"math"

	"github.com/Simplici0/nactco/internal/catalog"
	"github.com/Simplici0/nactco/internal/pricing"
)

const (
	// DefaultSupportRate is the share of licensing charged for vendor support
	// when support is not bundled into the price.
	DefaultSupportRate = 0.15

	// WorkHoursPerFTEYear converts an annual FTE cost into an hourly rate.
	WorkHoursPerFTEYear = 2080.0

	// RedundancyOverheadRate is the extra hardware spend for high-availability
	// pairs on customer-hosted deployments, as a share of infrastructure.
	RedundancyOverheadRate = 0.5

	// AssumedDowntimeHoursPerYear is the planned downtime a fully manual
	// customer-hosted deployment is assumed to take each year for patch and
	// upgrade windows. Staff cover every hour of it.
	AssumedDowntimeHoursPerYear = 120.0
)

// Input carries the deployment-specific parameters of a calculation.
type Input struct {
	Devices   int
	Locations int
	Years     int
	FTECost   float64
}

// CostParams holds the tunables of the direct-cost model.
type CostParams struct {
	SupportRate float64
}

// DefaultCostParams returns the standard cost model.
func DefaultCostParams() CostParams {
	return CostParams{SupportRate: DefaultSupportRate}
}

// RiskCosts are the expected losses added on top of direct costs.
type RiskCosts struct {
	Breach     float64 `json:"breach"`
	Compliance float64 `json:"compliance"`
	Downtime   float64 `json:"downtime"`
}

// Total sums the risk categories.
func (r RiskCosts) Total() float64 {
	return r.Breach + r.Compliance + r.Downtime
}

// Breakdown is the itemised TCO of one vendor over the horizon.
type Breakdown struct {
	Licensing      float64   `json:"licensing"`
	Implementation float64   `json:"implementation"`
	Support        float64   `json:"support"`
	Infrastructure float64   `json:"infrastructure"`
	Personnel      float64   `json:"personnel"`
	Training       float64   `json:"training"`
	Hidden         float64   `json:"hidden"`
	Risk           RiskCosts `json:"risk"`
	TotalDirect    float64   `json:"totalDirect"`
	Total          float64   `json:"total"`
}

// DirectSum recomputes the sum of the non-risk categories.
func (b Breakdown) DirectSum() float64 {
	return b.Licensing + b.Implementation + b.Support + b.Infrastructure + b.Personnel + b.Training + b.Hidden
}

// Aggregate computes the direct costs of v at the resolved rate. Risk costs are
// left at zero and Total equals TotalDirect until AdjustForRisk runs.
func Aggregate(v catalog.Vendor, rate pricing.Rate, in Input, params CostParams) Breakdown {
	years := float64(in.Years)
	devices := float64(in.Devices)
	locations := float64(in.Locations)

	var b Breakdown
	b.Licensing = nonNegative(licensing(rate, in.Years))
	b.Implementation = nonNegative(v.Implementation.BaseCost +
		v.Implementation.PerDeviceCost*devices +
		v.Implementation.PerLocationCost*locations)
	if !rate.SupportIncluded {
		b.Support = nonNegative(b.Licensing * params.SupportRate)
	}
	if !v.Deployment.IsCloudNative() {
		b.Infrastructure = nonNegative(v.Operations.ServersPerLocation * locations * v.Operations.ServerUnitCost)
	}
	b.Personnel = nonNegative(v.Operations.FTERequired * in.FTECost * years)
	b.Training = nonNegative(devices * v.Training.PerDeviceCost)
	b.Hidden = HiddenCost(v.Deployment, v.Training.Hours, v.Operations.AutomationLevel, b.Infrastructure, in.FTECost, in.Years)

	b.TotalDirect = b.DirectSum()
	b.Total = b.TotalDirect
	return b
}

func licensing(rate pricing.Rate, years int) float64 {
	if rate.Model == catalog.PricingPerpetual {
		share := 1.0
		if rate.AmortizationYears > 0 && years < rate.AmortizationYears {
			share = float64(years) / float64(rate.AmortizationYears)
		}
		return rate.LicenseCost*share + rate.LicenseCost*rate.MaintenanceRate*float64(years)
	}
	return rate.AnnualSubscription * float64(years)
}

// HiddenCost estimates costs that never appear on a quote:
//
//	hidden = trainingHours × fteHourly
//	       + [customer-hosted] infrastructure × RedundancyOverheadRate
//	       + [customer-hosted] AssumedDowntimeHoursPerYear × (1 − automationLevel) × years × fteHourly
//
// where fteHourly = fteCost / WorkHoursPerFTEYear. The last term prices the
// assumed maintenance downtime in staff hours; automation shortens it.
// Cloud-native deployments only carry the staff time spent in training.
func HiddenCost(deployment catalog.DeploymentType, trainingHours, automationLevel, infrastructure, fteCost float64, years int) float64 {
	fteHourly := fteCost / WorkHoursPerFTEYear
	hidden := nonNegative(trainingHours) * fteHourly

	if !deployment.IsCloudNative() {
		manual := 1 - clamp01(automationLevel)
		hidden += nonNegative(infrastructure) * RedundancyOverheadRate
		hidden += AssumedDowntimeHoursPerYear * manual * float64(years) * fteHourly
	}
	return nonNegative(hidden)
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
