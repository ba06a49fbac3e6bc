package engine

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// AllowedHorizons lists the supported analysis horizons in years.
var AllowedHorizons = []int{1, 3, 5}

// Config is the user-adjustable input of a calculation.
type Config struct {
	// DeviceCount must be > 0.
	DeviceCount int `json:"deviceCount" mapstructure:"device_count"`
	// LocationCount must be ≥ 1.
	LocationCount int `json:"locationCount" mapstructure:"location_count"`
	// YearsHorizon must be one of AllowedHorizons.
	YearsHorizon int `json:"yearsHorizon" mapstructure:"years_horizon"`
	// FTECost is the fully loaded annual cost of one engineer, ≥ 0.
	FTECost float64 `json:"fteCost" mapstructure:"fte_cost"`
	// BreachCost is the expected cost of one breach, ≥ 0.
	BreachCost float64 `json:"breachCost" mapstructure:"breach_cost"`
	// AnnualBreachProbability is in [0,1].
	AnnualBreachProbability float64 `json:"annualBreachProbability" mapstructure:"annual_breach_probability"`
	// DowntimeCostPerHour is ≥ 0.
	DowntimeCostPerHour float64 `json:"downtimeCostPerHour" mapstructure:"downtime_cost_per_hour"`
	// CompliancePenaltyRisk is the annual penalty exposure, ≥ 0.
	CompliancePenaltyRisk float64 `json:"compliancePenaltyRisk" mapstructure:"compliance_penalty_risk"`
	// DiscountRate is the annual rate used for NPV, in [0,1].
	DiscountRate float64 `json:"discountRate" mapstructure:"discount_rate"`
}

// DefaultConfig returns a mid-size enterprise profile.
func DefaultConfig() Config {
	return Config{
		DeviceCount:             2500,
		LocationCount:           1,
		YearsHorizon:            3,
		FTECost:                 120000,
		BreachCost:              4350000,
		AnnualBreachProbability: 0.15,
		DowntimeCostPerHour:     5000,
		CompliancePenaltyRisk:   250000,
		DiscountRate:            0.08,
	}
}

// Validate reports every out-of-range field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	if c.DeviceCount <= 0 {
		errs = append(errs, fmt.Errorf("deviceCount must be > 0, got %d", c.DeviceCount))
	}
	if c.LocationCount < 1 {
		errs = append(errs, fmt.Errorf("locationCount must be ≥ 1, got %d", c.LocationCount))
	}
	if !slices.Contains(AllowedHorizons, c.YearsHorizon) {
		errs = append(errs, fmt.Errorf("yearsHorizon must be one of %v, got %d", AllowedHorizons, c.YearsHorizon))
	}
	errs = appendIfErr(errs, nonNegative("fteCost", c.FTECost))
	errs = appendIfErr(errs, nonNegative("breachCost", c.BreachCost))
	errs = appendIfErr(errs, nonNegative("downtimeCostPerHour", c.DowntimeCostPerHour))
	errs = appendIfErr(errs, nonNegative("compliancePenaltyRisk", c.CompliancePenaltyRisk))
	errs = appendIfErr(errs, unitInterval("annualBreachProbability", c.AnnualBreachProbability))
	errs = appendIfErr(errs, unitInterval("discountRate", c.DiscountRate))

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func nonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%s must be a finite number ≥ 0, got %v", field, v)
	}
	return nil
}

func unitInterval(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%s must be in [0,1], got %v", field, v)
	}
	return nil
}

func appendIfErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}
