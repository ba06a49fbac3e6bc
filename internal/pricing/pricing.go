package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Simplici0/nactco/internal/catalog"
)

// MonthsPerYear converts per-device monthly rates into annual amounts.
const MonthsPerYear = 12

// ErrNoPricing is returned when a vendor publishes neither tiers nor a perpetual schedule.
var ErrNoPricing = errors.New("vendor has no applicable pricing")

// Rate is the price schedule that applies to a specific device count.
type Rate struct {
	Model   catalog.PricingModel
	Devices int

	// Subscription fields. TierIndex refers to the tier in ascending MinDevices order.
	TierIndex          int
	PerDeviceMonthly   float64
	AnnualSubscription float64

	// Perpetual fields.
	LicenseCost       float64
	MaintenanceRate   float64
	AmortizationYears int

	SupportIncluded bool
}

// Resolve selects the rate that applies to deviceCount. It never mutates p.
func Resolve(p catalog.Pricing, deviceCount int) (Rate, error) {
	if deviceCount <= 0 {
		return Rate{}, fmt.Errorf("resolve pricing: device count must be positive, got %d", deviceCount)
	}

	model := p.Model
	if model == "" {
		model = catalog.PricingSubscription
		if len(p.Tiers) == 0 && p.Perpetual != nil {
			model = catalog.PricingPerpetual
		}
	}

	switch model {
	case catalog.PricingSubscription:
		if len(p.Tiers) == 0 {
			return Rate{}, ErrNoPricing
		}
		idx, tier := SelectTier(p.Tiers, deviceCount)
		return Rate{
			Model:              model,
			Devices:            deviceCount,
			TierIndex:          idx,
			PerDeviceMonthly:   tier.PerDeviceMonthly,
			AnnualSubscription: tier.PerDeviceMonthly * MonthsPerYear * float64(deviceCount),
			SupportIncluded:    p.SupportIncluded,
		}, nil
	case catalog.PricingPerpetual:
		if p.Perpetual == nil {
			return Rate{}, ErrNoPricing
		}
		return Rate{
			Model:             model,
			Devices:           deviceCount,
			LicenseCost:       p.Perpetual.BaseLicense + p.Perpetual.PerDeviceLicense*float64(deviceCount),
			MaintenanceRate:   p.Perpetual.MaintenanceRate,
			AmortizationYears: p.Perpetual.AmortizationYears,
			SupportIncluded:   p.SupportIncluded,
		}, nil
	default:
		return Rate{}, fmt.Errorf("%w: unknown pricing model %q", ErrNoPricing, model)
	}
}

// SelectTier returns the tier covering deviceCount and its position in
// MinDevices order. Counts below the lowest floor clamp to the lowest tier;
// counts above every band, or inside a gap between bands, use the highest
// tier whose floor is not above the count. tiers must be non-empty.
func SelectTier(tiers []catalog.Tier, deviceCount int) (int, catalog.Tier) {
	sorted := make([]catalog.Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinDevices < sorted[j].MinDevices
	})

	for i, t := range sorted {
		if deviceCount >= t.MinDevices && (t.MaxDevices == nil || deviceCount <= *t.MaxDevices) {
			return i, t
		}
	}

	if deviceCount < sorted[0].MinDevices {
		return 0, sorted[0]
	}

	best := 0
	for i, t := range sorted {
		if t.MinDevices <= deviceCount {
			best = i
		}
	}
	return best, sorted[best]
}
