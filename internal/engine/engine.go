// Package engine runs the full TCO/ROI comparison for a set of selected
// vendors: pricing, cost aggregation, risk adjustment, ROI with scenarios and
// ranking. A calculation is a pure function of the catalog, the selection and
// the config; the only state it touches is an optional caller-owned cache.
package engine

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Simplici0/nactco/internal/catalog"
	"github.com/Simplici0/nactco/internal/pricing"
	"github.com/Simplici0/nactco/internal/ranking"
	"github.com/Simplici0/nactco/internal/roi"
	"github.com/Simplici0/nactco/internal/tco"
)

// ComparatorMode selects the baseline each vendor's ROI is measured against.
type ComparatorMode string

const (
	// ComparatorAverage uses the mean TCO of the other selected vendors.
	ComparatorAverage ComparatorMode = "average"
	// ComparatorBest uses the lowest TCO among the other selected vendors.
	ComparatorBest ComparatorMode = "best"
)

// TCO is the cost summary of one vendor.
type TCO struct {
	Total     float64       `json:"total"`
	Annual    float64       `json:"annual"`
	PerDevice float64       `json:"perDevice"`
	Breakdown tco.Breakdown `json:"breakdown"`
}

// RankedResult is the complete outcome for one vendor.
type RankedResult struct {
	Vendor        catalog.Vendor    `json:"vendor"`
	TCO           TCO               `json:"tco"`
	ROI           roi.Result        `json:"roi"`
	ComparatorTCO float64           `json:"comparatorTco"`
	Rank          int               `json:"rank"`
	Savings       float64           `json:"savings"`
	RiskScore     float64           `json:"riskScore"`
	RiskLevel     ranking.RiskLevel `json:"riskLevel"`
	OverallScore  float64           `json:"overallScore"`
}

// Report is the output of Calculate. Order lists vendor ids by rank.
type Report struct {
	Results  map[string]RankedResult `json:"results"`
	Order    []string                `json:"order"`
	Warnings []Warning               `json:"warnings"`
}

// Engine holds the model tunables. It is immutable after New and safe for
// concurrent use.
type Engine struct {
	log        *zap.Logger
	cost       tco.CostParams
	risk       tco.RiskParams
	scenarios  roi.ScenarioParams
	weights    ranking.Weights
	thresholds ranking.Thresholds
	comparator ComparatorMode
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for skipped-vendor warnings.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithCostParams overrides the direct-cost model.
func WithCostParams(p tco.CostParams) Option {
	return func(e *Engine) { e.cost = p }
}

// WithRiskParams overrides the risk model, including the scaling constant.
func WithRiskParams(p tco.RiskParams) Option {
	return func(e *Engine) { e.risk = p }
}

// WithScenarioParams overrides the scenario multipliers and weights.
func WithScenarioParams(p roi.ScenarioParams) Option {
	return func(e *Engine) { e.scenarios = p }
}

// WithWeights overrides the overall-score weights.
func WithWeights(w ranking.Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithThresholds overrides the risk-level thresholds.
func WithThresholds(th ranking.Thresholds) Option {
	return func(e *Engine) { e.thresholds = th }
}

// WithComparator selects the ROI baseline.
func WithComparator(m ComparatorMode) Option {
	return func(e *Engine) { e.comparator = m }
}

// New builds an Engine from the defaults plus opts.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		log:        zap.NewNop(),
		cost:       tco.DefaultCostParams(),
		risk:       tco.DefaultRiskParams(),
		scenarios:  roi.DefaultScenarioParams(),
		weights:    ranking.DefaultWeights(),
		thresholds: ranking.DefaultThresholds(),
		comparator: ComparatorAverage,
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.weights.Validate(); err != nil {
		return nil, fmt.Errorf("engine weights: %w", err)
	}
	if err := e.scenarios.Validate(); err != nil {
		return nil, fmt.Errorf("engine scenarios: %w", err)
	}
	if e.cost.SupportRate < 0 || math.IsNaN(e.cost.SupportRate) {
		return nil, fmt.Errorf("engine support rate must be ≥ 0, got %v", e.cost.SupportRate)
	}
	if e.risk.ScalingConstant < 0 || math.IsNaN(e.risk.ScalingConstant) {
		return nil, fmt.Errorf("engine risk scaling constant must be ≥ 0, got %v", e.risk.ScalingConstant)
	}
	switch e.comparator {
	case ComparatorAverage, ComparatorBest:
	default:
		return nil, fmt.Errorf("engine comparator %q: want %q or %q", e.comparator, ComparatorAverage, ComparatorBest)
	}
	return e, nil
}

// Calculate compares the selected vendors under cfg.
func (e *Engine) Calculate(cat catalog.Catalog, selected []string, cfg Config) (Report, error) {
	return e.CalculateWithCache(cat, selected, cfg, nil)
}

// CalculateWithCache is Calculate with per-vendor breakdowns memoised in c.
// An invalid cfg aborts the call; vendors that cannot be evaluated are
// skipped and reported in Report.Warnings.
func (e *Engine) CalculateWithCache(cat catalog.Catalog, selected []string, cfg Config, c *ResultCache) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	type evaluated struct {
		vendor    catalog.Vendor
		breakdown tco.Breakdown
	}

	report := Report{Results: make(map[string]RankedResult)}
	seen := make(map[string]struct{}, len(selected))
	vendors := make([]evaluated, 0, len(selected))

	for _, id := range selected {
		if _, dup := seen[id]; dup {
			report.Warnings = append(report.Warnings, e.skip(id, ErrDuplicateVendor))
			continue
		}
		seen[id] = struct{}{}

		v, ok := cat.Lookup(id)
		if !ok {
			report.Warnings = append(report.Warnings, e.skip(id, ErrVendorNotFound))
			continue
		}
		v.ID = id

		b, err := e.vendorCost(v, cfg, c)
		if err != nil {
			report.Warnings = append(report.Warnings, e.skip(id, err))
			continue
		}
		vendors = append(vendors, evaluated{vendor: v, breakdown: b})
	}

	entries := make([]ranking.Entry, len(vendors))
	totals := make([]float64, len(vendors))
	for i, ev := range vendors {
		entries[i] = ranking.Entry{Vendor: ev.vendor, TotalTCO: ev.breakdown.Total}
		totals[i] = ev.breakdown.Total
	}

	ranked := ranking.Rank(entries, e.weights, e.thresholds)
	report.Order = make([]string, 0, len(ranked))
	for _, r := range ranked {
		ev := vendors[r.Index]
		b := ev.breakdown
		comparator := e.comparatorTCO(totals, r.Index)

		res := RankedResult{
			Vendor: ev.vendor,
			TCO: TCO{
				Total:     b.Total,
				Annual:    b.Total / float64(cfg.YearsHorizon),
				PerDevice: b.Total / float64(cfg.DeviceCount),
				Breakdown: b,
			},
			ROI: roi.ComputeWithScenarios(roi.Input{
				SubjectTCO:        b.Total,
				ComparatorTCO:     comparator,
				InitialInvestment: b.Implementation,
				Years:             cfg.YearsHorizon,
				DiscountRate:      cfg.DiscountRate,
			}, e.scenarios),
			ComparatorTCO: comparator,
			Rank:          r.Rank,
			Savings:       r.Savings,
			RiskScore:     r.RiskScore,
			RiskLevel:     r.RiskLevel,
			OverallScore:  r.OverallScore,
		}
		report.Results[ev.vendor.ID] = res
		report.Order = append(report.Order, ev.vendor.ID)
	}

	e.log.Debug("calculation complete",
		zap.Int("selected", len(selected)),
		zap.Int("ranked", len(report.Order)),
		zap.Int("skipped", len(report.Warnings)),
		zap.Int("devices", cfg.DeviceCount),
		zap.Int("years", cfg.YearsHorizon),
	)
	return report, nil
}

// vendorCost resolves pricing and aggregates direct and risk costs for v.
func (e *Engine) vendorCost(v catalog.Vendor, cfg Config, c *ResultCache) (tco.Breakdown, error) {
	key := CacheKey{
		VendorID:    v.ID,
		DeviceCount: cfg.DeviceCount,
		Years:       cfg.YearsHorizon,
		Fingerprint: e.fingerprint(cfg),
	}
	if c != nil {
		if b, ok := c.get(key); ok {
			return b, nil
		}
	}

	rate, err := pricing.Resolve(v.Pricing, cfg.DeviceCount)
	if err != nil {
		return tco.Breakdown{}, fmt.Errorf("resolve pricing: %w", err)
	}

	b := tco.Aggregate(v, rate, tco.Input{
		Devices:   cfg.DeviceCount,
		Locations: cfg.LocationCount,
		Years:     cfg.YearsHorizon,
		FTECost:   cfg.FTECost,
	}, e.cost)
	b = tco.AdjustForRisk(b, v, tco.RiskInput{
		Years:                   cfg.YearsHorizon,
		BreachCost:              cfg.BreachCost,
		AnnualBreachProbability: cfg.AnnualBreachProbability,
		CompliancePenaltyRisk:   cfg.CompliancePenaltyRisk,
		DowntimeCostPerHour:     cfg.DowntimeCostPerHour,
	}, e.risk)

	if math.IsNaN(b.Total) || math.IsInf(b.Total, 0) {
		return tco.Breakdown{}, ErrNonFiniteResult
	}

	if c != nil {
		c.put(key, b)
	}
	return b, nil
}

// comparatorTCO is the baseline for the vendor at index i. A lone vendor is
// its own baseline.
func (e *Engine) comparatorTCO(totals []float64, i int) float64 {
	if len(totals) < 2 {
		return totals[i]
	}

	sum, best := 0.0, math.Inf(1)
	for j, t := range totals {
		if j == i {
			continue
		}
		sum += t
		best = math.Min(best, t)
	}
	if e.comparator == ComparatorBest {
		return best
	}
	return sum / float64(len(totals)-1)
}

// fingerprint covers every cost-relevant input not already in CacheKey.
func (e *Engine) fingerprint(cfg Config) string {
	return fmt.Sprintf("l=%d;f=%g;b=%g;p=%g;d=%g;c=%g;s=%g;k=%g",
		cfg.LocationCount, cfg.FTECost, cfg.BreachCost, cfg.AnnualBreachProbability,
		cfg.DowntimeCostPerHour, cfg.CompliancePenaltyRisk, e.cost.SupportRate, e.risk.ScalingConstant)
}

func (e *Engine) skip(id string, err error) Warning {
	e.log.Warn("skipping vendor", zap.String("vendor_id", id), zap.Error(err))
	return newWarning(id, err)
}
