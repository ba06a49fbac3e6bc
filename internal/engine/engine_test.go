package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Simplici0/nactco/internal/catalog"
	"github.com/Simplici0/nactco/internal/ranking"
	"github.com/Simplici0/nactco/internal/roi"
)

func referenceVendor() catalog.Vendor {
	return catalog.Vendor{
		ID:         "ref",
		Name:       "Reference Cloud",
		Deployment: catalog.DeploymentCloud,
		Pricing: catalog.Pricing{
			Model:           catalog.PricingSubscription,
			SupportIncluded: true,
			Tiers:           []catalog.Tier{{MinDevices: 1, PerDeviceMonthly: 7}},
		},
		Implementation: catalog.Implementation{BaseCost: 5000, PerDeviceCost: 5},
		Operations:     catalog.Operations{FTERequired: 0.25, AutomationLevel: 0.9},
		Scores:         catalog.Scores{Security: 90, Automation: 90, Compliance: 100, Scalability: 90},
	}
}

func riskFreeConfig() Config {
	cfg := DefaultConfig()
	cfg.DeviceCount = 2500
	cfg.YearsHorizon = 3
	cfg.FTECost = 75000
	cfg.BreachCost = 0
	cfg.CompliancePenaltyRisk = 0
	cfg.DowntimeCostPerHour = 0
	return cfg
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	return e
}

func TestCalculate_ReferenceFixture(t *testing.T) {
	cat := catalog.Catalog{"ref": referenceVendor()}

	report, err := newEngine(t).Calculate(cat, []string{"ref"}, riskFreeConfig())
	require.NoError(t, err)
	require.Empty(t, report.Warnings)
	require.Equal(t, []string{"ref"}, report.Order)

	res := report.Results["ref"]
	assert.InDelta(t, 703750, res.TCO.Total, 1e-6)
	assert.InDelta(t, 703750.0/3, res.TCO.Annual, 1e-6)
	assert.InDelta(t, 281.5, res.TCO.PerDevice, 1e-9)
	assert.InDelta(t, 630000, res.TCO.Breakdown.Licensing, 1e-6)
	assert.Equal(t, 1, res.Rank)
	assert.Zero(t, res.Savings)

	// A lone vendor is its own comparator.
	assert.InDelta(t, res.TCO.Total, res.ComparatorTCO, 1e-9)
	assert.Zero(t, res.ROI.AnnualSavings)
	assert.Equal(t, roi.PaybackNever, res.ROI.PaybackMonths)
}

func TestCalculate_DefaultCatalogRanking(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	ids := cat.IDs()

	report, err := newEngine(t).Calculate(cat, ids, DefaultConfig())
	require.NoError(t, err)
	require.Empty(t, report.Warnings)
	require.Len(t, report.Order, len(ids))

	prev := 0.0
	cheapest := report.Results[report.Order[0]].TCO.Total
	for i, id := range report.Order {
		res := report.Results[id]
		assert.Equal(t, i+1, res.Rank)
		assert.GreaterOrEqual(t, res.TCO.Total, prev)
		assert.InDelta(t, res.TCO.Total-cheapest, res.Savings, 1e-6)
		assert.InDelta(t, res.TCO.Breakdown.DirectSum(), res.TCO.Breakdown.TotalDirect, 1e-6)
		assert.GreaterOrEqual(t, res.RiskScore, 0.0)
		assert.LessOrEqual(t, res.RiskScore, 100.0)
		assert.NotEmpty(t, res.RiskLevel)

		s := res.ROI.Sensitivity
		assert.LessOrEqual(t, s.Pessimistic.AnnualSavings, s.Realistic.AnnualSavings)
		assert.LessOrEqual(t, s.Realistic.AnnualSavings, s.Optimistic.AnnualSavings)
		prev = res.TCO.Total
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	e := newEngine(t)

	first, err := e.Calculate(cat, cat.IDs(), DefaultConfig())
	require.NoError(t, err)
	second, err := e.Calculate(cat, cat.IDs(), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCalculate_SkipsUnknownAndDuplicateVendors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := newEngine(t, WithLogger(zap.New(core)))
	cat := catalog.Catalog{"ref": referenceVendor()}

	report, err := e.Calculate(cat, []string{"ref", "ghost", "ref"}, riskFreeConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"ref"}, report.Order)

	require.Len(t, report.Warnings, 2)
	assert.Equal(t, "ghost", report.Warnings[0].VendorID)
	assert.ErrorIs(t, report.Warnings[0].Err, ErrVendorNotFound)
	assert.ErrorIs(t, report.Warnings[1].Err, ErrDuplicateVendor)
	assert.Equal(t, 2, logs.FilterMessage("skipping vendor").Len())
}

func TestCalculate_SkipsVendorWithoutPricing(t *testing.T) {
	broken := referenceVendor()
	broken.ID = "broken"
	broken.Pricing = catalog.Pricing{}
	cat := catalog.Catalog{"ref": referenceVendor(), "broken": broken}

	report, err := newEngine(t).Calculate(cat, []string{"broken", "ref"}, riskFreeConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"ref"}, report.Order)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "broken", report.Warnings[0].VendorID)
}

func TestCalculate_KeysResultsBySelectedID(t *testing.T) {
	a, b := referenceVendor(), referenceVendor()
	a.ID, b.ID = "shared", "shared"
	cat := catalog.Catalog{"a": a, "b": b}

	report, err := newEngine(t).Calculate(cat, []string{"a", "b"}, riskFreeConfig())
	require.NoError(t, err)
	require.Empty(t, report.Warnings)
	assert.Equal(t, []string{"a", "b"}, report.Order)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "a", report.Results["a"].Vendor.ID)
	assert.Equal(t, "b", report.Results["b"].Vendor.ID)
}

func TestCalculate_InvalidConfigAborts(t *testing.T) {
	cat := catalog.Catalog{"ref": referenceVendor()}
	cfg := riskFreeConfig()
	cfg.DeviceCount = 0
	cfg.YearsHorizon = 2

	report, err := newEngine(t).Calculate(cat, []string{"ref"}, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "deviceCount")
	assert.Contains(t, err.Error(), "yearsHorizon")
	assert.Empty(t, report.Results)
}

func TestCalculate_EmptySelection(t *testing.T) {
	report, err := newEngine(t).Calculate(catalog.Catalog{}, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Empty(t, report.Order)
}

func TestCalculate_ComparatorModes(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	ids := cat.IDs()

	avg, err := newEngine(t).Calculate(cat, ids, DefaultConfig())
	require.NoError(t, err)
	best, err := newEngine(t, WithComparator(ComparatorBest)).Calculate(cat, ids, DefaultConfig())
	require.NoError(t, err)

	// The cheapest vendor's best alternative is the runner-up.
	first, second := avg.Order[0], avg.Order[1]
	assert.InDelta(t, avg.Results[second].TCO.Total, best.Results[first].ComparatorTCO, 1e-6)
	for _, id := range ids {
		assert.LessOrEqual(t, best.Results[id].ComparatorTCO, avg.Results[id].ComparatorTCO+1e-6)
	}
}

func TestCalculate_CacheHits(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	ids := cat.IDs()
	e := newEngine(t)
	c := NewResultCache(time.Minute, 0)

	cold, err := e.CalculateWithCache(cat, ids, DefaultConfig(), c)
	require.NoError(t, err)
	warm, err := e.CalculateWithCache(cat, ids, DefaultConfig(), c)
	require.NoError(t, err)
	assert.Equal(t, cold, warm)

	stats := c.Stats()
	assert.EqualValues(t, len(ids), stats.Misses)
	assert.EqualValues(t, len(ids), stats.Hits)
	assert.Equal(t, len(ids), stats.Entries)

	// A different risk profile must not reuse cached breakdowns.
	cfg := DefaultConfig()
	cfg.BreachCost *= 2
	_, err = e.CalculateWithCache(cat, ids, cfg, c)
	require.NoError(t, err)
	assert.EqualValues(t, len(ids), c.Stats().Hits)

	c.Flush()
	assert.Zero(t, c.Stats().Entries)
}

func TestCalculate_MoreDevicesNeverCheaper(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	e := newEngine(t)

	for _, id := range cat.IDs() {
		prev := 0.0
		for _, n := range []int{100, 1000, 2500, 5000, 10000} {
			cfg := DefaultConfig()
			cfg.DeviceCount = n
			report, err := e.Calculate(cat, []string{id}, cfg)
			require.NoError(t, err)
			total := report.Results[id].TCO.Total
			assert.GreaterOrEqual(t, total, prev, "%s at %d devices", id, n)
			prev = total
		}
	}
}

func TestNew_RejectsBadOptions(t *testing.T) {
	_, err := New(WithWeights(ranking.Weights{Security: 1, Automation: 1}))
	assert.Error(t, err)

	_, err = New(WithComparator("median"))
	assert.Error(t, err)

	bad := roi.DefaultScenarioParams()
	bad.RealisticProbability = 50
	_, err = New(WithScenarioParams(bad))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.AnnualBreachProbability = 1.5
	cfg.DiscountRate = -0.1
	cfg.LocationCount = 0
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "annualBreachProbability")
	assert.Contains(t, err.Error(), "discountRate")
	assert.Contains(t, err.Error(), "locationCount")
}
