package roi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayback_InterpolatesBetweenMonths(t *testing.T) {
	// month 2: −500, month 3: +500
	assert.InDelta(t, 2.5, Payback(1000, 2500), 1e-12)
	assert.InDelta(t, 3.0, Payback(1000, 3000), 1e-12)
	assert.InDelta(t, 0.25, Payback(4000, 1000), 1e-12)
}

func TestPayback_Sentinels(t *testing.T) {
	assert.Equal(t, PaybackImmediate, Payback(1000, 0))
	assert.Equal(t, PaybackImmediate, Payback(-5, -10))
	assert.Equal(t, PaybackNever, Payback(0, 100))
	assert.Equal(t, PaybackNever, Payback(-100, 100))
	assert.Equal(t, PaybackNever, Payback(1e-320, 1))
}

func TestPayback_LongHorizons(t *testing.T) {
	assert.InDelta(t, 5000, Payback(1, 5000), 1e-9)
	assert.InDelta(t, 1e9, Payback(1, 1e9), 1e-3)
	assert.InDelta(t, 5000/3.0, Payback(3, 5000), 1e-9)
}

func TestNPV(t *testing.T) {
	flows := []float64{-1000, 500, 500, 500}
	want := -1000 + 500/1.1 + 500/math.Pow(1.1, 2) + 500/math.Pow(1.1, 3)
	assert.InDelta(t, want, NPV(0.1, flows), 1e-9)
	assert.InDelta(t, 500.0, NPV(0, flows), 1e-9)
	assert.InDelta(t, want+1000, PresentValue(0.1, flows), 1e-9)
	assert.Zero(t, PresentValue(0.1, []float64{-5}))
}

func TestIRR_FindsRoot(t *testing.T) {
	flows := []float64{-1000, 500, 500, 500}
	irr := IRR(flows)
	require.NotNil(t, irr)
	assert.InDelta(t, 0.2337519, *irr, 1e-6)
	assert.InDelta(t, 0, NPV(*irr, flows), 1e-6)
}

func TestIRR_HighReturnNeedsBracketExpansion(t *testing.T) {
	irr := IRR([]float64{-100, 1000})
	require.NotNil(t, irr)
	assert.InDelta(t, 9.0, *irr, 1e-6)
}

func TestIRR_NotComputableWithoutSignChange(t *testing.T) {
	assert.Nil(t, IRR([]float64{-100, -5, -5}))
	assert.Nil(t, IRR([]float64{0, 5, 5}))
	assert.Nil(t, IRR([]float64{0, 0}))
}

func TestCompute_Basic(t *testing.T) {
	res := Compute(Input{
		SubjectTCO:        700000,
		ComparatorTCO:     1000000,
		InitialInvestment: 20000,
		Years:             3,
		DiscountRate:      0.08,
	})

	assert.InDelta(t, 100000, res.AnnualSavings, 1e-9)
	assert.InDelta(t, 100000.0/12, res.MonthlyBenefit, 1e-9)
	assert.InDelta(t, (300000.0-20000)/20000*100, res.Percentage, 1e-9)
	assert.False(t, res.Unbounded)
	assert.InDelta(t, 30, res.SavingsPercent, 1e-9)
	assert.InDelta(t, 2.4, res.PaybackMonths, 1e-9)

	flows := CashFlows(20000, 100000, 3)
	assert.InDelta(t, NPV(0.08, flows), res.NPV, 1e-9)
	require.NotNil(t, res.IRR)
	assert.InDelta(t, PresentValue(0.08, flows)/20000, res.ProfitabilityIndex, 1e-9)
	assert.Equal(t, []float64{80000, 180000, 280000}, res.CumulativeByYear)
}

func TestCompute_ZeroInvestmentIsUnbounded(t *testing.T) {
	res := Compute(Input{SubjectTCO: 100, ComparatorTCO: 400, Years: 3, DiscountRate: 0.1})

	assert.True(t, res.Unbounded)
	assert.Zero(t, res.Percentage)
	assert.False(t, math.IsNaN(res.Percentage))
	assert.Equal(t, PaybackImmediate, res.PaybackMonths)
	assert.Zero(t, res.ProfitabilityIndex)
	assert.Nil(t, res.IRR)
}

func TestCompute_NoSavingsNeverPaysBack(t *testing.T) {
	res := Compute(Input{SubjectTCO: 500, ComparatorTCO: 500, InitialInvestment: 100, Years: 1})

	assert.Zero(t, res.AnnualSavings)
	assert.InDelta(t, -100, res.Percentage, 1e-9)
	assert.Equal(t, PaybackNever, res.PaybackMonths)
	assert.Nil(t, res.IRR)
}

func TestSavingsPercent_ZeroComparator(t *testing.T) {
	assert.Zero(t, SavingsPercent(100, 0))
	assert.InDelta(t, -25, SavingsPercent(125, 100), 1e-9)
}

func TestScenarios_OrderedAndWeighted(t *testing.T) {
	inputs := []Input{
		{SubjectTCO: 700000, ComparatorTCO: 1000000, InitialInvestment: 20000, Years: 3, DiscountRate: 0.08},
		{SubjectTCO: 1200000, ComparatorTCO: 1000000, InitialInvestment: 50000, Years: 5, DiscountRate: 0.05},
		{SubjectTCO: 100, ComparatorTCO: 900, Years: 1},
		{SubjectTCO: 900, ComparatorTCO: 100, Years: 1},
	}

	for _, in := range inputs {
		s := Compute(in).Sensitivity
		assert.LessOrEqual(t, s.Pessimistic.ROI, s.Realistic.ROI)
		assert.LessOrEqual(t, s.Realistic.ROI, s.Optimistic.ROI)
		assert.LessOrEqual(t, s.Pessimistic.AnnualSavings, s.Realistic.AnnualSavings)
		assert.LessOrEqual(t, s.Realistic.AnnualSavings, s.Optimistic.AnnualSavings)
		assert.Equal(t, 100, s.Pessimistic.Probability+s.Realistic.Probability+s.Optimistic.Probability)
	}
}

func TestScenarios_OverflowingROIIsUnbounded(t *testing.T) {
	s := Compute(Input{SubjectTCO: 0, ComparatorTCO: 1.5e306, InitialInvestment: 1, Years: 3}).Sensitivity

	assert.False(t, s.Pessimistic.Unbounded)
	assert.False(t, s.Realistic.Unbounded)
	assert.True(t, s.Optimistic.Unbounded)
	assert.LessOrEqual(t, s.Pessimistic.ROI, s.Realistic.ROI)
	assert.False(t, math.IsInf(s.ExpectedROI, 0))
	assert.Greater(t, s.ExpectedROI, 0.0)
}

func TestScenarios_ScaleSavings(t *testing.T) {
	res := Compute(Input{SubjectTCO: 0, ComparatorTCO: 36000, InitialInvestment: 6000, Years: 3})
	s := res.Sensitivity

	assert.InDelta(t, 8400, s.Pessimistic.AnnualSavings, 1e-9)
	assert.InDelta(t, 15600, s.Optimistic.AnnualSavings, 1e-9)
	assert.InDelta(t, 6000/700.0, s.Pessimistic.PaybackMonths, 1e-9)
	assert.InDelta(t, (8400.0*3-6000)/6000*100, s.Pessimistic.ROI, 1e-9)

	want := 0.2*s.Pessimistic.ROI + 0.6*s.Realistic.ROI + 0.2*s.Optimistic.ROI
	assert.InDelta(t, want, s.ExpectedROI, 1e-9)
}

func TestScenarioParams_Validate(t *testing.T) {
	require.NoError(t, DefaultScenarioParams().Validate())

	bad := DefaultScenarioParams()
	bad.RealisticProbability = 50
	require.Error(t, bad.Validate())

	bad = DefaultScenarioParams()
	bad.PessimisticMultiplier = 1.2
	bad.OptimisticMultiplier = 0.9
	require.Error(t, bad.Validate())
}
