package ranking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/nactco/internal/catalog"
)

func entry(id, name string, tco float64) Entry {
	return Entry{Vendor: catalog.Vendor{ID: id, Name: name}, TotalTCO: tco}
}

func TestRank_OrdersByTCOThenName(t *testing.T) {
	entries := []Entry{
		entry("c", "Charlie", 300),
		entry("b", "Bravo", 100),
		entry("a", "Alpha", 100),
		entry("d", "Delta", 50),
	}

	got := Rank(entries, DefaultWeights(), DefaultThresholds())
	require.Len(t, got, 4)

	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = entries[r.Index].Vendor.ID
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids)

	assert.Zero(t, got[0].Savings)
	assert.InDelta(t, 50, got[1].Savings, 1e-9)
	assert.InDelta(t, 250, got[3].Savings, 1e-9)
}

func TestRank_NaNSortsLast(t *testing.T) {
	entries := []Entry{
		entry("x", "Aardvark", math.NaN()),
		entry("y", "Zebra", 900),
		entry("z", "Yak", 1000),
	}

	got := Rank(entries, DefaultWeights(), DefaultThresholds())
	assert.Equal(t, "x", entries[got[2].Index].Vendor.ID)
	assert.Equal(t, 3, got[2].Rank)
	assert.Zero(t, got[2].Savings)
	assert.InDelta(t, 100, got[1].Savings, 1e-9)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil, DefaultWeights(), DefaultThresholds()))
}

func TestLevelThresholds(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, RiskLow, Level(85, th))
	assert.Equal(t, RiskMedium, Level(84.99, th))
	assert.Equal(t, RiskMedium, Level(60, th))
	assert.Equal(t, RiskHigh, Level(59.9, th))
}

func TestRiskScore(t *testing.T) {
	v := catalog.Vendor{Scores: catalog.Scores{Security: 90}, RiskReductionFactor: 0.2}
	assert.InDelta(t, 85, RiskScore(v), 1e-9)

	v.RiskReductionFactor = -3
	v.Scores.Security = 140
	assert.InDelta(t, 100, RiskScore(v), 1e-9)

	v.RiskReductionFactor = 3
	assert.InDelta(t, 50, RiskScore(v), 1e-9)
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())
	require.Error(t, Weights{Security: 0.5, Automation: 0.6}.Validate())
}

func TestOverallScore(t *testing.T) {
	s := catalog.Scores{Security: 100, Automation: 80, Compliance: 60, Scalability: 40}
	want := 100*0.35 + 80*0.25 + 60*0.25 + 40*0.15
	assert.InDelta(t, want, OverallScore(s, DefaultWeights()), 1e-9)

	uniform := catalog.Scores{Security: 70, Automation: 70, Compliance: 70, Scalability: 70}
	assert.InDelta(t, 70, OverallScore(uniform, DefaultWeights()), 1e-9)
}
