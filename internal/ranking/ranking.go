// Package ranking orders vendor results by TCO and scores them.
package ranking

import (
	"fmt"
	"math"
	"sort"

	"github.com/Simplici0/nactco/internal/catalog"
)

// RiskLevel buckets a vendor's residual risk posture.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Thresholds map a risk posture score (0-100) onto risk levels.
type Thresholds struct {
	Low    float64
	Medium float64
}

// DefaultThresholds: ≥ 85 low, ≥ 60 medium, otherwise high.
func DefaultThresholds() Thresholds {
	return Thresholds{Low: 85, Medium: 60}
}

// Weights combine the capability sub-scores into the overall score.
type Weights struct {
	Security    float64
	Automation  float64
	Compliance  float64
	Scalability float64
}

// DefaultWeights returns the standard composite weighting.
func DefaultWeights() Weights {
	return Weights{Security: 0.35, Automation: 0.25, Compliance: 0.25, Scalability: 0.15}
}

// Sum adds the weights.
func (w Weights) Sum() float64 {
	return w.Security + w.Automation + w.Compliance + w.Scalability
}

// Validate rejects weights that do not sum to 1.0.
func (w Weights) Validate() error {
	if math.Abs(w.Sum()-1) > 1e-9 {
		return fmt.Errorf("score weights sum to %v, want 1.0", w.Sum())
	}
	return nil
}

// Entry is the input to Rank for one vendor.
type Entry struct {
	Vendor   catalog.Vendor
	TotalTCO float64
}

// Ranked is a ranked vendor. Index refers to the position in Rank's input.
type Ranked struct {
	Index        int
	Rank         int
	Savings      float64
	RiskScore    float64
	RiskLevel    RiskLevel
	OverallScore float64
}

// Rank orders entries by TCO ascending (NaN last, ties by vendor name then id),
// assigns 1-based ranks and scores each entry.
func Rank(entries []Entry, w Weights, th Thresholds) []Ranked {
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return Less(entries[order[a]], entries[order[b]])
	})

	minTCO := math.NaN()
	for _, e := range entries {
		if !math.IsNaN(e.TotalTCO) && (math.IsNaN(minTCO) || e.TotalTCO < minTCO) {
			minTCO = e.TotalTCO
		}
	}

	out := make([]Ranked, len(order))
	for pos, idx := range order {
		e := entries[idx]
		risk := RiskScore(e.Vendor)
		out[pos] = Ranked{
			Index:        idx,
			Rank:         pos + 1,
			Savings:      savings(e.TotalTCO, minTCO),
			RiskScore:    risk,
			RiskLevel:    Level(risk, th),
			OverallScore: OverallScore(e.Vendor.Scores, w),
		}
	}
	return out
}

// Less reports whether a ranks before b.
func Less(a, b Entry) bool {
	aNaN, bNaN := math.IsNaN(a.TotalTCO), math.IsNaN(b.TotalTCO)
	switch {
	case aNaN != bNaN:
		return bNaN
	case !aNaN && a.TotalTCO != b.TotalTCO:
		return a.TotalTCO < b.TotalTCO
	case a.Vendor.Name != b.Vendor.Name:
		return a.Vendor.Name < b.Vendor.Name
	default:
		return a.Vendor.ID < b.Vendor.ID
	}
}

func savings(tco, minTCO float64) float64 {
	if math.IsNaN(tco) || math.IsNaN(minTCO) {
		return 0
	}
	return math.Max(0, tco-minTCO)
}

// RiskScore is the vendor's risk posture on a 0-100 scale: the mean of its
// security score and the share of breach exposure it removes.
func RiskScore(v catalog.Vendor) float64 {
	mitigated := 1 - math.Min(math.Max(v.RiskReductionFactor, 0), 1)
	return 0.5*clampScore(v.Scores.Security) + 0.5*mitigated*100
}

// Level buckets a risk posture score.
func Level(score float64, th Thresholds) RiskLevel {
	switch {
	case score >= th.Low:
		return RiskLow
	case score >= th.Medium:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// OverallScore is the weighted composite of the capability sub-scores.
func OverallScore(s catalog.Scores, w Weights) float64 {
	return clampScore(s.Security)*w.Security +
		clampScore(s.Automation)*w.Automation +
		clampScore(s.Compliance)*w.Compliance +
		clampScore(s.Scalability)*w.Scalability
}

func clampScore(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
