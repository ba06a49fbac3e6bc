package roi

import (
	"errors"
	"fmt"
	"math"
)

// Default scenario multipliers and probability weights (percent).
const (
	PessimisticMultiplier  = 0.7
	OptimisticMultiplier   = 1.3
	PessimisticProbability = 20
	RealisticProbability   = 60
	OptimisticProbability  = 20
)

// ScenarioParams configures the three-scenario sensitivity analysis.
type ScenarioParams struct {
	PessimisticMultiplier  float64
	OptimisticMultiplier   float64
	PessimisticProbability int
	RealisticProbability   int
	OptimisticProbability  int
}

// DefaultScenarioParams returns the 0.7/1.0/1.3 multipliers weighted 20/60/20.
func DefaultScenarioParams() ScenarioParams {
	return ScenarioParams{
		PessimisticMultiplier:  PessimisticMultiplier,
		OptimisticMultiplier:   OptimisticMultiplier,
		PessimisticProbability: PessimisticProbability,
		RealisticProbability:   RealisticProbability,
		OptimisticProbability:  OptimisticProbability,
	}
}

// Validate checks that the probabilities sum to 100 and the multipliers
// bracket the realistic case.
func (p ScenarioParams) Validate() error {
	var errs []error
	if sum := p.PessimisticProbability + p.RealisticProbability + p.OptimisticProbability; sum != 100 {
		errs = append(errs, fmt.Errorf("scenario probabilities sum to %d, want 100", sum))
	}
	if p.PessimisticProbability < 0 || p.RealisticProbability < 0 || p.OptimisticProbability < 0 {
		errs = append(errs, errors.New("scenario probabilities must be non-negative"))
	}
	if p.PessimisticMultiplier < 0 || p.PessimisticMultiplier > 1 {
		errs = append(errs, fmt.Errorf("pessimistic multiplier %v outside [0,1]", p.PessimisticMultiplier))
	}
	if p.OptimisticMultiplier < 1 {
		errs = append(errs, fmt.Errorf("optimistic multiplier %v below 1", p.OptimisticMultiplier))
	}
	return errors.Join(errs...)
}

// Scenario is one variant of the ROI analysis.
type Scenario struct {
	ROI           float64 `json:"roi"`
	Unbounded     bool    `json:"unbounded"`
	AnnualSavings float64 `json:"annualSavings"`
	PaybackMonths float64 `json:"paybackMonths"`
	Probability   int     `json:"probability"`
}

// Sensitivity holds the three scenarios and their probability-weighted ROI.
type Sensitivity struct {
	Pessimistic Scenario `json:"pessimistic"`
	Realistic   Scenario `json:"realistic"`
	Optimistic  Scenario `json:"optimistic"`
	ExpectedROI float64  `json:"expectedRoi"`
}

// Analyze derives the pessimistic and optimistic variants from the realistic
// result by scaling annual savings. Scaling moves the magnitude, so a
// pessimistic variant of a loss is a larger loss.
func Analyze(in Input, realistic Result, p ScenarioParams) Sensitivity {
	years := in.Years
	if years < 1 {
		years = 1
	}
	investment := finiteOrZero(in.InitialInvestment)

	variant := func(multiplier float64, probability int) Scenario {
		savings := scaleSavings(realistic.AnnualSavings, multiplier)
		pct, unbounded := percentage(savings, investment, years)
		return Scenario{
			ROI:           pct,
			Unbounded:     unbounded,
			AnnualSavings: savings,
			PaybackMonths: Payback(savings/12, investment),
			Probability:   probability,
		}
	}

	s := Sensitivity{
		Pessimistic: variant(p.PessimisticMultiplier, p.PessimisticProbability),
		Realistic: Scenario{
			ROI:           realistic.Percentage,
			Unbounded:     realistic.Unbounded,
			AnnualSavings: realistic.AnnualSavings,
			PaybackMonths: realistic.PaybackMonths,
			Probability:   p.RealisticProbability,
		},
		Optimistic: variant(p.OptimisticMultiplier, p.OptimisticProbability),
	}
	s.ExpectedROI = finiteOrZero(weighted(s.Pessimistic) + weighted(s.Realistic) + weighted(s.Optimistic))
	return s
}

func weighted(s Scenario) float64 {
	return s.ROI * (float64(s.Probability) / 100)
}

func scaleSavings(savings, multiplier float64) float64 {
	return savings + math.Abs(savings)*(multiplier-1)
}
