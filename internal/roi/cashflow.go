package roi

import "math"

const (
	irrLowerBound    = -0.9999
	irrInitialUpper  = 1.0
	irrMaxUpper      = 1e6
	irrTolerance     = 1e-10
	irrMaxIterations = 500
)

// CashFlows builds the annual series [−investment, benefit, …, benefit] with
// one benefit per year of the horizon.
func CashFlows(investment, annualBenefit float64, years int) []float64 {
	flows := make([]float64, years+1)
	flows[0] = -investment
	for t := 1; t <= years; t++ {
		flows[t] = annualBenefit
	}
	return flows
}

// NPV discounts flows at rate; flows[0] is undiscounted.
func NPV(rate float64, flows []float64) float64 {
	npv := 0.0
	factor := 1.0
	for t, cf := range flows {
		if t > 0 {
			factor /= 1 + rate
		}
		npv += cf * factor
	}
	return npv
}

// PresentValue is the discounted value of the flows after period zero.
func PresentValue(rate float64, flows []float64) float64 {
	if len(flows) < 2 {
		return 0
	}
	return NPV(rate, append([]float64{0}, flows[1:]...))
}

// IRR returns the rate at which NPV(flows) is zero, found by bisection.
// It returns nil when the series never changes sign or no root can be
// bracketed in (−100%, 1e6].
func IRR(flows []float64) *float64 {
	if !hasSignChange(flows) {
		return nil
	}

	lo, hi := irrLowerBound, irrInitialUpper
	fLo, fHi := NPV(lo, flows), NPV(hi, flows)
	for sameSign(fLo, fHi) && hi < irrMaxUpper {
		hi *= 2
		fHi = NPV(hi, flows)
	}
	if sameSign(fLo, fHi) || !isFinite(fLo) || !isFinite(fHi) {
		return nil
	}

	for i := 0; i < irrMaxIterations; i++ {
		mid := (lo + hi) / 2
		fMid := NPV(mid, flows)
		if fMid == 0 || (hi-lo)/2 < irrTolerance {
			return &mid
		}
		if sameSign(fMid, fLo) {
			lo, fLo = mid, fMid
		} else {
			hi = mid
		}
	}
	return nil
}

func hasSignChange(flows []float64) bool {
	pos, neg := false, false
	for _, cf := range flows {
		switch {
		case cf > 0:
			pos = true
		case cf < 0:
			neg = true
		}
	}
	return pos && neg
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
