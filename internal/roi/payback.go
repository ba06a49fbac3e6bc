package roi

import "math"

const (
	// PaybackImmediate is reported when there is nothing to recover.
	PaybackImmediate = 0.0
	// PaybackNever is reported when the investment is never recovered.
	PaybackNever = -1.0
)

// Payback returns the fractional month at which cumulative net value
// monthlyBenefit·m − investment first reaches zero, linearly interpolated
// between the last negative month and the first non-negative one.
//
// Net value is linear in m, so the first non-negative month is found in
// closed form rather than by walking the months one at a time.
func Payback(monthlyBenefit, investment float64) float64 {
	net := func(m float64) float64 {
		return monthlyBenefit*m - investment
	}

	if net(0) >= 0 {
		return PaybackImmediate
	}
	if !(monthlyBenefit > 0) {
		return PaybackNever
	}

	m := math.Ceil(investment / monthlyBenefit)
	if math.IsInf(m, 0) || math.IsNaN(m) {
		return PaybackNever
	}
	if m < 1 {
		m = 1
	}
	// Rounding in the division can land one month off either way.
	if net(m) < 0 {
		m++
	} else if m > 1 && net(m-1) >= 0 {
		m--
	}

	prev, cur := net(m-1), net(m)
	return (m - 1) + (-prev)/(cur-prev)
}
