package main

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/nactco/internal/engine"
	"github.com/Simplici0/nactco/internal/roi"
	"github.com/Simplici0/nactco/internal/tco"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// cents rounds a currency amount or percentage half away from zero to two
// decimal places.
func cents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// roundReport returns a copy of r with every amount rounded for display.
// Engine results stay unrounded; only the response is rounded.
func roundReport(r engine.Report) engine.Report {
	out := engine.Report{
		Results:  make(map[string]engine.RankedResult, len(r.Results)),
		Order:    r.Order,
		Warnings: r.Warnings,
	}
	for id, res := range r.Results {
		res.TCO = engine.TCO{
			Total:     cents(res.TCO.Total),
			Annual:    cents(res.TCO.Annual),
			PerDevice: cents(res.TCO.PerDevice),
			Breakdown: roundBreakdown(res.TCO.Breakdown),
		}
		res.ROI = roundROI(res.ROI)
		res.ComparatorTCO = cents(res.ComparatorTCO)
		res.Savings = cents(res.Savings)
		res.RiskScore = cents(res.RiskScore)
		res.OverallScore = cents(res.OverallScore)
		out.Results[id] = res
	}
	return out
}

func roundBreakdown(b tco.Breakdown) tco.Breakdown {
	return tco.Breakdown{
		Licensing:      cents(b.Licensing),
		Implementation: cents(b.Implementation),
		Support:        cents(b.Support),
		Infrastructure: cents(b.Infrastructure),
		Personnel:      cents(b.Personnel),
		Training:       cents(b.Training),
		Hidden:         cents(b.Hidden),
		Risk: tco.RiskCosts{
			Breach:     cents(b.Risk.Breach),
			Compliance: cents(b.Risk.Compliance),
			Downtime:   cents(b.Risk.Downtime),
		},
		TotalDirect: cents(b.TotalDirect),
		Total:       cents(b.Total),
	}
}

func roundROI(r roi.Result) roi.Result {
	r.Percentage = cents(r.Percentage)
	r.AnnualSavings = cents(r.AnnualSavings)
	r.MonthlyBenefit = cents(r.MonthlyBenefit)
	r.SavingsPercent = cents(r.SavingsPercent)
	r.PaybackMonths = cents(r.PaybackMonths)
	r.NPV = cents(r.NPV)
	r.ProfitabilityIndex = cents(r.ProfitabilityIndex)
	if r.IRR != nil {
		irr := decimal.NewFromFloat(*r.IRR).Round(4).InexactFloat64()
		r.IRR = &irr
	}
	cumulative := make([]float64, len(r.CumulativeByYear))
	for i, v := range r.CumulativeByYear {
		cumulative[i] = cents(v)
	}
	r.CumulativeByYear = cumulative

	s := r.Sensitivity
	s.Pessimistic = roundScenario(s.Pessimistic)
	s.Realistic = roundScenario(s.Realistic)
	s.Optimistic = roundScenario(s.Optimistic)
	s.ExpectedROI = cents(s.ExpectedROI)
	r.Sensitivity = s
	return r
}

func roundScenario(s roi.Scenario) roi.Scenario {
	s.ROI = cents(s.ROI)
	s.AnnualSavings = cents(s.AnnualSavings)
	s.PaybackMonths = cents(s.PaybackMonths)
	return s
}
