package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/nactco/internal/engine"
)

var errRunNotFound = errors.New("calculation run not found")

type runListItem struct {
	ID           string  `json:"id"`
	CreatedAt    string  `json:"createdAt"`
	Label        string  `json:"label"`
	BestVendorID string  `json:"bestVendorId"`
	BestTotal    float64 `json:"bestTotal"`
}

type runDetail struct {
	runListItem
	VendorIDs []string      `json:"vendorIds"`
	Config    engine.Config `json:"config"`
	Report    engine.Report `json:"report"`
}

// saveRun stores the rounded report of a calculation so it can be reviewed
// later without recalculation.
func (s *server) saveRun(ctx context.Context, run runDetail) error {
	vendorIDs, err := json.Marshal(run.VendorIDs)
	if err != nil {
		return fmt.Errorf("encode vendor ids: %w", err)
	}
	cfg, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	report, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO calculation_runs (id, label, vendor_ids, config_json, report_json, best_vendor_id, best_total)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Label, string(vendorIDs), string(cfg), string(report), run.BestVendorID, run.BestTotal); err != nil {
		return fmt.Errorf("insert calculation run: %w", err)
	}
	return nil
}

func (s *server) listRuns(ctx context.Context, query string) ([]runListItem, error) {
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, label, best_vendor_id, best_total
		FROM calculation_runs
		WHERE (? = '' OR label LIKE ? OR best_vendor_id LIKE ? OR vendor_ids LIKE ?)
		ORDER BY datetime(created_at) DESC, rowid DESC
	`, query, search, search, search)
	if err != nil {
		return nil, fmt.Errorf("query calculation runs: %w", err)
	}
	defer rows.Close()

	runs := make([]runListItem, 0)
	for rows.Next() {
		var item runListItem
		if err := rows.Scan(&item.ID, &item.CreatedAt, &item.Label, &item.BestVendorID, &item.BestTotal); err != nil {
			return nil, fmt.Errorf("scan calculation run: %w", err)
		}
		runs = append(runs, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calculation runs: %w", err)
	}

	return runs, nil
}

func (s *server) getRun(ctx context.Context, id string) (runDetail, error) {
	var (
		run                       runDetail
		vendorIDs, cfg, reportRaw string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, label, best_vendor_id, best_total, vendor_ids, config_json, report_json
		FROM calculation_runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.CreatedAt, &run.Label, &run.BestVendorID, &run.BestTotal, &vendorIDs, &cfg, &reportRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return runDetail{}, errRunNotFound
	}
	if err != nil {
		return runDetail{}, fmt.Errorf("query calculation run: %w", err)
	}

	if err := json.Unmarshal([]byte(vendorIDs), &run.VendorIDs); err != nil {
		return runDetail{}, fmt.Errorf("decode vendor ids: %w", err)
	}
	if err := json.Unmarshal([]byte(cfg), &run.Config); err != nil {
		return runDetail{}, fmt.Errorf("decode config: %w", err)
	}
	if err := json.Unmarshal([]byte(reportRaw), &run.Report); err != nil {
		return runDetail{}, fmt.Errorf("decode report: %w", err)
	}
	return run, nil
}

// runText renders a plain-text summary of a stored run.
func runText(run runDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", run.ID)
	if run.Label != "" {
		fmt.Fprintf(&b, "Label: %s\n", run.Label)
	}
	fmt.Fprintf(&b, "Created: %s\n\n", run.CreatedAt)

	b.WriteString("Assumptions:\n")
	fmt.Fprintf(&b, "- Devices: %d\n", run.Config.DeviceCount)
	fmt.Fprintf(&b, "- Locations: %d\n", run.Config.LocationCount)
	fmt.Fprintf(&b, "- Horizon: %d years\n", run.Config.YearsHorizon)
	fmt.Fprintf(&b, "- FTE cost: %.2f\n", run.Config.FTECost)
	fmt.Fprintf(&b, "- Breach cost: %.2f at %.1f%%/year\n", run.Config.BreachCost, run.Config.AnnualBreachProbability*100)
	fmt.Fprintf(&b, "- Discount rate: %.1f%%\n\n", run.Config.DiscountRate*100)

	b.WriteString("Ranking:\n")
	for _, id := range run.Report.Order {
		res := run.Report.Results[id]
		fmt.Fprintf(&b, "%d. %s: TCO %.2f (%.2f per device), ROI %s, risk %s\n",
			res.Rank, res.Vendor.Name, res.TCO.Total, res.TCO.PerDevice, roiText(res), res.RiskLevel)
	}

	if len(run.Report.Warnings) > 0 {
		b.WriteString("\nSkipped:\n")
		for _, w := range run.Report.Warnings {
			fmt.Fprintf(&b, "- %s: %s\n", w.VendorID, w.Reason)
		}
	}
	return b.String()
}

func roiText(res engine.RankedResult) string {
	if res.ROI.Unbounded {
		return "unbounded"
	}
	return fmt.Sprintf("%.2f%%", res.ROI.Percentage)
}
