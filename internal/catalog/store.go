package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Store persists catalog snapshots in the vendors table.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Load reads every stored vendor into a Catalog.
func (s *Store) Load(ctx context.Context) (Catalog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, offering_json
		FROM vendors
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query vendors: %w", err)
	}
	defer rows.Close()

	cat := make(Catalog)
	for rows.Next() {
		var (
			id  string
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}

		var v Vendor
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decode vendor %q: %w", id, err)
		}
		v.ID = id
		cat[id] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vendors: %w", err)
	}

	return cat, nil
}

// Replace swaps the stored catalog for cat in a single transaction.
func (s *Store) Replace(ctx context.Context, cat Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM vendors`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear vendors: %w", err)
	}
	for _, v := range cat.Vendors() {
		if err := insertVendor(ctx, tx, v); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog transaction: %w", err)
	}
	return nil
}

// InsertIfMissing stores v unless a vendor with the same id exists.
// It reports whether a row was written.
func InsertIfMissing(ctx context.Context, tx *sql.Tx, v Vendor) (bool, error) {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM vendors WHERE id = ? LIMIT 1)`, v.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check vendor %q existence: %w", v.ID, err)
	}
	if exists {
		return false, nil
	}
	if err := insertVendor(ctx, tx, v); err != nil {
		return false, err
	}
	return true, nil
}

func insertVendor(ctx context.Context, tx *sql.Tx, v Vendor) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode vendor %q: %w", v.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO vendors (id, name, deployment, offering_json)
		VALUES (?, ?, ?, ?)
	`, v.ID, v.Name, string(v.Deployment), string(raw)); err != nil {
		return fmt.Errorf("insert vendor %q: %w", v.ID, err)
	}
	return nil
}
