package database

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aristath/lcdash/pkg/embedded"
)

// seedColumns are the lending_club columns a seed file may carry.
var seedColumns = map[string]bool{
	"id": true, "member_id": true, "grade": true, "sub_grade": true,
	"loan_amnt": true, "funded_amnt": true, "term": true, "int_rate": true,
	"emp_title": true, "emp_length": true, "annual_inc": true, "loan_status": true,
	"purpose": true, "title": true, "zip_code": true, "addr_state": true,
	"dti": true, "out_prncp": true,
}

// RowCount returns the number of loans in the warehouse table.
func (db *DB) RowCount(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM lending_club").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count loans in %s: %w", db.name, err)
	}
	return n, nil
}

// Seed loads loans from CSV with a header row. Empty cells are stored as
// NULL. Unknown header names are rejected.
func (db *DB) Seed(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read seed header: %w", err)
	}
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(col))
		if !seedColumns[col] {
			return 0, fmt.Errorf("unknown seed column %q", col)
		}
		header[i] = col
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(header)), ", ")
	insert := fmt.Sprintf("INSERT INTO lending_club (%s) VALUES (%s)", strings.Join(header, ", "), placeholders)

	count := 0
	err = WithTransaction(ctx, db.conn, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("failed to prepare seed insert: %w", err)
		}
		defer stmt.Close()

		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read seed row %d: %w", count+1, err)
			}

			args := make([]interface{}, len(record))
			for i, v := range record {
				if v == "" {
					args[i] = nil
					continue
				}
				args[i] = v
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("failed to insert seed row %d: %w", count+1, err)
			}
			count++
		}
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// SeedIfEmpty loads the embedded sample when the warehouse table has no
// rows. It returns the number of rows inserted.
func (db *DB) SeedIfEmpty(ctx context.Context) (int, error) {
	n, err := db.RowCount(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	f, err := embedded.Files.Open(embedded.SeedPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open embedded seed: %w", err)
	}
	defer f.Close()

	return db.Seed(ctx, f)
}
