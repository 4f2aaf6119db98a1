package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ecopool-network/ecopool/internal/domain"
)

// ─── Execution Ledger Operations ────────────────────────────────────────────

// AppendExecution appends one batch execution record.
func (d *DB) AppendExecution(rec domain.BatchExecutionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal execution record: %w", err)
	}
	dryRun := 0
	if rec.DryRun {
		dryRun = 1
	}
	_, err = d.db.Exec(`
		INSERT INTO executions (id, month, credit_type, status, dry_run, record_json, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Month, rec.CreditType, string(rec.Status), dryRun,
		string(payload), rec.ExecutedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// HasSuccessfulExecution reports whether a success record exists for
// (month, creditType). This is the idempotency gate.
func (d *DB) HasSuccessfulExecution(month, creditType string) (bool, error) {
	var count int
	err := d.db.QueryRow(`
		SELECT COUNT(*) FROM executions
		WHERE month = ? AND credit_type = ? AND status = ?
	`, month, creditType, string(domain.ExecSuccess)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query idempotency gate: %w", err)
	}
	return count > 0, nil
}

// ListExecutions returns the execution history in insert order,
// filtered to one month when month is non-empty.
func (d *DB) ListExecutions(month string) ([]domain.BatchExecutionRecord, error) {
	query := `SELECT record_json FROM executions ORDER BY rowid`
	args := []interface{}{}
	if month != "" {
		query = `SELECT record_json FROM executions WHERE month = ? ORDER BY rowid`
		args = append(args, month)
	}
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	var out []domain.BatchExecutionRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec domain.BatchExecutionRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal execution record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
