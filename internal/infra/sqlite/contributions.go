package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ecopool-network/ecopool/internal/domain"
)

// ─── Contribution Ledger Operations ─────────────────────────────────────────

// AppendContribution stores rec unless an earlier record carries the same
// external event id. The check and insert share one transaction, and the
// partial unique index backstops any race the transaction misses.
func (d *DB) AppendContribution(rec domain.ContributionRecord) (domain.ContributionRecord, bool, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return domain.ContributionRecord{}, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if rec.ExternalEventID != "" {
		existing, err := scanContribution(tx.QueryRow(
			selectContribution+` WHERE external_event_id = ?`, rec.ExternalEventID))
		if err != nil && err != sql.ErrNoRows {
			return domain.ContributionRecord{}, false, fmt.Errorf("dedup lookup: %w", err)
		}
		if err == nil {
			return existing, true, nil
		}
	}

	_, err = tx.Exec(`
		INSERT INTO contributions
			(id, user_id, email, customer_id, amount_usd_cents, contributed_at, month, external_event_id, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.UserID, nullable(rec.Email), nullable(rec.CustomerID),
		rec.AmountUsdCents, rec.ContributedAt.UTC().Format(time.RFC3339Nano),
		rec.Month, nullable(rec.ExternalEventID), nullable(rec.Source))
	if err != nil {
		// Another writer (a second process on the same file) can commit
		// the same event id between our lookup and insert; the unique
		// index catches it. Resolve to the stored record, not an error.
		if isUniqueViolation(err) && rec.ExternalEventID != "" {
			tx.Rollback()
			existing, serr := scanContribution(d.db.QueryRow(
				selectContribution+` WHERE external_event_id = ?`, rec.ExternalEventID))
			if serr != nil {
				return domain.ContributionRecord{}, false, fmt.Errorf("dedup re-read: %w", serr)
			}
			return existing, true, nil
		}
		return domain.ContributionRecord{}, false, fmt.Errorf("insert contribution: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.ContributionRecord{}, false, fmt.Errorf("commit: %w", err)
	}
	return rec, false, nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure (extended result code 2067, SQLITE_CONSTRAINT_UNIQUE).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ContributionsByMonth returns the month's contributions in insert order.
func (d *DB) ContributionsByMonth(month string) ([]domain.ContributionRecord, error) {
	rows, err := d.db.Query(selectContribution+` WHERE month = ? ORDER BY rowid`, month)
	if err != nil {
		return nil, fmt.Errorf("query contributions: %w", err)
	}
	defer rows.Close()

	var out []domain.ContributionRecord
	for rows.Next() {
		rec, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

const selectContribution = `
	SELECT id, user_id, email, customer_id, amount_usd_cents, contributed_at, month, external_event_id, source
	FROM contributions`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContribution(row rowScanner) (domain.ContributionRecord, error) {
	var rec domain.ContributionRecord
	var email, customerID, eventID, source sql.NullString
	var contributedAt string
	if err := row.Scan(&rec.ID, &rec.UserID, &email, &customerID,
		&rec.AmountUsdCents, &contributedAt, &rec.Month, &eventID, &source); err != nil {
		return domain.ContributionRecord{}, err
	}
	rec.Email = email.String
	rec.CustomerID = customerID.String
	rec.ExternalEventID = eventID.String
	rec.Source = source.String
	rec.ContributedAt, _ = time.Parse(time.RFC3339Nano, contributedAt)
	return rec, nil
}

// nullable maps "" to NULL so the partial unique index ignores records
// without an external event id.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
