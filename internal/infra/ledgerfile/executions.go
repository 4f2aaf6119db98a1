package ledgerfile

import "github.com/ecopool-network/ecopool/internal/domain"

// ─── Execution Ledger ───────────────────────────────────────────────────────

type executionDocument struct {
	Version int                           `json:"version"`
	Records []domain.BatchExecutionRecord `json:"records"`
}

// AppendExecution appends one batch execution record.
// Every run attempt — success, failure, dry run — appends exactly once.
func (s *Store) AppendExecution(rec domain.BatchExecutionRecord) error {
	return s.withExclusiveState(executionsLockKey, func() error {
		doc := executionDocument{Version: documentVersion}
		if err := s.readDocument(executionsFile, &doc); err != nil {
			return err
		}
		doc.Version = documentVersion
		doc.Records = append(doc.Records, rec)
		return s.writeAtomic(executionsFile, doc)
	})
}

// HasSuccessfulExecution scans for a prior success record for the
// (month, creditType) pair. This is the idempotency gate.
func (s *Store) HasSuccessfulExecution(month, creditType string) (bool, error) {
	doc := executionDocument{Version: documentVersion}
	if err := s.readDocument(executionsFile, &doc); err != nil {
		return false, err
	}
	for _, rec := range doc.Records {
		if rec.Status == domain.ExecSuccess && rec.Month == month && rec.CreditType == creditType {
			return true, nil
		}
	}
	return false, nil
}

// ListExecutions returns the execution history in append order,
// filtered to one month when month is non-empty.
func (s *Store) ListExecutions(month string) ([]domain.BatchExecutionRecord, error) {
	doc := executionDocument{Version: documentVersion}
	if err := s.readDocument(executionsFile, &doc); err != nil {
		return nil, err
	}
	if month == "" {
		return doc.Records, nil
	}
	var out []domain.BatchExecutionRecord
	for _, rec := range doc.Records {
		if rec.Month == month {
			out = append(out, rec)
		}
	}
	return out, nil
}
