package ledgerfile

import "github.com/ecopool-network/ecopool/internal/domain"

// ─── Contribution Ledger ────────────────────────────────────────────────────

type contributionDocument struct {
	Version int                         `json:"version"`
	Records []domain.ContributionRecord `json:"records"`
}

// AppendContribution appends rec unless a record with the same non-empty
// external event id already exists. The dedup check and the append happen
// under the same lock hold, so N racing deliveries of one billing event
// resolve to exactly one stored record.
func (s *Store) AppendContribution(rec domain.ContributionRecord) (domain.ContributionRecord, bool, error) {
	var stored domain.ContributionRecord
	var duplicate bool

	err := s.withExclusiveState(contributionsLockKey, func() error {
		doc := contributionDocument{Version: documentVersion}
		if err := s.readDocument(contributionsFile, &doc); err != nil {
			return err
		}

		if rec.ExternalEventID != "" {
			for _, existing := range doc.Records {
				if existing.ExternalEventID == rec.ExternalEventID {
					stored = existing
					duplicate = true
					return nil
				}
			}
		}

		doc.Version = documentVersion
		doc.Records = append(doc.Records, rec)
		if err := s.writeAtomic(contributionsFile, doc); err != nil {
			return err
		}
		stored = rec
		return nil
	})
	if err != nil {
		return domain.ContributionRecord{}, false, err
	}
	return stored, duplicate, nil
}

// ContributionsByMonth returns the month's contributions in append order.
func (s *Store) ContributionsByMonth(month string) ([]domain.ContributionRecord, error) {
	doc := contributionDocument{Version: documentVersion}
	if err := s.readDocument(contributionsFile, &doc); err != nil {
		return nil, err
	}

	var out []domain.ContributionRecord
	for _, rec := range doc.Records {
		if rec.Month == month {
			out = append(out, rec)
		}
	}
	return out, nil
}
