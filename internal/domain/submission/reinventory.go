package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/castral/stocktake/internal/domain/project"
	"github.com/castral/stocktake/internal/domain/stock"
	"github.com/castral/stocktake/internal/repository"
)

// resolvePrevious finds the validated submission a new batch should link to.
// An explicit reference always wins; the scanned-lot heuristic never
// overrides a valid explicit reference. Returns nil when no linkage applies:
// resolution failures degrade to no linkage rather than aborting the batch.
func (s *Service) resolvePrevious(ctx context.Context, proj *project.Project, req CreateRequest) (*Submission, string) {
	if req.PreviousSubmissionID != nil {
		prev, err := s.submissions.Get(ctx, *req.PreviousSubmissionID)
		if err != nil {
			s.logger.Warn("previous submission lookup failed",
				"previous_submission_id", *req.PreviousSubmissionID, "error", err)
			return nil, ""
		}
		if prev.State != StateValidated {
			s.logger.Warn("previous submission not validated, skipping link",
				"previous_submission_id", prev.ID, "state", prev.State)
			return nil, ""
		}
		return prev, fmt.Sprintf("Re-inventory based on submission %s", prev.Reference)
	}

	if req.ScannedLotName == "" {
		return nil, ""
	}

	lot, err := s.lots.GetByName(ctx, req.ScannedLotName)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("scanned lot lookup failed", "lot_name", req.ScannedLotName, "error", err)
		}
		return nil, ""
	}

	matches, err := s.submissions.FindValidatedByLot(ctx, lot.ID, proj.LocationID)
	if err != nil {
		s.logger.Warn("previous submission search failed", "lot_id", lot.ID, "error", err)
		return nil, ""
	}
	if len(matches) == 0 {
		return nil, ""
	}

	prev := matches[0]
	note := fmt.Sprintf("Auto-detected re-inventory based on lot %s (submission %s)",
		req.ScannedLotName, prev.Reference)
	return &prev, note
}

// CheckPrevious reports whether a lot has been counted before: every
// validated submission containing a scan line for the lot, most recently
// validated first, optionally restricted to a location. Each match carries
// only the lot's own scan lines plus submission metadata.
func (s *Service) CheckPrevious(ctx context.Context, lotName string, locationID *int64) (*CheckPreviousResult, error) {
	lot, err := s.lots.GetByName(ctx, lotName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, stock.ErrLotNotFound
		}
		return nil, fmt.Errorf("resolving lot: %w", err)
	}

	matches, err := s.submissions.FindValidatedByLot(ctx, lot.ID, locationID)
	if err != nil {
		return nil, fmt.Errorf("searching previous submissions: %w", err)
	}

	previous := make([]PreviousMatch, 0, len(matches))
	for _, sub := range matches {
		lines, err := s.scanLines.ListBySubmissionAndLot(ctx, sub.ID, lot.ID)
		if err != nil {
			return nil, fmt.Errorf("listing lot scan lines: %w", err)
		}
		if len(lines) == 0 {
			continue
		}
		previous = append(previous, PreviousMatch{Submission: sub, ScanLines: lines})
	}

	return &CheckPreviousResult{
		HasPrevious: len(previous) > 0,
		Lot:         *lot,
		Previous:    previous,
	}, nil
}
