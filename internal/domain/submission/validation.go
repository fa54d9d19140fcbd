package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/castral/stocktake/internal/domain/stock"
	"github.com/castral/stocktake/internal/repository"
)

// validateLineInput checks the fields required before a lot lookup is even
// attempted: a lot identifier (id or name) and a scanned quantity.
func validateLineInput(in LineInput) error {
	if in.Lot.IsZero() || in.ScannedQty == nil {
		return ErrMissingFields
	}
	return nil
}

// resolveLot resolves a LotRef with a single lookup: by id when set,
// otherwise by unique name.
func (s *Service) resolveLot(ctx context.Context, ref LotRef) (*stock.Lot, error) {
	var (
		lot *stock.Lot
		err error
	)
	if ref.ID != 0 {
		lot, err = s.lots.GetByID(ctx, ref.ID)
	} else {
		lot, err = s.lots.GetByName(ctx, ref.Name)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, stock.ErrLotNotFound
		}
		return nil, fmt.Errorf("resolving lot: %w", err)
	}
	return lot, nil
}

// lineStateFor returns the state a newly added line inherits from its parent
// submission.
func lineStateFor(s State) LineState {
	if s == StateDraft {
		return LineDraft
	}
	return LineSubmitted
}

// agentNotes prefixes free-text line notes with the acting agent's name for
// traceability.
func agentNotes(agentName, notes string) string {
	if notes == "" {
		return fmt.Sprintf("Agent: %s", agentName)
	}
	return fmt.Sprintf("Agent: %s - %s", agentName, notes)
}
