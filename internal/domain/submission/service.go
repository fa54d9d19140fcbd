package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/castral/stocktake/internal/domain/agent"
	"github.com/castral/stocktake/internal/domain/project"
	"github.com/castral/stocktake/internal/domain/stock"
	"github.com/castral/stocktake/internal/repository"
)

// Service owns the submission/scan-line state machine: batch creation,
// line mutation within the editable window, and the listing surface.
type Service struct {
	submissions SubmissionRepository
	scanLines   ScanLineRepository
	lots        LotRepository
	projects    ProjectRepository
	quants      QuantRepository
	logger      *slog.Logger
}

// NewService creates a new submission service.
func NewService(
	submissions SubmissionRepository,
	scanLines ScanLineRepository,
	lots LotRepository,
	projects ProjectRepository,
	quants QuantRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		submissions: submissions,
		scanLines:   scanLines,
		lots:        lots,
		projects:    projects,
		quants:      quants,
		logger:      logger,
	}
}

// Create validates and persists a batch submission. The batch is atomic:
// every line must validate or nothing is created. On success the submission
// and all its lines advance from draft to submitted.
func (s *Service) Create(ctx context.Context, acting *agent.Agent, req CreateRequest) (*CreateResult, error) {
	if req.ProjectID == 0 || len(req.Lines) == 0 {
		return nil, ErrEmptyBatch
	}

	proj, err := s.projects.Get(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, project.ErrProjectNotFound
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}
	if proj.State != project.StateInProgress {
		return nil, project.ErrNotInProgress
	}

	// Validate phase: read-only, nothing persisted before every line passes.
	results, resolved, allValid := s.validateBatch(ctx, req.Lines)
	if !allValid {
		return nil, &BatchError{Lines: results}
	}

	now := time.Now()
	sub := &Submission{
		ProjectID:          proj.ID,
		ProjectName:        proj.Name,
		LocationID:         proj.LocationID,
		AgentID:            acting.ID,
		RackID:             req.RackID,
		Notes:              req.Notes,
		State:              StateDraft,
		SubmissionDatetime: now,
	}

	// Link phase: explicit reference wins over the scanned-lot heuristic.
	// Linkage failures degrade to no linkage and are logged, never fatal.
	prev, linkNote := s.resolvePrevious(ctx, proj, req)
	if prev != nil {
		sub.PreviousSubmission = &prev.ID
		if sub.Notes != "" {
			sub.Notes = sub.Notes + "\n" + linkNote
		} else {
			sub.Notes = linkNote
		}
		if prev.ProductID != nil {
			sub.ProductID = prev.ProductID
		}
	}

	// Product homogeneity: a single distinct product across lines is set on
	// the submission; mixed-product batches leave it unset.
	products := map[int64]struct{}{}
	for _, lot := range resolved {
		products[lot.ProductID] = struct{}{}
	}
	if len(products) == 1 {
		id := resolved[0].ProductID
		sub.ProductID = &id
	}

	lines := make([]*ScanLine, len(req.Lines))
	for i, in := range req.Lines {
		lot := resolved[i]
		theoretical := decimal.Zero
		if proj.LocationID != nil {
			theoretical, err = s.quants.LotQuantity(ctx, lot.ProductID, lot.ID, *proj.LocationID)
			if err != nil {
				return nil, fmt.Errorf("reading theoretical stock: %w", err)
			}
		}
		rackID := in.RackID
		if rackID == nil {
			rackID = req.RackID
		}
		lines[i] = &ScanLine{
			ProjectID:      proj.ID,
			ProductID:      lot.ProductID,
			ProductName:    lot.ProductName,
			LotID:          lot.ID,
			LotName:        lot.Name,
			ScannedLotName: in.Lot.Name,
			ScannedQty:     *in.ScannedQty,
			TheoreticalQty: theoretical,
			ChangeQty:      in.ScannedQty.Sub(theoretical),
			RackID:         rackID,
			AgentID:        acting.ID,
			Notes:          agentNotes(acting.Name, in.Notes),
			State:          LineDraft,
		}
	}

	// Commit phase: submission, all lines and the draft-to-submitted
	// transition in one transaction, so a failure strands no draft.
	if err := s.submissions.CreateBatch(ctx, sub, lines); err != nil {
		return nil, fmt.Errorf("creating submission: %w", err)
	}

	for i := range results {
		results[i].ScanID = lines[i].ID
	}

	out := &CreateResult{
		SubmissionID: sub.ID,
		Reference:    sub.Reference,
		Lines:        results,
		ValidLines:   len(results),
	}
	if prev != nil {
		out.IsReinventory = true
		out.PreviousSubmissionID = &prev.ID
		out.PreviousSubmissionReference = prev.Reference
	}

	s.logger.Info("submission created",
		"submission_id", sub.ID, "agent_id", acting.ID, "lines", len(lines))
	return out, nil
}

// validateBatch resolves every line's lot and reports per-line results. It
// performs no writes.
func (s *Service) validateBatch(ctx context.Context, lines []LineInput) ([]LineResult, []*stock.Lot, bool) {
	results := make([]LineResult, len(lines))
	resolved := make([]*stock.Lot, len(lines))
	allValid := true

	for i, in := range lines {
		res := LineResult{LotName: in.Lot.Name}
		if in.Lot.ID != 0 {
			id := in.Lot.ID
			res.LotID = &id
		}

		if err := validateLineInput(in); err != nil {
			res.Error = "Lot information and scanned quantity are required"
			results[i] = res
			allValid = false
			continue
		}

		lot, err := s.resolveLot(ctx, in.Lot)
		if err != nil {
			res.Error = "Lot not found"
			results[i] = res
			allValid = false
			continue
		}

		res.Success = true
		res.ProductID = lot.ProductID
		res.ProductName = lot.ProductName
		results[i] = res
		resolved[i] = lot
	}

	return results, resolved, allValid
}

// Update edits a submission while it is draft or submitted. The three buckets
// are independent: each add/update/remove item reports its own outcome and a
// failing item never blocks its siblings.
func (s *Service) Update(ctx context.Context, acting *agent.Agent, req ModifyRequest) (*ModifyResult, error) {
	sub, err := s.ownedSubmission(ctx, acting, req.SubmissionID)
	if err != nil {
		return nil, err
	}
	if !sub.State.Editable() {
		return nil, ErrInvalidState
	}

	out := &ModifyResult{Added: []LineResult{}, Updated: []UpdatedLine{}, Removed: []int64{}, Errors: []ItemError{}}
	s.applyAdds(ctx, acting, sub, req.Add, lineStateFor(sub.State), nil, out)
	s.applyUpdates(ctx, acting, sub, req.Update, func(st LineState) error {
		if !st.Editable() {
			return ErrLineNotEditable
		}
		return nil
	}, out)
	s.applyRemovals(ctx, sub, req.Remove, func(st LineState) error {
		if !st.Editable() {
			return ErrLineNotEditable
		}
		return nil
	}, out)

	return out, nil
}

// ModifySubmitted is the stricter post-submit correction window: the
// submission must be exactly submitted, added lines must match the
// submission's product when set, and only submitted lines may be touched.
// Any change appends an audit note to the submission.
func (s *Service) ModifySubmitted(ctx context.Context, acting *agent.Agent, req ModifyRequest) (*ModifyResult, error) {
	sub, err := s.ownedSubmission(ctx, acting, req.SubmissionID)
	if err != nil {
		return nil, err
	}
	if sub.State != StateSubmitted {
		return nil, ErrNotSubmitted
	}

	out := &ModifyResult{Added: []LineResult{}, Updated: []UpdatedLine{}, Removed: []int64{}, Errors: []ItemError{}}
	s.applyAdds(ctx, acting, sub, req.Add, LineSubmitted, sub.ProductID, out)
	strict := func(st LineState) error {
		if st != LineSubmitted {
			return ErrLineNotSubmitted
		}
		return nil
	}
	s.applyUpdates(ctx, acting, sub, req.Update, strict, out)
	s.applyRemovals(ctx, sub, req.Remove, strict, out)

	var summary []string
	if n := len(out.Added); n > 0 {
		summary = append(summary, fmt.Sprintf("Added %d new scan lines", n))
	}
	if n := len(out.Updated); n > 0 {
		summary = append(summary, fmt.Sprintf("Updated %d existing scan lines", n))
	}
	if n := len(out.Removed); n > 0 {
		summary = append(summary, fmt.Sprintf("Removed %d scan lines", n))
	}
	if len(summary) > 0 {
		note := "Submission modified after submission: " + strings.Join(summary, ", ")
		if err := s.submissions.AppendNote(ctx, sub.ID, note); err != nil {
			s.logger.Warn("appending audit note failed", "submission_id", sub.ID, "error", err)
		}
	}

	return out, nil
}

// applyAdds builds and persists new lines. requireProduct, when set, rejects
// lines whose product differs (the post-submit homogeneity rule).
func (s *Service) applyAdds(ctx context.Context, acting *agent.Agent, sub *Submission, adds []LineInput, state LineState, requireProduct *int64, out *ModifyResult) {
	for _, in := range adds {
		res := LineResult{LotName: in.Lot.Name}
		if in.Lot.ID != 0 {
			id := in.Lot.ID
			res.LotID = &id
		}

		if err := validateLineInput(in); err != nil {
			out.Errors = append(out.Errors, ItemError{LotName: res.LotName, LotID: res.LotID, Error: "Lot information and scanned quantity are required"})
			continue
		}
		lot, err := s.resolveLot(ctx, in.Lot)
		if err != nil {
			out.Errors = append(out.Errors, ItemError{LotName: res.LotName, LotID: res.LotID, Error: "Lot not found"})
			continue
		}
		if requireProduct != nil && lot.ProductID != *requireProduct {
			out.Errors = append(out.Errors, ItemError{
				LotName: res.LotName,
				LotID:   res.LotID,
				Error:   fmt.Sprintf("Cannot add a scan line with product %d to a submission with product %d", lot.ProductID, *requireProduct),
			})
			continue
		}

		theoretical := decimal.Zero
		if sub.LocationID != nil {
			theoretical, err = s.quants.LotQuantity(ctx, lot.ProductID, lot.ID, *sub.LocationID)
			if err != nil {
				out.Errors = append(out.Errors, ItemError{LotName: res.LotName, LotID: res.LotID, Error: err.Error()})
				continue
			}
		}
		rackID := in.RackID
		if rackID == nil {
			rackID = sub.RackID
		}
		line := &ScanLine{
			SubmissionID:   sub.ID,
			ProjectID:      sub.ProjectID,
			ProductID:      lot.ProductID,
			ProductName:    lot.ProductName,
			LotID:          lot.ID,
			LotName:        lot.Name,
			ScannedLotName: in.Lot.Name,
			ScannedQty:     *in.ScannedQty,
			TheoreticalQty: theoretical,
			ChangeQty:      in.ScannedQty.Sub(theoretical),
			RackID:         rackID,
			AgentID:        acting.ID,
			Notes:          agentNotes(acting.Name, in.Notes),
			State:          state,
		}
		if err := s.scanLines.Create(ctx, line); err != nil {
			out.Errors = append(out.Errors, ItemError{LotName: res.LotName, LotID: res.LotID, Error: err.Error()})
			continue
		}

		res.Success = true
		res.ScanID = line.ID
		res.ProductID = lot.ProductID
		res.ProductName = lot.ProductName
		out.Added = append(out.Added, res)
	}
}

// applyUpdates applies sparse field updates to existing lines. checkState
// encodes the variant-specific mutability rule.
func (s *Service) applyUpdates(ctx context.Context, acting *agent.Agent, sub *Submission, updates []LineUpdate, checkState func(LineState) error, out *ModifyResult) {
	for _, upd := range updates {
		if upd.ScanLineID == 0 {
			out.Errors = append(out.Errors, ItemError{Error: "Scan line ID is required for updates"})
			continue
		}
		line, err := s.submissionLine(ctx, sub, upd.ScanLineID)
		if err != nil {
			id := upd.ScanLineID
			out.Errors = append(out.Errors, ItemError{ScanLineID: &id, Error: "Scan line not found in this submission"})
			continue
		}
		if err := checkState(line.State); err != nil {
			id := upd.ScanLineID
			out.Errors = append(out.Errors, ItemError{ScanLineID: &id, Error: stateErrorMessage(err, "updated")})
			continue
		}

		changed := false
		if upd.ScannedQty != nil {
			line.ScannedQty = *upd.ScannedQty
			line.ChangeQty = upd.ScannedQty.Sub(line.TheoreticalQty)
			changed = true
		}
		if upd.RackID != nil {
			line.RackID = upd.RackID
			changed = true
		}
		if upd.Notes != nil {
			line.Notes = agentNotes(acting.Name, *upd.Notes)
			changed = true
		}
		if !changed {
			continue
		}
		if err := s.scanLines.Update(ctx, line); err != nil {
			id := upd.ScanLineID
			out.Errors = append(out.Errors, ItemError{ScanLineID: &id, Error: err.Error()})
			continue
		}
		out.Updated = append(out.Updated, UpdatedLine{ScanLineID: line.ID, Success: true})
	}
}

// applyRemovals hard-deletes lines whose state permits it.
func (s *Service) applyRemovals(ctx context.Context, sub *Submission, removals []int64, checkState func(LineState) error, out *ModifyResult) {
	for _, id := range removals {
		line, err := s.submissionLine(ctx, sub, id)
		if err != nil {
			lineID := id
			out.Errors = append(out.Errors, ItemError{ScanLineID: &lineID, Error: "Scan line not found in this submission"})
			continue
		}
		if err := checkState(line.State); err != nil {
			lineID := id
			out.Errors = append(out.Errors, ItemError{ScanLineID: &lineID, Error: stateErrorMessage(err, "removed")})
			continue
		}
		if err := s.scanLines.Delete(ctx, line.ID); err != nil {
			lineID := id
			out.Errors = append(out.Errors, ItemError{ScanLineID: &lineID, Error: err.Error()})
			continue
		}
		out.Removed = append(out.Removed, line.ID)
	}
}

func stateErrorMessage(err error, verb string) string {
	switch {
	case errors.Is(err, ErrLineNotSubmitted):
		return fmt.Sprintf("Only scan lines in 'submitted' state can be %s", verb)
	default:
		return fmt.Sprintf("Only draft or submitted scan lines can be %s", verb)
	}
}

// Validate advances a submitted submission to validated, stamping the
// validator and the validation timestamp and flipping every line with it.
// This is the administrative action; it is not reachable from the mobile
// surface.
func (s *Service) Validate(ctx context.Context, submissionID int64, validatedBy string) error {
	sub, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return err
	}
	if sub.State != StateSubmitted {
		return ErrInvalidTransition
	}
	if err := s.submissions.Validate(ctx, sub.ID, validatedBy, time.Now()); err != nil {
		return fmt.Errorf("validating submission: %w", err)
	}
	s.logger.Info("submission validated", "submission_id", sub.ID, "validated_by", validatedBy)
	return nil
}

// List returns a page of the acting agent's own submissions.
func (s *Service) List(ctx context.Context, acting *agent.Agent, req ListRequest) (*ListResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	subs, total, err := s.submissions.List(ctx, ListOptions{
		AgentID:   acting.ID,
		ProjectID: req.ProjectID,
		Limit:     limit,
		Offset:    offset,
		Order:     req.Order,
	})
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}

	return &ListResult{
		Submissions: subs,
		Pagination: Pagination{
			TotalCount: total,
			Limit:      limit,
			Offset:     offset,
			HasMore:    offset+len(subs) < total,
		},
	}, nil
}

// ScanLines returns a submission's lines in the requested order. Ownership is
// enforced the same as for mutation.
func (s *Service) ScanLines(ctx context.Context, acting *agent.Agent, submissionID int64, order string) (*Submission, []ScanLine, error) {
	sub, err := s.ownedSubmission(ctx, acting, submissionID)
	if err != nil {
		return nil, nil, err
	}
	lines, err := s.scanLines.ListBySubmission(ctx, sub.ID, order)
	if err != nil {
		return nil, nil, fmt.Errorf("listing scan lines: %w", err)
	}
	return sub, lines, nil
}

// PreviousDetails returns a validated submission with all its lines for
// pre-populating a re-inventory batch. Unlike the listing surface it is not
// restricted to the owner: recounts read other agents' validated counts.
func (s *Service) PreviousDetails(ctx context.Context, submissionID int64) (*Submission, []ScanLine, error) {
	sub, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}
	if sub.State != StateValidated {
		return nil, nil, ErrNotValidated
	}
	lines, err := s.scanLines.ListBySubmission(ctx, sub.ID, "id asc")
	if err != nil {
		return nil, nil, fmt.Errorf("listing scan lines: %w", err)
	}
	return sub, lines, nil
}

func (s *Service) getSubmission(ctx context.Context, id int64) (*Submission, error) {
	sub, err := s.submissions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("loading submission: %w", err)
	}
	return sub, nil
}

func (s *Service) ownedSubmission(ctx context.Context, acting *agent.Agent, id int64) (*Submission, error) {
	sub, err := s.getSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.AgentID != acting.ID {
		return nil, ErrNotOwner
	}
	return sub, nil
}

func (s *Service) submissionLine(ctx context.Context, sub *Submission, lineID int64) (*ScanLine, error) {
	line, err := s.scanLines.Get(ctx, lineID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScanLineNotFound
		}
		return nil, fmt.Errorf("loading scan line: %w", err)
	}
	if line.SubmissionID != sub.ID {
		return nil, ErrScanLineNotFound
	}
	return line, nil
}
