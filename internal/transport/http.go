package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/castral/stocktake/internal/domain/agent"
	"github.com/castral/stocktake/internal/domain/stock"
	"github.com/castral/stocktake/internal/domain/submission"
)

// Server wires the HTTP handlers for the mobile inventory API.
type Server struct {
	agents      *agent.Service
	submissions *submission.Service
	stock       *stock.Service
	logger      *slog.Logger
}

// NewServer creates the router with all inventory_app endpoints.
func NewServer(agents *agent.Service, submissions *submission.Service, stockSvc *stock.Service, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))

	srv := &Server{
		agents:      agents,
		submissions: submissions,
		stock:       stockSvc,
		logger:      logger,
	}

	r.Route("/inventory_app", func(r chi.Router) {
		r.Post("/login", srv.handleLogin)
		r.Post("/logout", srv.handleLogout)
		r.Post("/refresh_token", srv.handleRefreshToken)
		r.Post("/create_submission", srv.handleCreateSubmission)
		r.Post("/update_submission", srv.handleUpdateSubmission)
		r.Post("/modify_submitted", srv.handleModifySubmitted)
		r.Post("/get_submissions", srv.handleGetSubmissions)
		r.Post("/get_submission_scan_lines", srv.handleGetScanLines)
		r.Post("/get_previous_submission_details", srv.handleGetPreviousDetails)
		r.Post("/get_lot_info", srv.handleGetLotInfo)
		r.Post("/check_previous_submissions", srv.handleCheckPrevious)
	})
	r.Get("/health", srv.handleHealth)

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start))
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decode(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// authenticate resolves the acting agent or writes the failure envelope.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, bodyToken string) (*agent.Agent, bool) {
	acting, err := s.agents.Authenticate(r.Context(), requestToken(r, bodyToken))
	if err != nil {
		writeFailure(w, err.Error())
		return nil, false
	}
	return acting, true
}

type scanLinePayload struct {
	LotID      *int64           `json:"lot_id"`
	LotName    string           `json:"lot_name"`
	ScannedQty *decimal.Decimal `json:"scanned_qty"`
	RackID     *int64           `json:"rack_id"`
	Notes      string           `json:"notes"`
}

func (p scanLinePayload) toInput() submission.LineInput {
	in := submission.LineInput{
		Lot:        submission.LotRef{Name: p.LotName},
		ScannedQty: p.ScannedQty,
		RackID:     p.RackID,
		Notes:      p.Notes,
	}
	if p.LotID != nil {
		in.Lot.ID = *p.LotID
	}
	return in
}

func toInputs(payloads []scanLinePayload) []submission.LineInput {
	inputs := make([]submission.LineInput, 0, len(payloads))
	for _, p := range payloads {
		inputs = append(inputs, p.toInput())
	}
	return inputs
}

type lineUpdatePayload struct {
	ScanLineID int64            `json:"scan_line_id"`
	ScannedQty *decimal.Decimal `json:"scanned_qty"`
	RackID     *int64           `json:"rack_id"`
	Notes      *string          `json:"notes"`
}

func toUpdates(payloads []lineUpdatePayload) []submission.LineUpdate {
	updates := make([]submission.LineUpdate, 0, len(payloads))
	for _, p := range payloads {
		updates = append(updates, submission.LineUpdate{
			ScanLineID: p.ScanLineID,
			ScannedQty: p.ScannedQty,
			RackID:     p.RackID,
			Notes:      p.Notes,
		})
	}
	return updates
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MobilePhone string `json:"mobile_phone"`
		PIN         string `json:"pin"`
	}
	if err := decode(r, &req); err != nil {
		writeFailure(w, "invalid request body")
		return
	}

	result, err := s.agents.Login(r.Context(), req.MobilePhone, req.PIN)
	if err != nil {
		writeFailure(w, err.Error())
		return
	}

	writeSuccess(w, envelope{
		"api_token":       result.APIToken,
		"agent_id":        result.Agent.ID,
		"agent_info":      result.Agent,
		"running_project": result.RunningProject,
		"available_racks": result.AvailableRacks,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIToken string `json:"api_token"`
	}
	if err := decode(r, &req); err != nil {
		writeFailure(w, "invalid request body")
		return
	}

	if err := s.agents.Logout(r.Context(), requestToken(r, req.APIToken)); err != nil {
		writeFailure(w, err.Error())
		return
	}

	writeSuccess(w, envelope{"message": "Successfully logged out"})
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIToken string `json:"api_token"`
	}
	if err := decode(r, &req); err != nil {
		writeFailure(w, "invalid request body")
		return
	}

	token, err := s.agents.RefreshToken(r.Context(), requestToken(r, req.APIToken))
	if err != nil {
		writeFailure(w, err.Error())
		return
	}

	writeSuccess(w, envelope{
		"api_token": token,
		"message":   "API token refreshed successfully",
	})
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIToken             string            `json:"api_token"`
		ProjectID            int64             `json:"project_id"`
		RackID               *int64            `json:"rack_id"`
		Notes                string            `json:"notes"`
		ScanLines            []scanLinePayload `json:"scan_lines"`
		PreviousSubmissionID *int64            `json:"previous_submission_id"`
		ScannedLotName       string            `json:"scanned_lot_name"`
	}
	if err := decode(r, &req); err != nil {
		writeFailure(w, "invalid request body")
		return
	}

	if req.ProjectID == 0 || len(req.ScanLines) == 0 {
		writeFailure(w, "Project ID and scan lines are required")
		return
	}

	acting, ok := s.authenticate(w, r, req.APIToken)
	if !ok {
		return
	}

	result, err := s.submissions.Create(r.Context(), acting, submission.CreateRequest{
		ProjectID:            req.ProjectID,
		RackID:               req.RackID,
		Notes:                req.Notes,
		Lines:                toInputs(req.ScanLines),
		PreviousSubmissionID: req.PreviousSubmissionID,
		ScannedLotName:       req.ScannedLotName,
	})
	if err != nil {
		var batchErr *submission.BatchError
		if errors.As(err, &batchErr) {
			writeJSON(w, envelope{
				"success":    false,
				"error":      batchErr.Error(),
				"scan_lines": batchErr.Lines,
			})
			return
		}
		writeFailure(w, err.Error())
		return
	}

	fields := envelope{
		"submission_id":        result.SubmissionID,
		"submission_reference": result.Reference,
		"scan_lines":           result.Lines,
		"valid_lines":          result.ValidLines,
		"invalid_lines":        result.InvalidLines,
	}
	if result.IsReinventory {
		fields["is_reinventory"] = true
		fields["previous_submission_id"] = result.PreviousSubmissionID
		fields["previous_submission_reference"] = result.PreviousSubmissionReference
	}
	writeSuccess(w, fields)
}

type modifyPayload struct {
	APIToken          string              `json:"api_token"`
	SubmissionID      int64               `json:"submission_id"`
	ScanLinesToAdd    []scanLinePayload   `json:"scan_lines_to_add"`
	ScanLinesToUpdate []lineUpdatePayload `json:"scan_lines_to_update"`
	ScanLinesToRemove []int64             `json:"scan_lines_to_remove"`
}

func (p modifyPayload) toRequest() submission.ModifyRequest {
	return submission.ModifyRequest{
		SubmissionID: p.SubmissionID,
		Add:          toInputs(p.ScanLinesToAdd),
		Update:       toUpdates(p.ScanLinesToUpdate),
		Remove:       p.ScanLinesToRemove,
	}
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request,
	apply func(*agent.Agent, submission.ModifyRequest) (*submission.ModifyResult, error)) {
	var req modifyPayload
	if err := decode(r, &req); err != nil {
		writeFailure(w, "invalid request body")
		return
	}

	if req.SubmissionID == 0 {
		writeFailure(w, "Submission ID is required")
		return
	}

	acting, ok := s.authenticate(w, r, req.APIToken)
	if !ok {
		return
	}

	result, err := apply(acting, req.toRequest())
	if err != nil {
		writeFailure(w, err.Error())
		return
	}

	writeSuccess(w, envelope{
		"submission_id": req.SubmissionID,
		"results":       result,
	})
}

func (s *Server) handleUpdateSubmission(w http.ResponseWriter, r *http.Request) {
	s.handleModify(w, r, func(acting *agent.Agent, req submission.ModifyRequest) (*submission.ModifyResult, error) {
		return s.submissions.Update(r.Context(), acting, req)
	})
}

func (s *Server) handleModifySubmitted(w http.ResponseWriter, r *http.Request) {
	s.handleModify(w, r, func(acting *agent.Agent, req submission.ModifyRequest) (*submission.ModifyResult, error) {
		return s.submissions.ModifySubmitted(r.Context(), acting, req)
	})
}

func (s *Server) handleGetSubmissions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIToken  string `json:"api_token"`
		ProjectID *int64 `json:"project_id"`
		Limit     int    `json:"limit"`
		Offset    int    `json:"offset"`
		Order     string `json:"order"`
	}
	if err := decode(r, &req); err != nil {
		writeFailure(w, "invalid request body")
		return
	}

	acting, ok := s.authenticate(w, r, req.APIToken)
	if !ok {
		return
	}

	result, err := s.submissions.List(r.Context(), acting, submission.ListRequest{
		ProjectID: req.ProjectID,
		Limit:     req.Limit,
		Offset:    req.Offset,
		Order:     req.Order,
	})
	if err != nil {
		writeFailure(w, err.Error())
		return
	}

	writeSuccess(w, envelope{
		"submissions": result.Submissions,
		"pagination":  result.Pagination,
	})
}

func (s *Server) handleGetScanLines(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIToken     string `json:"api_token"`
		SubmissionID int64  `json:"submission_id"`
		Order        string `json:"order"`
	}
	if err := decode(r, &req); err != nil {
		writeFailure(w, "invalid request body")
		return
	}

	if req.SubmissionID == 0 {
		writeFailure(w, "Submission ID is required")
		return
	}

	acting, ok := s.authenticate(w, r, req.APIToken)
	if !ok {
		return
	}

	sub, lines, err := s.submissions.ScanLines(r.Context(), acting, req.SubmissionID, req.Order)
	if err != nil {
		writeFailure(w, err.Error())
		return
	}

	writeSuccess(w, envelope{
		"submission_id":   sub.ID,
		"submission_name": sub.Reference,
		"scan_count":      len(lines),
		"scan_lines":      lines,
	})
}

func (s *Server) handleGetPreviousDetails(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIToken     string `json:"api_token"`
		SubmissionID int64  `json:"submission_id"`
	}
	if err := decode(r, &req); err != nil {
		writeFailure(w, "invalid request body")
		return
	}

	if _, ok := s.authenticate(w, r, req.APIToken); !ok {
		return
	}

	if req.SubmissionID == 0 {
		writeFailure(w, "Submission ID is required")
		return
	}

	sub, lines, err := s.submissions.PreviousDetails(r.Context(), req.SubmissionID)
	if err != nil {
		writeFailure(w, err.Error())
		return
	}

	writeSuccess(w, envelope{
		"submission": sub,
		"scan_lines": lines,
	})
}

func (s *Server) handleGetLotInfo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIToken   string `json:"api_token"`
		LotName    string `json:"lot_name"`
		LocationID int64  `json:"location_id"`
	}
	if err := decode(r, &req); err != nil {
		writeFailure(w, "invalid request body")
		return
	}

	if req.LotName == "" || req.LocationID == 0 {
		writeFailure(w, "Lot name and location ID are required")
		return
	}

	if _, ok := s.authenticate(w, r, req.APIToken); !ok {
		return
	}

	info, err := s.stock.LotInfo(r.Context(), req.LotName, req.LocationID)
	if err != nil {
		writeFailure(w, err.Error())
		return
	}

	writeSuccess(w, envelope{
		"data": []*stock.LotInfo{info},
	})
}

func (s *Server) handleCheckPrevious(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIToken   string `json:"api_token"`
		LotName    string `json:"lot_name"`
		LocationID *int64 `json:"location_id"`
	}
	if err := decode(r, &req); err != nil {
		writeFailure(w, "invalid request body")
		return
	}

	if _, ok := s.authenticate(w, r, req.APIToken); !ok {
		return
	}

	if req.LotName == "" {
		writeFailure(w, "Lot name is required")
		return
	}

	result, err := s.submissions.CheckPrevious(r.Context(), req.LotName, req.LocationID)
	if err != nil {
		writeFailure(w, err.Error())
		return
	}

	writeSuccess(w, envelope{
		"has_previous":         result.HasPrevious,
		"lot_info":             result.Lot,
		"previous_submissions": result.Previous,
	})
}
