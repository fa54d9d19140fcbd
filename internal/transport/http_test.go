package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/castral/stocktake/internal/domain/agent"
	"github.com/castral/stocktake/internal/domain/stock"
	"github.com/castral/stocktake/internal/domain/submission"
	"github.com/castral/stocktake/internal/sqlite"
)

type testEnv struct {
	server *httptest.Server
	db     *sqlite.DB

	locationID int64
	agentID    int64
	projectID  int64
	productID  int64
	lotID      int64
}

const testToken = "tok-amal"

func TestMain(m *testing.M) {
	decimal.MarshalJSONWithoutQuotes = true
	os.Exit(m.Run())
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	env := &testEnv{db: db}

	env.locationID = execID(t, db, `INSERT INTO locations (name) VALUES ('Main Store')`)

	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.MinCost)
	require.NoError(t, err)
	env.agentID = execID(t, db,
		`INSERT INTO agents (name, mobile_phone, pin_hash, api_token, location_id) VALUES ('Amal', '0912345678', ?, ?, ?)`,
		string(hash), testToken, env.locationID)

	env.projectID = execID(t, db,
		`INSERT INTO projects (name, location_id, state, start_date) VALUES ('August Count', ?, 'in_progress', CURRENT_TIMESTAMP)`,
		env.locationID)

	env.productID = execID(t, db, `INSERT INTO products (name) VALUES ('Widget')`)
	env.lotID = execID(t, db, `INSERT INTO lots (name, product_id) VALUES ('LOT-A', ?)`, env.productID)
	_, err = db.Exec(
		`INSERT INTO stock_quants (product_id, lot_id, location_id, quantity) VALUES (?, ?, ?, '8')`,
		env.productID, env.lotID, env.locationID)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	agentRepo := sqlite.NewAgentRepository(db)
	projectRepo := sqlite.NewProjectRepository(db)
	rackRepo := sqlite.NewRackRepository(db)
	lotRepo := sqlite.NewLotRepository(db)
	locationRepo := sqlite.NewLocationRepository(db)
	quantRepo := sqlite.NewQuantRepository(db)
	submissionRepo := sqlite.NewSubmissionRepository(db)
	scanLineRepo := sqlite.NewScanLineRepository(db)

	agents := agent.NewService(agentRepo, projectRepo, rackRepo, logger)
	stockSvc := stock.NewService(lotRepo, locationRepo, quantRepo, scanLineRepo, logger)
	submissions := submission.NewService(submissionRepo, scanLineRepo, lotRepo, projectRepo, quantRepo, logger)

	env.server = httptest.NewServer(NewServer(agents, submissions, stockSvc, logger))
	t.Cleanup(env.server.Close)

	return env
}

func execID(t *testing.T, db *sqlite.DB, query string, args ...any) int64 {
	t.Helper()
	res, err := db.Exec(query, args...)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// post sends a JSON body and decodes the uniform envelope.
func (e *testEnv) post(t *testing.T, path string, body map[string]any) map[string]any {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	out := env.post(t, "/inventory_app/login", map[string]any{
		"mobile_phone": "0912345678",
		"pin":          "1234",
	})

	require.Equal(t, true, out["success"])
	require.Equal(t, testToken, out["api_token"])
	require.Equal(t, float64(env.agentID), out["agent_id"])

	running, ok := out["running_project"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "August Count", running["name"])
}

func TestLogin_WrongPIN(t *testing.T) {
	env := newTestEnv(t)

	out := env.post(t, "/inventory_app/login", map[string]any{
		"mobile_phone": "0912345678",
		"pin":          "9999",
	})

	require.Equal(t, false, out["success"])
	require.Equal(t, "invalid PIN", out["error"])
}

func TestTokenFromAuthorizationHeader(t *testing.T) {
	env := newTestEnv(t)

	raw, err := json.Marshal(map[string]any{"limit": 5})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/inventory_app/get_submissions", bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, true, out["success"])
}

func TestUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	out := env.post(t, "/inventory_app/get_submissions", map[string]any{})
	require.Equal(t, false, out["success"])
	require.Equal(t, "authentication token is required", out["error"])

	out = env.post(t, "/inventory_app/get_submissions", map[string]any{"api_token": "bogus"})
	require.Equal(t, false, out["success"])
	require.Equal(t, "invalid authentication token", out["error"])
}

func TestCreateSubmission(t *testing.T) {
	env := newTestEnv(t)

	out := env.post(t, "/inventory_app/create_submission", map[string]any{
		"api_token":  testToken,
		"project_id": env.projectID,
		"scan_lines": []map[string]any{
			{"lot_name": "LOT-A", "scanned_qty": 10},
		},
	})

	require.Equal(t, true, out["success"])
	require.Equal(t, "STK/00001", out["submission_reference"])
	require.Equal(t, float64(1), out["valid_lines"])
	require.Equal(t, float64(0), out["invalid_lines"])

	lines, ok := out["scan_lines"].([]any)
	require.True(t, ok)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	require.Equal(t, "LOT-A", line["lot_name"])
	require.Equal(t, true, line["success"])
	require.NotZero(t, line["scan_id"])
}

func TestCreateSubmission_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	out := env.post(t, "/inventory_app/create_submission", map[string]any{
		"api_token": testToken,
	})

	require.Equal(t, false, out["success"])
	require.Equal(t, "Project ID and scan lines are required", out["error"])
}

func TestCreateSubmission_InvalidLine(t *testing.T) {
	env := newTestEnv(t)

	out := env.post(t, "/inventory_app/create_submission", map[string]any{
		"api_token":  testToken,
		"project_id": env.projectID,
		"scan_lines": []map[string]any{
			{"lot_name": "GHOST", "scanned_qty": 1},
		},
	})

	require.Equal(t, false, out["success"])
	require.Equal(t, "all scan lines must be valid to create a submission", out["error"])

	lines, ok := out["scan_lines"].([]any)
	require.True(t, ok)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	require.Equal(t, false, line["success"])
	require.Equal(t, "Lot not found", line["error"])
}

func TestGetSubmissionScanLines(t *testing.T) {
	env := newTestEnv(t)

	created := env.post(t, "/inventory_app/create_submission", map[string]any{
		"api_token":  testToken,
		"project_id": env.projectID,
		"scan_lines": []map[string]any{
			{"lot_name": "LOT-A", "scanned_qty": 3},
		},
	})
	require.Equal(t, true, created["success"])

	out := env.post(t, "/inventory_app/get_submission_scan_lines", map[string]any{
		"api_token":     testToken,
		"submission_id": created["submission_id"],
	})

	require.Equal(t, true, out["success"])
	require.Equal(t, "STK/00001", out["submission_name"])
	require.Equal(t, float64(1), out["scan_count"])
}

func TestGetLotInfo(t *testing.T) {
	env := newTestEnv(t)

	out := env.post(t, "/inventory_app/get_lot_info", map[string]any{
		"api_token":   testToken,
		"lot_name":    "LOT-A",
		"location_id": env.locationID,
	})

	require.Equal(t, true, out["success"])
	data, ok := out["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)
	info := data[0].(map[string]any)
	require.Equal(t, float64(env.lotID), info["lot_id"])
	require.Equal(t, float64(8), info["lot_stock"])
}

func TestGetLotInfo_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	out := env.post(t, "/inventory_app/get_lot_info", map[string]any{
		"api_token": testToken,
		"lot_name":  "LOT-A",
	})

	require.Equal(t, false, out["success"])
	require.Equal(t, "Lot name and location ID are required", out["error"])
}

func TestCheckPreviousSubmissions(t *testing.T) {
	env := newTestEnv(t)

	out := env.post(t, "/inventory_app/check_previous_submissions", map[string]any{
		"api_token": testToken,
		"lot_name":  "LOT-A",
	})

	require.Equal(t, true, out["success"])
	require.Equal(t, false, out["has_previous"])
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
