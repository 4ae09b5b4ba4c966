package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/shaiso/nodus-deploy/internal/domain"
	"github.com/shaiso/nodus-deploy/internal/repo"
)

type fakeRuns struct {
	runs        []domain.Run
	detail      map[uuid.UUID]*repo.RunWithResults
	deployments map[string][]domain.Result
	filter      repo.RunFilter
	err         error
}

func (f *fakeRuns) ListRuns(_ context.Context, filter repo.RunFilter) ([]domain.Run, error) {
	f.filter = filter
	return f.runs, nil
}

func (f *fakeRuns) GetRun(_ context.Context, id uuid.UUID) (*repo.RunWithResults, error) {
	if d, ok := f.detail[id]; ok {
		return d, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeRuns) ListDeployments(_ context.Context, network string) ([]domain.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.deployments[network], nil
}

type fakeBook map[string][]domain.Result

func (b fakeBook) Networks() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	return names
}

func (b fakeBook) Deployments(network string) []domain.Result {
	return b[network]
}

func newTestServer(t *testing.T, runs RunReader, book AddressBook) *httptest.Server {
	t.Helper()

	h := NewHandler(Config{
		Runs:   runs,
		Book:   book,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	if code := getJSON(t, srv.URL+"/healthz", nil); code != http.StatusOK {
		t.Errorf("status = %d, want 200", code)
	}
}

func TestListRuns(t *testing.T) {
	run := domain.NewRun("nodus", "sepolia", 11155111)
	runs := &fakeRuns{runs: []domain.Run{*run}}
	srv := newTestServer(t, runs, nil)

	var body struct {
		Data  []RunResponse `json:"data"`
		Total int           `json:"total"`
	}
	code := getJSON(t, srv.URL+"/api/v1/runs?network=sepolia&status=FAILED&limit=5", &body)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}

	if body.Total != 1 || body.Data[0].ID != run.ID {
		t.Errorf("body = %+v", body)
	}
	if runs.filter.Network != "sepolia" || runs.filter.Status != domain.RunStatusFailed || runs.filter.Limit != 5 {
		t.Errorf("filter = %+v", runs.filter)
	}
}

func TestListRuns_InvalidStatus(t *testing.T) {
	srv := newTestServer(t, &fakeRuns{}, nil)

	if code := getJSON(t, srv.URL+"/api/v1/runs?status=DONE", nil); code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", code)
	}
}

func TestListRuns_NoDatabase(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	var body errorBody
	if code := getJSON(t, srv.URL+"/api/v1/runs", &body); code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
	if body.Error.Code != CodeDBDisabled {
		t.Errorf("code = %s", body.Error.Code)
	}
}

func TestGetRun(t *testing.T) {
	run := domain.NewRun("nodus", "sepolia", 11155111)
	runs := &fakeRuns{detail: map[uuid.UUID]*repo.RunWithResults{
		run.ID: {
			Run: run,
			Results: []domain.Result{
				{Index: 0, StepID: "vault", Contract: "NodusVault", Address: common.HexToAddress("0xA1")},
			},
		},
	}}
	srv := newTestServer(t, runs, nil)

	var body struct {
		Data RunDetailResponse `json:"data"`
	}
	if code := getJSON(t, srv.URL+"/api/v1/runs/"+run.ID.String(), &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Data.ID != run.ID || len(body.Data.Deployments) != 1 || body.Data.Deployments[0].StepID != "vault" {
		t.Errorf("body = %+v", body.Data)
	}

	if code := getJSON(t, srv.URL+"/api/v1/runs/"+uuid.NewString(), nil); code != http.StatusNotFound {
		t.Errorf("unknown run status = %d, want 404", code)
	}
	if code := getJSON(t, srv.URL+"/api/v1/runs/not-a-uuid", nil); code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", code)
	}
}

func TestListDeployments(t *testing.T) {
	book := fakeBook{"sepolia": {
		{StepID: "vault", Contract: "NodusVault", Address: common.HexToAddress("0xA1"), TxHash: common.HexToHash("0x01")},
		{StepID: "Nodus", Contract: "Nodus", Address: common.HexToAddress("0xB1")},
	}}
	srv := newTestServer(t, nil, book)

	var body struct {
		Data []DeploymentResponse `json:"data"`
	}
	if code := getJSON(t, srv.URL+"/api/v1/networks/sepolia/deployments", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(body.Data) != 2 || body.Data[0].Address != common.HexToAddress("0xA1").Hex() {
		t.Errorf("body = %+v", body.Data)
	}
	if body.Data[0].TxHash == "" || body.Data[1].TxHash != "" {
		t.Errorf("tx hashes = %q, %q", body.Data[0].TxHash, body.Data[1].TxHash)
	}

	if code := getJSON(t, srv.URL+"/api/v1/networks/mainnet/deployments", nil); code != http.StatusNotFound {
		t.Errorf("unknown network status = %d, want 404", code)
	}

	var networks struct {
		Data []string `json:"data"`
	}
	if code := getJSON(t, srv.URL+"/api/v1/networks", &networks); code != http.StatusOK || len(networks.Data) != 1 {
		t.Errorf("networks = %d %+v", code, networks.Data)
	}
}

func TestListDeployments_DatabaseFallback(t *testing.T) {
	book := fakeBook{"sepolia": {{StepID: "vault", Contract: "NodusVault", Address: common.HexToAddress("0xA1")}}}
	runs := &fakeRuns{deployments: map[string][]domain.Result{
		"sepolia": {{StepID: "stale", Contract: "Old", Address: common.HexToAddress("0xF1")}},
		"mainnet": {{StepID: "vault", Contract: "NodusVault", Address: common.HexToAddress("0xC1")}},
	}}
	srv := newTestServer(t, runs, book)

	var body struct {
		Data []DeploymentResponse `json:"data"`
	}

	// Адресная книга приоритетнее БД.
	if code := getJSON(t, srv.URL+"/api/v1/networks/sepolia/deployments", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(body.Data) != 1 || body.Data[0].StepID != "vault" {
		t.Errorf("sepolia = %+v", body.Data)
	}

	body.Data = nil
	if code := getJSON(t, srv.URL+"/api/v1/networks/mainnet/deployments", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(body.Data) != 1 || body.Data[0].Address != common.HexToAddress("0xC1").Hex() {
		t.Errorf("mainnet = %+v", body.Data)
	}

	if code := getJSON(t, srv.URL+"/api/v1/networks/goerli/deployments", nil); code != http.StatusNotFound {
		t.Errorf("unknown network status = %d, want 404", code)
	}

	runs.err = errors.New("connection reset")
	if code := getJSON(t, srv.URL+"/api/v1/networks/goerli/deployments", nil); code != http.StatusInternalServerError {
		t.Errorf("database error status = %d, want 500", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	getJSON(t, srv.URL+"/healthz", nil)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "nodus_deploy_api_http_requests_total") {
		t.Error("request counter missing from /metrics")
	}
}
