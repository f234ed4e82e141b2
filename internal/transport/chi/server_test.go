package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tokengate/internal/domain/quota"
	healthuc "github.com/kailas-cloud/tokengate/internal/usecase/health"
	reportuc "github.com/kailas-cloud/tokengate/internal/usecase/report"
)

type stubRepo struct {
	counters map[string]int64
	history  []quota.HistoryPoint
	err      error
}

func (r *stubRepo) GetCounter(_ context.Context, name string) (int64, bool, error) {
	if r.err != nil {
		return 0, false, r.err
	}
	v, ok := r.counters[name]
	return v, ok, nil
}

func (r *stubRepo) History(_ context.Context) ([]quota.HistoryPoint, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.history, nil
}

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(_ context.Context) error { return p.err }

func newTestRouter(repo *stubRepo, pinger *stubPinger) http.Handler {
	if pinger == nil {
		pinger = &stubPinger{}
	}
	srv := NewServer(
		map[string]*reportuc.Service{"flash": reportuc.New(repo)},
		healthuc.New(pinger),
		zap.NewNop(),
	)
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetStats(t *testing.T) {
	repo := &stubRepo{counters: map[string]int64{
		quota.KeyTokenUsage:     1200,
		quota.KeyMonthlyTokens:  50000,
		quota.KeyPeakDayTokens:  9000,
		quota.KeyLifetimeTokens: 300000,
	}}
	rr := doGet(t, newTestRouter(repo, nil), "/api/pools/flash/stats")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp StatsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := StatsResponse{DailyTotal: 1200, MonthlyTotal: 50000, PeakDay: 9000, LifetimeTotal: 300000}
	if resp != want {
		t.Errorf("stats: got %+v, want %+v", resp, want)
	}
}

func TestGetStats_EmptyPool_Zeros(t *testing.T) {
	repo := &stubRepo{counters: map[string]int64{}}
	rr := doGet(t, newTestRouter(repo, nil), "/api/pools/flash/stats")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp StatsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp != (StatsResponse{}) {
		t.Errorf("expected all zeros, got %+v", resp)
	}
}

func TestGetGraphStats(t *testing.T) {
	repo := &stubRepo{
		counters: map[string]int64{
			quota.KeyInputTokens:    800,
			quota.KeyOutputTokens:   400,
			quota.KeyTokenUsage:     1200,
			quota.KeyYesterdayTotal: 1000,
		},
		history: []quota.HistoryPoint{
			{Hour: 9.25, Tokens: 300},
			{Hour: 14.5, Tokens: 1200},
		},
	}
	rr := doGet(t, newTestRouter(repo, nil), "/api/pools/flash/graph-stats")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp GraphStatsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := GraphStatsResponse{InputTokens: 800, OutputTokens: 400, PeakHours: "14:30", DailyChange: "+20.0%"}
	if resp != want {
		t.Errorf("graph stats: got %+v, want %+v", resp, want)
	}
}

func TestGetTokenUsage(t *testing.T) {
	repo := &stubRepo{history: []quota.HistoryPoint{
		{Hour: 9.25, Tokens: 300, Timestamp: "2025-03-07 09:15:00"},
		{Hour: 14.5, Tokens: 1200, Timestamp: "2025-03-07 14:30:00"},
	}}
	rr := doGet(t, newTestRouter(repo, nil), "/api/pools/flash/token-usage")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp []quota.HistoryPoint
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 || resp[1].Tokens != 1200 {
		t.Errorf("unexpected history: %+v", resp)
	}
}

func TestGetTokenUsage_Empty_BareArray(t *testing.T) {
	rr := doGet(t, newTestRouter(&stubRepo{}, nil), "/api/pools/flash/token-usage")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Body.String(); got != "[]\n" {
		t.Errorf("empty history body: got %q, want %q", got, "[]\n")
	}
}

func TestUnknownPool_404(t *testing.T) {
	for _, path := range []string{
		"/api/pools/nope/stats",
		"/api/pools/nope/graph-stats",
		"/api/pools/nope/token-usage",
	} {
		rr := doGet(t, newTestRouter(&stubRepo{}, nil), path)

		if rr.Code != http.StatusNotFound {
			t.Errorf("%s: got %d, want %d", path, rr.Code, http.StatusNotFound)
		}
		var errResp ErrorResponse
		if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
			t.Fatalf("decode error response: %v", err)
		}
		if errResp.Code != codePoolNotFound {
			t.Errorf("%s: error code got %s, want %s", path, errResp.Code, codePoolNotFound)
		}
	}
}

func TestStoreError_500(t *testing.T) {
	repo := &stubRepo{err: errors.New("conn reset")}
	rr := doGet(t, newTestRouter(repo, nil), "/api/pools/flash/stats")

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeInternalError {
		t.Errorf("error code: got %s, want %s", errResp.Code, codeInternalError)
	}
}

func TestHealth_OK(t *testing.T) {
	rr := doGet(t, newTestRouter(&stubRepo{}, nil), "/health")

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestHealth_DBDown_503(t *testing.T) {
	rr := doGet(t, newTestRouter(&stubRepo{}, &stubPinger{err: errors.New("down")}), "/health")

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}
