package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karbon-fx/Fira-calculator/internal/dto"
	"github.com/Karbon-fx/Fira-calculator/internal/model"
	"github.com/Karbon-fx/Fira-calculator/internal/repository"
	"github.com/Karbon-fx/Fira-calculator/internal/service"
)

type memStore struct {
	rows   []repository.OutcomeRow
	events []model.AnalysisEvent

	gotCurrency string
	gotLimit    int
	gotOffset   int
}

func (m *memStore) OutcomeStats(ctx context.Context, currency, dateFrom, dateTo string) ([]repository.OutcomeRow, error) {
	m.gotCurrency = currency
	return m.rows, nil
}

func (m *memStore) List(ctx context.Context, limit, offset int) ([]model.AnalysisEvent, int, error) {
	m.gotLimit, m.gotOffset = limit, offset
	end := min(offset+limit, len(m.events))
	if offset >= len(m.events) {
		return []model.AnalysisEvent{}, len(m.events), nil
	}
	return m.events[offset:end], len(m.events), nil
}

func statsRouterWith(t *testing.T, store *memStore) http.Handler {
	t.Helper()
	return setupRouter(t, fakeExtractor{}, fixedRate{rate: decimal.NewFromInt(1)}, service.NewStatsService(store))
}

func TestStatsHandler_Stats(t *testing.T) {
	store := &memStore{rows: []repository.OutcomeRow{
		{Outcome: "OK", CurrencyCode: "USD", Count: 3, AvgLatencyMS: 900},
		{Outcome: "RATE_UNAVAILABLE", CurrencyCode: "USD", Count: 1, AvgLatencyMS: 100},
	}}
	router := statsRouterWith(t, store)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/analyses/stats?currency=usd&date_from=2024-01-01&date_to=2024-12-31", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp service.StatsSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Total)
	assert.Equal(t, 3, resp.Succeeded)
	assert.InDelta(t, 75.0, resp.SuccessRate, 1e-9)
	assert.InDelta(t, 700.0, resp.AvgLatencyMS, 1e-9)
	assert.Equal(t, "USD", store.gotCurrency)
}

func TestStatsHandler_RejectsBadParams(t *testing.T) {
	router := statsRouterWith(t, &memStore{})

	payloads := []struct {
		name  string
		query url.Values
	}{
		{"sql in currency", url.Values{"currency": {"USD' OR '1'='1"}}},
		{"long currency", url.Values{"currency": {"USDX"}}},
		{"sql in date_from", url.Values{"date_from": {"2024-01-01'; DROP TABLE analysis_events; --"}}},
		{"bad date_to", url.Values{"date_to": {"not-a-date"}}},
		{"inverted range", url.Values{"date_from": {"2024-12-31"}, "date_to": {"2024-01-01"}}},
	}

	for _, p := range payloads {
		t.Run(p.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/api/v1/analyses/stats?"+p.query.Encode(), nil)
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestStatsHandler_Events(t *testing.T) {
	store := &memStore{}
	for i := 0; i < 5; i++ {
		store.events = append(store.events, model.AnalysisEvent{
			ID:        "id",
			Outcome:   "OK",
			Source:    model.SourceUpload,
			LatencyMS: int64(i),
			CreatedAt: time.Date(2024, 1, 15, 10, i, 0, 0, time.UTC),
		})
	}
	router := statsRouterWith(t, store)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/analyses/events?page=2&page_size=2", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.EventListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 2, store.gotLimit)
	assert.Equal(t, 2, store.gotOffset)
	assert.Equal(t, dto.Pagination{Page: 2, PageSize: 2, TotalItems: 5, TotalPages: 3}, resp.Pagination)
}

func TestStatsHandler_Disabled(t *testing.T) {
	router := setupRouter(t, fakeExtractor{}, fixedRate{rate: decimal.NewFromInt(1)}, nil)

	for _, path := range []string{"/api/v1/analyses/stats", "/api/v1/analyses/events"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Contains(t, w.Body.String(), "event log is disabled")
	}
}
