package restserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/openvine/budbreak/internal/database"
	"github.com/openvine/budbreak/internal/gdd"
)

type fakeStore struct {
	varieties []database.Variety
	series    map[int]gdd.Series
	years     []int
	err       error
}

func (f *fakeStore) VarietyRows(ctx context.Context) ([]database.Variety, error) {
	return f.varieties, f.err
}

func (f *fakeStore) DailySeries(ctx context.Context, year int) (gdd.Series, error) {
	if f.err != nil {
		return gdd.Series{}, f.err
	}
	return f.series[year], nil
}

func (f *fakeStore) DistinctYears(ctx context.Context) ([]int, error) {
	return f.years, f.err
}

func newTestServer(store Store) *Server {
	return NewServer("127.0.0.1:0", store, zap.NewNop().Sugar())
}

func TestGetPredictions(t *testing.T) {
	trend := time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)
	rangeStart := time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(2023, 3, 20, 0, 0, 0, 0, time.UTC)

	store := &fakeStore{
		varieties: []database.Variety{
			{
				Name:             "Chardonnay",
				HeatSummation:    600,
				TrendBudBreak:    &trend,
				HybridBudBreak:   &trend,
				HybridRangeStart: &rangeStart,
				HybridRangeEnd:   &rangeEnd,
			},
			{Name: "Nebbiolo", HeatSummation: 5000},
		},
	}

	srv := newTestServer(store)
	req := httptest.NewRequest(http.MethodGet, "/api/predictions", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var out []predictionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d predictions, want 2", len(out))
	}
	if out[0].Variety != "Chardonnay" {
		t.Errorf("variety = %q, want Chardonnay", out[0].Variety)
	}
	if out[0].TrendBudBreak == nil || *out[0].TrendBudBreak != "2023-03-15" {
		t.Errorf("trend date = %v, want 2023-03-15", out[0].TrendBudBreak)
	}
	if out[0].HybridRangeStart == nil || *out[0].HybridRangeStart != "2023-03-10" {
		t.Errorf("range start = %v, want 2023-03-10", out[0].HybridRangeStart)
	}

	// Nebbiolo never produced a prediction; all model fields stay absent
	if out[1].TrendBudBreak != nil || out[1].HybridBudBreak != nil || out[1].LearnedBudBreak != nil {
		t.Errorf("expected nil predictions for Nebbiolo, got %+v", out[1])
	}
}

func TestGetDailySeries(t *testing.T) {
	store := &fakeStore{
		series: map[int]gdd.Series{
			2023: {
				Year: 2023,
				Days: []gdd.DailyValue{
					{Year: 2023, DOY: 1, Daily: 5, Cumulative: 5},
					{Year: 2023, DOY: 2, Daily: 10, Cumulative: 15},
				},
			},
		},
	}

	srv := newTestServer(store)
	req := httptest.NewRequest(http.MethodGet, "/api/gdd/2023", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out dailyGDDResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if out.Year != 2023 || len(out.Days) != 2 {
		t.Fatalf("unexpected response %+v", out)
	}
	if out.Days[1].Cumulative != 15 {
		t.Errorf("cumulative = %v, want 15", out.Days[1].Cumulative)
	}
}

func TestGetDailySeriesBadYear(t *testing.T) {
	srv := newTestServer(&fakeStore{})
	for _, path := range []string{"/api/gdd/abc", "/api/gdd/123456789"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Server.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestGetDailySeriesMissingYear(t *testing.T) {
	srv := newTestServer(&fakeStore{series: map[int]gdd.Series{}})
	req := httptest.NewRequest(http.MethodGet, "/api/gdd/1999", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetVarieties(t *testing.T) {
	store := &fakeStore{
		varieties: []database.Variety{{Name: "Pinot Noir", HeatSummation: 550}},
	}
	srv := newTestServer(store)
	req := httptest.NewRequest(http.MethodGet, "/api/varieties", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	var out []varietyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(out) != 1 || out[0].Variety != "Pinot Noir" || out[0].HeatSummation != 550 {
		t.Errorf("unexpected varieties %+v", out)
	}
}
