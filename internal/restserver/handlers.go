package restserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/openvine/budbreak/internal/database"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	server *Server
}

func NewHandlers(s *Server) *Handlers {
	return &Handlers{server: s}
}

// varietyResponse is the wire form of one variety's reference data
type varietyResponse struct {
	Variety       string  `json:"variety"`
	HeatSummation float64 `json:"heat_summation"`
}

// predictionResponse carries every model's projection for one variety.
// Absent predictions are omitted rather than zeroed.
type predictionResponse struct {
	Variety          string  `json:"variety"`
	TrendBudBreak    *string `json:"trend_bud_break,omitempty"`
	HybridBudBreak   *string `json:"hybrid_bud_break,omitempty"`
	HybridRangeStart *string `json:"hybrid_range_start,omitempty"`
	HybridRangeEnd   *string `json:"hybrid_range_end,omitempty"`
	LearnedBudBreak  *string `json:"learned_bud_break,omitempty"`
	UpdatedAt        *string `json:"updated_at,omitempty"`
}

type dailyGDDResponse struct {
	Year int                `json:"year"`
	Days []dailyGDDDayEntry `json:"days"`
}

type dailyGDDDayEntry struct {
	DOY        int     `json:"doy"`
	Daily      float64 `json:"daily_gdd"`
	Cumulative float64 `json:"cumulative_gdd"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format("2006-01-02")
	return &s
}

func (h *Handlers) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.server.logger.Errorf("error encoding response: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// GetVarieties returns the variety reference table
func (h *Handlers) GetVarieties(w http.ResponseWriter, req *http.Request) {
	rows, err := h.server.store.VarietyRows(req.Context())
	if err != nil {
		h.server.logger.Errorf("error fetching varieties: %v", err)
		h.writeError(w, http.StatusInternalServerError, "error fetching varieties")
		return
	}
	out := make([]varietyResponse, len(rows))
	for i, r := range rows {
		out[i] = varietyResponse{Variety: r.Name, HeatSummation: r.HeatSummation}
	}
	h.writeJSON(w, out)
}

// GetPredictions returns the latest projection for every variety and model
func (h *Handlers) GetPredictions(w http.ResponseWriter, req *http.Request) {
	rows, err := h.server.store.VarietyRows(req.Context())
	if err != nil {
		h.server.logger.Errorf("error fetching predictions: %v", err)
		h.writeError(w, http.StatusInternalServerError, "error fetching predictions")
		return
	}
	out := make([]predictionResponse, len(rows))
	for i, r := range rows {
		out[i] = transformPrediction(r)
	}
	h.writeJSON(w, out)
}

func transformPrediction(r database.Variety) predictionResponse {
	resp := predictionResponse{
		Variety:          r.Name,
		TrendBudBreak:    formatDate(r.TrendBudBreak),
		HybridBudBreak:   formatDate(r.HybridBudBreak),
		HybridRangeStart: formatDate(r.HybridRangeStart),
		HybridRangeEnd:   formatDate(r.HybridRangeEnd),
		LearnedBudBreak:  formatDate(r.LearnedBudBreak),
	}
	if !r.UpdatedAt.IsZero() {
		s := r.UpdatedAt.UTC().Format(time.RFC3339)
		resp.UpdatedAt = &s
	}
	return resp
}

// GetYears returns every year with a stored accumulation series
func (h *Handlers) GetYears(w http.ResponseWriter, req *http.Request) {
	years, err := h.server.store.DistinctYears(req.Context())
	if err != nil {
		h.server.logger.Errorf("error fetching years: %v", err)
		h.writeError(w, http.StatusInternalServerError, "error fetching years")
		return
	}
	h.writeJSON(w, years)
}

// GetDailySeries returns one year's daily and cumulative GDD values
func (h *Handlers) GetDailySeries(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	year, err := strconv.Atoi(vars["year"])
	if err != nil || year < 1900 || year > 2200 {
		h.writeError(w, http.StatusBadRequest, "invalid year")
		return
	}

	series, err := h.server.store.DailySeries(req.Context(), year)
	if err != nil {
		h.server.logger.Errorf("error fetching GDD series for %d: %v", year, err)
		h.writeError(w, http.StatusInternalServerError, "error fetching GDD series")
		return
	}
	if len(series.Days) == 0 {
		h.writeError(w, http.StatusNotFound, "no data for year")
		return
	}

	resp := dailyGDDResponse{Year: year, Days: make([]dailyGDDDayEntry, len(series.Days))}
	for i, d := range series.Days {
		resp.Days[i] = dailyGDDDayEntry{DOY: d.DOY, Daily: d.Daily, Cumulative: d.Cumulative}
	}
	h.writeJSON(w, resp)
}
