package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/rotor/internal/contracts"
	"github.com/wonny/rotor/pkg/logger"
)

const cacheTTL = 5 * time.Minute

// ResponseCache caches rendered leaderboard responses. The pipeline drops
// the `rankings:latest` entries after every rebuild, so a cached leaderboard
// is never older than the gold table behind it. *redis.Cache satisfies it.
type ResponseCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RankingsHandler serves the weekly sector leaderboard
type RankingsHandler struct {
	repo        contracts.RankingRepository
	cache       ResponseCache
	defaultTopN int
	logger      *logger.Logger
}

// NewRankingsHandler creates a new rankings handler
func NewRankingsHandler(repo contracts.RankingRepository, cache ResponseCache, defaultTopN int, log *logger.Logger) *RankingsHandler {
	return &RankingsHandler{
		repo:        repo,
		cache:       cache,
		defaultTopN: defaultTopN,
		logger:      log,
	}
}

// WeekResponse is one week's leaderboard
type WeekResponse struct {
	WeekEnd string                     `json:"week_end"`
	Rows    []contracts.RankedWeeklyRow `json:"rows"`
}

// GetWeeks returns every week that has rankings
// GET /api/rankings/weeks
func (h *RankingsHandler) GetWeeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.repo.Weeks(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list weeks")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve weeks")
		return
	}

	out := make([]string, 0, len(weeks))
	for _, week := range weeks {
		out = append(out, week.Format("2006-01-02"))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"weeks": out})
}

// GetLatest returns the most recent week's leaderboard
// GET /api/rankings/latest?top=N
func (h *RankingsHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	topN, ok := h.topN(w, r)
	if !ok {
		return
	}

	cacheKey := fmt.Sprintf("rankings:latest:%d", topN)
	var cached WeekResponse
	if hit, _ := h.cache.Get(ctx, cacheKey, &cached); hit {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	week, err := h.repo.LatestWeek(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to find latest week")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest week")
		return
	}
	if week.IsZero() {
		respondError(w, http.StatusNotFound, "No rankings available yet")
		return
	}

	h.respondWeek(w, r, week, topN, cacheKey)
}

// GetWeek returns one week's leaderboard
// GET /api/rankings/{week}?top=N
func (h *RankingsHandler) GetWeek(w http.ResponseWriter, r *http.Request) {
	week, err := time.Parse("2006-01-02", mux.Vars(r)["week"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid week date (expected YYYY-MM-DD)")
		return
	}

	topN, ok := h.topN(w, r)
	if !ok {
		return
	}

	h.respondWeek(w, r, week, topN, "")
}

// GetTrend returns one symbol's ranked history
// GET /api/sectors/{symbol}/trend
func (h *RankingsHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	rows, err := h.repo.SymbolTrend(r.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to load trend")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve trend")
		return
	}
	if len(rows) == 0 {
		respondError(w, http.StatusNotFound, "Unknown symbol")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"sector": rows[0].Sector,
		"rows":   rows,
	})
}

func (h *RankingsHandler) respondWeek(w http.ResponseWriter, r *http.Request, week time.Time, topN int, cacheKey string) {
	ctx := r.Context()

	rows, err := h.repo.GetWeek(ctx, week, topN)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load week")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve rankings")
		return
	}
	if len(rows) == 0 {
		respondError(w, http.StatusNotFound, "No rankings for that week")
		return
	}

	response := WeekResponse{
		WeekEnd: week.Format("2006-01-02"),
		Rows:    rows,
	}

	if cacheKey != "" {
		if err := h.cache.Set(ctx, cacheKey, response, cacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache leaderboard")
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// topN parses the optional top query parameter. 0 means the full week.
func (h *RankingsHandler) topN(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("top")
	if raw == "" {
		return h.defaultTopN, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondError(w, http.StatusBadRequest, "Invalid 'top' parameter")
		return 0, false
	}
	return n, true
}
