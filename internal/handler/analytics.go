package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/social-pulse/internal/analytics"
	"github.com/sakif/social-pulse/internal/apperror"
)

// AnalyticsHandler exposes the aggregator's read-model views.
type AnalyticsHandler struct {
	agg    *analytics.Aggregator
	logger *slog.Logger
}

func NewAnalyticsHandler(agg *analytics.Aggregator, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{agg: agg, logger: logger}
}

// view adapts an aggregator method to a handler.
func view[T any](h *AnalyticsHandler, fn func(r *http.Request, userID int64) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := userID(r)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		v, err := fn(r, uid)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (h *AnalyticsHandler) HandleSummary() http.HandlerFunc {
	return view(h, func(r *http.Request, uid int64) (analytics.Summary, error) {
		return h.agg.Summary(r.Context(), uid)
	})
}

func (h *AnalyticsHandler) HandlePerformance() http.HandlerFunc {
	return view(h, func(r *http.Request, uid int64) (analytics.Performance, error) {
		tf, err := analytics.ParseTimeframe(r.URL.Query().Get("timeframe"))
		if err != nil {
			return analytics.Performance{}, err
		}
		return h.agg.Performance(r.Context(), uid, tf)
	})
}

func (h *AnalyticsHandler) HandleHeatmap() http.HandlerFunc {
	return view(h, func(r *http.Request, uid int64) (analytics.Heatmap, error) {
		return h.agg.Heatmap(r.Context(), uid)
	})
}

func (h *AnalyticsHandler) HandleAudience() http.HandlerFunc {
	return view(h, func(r *http.Request, uid int64) (analytics.Audience, error) {
		return h.agg.Audience(r.Context(), uid)
	})
}

func (h *AnalyticsHandler) HandleCompetitors() http.HandlerFunc {
	return view(h, func(r *http.Request, uid int64) (analytics.CompetitorData, error) {
		return h.agg.Competitors(r.Context(), uid)
	})
}

// HandleMetric returns one summary card: followers, engagement, views or
// content.
func (h *AnalyticsHandler) HandleMetric() http.HandlerFunc {
	return view(h, func(r *http.Request, uid int64) (analytics.Stat, error) {
		metric := chi.URLParam(r, "metric")
		pick, ok := map[string]func(analytics.Summary) analytics.Stat{
			"followers":  func(s analytics.Summary) analytics.Stat { return s.Followers },
			"engagement": func(s analytics.Summary) analytics.Stat { return s.Engagement },
			"views":      func(s analytics.Summary) analytics.Stat { return s.Views },
			"content":    func(s analytics.Summary) analytics.Stat { return s.ContentCount },
		}[metric]
		if !ok {
			return analytics.Stat{}, apperror.NotFoundBy("metric", "name", metric)
		}
		s, err := h.agg.Summary(r.Context(), uid)
		if err != nil {
			return analytics.Stat{}, err
		}
		return pick(s), nil
	})
}
