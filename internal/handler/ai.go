package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/social-pulse/internal/analytics"
	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/insights"
)

// AIHandler serves the orchestrator. Apart from History and bad input,
// every route answers 200: a provider failure yields the fallback body.
type AIHandler struct {
	orch   *insights.Orchestrator
	agg    *analytics.Aggregator
	logger *slog.Logger
}

func NewAIHandler(orch *insights.Orchestrator, agg *analytics.Aggregator, logger *slog.Logger) *AIHandler {
	return &AIHandler{orch: orch, agg: agg, logger: logger}
}

func (h *AIHandler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.orch.GenerateInsights(r.Context(), uid))
}

// writeAnalysis answers 200 either way; a failed analysis is logged so
// fallback bodies show up in the request logs.
func (h *AIHandler) writeAnalysis(w http.ResponseWriter, userID int64, kind string, a insights.Analysis) {
	if a.Failed() {
		h.logger.Warn("analysis served as error shape",
			slog.String("kind", kind),
			slog.Int64("userID", userID),
		)
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AIHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	history, err := h.orch.History(r.Context(), uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

type queryRequest struct {
	Query string `json:"query"`
}

func (h *AIHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req queryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, h.logger, apperror.ValidationFailed("query", "query is required"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": h.orch.Query(r.Context(), uid, req.Query)})
}

func (h *AIHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.orch.Recommendations(r.Context(), uid))
}

type competitorAnalysisRequest struct {
	Platform           string `json:"platform"`
	TimePeriod         string `json:"timePeriod"`
	IndustryBenchmarks any    `json:"industryBenchmarks"`
}

// HandleCompetitorAnalysis builds the payload from the user's summary, top
// content and the competitor table.
func (h *AIHandler) HandleCompetitorAnalysis(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req competitorAnalysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	ctx := r.Context()
	summary, err := h.agg.Summary(ctx, uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	top, err := h.agg.TopPerformingContent(ctx, uid, 10)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	competitors, err := h.agg.Competitors(ctx, uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.writeAnalysis(w, uid, "competitors", h.orch.AnalyzeCompetitors(ctx, insights.CompetitorPayload{
		UserData:           map[string]any{"summary": summary, "topContent": top},
		CompetitorData:     competitors.Competitors,
		IndustryBenchmarks: req.IndustryBenchmarks,
		Platform:           req.Platform,
		TimePeriod:         req.TimePeriod,
	}))
}

type contentGapRequest struct {
	Platform          string `json:"platform"`
	CompetitorContent any    `json:"competitorContent"`
}

// HandleContentGaps compares the user's recent content with what the
// client supplies as competitor content, or the competitor table when it
// supplies none.
func (h *AIHandler) HandleContentGaps(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req contentGapRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	ctx := r.Context()
	items, err := h.agg.ContentItemsByUser(ctx, uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	analytics.SortByRecency(items)
	if len(items) > 20 {
		items = items[:20]
	}
	summary, err := h.agg.Summary(ctx, uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	competitorContent := req.CompetitorContent
	if competitorContent == nil {
		data, err := h.agg.Competitors(ctx, uid)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		competitorContent = data.Competitors
	}

	h.writeAnalysis(w, uid, "content_gaps", h.orch.AnalyzeContentGaps(ctx, insights.ContentGapPayload{
		UserContent:       items,
		CompetitorContent: competitorContent,
		UserAnalytics:     summary,
		Platform:          req.Platform,
	}))
}
