package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/social-pulse/internal/analytics"
	"github.com/sakif/social-pulse/internal/auth"
	"github.com/sakif/social-pulse/internal/handler"
	"github.com/sakif/social-pulse/internal/insights"
	"github.com/sakif/social-pulse/internal/llm"
	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository/memory"
	"github.com/sakif/social-pulse/internal/service"
)

// =========================================================================
// HARNESS
// =========================================================================

var fixedNow = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

type harness struct {
	store     *memory.Store
	logs      *bytes.Buffer
	router    chi.Router
	completer llm.CompleterFunc
	user      *model.User
	account   *model.SocialAccount
	item      *model.ContentItem
}

// newHarness wires every handler over a memory store. Requests carry the
// X-Test-User header instead of a session cookie.
func newHarness(t *testing.T, completer llm.CompleterFunc) *harness {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	clock := func() time.Time { return fixedNow }

	store := memory.New(memory.WithClock(clock))
	agg := analytics.New(store, analytics.WithClock(clock))
	if completer == nil {
		completer = func(context.Context, string, string, llm.Options) (string, error) {
			return "", errors.New("provider down")
		}
	}
	orch := insights.New(store, agg, completer, insights.NewRecorder(store), logger)

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars", time.Hour)
	require.NoError(t, err)
	authSvc := service.NewAuthService(store, tokens, auth.NewPasswordService(bcrypt.MinCost), logger)

	authH := handler.NewAuthHandler(authSvc, nil, time.Hour, false, logger)
	accountH := handler.NewAccountHandler(service.NewAccountService(store, logger), logger)
	analyticsH := handler.NewAnalyticsHandler(agg, logger)
	contentH := handler.NewContentHandler(service.NewContentService(store, agg, logger), orch, logger)
	dashH := handler.NewDashboardHandler(
		service.NewDashboardService(agg, logger),
		service.NewLayoutService(store, model.LayoutSpec{}, logger),
		logger,
	)
	aiH := handler.NewAIHandler(orch, agg, logger)

	r := chi.NewRouter()
	r.Post("/api/auth/register", authH.HandleRegister)
	r.Post("/api/auth/login", authH.HandleLogin)
	r.Group(func(r chi.Router) {
		r.Use(testAuth)
		r.Get("/api/auth/me", authH.HandleMe)
		r.Get("/api/accounts", accountH.HandleList)
		r.Post("/api/accounts/connect", accountH.HandleConnect)
		r.Post("/api/accounts/{id}/disconnect", accountH.HandleDisconnect)
		r.Get("/api/analytics/summary", analyticsH.HandleSummary())
		r.Get("/api/analytics/performance", analyticsH.HandlePerformance())
		r.Get("/api/analytics/{metric}", analyticsH.HandleMetric())
		r.Get("/api/content", contentH.HandleList)
		r.Get("/api/content/{id}", contentH.HandleGet)
		r.Patch("/api/content/{id}/bookmark", contentH.HandleToggleBookmark)
		r.Post("/api/content/{id}/auto-tag", contentH.HandleAutoTag)
		r.Get("/api/dashboard/layouts", dashH.HandleListLayouts)
		r.Delete("/api/dashboard/layouts/{id}", dashH.HandleDeleteLayout)
		r.Get("/api/ai/insights", aiH.HandleInsights)
		r.Post("/api/ai/query", aiH.HandleQuery)
		r.Post("/api/ai/competitors/analysis", aiH.HandleCompetitorAnalysis)
		r.Post("/api/ai/content-gaps", aiH.HandleContentGaps)
	})

	h := &harness{store: store, logs: logs, router: r, completer: completer}
	ctx := context.Background()
	h.user = &model.User{Username: "alex", Email: "alex@example.com"}
	require.NoError(t, store.CreateUser(ctx, h.user))
	h.account = &model.SocialAccount{UserID: h.user.ID, Platform: "youtube", Handle: "@alex", Followers: 2500}
	require.NoError(t, store.CreateSocialAccount(ctx, h.account))
	h.item = &model.ContentItem{
		SocialAccountID: h.account.ID, Title: "Intro", Platform: "youtube", ContentType: "video",
		Views: 1000, Likes: 40, Comments: 5, Shares: 5, Tags: []string{"intro"},
	}
	require.NoError(t, store.CreateContentItem(ctx, h.item))
	return h
}

func testAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := strconv.ParseInt(r.Header.Get("X-Test-User"), 10, 64); err == nil {
			r = r.WithContext(auth.ContextWithUserID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func (h *harness) do(t *testing.T, method, target string, body any, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set("X-Test-User", strconv.FormatInt(userID, 10))
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

// =========================================================================
// AUTH
// =========================================================================

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "new@example.com", "username": "newbie", "password": "secret1",
	}, 0)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	user := decode[map[string]any](t, rec)
	assert.Equal(t, "newbie", user["username"])
	assert.NotContains(t, user, "passwordHash")

	rec = h.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "new@example.com", "password": "nope",
	}, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[handler.ErrorResponse](t, rec).Error)
}

func TestRegister_ValidationEnvelope(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "bad", "username": "newbie", "password": "secret1",
	}, 0)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[handler.ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", body.Error)
	assert.Equal(t, "email", body.Field)
}

func TestMe_WithoutUser(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(t, http.MethodGet, "/api/auth/me", nil, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/auth/me", nil, h.user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alex", decode[model.User](t, rec).Username)
}

// =========================================================================
// ACCOUNTS
// =========================================================================

func TestAccounts_ConnectAndDisconnect(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodPost, "/api/accounts/connect", map[string]string{
		"platform": "instagram", "handle": "@alex.ig",
	}, h.user.ID)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	acc := decode[model.SocialAccount](t, rec)
	assert.True(t, acc.IsConnected)

	rec = h.do(t, http.MethodPost, "/api/accounts/"+strconv.FormatInt(acc.ID, 10)+"/disconnect", nil, h.user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[model.SocialAccount](t, rec).IsConnected)

	rec = h.do(t, http.MethodPost, "/api/accounts/abc/disconnect", nil, h.user.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/accounts/connect", map[string]string{"platform": "myspace", "handle": "x"}, h.user.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =========================================================================
// ANALYTICS
// =========================================================================

func TestAnalytics_SummaryAndMetric(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/api/analytics/summary", nil, h.user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[analytics.Summary](t, rec)
	assert.Equal(t, "2.5K", summary.Followers.Value)
	assert.Equal(t, "1", summary.ContentCount.Value)

	rec = h.do(t, http.MethodGet, "/api/analytics/followers", nil, h.user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2.5K", decode[analytics.Stat](t, rec).Value)

	rec = h.do(t, http.MethodGet, "/api/analytics/likes", nil, h.user.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalytics_PerformanceTimeframe(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/api/analytics/performance?timeframe=ytd", nil, h.user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ytd", body["timeframe"])
	assert.Len(t, body["data"], 6)

	rec = h.do(t, http.MethodGet, "/api/analytics/performance?timeframe=forever", nil, h.user.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =========================================================================
// CONTENT
// =========================================================================

func TestContent_ListGetBookmark(t *testing.T) {
	h := newHarness(t, nil)
	itemURL := "/api/content/" + strconv.FormatInt(h.item.ID, 10)

	rec := h.do(t, http.MethodGet, "/api/content?tags=intro&pageSize=5", nil, h.user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[service.ContentPage](t, rec)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 5, page.PageSize)

	rec = h.do(t, http.MethodGet, itemURL, nil, h.user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5.0%", decode[model.ContentItem](t, rec).EngagementRate)

	rec = h.do(t, http.MethodPatch, itemURL+"/bookmark", nil, h.user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[model.ContentItem](t, rec).IsBookmarked)

	stranger := &model.User{Username: "stranger", Email: "s@example.com"}
	require.NoError(t, h.store.CreateUser(context.Background(), stranger))
	rec = h.do(t, http.MethodGet, itemURL, nil, stranger.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContent_AutoTagFallbackIsStored(t *testing.T) {
	h := newHarness(t, nil) // provider always fails

	rec := h.do(t, http.MethodPost, "/api/content/"+strconv.FormatInt(h.item.ID, 10)+"/auto-tag", nil, h.user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string][]string{"tags": {"error", "failed-to-tag"}}, decode[map[string][]string](t, rec))

	stored, err := h.store.GetContentItem(context.Background(), h.item.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"error", "failed-to-tag"}, stored.Tags)
}

func TestContent_AutoTagUnknownItem(t *testing.T) {
	called := false
	h := newHarness(t, func(context.Context, string, string, llm.Options) (string, error) {
		called = true
		return `["x"]`, nil
	})

	rec := h.do(t, http.MethodPost, "/api/content/999/auto-tag", nil, h.user.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, called, "completer called for a missing item")
}

// =========================================================================
// DASHBOARD
// =========================================================================

func TestLayouts_CannotDeleteLast(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/api/dashboard/layouts", nil, h.user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	layouts := decode[[]model.DashboardLayout](t, rec)
	require.Len(t, layouts, 1)

	rec = h.do(t, http.MethodDelete, "/api/dashboard/layouts/"+strconv.FormatInt(layouts[0].ID, 10), nil, h.user.ID)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =========================================================================
// AI
// =========================================================================

func TestAI_InsightsFallbackOnProviderError(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(t, http.MethodGet, "/api/ai/insights", nil, h.user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[insights.Insight](t, rec)
	assert.Equal(t, insights.FallbackInsightTitle, got.Title)
	assert.Equal(t, insights.FallbackSummary, got.Summary)
}

func TestAI_Query(t *testing.T) {
	h := newHarness(t, func(context.Context, string, string, llm.Options) (string, error) {
		return "  Post on Wednesdays.  ", nil
	})

	rec := h.do(t, http.MethodPost, "/api/ai/query", map[string]string{"query": "when should I post?"}, h.user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Post on Wednesdays.", decode[map[string]string](t, rec)["response"])

	rec = h.do(t, http.MethodPost, "/api/ai/query", map[string]string{"query": " "}, h.user.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAI_CompetitorAnalysisPayload(t *testing.T) {
	var prompt string
	h := newHarness(t, func(_ context.Context, _, user string, _ llm.Options) (string, error) {
		prompt = user
		return `{"strengths":["video"]}`, nil
	})

	rec := h.do(t, http.MethodPost, "/api/ai/competitors/analysis",
		map[string]string{"platform": "youtube", "timePeriod": "30days"}, h.user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, []any{"video"}, body["strengths"])
	assert.Contains(t, prompt, "Competitor A")
	assert.Contains(t, prompt, "youtube")
}

func TestAI_ContentGapsFailureIsLogged(t *testing.T) {
	h := newHarness(t, nil) // provider always fails

	rec := h.do(t, http.MethodPost, "/api/ai/content-gaps", map[string]string{"platform": "youtube"}, h.user.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["error"])
	assert.Equal(t, insights.ContentGapAnalysisError, body["summary"])
	assert.Contains(t, h.logs.String(), "analysis served as error shape")
	assert.Contains(t, h.logs.String(), "kind=content_gaps")
}
