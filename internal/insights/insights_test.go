package insights

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/sakif/social-pulse/internal/analytics"
	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/llm"
	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =========================================================================
// FAKE COMPLETER
// =========================================================================

type call struct {
	system, user string
	opts         llm.Options
}

// fakeCompleter replies with a fixed text or error and records every call.
type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []call
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string, opts llm.Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{system, user, opts})
	return f.reply, f.err
}

func (f *fakeCompleter) last(t *testing.T) call {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("completer was never called")
	}
	return f.calls[len(f.calls)-1]
}

var testNow = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t     *testing.T
	store *memory.Store
	llm   *fakeCompleter
	orch  *Orchestrator
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := memory.New()
	agg := analytics.New(store, analytics.WithClock(func() time.Time { return testNow }))
	fake := &fakeCompleter{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		t:     t,
		store: store,
		llm:   fake,
		orch:  New(store, agg, fake, NewRecorder(store), logger, opts...),
	}
}

func (f *fixture) account(userID int64, platform string) *model.SocialAccount {
	f.t.Helper()
	acc := &model.SocialAccount{UserID: userID, Platform: platform, Handle: "@" + platform}
	if err := f.store.CreateSocialAccount(context.Background(), acc); err != nil {
		f.t.Fatalf("CreateSocialAccount() error = %v", err)
	}
	return acc
}

func (f *fixture) item(accountID int64, title string, likes int64, published time.Time) *model.ContentItem {
	f.t.Helper()
	it := &model.ContentItem{SocialAccountID: accountID, Title: title, Views: 100, Likes: likes, PublishedAt: &published}
	if err := f.store.CreateContentItem(context.Background(), it); err != nil {
		f.t.Fatalf("CreateContentItem() error = %v", err)
	}
	return it
}

// =========================================================================
// PARSE LADDER
// =========================================================================

func TestTagLadderSteps(t *testing.T) {
	ladder := []strategy[[]string]{
		direct[[]string](),
		unwrapped[[]string]("tags"),
		extracted[[]string]('[', ']'),
	}

	tests := []struct {
		name   string
		raw    string
		want   []string
		wantOK bool
	}{
		{"bare array", `["a","b"]`, []string{"a", "b"}, true},
		{"wrapped", `{"tags":["a","b"]}`, []string{"a", "b"}, true},
		{"prose around array", "Here you go:\n[\"a\", \"b\"]\nEnjoy!", []string{"a", "b"}, true},
		{"wrapper with wrong key", `{"labels":["a"]}`, []string{"a"}, true}, // recovered by extraction
		{"not json", "not-json", nil, false},
		{"unbalanced", `["a", "b"`, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := firstMatch(tt.raw, ladder...)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEachStrategyAlone(t *testing.T) {
	if _, ok := direct[[]string]()(`{"tags":["a"]}`); ok {
		t.Error("direct accepted an object as an array")
	}
	if got, ok := unwrapped[[]string]("tags")(`{"tags":["a"]}`); !ok || len(got) != 1 {
		t.Errorf("unwrapped(tags) = %v, %v", got, ok)
	}
	if _, ok := unwrapped[[]string]("tags")(`["a"]`); ok {
		t.Error("unwrapped accepted a bare array")
	}
	if got, ok := extracted[map[string]any]('{', '}')(`noise {"summary":"s"} noise`); !ok || got["summary"] != "s" {
		t.Errorf("extracted object = %v, %v", got, ok)
	}
}

// =========================================================================
// FALLBACK DETERMINISM
// =========================================================================

func TestFailuresServeFixedFallbacks(t *testing.T) {
	failures := map[string]func(*fakeCompleter){
		"provider error": func(f *fakeCompleter) { f.err = errors.New("503") },
		"not json":       func(f *fakeCompleter) { f.reply = "not json" },
	}

	for name, breakIt := range failures {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.account(1, "instagram")
			breakIt(f.llm)
			ctx := context.Background()

			for range 2 {
				if diff := cmp.Diff(FallbackInsight(), f.orch.GenerateInsights(ctx, 1)); diff != "" {
					t.Errorf("GenerateInsights mismatch (-want +got):\n%s", diff)
				}
				if diff := cmp.Diff(FallbackContentIdeas(), f.orch.Recommendations(ctx, 1)); diff != "" {
					t.Errorf("Recommendations mismatch (-want +got):\n%s", diff)
				}
			}

			history, err := f.orch.History(ctx, 1)
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if len(history) != 0 {
				t.Errorf("len(History) = %d, want 0 (fallbacks are not recorded)", len(history))
			}
		})
	}

	f := newFixture(t)
	f.llm.err = errors.New("down")
	for range 2 {
		if got := f.orch.Query(context.Background(), 1, "best day?"); got != QueryFallback {
			t.Errorf("Query() = %q, want fallback", got)
		}
	}
}

func TestFallbackLiterals(t *testing.T) {
	fb := FallbackInsight()
	if fb.Summary != "Your Instagram content is outperforming your YouTube content by 28% in engagement rate this month." {
		t.Errorf("fallback summary = %q", fb.Summary)
	}
	if len(fb.Details) != 2 || len(fb.Recommendations) != 2 {
		t.Fatalf("fallback has %d details, %d recommendations; want 2 and 2", len(fb.Details), len(fb.Recommendations))
	}
	if r := fb.Recommendations[0]; r.Type != "schedule" || r.Icon != "time" {
		t.Errorf("first recommendation = %+v, want schedule/time", r)
	}
	if r := fb.Recommendations[1]; r.Type != "content" || r.Icon != "edit" {
		t.Errorf("second recommendation = %+v, want content/edit", r)
	}

	var confidences []float64
	for _, idea := range FallbackContentIdeas() {
		confidences = append(confidences, idea.Confidence)
	}
	if diff := cmp.Diff([]float64{0.92, 0.87, 0.84}, confidences); diff != "" {
		t.Errorf("fallback confidences mismatch (-want +got):\n%s", diff)
	}
}

func TestTimeoutServesFallback(t *testing.T) {
	f := newFixture(t, WithTimeout(20*time.Millisecond))
	blocking := llm.CompleterFunc(func(ctx context.Context, _, _ string, _ llm.Options) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	f.orch.completer = blocking

	start := time.Now()
	got := f.orch.Query(context.Background(), 1, "anything")
	if got != QueryFallback {
		t.Errorf("Query() = %q, want fallback", got)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Query() took %v, timeout not applied", elapsed)
	}
}

// =========================================================================
// INSIGHTS
// =========================================================================

func TestGenerateInsightsRecordsResult(t *testing.T) {
	f := newFixture(t)
	ig := f.account(1, "instagram")
	f.account(1, "youtube")
	f.llm.reply = `{"summary":"Reels win.","details":["d1"],"recommendations":["Post reels on Friday evenings","Try carousels"]}`

	got := f.orch.GenerateInsights(context.Background(), 1)

	want := Insight{
		Title:   InsightTitle,
		Summary: "Reels win.",
		Details: []string{"d1"},
		Recommendations: []Recommendation{
			{ID: 1, Text: "Post reels on Friday evenings", Type: "schedule", Icon: "time"},
			{ID: 2, Text: "Try carousels", Type: "content", Icon: "edit"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GenerateInsights mismatch (-want +got):\n%s", diff)
	}

	c := f.llm.last(t)
	if c.opts != (llm.Options{Temperature: 0.7, MaxTokens: 800, JSONMode: true}) {
		t.Errorf("options = %+v", c.opts)
	}
	if !strings.Contains(c.user, `["instagram","youtube"]`) {
		t.Errorf("prompt does not list platforms:\n%s", c.user)
	}

	history, err := f.orch.History(context.Background(), 1)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("len(History) = %d, want 1", len(history))
	}
	rec := history[0]
	if rec.SocialAccountID == nil || *rec.SocialAccountID != ig.ID {
		t.Errorf("SocialAccountID = %v, want %d", rec.SocialAccountID, ig.ID)
	}
	if rec.Metadata["rawInsights"] != f.llm.reply {
		t.Errorf("Metadata[rawInsights] = %v, want the raw reply", rec.Metadata["rawInsights"])
	}
}

func TestGenerateInsightsFillsMissingParts(t *testing.T) {
	f := newFixture(t)
	f.account(1, "instagram")
	f.llm.reply = "Sure, here it is: {\"summary\": \"Only a summary\"}"

	got := f.orch.GenerateInsights(context.Background(), 1)
	if got.Title != InsightTitle || got.Summary != "Only a summary" {
		t.Errorf("got %q / %q", got.Title, got.Summary)
	}
	if diff := cmp.Diff(FallbackInsight().Details, got.Details); diff != "" {
		t.Errorf("Details mismatch (-want +got):\n%s", diff)
	}
	if len(got.Recommendations) != 2 {
		t.Errorf("len(Recommendations) = %d, want 2", len(got.Recommendations))
	}
}

func TestGenerateInsightsEmbedsMostRecentContent(t *testing.T) {
	f := newFixture(t)
	acc := f.account(1, "youtube")
	for i := range 25 {
		f.item(acc.ID, fmt.Sprintf("post-%02d", i), 1, testNow.AddDate(0, 0, -30+i))
	}
	f.llm.reply = `{"summary":"ok"}`

	f.orch.GenerateInsights(context.Background(), 1)

	prompt := f.llm.last(t).user
	if !strings.Contains(prompt, `"post-24"`) {
		t.Error("prompt is missing the newest item")
	}
	if strings.Contains(prompt, `"post-04"`) {
		t.Error("prompt contains an item outside the 20 most recent")
	}
}

// =========================================================================
// AUTO TAG
// =========================================================================

func TestAutoTagFailurePersistsPlaceholder(t *testing.T) {
	f := newFixture(t)
	acc := f.account(1, "youtube")
	it := f.item(acc.ID, "Desk tour", 1, testNow)
	f.llm.reply = "not-json"

	got, err := f.orch.AutoTag(context.Background(), it.ID)
	if err != nil {
		t.Fatalf("AutoTag() error = %v", err)
	}
	want := []string{"error", "failed-to-tag"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AutoTag mismatch (-want +got):\n%s", diff)
	}
	stored, _ := f.store.GetContentItem(context.Background(), it.ID)
	if diff := cmp.Diff(want, stored.Tags); diff != "" {
		t.Errorf("stored tags mismatch (-want +got):\n%s", diff)
	}
}

func TestAutoTagProviderErrorPersistsPlaceholder(t *testing.T) {
	f := newFixture(t)
	acc := f.account(1, "youtube")
	it := f.item(acc.ID, "Desk tour", 1, testNow)
	f.llm.err = errors.New("timeout")

	got, err := f.orch.AutoTag(context.Background(), it.ID)
	if err != nil {
		t.Fatalf("AutoTag() error = %v", err)
	}
	if diff := cmp.Diff(AutoTagFallback(), got); diff != "" {
		t.Errorf("AutoTag mismatch (-want +got):\n%s", diff)
	}
}

func TestAutoTagCleansAndStores(t *testing.T) {
	f := newFixture(t)
	acc := f.account(1, "youtube")
	it := f.item(acc.ID, "Desk tour", 1, testNow)
	f.llm.reply = `{"tags":[" desk-setup ","productivity","","productivity"]}`

	got, err := f.orch.AutoTag(context.Background(), it.ID)
	if err != nil {
		t.Fatalf("AutoTag() error = %v", err)
	}
	want := []string{"desk-setup", "productivity"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AutoTag mismatch (-want +got):\n%s", diff)
	}
	stored, _ := f.store.GetContentItem(context.Background(), it.ID)
	if diff := cmp.Diff(want, stored.Tags); diff != "" {
		t.Errorf("stored tags mismatch (-want +got):\n%s", diff)
	}
	if c := f.llm.last(t); !c.opts.JSONMode || c.opts.MaxTokens != 200 {
		t.Errorf("options = %+v", c.opts)
	}
}

func TestAutoTagUnknownContent(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.AutoTag(context.Background(), 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("AutoTag(404) error = %v, want ErrNotFound", err)
	}
	if len(f.llm.calls) != 0 {
		t.Errorf("completer called %d times, want 0", len(f.llm.calls))
	}
}

// =========================================================================
// RECOMMENDATIONS, QUERY, ANALYSIS
// =========================================================================

func TestRecommendationsCleanup(t *testing.T) {
	f := newFixture(t)
	f.account(1, "instagram")
	f.llm.reply = `{"contentIdeas":[
		{"platform":"instagram","title":"A","contentType":"reel","confidence":1.4},
		{"platform":"youtube","title":"  ","contentType":"video","confidence":0.5},
		{"platform":"twitter","title":"B","contentType":"thread","confidence":-0.2}
	]}`

	got := f.orch.Recommendations(context.Background(), 1)
	want := []ContentIdea{
		{ID: 1, Platform: "instagram", Title: "A", ContentType: "reel", Confidence: 1},
		{ID: 2, Platform: "twitter", Title: "B", ContentType: "thread", Confidence: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Recommendations mismatch (-want +got):\n%s", diff)
	}
}

func TestRecommendationsEmptyListFallsBack(t *testing.T) {
	f := newFixture(t)
	f.llm.reply = `{"recommendations":[]}`

	if diff := cmp.Diff(FallbackContentIdeas(), f.orch.Recommendations(context.Background(), 1)); diff != "" {
		t.Errorf("Recommendations mismatch (-want +got):\n%s", diff)
	}
}

func TestQuery(t *testing.T) {
	f := newFixture(t)
	f.llm.reply = "  Wednesdays at 6PM.\n"

	if got := f.orch.Query(context.Background(), 1, "when should I post?"); got != "Wednesdays at 6PM." {
		t.Errorf("Query() = %q", got)
	}
	c := f.llm.last(t)
	if c.opts.JSONMode {
		t.Error("Query asked for JSON mode")
	}
	if !strings.Contains(c.user, `"when should I post?"`) {
		t.Errorf("prompt does not quote the question:\n%s", c.user)
	}

	f.llm.reply = "   "
	if got := f.orch.Query(context.Background(), 1, "q"); got != QueryFallback {
		t.Errorf("Query(blank answer) = %q, want fallback", got)
	}
}

func TestAnalyses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.llm.reply = `{"summary":"You lead on video.","opportunities":[]}`
	got := f.orch.AnalyzeCompetitors(ctx, CompetitorPayload{Platform: "youtube"})
	if got.Failed() || got["summary"] != "You lead on video." {
		t.Errorf("AnalyzeCompetitors() = %v", got)
	}
	if !strings.Contains(f.llm.last(t).user, "Platform: youtube") {
		t.Error("competitor prompt does not carry the platform")
	}

	f.llm.reply = "[]"
	gaps := f.orch.AnalyzeContentGaps(ctx, ContentGapPayload{})
	if !gaps.Failed() || gaps["summary"] != ContentGapAnalysisError {
		t.Errorf("AnalyzeContentGaps(bad reply) = %v", gaps)
	}

	f.llm.err = errors.New("down")
	comp := f.orch.AnalyzeCompetitors(ctx, CompetitorPayload{})
	if diff := cmp.Diff(Analysis{"summary": CompetitorAnalysisError, "error": true}, comp); diff != "" {
		t.Errorf("AnalyzeCompetitors(error) mismatch (-want +got):\n%s", diff)
	}
}

func TestTagRecommendations(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Schedule Instagram posts on Wednesdays at 6PM", "schedule"},
		{"Post at 9 am for the morning crowd", "schedule"},
		{"Create more tutorial content for YouTube", "content"},
		{"Use brighter thumbnails", "content"},
	}
	for _, tt := range tests {
		got := tagRecommendations([]string{tt.text})[0]
		if got.Type != tt.want {
			t.Errorf("tagRecommendations(%q).Type = %q, want %q", tt.text, got.Type, tt.want)
		}
	}
}

func TestRecorderHistoryOrder(t *testing.T) {
	store := memory.New()
	r := NewRecorder(store)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		if _, err := r.Record(ctx, Entry{UserID: 7, Title: title}); err != nil {
			t.Fatalf("Record(%s) error = %v", title, err)
		}
	}
	r.Record(ctx, Entry{UserID: 8, Title: "other user"})

	history, err := r.History(ctx, 7)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	var titles []string
	for _, h := range history {
		titles = append(titles, h.Title)
		if h.Details == nil || h.Recommendations == nil {
			t.Errorf("%s has nil slices", h.Title)
		}
	}
	if diff := cmp.Diff([]string{"first", "second", "third"}, titles); diff != "" {
		t.Errorf("History order mismatch (-want +got):\n%s", diff)
	}
}
