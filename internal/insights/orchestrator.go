// Package insights turns analytics into natural-language artifacts through
// an llm.Completer.
//
// FAIL SOFT:
// An AI feature must never break the page. Every operation here absorbs
// provider errors, timeouts and unparseable answers and serves a fixed
// fallback instead (see fallback.go). The only errors that escape are the
// ones the caller has to act on: an unknown content ID for AutoTag, and
// storage failures while writing tags back.
//
// ONE SHOT:
// There is no retry loop. Each call gets one completion bounded by the
// orchestrator's timeout, and one pass over its parse ladder.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sakif/social-pulse/internal/analytics"
	"github.com/sakif/social-pulse/internal/llm"
	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository"
)

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 20 * time.Second

const (
	insightContentLimit        = 20
	queryContentLimit          = 50
	recommendationContentLimit = 20
)

// Store is the part of the entity store the orchestrator reads and writes.
type Store interface {
	repository.SocialAccountRepository
	repository.ContentRepository
}

type Orchestrator struct {
	store     Store
	agg       *analytics.Aggregator
	completer llm.Completer
	recorder  *Recorder
	timeout   time.Duration
	logger    *slog.Logger
}

type Option func(*Orchestrator)

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func New(store Store, agg *analytics.Aggregator, completer llm.Completer, recorder *Recorder, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		agg:       agg,
		completer: completer,
		recorder:  recorder,
		timeout:   DefaultTimeout,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// complete runs one bounded completion. Failures are logged here so the
// callers only have to pick their fallback.
func (o *Orchestrator) complete(ctx context.Context, op, system, user string, opts llm.Options) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	raw, err := o.completer.Complete(ctx, system, user, opts)
	if err != nil {
		o.logger.Warn("ai completion failed", "op", op, "error", err, "elapsed", time.Since(start))
		return "", false
	}
	o.logger.Debug("ai completion", "op", op, "bytes", len(raw), "elapsed", time.Since(start))
	return raw, true
}

func (o *Orchestrator) parseFailed(op, raw string) {
	o.logger.Warn("ai response unparseable", "op", op, "bytes", len(raw))
}

// userContext is what most prompts embed about a user.
type userContext struct {
	accounts  []model.SocialAccount
	platforms []string
	items     []model.ContentItem
	summary   analytics.Summary
}

func (o *Orchestrator) loadUser(ctx context.Context, userID int64) (*userContext, error) {
	accounts, err := o.store.ListSocialAccountsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	items, err := o.agg.ContentItemsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary, err := o.agg.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}
	uc := &userContext{items: items, summary: summary, platforms: []string{}}
	for _, acc := range accounts {
		if acc.IsConnected {
			uc.accounts = append(uc.accounts, acc)
			uc.platforms = append(uc.platforms, acc.Platform)
		}
	}
	return uc, nil
}

func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// GenerateInsights analyses the user's recent content and records the
// result. Any failure serves FallbackInsight.
func (o *Orchestrator) GenerateInsights(ctx context.Context, userID int64) Insight {
	const op = "insights"

	uc, err := o.loadUser(ctx, userID)
	if err != nil {
		o.logger.Error("loading insight data", "user_id", userID, "error", err)
		return FallbackInsight()
	}
	analytics.SortByRecency(uc.items)
	recent := firstN(uc.items, insightContentLimit)

	raw, ok := o.complete(ctx, op, insightsSystem, insightsPrompt(recent, uc.summary, uc.platforms),
		llm.Options{Temperature: 0.7, MaxTokens: 800, JSONMode: true})
	if !ok {
		return FallbackInsight()
	}
	doc, ok := firstMatch(raw, direct[insightDoc](), extracted[insightDoc]('{', '}'))
	if !ok || doc.empty() {
		o.parseFailed(op, raw)
		return FallbackInsight()
	}

	if doc.Summary == "" {
		doc.Summary = FallbackSummary
	}
	if len(doc.Details) == 0 {
		doc.Details = append([]string(nil), fallbackDetails...)
	}
	if len(doc.Recommendations) == 0 {
		doc.Recommendations = append([]string(nil), fallbackRecommendations...)
	}

	var accountID *int64
	if len(uc.accounts) > 0 {
		accountID = &uc.accounts[0].ID
	}
	rec, err := o.recorder.Record(ctx, Entry{
		UserID:          userID,
		AccountID:       accountID,
		Title:           InsightTitle,
		Summary:         doc.Summary,
		Details:         doc.Details,
		Recommendations: doc.Recommendations,
		Metadata:        model.Metadata{"rawInsights": raw},
	})
	if err != nil {
		o.logger.Error("recording insight", "user_id", userID, "error", err)
		return FallbackInsight()
	}

	return Insight{
		Title:           rec.Title,
		Summary:         rec.Summary,
		Details:         rec.Details,
		Recommendations: tagRecommendations(rec.Recommendations),
	}
}

// Query answers a free-text question about the user's data. Any failure
// serves QueryFallback.
func (o *Orchestrator) Query(ctx context.Context, userID int64, query string) string {
	const op = "query"

	uc, err := o.loadUser(ctx, userID)
	if err != nil {
		o.logger.Error("loading query data", "user_id", userID, "error", err)
		return QueryFallback
	}
	content := firstN(uc.items, queryContentLimit)

	raw, ok := o.complete(ctx, op, querySystem, queryPrompt(query, content, uc.summary, uc.platforms),
		llm.Options{Temperature: 0.5, MaxTokens: 500})
	if !ok {
		return QueryFallback
	}
	answer := strings.TrimSpace(raw)
	if answer == "" {
		o.parseFailed(op, raw)
		return QueryFallback
	}
	return answer
}

// AutoTag asks for 3 to 7 tags for one content item and writes them onto
// it. When no usable tags come back, AutoTagFallback is written instead.
// An unknown contentID returns apperror.ErrNotFound and writes nothing.
func (o *Orchestrator) AutoTag(ctx context.Context, contentID int64) ([]string, error) {
	const op = "autotag"

	item, err := o.store.GetContentItem(ctx, contentID)
	if err != nil {
		return nil, err
	}

	tags := AutoTagFallback()
	raw, ok := o.complete(ctx, op, tagSystem, tagPrompt(item.Title, item.Description, item.Platform, item.ContentType),
		llm.Options{Temperature: 0.5, MaxTokens: 200, JSONMode: true})
	if ok {
		parsed, matched := firstMatch(raw,
			direct[[]string](),
			unwrapped[[]string]("tags"),
			extracted[[]string]('[', ']'),
		)
		if cleaned := cleanTags(parsed); matched && len(cleaned) > 0 {
			tags = cleaned
		} else {
			o.parseFailed(op, raw)
		}
	}

	if _, err := o.store.UpdateContentItem(ctx, contentID, model.ContentItemPatch{Tags: tags}); err != nil {
		return nil, fmt.Errorf("insights: saving tags: %w", err)
	}
	return tags, nil
}

// cleanTags trims tags and drops empties and duplicates, keeping order.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Recommendations suggests new content based on the user's best performing
// items. Any failure serves FallbackContentIdeas.
func (o *Orchestrator) Recommendations(ctx context.Context, userID int64) []ContentIdea {
	const op = "recommendations"

	uc, err := o.loadUser(ctx, userID)
	if err != nil {
		o.logger.Error("loading recommendation data", "user_id", userID, "error", err)
		return FallbackContentIdeas()
	}
	analytics.SortByEngagement(uc.items)
	top := firstN(uc.items, recommendationContentLimit)

	raw, ok := o.complete(ctx, op, recommendationsSystem, recommendationsPrompt(top, uc.summary, uc.platforms),
		llm.Options{Temperature: 0.7, MaxTokens: 600, JSONMode: true})
	if !ok {
		return FallbackContentIdeas()
	}
	ideas, matched := firstMatch(raw,
		direct[[]ContentIdea](),
		unwrapped[[]ContentIdea]("recommendations"),
		unwrapped[[]ContentIdea]("contentIdeas"),
		extracted[[]ContentIdea]('[', ']'),
	)
	ideas = cleanIdeas(ideas)
	if !matched || len(ideas) == 0 {
		o.parseFailed(op, raw)
		return FallbackContentIdeas()
	}
	return ideas
}

// cleanIdeas drops untitled ideas, clamps confidence into [0, 1] and
// numbers the rest from 1.
func cleanIdeas(ideas []ContentIdea) []ContentIdea {
	out := make([]ContentIdea, 0, len(ideas))
	for _, idea := range ideas {
		idea.Title = strings.TrimSpace(idea.Title)
		if idea.Title == "" {
			continue
		}
		if math.IsNaN(idea.Confidence) {
			idea.Confidence = 0
		}
		idea.Confidence = min(max(idea.Confidence, 0), 1)
		idea.ID = len(out) + 1
		out = append(out, idea)
	}
	return out
}

// AnalyzeCompetitors returns the model's competitive analysis, or an
// Analysis with "error": true.
func (o *Orchestrator) AnalyzeCompetitors(ctx context.Context, p CompetitorPayload) Analysis {
	return o.analyze(ctx, "competitors", competitorsSystem, competitorsPrompt(p), 2000, CompetitorAnalysisError)
}

// AnalyzeContentGaps returns the model's content gap analysis, or an
// Analysis with "error": true.
func (o *Orchestrator) AnalyzeContentGaps(ctx context.Context, p ContentGapPayload) Analysis {
	return o.analyze(ctx, "content_gaps", contentGapsSystem, contentGapsPrompt(p), 1500, ContentGapAnalysisError)
}

func (o *Orchestrator) analyze(ctx context.Context, op, system, prompt string, maxTokens int, failure string) Analysis {
	raw, ok := o.complete(ctx, op, system, prompt, llm.Options{Temperature: 0.7, MaxTokens: maxTokens, JSONMode: true})
	if !ok {
		return analysisError(failure)
	}
	a, ok := firstMatch(raw, direct[Analysis](), extracted[Analysis]('{', '}'))
	if !ok || len(a) == 0 {
		o.parseFailed(op, raw)
		return analysisError(failure)
	}
	return a
}

// History lists the user's recorded insights oldest first.
func (o *Orchestrator) History(ctx context.Context, userID int64) ([]model.AiInsight, error) {
	return o.recorder.History(ctx, userID)
}
