package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/social-pulse/internal/analytics"
	"github.com/sakif/social-pulse/internal/model"
)

// Overview is every dashboard widget's data in one response.
type Overview struct {
	Summary     analytics.Summary        `json:"summary"`
	Performance analytics.Performance    `json:"performance"`
	Heatmap     analytics.Heatmap        `json:"heatmap"`
	Audience    analytics.Audience       `json:"audience"`
	Competitors analytics.CompetitorData `json:"competitors"`
	TopContent  []model.ContentItem      `json:"topContent"`
}

// DashboardService assembles the dashboard from the aggregator's views.
type DashboardService struct {
	agg    *analytics.Aggregator
	logger *slog.Logger
}

func NewDashboardService(agg *analytics.Aggregator, logger *slog.Logger) *DashboardService {
	return &DashboardService{agg: agg, logger: logger}
}

// Overview computes the six views concurrently. Each goroutine writes its
// own field, and the first error cancels the rest.
func (s *DashboardService) Overview(ctx context.Context, userID int64, timeframe string) (*Overview, error) {
	tf, err := analytics.ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}

	var out Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Summary, err = s.agg.Summary(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Performance, err = s.agg.Performance(ctx, userID, tf)
		return err
	})
	g.Go(func() (err error) {
		out.Heatmap, err = s.agg.Heatmap(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Audience, err = s.agg.Audience(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Competitors, err = s.agg.Competitors(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.TopContent, err = s.agg.TopPerformingContent(ctx, userID, analytics.DefaultTopLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("building dashboard overview", slog.Int64("userID", userID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/dashboard: %w", err)
	}
	return &out, nil
}
