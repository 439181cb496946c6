package insights

import (
	"context"
	"fmt"

	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository"
)

// Entry is one insight about to be recorded.
type Entry struct {
	UserID          int64
	AccountID       *int64
	Title           string
	Summary         string
	Details         []string
	Recommendations []string
	Metadata        model.Metadata
}

// Recorder persists generated insights as an append-only history.
type Recorder struct {
	repo repository.InsightRepository
}

func NewRecorder(repo repository.InsightRepository) *Recorder {
	return &Recorder{repo: repo}
}

// Record stores e. The store assigns the ID and timestamps.
func (r *Recorder) Record(ctx context.Context, e Entry) (*model.AiInsight, error) {
	in := &model.AiInsight{
		UserID:          e.UserID,
		SocialAccountID: e.AccountID,
		Title:           e.Title,
		Summary:         e.Summary,
		Details:         e.Details,
		Recommendations: e.Recommendations,
		Metadata:        e.Metadata,
	}
	if err := r.repo.CreateInsight(ctx, in); err != nil {
		return nil, fmt.Errorf("insights: recording insight: %w", err)
	}
	return in, nil
}

// History lists the user's insights oldest first.
func (r *Recorder) History(ctx context.Context, userID int64) ([]model.AiInsight, error) {
	list, err := r.repo.ListInsightsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("insights: listing history: %w", err)
	}
	return list, nil
}
