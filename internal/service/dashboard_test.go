package service

import (
	"context"
	"testing"

	"go.uber.org/goleak"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
)

func TestOverview(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newStore()
	svc := NewDashboardService(newAggregator(store), discardLogger())
	u := mustUser(t, store, "alex")
	acc := mustAccount(t, store, u.ID, "youtube", 1500)
	mustContent(t, store, acc.ID, model.ContentItem{Title: "a", Views: 100, Likes: 10})

	got, err := svc.Overview(context.Background(), u.ID, "quarter")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if got.Summary.Followers.Value != "1.5K" {
		t.Errorf("Followers = %q, want 1.5K", got.Summary.Followers.Value)
	}
	if len(got.Performance.Points) != 3 {
		t.Errorf("Performance points = %d, want 3", len(got.Performance.Points))
	}
	if len(got.TopContent) != 1 {
		t.Errorf("TopContent = %d items, want 1", len(got.TopContent))
	}
	if len(got.Audience.AgeGroups) == 0 {
		t.Error("Audience is empty for a user with an account")
	}
}

func TestOverview_BadTimeframe(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := newStore()
	svc := NewDashboardService(newAggregator(store), discardLogger())
	_, err := svc.Overview(context.Background(), 1, "decade")
	wantErr(t, err, apperror.ErrValidation)
}
