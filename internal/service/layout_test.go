package service

import (
	"context"
	"testing"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository/memory"
)

var testWidgets = model.LayoutSpec{Widgets: []model.Widget{
	{ID: "summary", Type: "summary", Size: model.Size{Width: 12, Height: 2}},
}}

func newTestLayoutService(s *memory.Store) *LayoutService {
	return NewLayoutService(s, testWidgets, discardLogger())
}

// defaults returns the IDs of the user's default layouts.
func defaults(t *testing.T, s *memory.Store, userID int64) []int64 {
	t.Helper()
	layouts, err := s.ListLayoutsByUser(context.Background(), userID)
	if err != nil {
		t.Fatal(err)
	}
	var ids []int64
	for _, l := range layouts {
		if l.IsDefault {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

func TestLayoutList_CreatesDefault(t *testing.T) {
	store := newStore()
	svc := newTestLayoutService(store)
	u := mustUser(t, store, "alex")

	layouts, err := svc.List(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(layouts) != 1 || !layouts[0].IsDefault || layouts[0].Name != model.DefaultLayoutName {
		t.Fatalf("List() = %+v, want one default layout", layouts)
	}
	if len(layouts[0].Layout.Widgets) != 1 {
		t.Errorf("default widgets = %d, want 1", len(layouts[0].Layout.Widgets))
	}

	again, _ := svc.List(context.Background(), u.ID)
	if len(again) != 1 {
		t.Errorf("second List() created another layout: %d", len(again))
	}
}

func TestLayoutCreate_SingleDefault(t *testing.T) {
	store := newStore()
	svc := newTestLayoutService(store)
	ctx := context.Background()
	u := mustUser(t, store, "alex")

	first, err := svc.Create(ctx, u.ID, "Main", testWidgets, false)
	if err != nil {
		t.Fatal(err)
	}
	if !first.IsDefault {
		t.Error("first layout should become the default")
	}

	second, err := svc.Create(ctx, u.ID, "Focus", testWidgets, true)
	if err != nil {
		t.Fatal(err)
	}
	if got := defaults(t, store, u.ID); len(got) != 1 || got[0] != second.ID {
		t.Errorf("defaults = %v, want [%d]", got, second.ID)
	}
}

func TestLayoutUpdate(t *testing.T) {
	store := newStore()
	svc := newTestLayoutService(store)
	ctx := context.Background()
	u := mustUser(t, store, "alex")
	a, _ := svc.Create(ctx, u.ID, "A", testWidgets, true)
	b, _ := svc.Create(ctx, u.ID, "B", testWidgets, false)

	if _, err := svc.Update(ctx, u.ID, b.ID, LayoutUpdate{IsDefault: model.Ptr(true)}); err != nil {
		t.Fatal(err)
	}
	if got := defaults(t, store, u.ID); len(got) != 1 || got[0] != b.ID {
		t.Errorf("defaults = %v, want [%d]", got, b.ID)
	}

	_, err := svc.Update(ctx, u.ID, b.ID, LayoutUpdate{IsDefault: model.Ptr(false)})
	wantErr(t, err, apperror.ErrConflict)

	_, err = svc.Update(ctx, u.ID, a.ID, LayoutUpdate{Name: model.Ptr("  ")})
	wantErr(t, err, apperror.ErrValidation)

	other := mustUser(t, store, "other")
	_, err = svc.Update(ctx, other.ID, a.ID, LayoutUpdate{Name: model.Ptr("mine")})
	wantErr(t, err, apperror.ErrNotFound)
}

func TestLayoutDelete(t *testing.T) {
	store := newStore()
	svc := newTestLayoutService(store)
	ctx := context.Background()
	u := mustUser(t, store, "alex")
	a, _ := svc.Create(ctx, u.ID, "A", testWidgets, true)
	b, _ := svc.Create(ctx, u.ID, "B", testWidgets, false)

	if err := svc.Delete(ctx, u.ID, a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := defaults(t, store, u.ID); len(got) != 1 || got[0] != b.ID {
		t.Errorf("defaults after deleting the default = %v, want [%d]", got, b.ID)
	}

	err := svc.Delete(ctx, u.ID, b.ID)
	wantErr(t, err, apperror.ErrConflict)
}
