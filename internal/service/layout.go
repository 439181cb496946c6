package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/social-pulse/internal/apperror"
	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository"
)

// LayoutService keeps every user with exactly one default dashboard layout
// once they have any.
type LayoutService struct {
	repo     repository.LayoutRepository
	defaults model.LayoutSpec
	logger   *slog.Logger
}

// NewLayoutService takes the widgets used when a user's first layout is
// created implicitly.
func NewLayoutService(repo repository.LayoutRepository, defaults model.LayoutSpec, logger *slog.Logger) *LayoutService {
	return &LayoutService{repo: repo, defaults: defaults.Clone(), logger: logger}
}

// List returns the user's layouts, creating the default one on first use.
func (s *LayoutService) List(ctx context.Context, userID int64) ([]model.DashboardLayout, error) {
	layouts, err := s.repo.ListLayoutsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(layouts) > 0 {
		return layouts, nil
	}

	l := &model.DashboardLayout{
		UserID:    userID,
		Name:      model.DefaultLayoutName,
		Layout:    s.defaults.Clone(),
		IsDefault: true,
	}
	if err := s.repo.CreateLayout(ctx, l); err != nil {
		return nil, err
	}
	s.logger.Info("default layout created", slog.Int64("userID", userID), slog.Int64("layoutID", l.ID))
	return []model.DashboardLayout{*l}, nil
}

// Create adds a layout. The user's first layout is always the default.
func (s *LayoutService) Create(ctx context.Context, userID int64, name string, spec model.LayoutSpec, isDefault bool) (*model.DashboardLayout, error) {
	existing, err := s.repo.ListLayoutsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		isDefault = true
	}

	l := &model.DashboardLayout{
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Layout:    spec,
		IsDefault: isDefault,
	}
	if err := s.repo.CreateLayout(ctx, l); err != nil {
		return nil, err
	}
	if isDefault {
		if err := s.clearDefaults(ctx, existing, l.ID); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// LayoutUpdate is a partial update. Nil fields are unchanged.
type LayoutUpdate struct {
	Name      *string
	Layout    *model.LayoutSpec
	IsDefault *bool
}

// Update changes a layout the user owns. Promoting it to default demotes
// the others; demoting the current default is refused because the user
// would be left without one.
func (s *LayoutService) Update(ctx context.Context, userID, layoutID int64, u LayoutUpdate) (*model.DashboardLayout, error) {
	current, err := s.owned(ctx, userID, layoutID)
	if err != nil {
		return nil, err
	}
	if u.IsDefault != nil && !*u.IsDefault && current.IsDefault {
		return nil, apperror.Conflict("isDefault", "mark another layout as default instead")
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "name must not be empty")
		}
		u.Name = &name
	}

	updated, err := s.repo.UpdateLayout(ctx, layoutID, model.LayoutPatch{
		Name:      u.Name,
		Layout:    u.Layout,
		IsDefault: u.IsDefault,
	})
	if err != nil {
		return nil, err
	}
	if updated.IsDefault && !current.IsDefault {
		others, err := s.repo.ListLayoutsByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := s.clearDefaults(ctx, others, layoutID); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// Delete removes a layout, refusing to remove the user's last one. When the
// default goes, the oldest remaining layout takes its place.
func (s *LayoutService) Delete(ctx context.Context, userID, layoutID int64) error {
	target, err := s.owned(ctx, userID, layoutID)
	if err != nil {
		return err
	}
	layouts, err := s.repo.ListLayoutsByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(layouts) <= 1 {
		return apperror.Conflict("layout", "cannot delete the only layout")
	}

	if err := s.repo.DeleteLayout(ctx, layoutID); err != nil {
		return err
	}
	s.logger.Info("layout deleted", slog.Int64("userID", userID), slog.Int64("layoutID", layoutID))

	if !target.IsDefault {
		return nil
	}
	for _, l := range layouts {
		if l.ID == layoutID {
			continue
		}
		_, err := s.repo.UpdateLayout(ctx, l.ID, model.LayoutPatch{IsDefault: model.Ptr(true)})
		return err
	}
	return nil
}

func (s *LayoutService) owned(ctx context.Context, userID, layoutID int64) (*model.DashboardLayout, error) {
	l, err := s.repo.GetLayout(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	if l.UserID != userID {
		return nil, apperror.NotFound("dashboard layout", layoutID)
	}
	return l, nil
}

func (s *LayoutService) clearDefaults(ctx context.Context, layouts []model.DashboardLayout, keep int64) error {
	for _, l := range layouts {
		if l.ID == keep || !l.IsDefault {
			continue
		}
		if _, err := s.repo.UpdateLayout(ctx, l.ID, model.LayoutPatch{IsDefault: model.Ptr(false)}); err != nil {
			return err
		}
	}
	return nil
}
