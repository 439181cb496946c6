package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/service"
)

type DashboardHandler struct {
	dashboard *service.DashboardService
	layouts   *service.LayoutService
	logger    *slog.Logger
}

func NewDashboardHandler(dashboard *service.DashboardService, layouts *service.LayoutService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, layouts: layouts, logger: logger}
}

func (h *DashboardHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	overview, err := h.dashboard.Overview(r.Context(), uid, r.URL.Query().Get("timeframe"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *DashboardHandler) HandleListLayouts(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	layouts, err := h.layouts.List(r.Context(), uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, layouts)
}

type layoutRequest struct {
	Name      *string           `json:"name"`
	Layout    *model.LayoutSpec `json:"layout"`
	IsDefault *bool             `json:"isDefault"`
}

func (h *DashboardHandler) HandleCreateLayout(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req layoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var (
		name string
		spec model.LayoutSpec
	)
	if req.Name != nil {
		name = *req.Name
	}
	if req.Layout != nil {
		spec = *req.Layout
	}
	l, err := h.layouts.Create(r.Context(), uid, name, spec, req.IsDefault != nil && *req.IsDefault)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *DashboardHandler) HandleUpdateLayout(w http.ResponseWriter, r *http.Request) {
	uid, id, err := userAndPathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req layoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	l, err := h.layouts.Update(r.Context(), uid, id, service.LayoutUpdate(req))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *DashboardHandler) HandleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	uid, id, err := userAndPathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.layouts.Delete(r.Context(), uid, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
