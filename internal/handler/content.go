package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/social-pulse/internal/insights"
	"github.com/sakif/social-pulse/internal/service"
)

type ContentHandler struct {
	svc    *service.ContentService
	orch   *insights.Orchestrator
	logger *slog.Logger
}

func NewContentHandler(svc *service.ContentService, orch *insights.Orchestrator, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{svc: svc, orch: orch, logger: logger}
}

// HandleList reads its filter from the query string:
//
//	?platform=youtube&contentType=video&tags=a,b&sortBy=views&sortOrder=asc&page=2&pageSize=10
func (h *ContentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	f := service.ContentFilter{
		Platform:    q.Get("platform"),
		ContentType: q.Get("contentType"),
		SortBy:      q.Get("sortBy"),
		SortOrder:   q.Get("sortOrder"),
	}
	for _, raw := range q["tags"] {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				f.Tags = append(f.Tags, tag)
			}
		}
	}
	if f.Page, err = queryInt(r, "page", 1); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if f.PageSize, err = queryInt(r, "pageSize", service.DefaultPageSize); err != nil {
		writeError(w, h.logger, err)
		return
	}

	page, err := h.svc.List(r.Context(), uid, f)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ContentHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	n, err := h.svc.Count(r.Context(), uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *ContentHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	items, err := h.svc.Top(r.Context(), uid, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ContentHandler) HandleByTag(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	items, err := h.svc.ByTag(r.Context(), uid, chi.URLParam(r, "tag"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ContentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uid, id, err := userAndPathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	item, err := h.svc.Get(r.Context(), uid, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ContentHandler) HandleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	uid, id, err := userAndPathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	item, err := h.svc.ToggleBookmark(r.Context(), uid, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleAutoTag replaces the item's tags with generated ones. A provider
// failure still answers 200 with the error tags that were stored.
func (h *ContentHandler) HandleAutoTag(w http.ResponseWriter, r *http.Request) {
	uid, id, err := userAndPathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, err := h.svc.Get(r.Context(), uid, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	tags, err := h.orch.AutoTag(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tags": tags})
}
