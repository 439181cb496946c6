package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/social-pulse/internal/service"
)

type AccountHandler struct {
	svc    *service.AccountService
	logger *slog.Logger
}

func NewAccountHandler(svc *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, logger: logger}
}

func (h *AccountHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	accounts, err := h.svc.List(r.Context(), uid)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

type connectRequest struct {
	Platform     string `json:"platform"`
	Handle       string `json:"handle"`
	DisplayName  string `json:"displayName"`
	ProfileURL   string `json:"profileUrl"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (h *AccountHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req connectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	acc, err := h.svc.Connect(r.Context(), uid, service.ConnectRequest(req))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

func (h *AccountHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	uid, id, err := userAndPathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	acc, err := h.svc.Disconnect(r.Context(), uid, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (h *AccountHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	uid, id, err := userAndPathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	res, err := h.svc.Sync(r.Context(), uid, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AccountHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	uid, id, err := userAndPathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	stats, err := h.svc.Statistics(r.Context(), uid, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func userAndPathID(r *http.Request, name string) (int64, int64, error) {
	uid, err := userID(r)
	if err != nil {
		return 0, 0, err
	}
	id, err := pathID(r, name)
	if err != nil {
		return 0, 0, err
	}
	return uid, id, nil
}
