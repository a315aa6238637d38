package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sealbet/sealbet/internal/domain"
)

// AdminService is the governance surface the handlers need.
type AdminService interface {
	SetPaused(ctx context.Context, caller string, paused bool) error
	TransferAuthority(ctx context.Context, caller, newAuthority string) error
	GetProtocolState(ctx context.Context) (domain.ProtocolState, error)
}

// AdminHandler serves pause control and authority transfer.
type AdminHandler struct {
	svc    AdminService
	logger *slog.Logger
}

func NewAdminHandler(svc AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger.With(slog.String("handler", "admin"))}
}

type pauseRequest struct {
	Caller string `json:"caller"`
	Paused bool   `json:"paused"`
}

// SetPaused handles POST /api/admin/pause.
func (h *AdminHandler) SetPaused(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, "caller", req.Caller)
	if !ok {
		return
	}
	if err := h.svc.SetPaused(r.Context(), caller, req.Paused); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": req.Paused})
}

type transferAuthorityRequest struct {
	Caller       string `json:"caller"`
	NewAuthority string `json:"new_authority"`
}

// TransferAuthority handles POST /api/admin/authority.
func (h *AdminHandler) TransferAuthority(w http.ResponseWriter, r *http.Request) {
	var req transferAuthorityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, "caller", req.Caller)
	if !ok {
		return
	}
	newAuthority, ok := parseAddress(w, "new_authority", req.NewAuthority)
	if !ok {
		return
	}
	if err := h.svc.TransferAuthority(r.Context(), caller, newAuthority); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"authority": newAuthority})
}

// GetState handles GET /api/protocol.
func (h *AdminHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.GetProtocolState(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProtocolView(state))
}
