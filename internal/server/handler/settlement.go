package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sealbet/sealbet/internal/domain"
)

// SettlementService is the claim surface the handlers need.
type SettlementService interface {
	ClaimWinnings(ctx context.Context, marketID, bettor string, nonce uint64) (domain.Settlement, error)
}

// SettlementHandler serves bet claims.
type SettlementHandler struct {
	svc    SettlementService
	logger *slog.Logger
}

func NewSettlementHandler(svc SettlementService, logger *slog.Logger) *SettlementHandler {
	return &SettlementHandler{svc: svc, logger: logger.With(slog.String("handler", "settlement"))}
}

type claimRequest struct {
	Bettor string `json:"bettor"`
	Nonce  uint64 `json:"nonce"`
}

// Claim handles POST /api/markets/{id}/claims.
func (h *SettlementHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	bettor, ok := parseAddress(w, "bettor", req.Bettor)
	if !ok {
		return
	}
	settlement, err := h.svc.ClaimWinnings(r.Context(), r.PathValue("id"), bettor, req.Nonce)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementView(settlement))
}
