package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sealbet/sealbet/internal/crypto"
	"github.com/sealbet/sealbet/internal/domain"
)

// BetService is the betting surface the handlers need.
type BetService interface {
	CommitBet(ctx context.Context, marketID, bettor string, nonce uint64, digest [32]byte) (domain.BetCommitment, error)
	RevealBet(ctx context.Context, marketID, bettor string, p crypto.BetPreimage) (domain.Bet, error)
	GetBet(ctx context.Context, marketID, bettor string, nonce uint64) (domain.Bet, error)
	ListBets(ctx context.Context, marketID string, opts domain.ListOpts) ([]domain.Bet, error)
}

// BetHandler serves the bet commit-reveal flow.
type BetHandler struct {
	svc    BetService
	logger *slog.Logger
}

func NewBetHandler(svc BetService, logger *slog.Logger) *BetHandler {
	return &BetHandler{svc: svc, logger: logger.With(slog.String("handler", "bet"))}
}

type commitBetRequest struct {
	Bettor string `json:"bettor"`
	Nonce  uint64 `json:"nonce"`
	Digest string `json:"digest"`
}

// Commit handles POST /api/markets/{id}/bets/commit.
func (h *BetHandler) Commit(w http.ResponseWriter, r *http.Request) {
	var req commitBetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	bettor, ok := parseAddress(w, "bettor", req.Bettor)
	if !ok {
		return
	}
	digest, ok := parseDigest(w, "digest", req.Digest)
	if !ok {
		return
	}
	c, err := h.svc.CommitBet(r.Context(), r.PathValue("id"), bettor, req.Nonce, digest)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBetCommitmentView(c))
}

type revealBetRequest struct {
	Bettor string `json:"bettor"`
	Amount uint64 `json:"amount"`
	Side   string `json:"side"`
	Nonce  uint64 `json:"nonce"`
	Salt   string `json:"salt"`
}

// Reveal handles POST /api/markets/{id}/bets/reveal.
func (h *BetHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	var req revealBetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	bettor, ok := parseAddress(w, "bettor", req.Bettor)
	if !ok {
		return
	}
	side, ok := parseSide(w, req.Side)
	if !ok {
		return
	}
	salt, ok := parseSalt(w, req.Salt)
	if !ok {
		return
	}
	b, err := h.svc.RevealBet(r.Context(), r.PathValue("id"), bettor, crypto.BetPreimage{
		Amount: req.Amount,
		Side:   side,
		Nonce:  req.Nonce,
		Salt:   salt,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBetView(b))
}

// Get handles GET /api/markets/{id}/bets/{bettor}/{nonce}.
func (h *BetHandler) Get(w http.ResponseWriter, r *http.Request) {
	bettor, ok := parseAddress(w, "bettor", r.PathValue("bettor"))
	if !ok {
		return
	}
	nonce, err := strconv.ParseUint(r.PathValue("nonce"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "nonce must be an unsigned integer")
		return
	}
	b, err := h.svc.GetBet(r.Context(), r.PathValue("id"), bettor, nonce)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBetView(b))
}

// List handles GET /api/markets/{id}/bets.
func (h *BetHandler) List(w http.ResponseWriter, r *http.Request) {
	bets, err := h.svc.ListBets(r.Context(), r.PathValue("id"), parseListOpts(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]betView, 0, len(bets))
	for _, b := range bets {
		out = append(out, toBetView(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bets": out, "count": len(out)})
}
