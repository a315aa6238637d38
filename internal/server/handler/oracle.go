package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sealbet/sealbet/internal/crypto"
	"github.com/sealbet/sealbet/internal/domain"
)

// OracleService is the oracle surface the handlers need.
type OracleService interface {
	DepositBond(ctx context.Context, oracle string, amount uint64) (domain.OracleBond, error)
	GetBond(ctx context.Context, oracle string) (domain.OracleBond, error)
	WithdrawBond(ctx context.Context, oracle string) (uint64, error)
	CommitResolution(ctx context.Context, marketID, oracle string, digest [32]byte) (domain.ResolutionCommitment, error)
	RevealResolution(ctx context.Context, marketID, oracle string, p crypto.ResolutionPreimage) (domain.Market, error)
	Dispute(ctx context.Context, marketID, caller string) error
}

// OracleHandler serves bonding and the resolution commit-reveal flow.
type OracleHandler struct {
	svc    OracleService
	logger *slog.Logger
}

func NewOracleHandler(svc OracleService, logger *slog.Logger) *OracleHandler {
	return &OracleHandler{svc: svc, logger: logger.With(slog.String("handler", "oracle"))}
}

type bondRequest struct {
	Oracle string `json:"oracle"`
	Amount uint64 `json:"amount,omitempty"`
}

// DepositBond handles POST /api/oracle/bond.
func (h *OracleHandler) DepositBond(w http.ResponseWriter, r *http.Request) {
	var req bondRequest
	if !decodeBody(w, r, &req) {
		return
	}
	oracle, ok := parseAddress(w, "oracle", req.Oracle)
	if !ok {
		return
	}
	bond, err := h.svc.DepositBond(r.Context(), oracle, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBondView(bond))
}

// WithdrawBond handles POST /api/oracle/bond/withdraw.
func (h *OracleHandler) WithdrawBond(w http.ResponseWriter, r *http.Request) {
	var req bondRequest
	if !decodeBody(w, r, &req) {
		return
	}
	oracle, ok := parseAddress(w, "oracle", req.Oracle)
	if !ok {
		return
	}
	released, err := h.svc.WithdrawBond(r.Context(), oracle)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"released": released})
}

// GetBond handles GET /api/oracle/bond/{address}.
func (h *OracleHandler) GetBond(w http.ResponseWriter, r *http.Request) {
	oracle, ok := parseAddress(w, "address", r.PathValue("address"))
	if !ok {
		return
	}
	bond, err := h.svc.GetBond(r.Context(), oracle)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBondView(bond))
}

type commitResolutionRequest struct {
	Oracle string `json:"oracle"`
	Digest string `json:"digest"`
}

// CommitResolution handles POST /api/markets/{id}/resolution/commit.
func (h *OracleHandler) CommitResolution(w http.ResponseWriter, r *http.Request) {
	var req commitResolutionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	oracle, ok := parseAddress(w, "oracle", req.Oracle)
	if !ok {
		return
	}
	digest, ok := parseDigest(w, "digest", req.Digest)
	if !ok {
		return
	}
	rc, err := h.svc.CommitResolution(r.Context(), r.PathValue("id"), oracle, digest)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResolutionCommitmentView(rc))
}

type revealResolutionRequest struct {
	Oracle string `json:"oracle"`
	Value  uint64 `json:"value"`
	Nonce  uint64 `json:"nonce"`
}

// RevealResolution handles POST /api/markets/{id}/resolution/reveal.
func (h *OracleHandler) RevealResolution(w http.ResponseWriter, r *http.Request) {
	var req revealResolutionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	oracle, ok := parseAddress(w, "oracle", req.Oracle)
	if !ok {
		return
	}
	m, err := h.svc.RevealResolution(r.Context(), r.PathValue("id"), oracle, crypto.ResolutionPreimage{
		Value: req.Value,
		Nonce: req.Nonce,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMarketView(m))
}

// Resolve handles POST /api/markets/{id}/resolve, the pre-commit-reveal
// direct resolution path. It is permanently disabled; oracles resolve through
// /resolution/commit and /resolution/reveal.
func (h *OracleHandler) Resolve(w http.ResponseWriter, _ *http.Request) {
	writeDomainError(w, domain.ErrUseCommitReveal)
}

type disputeRequest struct {
	Caller string `json:"caller"`
}

// Dispute handles POST /api/markets/{id}/dispute.
func (h *OracleHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	var req disputeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, "caller", req.Caller)
	if !ok {
		return
	}
	if err := h.svc.Dispute(r.Context(), r.PathValue("id"), caller); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "disputed"})
}
