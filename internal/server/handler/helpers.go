// Package handler contains the HTTP handlers for the settlement API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/sealbet/sealbet/internal/crypto"
	"github.com/sealbet/sealbet/internal/domain"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	digestSize = 32
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps domain sentinels onto HTTP statuses. Early reveals
// get 425, integrity and lifecycle conflicts 409, economic rejections 422.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFromError(err), err.Error())
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrRevealTooEarly),
		errors.Is(err, domain.ErrResolutionTooEarly):
		return http.StatusTooEarly
	case errors.Is(err, domain.ErrRevealTooLate),
		errors.Is(err, domain.ErrAlreadyRevealed),
		errors.Is(err, domain.ErrAlreadyClaimed),
		errors.Is(err, domain.ErrDuplicateCommitment),
		errors.Is(err, domain.ErrInvalidCommitment),
		errors.Is(err, domain.ErrDisputeWindowOpen),
		errors.Is(err, domain.ErrMarketNotOpen),
		errors.Is(err, domain.ErrMarketResolved),
		errors.Is(err, domain.ErrMarketNotResolved),
		errors.Is(err, domain.ErrUseCommitReveal),
		errors.Is(err, domain.ErrLockNotExpired),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrLockHeld):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrBetTooSmall),
		errors.Is(err, domain.ErrBetTooLarge),
		errors.Is(err, domain.ErrInsufficientOracleBond),
		errors.Is(err, domain.ErrOracleSlashed),
		errors.Is(err, domain.ErrInsufficientStake),
		errors.Is(err, domain.ErrTokensLocked),
		errors.Is(err, domain.ErrNoRewards),
		errors.Is(err, domain.ErrInsufficientVolume),
		errors.Is(err, domain.ErrAmountOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidDeadline):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrProtocolPaused):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func parseListOpts(r *http.Request) domain.ListOpts {
	opts := domain.ListOpts{Limit: defaultLimit}
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			opts.Limit = min(n, maxLimit)
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			opts.Offset = n
		}
	}
	return opts
}

// parseAddress validates a hex account address from a request field and
// returns its checksummed form.
func parseAddress(w http.ResponseWriter, field, raw string) (string, bool) {
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, field+" must be a hex address")
		return "", false
	}
	return common.HexToAddress(raw).Hex(), true
}

// parseDigest decodes a 0x-prefixed 32-byte hex digest.
func parseDigest(w http.ResponseWriter, field, raw string) ([digestSize]byte, bool) {
	var d [digestSize]byte
	b, err := hexutil.Decode(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, field+" must be 0x-prefixed hex")
		return d, false
	}
	if len(b) != digestSize {
		writeError(w, http.StatusBadRequest, field+" must be 32 bytes")
		return d, false
	}
	copy(d[:], b)
	return d, true
}

// parseSalt decodes the 32-byte commitment salt.
func parseSalt(w http.ResponseWriter, raw string) ([crypto.SaltSize]byte, bool) {
	var s [crypto.SaltSize]byte
	b, err := hexutil.Decode(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "salt must be 0x-prefixed hex")
		return s, false
	}
	if len(b) != crypto.SaltSize {
		writeError(w, http.StatusBadRequest, "salt must be 32 bytes")
		return s, false
	}
	copy(s[:], b)
	return s, true
}

// parseSide validates a bet side field.
func parseSide(w http.ResponseWriter, raw string) (domain.Side, bool) {
	switch domain.Side(raw) {
	case domain.SideYes, domain.SideNo:
		return domain.Side(raw), true
	default:
		writeError(w, http.StatusBadRequest, `side must be "yes" or "no"`)
		return "", false
	}
}
