package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sealbet/sealbet/internal/domain"
	"github.com/sealbet/sealbet/internal/service"
)

// StakingService is the staking surface the handlers need.
type StakingService interface {
	Stake(ctx context.Context, owner string, amount uint64) error
	Unstake(ctx context.Context, owner string, amount uint64) error
	LockForVe(ctx context.Context, owner string, duration time.Duration) (domain.VePosition, error)
	UnlockVe(ctx context.Context, owner string) error
	ClaimStakingRewards(ctx context.Context, owner string) (uint64, error)
	GetProfile(ctx context.Context, owner string) (service.StakerProfile, error)
	IssueBadge(ctx context.Context, caller, owner string, tier domain.BadgeTier) (domain.VolumeBadge, error)
	RevokeBadge(ctx context.Context, caller, owner string) error
}

// StakingHandler serves staking, vote-escrow, and badge endpoints.
type StakingHandler struct {
	svc    StakingService
	logger *slog.Logger
}

func NewStakingHandler(svc StakingService, logger *slog.Logger) *StakingHandler {
	return &StakingHandler{svc: svc, logger: logger.With(slog.String("handler", "staking"))}
}

type stakeRequest struct {
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount"`
}

// Stake handles POST /api/staking/stake.
func (h *StakingHandler) Stake(w http.ResponseWriter, r *http.Request) {
	var req stakeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	owner, ok := parseAddress(w, "owner", req.Owner)
	if !ok {
		return
	}
	if err := h.svc.Stake(r.Context(), owner, req.Amount); err != nil {
		writeDomainError(w, err)
		return
	}
	h.writeProfile(w, r, owner)
}

// Unstake handles POST /api/staking/unstake.
func (h *StakingHandler) Unstake(w http.ResponseWriter, r *http.Request) {
	var req stakeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	owner, ok := parseAddress(w, "owner", req.Owner)
	if !ok {
		return
	}
	if err := h.svc.Unstake(r.Context(), owner, req.Amount); err != nil {
		writeDomainError(w, err)
		return
	}
	h.writeProfile(w, r, owner)
}

type lockRequest struct {
	Owner           string `json:"owner"`
	DurationSeconds uint64 `json:"duration_seconds"`
}

// Lock handles POST /api/staking/lock.
func (h *StakingHandler) Lock(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if !decodeBody(w, r, &req) {
		return
	}
	owner, ok := parseAddress(w, "owner", req.Owner)
	if !ok {
		return
	}
	ve, err := h.svc.LockForVe(r.Context(), owner, time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, veView{
		LockedStake: ve.LockedStake,
		VeAmount:    ve.VeAmount,
		LockStart:   ve.LockStart,
		LockEnd:     ve.LockEnd,
	})
}

type ownerRequest struct {
	Owner string `json:"owner"`
}

// Unlock handles POST /api/staking/unlock.
func (h *StakingHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	owner, ok := parseAddress(w, "owner", req.Owner)
	if !ok {
		return
	}
	if err := h.svc.UnlockVe(r.Context(), owner); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unlocked"})
}

// ClaimRewards handles POST /api/staking/rewards/claim.
func (h *StakingHandler) ClaimRewards(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	owner, ok := parseAddress(w, "owner", req.Owner)
	if !ok {
		return
	}
	reward, err := h.svc.ClaimStakingRewards(r.Context(), owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"reward": reward})
}

// Get handles GET /api/staking/{address}.
func (h *StakingHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := parseAddress(w, "address", r.PathValue("address"))
	if !ok {
		return
	}
	h.writeProfile(w, r, owner)
}

type badgeRequest struct {
	Caller string `json:"caller"`
	Owner  string `json:"owner"`
	Tier   string `json:"tier,omitempty"`
}

// IssueBadge handles POST /api/admin/badges.
func (h *StakingHandler) IssueBadge(w http.ResponseWriter, r *http.Request) {
	var req badgeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, "caller", req.Caller)
	if !ok {
		return
	}
	owner, ok := parseAddress(w, "owner", req.Owner)
	if !ok {
		return
	}
	badge, err := h.svc.IssueBadge(r.Context(), caller, owner, domain.BadgeTier(req.Tier))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, badgeView{
		Tier:     string(badge.Tier),
		Volume:   badge.Volume,
		VeAmount: badge.VeAmount,
		IssuedAt: badge.IssuedAt,
	})
}

// RevokeBadge handles DELETE /api/admin/badges.
func (h *StakingHandler) RevokeBadge(w http.ResponseWriter, r *http.Request) {
	var req badgeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, "caller", req.Caller)
	if !ok {
		return
	}
	owner, ok := parseAddress(w, "owner", req.Owner)
	if !ok {
		return
	}
	if err := h.svc.RevokeBadge(r.Context(), caller, owner); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

func (h *StakingHandler) writeProfile(w http.ResponseWriter, r *http.Request, owner string) {
	profile, err := h.svc.GetProfile(r.Context(), owner)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	view := stakerView{
		Owner:        profile.Staker.Owner,
		StakedAmount: profile.Staker.StakedAmount,
		TradedVolume: profile.Staker.TradedVolume,
		LastStakeAt:  profile.Staker.LastStakeAt,
		BonusBps:     domain.StakeBonusBps(profile.Staker.StakedAmount),
	}
	if profile.Ve != nil {
		view.VePosition = &veView{
			LockedStake: profile.Ve.LockedStake,
			VeAmount:    profile.Ve.VeAmount,
			LockStart:   profile.Ve.LockStart,
			LockEnd:     profile.Ve.LockEnd,
		}
	}
	if profile.Badge != nil {
		view.Badge = &badgeView{
			Tier:     string(profile.Badge.Tier),
			Volume:   profile.Badge.Volume,
			VeAmount: profile.Badge.VeAmount,
			IssuedAt: profile.Badge.IssuedAt,
		}
	}
	writeJSON(w, http.StatusOK, view)
}
