package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sealbet/sealbet/internal/domain"
)

// AdminService runs authority-gated protocol administration. Its operations
// deliberately skip the pause guard so a paused protocol can be unpaused.
type AdminService struct {
	protocol domain.ProtocolStore
	logger   *slog.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(protocol domain.ProtocolStore, logger *slog.Logger) *AdminService {
	return &AdminService{protocol: protocol, logger: logger}
}

// SetPaused flips the protocol pause flag. While paused every mutating
// protocol operation is rejected before any state change.
func (s *AdminService) SetPaused(ctx context.Context, caller string, paused bool) error {
	if err := ensureAuthority(ctx, s.protocol, caller); err != nil {
		return fmt.Errorf("admin_service: set paused: %w", err)
	}
	if err := s.protocol.SetPaused(ctx, paused); err != nil {
		return fmt.Errorf("admin_service: set paused: %w", err)
	}
	s.logger.WarnContext(ctx, "protocol pause flag changed",
		slog.Bool("paused", paused),
		slog.String("caller", caller),
	)
	return nil
}

// TransferAuthority hands the authority role to a new address.
func (s *AdminService) TransferAuthority(ctx context.Context, caller, newAuthority string) error {
	if err := ensureAuthority(ctx, s.protocol, caller); err != nil {
		return fmt.Errorf("admin_service: transfer authority: %w", err)
	}
	if newAuthority == "" {
		return fmt.Errorf("admin_service: empty new authority: %w", domain.ErrInvalidInput)
	}
	if err := s.protocol.SetAuthority(ctx, newAuthority); err != nil {
		return fmt.Errorf("admin_service: transfer authority: %w", err)
	}
	s.logger.WarnContext(ctx, "protocol authority transferred",
		slog.String("from", caller),
		slog.String("to", newAuthority),
	)
	return nil
}

// GetProtocolState returns the protocol singleton.
func (s *AdminService) GetProtocolState(ctx context.Context) (domain.ProtocolState, error) {
	state, err := s.protocol.GetState(ctx)
	if err != nil {
		return domain.ProtocolState{}, fmt.Errorf("admin_service: get state: %w", err)
	}
	return state, nil
}
