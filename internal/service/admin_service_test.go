package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealbet/sealbet/internal/domain"
)

func TestSetPaused(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.admin.SetPaused(ctx, testAuthority, true))

	state, err := e.admin.GetProtocolState(ctx)
	require.NoError(t, err)
	require.True(t, state.Paused)

	require.NoError(t, e.admin.SetPaused(ctx, testAuthority, false))
	state, err = e.admin.GetProtocolState(ctx)
	require.NoError(t, err)
	require.False(t, state.Paused)
}

func TestSetPaused_NotAuthority(t *testing.T) {
	e := newEnv(t)
	err := e.admin.SetPaused(context.Background(), testBettor, true)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTransferAuthority(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	next := "0xA000000000000000000000000000000000000009"
	require.NoError(t, e.admin.TransferAuthority(ctx, testAuthority, next))

	state, err := e.admin.GetProtocolState(ctx)
	require.NoError(t, err)
	require.Equal(t, next, state.Authority)

	// The old authority loses its powers.
	err = e.admin.SetPaused(ctx, testAuthority, true)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.NoError(t, e.admin.SetPaused(ctx, next, true))
}

func TestTransferAuthority_NotAuthority(t *testing.T) {
	e := newEnv(t)
	err := e.admin.TransferAuthority(context.Background(), testBettor, testBettor)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTransferAuthority_EmptyAuthority(t *testing.T) {
	e := newEnv(t)
	err := e.admin.TransferAuthority(context.Background(), testAuthority, "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
