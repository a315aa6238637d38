package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve_DirectPathDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewOracleHandler(nil, logger)

	req := httptest.NewRequest(http.MethodPost, "/api/markets/m1/resolve", nil)
	rec := httptest.NewRecorder()
	h.Resolve(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Contains(t, resp.Error, "commit-reveal")
}
