package billing

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donorhub/internal/platform/config"
	"donorhub/internal/profile/models"
	dErrors "donorhub/pkg/domain-errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUpdateAddress(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]models.Address

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(config.ExternalConfig{BaseURL: srv.URL, APIKey: "key-1"}, testLogger())

	err := c.UpdateAddress(context.Background(), "acct-42", models.Address{"city": "B"})
	require.NoError(t, err)

	assert.Equal(t, "/v1/accounts/acct-42/address", gotPath)
	assert.Equal(t, "Bearer key-1", gotAuth)
	assert.Equal(t, "B", gotBody["address"]["city"])
}

func TestUpdateAddress_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(config.ExternalConfig{BaseURL: srv.URL}, testLogger())

	err := c.UpdateAddress(context.Background(), "missing", models.Address{"city": "B"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUpdateAddress_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(config.ExternalConfig{BaseURL: srv.URL}, testLogger())

	err := c.UpdateAddress(context.Background(), "acct-42", models.Address{"city": "B"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestUpdateAddress_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(config.ExternalConfig{BaseURL: srv.URL}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := c.UpdateAddress(ctx, "acct-42", models.Address{"city": "B"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}
