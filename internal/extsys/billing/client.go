// Package billing talks to the billing provider's account API.
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"donorhub/internal/platform/config"
	"donorhub/internal/profile/models"
	dErrors "donorhub/pkg/domain-errors"
)

const defaultTimeout = 10 * time.Second

// Client updates billing accounts over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

func New(cfg config.ExternalConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// UpdateAddress replaces the mailing address on the billing account.
func (c *Client) UpdateAddress(ctx context.Context, accountID string, address models.Address) error {
	body, err := json.Marshal(map[string]any{"address": address})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode billing address payload")
	}

	endpoint := fmt.Sprintf("%s/v1/accounts/%s/address", c.baseURL, url.PathEscape(accountID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build billing request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "billing request failed")
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return dErrors.New(dErrors.CodeNotFound, "billing account not found")
	default:
		c.logger.WarnContext(ctx, "billing rejected address update",
			"status", resp.StatusCode,
		)
		return dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("billing returned status %d", resp.StatusCode))
	}
}
