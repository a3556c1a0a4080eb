// Package crm talks to the CRM provider's contact API.
package crm

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

// Client updates CRM contact records over HTTP.
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

// UpdateAddress patches the mailing address on the CRM contact. The CRM API
// takes partial contact documents, so only the address field is sent.
func (c *Client) UpdateAddress(ctx context.Context, accountID string, address models.Address) error {
	body, err := json.Marshal(map[string]any{"mailingAddress": address})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode crm address payload")
	}

	endpoint := fmt.Sprintf("%s/api/contacts/%s", c.baseURL, url.PathEscape(accountID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build crm request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "crm request failed")
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return dErrors.New(dErrors.CodeNotFound, "crm contact not found")
	default:
		c.logger.WarnContext(ctx, "crm rejected address update",
			"status", resp.StatusCode,
		)
		return dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("crm returned status %d", resp.StatusCode))
	}
}
