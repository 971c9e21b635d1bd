// Package client consumes the admin permission REST API. Every response is
// wrapped in the {isSuccess, message, data} envelope; a business failure is
// returned as *APIError carrying the server's message verbatim, and never
// touches caller state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"serchadmin/internal/model"
	"serchadmin/internal/util"

	"github.com/google/uuid"
)

// APIError is a server-reported business failure (isSuccess=false). The
// message is suitable for showing to the operator as-is.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{},
		logger:     logger.With("component", "api_client"),
	}
}

// Requests fetches the full review queue grouped by time bucket.
func (c *Client) Requests(ctx context.Context) ([]model.PermissionRequestGroup, error) {
	var groups []model.PermissionRequestGroup
	if err := c.do(ctx, http.MethodGet, "/admin/permission/requests", nil, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Scopes fetches the grantable scope catalog.
func (c *Client) Scopes(ctx context.Context) ([]model.PermissionScope, error) {
	var scopes []model.PermissionScope
	if err := c.do(ctx, http.MethodGet, "/admin/permission/scopes", nil, nil, &scopes); err != nil {
		return nil, err
	}
	return scopes, nil
}

// SearchAccount resolves an account identifier into a display profile plus
// the scopes available for it. Idempotent read, safe to retry.
func (c *Client) SearchAccount(ctx context.Context, accountID string) (model.AccountProfile, error) {
	query := url.Values{"id": {accountID}}

	var profile model.AccountProfile
	if err := c.do(ctx, http.MethodGet, "/admin/permission/search", query, nil, &profile); err != nil {
		return model.AccountProfile{}, err
	}
	return profile, nil
}

// CreateRequest submits a creation payload and returns the refreshed groups.
func (c *Client) CreateRequest(ctx context.Context, payload model.CreatePermissionPayload) ([]model.PermissionRequestGroup, error) {
	var groups []model.PermissionRequestGroup
	if err := c.do(ctx, http.MethodPost, "/admin/permission/request", nil, payload, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Grant asks the server to grant the request, optionally with an expiration,
// and returns the refreshed groups.
func (c *Client) Grant(ctx context.Context, id uuid.UUID, expiration util.Optional[time.Time]) ([]model.PermissionRequestGroup, error) {
	query := url.Values{"id": {id.String()}}
	if expiration.IsSet {
		query.Set("expiration", expiration.Val.Format(time.RFC3339))
	}
	return c.patch(ctx, "/admin/permission/grant", query)
}

func (c *Client) Revoke(ctx context.Context, id uuid.UUID) ([]model.PermissionRequestGroup, error) {
	return c.patch(ctx, "/admin/permission/revoke", url.Values{"id": {id.String()}})
}

func (c *Client) Decline(ctx context.Context, id uuid.UUID) ([]model.PermissionRequestGroup, error) {
	return c.patch(ctx, "/admin/permission/decline", url.Values{"id": {id.String()}})
}

func (c *Client) Cancel(ctx context.Context, id uuid.UUID) ([]model.PermissionRequestGroup, error) {
	return c.patch(ctx, "/admin/permission/cancel", url.Values{"id": {id.String()}})
}

func (c *Client) patch(ctx context.Context, path string, query url.Values) ([]model.PermissionRequestGroup, error) {
	var groups []model.PermissionRequestGroup
	if err := c.do(ctx, http.MethodPatch, path, query, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	var envelope model.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response for %s %s: %w", method, path, err)
	}

	if !envelope.IsSuccess {
		c.logger.Debug("API call rejected", "method", method, "path", path, "message", envelope.Message)
		return &APIError{Message: envelope.Message}
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data for %s %s: %w", method, path, err)
		}
	}
	return nil
}
