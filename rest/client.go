// Package rest, kanal mutation'larını platform REST API'sine ileten HTTP client'ı.
//
// models.ChannelMutator'ı karşılar. Retry veya rate-limit bekleme politikası yoktur:
// her çağrı tek bir HTTP isteğidir, timeout http.Client'tan gelir.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akinalp/chanperm/models"
	"github.com/akinalp/chanperm/pkg"
)

// maxErrorBody: hata response'undan okunacak maksimum byte.
const maxErrorBody = 64 << 10

// Error, 2xx olmayan bir REST response'u.
// errors.Is ile ilgili pkg sentinel'ına eşleşir (404 → pkg.ErrNotFound ...).
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rest: status %d", e.Status)
	}
	return fmt.Sprintf("rest: status %d: %s", e.Status, e.Message)
}

// Unwrap, HTTP status'unu pkg sentinel error'ına çevirir.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return pkg.ErrNotFound
	case http.StatusForbidden:
		return pkg.ErrForbidden
	case http.StatusUnauthorized:
		return pkg.ErrUnauthorized
	case http.StatusBadRequest:
		return pkg.ErrBadRequest
	case http.StatusTooManyRequests:
		return pkg.ErrRateLimited
	default:
		return pkg.ErrUpstream
	}
}

// Client, REST API client'ı.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient, constructor. timeout <= 0 ise http.Client timeout'suz çalışır
// ve sadece ctx iptali isteği sonlandırır.
func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("rest"),
	}
}

// DeleteChannel → DELETE /channels/{id}
func (c *Client) DeleteChannel(ctx context.Context, channelID, reason string) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+url.PathEscape(channelID), nil, reason, nil)
}

// DeleteChannelPermission → DELETE /channels/{id}/permissions/{overwriteID}
func (c *Client) DeleteChannelPermission(ctx context.Context, channelID, overwriteID, reason string) error {
	path := "/channels/" + url.PathEscape(channelID) + "/permissions/" + url.PathEscape(overwriteID)
	return c.do(ctx, http.MethodDelete, path, nil, reason, nil)
}

// EditChannel → PATCH /channels/{id}, güncellenmiş kanalı döner.
func (c *Client) EditChannel(ctx context.Context, channelID string, opts models.EditChannelOptions, reason string) (*models.ChannelPayload, error) {
	var out models.ChannelPayload
	if err := c.do(ctx, http.MethodPatch, "/channels/"+url.PathEscape(channelID), opts, reason, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EditChannelPermission → PUT /channels/{id}/permissions/{overwriteID}
func (c *Client) EditChannelPermission(ctx context.Context, channelID, overwriteID string, allow, deny models.Permission, typ models.OverwriteType, reason string) error {
	path := "/channels/" + url.PathEscape(channelID) + "/permissions/" + url.PathEscape(overwriteID)
	body := models.EditPermissionRequest{Allow: allow, Deny: deny, Type: typ}
	return c.do(ctx, http.MethodPut, path, body, reason, nil)
}

// positionItem, PATCH /guilds/{id}/channels body elemanı.
type positionItem struct {
	ID              string            `json:"id"`
	Position        int               `json:"position"`
	LockPermissions *bool             `json:"lock_permissions,omitempty"`
	ParentID        models.OptionalID `json:"parent_id,omitzero"`
}

// EditChannelPosition → PATCH /guilds/{guildID}/channels
func (c *Client) EditChannelPosition(ctx context.Context, guildID, channelID string, position int, opts models.PositionOptions) error {
	body := []positionItem{{
		ID:              channelID,
		Position:        position,
		LockPermissions: opts.LockPermissions,
		ParentID:        opts.ParentID,
	}}
	return c.do(ctx, http.MethodPatch, "/guilds/"+url.PathEscape(guildID)+"/channels", body, "", nil)
}

// do, tek bir REST isteği gönderir. body nil değilse JSON olarak yazılır,
// out nil değilse 2xx response body'si out'a çözülür.
func (c *Client) do(ctx context.Context, method, path string, body any, reason string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if reason != "" {
		req.Header.Set("X-Audit-Log-Reason", url.PathEscape(reason))
	}

	log := c.logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("rest request failed", zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(pkg.ErrUpstream, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		restErr := &Error{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
		log.Info("rest request rejected", zap.Int("status", resp.StatusCode), zap.String("message", restErr.Message))
		return fmt.Errorf("%s %s: %w", method, path, restErr)
	}

	log.Debug("rest request ok", zap.Int("status", resp.StatusCode))

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errorMessage, hata body'sinden okunabilir bir mesaj çıkarır.
// {"message": "..."} veya pkg.APIResponse {"error": "..."} formatları tanınır,
// değilse body olduğu gibi döner.
func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
