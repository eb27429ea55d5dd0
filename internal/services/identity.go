package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/nexconsult/fgts-api/internal/config"
	"github.com/sirupsen/logrus"
)

// IdentityUser is an account as the identity provider reports it
type IdentityUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// IdentityClient talks to a GoTrue compatible auth API. End users are verified
// with their own bearer token; admin calls use the service key.
type IdentityClient struct {
	config config.IdentityConfig
	client *http.Client
	logger *logrus.Logger
}

// NewIdentityClient creates a new identity provider client
func NewIdentityClient(cfg config.IdentityConfig, client *http.Client, logger *logrus.Logger) *IdentityClient {
	return &IdentityClient{
		config: cfg,
		client: client,
		logger: logger,
	}
}

func (c *IdentityClient) checkConfig() error {
	if names := missing("SUPABASE_URL", c.config.URL, "SUPABASE_SERVICE_ROLE_KEY", c.config.ServiceKey); len(names) > 0 {
		return &ConfigurationError{Missing: names}
	}
	return nil
}

// VerifyToken returns the account owning accessToken, or ErrUnauthorized
func (c *IdentityClient) VerifyToken(ctx context.Context, accessToken string) (*IdentityUser, error) {
	if accessToken == "" {
		return nil, ErrUnauthorized
	}
	if err := c.checkConfig(); err != nil {
		return nil, err
	}

	var user IdentityUser
	status, err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &user)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrUnauthorized
	}
	return &user, nil
}

// CreateUser creates a confirmed account
func (c *IdentityClient) CreateUser(ctx context.Context, email, password string) (*IdentityUser, error) {
	if err := c.checkConfig(); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"email":         email,
		"password":      password,
		"email_confirm": true,
	}

	var user IdentityUser
	if _, err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", c.config.ServiceKey, body, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, &IdentityError{Message: "Failed to create user in identity provider"}
	}

	c.logger.WithField("user_id", user.ID).Info("Identity user created")
	return &user, nil
}

// GetUser returns an account by id, or ErrNotFound
func (c *IdentityClient) GetUser(ctx context.Context, id string) (*IdentityUser, error) {
	if err := c.checkConfig(); err != nil {
		return nil, err
	}

	var user IdentityUser
	status, err := c.do(ctx, http.MethodGet, "/auth/v1/admin/users/"+url.PathEscape(id), c.config.ServiceKey, nil, &user)
	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account, or returns ErrNotFound
func (c *IdentityClient) DeleteUser(ctx context.Context, id string) error {
	if err := c.checkConfig(); err != nil {
		return err
	}

	status, err := c.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+url.PathEscape(id), c.config.ServiceKey, nil, nil)
	if status == http.StatusNotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	c.logger.WithField("user_id", id).Info("Identity user deleted")
	return nil
}

// Health returns client health status
func (c *IdentityClient) Health() map[string]interface{} {
	if err := c.checkConfig(); err != nil {
		return map[string]interface{}{
			"status": "unconfigured",
			"error":  err.Error(),
		}
	}
	return map[string]interface{}{
		"status": "configured",
		"url":    c.config.URL,
	}
}

// do sends one request and decodes a 2xx body into out. It always returns the
// response status when a response arrived.
func (c *IdentityClient) do(ctx context.Context, method, path, bearer string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.URL+path, reader)
	if err != nil {
		return 0, &IdentityError{Message: err.Error(), Err: err}
	}
	req.Header.Set("apikey", c.config.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("Identity provider request failed")
		return 0, &IdentityError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, &IdentityError{StatusCode: resp.StatusCode, Message: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &IdentityError{StatusCode: resp.StatusCode, Message: identityMessage(raw)}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, &IdentityError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("invalid response: %v", err), Err: err}
		}
	}
	return resp.StatusCode, nil
}

func identityMessage(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"msg", "message", "error_description", "error"} {
			if msg, ok := payload[key].(string); ok && msg != "" {
				return msg
			}
		}
	}
	return upstreamMessage(body)
}
