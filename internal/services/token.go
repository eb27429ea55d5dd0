package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nexconsult/fgts-api/internal/config"
	"github.com/sirupsen/logrus"
)

// tokenRefreshMargin is how long before expiry a cached token stops being reused
const tokenRefreshMargin = 5 * time.Minute

// TokenCache obtains and caches the provider access token
type TokenCache struct {
	config config.ProviderConfig
	client *http.Client
	logger *logrus.Logger
	now    func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// NewTokenCache creates a new token cache
func NewTokenCache(cfg config.ProviderConfig, client *http.Client, logger *logrus.Logger) *TokenCache {
	return &TokenCache{
		config: cfg,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Token returns a cached token while it stays valid for more than five
// minutes, otherwise it fetches a new one synchronously.
func (t *TokenCache) Token(ctx context.Context) (string, error) {
	if names := missing(
		"V8_AUTH_URL", t.config.AuthURL,
		"V8_CLIENT_ID", t.config.ClientID,
		"V8_USERNAME", t.config.Username,
		"V8_PASSWORD", t.config.Password,
		"V8_AUDIENCE", t.config.Audience,
		"V8_SCOPE", t.config.Scope,
	); len(names) > 0 {
		return "", &ConfigurationError{Missing: names}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.token != "" && t.expiresAt.After(now.Add(tokenRefreshMargin)) {
		return t.token, nil
	}

	resp, err := t.fetch(ctx)
	if err != nil {
		t.logger.WithError(err).Error("Failed to obtain provider token")
		return "", err
	}

	t.token = resp.AccessToken
	t.expiresAt = now.Add(time.Duration(resp.ExpiresIn) * time.Second)

	t.logger.WithField("expires_at", t.expiresAt).Debug("Provider token refreshed")
	return t.token, nil
}

// ExpiresAt returns the expiry of the cached token, zero when none is cached
func (t *TokenCache) ExpiresAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expiresAt
}

func (t *TokenCache) fetch(ctx context.Context) (*tokenResponse, error) {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {t.config.Username},
		"password":   {t.config.Password},
		"audience":   {t.config.Audience},
		"scope":      {t.config.Scope},
		"client_id":  {t.config.ClientID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TokenFetchError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TokenFetchError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TokenFetchError{StatusCode: resp.StatusCode, Message: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TokenFetchError{StatusCode: resp.StatusCode, Message: upstreamMessage(body)}
	}

	var out tokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &TokenFetchError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("invalid token response: %v", err), Err: err}
	}
	if out.AccessToken == "" {
		return nil, &TokenFetchError{StatusCode: resp.StatusCode, Message: "token response without access_token"}
	}

	return &out, nil
}

// upstreamMessage extracts the most useful message from an upstream error body
func upstreamMessage(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"message", "error_description", "error"} {
			if msg, ok := payload[key].(string); ok && msg != "" {
				return msg
			}
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "empty response body"
	}
	return text
}
