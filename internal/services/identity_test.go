package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nexconsult/fgts-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentityServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"msg":"invalid JWT"}`))
			return
		}
		w.Write([]byte(`{"id":"user-1","email":"ana@example.com"}`))
	})
	mux.HandleFunc("/auth/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["email"] == "taken@example.com" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"msg":"A user with this email address has already been registered"}`))
			return
		}
		assert.Equal(t, true, body["email_confirm"])
		w.Write([]byte(`{"id":"user-9","email":"` + body["email"].(string) + `"}`))
	})
	mux.HandleFunc("/auth/v1/admin/users/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/auth/v1/admin/users/"):]
		if id != "user-9" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"msg":"User not found"}`))
			return
		}
		if r.Method == http.MethodDelete {
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(`{"id":"user-9","email":"novo@example.com"}`))
	})

	return httptest.NewServer(mux)
}

func newTestIdentityClient(server *httptest.Server) *IdentityClient {
	cfg := config.IdentityConfig{URL: server.URL, ServiceKey: "service-key"}
	return NewIdentityClient(cfg, server.Client(), testLogger)
}

func TestIdentityClient_VerifyToken(t *testing.T) {
	server := newIdentityServer(t)
	defer server.Close()
	client := newTestIdentityClient(server)

	user, err := client.VerifyToken(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "ana@example.com", user.Email)

	_, err = client.VerifyToken(context.Background(), "bad-token")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = client.VerifyToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestIdentityClient_AdminCalls(t *testing.T) {
	server := newIdentityServer(t)
	defer server.Close()
	client := newTestIdentityClient(server)
	ctx := context.Background()

	created, err := client.CreateUser(ctx, "novo@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "user-9", created.ID)

	_, err = client.CreateUser(ctx, "taken@example.com", "secret1")
	var identityErr *IdentityError
	require.True(t, errors.As(err, &identityErr))
	assert.Equal(t, http.StatusUnprocessableEntity, identityErr.StatusCode)
	assert.Equal(t, "A user with this email address has already been registered", identityErr.Message)

	fetched, err := client.GetUser(ctx, "user-9")
	require.NoError(t, err)
	assert.Equal(t, "novo@example.com", fetched.Email)

	_, err = client.GetUser(ctx, "user-404")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, client.DeleteUser(ctx, "user-9"))
	assert.ErrorIs(t, client.DeleteUser(ctx, "user-404"), ErrNotFound)
}

func TestIdentityClient_Unconfigured(t *testing.T) {
	client := NewIdentityClient(config.IdentityConfig{}, http.DefaultClient, testLogger)

	_, err := client.VerifyToken(context.Background(), "token")
	assert.True(t, IsConfigurationError(err))
	assert.Equal(t, "unconfigured", client.Health()["status"])
}
