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

type staticToken string

func (s staticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

func providerConfig(consultaURL string) config.ProviderConfig {
	return config.ProviderConfig{
		ConsultaURL:      consultaURL,
		WebhookURL:       "https://portal.example.com/webhook",
		AllowedProviders: []string{"bms", "qi", "cartos"},
	}
}

func TestProviderClient_SendConsultation(t *testing.T) {
	var payload consultaPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewProviderClient(providerConfig(server.URL), staticToken("tok"), server.Client(), testLogger)

	err := client.SendConsultation(context.Background(), "11144477735", "Cartos")
	require.NoError(t, err)

	assert.Equal(t, "11144477735", payload.DocumentNumber)
	assert.Equal(t, "cartos", payload.Provider)
	assert.Equal(t, "https://portal.example.com/webhook", payload.Webhook)
}

func TestProviderClient_InvalidProvider(t *testing.T) {
	client := NewProviderClient(providerConfig("http://unused"), staticToken("tok"), http.DefaultClient, testLogger)

	err := client.SendConsultation(context.Background(), "11144477735", "caixa")
	require.Error(t, err)
	assert.True(t, IsInvalidProvider(err))
	assert.Contains(t, err.Error(), "bms, qi, cartos")
}

func TestProviderClient_UpstreamRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"Documento inválido"}`))
	}))
	defer server.Close()

	client := NewProviderClient(providerConfig(server.URL), staticToken("tok"), server.Client(), testLogger)

	err := client.SendConsultation(context.Background(), "000", "qi")
	require.Error(t, err)

	var dispatchErr *ConsultationDispatchError
	require.True(t, errors.As(err, &dispatchErr))
	assert.Equal(t, http.StatusUnprocessableEntity, dispatchErr.StatusCode)
	assert.Equal(t, "Documento inválido", dispatchErr.Message)
	assert.Equal(t, `{"error":"Documento inválido"}`, dispatchErr.Body)
}

func TestProviderClient_MissingURLs(t *testing.T) {
	cfg := providerConfig("")
	cfg.WebhookURL = ""
	client := NewProviderClient(cfg, staticToken("tok"), http.DefaultClient, testLogger)

	err := client.SendConsultation(context.Background(), "11144477735", "bms")
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "CONSULTA_API_URL, WEBHOOK_URL")
}

func TestDispatchMessage(t *testing.T) {
	assert.Equal(t, "falhou", dispatchMessage([]byte(`{"message":"falhou"}`), "500 Internal Server Error"))
	assert.Equal(t, "plain text", dispatchMessage([]byte("plain text"), "500 Internal Server Error"))
	assert.Equal(t, "Falha na consulta: 502 Bad Gateway", dispatchMessage(nil, "502 Bad Gateway"))
}
