package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nexconsult/fgts-api/internal/config"
	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/nexconsult/fgts-api/internal/repository"
	"github.com/nexconsult/fgts-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// callbackProvider answers every dispatch by posting to the server's
// /webhook after a delay, the way the real provider does
type callbackProvider struct {
	webhookURL string
	delay      time.Duration
	client     *http.Client

	wg sync.WaitGroup
}

func (p *callbackProvider) ValidateProvider(provider string) (string, error) {
	return strings.ToLower(strings.TrimSpace(provider)), nil
}

func (p *callbackProvider) SendConsultation(_ context.Context, documentNumber, _ string) error {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		time.Sleep(p.delay)

		body := fmt.Sprintf(`{"documentNumber": %q, "balance": 250.75}`, documentNumber)
		resp, err := p.client.Post(p.webhookURL, "application/json", strings.NewReader(body))
		if err == nil {
			resp.Body.Close()
		}
	}()
	return nil
}

func (p *callbackProvider) AllowedProviders() []string {
	return []string{"bms", "qi", "cartos"}
}

func workbookBytes(t *testing.T, rows ...string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, value := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, value))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestServer_ShutdownKeepsWebhookUntilBatchesFinish(t *testing.T) {
	container := newTestContainer(t)
	log := container.GetLogger()

	provider := &callbackProvider{delay: 50 * time.Millisecond}
	container.ConsultationService = services.NewConsultationService(config.ProviderConfig{
		PollInterval:    10 * time.Millisecond,
		MaxPollAttempts: 50,
	}, provider, container.CorrelationStore, log)
	container.BatchService = services.NewBatchService(container.ConsultationService,
		repository.NewMemoryBatchRepository(), container.ResultStorage, log)

	server := NewServer(container)
	ts := httptest.NewServer(server.Router)
	defer ts.Close()
	provider.webhookURL = ts.URL + "/webhook"
	provider.client = ts.Client()

	user := &models.User{ID: "user-1", Email: "user@example.com", Role: models.RoleUser}
	upload := workbookBytes(t, "documentNumber", "11144477735", "52998224725", "39053344705")
	batch, err := container.BatchService.Submit(context.Background(), user, "clientes.xlsx", "qi", bytes.NewReader(upload))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx, ts.Config))
	provider.wg.Wait()

	done, err := container.BatchService.Get(context.Background(), user, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchFinished, done.Status)

	metrics := container.ConsultationService.Metrics()
	assert.Equal(t, int64(3), metrics.Succeeded)
	assert.Equal(t, int64(0), metrics.TimedOut)

	_, err = container.BatchService.Submit(context.Background(), user, "tarde.xlsx", "qi", bytes.NewReader(upload))
	assert.ErrorIs(t, err, services.ErrShuttingDown)
}
