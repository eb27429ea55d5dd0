package services

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nexconsult/fgts-api/internal/models"
	"github.com/nexconsult/fgts-api/internal/repository"
	"github.com/nexconsult/fgts-api/internal/spreadsheet"
	"github.com/nexconsult/fgts-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func uploadWorkbook(t *testing.T, rows ...string) *bytes.Buffer {
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
	return buf
}

// resultRows returns the data rows of a result workbook, padded to four columns
func resultRows(t *testing.T, data []byte) [][]string {
	t.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(spreadsheet.ResultSheet)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	out := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		padded := make([]string, 4)
		copy(padded, row)
		out = append(out, padded)
	}
	return out
}

type batchFixture struct {
	provider *fakeProvider
	store    *MemoryCorrelationStore
	repo     *repository.MemoryBatchRepository
	results  storage.ResultStorage
	service  *BatchService
}

func newBatchFixture(results storage.ResultStorage) *batchFixture {
	provider := newFakeProvider()
	store := NewMemoryCorrelationStore(time.Hour, testLogger)
	consultations := NewConsultationService(fastProviderConfig(), provider, store, testLogger)
	repo := repository.NewMemoryBatchRepository()

	return &batchFixture{
		provider: provider,
		store:    store,
		repo:     repo,
		results:  results,
		service:  NewBatchService(consultations, repo, results, testLogger),
	}
}

func TestBatch_ResultFileFromMixedOutcomes(t *testing.T) {
	fx := newBatchFixture(storage.NewMemoryStorage())
	webhook := NewWebhookService(fx.store, testLogger)

	fx.provider.onSend = func(ctx context.Context, documentNumber, _ string) error {
		if documentNumber == "11144477735" {
			webhook.HandleCallback(ctx, map[string]interface{}{
				"documentNumber": documentNumber,
				"balance":        json.Number("100.50"),
			})
		}
		return nil
	}

	upload := uploadWorkbook(t, "documentNumber", "11144477735", "", "52998224725")

	batch, err := fx.service.Submit(context.Background(), testUser, "clientes.xlsx", "cartos", upload)
	require.NoError(t, err)
	assert.Equal(t, models.BatchProcessing, batch.Status)
	assert.Equal(t, 2, batch.TotalItems)

	require.NoError(t, fx.service.Wait(context.Background()))

	done, err := fx.service.Get(context.Background(), testUser, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchFinished, done.Status)
	assert.Equal(t, "/api/v1/lotes/"+batch.ID+"/download", done.ResultLocation)
	require.NotNil(t, done.FinishedAt)

	file, err := fx.service.Result(context.Background(), testUser, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, "clientes_resultado.xlsx", file.FileName)
	assert.Equal(t, spreadsheet.ContentType, file.ContentType)

	rows := resultRows(t, file.Data)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"11144477735", "cartos", "100.50", ""}, rows[0])
	assert.Equal(t, []string{"52998224725", "cartos", "", "Sem resposta"}, rows[1])

	stored, err := fx.results.Get(context.Background(), ResultKey(testUser.ID, batch.ID))
	require.NoError(t, err)
	assert.Equal(t, file.Data, stored)
}

func TestBatch_PreservesFileOrder(t *testing.T) {
	fx := newBatchFixture(storage.NewMemoryStorage())

	fx.provider.onSend = func(ctx context.Context, documentNumber, _ string) error {
		switch documentNumber {
		case "b":
			return &ConsultationDispatchError{StatusCode: 400, Message: "Documento inválido"}
		default:
			_, err := fx.store.Resolve(ctx, documentNumber, map[string]interface{}{"balance": json.Number("1")})
			return err
		}
	}

	batch, err := fx.service.Submit(context.Background(), testUser, "ordem.xlsx", "qi", uploadWorkbook(t, "doc", "a", "b", "c"))
	require.NoError(t, err)
	require.NoError(t, fx.service.Wait(context.Background()))

	assert.Equal(t, []string{"a", "b", "c"}, fx.provider.Sent())

	file, err := fx.service.Result(context.Background(), testUser, batch.ID)
	require.NoError(t, err)

	rows := resultRows(t, file.Data)
	require.Len(t, rows, 3)
	assert.Equal(t, "a", rows[0][0])
	assert.Equal(t, "b", rows[1][0])
	assert.Equal(t, "Documento inválido", rows[1][3])
	assert.Equal(t, "c", rows[2][0])
}

func TestBatch_StorageFailureMarksError(t *testing.T) {
	fx := newBatchFixture(failingStorage{})

	batch, err := fx.service.Submit(context.Background(), testUser, "clientes.xlsx", "bms", uploadWorkbook(t, "doc", "11144477735"))
	require.NoError(t, err)
	require.NoError(t, fx.service.Wait(context.Background()))

	failed, err := fx.service.Get(context.Background(), testUser, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchError, failed.Status)
	assert.Contains(t, failed.ErrorMessage, "bucket unavailable")
	assert.Empty(t, failed.ResultLocation)

	_, err = fx.service.Result(context.Background(), testUser, batch.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(1), fx.service.Metrics().Failed)
}

func TestBatch_WaitHonorsDeadline(t *testing.T) {
	fx := newBatchFixture(storage.NewMemoryStorage())

	// unresolved, so the poll window runs to exhaustion
	_, err := fx.service.Submit(context.Background(), testUser, "lento.xlsx", "qi", uploadWorkbook(t, "doc", "11144477735"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, fx.service.Wait(ctx), context.DeadlineExceeded)

	require.NoError(t, fx.service.Wait(context.Background()))
	assert.Equal(t, int64(0), fx.service.Metrics().Running)
}

func TestBatch_DrainRefusesNewBatches(t *testing.T) {
	fx := newBatchFixture(storage.NewMemoryStorage())
	ctx := context.Background()

	running, err := fx.service.Submit(ctx, testUser, "a.xlsx", "qi", uploadWorkbook(t, "doc", "11144477735"))
	require.NoError(t, err)

	require.NoError(t, fx.service.Drain(ctx))

	done, err := fx.service.Get(ctx, testUser, running.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchFinished, done.Status)

	_, err = fx.service.Submit(ctx, testUser, "b.xlsx", "qi", uploadWorkbook(t, "doc", "52998224725"))
	assert.ErrorIs(t, err, ErrShuttingDown)

	batches, err := fx.repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, batches, 2)
	for _, batch := range batches {
		if batch.ID != running.ID {
			assert.Equal(t, models.BatchError, batch.Status)
		}
	}
	assert.Equal(t, []string{"11144477735"}, fx.provider.Sent())
}

func TestBatch_SubmitRejections(t *testing.T) {
	fx := newBatchFixture(storage.NewMemoryStorage())
	ctx := context.Background()

	_, err := fx.service.Submit(ctx, testUser, "x.xlsx", "caixa", uploadWorkbook(t, "doc", "1"))
	assert.True(t, IsInvalidProvider(err))

	_, err = fx.service.Submit(ctx, testUser, "x.xlsx", "bms", uploadWorkbook(t, "doc", ""))
	assert.ErrorIs(t, err, ErrNoDocuments)

	_, err = fx.service.Submit(ctx, testUser, "x.xlsx", "bms", bytes.NewReader([]byte("not a workbook")))
	assert.ErrorIs(t, err, ErrInvalidFile)

	_, err = fx.service.Submit(ctx, testUser, "x.xlsx", "bms", nil)
	assert.ErrorIs(t, err, ErrFileRequired)

	batches, err := fx.repo.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestBatch_Visibility(t *testing.T) {
	fx := newBatchFixture(storage.NewMemoryStorage())
	ctx := context.Background()

	mine, err := fx.service.Submit(ctx, testUser, "a.xlsx", "bms", uploadWorkbook(t, "doc", "1"))
	require.NoError(t, err)
	theirs, err := fx.service.Submit(ctx, otherUser, "b.xlsx", "bms", uploadWorkbook(t, "doc", "2"))
	require.NoError(t, err)
	require.NoError(t, fx.service.Wait(context.Background()))

	_, err = fx.service.Get(ctx, otherUser, mine.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = fx.service.Get(ctx, testAdmin, mine.ID)
	assert.NoError(t, err)

	_, err = fx.service.Get(ctx, testUser, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	own, err := fx.service.List(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, mine.ID, own[0].ID)

	all, err := fx.service.List(ctx, testAdmin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	ids := []string{all[0].ID, all[1].ID}
	assert.Contains(t, ids, theirs.ID)
}
