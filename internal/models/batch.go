package models

import "time"

// BatchStatus represents the processing state of a batch
type BatchStatus string

const (
	BatchProcessing BatchStatus = "processando"
	BatchFinished   BatchStatus = "finalizado"
	BatchError      BatchStatus = "erro"
)

// IsTerminal reports whether the batch reached its final state
func (s BatchStatus) IsTerminal() bool {
	return s == BatchFinished || s == BatchError
}

// IsValid reports whether s is a known status
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchProcessing, BatchFinished, BatchError:
		return true
	}
	return false
}

// Batch represents one bulk upload job
type Batch struct {
	ID             string      `json:"id" example:"3f1c2b8e-8a0e-4d7e-9a59-0d3d3c1f5a10"`
	UserID         string      `json:"userId"`
	FileName       string      `json:"fileName" example:"clientes.xlsx"`
	Provider       string      `json:"provider" example:"cartos"`
	Status         BatchStatus `json:"status" example:"processando"`
	TotalItems     int         `json:"totalItems" example:"2"`
	StartedAt      time.Time   `json:"startedAt" example:"2024-01-15T10:30:00Z"`
	FinishedAt     *time.Time  `json:"finishedAt,omitempty"`
	ResultLocation string      `json:"resultLocation,omitempty" example:"/api/v1/lotes/3f1c2b8e-8a0e-4d7e-9a59-0d3d3c1f5a10/download"`
	ErrorMessage   string      `json:"errorMessage,omitempty"`
	ResultKey      string      `json:"-"`
}

// BatchItemResult is one row of a batch result file
type BatchItemResult struct {
	DocumentNumber string      `json:"documentNumber"`
	Provider       string      `json:"provider"`
	Balance        interface{} `json:"balance,omitempty"`
	ErrorMessage   string      `json:"errorMessage,omitempty"`
}

// BatchAcceptedResponse is returned when an upload is accepted
type BatchAcceptedResponse struct {
	Message string `json:"message" example:"Processamento do lote iniciado."`
	LoteID  string `json:"loteId" example:"3f1c2b8e-8a0e-4d7e-9a59-0d3d3c1f5a10"`
}

// BatchResultFile is a finished batch workbook ready for download
type BatchResultFile struct {
	FileName    string
	ContentType string
	Data        []byte
}
