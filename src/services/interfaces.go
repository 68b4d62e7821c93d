package services

import (
	"errors"
	"io"
	"time"

	"github.com/username/lossfolio/backend/src/models"
	"github.com/username/lossfolio/backend/src/settlement"
)

var (
	ErrParsingFailed       = errors.New("parsing failed")
	ErrProcessingFailed    = errors.New("processing failed")
	ErrUploadNotFound      = errors.New("upload not found")
	ErrCalculationNotFound = errors.New("calculation not found")
)

// UploadResult summarizes one stored upload batch.
type UploadResult struct {
	UploadID         string               `json:"upload_id"`
	Filename         string               `json:"filename"`
	SettlementType   string               `json:"settlement_type"`
	TransactionCount int                  `json:"transaction_count"`
	TotalRows        int                  `json:"total_rows"`
	ErrorCount       int                  `json:"error_count"`
	Errors           []string             `json:"errors,omitempty"`
	ColumnMapping    map[string]string    `json:"column_mapping,omitempty"`
	Preview          []models.Transaction `json:"preview,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

// SingleInput is one purchase/(optional) sale pair to evaluate.
type SingleInput struct {
	Type          settlement.Type
	PurchaseDate  time.Time
	PurchasePrice float64
	SaleDate      *time.Time
	SalePrice     *float64
	Quantity      float64
}

// SingleResult is the evaluation of one SingleInput, stored under
// CalculationID for later retrieval and export.
type SingleResult struct {
	CalculationID  string                 `json:"calculation_id"`
	SettlementType string                 `json:"settlement_type"`
	Quantity       float64                `json:"quantity"`
	PerShareLoss   float64                `json:"loss_per_share"`
	TotalLoss      float64                `json:"recognized_loss"`
	RuleCode       string                 `json:"rule_code"`
	RuleApplied    string                 `json:"rule_applied"`
	Details        map[string]interface{} `json:"details,omitempty"`
	CalculatedAt   time.Time              `json:"calculated_at"`
}

// BatchResult pairs a full calculation run with its cache key.
type BatchResult struct {
	CalculationID string                    `json:"calculation_id"`
	Result        *models.CalculationResult `json:"result"`
}

// CalculationService is the application boundary: it stores uploads, runs
// the calculation pipeline and serves cached results.
type CalculationService interface {
	ProcessUpload(file io.Reader, filename string, settlementType settlement.Type) (*UploadResult, error)
	GetUploadTransactions(uploadID string) ([]models.Transaction, error)
	Calculate(uploadID string) (*BatchResult, error)
	CalculateSingle(input SingleInput) (*SingleResult, error)
	GetResult(calculationID string) (*models.CalculationResult, error)
}
