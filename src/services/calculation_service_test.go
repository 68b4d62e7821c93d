package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/lossfolio/backend/src/database"
	"github.com/username/lossfolio/backend/src/logger"
	"github.com/username/lossfolio/backend/src/models"
	"github.com/username/lossfolio/backend/src/processors"
	"github.com/username/lossfolio/backend/src/settlement"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")

	dir, err := os.MkdirTemp("", "lossfolio-service-test")
	if err != nil {
		panic(err)
	}
	database.InitDB(filepath.Join(dir, "test.db"))

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func newTestService() CalculationService {
	return NewCalculationService(
		processors.NewFIFOMatchProcessor(),
		processors.NewHeldPositionProcessor(),
		processors.NewReportSummaryProcessor(),
		cache.New(time.Minute, time.Minute),
	)
}

const testCSV = `Trade Date,Transaction Type,Quantity,Price,Entity,Fund Name
2015-03-01,Purchase,100,40.00,Alpha,Fund1
2015-08-03,Sale,50,28.00,Alpha,Fund1
2015-02-01,Beginning Holdings,200,0,Beta,Fund2
`

func TestUploadCalculateRoundTrip(t *testing.T) {
	svc := newTestService()

	upload, err := svc.ProcessUpload(strings.NewReader(testCSV), "trades.csv", settlement.Twitter)
	require.NoError(t, err)
	require.NotEmpty(t, upload.UploadID)
	assert.Equal(t, "TWITTER", upload.SettlementType)
	assert.Equal(t, 3, upload.TransactionCount)
	assert.Equal(t, 0, upload.ErrorCount)
	assert.NotEmpty(t, upload.Preview)

	// Stored transactions come back normalized; beginning holdings sit the
	// day before the class period with no cost basis.
	txs, err := svc.GetUploadTransactions(upload.UploadID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	for _, tx := range txs {
		if tx.Type == models.TypeBeginningHoldings {
			assert.Equal(t, time.Date(2015, time.February, 5, 0, 0, 0, 0, time.UTC), tx.Date)
			assert.Equal(t, 0.0, tx.Price)
		}
	}

	batch, err := svc.Calculate(upload.UploadID)
	require.NoError(t, err)
	require.NotEmpty(t, batch.CalculationID)
	require.True(t, batch.Result.Success)
	assert.Equal(t, "TWITTER", batch.Result.SettlementType)
	assert.NotEmpty(t, batch.Result.Matches)
	require.NotNil(t, batch.Result.Summary)
	assert.Greater(t, batch.Result.Summary.TotalLoss, 0.0)

	cached, err := svc.GetResult(batch.CalculationID)
	require.NoError(t, err)
	assert.Equal(t, batch.Result, cached)
}

type explodingSummaryProcessor struct{}

func (explodingSummaryProcessor) Summarize(string, []models.MatchResult) *models.Summary {
	panic("summary exploded")
}

func TestCalculateRecoversFromPanic(t *testing.T) {
	svc := NewCalculationService(
		processors.NewFIFOMatchProcessor(),
		processors.NewHeldPositionProcessor(),
		explodingSummaryProcessor{},
		cache.New(time.Minute, time.Minute),
	)

	upload, err := svc.ProcessUpload(strings.NewReader(testCSV), "trades.csv", settlement.Twitter)
	require.NoError(t, err)

	batch, err := svc.Calculate(upload.UploadID)
	require.NoError(t, err)
	require.NotNil(t, batch.Result)
	assert.False(t, batch.Result.Success)
	assert.Contains(t, batch.Result.Error, "summary exploded")
	assert.Nil(t, batch.Result.Summary)
	assert.Empty(t, batch.Result.Matches)
	assert.Equal(t, "TWITTER", batch.Result.SettlementType)

	// The failed result is still retrievable under its calculation ID.
	stored, err := svc.GetResult(batch.CalculationID)
	require.NoError(t, err)
	assert.False(t, stored.Success)
}

func TestCalculateUnknownUpload(t *testing.T) {
	svc := newTestService()

	_, err := svc.Calculate("does-not-exist")
	assert.ErrorIs(t, err, ErrUploadNotFound)

	_, err = svc.GetUploadTransactions("does-not-exist")
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestGetResultUnknownCalculation(t *testing.T) {
	svc := newTestService()

	_, err := svc.GetResult("does-not-exist")
	assert.ErrorIs(t, err, ErrCalculationNotFound)
}

func TestProcessUploadRejectsBadInput(t *testing.T) {
	svc := newTestService()

	_, err := svc.ProcessUpload(strings.NewReader(testCSV), "trades.pdf", settlement.Twitter)
	assert.ErrorIs(t, err, ErrParsingFailed)

	_, err = svc.ProcessUpload(strings.NewReader("Date,Type,Quantity,Price\n"), "empty.csv", settlement.Twitter)
	assert.ErrorIs(t, err, ErrParsingFailed)
}

func TestCalculateSingle(t *testing.T) {
	svc := newTestService()

	saleDate := time.Date(2015, time.April, 28, 15, 10, 0, 0, time.UTC)
	salePrice := 45.0
	result, err := svc.CalculateSingle(SingleInput{
		Type:          settlement.Twitter,
		PurchaseDate:  time.Date(2015, time.March, 1, 0, 0, 0, 0, time.UTC),
		PurchasePrice: 60,
		SaleDate:      &saleDate,
		SalePrice:     &salePrice,
		Quantity:      100,
	})
	require.NoError(t, err)

	assert.Equal(t, "B", result.RuleCode)
	assert.Equal(t, 8.97, result.PerShareLoss)
	assert.Equal(t, 897.0, result.TotalLoss)
	require.NotEmpty(t, result.CalculationID)

	// Single evaluations are retrievable like batch runs.
	stored, err := svc.GetResult(result.CalculationID)
	require.NoError(t, err)
	require.Len(t, stored.Matches, 1)
	assert.Equal(t, "single_0", stored.Matches[0].MatchID)
}

func TestCalculateSingleUnknownType(t *testing.T) {
	svc := newTestService()

	_, err := svc.CalculateSingle(SingleInput{Type: settlement.Type("ENRON")})
	assert.ErrorIs(t, err, ErrProcessingFailed)
}
