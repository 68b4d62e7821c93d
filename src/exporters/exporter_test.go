package exporters

import (
	"bytes"
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/username/lossfolio/backend/src/logger"
	"github.com/username/lossfolio/backend/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func sampleResult() *models.CalculationResult {
	saleDate := time.Date(2015, time.August, 3, 0, 0, 0, 0, time.UTC)
	salePrice := 28.0
	matches := []models.MatchResult{
		{
			MatchID:        "p1_s1_0",
			PurchaseID:     "p1",
			SaleID:         "s1",
			Quantity:       50,
			RecognizedLoss: 536.5,
			RuleApplied:    "Rule (c): Sold during lookback period",
			RuleCode:       "C",
			PurchaseDate:   time.Date(2015, time.March, 1, 0, 0, 0, 0, time.UTC),
			SaleDate:       &saleDate,
			PurchasePrice:  40,
			SalePrice:      &salePrice,
			Entity:         "=SUM(A1:A9)",
			FundName:       "Fund1",
		},
		{
			MatchID:        "p2_held_0",
			PurchaseID:     "p2",
			Quantity:       100,
			RecognizedLoss: 194,
			RuleApplied:    "Rule (d): Held shares",
			RuleCode:       "D",
			PurchaseDate:   time.Date(2015, time.April, 2, 0, 0, 0, 0, time.UTC),
			PurchasePrice:  30,
			Entity:         "Alpha",
			FundName:       "Fund2",
		},
	}

	return &models.CalculationResult{
		Success:        true,
		SettlementType: "TWITTER",
		Matches:        matches,
		Summary: &models.Summary{
			SettlementType: "TWITTER",
			TotalLoss:      730.5,
			TotalQuantity:  150,
			MatchCount:     2,
			ByEntity: map[string]models.EntitySummary{
				"=SUM(A1:A9)": {RecognizedLoss: 536.5, Quantity: 50, MatchCount: 1, Funds: []string{"Fund1"}},
				"Alpha":       {RecognizedLoss: 194, Quantity: 100, MatchCount: 1, Funds: []string{"Fund2"}},
			},
			ByFund: map[string]models.FundSummary{
				"Fund1": {RecognizedLoss: 536.5, Quantity: 50, MatchCount: 1, Entities: []string{"=SUM(A1:A9)"}},
				"Fund2": {RecognizedLoss: 194, Quantity: 100, MatchCount: 1, Entities: []string{"Alpha"}},
			},
		},
		CalculatedAt: time.Date(2015, time.November, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, matchHeaders, records[0])
	assert.Equal(t, "p1_s1_0", records[1][0])
	assert.Equal(t, "536.5", records[1][4])
	assert.Equal(t, "10.73", records[1][5])

	// Formula-looking cells are neutralized.
	assert.Equal(t, "'=SUM(A1:A9)", records[1][12])

	// Held matches have no sale side.
	assert.Equal(t, "", records[2][2])
	assert.Equal(t, "", records[2][9])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleResult()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Matches", "Summary", "Entity Summary", "Fund Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Matches")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "p1_s1_0", rows[1][0])

	summaryRows, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, "Settlement Type", summaryRows[0][0])
	assert.Equal(t, "TWITTER", summaryRows[0][1])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleResult()))

	assert.Contains(t, buf.String(), `"settlement_type": "TWITTER"`)
	assert.Contains(t, buf.String(), `"total_recognized_loss": 730.5`)
}
