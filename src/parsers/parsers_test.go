package parsers

import (
	"bytes"
	"os"
	"strings"
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

func TestGetParser(t *testing.T) {
	p, err := GetParser("trades.csv")
	require.NoError(t, err)
	assert.IsType(t, &CSVParser{}, p)

	p, err = GetParser("Trades.XLSX")
	require.NoError(t, err)
	assert.IsType(t, &XLSXParser{}, p)

	_, err = GetParser("trades.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDetectColumnMapping(t *testing.T) {
	mapping := detectColumnMapping([]string{"Trade Date", "Transaction Type", "Quantity", "Price per Share", "Entity", "Fund Name"})

	assert.Equal(t, "trade_date", mapping["date"])
	assert.Equal(t, "transaction_type", mapping["type"])
	assert.Equal(t, "quantity", mapping["quantity"])
	assert.Equal(t, "price_per_share", mapping["price"])
	assert.Equal(t, "entity", mapping["entity"])
	assert.Equal(t, "fund_name", mapping["fund"])
}

func TestCSVParseTypedLayout(t *testing.T) {
	input := strings.Join([]string{
		"Trade Date,Transaction Type,Quantity,Price,Entity,Fund Name",
		"2015-03-01,Purchase,100,40.50,Alpha,Fund1",
		"2015-08-03,Sale,50,28.00,Alpha,Fund1",
		"2015-02-01,Beginning Holdings,200,99.99,Beta,Fund2",
		"not-a-date,Buy,10,1.00,Alpha,Fund1",
	}, "\n")

	result, err := NewCSVParser().Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalRows)
	require.Len(t, result.Transactions, 3)
	require.Len(t, result.RowErrors, 1)
	assert.Contains(t, result.RowErrors[0], "invalid date")

	purchase := result.Transactions[0]
	assert.Equal(t, models.TypePurchase, purchase.Type)
	assert.Equal(t, time.Date(2015, time.March, 1, 0, 0, 0, 0, time.UTC), purchase.Date)
	assert.Equal(t, 100.0, purchase.Quantity)
	assert.Equal(t, 40.50, purchase.Price)
	assert.Equal(t, "Alpha", purchase.Entity)
	assert.Equal(t, "Fund1", purchase.FundName)

	sale := result.Transactions[1]
	assert.Equal(t, models.TypeSale, sale.Type)

	holdings := result.Transactions[2]
	assert.Equal(t, models.TypeBeginningHoldings, holdings.Type)
	// Holdings never carry a cost basis, whatever the file says.
	assert.Equal(t, 0.0, holdings.Price)
}

func TestCSVParseHoldingsWithoutDate(t *testing.T) {
	input := strings.Join([]string{
		"Trade Date,Transaction Type,Quantity,Price,Entity,Fund Name",
		",Beginning Holdings,200,0,Beta,Fund2",
	}, "\n")

	result, err := NewCSVParser().Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Empty(t, result.RowErrors)
	require.Len(t, result.Transactions, 1)
	holdings := result.Transactions[0]
	assert.Equal(t, models.TypeBeginningHoldings, holdings.Type)
	assert.Equal(t, 200.0, holdings.Quantity)
	assert.True(t, holdings.Date.IsZero())

	// The wide layout gets the same treatment; purchases and sales still
	// need a date and are dropped without one.
	input = strings.Join([]string{
		"Date,Purchases,Sales,Holdings",
		",,,150",
		",100,,",
	}, "\n")

	result, err = NewCSVParser().Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Empty(t, result.RowErrors)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, models.TypeBeginningHoldings, result.Transactions[0].Type)
	assert.Equal(t, 150.0, result.Transactions[0].Quantity)
}

func TestCSVParseWideLayout(t *testing.T) {
	input := strings.Join([]string{
		"Date,Purchases,Sales,Holdings,Price per Share",
		"2015-03-01,100,,,40.5",
		"2015-08-03,,50,,28",
		"2015-02-01,,,200,",
		"2015-09-01,,,,",
	}, "\n")

	result, err := NewCSVParser().Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Empty(t, result.RowErrors)
	require.Len(t, result.Transactions, 3)
	assert.Equal(t, models.TypePurchase, result.Transactions[0].Type)
	assert.Equal(t, models.TypeSale, result.Transactions[1].Type)
	assert.Equal(t, models.TypeBeginningHoldings, result.Transactions[2].Type)
	assert.Equal(t, 200.0, result.Transactions[2].Quantity)

	// Unnamed entities default per row so they stay distinguishable.
	assert.Equal(t, "Row_0", result.Transactions[0].Entity)
	assert.Equal(t, result.Transactions[0].Entity, result.Transactions[0].FundName)
}

func TestCSVParseDateTime(t *testing.T) {
	input := strings.Join([]string{
		"Date,Type,Quantity,Price",
		"2015-04-28 15:10:00,Sale,10,45.00",
	}, "\n")

	result, err := NewCSVParser().Parse(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	got := result.Transactions[0].Date
	assert.Equal(t, 15, got.Hour())
	assert.Equal(t, 10, got.Minute())
}

func TestCSVParseEmpty(t *testing.T) {
	_, err := NewCSVParser().Parse(strings.NewReader(""))
	assert.Error(t, err)
}

func TestXLSXParse(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	rows := [][]interface{}{
		{"Trade Date", "Transaction Type", "Quantity", "Price", "Entity", "Fund Name"},
		{"2015-03-01", "Purchase", 100, 40.5, "Alpha", "Fund1"},
		{"2015-08-03", "Sale", 50, 28.0, "Alpha", "Fund1"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	result, err := NewXLSXParser().Parse(&buf)
	require.NoError(t, err)

	require.Len(t, result.Transactions, 2)
	assert.Equal(t, models.TypePurchase, result.Transactions[0].Type)
	assert.Equal(t, 100.0, result.Transactions[0].Quantity)
	assert.Equal(t, 40.5, result.Transactions[0].Price)
	assert.Equal(t, models.TypeSale, result.Transactions[1].Type)
}
