package parsers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/username/lossfolio/backend/src/models"
	"github.com/username/lossfolio/backend/src/utils"
)

// Column-name variations accepted per logical field. Headers are normalized
// (lowercased, spaces and hyphens to underscores) before matching, and a
// substring match in either direction counts.
var columnPatterns = map[string][]string{
	"date":     {"trade_date", "date", "transaction_date"},
	"quantity": {"quantity", "shares", "qty"},
	"price":    {"price", "price_per_share"},
	"type":     {"type", "transaction_type"},
	"fund":     {"fund_name", "fund"},
	"entity":   {"entity", "client", "customer"},
}

// Per-type quantity columns used by the wide spreadsheet layout, where one
// row carries purchases, sales and holdings in separate columns.
const (
	colPurchases = "purchases"
	colSales     = "sales"
	colHoldings  = "holdings"
)

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}

// detectColumnMapping maps logical field names to normalized file headers.
func detectColumnMapping(headers []string) map[string]string {
	mapping := make(map[string]string)
	for _, header := range headers {
		normalized := normalizeHeader(header)
		if normalized == "" {
			continue
		}
		for key, patterns := range columnPatterns {
			if _, done := mapping[key]; done {
				continue
			}
			for _, pattern := range patterns {
				if strings.Contains(normalized, pattern) || strings.Contains(pattern, normalized) {
					mapping[key] = normalized
					break
				}
			}
		}
	}
	return mapping
}

// row holds one file row keyed by normalized header.
type row map[string]string

func (r row) get(column string) string {
	return strings.TrimSpace(r[column])
}

func (r row) getFloat(column string) float64 {
	v, err := strconv.ParseFloat(r.get(column), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseRow turns one file row into a transaction. A nil transaction with a
// nil error means the row carries no usable transaction and is skipped
// without counting as an error.
func parseRow(r row, mapping map[string]string, rowIndex int) (*models.Transaction, error) {
	typeStr := strings.ToLower(r.get(mapping["type"]))

	var txType models.TransactionType
	switch {
	case strings.Contains(typeStr, "beginning"),
		strings.Contains(typeStr, "opening"),
		strings.Contains(typeStr, "holding"):
		txType = models.TypeBeginningHoldings
	case strings.Contains(typeStr, "purchase"), strings.Contains(typeStr, "buy"):
		txType = models.TypePurchase
	case strings.Contains(typeStr, "sale"), strings.Contains(typeStr, "sell"):
		txType = models.TypeSale
	default:
		// No type column; infer from the wide-layout quantity columns.
		switch {
		case r.getFloat(colPurchases) > 0:
			txType = models.TypePurchase
		case r.getFloat(colSales) > 0:
			txType = models.TypeSale
		case r.getFloat(colHoldings) > 0:
			txType = models.TypeBeginningHoldings
		default:
			return nil, nil
		}
	}

	var quantity float64
	switch txType {
	case models.TypePurchase:
		quantity = r.getFloat(colPurchases)
	case models.TypeSale:
		quantity = r.getFloat(colSales)
	case models.TypeBeginningHoldings:
		quantity = r.getFloat(colHoldings)
	}
	if quantity <= 0 {
		quantity = r.getFloat(mapping["quantity"])
	}
	if quantity <= 0 {
		return nil, nil
	}

	// Beginning holdings files often omit a date; the upload loader re-dates
	// them to the eve of the class period regardless. Every other row needs
	// a parseable date.
	var date time.Time
	if dateStr := r.get(mapping["date"]); dateStr != "" {
		parsed, err := utils.ParseFlexibleDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q", dateStr)
		}
		date = parsed
	} else if txType != models.TypeBeginningHoldings {
		return nil, nil
	}

	price := r.getFloat(mapping["price"])
	if txType == models.TypeBeginningHoldings {
		price = 0
	}

	entity := r.get(mapping["entity"])
	if entity == "" {
		entity = fmt.Sprintf("Row_%d", rowIndex)
	}
	fundName := r.get(mapping["fund"])
	if fundName == "" {
		fundName = entity
	}

	return &models.Transaction{
		ID:       fmt.Sprintf("row_%d", rowIndex),
		Date:     date,
		Quantity: quantity,
		Price:    price,
		Type:     txType,
		Entity:   entity,
		FundName: fundName,
	}, nil
}

// parseRows drives parseRow over a header row plus data rows, accumulating
// row-level errors without aborting.
func parseRows(headers []string, records [][]string) *ParseResult {
	mapping := detectColumnMapping(headers)

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	result := &ParseResult{
		TotalRows:     len(records),
		ColumnMapping: mapping,
	}

	for i, record := range records {
		r := make(row, len(normalized))
		for col, header := range normalized {
			if header == "" || col >= len(record) {
				continue
			}
			r[header] = record[col]
		}

		tx, err := parseRow(r, mapping, i)
		if err != nil {
			result.RowErrors = append(result.RowErrors, fmt.Sprintf("Row %d: %v", i, err))
			continue
		}
		if tx != nil {
			result.Transactions = append(result.Transactions, *tx)
		}
	}

	return result
}
