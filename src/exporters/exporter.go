// Package exporters writes calculation results as CSV, Excel workbooks, or
// JSON summary reports.
package exporters

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/username/lossfolio/backend/src/logger"
	"github.com/username/lossfolio/backend/src/models"
	"github.com/username/lossfolio/backend/src/security/validation"
	"github.com/username/lossfolio/backend/src/utils"
)

var matchHeaders = []string{
	"match_id", "purchase_id", "sale_id", "quantity", "recognized_loss",
	"loss_per_share", "rule_applied", "rule_code", "purchase_date",
	"sale_date", "purchase_price", "sale_price", "entity", "fund_name",
	"details",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func matchRecord(m models.MatchResult) []string {
	saleDate := ""
	if m.SaleDate != nil {
		saleDate = utils.FormatDateTime(*m.SaleDate)
	}
	salePrice := ""
	if m.SalePrice != nil {
		salePrice = formatFloat(*m.SalePrice)
	}
	details := ""
	if len(m.Details) > 0 {
		if b, err := json.Marshal(m.Details); err == nil {
			details = string(b)
		}
	}

	return []string{
		validation.SanitizeForFormulaInjection(m.MatchID),
		validation.SanitizeForFormulaInjection(m.PurchaseID),
		validation.SanitizeForFormulaInjection(m.SaleID),
		formatFloat(m.Quantity),
		formatFloat(utils.RoundFloat(m.RecognizedLoss, 4)),
		formatFloat(utils.RoundFloat(m.LossPerShare(), 4)),
		m.RuleApplied,
		m.RuleCode,
		utils.FormatDateTime(m.PurchaseDate),
		saleDate,
		formatFloat(m.PurchasePrice),
		salePrice,
		validation.SanitizeForFormulaInjection(m.Entity),
		validation.SanitizeForFormulaInjection(m.FundName),
		details,
	}
}

// WriteCSV writes the match detail as CSV.
func WriteCSV(w io.Writer, result *models.CalculationResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(matchHeaders); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, m := range result.Matches {
		if err := writer.Write(matchRecord(m)); err != nil {
			return fmt.Errorf("writing csv record %s: %w", m.MatchID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteJSON writes the full result (matches plus summary) as JSON.
func WriteJSON(w io.Writer, result *models.CalculationResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// WriteXLSX writes a workbook with Matches, Summary, Entity Summary and
// Fund Summary sheets.
func WriteXLSX(w io.Writer, result *models.CalculationResult) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.L.Warn("Failed to close export workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", "Matches"); err != nil {
		return fmt.Errorf("renaming matches sheet: %w", err)
	}
	if err := writeMatchesSheet(f, result.Matches); err != nil {
		return err
	}
	if err := writeSummarySheet(f, result); err != nil {
		return err
	}
	if result.Summary != nil {
		if err := writeEntitySheet(f, result.Summary); err != nil {
			return err
		}
		if err := writeFundSheet(f, result.Summary); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowIdx int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIdx)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeMatchesSheet(f *excelize.File, matches []models.MatchResult) error {
	header := make([]interface{}, len(matchHeaders))
	for i, h := range matchHeaders {
		header[i] = h
	}
	if err := setRow(f, "Matches", 1, header); err != nil {
		return fmt.Errorf("writing matches header: %w", err)
	}

	for i, m := range matches {
		record := matchRecord(m)
		row := []interface{}{
			record[0], record[1], record[2],
			m.Quantity,
			utils.RoundFloat(m.RecognizedLoss, 4),
			utils.RoundFloat(m.LossPerShare(), 4),
			m.RuleApplied, m.RuleCode,
			record[8], record[9],
			m.PurchasePrice,
		}
		if m.SalePrice != nil {
			row = append(row, *m.SalePrice)
		} else {
			row = append(row, "")
		}
		row = append(row, record[12], record[13], record[14])

		if err := setRow(f, "Matches", i+2, row); err != nil {
			return fmt.Errorf("writing match row %d: %w", i, err)
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, result *models.CalculationResult) error {
	if _, err := f.NewSheet("Summary"); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	totalLoss, totalQuantity, matchCount := 0.0, 0.0, 0
	if result.Summary != nil {
		totalLoss = result.Summary.TotalLoss
		totalQuantity = result.Summary.TotalQuantity
		matchCount = result.Summary.MatchCount
	}

	rows := [][]interface{}{
		{"Settlement Type", result.SettlementType},
		{"Total Recognized Loss", totalLoss},
		{"Total Quantity", totalQuantity},
		{"Total Matches", matchCount},
		{"Calculation Date", result.CalculatedAt.Format("2006-01-02 15:04:05")},
	}
	for i, row := range rows {
		if err := setRow(f, "Summary", i+1, row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i, err)
		}
	}
	return nil
}

func writeEntitySheet(f *excelize.File, summary *models.Summary) error {
	if _, err := f.NewSheet("Entity Summary"); err != nil {
		return fmt.Errorf("creating entity sheet: %w", err)
	}
	if err := setRow(f, "Entity Summary", 1, []interface{}{
		"Entity", "Recognized Loss", "Quantity", "Match Count", "Fund Count",
	}); err != nil {
		return fmt.Errorf("writing entity header: %w", err)
	}

	rowIdx := 2
	for _, entity := range sortedKeysEntity(summary.ByEntity) {
		s := summary.ByEntity[entity]
		if err := setRow(f, "Entity Summary", rowIdx, []interface{}{
			validation.SanitizeForFormulaInjection(entity),
			s.RecognizedLoss, s.Quantity, s.MatchCount, len(s.Funds),
		}); err != nil {
			return fmt.Errorf("writing entity row %q: %w", entity, err)
		}
		rowIdx++
	}
	return nil
}

func writeFundSheet(f *excelize.File, summary *models.Summary) error {
	if _, err := f.NewSheet("Fund Summary"); err != nil {
		return fmt.Errorf("creating fund sheet: %w", err)
	}
	if err := setRow(f, "Fund Summary", 1, []interface{}{
		"Fund", "Recognized Loss", "Quantity", "Match Count", "Entity Count",
	}); err != nil {
		return fmt.Errorf("writing fund header: %w", err)
	}

	rowIdx := 2
	for _, fund := range sortedKeysFund(summary.ByFund) {
		s := summary.ByFund[fund]
		if err := setRow(f, "Fund Summary", rowIdx, []interface{}{
			validation.SanitizeForFormulaInjection(fund),
			s.RecognizedLoss, s.Quantity, s.MatchCount, len(s.Entities),
		}); err != nil {
			return fmt.Errorf("writing fund row %q: %w", fund, err)
		}
		rowIdx++
	}
	return nil
}
