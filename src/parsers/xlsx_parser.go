package parsers

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/username/lossfolio/backend/src/logger"
)

type XLSXParser struct{}

func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

// Parse reads the first sheet of the workbook. Rows come back as displayed
// strings, so the shared row parser handles numeric conversion.
func (p *XLSXParser) Parse(r io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.L.Warn("Failed to close workbook", "error", cerr)
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	return parseRows(rows[0], rows[1:]), nil
}
