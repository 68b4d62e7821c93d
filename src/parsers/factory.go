package parsers

import (
	"path/filepath"
	"strings"
)

// GetParser selects a parser by file extension.
func GetParser(filename string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return NewCSVParser(), nil
	case ".xlsx", ".xls":
		return NewXLSXParser(), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}
