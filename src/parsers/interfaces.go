package parsers

import (
	"errors"
	"io"

	"github.com/username/lossfolio/backend/src/models"
)

var ErrUnsupportedFormat = errors.New("unsupported file format, use CSV or Excel")

// ParseResult is the outcome of parsing one uploaded file. Row-level failures
// are collected in RowErrors and never abort the batch.
type ParseResult struct {
	Transactions  []models.Transaction
	TotalRows     int
	RowErrors     []string
	ColumnMapping map[string]string
}

func (r *ParseResult) ErrorCount() int {
	return len(r.RowErrors)
}

// Parser turns one uploaded transaction file into normalized transactions.
type Parser interface {
	Parse(r io.Reader) (*ParseResult, error)
}
