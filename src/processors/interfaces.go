package processors

import (
	"time"

	"github.com/username/lossfolio/backend/src/models"
	"github.com/username/lossfolio/backend/src/settlement"
)

// Lot tracks matching state for one purchase-side transaction in the FIFO
// ledger. CostDate and CostPrice are what the rule engine evaluates: the
// transaction's own date and price for ordinary purchases, the class period
// start and a zero cost for beginning holdings.
type Lot struct {
	Transaction models.Transaction
	Remaining   float64
	CostDate    time.Time
	CostPrice   float64
}

// MatchProcessor matches sales against purchases and returns the loss-bearing
// matches together with the ledger carrying the unsold remainders.
type MatchProcessor interface {
	Process(engine settlement.RuleEngine, transactions []models.Transaction) ([]models.MatchResult, []*Lot)
}

// HeldProcessor evaluates the unsold remainder of every ledger lot as a held
// position.
type HeldProcessor interface {
	Process(engine settlement.RuleEngine, ledger []*Lot) []models.MatchResult
}

// SummaryProcessor aggregates a match list into the reporting summary.
type SummaryProcessor interface {
	Summarize(settlementType string, matches []models.MatchResult) *models.Summary
}
