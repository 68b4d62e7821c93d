package models

import "time"

// TransactionType classifies a normalized transaction record.
type TransactionType string

const (
	TypePurchase          TransactionType = "PURCHASE"
	TypeSale              TransactionType = "SALE"
	TypeBeginningHoldings TransactionType = "BEGINNING_HOLDINGS"
)

// Transaction is a single normalized transaction record supplied by the
// loaders. Records are immutable once created; matching state (remaining
// quantity) is tracked separately by the match processor's ledger.
type Transaction struct {
	ID         string          `json:"id"`
	Date       time.Time       `json:"date"`
	Quantity   float64         `json:"quantity"`
	Price      float64         `json:"price"`
	Type       TransactionType `json:"type"`
	Entity     string          `json:"entity"`
	FundName   string          `json:"fund_name"`
	SecurityID string          `json:"security_id,omitempty"`
	Comment    string          `json:"comment,omitempty"`
}

// MatchResult records one matched purchase/sale pair, or one held position
// when SaleID is empty.
type MatchResult struct {
	MatchID        string                 `json:"match_id"`
	PurchaseID     string                 `json:"purchase_id"`
	SaleID         string                 `json:"sale_id,omitempty"`
	Quantity       float64                `json:"quantity"`
	RecognizedLoss float64                `json:"recognized_loss"`
	RuleApplied    string                 `json:"rule_applied"`
	RuleCode       string                 `json:"rule_code"`
	PurchaseDate   time.Time              `json:"purchase_date"`
	SaleDate       *time.Time             `json:"sale_date,omitempty"`
	PurchasePrice  float64                `json:"purchase_price"`
	SalePrice      *float64               `json:"sale_price,omitempty"`
	Entity         string                 `json:"entity"`
	FundName       string                 `json:"fund_name"`
	Details        map[string]interface{} `json:"details,omitempty"`
}

// LossPerShare returns the per-share recognized loss for this match.
func (m MatchResult) LossPerShare() float64 {
	if m.Quantity <= 0 {
		return 0
	}
	return m.RecognizedLoss / m.Quantity
}

// GroupSummary aggregates matches that share one grouping key (rule code or
// purchase month).
type GroupSummary struct {
	RecognizedLoss float64 `json:"recognized_loss"`
	Quantity       float64 `json:"quantity"`
	MatchCount     int     `json:"match_count"`
}

// EntitySummary aggregates matches for one entity. Funds lists the distinct
// fund names observed, and Rules breaks the loss down by rule code.
type EntitySummary struct {
	RecognizedLoss float64            `json:"recognized_loss"`
	Quantity       float64            `json:"quantity"`
	MatchCount     int                `json:"match_count"`
	Funds          []string           `json:"funds"`
	Rules          map[string]float64 `json:"rules"`
}

// FundSummary mirrors EntitySummary with the entity/fund roles swapped.
type FundSummary struct {
	RecognizedLoss float64            `json:"recognized_loss"`
	Quantity       float64            `json:"quantity"`
	MatchCount     int                `json:"match_count"`
	Entities       []string           `json:"entities"`
	Rules          map[string]float64 `json:"rules"`
}

// Summary is the aggregation reporter's output for one calculation run.
// All monetary totals are rounded to 2 decimal places after summation.
type Summary struct {
	SettlementType string                   `json:"settlement_type"`
	TotalLoss      float64                  `json:"total_recognized_loss"`
	TotalQuantity  float64                  `json:"total_quantity"`
	MatchCount     int                      `json:"match_count"`
	ByEntity       map[string]EntitySummary `json:"by_entity"`
	ByFund         map[string]FundSummary   `json:"by_fund"`
	ByRule         map[string]GroupSummary  `json:"by_rule"`
	ByMonth        map[string]GroupSummary  `json:"by_month"`
}

// CalculationResult is the batch-level outcome handed to callers. A failed
// run carries Success=false and an Error message; it never carries a summary
// inconsistent with its match list.
type CalculationResult struct {
	Success        bool          `json:"success"`
	Error          string        `json:"error,omitempty"`
	SettlementType string        `json:"settlement_type"`
	Matches        []MatchResult `json:"matches,omitempty"`
	Summary        *Summary      `json:"summary,omitempty"`
	CalculatedAt   time.Time     `json:"calculated_at"`
}
