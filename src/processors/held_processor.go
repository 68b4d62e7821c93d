package processors

import (
	"fmt"

	"github.com/username/lossfolio/backend/src/models"
	"github.com/username/lossfolio/backend/src/settlement"
)

type HeldPositionProcessor struct{}

func NewHeldPositionProcessor() *HeldPositionProcessor {
	return &HeldPositionProcessor{}
}

// Process evaluates every ledger lot with quantity left after matching as a
// held position. Ordinary purchases outside the class period are skipped;
// beginning holdings are always evaluated. Zero-loss positions are dropped.
func (p *HeldPositionProcessor) Process(engine settlement.RuleEngine, ledger []*Lot) []models.MatchResult {
	cfg := engine.Config()
	held := make([]models.MatchResult, 0)

	for _, lot := range ledger {
		if lot.Remaining <= 0 {
			continue
		}
		if lot.Transaction.Type == models.TypePurchase && !cfg.InClassPeriod(lot.CostDate) {
			continue
		}

		eval := engine.Evaluate(lot.CostDate, lot.CostPrice, nil, nil)
		loss := eval.RecognizedLoss * lot.Remaining
		if loss <= 0 {
			continue
		}

		held = append(held, models.MatchResult{
			MatchID:        fmt.Sprintf("%s_held_%d", lot.Transaction.ID, len(held)),
			PurchaseID:     lot.Transaction.ID,
			Quantity:       lot.Remaining,
			RecognizedLoss: loss,
			RuleApplied:    eval.RuleApplied,
			RuleCode:       eval.RuleCode,
			PurchaseDate:   lot.CostDate,
			PurchasePrice:  lot.CostPrice,
			Entity:         lot.Transaction.Entity,
			FundName:       lot.Transaction.FundName,
			Details:        eval.Details,
		})
	}

	return held
}
