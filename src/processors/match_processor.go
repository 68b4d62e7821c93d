package processors

import (
	"fmt"
	"sort"

	"github.com/username/lossfolio/backend/src/logger"
	"github.com/username/lossfolio/backend/src/models"
	"github.com/username/lossfolio/backend/src/settlement"
)

type FIFOMatchProcessor struct{}

func NewFIFOMatchProcessor() *FIFOMatchProcessor {
	return &FIFOMatchProcessor{}
}

// Process matches each sale against the purchase ledger in FIFO order.
// Beginning holdings enter the ledger first, ordered by date, followed by
// ordinary purchases ordered by date then ID. Matches with a zero recognized
// loss are dropped; a sale that exhausts the ledger is logged, not failed.
func (p *FIFOMatchProcessor) Process(engine settlement.RuleEngine, transactions []models.Transaction) ([]models.MatchResult, []*Lot) {
	cfg := engine.Config()

	var holdings, purchases, sales []models.Transaction
	for _, tx := range transactions {
		switch tx.Type {
		case models.TypeBeginningHoldings:
			holdings = append(holdings, tx)
		case models.TypePurchase:
			purchases = append(purchases, tx)
		case models.TypeSale:
			sales = append(sales, tx)
		}
	}

	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[i].Date.Before(holdings[j].Date)
	})
	sortByDateThenID(purchases)
	sortByDateThenID(sales)

	ledger := make([]*Lot, 0, len(holdings)+len(purchases))
	for _, bh := range holdings {
		ledger = append(ledger, &Lot{
			Transaction: bh,
			Remaining:   bh.Quantity,
			CostDate:    cfg.ClassStart,
			CostPrice:   0,
		})
	}
	for _, purchase := range purchases {
		ledger = append(ledger, &Lot{
			Transaction: purchase,
			Remaining:   purchase.Quantity,
			CostDate:    purchase.Date,
			CostPrice:   purchase.Price,
		})
	}

	matches := make([]models.MatchResult, 0)

	for _, sale := range sales {
		remaining := sale.Quantity

		for idx := 0; remaining > 0 && idx < len(ledger); idx++ {
			lot := ledger[idx]
			if lot.Remaining <= 0 {
				continue
			}

			// A lot dated after the sale cannot cover it. It stays in the
			// ledger for later sales.
			if lot.Transaction.Date.After(sale.Date) {
				logger.L.Warn("Purchase dated after sale, skipping lot",
					"purchaseID", lot.Transaction.ID,
					"purchaseDate", lot.Transaction.Date,
					"saleID", sale.ID,
					"saleDate", sale.Date)
				continue
			}

			matchQty := remaining
			if lot.Remaining < matchQty {
				matchQty = lot.Remaining
			}

			saleDate := sale.Date
			salePrice := sale.Price
			eval := engine.Evaluate(lot.CostDate, lot.CostPrice, &saleDate, &salePrice)
			loss := eval.RecognizedLoss * matchQty

			if loss > 0 {
				matches = append(matches, models.MatchResult{
					MatchID:        fmt.Sprintf("%s_%s_%d", lot.Transaction.ID, sale.ID, len(matches)),
					PurchaseID:     lot.Transaction.ID,
					SaleID:         sale.ID,
					Quantity:       matchQty,
					RecognizedLoss: loss,
					RuleApplied:    eval.RuleApplied,
					RuleCode:       eval.RuleCode,
					PurchaseDate:   lot.CostDate,
					SaleDate:       &saleDate,
					PurchasePrice:  lot.CostPrice,
					SalePrice:      &salePrice,
					Entity:         lot.Transaction.Entity,
					FundName:       lot.Transaction.FundName,
					Details:        eval.Details,
				})
			}

			lot.Remaining -= matchQty
			remaining -= matchQty
		}

		if remaining > 0 {
			logger.L.Warn("Sale exceeds available purchase quantity",
				"saleID", sale.ID, "unmatchedQuantity", remaining)
		}
	}

	return matches, ledger
}

func sortByDateThenID(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
}
