package processors

import (
	"sort"

	"github.com/username/lossfolio/backend/src/models"
	"github.com/username/lossfolio/backend/src/utils"
)

const totalPrecision = 2

type ReportSummaryProcessor struct{}

func NewReportSummaryProcessor() *ReportSummaryProcessor {
	return &ReportSummaryProcessor{}
}

type groupAccumulator struct {
	loss     float64
	quantity float64
	count    int
	names    map[string]struct{}
	rules    map[string]float64
}

func newGroupAccumulator() *groupAccumulator {
	return &groupAccumulator{
		names: make(map[string]struct{}),
		rules: make(map[string]float64),
	}
}

func (g *groupAccumulator) add(m models.MatchResult, name string) {
	g.loss += m.RecognizedLoss
	g.quantity += m.Quantity
	g.count++
	g.names[name] = struct{}{}
	g.rules[m.RuleCode] += m.RecognizedLoss
}

// Summarize aggregates matches by entity, fund, rule code, and purchase
// month. Monetary figures are accumulated at full precision and rounded to
// 2 decimal places once, after summation.
func (p *ReportSummaryProcessor) Summarize(settlementType string, matches []models.MatchResult) *models.Summary {
	summary := &models.Summary{
		SettlementType: settlementType,
		MatchCount:     len(matches),
		ByEntity:       make(map[string]models.EntitySummary),
		ByFund:         make(map[string]models.FundSummary),
		ByRule:         make(map[string]models.GroupSummary),
		ByMonth:        make(map[string]models.GroupSummary),
	}

	entities := make(map[string]*groupAccumulator)
	funds := make(map[string]*groupAccumulator)
	rules := make(map[string]*groupAccumulator)
	months := make(map[string]*groupAccumulator)

	totalLoss := 0.0
	totalQuantity := 0.0

	for _, m := range matches {
		totalLoss += m.RecognizedLoss
		totalQuantity += m.Quantity

		acc := entities[m.Entity]
		if acc == nil {
			acc = newGroupAccumulator()
			entities[m.Entity] = acc
		}
		acc.add(m, m.FundName)

		acc = funds[m.FundName]
		if acc == nil {
			acc = newGroupAccumulator()
			funds[m.FundName] = acc
		}
		acc.add(m, m.Entity)

		acc = rules[m.RuleCode]
		if acc == nil {
			acc = newGroupAccumulator()
			rules[m.RuleCode] = acc
		}
		acc.add(m, "")

		month := m.PurchaseDate.Format("2006-01")
		acc = months[month]
		if acc == nil {
			acc = newGroupAccumulator()
			months[month] = acc
		}
		acc.add(m, "")
	}

	summary.TotalLoss = utils.RoundFloat(totalLoss, totalPrecision)
	summary.TotalQuantity = utils.RoundFloat(totalQuantity, totalPrecision)

	for entity, acc := range entities {
		summary.ByEntity[entity] = models.EntitySummary{
			RecognizedLoss: utils.RoundFloat(acc.loss, totalPrecision),
			Quantity:       utils.RoundFloat(acc.quantity, totalPrecision),
			MatchCount:     acc.count,
			Funds:          sortedNames(acc.names),
			Rules:          roundedRules(acc.rules),
		}
	}

	for fund, acc := range funds {
		summary.ByFund[fund] = models.FundSummary{
			RecognizedLoss: utils.RoundFloat(acc.loss, totalPrecision),
			Quantity:       utils.RoundFloat(acc.quantity, totalPrecision),
			MatchCount:     acc.count,
			Entities:       sortedNames(acc.names),
			Rules:          roundedRules(acc.rules),
		}
	}

	for rule, acc := range rules {
		summary.ByRule[rule] = models.GroupSummary{
			RecognizedLoss: utils.RoundFloat(acc.loss, totalPrecision),
			Quantity:       utils.RoundFloat(acc.quantity, totalPrecision),
			MatchCount:     acc.count,
		}
	}

	for month, acc := range months {
		summary.ByMonth[month] = models.GroupSummary{
			RecognizedLoss: utils.RoundFloat(acc.loss, totalPrecision),
			Quantity:       utils.RoundFloat(acc.quantity, totalPrecision),
			MatchCount:     acc.count,
		}
	}

	return summary
}

func sortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func roundedRules(rules map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(rules))
	for code, loss := range rules {
		out[code] = utils.RoundFloat(loss, totalPrecision)
	}
	return out
}
