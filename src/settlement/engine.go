package settlement

import (
	"math"
	"time"

	"github.com/username/lossfolio/backend/src/utils"
)

// Rule codes, in evaluation order. Exactly one applies per evaluation.
const (
	RuleOutsidePeriod = "OUTSIDE_PERIOD"
	RuleA             = "A"
	RuleB             = "B"
	RuleC             = "C"
	RuleD             = "D"
	RulePostLookback  = "POST_LOOKBACK"
)

// Evaluation is the per-share outcome of one rule-engine invocation.
// Details carries every intermediate figure used to compute the cap, for
// audit purposes.
type Evaluation struct {
	RecognizedLoss float64
	RuleCode       string
	RuleApplied    string
	Details        map[string]interface{}
}

// RuleEngine computes the capped recognized loss per share for a purchase
// and an optional sale. Implementations are pure and safe for concurrent
// use; the settlement type is fixed at construction.
type RuleEngine interface {
	Evaluate(purchaseDate time.Time, purchasePrice float64, saleDate *time.Time, salePrice *float64) Evaluation
	Config() *Configuration
}

// NewRuleEngine builds the rule engine for a settlement type. The two
// settlements share the matcher and reporting pipeline but differ in how the
// per-share decline cap is derived.
func NewRuleEngine(t Type) (RuleEngine, error) {
	cfg, err := NewConfiguration(t)
	if err != nil {
		return nil, err
	}
	switch t {
	case Twitter:
		return &declineRuleEngine{cfg: cfg}, nil
	case KraftHeinz:
		return &inflationRuleEngine{cfg: cfg}, nil
	}
	return nil, ErrUnknownType
}

const lossPrecision = 4

func outsidePeriod() Evaluation {
	return Evaluation{
		RecognizedLoss: 0,
		RuleCode:       RuleOutsidePeriod,
		RuleApplied:    "Purchase outside class period",
		Details:        map[string]interface{}{},
	}
}

// declineRuleEngine applies the decline-matrix methodology.
type declineRuleEngine struct {
	cfg *Configuration
}

func (e *declineRuleEngine) Config() *Configuration { return e.cfg }

func (e *declineRuleEngine) Evaluate(purchaseDate time.Time, purchasePrice float64, saleDate *time.Time, salePrice *float64) Evaluation {
	cfg := e.cfg
	if !cfg.InClassPeriod(purchaseDate) {
		return outsidePeriod()
	}

	// Rule (d): shares still held at the end of the lookback period.
	if saleDate == nil {
		decline := cfg.DeclineAmount(purchaseDate, cfg.LookbackStart, nil)
		heldLoss := math.Max(0, purchasePrice-cfg.AveragePrice)
		return Evaluation{
			RecognizedLoss: utils.RoundFloat(math.Min(decline, heldLoss), lossPrecision),
			RuleCode:       RuleD,
			RuleApplied:    "Rule (d): Held shares",
			Details: map[string]interface{}{
				"decline_amount": decline,
				"held_loss":      heldLoss,
				"average_price":  cfg.AveragePrice,
			},
		}
	}

	// Rule (a): sold before the first corrective disclosure.
	if saleDate.Before(cfg.FirstCorrectiveDate) {
		return Evaluation{
			RecognizedLoss: 0,
			RuleCode:       RuleA,
			RuleApplied:    "Rule (a): Sold before first corrective disclosure",
			Details: map[string]interface{}{
				"first_corrective_date": cfg.FirstCorrectiveDate.Format(time.RFC3339),
			},
		}
	}

	decline := cfg.DeclineAmount(purchaseDate, *saleDate, salePrice)
	actualLoss := 0.0
	if salePrice != nil {
		actualLoss = math.Max(0, purchasePrice-*salePrice)
	}
	saleDay := dateOnly(*saleDate)

	// Rule (b): sold after the disclosure but before the lookback window.
	if saleDay.Before(cfg.LookbackStart) {
		return Evaluation{
			RecognizedLoss: utils.RoundFloat(math.Min(decline, actualLoss), lossPrecision),
			RuleCode:       RuleB,
			RuleApplied:    "Rule (b): Sold during class period after corrective disclosure",
			Details: map[string]interface{}{
				"decline_amount": decline,
				"actual_loss":    actualLoss,
			},
		}
	}

	// Rule (c): sold during the lookback period; the market-wide average
	// closing price caps the loss as well.
	if !saleDay.After(cfg.LookbackEnd) {
		avgPrice := cfg.AverageClosingPrice(saleDay)
		lookbackLoss := math.Max(0, purchasePrice-avgPrice)
		return Evaluation{
			RecognizedLoss: utils.RoundFloat(math.Min(math.Min(decline, actualLoss), lookbackLoss), lossPrecision),
			RuleCode:       RuleC,
			RuleApplied:    "Rule (c): Sold during lookback period",
			Details: map[string]interface{}{
				"decline_amount":    decline,
				"actual_loss":       actualLoss,
				"lookback_loss":     lookbackLoss,
				"avg_closing_price": avgPrice,
			},
		}
	}

	return Evaluation{
		RecognizedLoss: utils.RoundFloat(math.Min(decline, actualLoss), lossPrecision),
		RuleCode:       RulePostLookback,
		RuleApplied:    "Sold after lookback period",
		Details: map[string]interface{}{
			"decline_amount": decline,
			"actual_loss":    actualLoss,
		},
	}
}

// inflationRuleEngine applies the inflation-schedule methodology: the cap is
// the artificial inflation shed between the purchase and sale dates.
type inflationRuleEngine struct {
	cfg *Configuration
}

func (e *inflationRuleEngine) Config() *Configuration { return e.cfg }

func (e *inflationRuleEngine) Evaluate(purchaseDate time.Time, purchasePrice float64, saleDate *time.Time, salePrice *float64) Evaluation {
	cfg := e.cfg
	if !cfg.InClassPeriod(purchaseDate) {
		return outsidePeriod()
	}

	purchaseInflation := cfg.InflationAt(purchaseDate, false)

	if saleDate == nil {
		heldLoss := math.Max(0, purchasePrice-cfg.AveragePrice)
		return Evaluation{
			RecognizedLoss: utils.RoundFloat(math.Min(purchaseInflation, heldLoss), lossPrecision),
			RuleCode:       RuleD,
			RuleApplied:    "Rule D: Held shares",
			Details: map[string]interface{}{
				"purchase_inflation": purchaseInflation,
				"held_loss":          heldLoss,
				"average_price":      cfg.AveragePrice,
			},
		}
	}

	if saleDate.Before(cfg.FirstCorrectiveDate) {
		return Evaluation{
			RecognizedLoss: 0,
			RuleCode:       RuleA,
			RuleApplied:    "Rule A: Sold before first corrective disclosure",
			Details: map[string]interface{}{
				"first_corrective_date": cfg.FirstCorrectiveDate.Format(time.RFC3339),
			},
		}
	}

	saleInflation := cfg.InflationAt(*saleDate, true)
	inflationDecline := math.Max(0, purchaseInflation-saleInflation)
	actualLoss := 0.0
	if salePrice != nil {
		actualLoss = math.Max(0, purchasePrice-*salePrice)
	}
	saleDay := dateOnly(*saleDate)

	if !saleDay.After(cfg.ClassEnd) {
		return Evaluation{
			RecognizedLoss: utils.RoundFloat(math.Min(inflationDecline, actualLoss), lossPrecision),
			RuleCode:       RuleB,
			RuleApplied:    "Rule B: Sold during class period after corrective disclosure",
			Details: map[string]interface{}{
				"purchase_inflation": purchaseInflation,
				"sale_inflation":     saleInflation,
				"inflation_decline":  inflationDecline,
				"actual_loss":        actualLoss,
			},
		}
	}

	if !saleDay.Before(cfg.LookbackStart) && !saleDay.After(cfg.LookbackEnd) {
		avgPrice := cfg.AverageClosingPrice(saleDay)
		lookbackLoss := math.Max(0, purchasePrice-avgPrice)
		return Evaluation{
			RecognizedLoss: utils.RoundFloat(math.Min(math.Min(inflationDecline, actualLoss), lookbackLoss), lossPrecision),
			RuleCode:       RuleC,
			RuleApplied:    "Rule C: Sold during lookback period",
			Details: map[string]interface{}{
				"purchase_inflation": purchaseInflation,
				"sale_inflation":     saleInflation,
				"inflation_decline":  inflationDecline,
				"actual_loss":        actualLoss,
				"lookback_loss":      lookbackLoss,
				"avg_closing_price":  avgPrice,
			},
		}
	}

	return Evaluation{
		RecognizedLoss: utils.RoundFloat(math.Min(inflationDecline, actualLoss), lossPrecision),
		RuleCode:       RulePostLookback,
		RuleApplied:    "Sold after lookback period",
		Details: map[string]interface{}{
			"purchase_inflation": purchaseInflation,
			"sale_inflation":     saleInflation,
			"inflation_decline":  inflationDecline,
			"actual_loss":        actualLoss,
		},
	}
}
