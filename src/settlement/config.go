package settlement

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Type selects one of the two supported settlements. Each type carries its
// own fixed rule tables; no other configuration is accepted.
type Type string

const (
	Twitter    Type = "TWITTER"
	KraftHeinz Type = "KRAFT_HEINZ"
)

var ErrUnknownType = errors.New("unknown settlement type")

// ParseType normalizes a settlement-type selector.
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(Twitter):
		return Twitter, nil
	case string(KraftHeinz):
		return KraftHeinz, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// TimeGroup is one row/column band of the decline matrix timeline.
type TimeGroup struct {
	Name  string
	Start time.Time
	End   time.Time
	Index int
}

// InflationPeriod is one band of the artificial-inflation schedule. A
// SaleOnly period applies only when resolving a sale date.
type InflationPeriod struct {
	Start     time.Time
	End       time.Time
	Inflation float64
	Name      string
	SaleOnly  bool
}

const (
	declineRows = 3
	declineCols = 6
)

// Configuration holds the immutable constants for one settlement type.
// It is safe for concurrent read-only use across calculation runs.
type Configuration struct {
	Type Type

	ClassStart time.Time
	ClassEnd   time.Time

	LookbackStart time.Time
	LookbackEnd   time.Time
	AveragePrice  float64

	// First corrective disclosure. For the decline-matrix settlement the
	// disclosure lands mid-session, so same-day trades are split by the
	// recorded time (cutoff 15:07) or, failing that, by the published
	// price threshold.
	FirstCorrectiveDate time.Time
	PriceThreshold      float64

	TimeGroups   []TimeGroup
	declineTable [declineRows][declineCols]float64

	InflationPeriods []InflationPeriod

	avgClosingPrices map[time.Time]float64
}

// NewConfiguration builds the fixed configuration for the given settlement
// type. Unknown selectors fail here, before any calculation starts.
func NewConfiguration(t Type) (*Configuration, error) {
	var cfg *Configuration
	switch t {
	case Twitter:
		cfg = newTwitterConfiguration()
	case KraftHeinz:
		cfg = newKraftHeinzConfiguration()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("settlement %s: %w", t, err)
	}
	return cfg, nil
}

func (c *Configuration) validate() error {
	if !c.ClassStart.Before(c.ClassEnd) {
		return errors.New("class period start must precede end")
	}
	if !c.LookbackStart.Before(c.LookbackEnd) {
		return errors.New("lookback period start must precede end")
	}
	for i := 1; i < len(c.TimeGroups); i++ {
		if c.TimeGroups[i].Index != i {
			return fmt.Errorf("time group %q has index %d, want %d", c.TimeGroups[i].Name, c.TimeGroups[i].Index, i)
		}
		if !c.TimeGroups[i-1].End.Before(c.TimeGroups[i].Start) {
			return fmt.Errorf("time groups %q and %q overlap", c.TimeGroups[i-1].Name, c.TimeGroups[i].Name)
		}
	}
	for i := range c.declineTable {
		for j := range c.declineTable[i] {
			if c.declineTable[i][j] < 0 {
				return fmt.Errorf("decline table entry (%d,%d) is negative", i, j)
			}
			if j < i && c.declineTable[i][j] != 0 {
				return fmt.Errorf("decline table entry (%d,%d) in not-applicable region must be 0", i, j)
			}
		}
	}
	for _, p := range c.InflationPeriods {
		if p.Inflation < 0 {
			return fmt.Errorf("inflation period %q is negative", p.Name)
		}
	}
	return nil
}

// timeGroupIndex resolves a date to its time-group ordinal, or -1 when the
// date falls outside the configured timeline. A date carrying a recorded
// time-of-day resolves against the intra-day group bounds directly.
func (c *Configuration) timeGroupIndex(date time.Time) int {
	for _, g := range c.TimeGroups {
		if !date.Before(g.Start) && !date.After(g.End) {
			return g.Index
		}
	}
	return -1
}

// hasClock reports whether a date carries a recorded time-of-day. Dates
// loaded without a time component sit at midnight.
func hasClock(t time.Time) bool {
	return t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DeclineAmount looks up the per-share decline for a purchase/sale group
// pair. salePriceHint disambiguates sales on the disclosure day that carry
// no recorded time: a price at or above the published threshold is treated
// as pre-disclosure. Pairs outside the table resolve to 0.
func (c *Configuration) DeclineAmount(purchaseDate, saleDate time.Time, salePriceHint *float64) float64 {
	purchaseIdx := c.timeGroupIndex(purchaseDate)

	var saleIdx int
	switch {
	case !sameDay(saleDate, c.FirstCorrectiveDate):
		saleIdx = c.timeGroupIndex(saleDate)
	case hasClock(saleDate):
		saleIdx = c.timeGroupIndex(saleDate)
	case salePriceHint != nil && *salePriceHint >= c.PriceThreshold:
		saleIdx = 0
	default:
		saleIdx = 1
	}

	if purchaseIdx < 0 || purchaseIdx >= declineRows || saleIdx < 0 || saleIdx >= declineCols {
		return 0
	}
	return c.declineTable[purchaseIdx][saleIdx]
}

// InflationAt returns the artificial inflation in force on a date. Sale-only
// periods are skipped when resolving a purchase date. Dates outside every
// period resolve to 0.
func (c *Configuration) InflationAt(date time.Time, isSale bool) float64 {
	for _, p := range c.InflationPeriods {
		if date.Before(p.Start) || date.After(p.End) {
			continue
		}
		if p.SaleOnly && !isSale {
			continue
		}
		return p.Inflation
	}
	return 0
}

// AverageClosingPrice returns the published average closing price for a
// lookback date, falling back to the period-wide average for dates missing
// from the table (weekends, holidays).
func (c *Configuration) AverageClosingPrice(date time.Time) float64 {
	if price, ok := c.avgClosingPrices[dateOnly(date)]; ok {
		return price
	}
	return c.AveragePrice
}

// InClassPeriod reports whether a purchase date is compensable at all.
// Bounds are inclusive; any time-of-day on the boundary dates still counts.
func (c *Configuration) InClassPeriod(date time.Time) bool {
	d := dateOnly(date)
	return !d.Before(c.ClassStart) && !d.After(c.ClassEnd)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateAt(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}
