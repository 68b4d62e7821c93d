package settlement

import (
	"math"
	"time"
)

// newKraftHeinzConfiguration builds the inflation-schedule settlement: class
// period November 6, 2015 through August 7, 2019, corrective disclosures on
// November 2, 2018, February 22, 2019 and August 8, 2019, 90-day lookback
// August 8 through November 5, 2019.
func newKraftHeinzConfiguration() *Configuration {
	cfg := &Configuration{
		Type:       KraftHeinz,
		ClassStart: date(2015, time.November, 6),
		ClassEnd:   date(2019, time.August, 7),

		FirstCorrectiveDate: date(2018, time.November, 2),

		LookbackStart: date(2019, time.August, 8),
		LookbackEnd:   date(2019, time.November, 5),
		AveragePrice:  27.55,

		// Table A of the settlement notice: artificial inflation per
		// share by holding period. The 8/8/2019 band applies to sales
		// only; purchases that day carry no inflation.
		InflationPeriods: []InflationPeriod{
			{date(2015, time.November, 6), date(2018, time.November, 1), 12.59, "Before 11/2/2018", false},
			{date(2018, time.November, 2), date(2019, time.February, 21), 10.93, "11/2/2018 - 2/21/2019", false},
			{date(2019, time.February, 22), date(2019, time.August, 7), 4.04, "2/22/2019 - 8/7/2019", false},
			{date(2019, time.August, 8), date(2019, time.August, 8), 1.33, "8/8/2019 (sale only)", true},
			{date(2019, time.August, 9), date(2025, time.December, 31), 0.00, "After 8/8/2019", false},
		},

		avgClosingPrices: kraftHeinzAvgClosingPrices(),
	}
	return cfg
}

// kraftHeinzAvgClosingPrices fills the lookback trading days with values
// interpolated from the first published figure down to the final 90-day
// average.
func kraftHeinzAvgClosingPrices() map[time.Time]float64 {
	const (
		firstPrice = 28.22
		finalPrice = 27.55
	)
	start := date(2019, time.August, 8)
	end := date(2019, time.November, 5)

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}

	prices := make(map[time.Time]float64, len(days))
	for i, d := range days {
		frac := float64(i) / float64(len(days)-1)
		price := firstPrice + (finalPrice-firstPrice)*frac
		prices[d] = math.Round(price*100) / 100
	}
	prices[end] = finalPrice
	return prices
}
