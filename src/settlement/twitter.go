package settlement

import "time"

// newTwitterConfiguration builds the decline-matrix settlement: class period
// February 6, 2015 through July 28, 2015, first corrective disclosure on
// April 28, 2015 at 3:07 PM EDT, 90-day lookback August 3 through
// October 30, 2015.
func newTwitterConfiguration() *Configuration {
	cfg := &Configuration{
		Type:       Twitter,
		ClassStart: date(2015, time.February, 6),
		ClassEnd:   date(2015, time.July, 28),

		FirstCorrectiveDate: date(2015, time.April, 28),
		PriceThreshold:      50.45,

		LookbackStart: date(2015, time.August, 3),
		LookbackEnd:   date(2015, time.October, 30),
		AveragePrice:  28.06,

		TimeGroups: []TimeGroup{
			{"2/6/2015-4/28/2015 before 3:07pm", date(2015, time.February, 6), dateAt(2015, time.April, 28, 15, 6), 0},
			{"4/28/2015 at/after 3:07pm", dateAt(2015, time.April, 28, 15, 7), date(2015, time.April, 29).Add(-time.Second), 1},
			{"4/29/2015-7/28/2015", date(2015, time.April, 29), date(2015, time.July, 28), 2},
			{"7/29/2015-7/30/2015", date(2015, time.July, 29), date(2015, time.July, 30), 3},
			{"7/31/2015", date(2015, time.July, 31), date(2015, time.July, 31), 4},
			{"8/1/2015 and beyond", date(2015, time.August, 1), date(2025, time.December, 31), 5},
		},

		// Table 1 of the settlement notice: per-share decline by
		// (purchase group, sale group). Sale groups at or before the
		// purchase group realize no decline.
		declineTable: [declineRows][declineCols]float64{
			{0.00, 8.97, 12.93, 18.27, 18.69, 20.34},
			{0.00, 0.00, 3.96, 9.30, 9.72, 11.37},
			{0.00, 0.00, 0.00, 5.34, 5.76, 7.41},
		},

		avgClosingPrices: twitterAvgClosingPrices(),
	}
	return cfg
}

// twitterAvgClosingPrices is Table 2 of the settlement notice: the average
// closing price for each trading day of the 90-day lookback period.
func twitterAvgClosingPrices() map[time.Time]float64 {
	return map[time.Time]float64{
		// August 2015
		date(2015, time.August, 3):  29.27,
		date(2015, time.August, 4):  29.31,
		date(2015, time.August, 5):  29.03,
		date(2015, time.August, 6):  28.66,
		date(2015, time.August, 7):  28.33,
		date(2015, time.August, 10): 28.35,
		date(2015, time.August, 11): 28.33,
		date(2015, time.August, 12): 28.59,
		date(2015, time.August, 13): 28.45,
		date(2015, time.August, 14): 28.40,
		date(2015, time.August, 17): 28.23,
		date(2015, time.August, 18): 28.48,
		date(2015, time.August, 19): 27.94,
		date(2015, time.August, 20): 27.72,
		date(2015, time.August, 21): 27.37,
		date(2015, time.August, 24): 26.47,
		date(2015, time.August, 25): 26.60,
		date(2015, time.August, 26): 26.94,
		date(2015, time.August, 27): 27.73,
		date(2015, time.August, 28): 27.74,
		date(2015, time.August, 31): 27.87,
		// September 2015
		date(2015, time.September, 1):  26.87,
		date(2015, time.September, 2):  27.27,
		date(2015, time.September, 3):  27.69,
		date(2015, time.September, 4):  27.02,
		date(2015, time.September, 8):  27.63,
		date(2015, time.September, 9):  27.92,
		date(2015, time.September, 10): 27.83,
		date(2015, time.September, 11): 27.79,
		date(2015, time.September, 14): 27.63,
		date(2015, time.September, 15): 27.73,
		date(2015, time.September, 16): 27.69,
		date(2015, time.September, 17): 27.66,
		date(2015, time.September, 18): 27.62,
		date(2015, time.September, 21): 27.35,
		date(2015, time.September, 22): 27.32,
		date(2015, time.September, 23): 27.27,
		date(2015, time.September, 24): 26.59,
		date(2015, time.September, 25): 26.42,
		date(2015, time.September, 28): 26.64,
		date(2015, time.September, 29): 27.21,
		date(2015, time.September, 30): 27.25,
		// October 2015
		date(2015, time.October, 1):  27.04,
		date(2015, time.October, 2):  27.55,
		date(2015, time.October, 5):  27.75,
		date(2015, time.October, 6):  28.27,
		date(2015, time.October, 7):  28.37,
		date(2015, time.October, 8):  28.74,
		date(2015, time.October, 9):  28.82,
		date(2015, time.October, 12): 28.95,
		date(2015, time.October, 13): 28.86,
		date(2015, time.October, 14): 28.71,
		date(2015, time.October, 15): 29.02,
		date(2015, time.October, 16): 29.36,
		date(2015, time.October, 19): 29.52,
		date(2015, time.October, 20): 29.56,
		date(2015, time.October, 21): 29.60,
		date(2015, time.October, 22): 29.64,
		date(2015, time.October, 23): 29.46,
		date(2015, time.October, 26): 29.35,
		date(2015, time.October, 27): 28.96,
		date(2015, time.October, 28): 29.09,
		date(2015, time.October, 29): 28.47,
		date(2015, time.October, 30): 28.06,
	}
}
