package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	got, err := ParseType("twitter")
	require.NoError(t, err)
	assert.Equal(t, Twitter, got)

	got, err = ParseType(" KRAFT_HEINZ ")
	require.NoError(t, err)
	assert.Equal(t, KraftHeinz, got)

	_, err = ParseType("ENRON")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestNewConfigurationValidates(t *testing.T) {
	for _, typ := range []Type{Twitter, KraftHeinz} {
		cfg, err := NewConfiguration(typ)
		require.NoError(t, err, "settlement %s", typ)
		assert.True(t, cfg.ClassStart.Before(cfg.ClassEnd))
		assert.True(t, cfg.LookbackStart.Before(cfg.LookbackEnd))
	}

	_, err := NewConfiguration(Type("ENRON"))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDeclineAmount(t *testing.T) {
	cfg, err := NewConfiguration(Twitter)
	require.NoError(t, err)

	purchase := date(2015, time.March, 1)

	t.Run("ordinary pair", func(t *testing.T) {
		assert.Equal(t, 12.93, cfg.DeclineAmount(purchase, date(2015, time.June, 1), nil))
	})

	t.Run("later purchase group", func(t *testing.T) {
		assert.Equal(t, 5.34, cfg.DeclineAmount(date(2015, time.May, 1), date(2015, time.July, 29), nil))
	})

	t.Run("disclosure day with recorded time", func(t *testing.T) {
		afterCutoff := dateAt(2015, time.April, 28, 15, 10)
		beforeCutoff := dateAt(2015, time.April, 28, 14, 0)
		assert.Equal(t, 8.97, cfg.DeclineAmount(purchase, afterCutoff, nil))
		assert.Equal(t, 0.0, cfg.DeclineAmount(purchase, beforeCutoff, nil))
	})

	t.Run("disclosure day final minute", func(t *testing.T) {
		lastSecond := dateAt(2015, time.April, 28, 23, 59).Add(30 * time.Second)
		assert.Equal(t, 8.97, cfg.DeclineAmount(purchase, lastSecond, nil))
	})

	t.Run("disclosure day resolved by price", func(t *testing.T) {
		disclosureDay := date(2015, time.April, 28)
		highPrice := 51.00
		lowPrice := 45.00
		assert.Equal(t, 0.0, cfg.DeclineAmount(purchase, disclosureDay, &highPrice))
		assert.Equal(t, 8.97, cfg.DeclineAmount(purchase, disclosureDay, &lowPrice))
	})

	t.Run("disclosure day with no hint defaults to post", func(t *testing.T) {
		assert.Equal(t, 8.97, cfg.DeclineAmount(purchase, date(2015, time.April, 28), nil))
	})

	t.Run("recorded time wins over price hint", func(t *testing.T) {
		afterCutoff := dateAt(2015, time.April, 28, 15, 10)
		highPrice := 51.00
		assert.Equal(t, 8.97, cfg.DeclineAmount(purchase, afterCutoff, &highPrice))
	})

	t.Run("outside timeline", func(t *testing.T) {
		assert.Equal(t, 0.0, cfg.DeclineAmount(date(2015, time.January, 1), date(2015, time.June, 1), nil))
	})
}

func TestInflationAt(t *testing.T) {
	cfg, err := NewConfiguration(KraftHeinz)
	require.NoError(t, err)

	assert.Equal(t, 12.59, cfg.InflationAt(date(2016, time.January, 4), false))
	assert.Equal(t, 10.93, cfg.InflationAt(date(2019, time.January, 15), false))
	assert.Equal(t, 4.04, cfg.InflationAt(date(2019, time.March, 1), true))

	// The 8/8/2019 band applies to sales only.
	saleOnlyDay := date(2019, time.August, 8)
	assert.Equal(t, 1.33, cfg.InflationAt(saleOnlyDay, true))
	assert.Equal(t, 0.0, cfg.InflationAt(saleOnlyDay, false))

	assert.Equal(t, 0.0, cfg.InflationAt(date(2019, time.September, 1), true))
	assert.Equal(t, 0.0, cfg.InflationAt(date(2015, time.January, 1), false))
}

func TestAverageClosingPrice(t *testing.T) {
	cfg, err := NewConfiguration(Twitter)
	require.NoError(t, err)

	assert.Equal(t, 29.27, cfg.AverageClosingPrice(date(2015, time.August, 3)))
	assert.Equal(t, 28.06, cfg.AverageClosingPrice(date(2015, time.October, 30)))

	// Weekend dates fall back to the period-wide average.
	assert.Equal(t, cfg.AveragePrice, cfg.AverageClosingPrice(date(2015, time.August, 8)))

	// A time-of-day on a listed date still resolves.
	assert.Equal(t, 29.27, cfg.AverageClosingPrice(dateAt(2015, time.August, 3, 10, 30)))
}

func TestInClassPeriod(t *testing.T) {
	cfg, err := NewConfiguration(Twitter)
	require.NoError(t, err)

	assert.False(t, cfg.InClassPeriod(date(2015, time.February, 5)))
	assert.True(t, cfg.InClassPeriod(date(2015, time.February, 6)))
	assert.True(t, cfg.InClassPeriod(date(2015, time.July, 28)))
	assert.True(t, cfg.InClassPeriod(dateAt(2015, time.July, 28, 16, 0)))
	assert.False(t, cfg.InClassPeriod(date(2015, time.July, 29)))
}
