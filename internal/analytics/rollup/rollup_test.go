package rollup

import (
	"testing"
	"time"

	"github.com/smallbiznis/formpay/internal/analytics/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func record(id string, amount int64, at time.Time) domain.Record {
	return domain.Record{
		FormID:            "form_1",
		ProviderPaymentID: id,
		Amount:            amount,
		Currency:          "usd",
		Status:            "succeeded",
		Date:              at,
	}
}

func TestComputeEmpty(t *testing.T) {
	result := Compute(nil)

	require.NotNil(t, result.DailyData)
	assert.Empty(t, result.DailyData)
	assert.Equal(t, int64(0), result.Summary.TotalRevenue)
	assert.Equal(t, int64(0), result.Summary.TotalTransactions)
	assert.Equal(t, float64(0), result.Summary.AvgTransactionValue)
	require.NotNil(t, result.Summary.Countries)
	require.NotNil(t, result.Summary.PaymentMethods)
	assert.Empty(t, result.Summary.Countries)
	assert.Empty(t, result.Summary.PaymentMethods)
}

func TestComputeTwoDays(t *testing.T) {
	records := []domain.Record{
		record("pi_2", 300, day(2024, 1, 2)),
		record("pi_1", 500, day(2024, 1, 1)),
	}

	result := Compute(records)

	assert.Equal(t, []domain.DailyBucket{
		{Date: "2024-01-01", TotalAmount: 500, Count: 1, AvgAmount: 500},
		{Date: "2024-01-02", TotalAmount: 300, Count: 1, AvgAmount: 300},
	}, result.DailyData)
	assert.Equal(t, int64(800), result.Summary.TotalRevenue)
	assert.Equal(t, int64(2), result.Summary.TotalTransactions)
	assert.InDelta(t, 400, result.Summary.AvgTransactionValue, 0.0001)
}

func TestComputeIgnoresNonSucceeded(t *testing.T) {
	failed := record("pi_failed", 900, day(2024, 1, 1))
	failed.Status = "failed"
	refunded := record("pi_refund", 100, day(2024, 1, 1))
	refunded.Status = "refunded"

	result := Compute([]domain.Record{failed, refunded, record("pi_ok", 250, day(2024, 1, 1))})

	require.Len(t, result.DailyData, 1)
	assert.Equal(t, int64(250), result.Summary.TotalRevenue)
	assert.Equal(t, int64(1), result.Summary.TotalTransactions)
}

func TestBuildDailyBucketsGroupsByUTCDate(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	records := []domain.Record{
		// 2024-01-02 03:00 in UTC+7 is still 2024-01-01 in UTC.
		record("pi_a", 100, time.Date(2024, 1, 2, 3, 0, 0, 0, jakarta)),
		record("pi_b", 200, time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC)),
		record("pi_c", 50, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
	}

	buckets := BuildDailyBuckets(records)

	require.Len(t, buckets, 2)
	assert.Equal(t, "2024-01-01", buckets[0].Date)
	assert.Equal(t, int64(300), buckets[0].TotalAmount)
	assert.Equal(t, int64(2), buckets[0].Count)
	assert.InDelta(t, 150, buckets[0].AvgAmount, 0.0001)
	assert.Equal(t, "2024-01-02", buckets[1].Date)
	assert.Equal(t, int64(1), buckets[1].Count)
}

func TestRoundTripDistinctDates(t *testing.T) {
	const n = 7
	records := make([]domain.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, record("pi_"+string(rune('a'+i)), int64(100*(i+1)), day(2024, 3, 1+i)))
	}

	result := Compute(records)

	assert.Equal(t, int64(n), result.Summary.TotalTransactions)
	assert.Len(t, result.DailyData, n)
	for i := 1; i < len(result.DailyData); i++ {
		assert.Less(t, result.DailyData[i-1].Date, result.DailyData[i].Date)
	}
}

func TestSummarizeDistinctSets(t *testing.T) {
	a := record("pi_a", 100, day(2024, 1, 1))
	a.Country, a.PaymentMethod = "US", "card"
	b := record("pi_b", 100, day(2024, 1, 1))
	b.Country, b.PaymentMethod = "DE", "card"
	c := record("pi_c", 100, day(2024, 1, 2))
	c.PaymentMethod = "sepa_debit"
	d := record("pi_d", 100, day(2024, 1, 2))

	summary := Summarize([]domain.Record{a, b, c, d})

	assert.Equal(t, []string{"DE", "US"}, summary.Countries)
	assert.Equal(t, []string{"card", "sepa_debit"}, summary.PaymentMethods)
}

func TestInRange(t *testing.T) {
	start := day(2024, 1, 2)
	end := EndOfDay(day(2024, 1, 3))

	cases := []struct {
		name string
		at   time.Time
		rng  domain.DateRange
		want bool
	}{
		{"open", day(1999, 1, 1), domain.DateRange{}, true},
		{"before start", day(2024, 1, 1), domain.DateRange{Start: &start}, false},
		{"on start", start, domain.DateRange{Start: &start}, true},
		{"end of last day", time.Date(2024, 1, 3, 23, 0, 0, 0, time.UTC), domain.DateRange{Start: &start, End: &end}, true},
		{"after end", day(2024, 1, 4), domain.DateRange{End: &end}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InRange(tc.at, tc.rng))
		})
	}
}
