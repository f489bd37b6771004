// Package rollup turns analytics records into daily buckets and summaries.
// Everything here is pure and works on UTC calendar dates.
package rollup

import (
	"sort"
	"time"

	"github.com/smallbiznis/formpay/internal/analytics/domain"
	paymentdomain "github.com/smallbiznis/formpay/internal/payment/domain"
)

const DateLayout = "2006-01-02"

// BucketDate returns the UTC calendar date key for t.
func BucketDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of t's UTC day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// Compute filters records down to succeeded payments and builds both views.
func Compute(records []domain.Record) domain.QueryResult {
	succeeded := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if r.Status == string(paymentdomain.EventKindSucceeded) {
			succeeded = append(succeeded, r)
		}
	}
	return domain.QueryResult{
		DailyData: BuildDailyBuckets(succeeded),
		Summary:   Summarize(succeeded),
	}
}

// BuildDailyBuckets groups records by UTC date in ascending order.
func BuildDailyBuckets(records []domain.Record) []domain.DailyBucket {
	byDate := make(map[string]*domain.DailyBucket)
	for _, r := range records {
		key := BucketDate(r.Date)
		bucket, ok := byDate[key]
		if !ok {
			bucket = &domain.DailyBucket{Date: key}
			byDate[key] = bucket
		}
		bucket.TotalAmount += r.Amount
		bucket.Count++
	}

	buckets := make([]domain.DailyBucket, 0, len(byDate))
	for _, bucket := range byDate {
		bucket.AvgAmount = average(bucket.TotalAmount, bucket.Count)
		buckets = append(buckets, *bucket)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Date < buckets[j].Date
	})
	return buckets
}

// Summarize totals records and collects the distinct non-empty countries and
// payment methods, sorted.
func Summarize(records []domain.Record) domain.Summary {
	var summary domain.Summary
	countries := make(map[string]struct{})
	methods := make(map[string]struct{})
	for _, r := range records {
		summary.TotalRevenue += r.Amount
		summary.TotalTransactions++
		if r.Country != "" {
			countries[r.Country] = struct{}{}
		}
		if r.PaymentMethod != "" {
			methods[r.PaymentMethod] = struct{}{}
		}
	}
	summary.AvgTransactionValue = average(summary.TotalRevenue, summary.TotalTransactions)
	summary.Countries = sortedKeys(countries)
	summary.PaymentMethods = sortedKeys(methods)
	return summary
}

// InRange reports whether t falls inside the inclusive range.
func InRange(t time.Time, dateRange domain.DateRange) bool {
	if dateRange.Start != nil && t.Before(*dateRange.Start) {
		return false
	}
	if dateRange.End != nil && t.After(*dateRange.End) {
		return false
	}
	return true
}

func average(total, count int64) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
