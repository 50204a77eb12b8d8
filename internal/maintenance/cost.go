package maintenance

import (
	"sort"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// StatsWindowMonths is the number of calendar months covered by MonthlyCosts.
const StatsWindowMonths = 12

// LogCost returns service plus product cost of a log, nil counting as zero.
func LogCost(l models.MaintenanceLog) float64 {
	return deref(l.ServiceCost) + deref(l.ProductCost)
}

// TotalCost sums the cost of every log.
func TotalCost(logs []models.MaintenanceLog) float64 {
	var total float64
	for _, l := range logs {
		total += LogCost(l)
	}
	return total
}

// WindowStart returns the first instant of the oldest month in the
// trailing window ending with the month of now.
func WindowStart(now time.Time) time.Time {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -(StatsWindowMonths - 1), 0)
}

// MonthlyCosts buckets log costs by UTC calendar month over the trailing
// twelve months ending with the month of now. Every month is present even
// without logs, and the result is sorted oldest first.
func MonthlyCosts(logs []models.MaintenanceLog, now time.Time) []models.MonthlyCost {
	start := WindowStart(now)
	buckets := make(map[string]*models.MonthlyCost, StatsWindowMonths)
	for i := 0; i < StatsWindowMonths; i++ {
		m := start.AddDate(0, i, 0)
		key := m.Format("2006-01")
		buckets[key] = &models.MonthlyCost{Month: m.Format("01/2006"), SortKey: key}
	}

	for _, l := range logs {
		if l.DatePerformed.IsZero() {
			continue
		}
		b, ok := buckets[l.DatePerformed.UTC().Format("2006-01")]
		if !ok {
			continue
		}
		b.ServiceCost += deref(l.ServiceCost)
		b.ProductCost += deref(l.ProductCost)
		b.Total = b.ServiceCost + b.ProductCost
		b.Count++
	}

	out := make([]models.MonthlyCost, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortKey < out[j].SortKey })
	return out
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
