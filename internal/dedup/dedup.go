// Package dedup collapses repeat complaints into distinct sales.
//
// Complaints about the same underlying purchase recur for months; a
// complaint within three calendar months of a period's first complaint
// still belongs to that purchase, while a larger gap means a new one.
package dedup

import (
	"sort"
	"time"

	"ops-insights-go/internal/logger"
	"ops-insights-go/internal/types"
)

// Complaint is one date-carrying complaint already mapped to a service
// key. Identifier fields may be empty.
type Complaint struct {
	Service  string
	Contract string
	Client   string
	Maid     string
	Date     string
}

// GroupKey identifies one (service, contract, client, maid) complaint group.
type GroupKey struct {
	Service  string
	Contract string
	Client   string
	Maid     string
}

// IsWithinThreeMonths reports whether d falls inside the three-calendar-
// month window anchored at start. A difference of exactly three months
// resolves by day-of-month: d must be strictly before start plus three
// calendar months.
func IsWithinThreeMonths(start, d time.Time) bool {
	months := (d.Year()-start.Year())*12 + int(d.Month()) - int(start.Month())
	if months < 0 {
		months = -months
	}
	if months < 3 {
		return true
	}
	if months > 3 {
		return false
	}
	earlier, later := start, d
	if d.Before(start) {
		earlier, later = d, start
	}
	return later.Before(earlier.AddDate(0, 3, 0))
}

// BuildPeriods partitions dates into the minimum number of sale periods.
// Dates are processed in ascending order; each one is tested against
// every open period's anchor and absorbed into the first that still has
// it in window, otherwise it opens a new period.
func BuildPeriods(dates []time.Time) []types.SalePeriod {
	sorted := append([]time.Time(nil), dates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	var periods []types.SalePeriod
	for _, d := range sorted {
		placed := false
		for i := range periods {
			if IsWithinThreeMonths(periods[i].StartDate, d) {
				periods[i].Dates = append(periods[i].Dates, d)
				periods[i].Occurrences++
				if d.After(periods[i].EndDate) {
					periods[i].EndDate = d
				}
				placed = true
				break
			}
		}
		if !placed {
			periods = append(periods, types.SalePeriod{
				StartDate:   d,
				EndDate:     d,
				Dates:       []time.Time{d},
				Occurrences: 1,
			})
		}
	}
	return periods
}

// Deduplicate groups complaints by (service, contract, client, maid) and
// windows each group into sale periods. Complaints without a parseable
// date are skipped entirely and excluded from every count.
func Deduplicate(complaints []Complaint) map[GroupKey][]types.SalePeriod {
	log := logger.New().WithComponent("dedup")

	grouped := map[GroupKey][]time.Time{}
	for _, c := range complaints {
		d, err := time.Parse(types.DateLayout, c.Date)
		if err != nil {
			log.WithField("date", c.Date).Warn("skipping complaint with unparseable date")
			continue
		}
		k := GroupKey{Service: c.Service, Contract: c.Contract, Client: c.Client, Maid: c.Maid}
		grouped[k] = append(grouped[k], d)
	}

	out := make(map[GroupKey][]types.SalePeriod, len(grouped))
	for k, dates := range grouped {
		out[k] = BuildPeriods(dates)
	}
	return out
}
