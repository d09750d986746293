// Package aggregator rolls resolved entities and deduplicated sale
// periods up into the per-service counts and percentage metrics the
// dashboard renders directly.
package aggregator

import (
	"fmt"
	"math"
	"sort"

	"ops-insights-go/internal/dedup"
	"ops-insights-go/internal/types"
)

// TrendWindowDays is the fixed backward window for daily trend series.
const TrendWindowDays = 14

// TopDriverCount caps the exposed driver ranking.
const TopDriverCount = 4

// Percentage returns round(flagged/total*100), and 0 when total is 0.
func Percentage(flagged, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(flagged) / float64(total) * 100))
}

// BuildServiceAggregates rolls grouped sale periods up per service:
// unique sales, distinct client/contract counts, raw complaint totals
// and a histogram keyed by each period's start month.
func BuildServiceAggregates(byGroup map[dedup.GroupKey][]types.SalePeriod) []types.ServiceAggregate {
	type acc struct {
		agg       types.ServiceAggregate
		clients   map[string]struct{}
		contracts map[string]struct{}
	}
	accs := map[string]*acc{}
	for key, periods := range byGroup {
		a, ok := accs[key.Service]
		if !ok {
			a = &acc{
				agg:       types.ServiceAggregate{Service: key.Service, MonthHistogram: map[string]int{}},
				clients:   map[string]struct{}{},
				contracts: map[string]struct{}{},
			}
			accs[key.Service] = a
		}
		if key.Client != "" {
			a.clients[key.Client] = struct{}{}
		}
		if key.Contract != "" {
			a.contracts[key.Contract] = struct{}{}
		}
		for _, p := range periods {
			a.agg.UniqueSales++
			a.agg.TotalComplaints += p.Occurrences
			a.agg.MonthHistogram[p.StartDate.Format(types.MonthLayout)]++
		}
	}

	out := make([]types.ServiceAggregate, 0, len(accs))
	for _, a := range accs {
		a.agg.UniqueClients = len(a.clients)
		a.agg.UniqueContracts = len(a.contracts)
		out = append(out, a.agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out
}

// Drivers ranks issue tags among flagged entities by frequency. Impact
// is the share of flagged entities carrying the tag, rounded. Ties sort
// alphabetically so the ranking is stable.
func Drivers(entities []types.ResolvedEntity, flagged func(types.ResolvedEntity) bool) []types.Driver {
	counts := map[string]int{}
	flaggedTotal := 0
	for _, e := range entities {
		if !flagged(e) {
			continue
		}
		flaggedTotal++
		for _, tag := range e.IssueTags {
			counts[tag]++
		}
	}
	drivers := make([]types.Driver, 0, len(counts))
	for tag, n := range counts {
		drivers = append(drivers, types.Driver{Tag: tag, Count: n, Impact: Percentage(n, flaggedTotal)})
	}
	sort.Slice(drivers, func(i, j int) bool {
		if drivers[i].Count != drivers[j].Count {
			return drivers[i].Count > drivers[j].Count
		}
		return drivers[i].Tag < drivers[j].Tag
	})
	if len(drivers) > TopDriverCount {
		drivers = drivers[:TopDriverCount]
	}
	return drivers
}

// MainIssue promotes the rank-1 driver to a narrative summary.
func MainIssue(drivers []types.Driver) string {
	if len(drivers) == 0 {
		return "No dominant issue detected"
	}
	top := drivers[0]
	return fmt.Sprintf("Main issue: %s, cited in %d%% of flagged conversations", top.Tag, top.Impact)
}

// NPS buckets scores into promoters (9-10), passives (7-8) and
// detractors (0-6); out-of-range scores are ignored. The score is
// (promoters - detractors) over total, as a rounded percentage.
func NPS(scores []int) (promoters, passives, detractors, score int) {
	total := 0
	for _, s := range scores {
		switch {
		case s < 0 || s > 10:
			continue
		case s >= 9:
			promoters++
		case s >= 7:
			passives++
		default:
			detractors++
		}
		total++
	}
	if total == 0 {
		return 0, 0, 0, 0
	}
	raw := (float64(promoters)/float64(total) - float64(detractors)/float64(total)) * 100
	return promoters, passives, detractors, int(math.Round(raw))
}
