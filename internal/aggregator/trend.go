package aggregator

import (
	"time"

	"ops-insights-go/internal/types"
)

// DayReader fetches one prior day's persisted percentage. ok=false means
// no snapshot exists for that day.
type DayReader func(date string) (value int, ok bool)

// TrendSeries walks backward from endDate over the fixed window and
// collects one point per day that has a persisted snapshot. Missing days
// are omitted, not zero-filled, so gaps shorten the series.
func TrendSeries(endDate time.Time, read DayReader) []types.TrendPoint {
	var out []types.TrendPoint
	for i := TrendWindowDays - 1; i >= 0; i-- {
		day := endDate.AddDate(0, 0, -i).Format(types.DateLayout)
		if v, ok := read(day); ok {
			out = append(out, types.TrendPoint{Date: day, Value: v})
		}
	}
	return out
}

// DelayStats summarizes response times in seconds per agent plus an
// overall line, display-formatted as clock strings.
func DelayStats(records []types.DelayRecord) (types.AgentDelayStat, []types.AgentDelayStat) {
	byAgent := map[string]*types.AgentDelayStat{}
	var order []string
	overall := types.AgentDelayStat{Agent: "overall"}
	overallSum := 0
	sums := map[string]int{}

	for _, r := range records {
		sec := r.Seconds()
		a, ok := byAgent[r.Agent()]
		if !ok {
			a = &types.AgentDelayStat{Agent: r.Agent(), MinSeconds: sec, MaxSeconds: sec}
			byAgent[r.Agent()] = a
			order = append(order, r.Agent())
		}
		a.Count++
		sums[r.Agent()] += sec
		if sec < a.MinSeconds {
			a.MinSeconds = sec
		}
		if sec > a.MaxSeconds {
			a.MaxSeconds = sec
		}

		overall.Count++
		overallSum += sec
		if overall.Count == 1 || sec < overall.MinSeconds {
			overall.MinSeconds = sec
		}
		if sec > overall.MaxSeconds {
			overall.MaxSeconds = sec
		}
	}

	stats := make([]types.AgentDelayStat, 0, len(order))
	for _, name := range order {
		a := byAgent[name]
		if a.Count > 0 {
			a.AvgSeconds = sums[name] / a.Count
		}
		a.AvgDisplay = types.FormatClock(a.AvgSeconds)
		stats = append(stats, *a)
	}
	if overall.Count > 0 {
		overall.AvgSeconds = overallSum / overall.Count
	}
	overall.AvgDisplay = types.FormatClock(overall.AvgSeconds)
	return overall, stats
}
