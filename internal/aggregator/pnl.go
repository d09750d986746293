package aggregator

import "ops-insights-go/internal/types"

// PnLRow is one service line as it arrives from an uploaded P&L sheet.
type PnLRow struct {
	Service    string
	Volume     int
	UnitCost   float64
	ServiceFee float64
}

// BuildPnL aggregates P&L rows per service. Revenue per row is
// (unitCost + serviceFee) * volume and cost is unitCost * volume;
// volume, revenue and cost sum across rows. The service fee is a
// per-order constant, so across rows the first non-zero fee seen is
// retained rather than summed.
func BuildPnL(rows []PnLRow) []types.ServicePnL {
	var order []string
	byService := map[string]*types.ServicePnL{}
	for _, r := range rows {
		p, ok := byService[r.Service]
		if !ok {
			p = &types.ServicePnL{Service: r.Service}
			byService[r.Service] = p
			order = append(order, r.Service)
		}
		p.Volume += r.Volume
		p.TotalRevenue += (r.UnitCost + r.ServiceFee) * float64(r.Volume)
		p.TotalCost += r.UnitCost * float64(r.Volume)
		if p.UnitCost == 0 {
			p.UnitCost = r.UnitCost
		}
		if p.ServiceFee == 0 && r.ServiceFee != 0 {
			p.ServiceFee = r.ServiceFee
		}
	}
	out := make([]types.ServicePnL, 0, len(order))
	for _, s := range order {
		out = append(out, *byService[s])
	}
	return out
}

// MergePnL folds several per-file aggregations together under the same
// summing rules, preserving the first-non-zero service fee.
func MergePnL(files ...[]types.ServicePnL) []types.ServicePnL {
	var order []string
	byService := map[string]*types.ServicePnL{}
	for _, file := range files {
		for _, p := range file {
			acc, ok := byService[p.Service]
			if !ok {
				cp := p
				byService[p.Service] = &cp
				order = append(order, p.Service)
				continue
			}
			acc.Volume += p.Volume
			acc.TotalRevenue += p.TotalRevenue
			acc.TotalCost += p.TotalCost
			if acc.UnitCost == 0 {
				acc.UnitCost = p.UnitCost
			}
			if acc.ServiceFee == 0 && p.ServiceFee != 0 {
				acc.ServiceFee = p.ServiceFee
			}
		}
	}
	out := make([]types.ServicePnL, 0, len(order))
	for _, s := range order {
		out = append(out, *byService[s])
	}
	return out
}

// Totals sums revenue and cost across services and derives gross profit.
func Totals(services []types.ServicePnL) (revenue, cost, grossProfit float64) {
	for _, s := range services {
		revenue += s.TotalRevenue
		cost += s.TotalCost
	}
	return revenue, cost, revenue - cost
}
