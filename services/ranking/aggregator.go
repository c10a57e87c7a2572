package ranking

import (
	"cmp"
	"slices"
)

// Strategy names accepted in the aggregation setting.
const (
	StrategySumAll = "sum_all"
	StrategyTopN   = "top_n"
)

// WeightedContribution is a contribution after time-decay weighting.
type WeightedContribution struct {
	Contribution
	Recent   bool
	Weight   float64
	Weighted float64
}

// AggregationStrategy picks which weighted contributions make up a rider's total.
type AggregationStrategy interface {
	Name() string
	Select(contributions []WeightedContribution) []WeightedContribution
}

// SumAll counts every contribution.
type SumAll struct{}

func (SumAll) Name() string { return StrategySumAll }

func (SumAll) Select(contributions []WeightedContribution) []WeightedContribution {
	return contributions
}

// TopN counts only the N best weighted contributions. Equal values prefer the
// more recent event, then the lower result id.
type TopN struct {
	N int
}

func (t TopN) Name() string { return StrategyTopN }

func (t TopN) Select(contributions []WeightedContribution) []WeightedContribution {
	if len(contributions) <= t.N {
		return contributions
	}
	sorted := slices.Clone(contributions)
	slices.SortFunc(sorted, func(a, b WeightedContribution) int {
		if c := cmp.Compare(b.Weighted, a.Weighted); c != 0 {
			return c
		}
		if c := b.EventDate.Compare(a.EventDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ResultID, b.ResultID)
	})
	return sorted[:t.N]
}

// RiderTotal is a rider's aggregate in one discipline, at full precision.
type RiderTotal struct {
	RiderID      int64
	Total        float64
	Points12     float64
	Points13To24 float64
	EventsCount  int
}

// AggregateRiders groups contributions per rider, weights them by age and
// applies the aggregation strategy. The output is ordered by rider id.
func AggregateRiders(contributions []Contribution, window Window, decay DecayWindows, strategy AggregationStrategy) []RiderTotal {
	if strategy == nil {
		strategy = SumAll{}
	}

	byRider := make(map[int64][]WeightedContribution)
	for _, c := range contributions {
		recent := window.Recent(c.EventDate)
		weight := 1.0
		if !recent {
			weight = decay.AgingWeight
		}
		byRider[c.RiderID] = append(byRider[c.RiderID], WeightedContribution{
			Contribution: c,
			Recent:       recent,
			Weight:       weight,
			Weighted:     c.RankingPoints * weight,
		})
	}

	out := make([]RiderTotal, 0, len(byRider))
	for riderID, weighted := range byRider {
		// Summation order is fixed so reruns produce identical floats.
		slices.SortFunc(weighted, func(a, b WeightedContribution) int {
			return cmp.Compare(a.ResultID, b.ResultID)
		})
		total := RiderTotal{RiderID: riderID}
		for _, w := range strategy.Select(weighted) {
			total.Total += w.Weighted
			total.EventsCount++
			if w.Recent {
				total.Points12 += w.RankingPoints
			} else {
				total.Points13To24 += w.RankingPoints
			}
		}
		out = append(out, total)
	}

	slices.SortFunc(out, func(a, b RiderTotal) int { return cmp.Compare(a.RiderID, b.RiderID) })
	return out
}
