package ranking

import (
	"cmp"
	"slices"
	"time"

	"cycleranking/models"
)

// RankRiders rounds rider totals for persistence and assigns 1-based positions:
// higher total first, lower rider id on equal totals. Ordering uses the
// rounded values so published positions agree with published points.
func RankRiders(totals []RiderTotal, discipline string, snapshotDate time.Time) []models.RankingSnapshot {
	rows := make([]models.RankingSnapshot, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, models.RankingSnapshot{
			RiderID:            t.RiderID,
			Discipline:         discipline,
			SnapshotDate:       snapshotDate,
			TotalRankingPoints: RoundPoints(t.Total),
			EventsCount:        t.EventsCount,
			Points12:           RoundPoints(t.Points12),
			Points13To24:       RoundPoints(t.Points13To24),
		})
	}

	slices.SortFunc(rows, func(a, b models.RankingSnapshot) int {
		if c := cmp.Compare(b.TotalRankingPoints, a.TotalRankingPoints); c != 0 {
			return c
		}
		return cmp.Compare(a.RiderID, b.RiderID)
	})
	for i := range rows {
		rows[i].RankingPosition = i + 1
	}
	return rows
}

// RollupClubs sums persisted rider totals per club of current affiliation and
// ranks the clubs with the same tie-break as riders. Riders without a club, or
// unknown to the registry, are left out.
func RollupClubs(riders []models.RankingSnapshot, registry map[int64]models.Rider, discipline string, snapshotDate time.Time) []models.ClubRankingSnapshot {
	type acc struct {
		total  float64
		riders int
	}
	byClub := make(map[int64]*acc)

	ordered := slices.Clone(riders)
	slices.SortFunc(ordered, func(a, b models.RankingSnapshot) int { return cmp.Compare(a.RiderID, b.RiderID) })

	for _, r := range ordered {
		rider, ok := registry[r.RiderID]
		if !ok || rider.ClubID == nil {
			continue
		}
		a := byClub[*rider.ClubID]
		if a == nil {
			a = &acc{}
			byClub[*rider.ClubID] = a
		}
		a.total += r.TotalRankingPoints
		a.riders++
	}

	rows := make([]models.ClubRankingSnapshot, 0, len(byClub))
	for clubID, a := range byClub {
		rows = append(rows, models.ClubRankingSnapshot{
			ClubID:             clubID,
			Discipline:         discipline,
			SnapshotDate:       snapshotDate,
			TotalRankingPoints: RoundPoints(a.total),
			RidersCount:        a.riders,
		})
	}

	slices.SortFunc(rows, func(a, b models.ClubRankingSnapshot) int {
		if c := cmp.Compare(b.TotalRankingPoints, a.TotalRankingPoints); c != 0 {
			return c
		}
		return cmp.Compare(a.ClubID, b.ClubID)
	})
	for i := range rows {
		rows[i].RankingPosition = i + 1
	}
	return rows
}
