package ranking

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contribution is the ranking value of one eligible result at full precision.
type Contribution struct {
	ResultID        int64
	RiderID         int64
	EventID         int64
	ClassID         int64
	EventDate       time.Time
	RawPoints       float64
	FieldSize       int
	FieldMultiplier float64
	LevelMultiplier float64
	RankingPoints   float64
}

type fieldKey struct {
	eventID int64
	classID int64
}

// Score normalises every eligible result by the size of its field and the
// level of its event. Field size counts eligible results in the same event
// and class, so it must be given the complete eligible list of a discipline.
func Score(eligible []Candidate, settings Settings) []Contribution {
	fieldSizes := make(map[fieldKey]int)
	for _, c := range eligible {
		fieldSizes[fieldKey{c.Result.EventID, c.Result.ClassID}]++
	}

	out := make([]Contribution, 0, len(eligible))
	for _, c := range eligible {
		size := fieldSizes[fieldKey{c.Result.EventID, c.Result.ClassID}]
		fieldMul := settings.FieldMultiplier(size)
		levelMul := settings.EventLevelMultiplier(c.Event.Level)

		out = append(out, Contribution{
			ResultID:        c.Result.ID,
			RiderID:         c.Result.RiderID,
			EventID:         c.Result.EventID,
			ClassID:         c.Result.ClassID,
			EventDate:       c.Event.Date,
			RawPoints:       c.Result.Points,
			FieldSize:       size,
			FieldMultiplier: fieldMul,
			LevelMultiplier: levelMul,
			RankingPoints:   normalise(c.Result.Points, fieldMul, levelMul),
		})
	}
	return out
}

// normalise applies both multipliers. Multipliers never exceed 1, but the
// result is clamped so a misbehaving table cannot inflate or negate points.
func normalise(raw, fieldMul, levelMul float64) float64 {
	if raw <= 0 {
		return 0
	}
	points := raw * fieldMul * levelMul
	switch {
	case points < 0:
		return 0
	case points > raw:
		return raw
	}
	return points
}

// RoundPoints rounds to one decimal, half away from zero. It is only applied
// when values are persisted.
func RoundPoints(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
