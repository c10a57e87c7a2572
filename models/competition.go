package models

import (
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"
)

// ResultStatus is the outcome of a rider's participation in an event.
type ResultStatus string

const (
	ResultStatusFinished ResultStatus = "finished"
	ResultStatusDNS      ResultStatus = "dns"
	ResultStatusDNF      ResultStatus = "dnf"
	ResultStatusDQ       ResultStatus = "dq"
)

// EventLevel is the administrator-assigned tier of an event.
type EventLevel string

const (
	EventLevelSportmotion   EventLevel = "sportmotion"
	EventLevelRegional      EventLevel = "regional"
	EventLevelNational      EventLevel = "national"
	EventLevelInternational EventLevel = "international"
)

// Rider is owned by the member registry; the ranking engine only reads it.
type Rider struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	BirthYear int    `json:"birthYear,omitempty"`
	Gender    string `json:"gender,omitempty"`
	ClubID    *int64 `json:"clubId,omitempty"`
}

// Club is a cycling club riders can be affiliated with.
type Club struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

// Event is a single competition day in one discipline.
type Event struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name,omitempty"`
	Date       time.Time  `json:"date"`
	Discipline string     `json:"discipline"`
	Level      EventLevel `json:"level"`
	ClubID     *int64     `json:"clubId,omitempty"`
}

// Class is a start category. Only classes that both award points and count
// towards the series feed the ranking.
type Class struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	AwardsPoints   bool   `json:"awardsPoints"`
	SeriesEligible bool   `json:"seriesEligible"`
	Gender         string `json:"gender,omitempty"`
	MinAge         *int   `json:"minAge,omitempty"`
	MaxAge         *int   `json:"maxAge,omitempty"`
}

// CountsTowardsRanking reports whether results in this class may be ranked.
func (c Class) CountsTowardsRanking() bool {
	return c.AwardsPoints && c.SeriesEligible
}

// Result is one rider's outcome in one class of one event. Points are the raw
// pre-multiplier score assigned by event scoring.
type Result struct {
	ID       int64        `json:"id"`
	RiderID  int64        `json:"riderId"`
	EventID  int64        `json:"eventId"`
	ClassID  int64        `json:"classId"`
	Points   float64      `json:"points"`
	Status   ResultStatus `json:"status"`
	Position *int         `json:"position,omitempty"`
}

// CanonicalDiscipline folds a discipline label into the key used for storage
// and lookups: transliterated to ASCII, lower case, words joined with '-'.
// "Straße " and "strasse" map to the same key.
func CanonicalDiscipline(raw string) string {
	ascii := strings.ToLower(unidecode.Unidecode(strings.TrimSpace(raw)))
	return strings.Join(strings.FieldsFunc(ascii, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}), "-")
}
