package ranking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"cycleranking/models"
)

// Defaults for the optional settings keys.
const (
	DefaultRecentMonths = 12
	DefaultWindowMonths = 24
	DefaultAgingWeight  = 0.5

	maxWindowMonths = 120
)

// neutralMultiplier is used wherever a table has no answer.
const neutralMultiplier = 1.0

// FieldMultiplierTable maps field sizes to multipliers as a saturating step
// function over its buckets.
type FieldMultiplierTable struct {
	buckets []fieldBucket // ascending by size
}

type fieldBucket struct {
	size       int
	multiplier float64
}

// Lookup returns the multiplier of the largest bucket not above size. Sizes
// below the first bucket use the first bucket and sizes beyond the last bucket
// use the last one. An empty table answers 1.00.
func (t FieldMultiplierTable) Lookup(size int) float64 {
	if len(t.buckets) == 0 {
		return neutralMultiplier
	}
	idx := sort.Search(len(t.buckets), func(i int) bool { return t.buckets[i].size > size })
	if idx == 0 {
		return t.buckets[0].multiplier
	}
	return t.buckets[idx-1].multiplier
}

// TopBucket is the bucket size from which the multiplier saturates, 0 when empty.
func (t FieldMultiplierTable) TopBucket() int {
	if len(t.buckets) == 0 {
		return 0
	}
	return t.buckets[len(t.buckets)-1].size
}

// EventLevelTable maps case-folded event levels to multipliers.
type EventLevelTable map[string]float64

// Lookup returns the multiplier for level, 1.00 when the level is not listed.
func (t EventLevelTable) Lookup(level models.EventLevel) float64 {
	if m, ok := t[foldLevel(string(level))]; ok {
		return m
	}
	return neutralMultiplier
}

// DecayWindows partitions contributions by event age in whole months.
type DecayWindows struct {
	RecentMonths int     `json:"recent_months"`
	WindowMonths int     `json:"window_months"`
	AgingWeight  float64 `json:"aging_weight"`
}

// AggregationConfig selects how a rider's contributions become a total.
type AggregationConfig struct {
	Strategy string `json:"strategy"`
	TopN     int    `json:"top_n,omitempty"`
}

// Settings is the immutable configuration of one calculation run.
type Settings struct {
	FieldMultipliers      FieldMultiplierTable
	EventLevelMultipliers EventLevelTable
	Decay                 DecayWindows
	Aggregation           AggregationStrategy
	// Fallbacks lists the settings that were absent and replaced by neutral values.
	Fallbacks []string
}

// FieldMultiplier is the multiplier for a field of the given size.
func (s Settings) FieldMultiplier(fieldSize int) float64 {
	return s.FieldMultipliers.Lookup(fieldSize)
}

// EventLevelMultiplier is the multiplier for the given event level.
func (s Settings) EventLevelMultiplier(level models.EventLevel) float64 {
	return s.EventLevelMultipliers.Lookup(level)
}

// ParseSettings builds a run configuration from the stored settings rows.
// A missing multiplier table falls back to 1.00 everywhere unless strict is
// set, in which case it is a ConfigurationError. Malformed values are always
// a ConfigurationError.
func ParseSettings(stored map[string]models.RankingSetting, strict bool) (Settings, error) {
	var s Settings

	if row, ok := stored[models.SettingFieldMultipliers]; ok && !isNull(row.Value) {
		table, err := parseFieldMultipliers(row.Value)
		if err != nil {
			return Settings{}, err
		}
		s.FieldMultipliers = table
	} else if strict {
		return Settings{}, configErr(models.SettingFieldMultipliers, "required setting is missing")
	} else {
		s.Fallbacks = append(s.Fallbacks, models.SettingFieldMultipliers)
	}

	if row, ok := stored[models.SettingEventLevelMultipliers]; ok && !isNull(row.Value) {
		table, err := parseEventLevelMultipliers(row.Value)
		if err != nil {
			return Settings{}, err
		}
		s.EventLevelMultipliers = table
	} else if strict {
		return Settings{}, configErr(models.SettingEventLevelMultipliers, "required setting is missing")
	} else {
		s.EventLevelMultipliers = EventLevelTable{}
		s.Fallbacks = append(s.Fallbacks, models.SettingEventLevelMultipliers)
	}

	decay := DecayWindows{RecentMonths: DefaultRecentMonths, WindowMonths: DefaultWindowMonths, AgingWeight: DefaultAgingWeight}
	if row, ok := stored[models.SettingDecayWindows]; ok && !isNull(row.Value) {
		parsed, err := parseDecayWindows(row.Value)
		if err != nil {
			return Settings{}, err
		}
		decay = parsed
	}
	s.Decay = decay

	strategy := AggregationStrategy(SumAll{})
	if row, ok := stored[models.SettingAggregation]; ok && !isNull(row.Value) {
		parsed, err := parseAggregation(row.Value)
		if err != nil {
			return Settings{}, err
		}
		strategy = parsed
	}
	s.Aggregation = strategy

	return s, nil
}

// ValidateSetting checks a single settings document before it is stored.
func ValidateSetting(key string, value json.RawMessage) error {
	var err error
	switch key {
	case models.SettingFieldMultipliers:
		_, err = parseFieldMultipliers(value)
	case models.SettingEventLevelMultipliers:
		_, err = parseEventLevelMultipliers(value)
	case models.SettingDecayWindows:
		_, err = parseDecayWindows(value)
	case models.SettingAggregation:
		_, err = parseAggregation(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSettingKey, key)
	}
	return err
}

func parseFieldMultipliers(raw json.RawMessage) (FieldMultiplierTable, error) {
	key := models.SettingFieldMultipliers

	var doc map[string]float64
	if err := json.Unmarshal(raw, &doc); err != nil {
		return FieldMultiplierTable{}, configErr(key, "decode: %w", err)
	}
	if len(doc) == 0 {
		return FieldMultiplierTable{}, configErr(key, "at least one bucket is required")
	}

	buckets := make([]fieldBucket, 0, len(doc))
	seen := make(map[int]bool, len(doc))
	openEnded := 0
	for label, multiplier := range doc {
		trimmed := strings.TrimSpace(label)
		digits, open := strings.CutSuffix(trimmed, "+")
		size, err := strconv.Atoi(digits)
		if err != nil || size < 1 {
			return FieldMultiplierTable{}, configErr(key, "bucket %q is not a positive field size", label)
		}
		if open {
			if openEnded != 0 {
				return FieldMultiplierTable{}, configErr(key, "only one bucket may be open-ended")
			}
			openEnded = size
		}
		if seen[size] {
			return FieldMultiplierTable{}, configErr(key, "bucket %d is defined twice", size)
		}
		seen[size] = true
		if err := checkMultiplier(multiplier); err != nil {
			return FieldMultiplierTable{}, configErr(key, "bucket %q: %w", label, err)
		}
		buckets = append(buckets, fieldBucket{size: size, multiplier: multiplier})
	}

	sort.Slice(buckets, func(i, j int) bool { return buckets[i].size < buckets[j].size })
	if top := buckets[len(buckets)-1].size; openEnded != 0 && openEnded != top {
		return FieldMultiplierTable{}, configErr(key, "only the top bucket (%d) may be open-ended, got \"%d+\"", top, openEnded)
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i].multiplier < buckets[i-1].multiplier {
			return FieldMultiplierTable{}, configErr(key,
				"multiplier for %d riders (%.2f) is below the one for %d riders (%.2f)",
				buckets[i].size, buckets[i].multiplier, buckets[i-1].size, buckets[i-1].multiplier)
		}
	}
	return FieldMultiplierTable{buckets: buckets}, nil
}

func parseEventLevelMultipliers(raw json.RawMessage) (EventLevelTable, error) {
	key := models.SettingEventLevelMultipliers

	var doc map[string]float64
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, configErr(key, "decode: %w", err)
	}
	table := make(EventLevelTable, len(doc))
	for level, multiplier := range doc {
		folded := foldLevel(level)
		if folded == "" {
			return nil, configErr(key, "empty event level")
		}
		if _, dup := table[folded]; dup {
			return nil, configErr(key, "event level %q is defined twice", level)
		}
		if err := checkMultiplier(multiplier); err != nil {
			return nil, configErr(key, "level %q: %w", level, err)
		}
		table[folded] = multiplier
	}
	return table, nil
}

func parseDecayWindows(raw json.RawMessage) (DecayWindows, error) {
	key := models.SettingDecayWindows

	d := DecayWindows{RecentMonths: DefaultRecentMonths, WindowMonths: DefaultWindowMonths, AgingWeight: DefaultAgingWeight}
	if err := json.Unmarshal(raw, &d); err != nil {
		return DecayWindows{}, configErr(key, "decode: %w", err)
	}
	if d.RecentMonths < 1 {
		return DecayWindows{}, configErr(key, "recent_months must be at least 1")
	}
	if d.WindowMonths <= d.RecentMonths || d.WindowMonths > maxWindowMonths {
		return DecayWindows{}, configErr(key, "window_months must be in (%d, %d]", d.RecentMonths, maxWindowMonths)
	}
	if d.AgingWeight < 0 || d.AgingWeight > 1 {
		return DecayWindows{}, configErr(key, "aging_weight must be in [0, 1]")
	}
	return d, nil
}

func parseAggregation(raw json.RawMessage) (AggregationStrategy, error) {
	key := models.SettingAggregation

	var cfg AggregationConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, configErr(key, "decode: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Strategy)) {
	case "", StrategySumAll:
		return SumAll{}, nil
	case StrategyTopN:
		if cfg.TopN < 1 {
			return nil, configErr(key, "top_n must be at least 1")
		}
		return TopN{N: cfg.TopN}, nil
	default:
		return nil, configErr(key, "unknown strategy %q", cfg.Strategy)
	}
}

func checkMultiplier(m float64) error {
	if m <= 0 || m > 1 {
		return fmt.Errorf("multiplier %.4f outside (0, 1]", m)
	}
	return nil
}

func foldLevel(level string) string {
	// Casers carry state, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(level))
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
