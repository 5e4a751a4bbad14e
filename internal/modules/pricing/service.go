package pricing

import (
	"context"
	"math"
	"time"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
)

// Quote is a priced, non-reserving answer to "what would this interval
// cost". Quoting is a pure function of catalog state plus interval, so the
// front-end may call it as often as it likes during a multi-step flow.
type Quote struct {
	ResourceID int64     `json:"resource_id"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
	Nights     int       `json:"nights,omitempty"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
}

type Service struct {
	resources ResourceReader
}

func NewService(resources ResourceReader) *Service {
	return &Service{resources: resources}
}

func (s *Service) Quote(ctx context.Context, resourceID int64, start, end time.Time, adults, children int) (*Quote, error) {
	if !end.After(start) {
		return nil, ErrValidation
	}

	res, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !res.Active {
		return nil, ErrResourceInactive
	}
	if adults+children > res.Capacity {
		return nil, ErrCapacityExceeded
	}

	q := &Quote{
		ResourceID: resourceID,
		StartAt:    start,
		EndAt:      end,
		Currency:   res.Currency,
	}

	if res.Kind.SlotBased() {
		q.Amount = round2(slotAmount(res, start, end))
		return q, nil
	}

	nights := nightsBetween(start, end)
	if nights == 0 {
		return nil, ErrValidation
	}

	total := 0.0
	night := startOfDay(start)
	for i := 0; i < nights; i++ {
		total += nightRate(res, night)
		night = night.AddDate(0, 0, 1)
	}

	q.Nights = nights
	q.Amount = round2(total)
	return q, nil
}

// nightRate prices a single night, classified individually: an explicit
// per-weekday override for the night's date wins, then the weekend rate
// for nights ending on a Friday or Saturday morning, then the base rate.
// A Friday-to-Sunday stay therefore carries exactly one weekend night.
func nightRate(res *domain.Resource, night time.Time) float64 {
	if v, ok := overrideRate(res, weekdayKey(night.Weekday())); ok {
		return v
	}
	if wd := night.AddDate(0, 0, 1).Weekday(); wd == time.Friday || wd == time.Saturday {
		if res.WeekendRate > 0 {
			return res.WeekendRate
		}
	}
	return res.BaseRate
}

// slotAmount prices dining/event/facility slots: flat base rate unless a
// "per_hour" override is configured, in which case full started hours are
// charged.
func slotAmount(res *domain.Resource, start, end time.Time) float64 {
	if perHour, ok := overrideRate(res, "per_hour"); ok {
		hours := math.Ceil(end.Sub(start).Hours())
		if hours < 1 {
			hours = 1
		}
		return perHour * hours
	}
	return res.BaseRate
}

func overrideRate(res *domain.Resource, key string) (float64, bool) {
	if res.RateOverrides == nil {
		return 0, false
	}
	raw, ok := res.RateOverrides[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func nightsBetween(start, end time.Time) int {
	return int(startOfDay(end).Sub(startOfDay(start)).Hours() / 24)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func weekdayKey(w time.Weekday) string {
	switch w {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
