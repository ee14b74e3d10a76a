package scheduling

import (
	"time"
)

const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar days. Start is the first
// instant of the first day and End the last second of the last day, both
// in the same location.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Fields are the display values derived from a range.
type Fields struct {
	StartDay int `json:"start_day"`
	EndDay   int `json:"end_day"`
	Duration int `json:"duration"`
	Gap      int `json:"gap"`
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func endOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, loc)
}

// NewDateRange normalizes start and end to their day boundaries in loc.
// Only the calendar dates are compared: an end date before the start date
// is rejected.
func NewDateRange(start, end time.Time, loc *time.Location) (DateRange, error) {
	r := DateRange{Start: startOfDay(start, loc), End: endOfDay(end, loc)}
	if civilDays(r.Start, r.End) < 0 {
		return DateRange{}, ValidationError{Field: "end_date", Msg: "end date must be on or after start date"}
	}
	return r, nil
}

// ParseDateRange parses two YYYY-MM-DD dates in loc.
func ParseDateRange(start, end string, loc *time.Location) (DateRange, error) {
	s, err := time.ParseInLocation(DateLayout, start, loc)
	if err != nil {
		return DateRange{}, ValidationError{Field: "start_date", Msg: "must be a YYYY-MM-DD date"}
	}
	e, err := time.ParseInLocation(DateLayout, end, loc)
	if err != nil {
		return DateRange{}, ValidationError{Field: "end_date", Msg: "must be a YYYY-MM-DD date"}
	}
	return NewDateRange(s, e, loc)
}

// FromMillis rebuilds a stored range.
func FromMillis(startsAt, endsAt int64, loc *time.Location) DateRange {
	return DateRange{
		Start: time.UnixMilli(startsAt).In(loc),
		End:   time.UnixMilli(endsAt).In(loc),
	}
}

func (r DateRange) StartMillis() int64 { return r.Start.UnixMilli() }

func (r DateRange) EndMillis() int64 { return r.End.UnixMilli() }

// Overlaps uses closed-interval semantics on the boundary instants, so a
// range ending on day N does not overlap one starting on day N+1, while two
// ranges sharing a calendar day do.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.Start.After(o.End) && !o.Start.After(r.End)
}

// Days is the number of calendar days covered, both ends included.
func (r DateRange) Days() int {
	return civilDays(r.Start, r.End) + 1
}

func (r DateRange) Fields() Fields {
	endDay := isoWeekday(r.End)
	return Fields{
		StartDay: isoWeekday(r.Start),
		EndDay:   endDay,
		Duration: r.Days(),
		Gap:      7 - endDay,
	}
}

func (r DateRange) StartDate() string { return r.Start.Format(DateLayout) }

func (r DateRange) EndDate() string { return r.End.Format(DateLayout) }

// DeriveFields computes start_day, end_day, duration and gap for a range.
func DeriveFields(start, end time.Time, loc *time.Location) (Fields, error) {
	r, err := NewDateRange(start, end, loc)
	if err != nil {
		return Fields{}, err
	}
	return r.Fields(), nil
}

// isoWeekday maps Go's Sunday=0 to ISO 1=Monday..7=Sunday.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// civilDays counts calendar days between the dates of a and b, ignoring
// daylight saving shifts.
func civilDays(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
