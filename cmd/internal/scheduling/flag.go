package scheduling

import (
	"sort"

	"villabook/cmd/internal/domain/entity"
)

// FlagOverlaps returns the ids of active bookings that intersect at least one
// other active booking. Intervals are sorted by start and swept once while
// tracking the booking reaching furthest.
func FlagOverlaps(bookings []*entity.Booking) map[int]bool {
	active := make([]*entity.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.IsActive() {
			active = append(active, b)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].StartsAt == active[j].StartsAt {
			return active[i].EndsAt < active[j].EndsAt
		}
		return active[i].StartsAt < active[j].StartsAt
	})

	flagged := make(map[int]bool)
	var reach *entity.Booking
	for _, b := range active {
		if reach != nil && b.StartsAt <= reach.EndsAt {
			flagged[b.ID] = true
			flagged[reach.ID] = true
		}
		if reach == nil || b.EndsAt > reach.EndsAt {
			reach = b
		}
	}
	return flagged
}
