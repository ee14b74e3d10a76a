package scheduling

import (
	"testing"

	"villabook/cmd/internal/domain/entity"
)

func TestFlagOverlaps(t *testing.T) {
	store := &memStore{}
	store.add(t, 1, userA, "Alice", "2025-03-01", "2025-03-20", entity.StatusApproved)
	store.add(t, 2, userB, "Bob", "2025-03-02", "2025-03-03", entity.StatusPending)
	store.add(t, 3, userC, "Carol", "2025-03-21", "2025-03-22", entity.StatusPending)
	store.add(t, 4, userB, "Bob", "2025-03-22", "2025-03-25", entity.StatusCancelled)
	store.add(t, 5, userA, "Alice", "2025-04-01", "2025-04-01", entity.StatusPending)
	store.add(t, 6, userC, "Carol", "2025-03-10", "2025-03-10", entity.StatusPending)

	flags := FlagOverlaps(store.bookings)

	want := map[int]bool{1: true, 2: true, 6: true}
	for id := 1; id <= 6; id++ {
		if flags[id] != want[id] {
			t.Fatalf("booking %d: flagged=%v, want %v", id, flags[id], want[id])
		}
	}
}

// Brute force agreement on every pair of a small grid of ranges.
func TestFlagOverlapsMatchesPairwise(t *testing.T) {
	dates := []string{"2025-03-01", "2025-03-03", "2025-03-05", "2025-03-07"}
	store := &memStore{}
	id := 0
	for i, s := range dates {
		for _, e := range dates[i:] {
			id++
			status := entity.StatusPending
			if id%4 == 0 {
				status = entity.StatusCancelled
			}
			store.add(t, id, id, "u", s, e, status)
		}
	}

	flags := FlagOverlaps(store.bookings)
	for _, a := range store.bookings {
		expected := false
		for _, b := range store.bookings {
			if a.ID == b.ID || !a.IsActive() || !b.IsActive() {
				continue
			}
			if a.StartsAt <= b.EndsAt && b.StartsAt <= a.EndsAt {
				expected = true
			}
		}
		if flags[a.ID] != expected {
			t.Fatalf("booking %d: flagged=%v, pairwise=%v", a.ID, flags[a.ID], expected)
		}
	}
}
