package scheduling

import (
	"context"
	"time"

	"villabook/cmd/internal/domain/entity"
)

// Store returns the stored bookings whose [starts_at, ends_at] intersects the
// given instants, leaving out cancelled bookings and excludeID (0 means none).
type Store interface {
	FindOverlapping(ctx context.Context, startsAt, endsAt int64, excludeID int) ([]*entity.Booking, error)
}

// Decision is the outcome of evaluating a new or edited booking. Nothing is
// persisted by the engine: callers apply it and save.
type Decision struct {
	Range     DateRange
	Fields    Fields
	Type      string
	Status    string
	Conflicts []*entity.Booking

	// ValidatedBy is set when an admin edit approves or cancels a pending booking.
	ValidatedBy *int
}

// Warning reports a cross-owner overlap.
func (d *Decision) Warning() bool {
	return len(d.Conflicts) > 0
}

// ConflictingOwners lists the owners of the overlapping bookings once each,
// in the order the bookings were found.
func (d *Decision) ConflictingOwners() []string {
	seen := make(map[int]bool, len(d.Conflicts))
	names := make([]string, 0, len(d.Conflicts))
	for _, c := range d.Conflicts {
		if seen[c.AddedBy] {
			continue
		}
		seen[c.AddedBy] = true
		name := c.Owner.Username
		if name == "" {
			name = "unknown user"
		}
		names = append(names, name)
	}
	return names
}

// Apply writes the range, its derived fields, type and status onto b, and
// the validator when the decision carries one.
func (d *Decision) Apply(b *entity.Booking) {
	b.StartsAt = d.Range.StartMillis()
	b.EndsAt = d.Range.EndMillis()
	b.StartDay = d.Fields.StartDay
	b.EndDay = d.Fields.EndDay
	b.Duration = d.Fields.Duration
	b.Gap = d.Fields.Gap
	b.Type = d.Type
	b.Status = d.Status
	if d.ValidatedBy != nil {
		b.ValidatedBy = d.ValidatedBy
	}
}

// Change lists the fields an update supplies. Nil means unchanged.
type Change struct {
	Start  *time.Time
	End    *time.Time
	Type   *string
	Status *string
}

func (c Change) touchesDates() bool {
	return c.Start != nil || c.End != nil
}

type Engine struct {
	store Store
	loc   *time.Location
}

func NewEngine(store Store, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{store: store, loc: loc}
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// FindOverlaps returns the active bookings intersecting r. Cancelled bookings
// never count, whatever the store returns.
func (e *Engine) FindOverlaps(ctx context.Context, r DateRange, excludeID int) ([]*entity.Booking, error) {
	found, err := e.store.FindOverlapping(ctx, r.StartMillis(), r.EndMillis(), excludeID)
	if err != nil {
		return nil, err
	}

	overlaps := make([]*entity.Booking, 0, len(found))
	for _, b := range found {
		if !b.IsActive() || (excludeID != 0 && b.ID == excludeID) {
			continue
		}
		if !r.Overlaps(FromMillis(b.StartsAt, b.EndsAt, e.loc)) {
			continue
		}
		overlaps = append(overlaps, b)
	}
	return overlaps, nil
}

// EvaluateNew decides the outcome of a creation by actorID. Overlapping one
// of the actor's own bookings is a ConflictError; overlapping other users'
// bookings is allowed with a warning. New bookings are always pending.
func (e *Engine) EvaluateNew(ctx context.Context, actorID int, start, end time.Time, kind string) (*Decision, error) {
	if err := validateType(kind); err != nil {
		return nil, err
	}

	r, err := NewDateRange(start, end, e.loc)
	if err != nil {
		return nil, err
	}

	conflicts, err := e.checkOwner(ctx, r, actorID, 0)
	if err != nil {
		return nil, err
	}

	return &Decision{
		Range:     r,
		Fields:    r.Fields(),
		Type:      kind,
		Status:    entity.StatusPending,
		Conflicts: conflicts,
	}, nil
}

// EvaluateUpdate decides the outcome of editing b. The overlap check runs
// only when a date is supplied and compares against b's owner, with no
// override for admins, and is skipped when the booking ends up cancelled.
// Admin edits keep or set status explicitly, other edits put the booking back
// to pending. An admin moving a pending booking to approved or cancelled is
// recorded as its validator, the same as Approve and Reject.
func (e *Engine) EvaluateUpdate(ctx context.Context, b *entity.Booking, ch Change, actorID int, isAdmin bool) (*Decision, error) {
	kind := b.Type
	if ch.Type != nil {
		if err := validateType(*ch.Type); err != nil {
			return nil, err
		}
		kind = *ch.Type
	}

	current := FromMillis(b.StartsAt, b.EndsAt, e.loc)
	start, end := current.Start, current.End
	if ch.Start != nil {
		start = *ch.Start
	}
	if ch.End != nil {
		end = *ch.End
	}

	r, err := NewDateRange(start, end, e.loc)
	if err != nil {
		return nil, err
	}

	status := entity.StatusPending
	var validatedBy *int
	if isAdmin {
		status = b.Status
		if ch.Status != nil && *ch.Status != b.Status {
			if err := checkTransition(b.Status, *ch.Status); err != nil {
				return nil, err
			}
			status = *ch.Status
			if b.Status == entity.StatusPending {
				validatedBy = &actorID
			}
		}
	} else if !b.IsActive() {
		return nil, InvalidStateError{Msg: "cancelled bookings cannot be edited"}
	}

	var conflicts []*entity.Booking
	if ch.touchesDates() && status != entity.StatusCancelled {
		conflicts, err = e.checkOwner(ctx, r, b.AddedBy, b.ID)
		if err != nil {
			return nil, err
		}
	}

	return &Decision{
		Range:       r,
		Fields:      r.Fields(),
		Type:        kind,
		Status:      status,
		Conflicts:   conflicts,
		ValidatedBy: validatedBy,
	}, nil
}

func (e *Engine) checkOwner(ctx context.Context, r DateRange, ownerID, excludeID int) ([]*entity.Booking, error) {
	overlaps, err := e.FindOverlaps(ctx, r, excludeID)
	if err != nil {
		return nil, err
	}

	var own []int
	for _, o := range overlaps {
		if o.AddedBy == ownerID {
			own = append(own, o.ID)
		}
	}
	if len(own) > 0 {
		return nil, ConflictError{Conflicts: own}
	}
	return overlaps, nil
}

// Approve moves a pending booking to approved on behalf of adminID.
func Approve(b *entity.Booking, adminID int) error {
	if b.Status != entity.StatusPending {
		return InvalidStateError{From: b.Status, To: entity.StatusApproved, Msg: "only pending bookings can be approved"}
	}
	b.Status = entity.StatusApproved
	b.ValidatedBy = &adminID
	return nil
}

// Reject cancels a pending booking on behalf of adminID.
func Reject(b *entity.Booking, adminID int) error {
	if b.Status != entity.StatusPending {
		return InvalidStateError{From: b.Status, To: entity.StatusCancelled, Msg: "only pending bookings can be rejected"}
	}
	b.Status = entity.StatusCancelled
	b.ValidatedBy = &adminID
	return nil
}

// Cancel cancels a pending or approved booking. validated_by is untouched.
func Cancel(b *entity.Booking) error {
	if !b.IsActive() {
		return InvalidStateError{From: b.Status, To: entity.StatusCancelled, Msg: "booking is already cancelled"}
	}
	b.Status = entity.StatusCancelled
	return nil
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to string) bool {
	switch from {
	case entity.StatusPending:
		return to == entity.StatusApproved || to == entity.StatusCancelled
	case entity.StatusApproved:
		return to == entity.StatusCancelled
	}
	return false
}

func checkTransition(from, to string) error {
	switch to {
	case entity.StatusPending, entity.StatusApproved, entity.StatusCancelled:
	default:
		return ValidationError{Field: "status", Msg: "must be one of pending, approved, cancelled"}
	}
	if !CanTransition(from, to) {
		return InvalidStateError{From: from, To: to}
	}
	return nil
}

func validateType(kind string) error {
	if kind != entity.TypeBooking {
		return ValidationError{Field: "type", Msg: "must be " + entity.TypeBooking}
	}
	return nil
}
