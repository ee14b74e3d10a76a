package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"villabook/cmd/internal/domain/entity"

	"github.com/labstack/gommon/log"
)

const (
	KindBookingCreated   = "booking.created"
	KindBookingUpdated   = "booking.updated"
	KindBookingApproved  = "booking.approved"
	KindBookingRejected  = "booking.rejected"
	KindBookingCancelled = "booking.cancelled"
)

// Event is a finalized booking change, plus the bookings it overlaps when
// the change raised a warning.
type Event struct {
	Kind     string
	Property string
	Booking  *entity.Booking
	Overlaps []*entity.Booking
	Actor    *entity.User
}

// Notifier delivers booking events (admin alerts, approval and rejection
// messages) to whatever channel is configured.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Publisher is the transport an AMQPNotifier writes to.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type LogNotifier struct {
	loc *time.Location
}

func NewLogNotifier(loc *time.Location) *LogNotifier {
	return &LogNotifier{loc: loc}
}

func (l *LogNotifier) Notify(_ context.Context, ev Event) error {
	log.Infof("[notify] %s", Describe(ev, l.loc))
	return nil
}

// AMQPNotifier publishes each event with its kind as routing key.
type AMQPNotifier struct {
	pub Publisher
	loc *time.Location
}

func NewAMQPNotifier(pub Publisher, loc *time.Location) *AMQPNotifier {
	return &AMQPNotifier{pub: pub, loc: loc}
}

func (a *AMQPNotifier) Notify(ctx context.Context, ev Event) error {
	return a.pub.PublishJSON(ctx, ev.Kind, NewMessage(ev, a.loc))
}

type BookingRef struct {
	ID        int    `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
	OwnerID   int    `json:"owner_id"`
	OwnerName string `json:"owner_name"`
}

type Message struct {
	Kind     string       `json:"kind"`
	Property string       `json:"property,omitempty"`
	Booking  BookingRef   `json:"booking"`
	Overlaps []BookingRef `json:"overlaps,omitempty"`
	ActorID  int          `json:"actor_id,omitempty"`
	Summary  string       `json:"summary"`
	SentAt   string       `json:"sent_at"`
}

func NewMessage(ev Event, loc *time.Location) Message {
	msg := Message{
		Kind:     ev.Kind,
		Property: ev.Property,
		Booking:  ref(ev.Booking, loc),
		Summary:  Describe(ev, loc),
		SentAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if ev.Actor != nil {
		msg.ActorID = ev.Actor.ID
	}
	for _, o := range ev.Overlaps {
		msg.Overlaps = append(msg.Overlaps, ref(o, loc))
	}
	return msg
}

func ref(b *entity.Booking, loc *time.Location) BookingRef {
	return BookingRef{
		ID:        b.ID,
		StartDate: time.UnixMilli(b.StartsAt).In(loc).Format("2006-01-02"),
		EndDate:   time.UnixMilli(b.EndsAt).In(loc).Format("2006-01-02"),
		Status:    b.Status,
		OwnerID:   b.AddedBy,
		OwnerName: b.Owner.Username,
	}
}

// Describe renders a one-line human summary of ev.
func Describe(ev Event, loc *time.Location) string {
	b := ref(ev.Booking, loc)
	var sb strings.Builder
	if ev.Property != "" {
		sb.WriteString(ev.Property + ": ")
	}
	fmt.Fprintf(&sb, "%s #%d %s..%s by %s (%s)", ev.Kind, b.ID, b.StartDate, b.EndDate, b.OwnerName, b.Status)
	if len(ev.Overlaps) > 0 {
		names := make([]string, 0, len(ev.Overlaps))
		for _, o := range ev.Overlaps {
			names = append(names, fmt.Sprintf("#%d %s", o.ID, o.Owner.Username))
		}
		sb.WriteString(", overlaps " + strings.Join(names, ", "))
	}
	return sb.String()
}
