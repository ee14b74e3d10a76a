package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"villabook/cmd/internal/access"
	"villabook/cmd/internal/domain/database"
	"villabook/cmd/internal/domain/database/repository"
	"villabook/cmd/internal/domain/entity"
	"villabook/cmd/internal/lock"
	"villabook/cmd/internal/metrics"
	"villabook/cmd/internal/notify"
	"villabook/cmd/internal/scheduling"
	"villabook/cmd/internal/utils/validators"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingNotifier) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

type fixture struct {
	bookings *DefaultBookingService
	users    *repository.DefaultUserRepository
	settings *repository.DefaultSettingRepository
	notifier *recordingNotifier
	metrics  *metrics.Metrics
	validate *validator.Validate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Init("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to init database: %v", err)
	}

	validate := validator.New()
	validators.Register(validate)

	bookingRepo := repository.NewBookingRepository(db)
	userRepo := repository.NewUserRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	notifier := &recordingNotifier{}
	m := metrics.New(prometheus.NewRegistry())

	svc := NewBookingService(
		bookingRepo,
		userRepo,
		settingRepo,
		scheduling.NewEngine(bookingRepo, time.UTC),
		access.NewRolePolicy(),
		notifier,
		lock.NewLocal(),
		m,
		validate,
	)
	return &fixture{
		bookings: svc,
		users:    userRepo,
		settings: settingRepo,
		notifier: notifier,
		metrics:  m,
		validate: validate,
	}
}

func (f *fixture) user(t *testing.T, name, role string, validated bool) *entity.User {
	t.Helper()
	u := &entity.User{
		SubUUID:     name + "-sub",
		Username:    name,
		Email:       name + "@villa.test",
		Role:        role,
		IsValidated: validated,
	}
	if err := f.users.Save(u); err != nil {
		t.Fatalf("failed to save user %s: %v", name, err)
	}
	return u
}

func (f *fixture) book(t *testing.T, owner *entity.User, start, end string) *BookingMutationResponse {
	t.Helper()
	resp, apierr := f.bookings.CreateBooking(context.Background(), &CreateBookingRequest{StartDate: start, EndDate: end}, owner.SubUUID)
	if apierr != nil {
		t.Fatalf("failed to create booking %s..%s for %s: %v", start, end, owner.Username, apierr)
	}
	return resp
}

func strPtr(s string) *string {
	return &s
}
