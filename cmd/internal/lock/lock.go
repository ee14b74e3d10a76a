// Package lock serializes the overlap check and the write that follows it,
// so two requests cannot both pass the check before either commits.
package lock

import (
	"context"
	"errors"
)

// BookingKey guards every mutation of the booking calendar. The property is
// a single shared resource, so one key covers it.
const BookingKey = "villabook:lock:bookings"

var ErrNotAcquired = errors.New("lock not acquired")

type Locker interface {
	// Acquire blocks until key is held or ctx is done. The returned func
	// releases it.
	Acquire(ctx context.Context, key string) (func(), error)
}
