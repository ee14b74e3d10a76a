package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	BookingsCreated  prometheus.Counter
	OverlapWarnings  prometheus.Counter
	BookingConflicts prometheus.Counter
	Transitions      *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BookingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "villabook_bookings_created_total",
			Help: "Total number of bookings created",
		}),

		OverlapWarnings: factory.NewCounter(prometheus.CounterOpts{
			Name: "villabook_booking_overlap_warnings_total",
			Help: "Total number of booking writes accepted with a cross-owner overlap",
		}),

		BookingConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "villabook_booking_conflicts_total",
			Help: "Total number of booking writes refused for overlapping the owner's own booking",
		}),

		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "villabook_booking_transitions_total",
			Help: "Booking status transitions by target status",
		}, []string{"to"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "villabook_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Middleware observes request durations, labelled by route template.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			m.RequestDuration.
				WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
