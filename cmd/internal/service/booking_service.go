package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"villabook/cmd/internal/access"
	"villabook/cmd/internal/domain/entity"
	"villabook/cmd/internal/export"
	"villabook/cmd/internal/lock"
	"villabook/cmd/internal/metrics"
	"villabook/cmd/internal/notify"
	"villabook/cmd/internal/scheduling"
	"villabook/cmd/internal/utils"
	"villabook/cmd/internal/utils/apierror"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type BookingRepository interface {
	FindByID(ctx context.Context, id int) (*entity.Booking, error)
	FindAll(ctx context.Context, userID int, status string) ([]*entity.Booking, error)
	FindByUserID(ctx context.Context, id int) ([]*entity.Booking, error)
	FindActiveBetween(ctx context.Context, from, to int64) ([]*entity.Booking, error)
	Save(ctx context.Context, booking *entity.Booking) error
	Delete(ctx context.Context, booking *entity.Booking) error
}

type CreateBookingRequest struct {
	StartDate string `json:"start_date" validate:"required,isodate"`
	EndDate   string `json:"end_date" validate:"required,isodate"`
	Type      string `json:"type" validate:"omitempty,bookingtype"`
}

type UpdateBookingRequest struct {
	StartDate *string `json:"start_date" validate:"omitempty,isodate"`
	EndDate   *string `json:"end_date" validate:"omitempty,isodate"`
	Type      *string `json:"type" validate:"omitempty,bookingtype"`
}

type AdminUpdateBookingRequest struct {
	StartDate *string `json:"start_date" validate:"omitempty,isodate"`
	EndDate   *string `json:"end_date" validate:"omitempty,isodate"`
	Type      *string `json:"type" validate:"omitempty,bookingtype"`
	Status    *string `json:"status" validate:"omitempty,bookingstatus"`
}

type BookingResponse struct {
	ID          int    `json:"id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
	StartDay    int    `json:"start_day"`
	EndDay      int    `json:"end_day"`
	Duration    int    `json:"duration"`
	Gap         int    `json:"gap"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	AddedBy     int    `json:"added_by"`
	OwnerName   string `json:"owner_name"`
	OwnerColor  string `json:"owner_color,omitempty"`
	ValidatedBy *int   `json:"validated_by"`
	HasOverlap  *bool  `json:"has_overlap,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type BookingMutationResponse struct {
	Booking           *BookingResponse `json:"booking"`
	OverlapWarning    bool             `json:"overlap_warning"`
	Message           string           `json:"message,omitempty"`
	ConflictingOwners []string         `json:"conflicting_owners,omitempty"`
}

type CalendarEntry struct {
	ID         int    `json:"id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	StartDay   int    `json:"start_day"`
	EndDay     int    `json:"end_day"`
	Duration   int    `json:"duration"`
	Gap        int    `json:"gap"`
	Status     string `json:"status"`
	OwnerName  string `json:"owner_name"`
	OwnerColor string `json:"owner_color,omitempty"`
}

type CalendarResponse struct {
	Month    string           `json:"month"`
	Bookings []*CalendarEntry `json:"bookings"`
}

type DefaultBookingService struct {
	BookingRepo BookingRepository
	UserRepo    UserRepository
	SettingRepo SettingRepository
	Engine      *scheduling.Engine
	Policy      access.Policy
	Notifier    notify.Notifier
	Locker      lock.Locker
	Metrics     *metrics.Metrics
	Validate    *validator.Validate
}

func NewBookingService(
	bookingRepo BookingRepository,
	userRepo UserRepository,
	settingRepo SettingRepository,
	engine *scheduling.Engine,
	policy access.Policy,
	notifier notify.Notifier,
	locker lock.Locker,
	m *metrics.Metrics,
	validate *validator.Validate,
) *DefaultBookingService {
	return &DefaultBookingService{
		BookingRepo: bookingRepo,
		UserRepo:    userRepo,
		SettingRepo: settingRepo,
		Engine:      engine,
		Policy:      policy,
		Notifier:    notifier,
		Locker:      locker,
		Metrics:     m,
		Validate:    validate,
	}
}

// GetBookings lists the caller's own bookings. Admins get every booking,
// annotated with has_overlap.
func (s *DefaultBookingService) GetBookings(ctx context.Context, subId string) ([]*BookingResponse, apierror.ErrorResponse) {
	caller, apierr := s.caller(subId)
	if apierr != nil {
		return nil, apierr
	}

	if s.Policy.CanManageBookings(caller) {
		return s.AdminGetBookings(ctx, subId, 0, "")
	}

	bookings, err := s.BookingRepo.FindByUserID(ctx, caller.ID)
	if err != nil {
		log.Errorf("failed to find bookings for user %d: %v", caller.ID, err)
		return nil, apierror.InternalServerError
	}

	response := make([]*BookingResponse, len(bookings))
	for i, b := range bookings {
		response[i] = s.toBookingResponse(b)
	}
	return response, nil
}

// AdminGetBookings lists bookings, optionally filtered by owner and status.
// has_overlap is computed against every active booking, not only the
// filtered ones.
func (s *DefaultBookingService) AdminGetBookings(ctx context.Context, subId string, userID int, status string) ([]*BookingResponse, apierror.ErrorResponse) {
	caller, apierr := s.caller(subId)
	if apierr != nil {
		return nil, apierr
	}
	if !s.Policy.CanManageBookings(caller) {
		return nil, apierror.ForbiddenError
	}

	all, err := s.BookingRepo.FindAll(ctx, 0, "")
	if err != nil {
		log.Errorf("failed to find all bookings: %v", err)
		return nil, apierror.InternalServerError
	}
	flags := scheduling.FlagOverlaps(all)

	response := make([]*BookingResponse, 0, len(all))
	for _, b := range all {
		if (userID != 0 && b.AddedBy != userID) || (status != "" && b.Status != status) {
			continue
		}
		resp := s.toBookingResponse(b)
		overlap := flags[b.ID]
		resp.HasOverlap = &overlap
		response = append(response, resp)
	}
	return response, nil
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, id int, subId string) (*BookingResponse, apierror.ErrorResponse) {
	caller, apierr := s.caller(subId)
	if apierr != nil {
		return nil, apierr
	}

	booking, apierr := s.fetchBooking(ctx, id)
	if apierr != nil {
		return nil, apierr
	}
	if !s.Policy.CanView(caller, booking) {
		return nil, apierror.NotFoundError
	}
	return s.toBookingResponse(booking), nil
}

func (s *DefaultBookingService) CreateBooking(ctx context.Context, req *CreateBookingRequest, subId string) (*BookingMutationResponse, apierror.ErrorResponse) {
	caller, apierr := s.caller(subId)
	if apierr != nil {
		return nil, apierr
	}

	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	if !s.Policy.CanBook(caller) {
		return nil, apierror.UserNotValidatedError
	}

	start, end, apierr := s.parseDates(req.StartDate, req.EndDate)
	if apierr != nil {
		return nil, apierr
	}
	kind := req.Type
	if kind == "" {
		kind = entity.TypeBooking
	}

	var booking *entity.Booking
	var decision *scheduling.Decision
	apierr = s.withBookingLock(ctx, func() apierror.ErrorResponse {
		var err error
		decision, err = s.Engine.EvaluateNew(ctx, caller.ID, start, end, kind)
		if err != nil {
			return s.fromEngineError(err)
		}

		booking = &entity.Booking{AddedBy: caller.ID}
		decision.Apply(booking)
		if err := s.BookingRepo.Save(ctx, booking); err != nil {
			log.Errorf("failed to save booking for user %d: %v", caller.ID, err)
			return apierror.InternalServerError
		}
		return nil
	})
	if apierr != nil {
		return nil, apierr
	}
	booking.Owner = *caller

	s.Metrics.BookingsCreated.Inc()
	if decision.Warning() {
		s.Metrics.OverlapWarnings.Inc()
	}
	s.notify(ctx, notify.KindBookingCreated, booking, decision.Conflicts, caller)

	return s.toMutationResponse(booking, decision), nil
}

// UpdateBooking is the owner's edit of a pending booking. The booking goes
// back through the overlap check and stays pending.
func (s *DefaultBookingService) UpdateBooking(ctx context.Context, id int, req *UpdateBookingRequest, subId string) (*BookingMutationResponse, apierror.ErrorResponse) {
	caller, apierr := s.caller(subId)
	if apierr != nil {
		return nil, apierr
	}

	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	change, apierr := s.toChange(req.StartDate, req.EndDate, req.Type, nil)
	if apierr != nil {
		return nil, apierr
	}

	return s.update(ctx, id, caller, change, false)
}

// AdminUpdateBooking lets an admin edit any booking, including its status.
func (s *DefaultBookingService) AdminUpdateBooking(ctx context.Context, id int, req *AdminUpdateBookingRequest, subId string) (*BookingMutationResponse, apierror.ErrorResponse) {
	caller, apierr := s.caller(subId)
	if apierr != nil {
		return nil, apierr
	}
	if !s.Policy.CanManageBookings(caller) {
		return nil, apierror.ForbiddenError
	}

	utils.Sanitize(req)
	if valerr := s.Validate.Struct(req); valerr != nil {
		return nil, apierror.FromValidationError(valerr)
	}

	change, apierr := s.toChange(req.StartDate, req.EndDate, req.Type, req.Status)
	if apierr != nil {
		return nil, apierr
	}

	return s.update(ctx, id, caller, change, true)
}

func (s *DefaultBookingService) update(ctx context.Context, id int, caller *entity.User, change scheduling.Change, asAdmin bool) (*BookingMutationResponse, apierror.ErrorResponse) {
	var booking *entity.Booking
	var decision *scheduling.Decision
	var previous string

	apierr := s.withBookingLock(ctx, func() apierror.ErrorResponse {
		var apierr apierror.ErrorResponse
		booking, apierr = s.fetchBooking(ctx, id)
		if apierr != nil {
			return apierr
		}
		if !asAdmin && !s.Policy.CanModify(caller, booking) {
			return apierror.ForbiddenError
		}

		var err error
		decision, err = s.Engine.EvaluateUpdate(ctx, booking, change, caller.ID, asAdmin)
		if err != nil {
			return s.fromEngineError(err)
		}

		previous = booking.Status
		decision.Apply(booking)
		if err := s.BookingRepo.Save(ctx, booking); err != nil {
			log.Errorf("failed to update booking %d: %v", id, err)
			return apierror.InternalServerError
		}
		return nil
	})
	if apierr != nil {
		return nil, apierr
	}
	if decision.ValidatedBy != nil {
		booking.Validator = caller
	}

	if decision.Warning() {
		s.Metrics.OverlapWarnings.Inc()
	}
	if booking.Status != previous {
		s.Metrics.Transitions.WithLabelValues(booking.Status).Inc()
	}
	s.notify(ctx, notify.KindBookingUpdated, booking, decision.Conflicts, caller)

	return s.toMutationResponse(booking, decision), nil
}

func (s *DefaultBookingService) ApproveBooking(ctx context.Context, id int, subId string) (*BookingResponse, apierror.ErrorResponse) {
	return s.review(ctx, id, subId, notify.KindBookingApproved, scheduling.Approve)
}

func (s *DefaultBookingService) RejectBooking(ctx context.Context, id int, subId string) (*BookingResponse, apierror.ErrorResponse) {
	return s.review(ctx, id, subId, notify.KindBookingRejected, scheduling.Reject)
}

func (s *DefaultBookingService) review(ctx context.Context, id int, subId, kind string, apply func(*entity.Booking, int) error) (*BookingResponse, apierror.ErrorResponse) {
	caller, apierr := s.caller(subId)
	if apierr != nil {
		return nil, apierr
	}
	if !s.Policy.CanApprove(caller) {
		return nil, apierror.ForbiddenError
	}

	var booking *entity.Booking
	apierr = s.withBookingLock(ctx, func() apierror.ErrorResponse {
		var apierr apierror.ErrorResponse
		booking, apierr = s.fetchBooking(ctx, id)
		if apierr != nil {
			return apierr
		}
		if err := apply(booking, caller.ID); err != nil {
			return s.fromEngineError(err)
		}
		if err := s.BookingRepo.Save(ctx, booking); err != nil {
			log.Errorf("failed to save reviewed booking %d: %v", id, err)
			return apierror.InternalServerError
		}
		return nil
	})
	if apierr != nil {
		return nil, apierr
	}
	booking.Validator = caller

	s.Metrics.Transitions.WithLabelValues(booking.Status).Inc()
	s.notify(ctx, kind, booking, nil, caller)
	return s.toBookingResponse(booking), nil
}

func (s *DefaultBookingService) CancelBooking(ctx context.Context, id int, subId string) (*BookingResponse, apierror.ErrorResponse) {
	caller, apierr := s.caller(subId)
	if apierr != nil {
		return nil, apierr
	}

	var booking *entity.Booking
	apierr = s.withBookingLock(ctx, func() apierror.ErrorResponse {
		var apierr apierror.ErrorResponse
		booking, apierr = s.fetchBooking(ctx, id)
		if apierr != nil {
			return apierr
		}
		if !s.Policy.CanCancel(caller, booking) {
			return apierror.ForbiddenError
		}
		if err := scheduling.Cancel(booking); err != nil {
			return s.fromEngineError(err)
		}
		if err := s.BookingRepo.Save(ctx, booking); err != nil {
			log.Errorf("failed to cancel booking %d: %v", id, err)
			return apierror.InternalServerError
		}
		return nil
	})
	if apierr != nil {
		return nil, apierr
	}

	s.Metrics.Transitions.WithLabelValues(booking.Status).Inc()
	s.notify(ctx, notify.KindBookingCancelled, booking, nil, caller)
	return s.toBookingResponse(booking), nil
}

func (s *DefaultBookingService) DeleteBooking(ctx context.Context, id int, subId string) apierror.ErrorResponse {
	caller, apierr := s.caller(subId)
	if apierr != nil {
		return apierr
	}
	if !s.Policy.CanManageBookings(caller) {
		return apierror.ForbiddenError
	}

	return s.withBookingLock(ctx, func() apierror.ErrorResponse {
		booking, apierr := s.fetchBooking(ctx, id)
		if apierr != nil {
			return apierr
		}
		if err := s.BookingRepo.Delete(ctx, booking); err != nil {
			log.Errorf("failed to delete booking %d: %v", id, err)
			return apierror.InternalServerError
		}
		return nil
	})
}

// GetCalendar returns the active bookings intersecting month (YYYY-MM).
func (s *DefaultBookingService) GetCalendar(ctx context.Context, month string) (*CalendarResponse, apierror.ErrorResponse) {
	loc := s.Engine.Location()
	monthStart, monthEnd, err := utils.ParseMonth(month, loc)
	if err != nil {
		return nil, apierror.NewSimple(400, "Could not understand month format, expected YYYY-MM")
	}

	bookings, err := s.BookingRepo.FindActiveBetween(ctx, monthStart.UnixMilli(), monthEnd.UnixMilli())
	if err != nil {
		log.Errorf("failed to fetch bookings for month %s: %v", month, err)
		return nil, apierror.InternalServerError
	}

	entries := make([]*CalendarEntry, len(bookings))
	for i, b := range bookings {
		entries[i] = &CalendarEntry{
			ID:         b.ID,
			StartDate:  utils.FormatDate(b.StartsAt, loc),
			EndDate:    utils.FormatDate(b.EndsAt, loc),
			StartDay:   b.StartDay,
			EndDay:     b.EndDay,
			Duration:   b.Duration,
			Gap:        b.Gap,
			Status:     b.Status,
			OwnerName:  b.Owner.Username,
			OwnerColor: b.Owner.Color,
		}
	}
	return &CalendarResponse{Month: month, Bookings: entries}, nil
}

// ExportBookings renders every booking as an xlsx workbook.
func (s *DefaultBookingService) ExportBookings(ctx context.Context, subId string) ([]byte, string, apierror.ErrorResponse) {
	caller, apierr := s.caller(subId)
	if apierr != nil {
		return nil, "", apierr
	}
	if !s.Policy.CanManageBookings(caller) {
		return nil, "", apierror.ForbiddenError
	}

	bookings, err := s.BookingRepo.FindAll(ctx, 0, "")
	if err != nil {
		log.Errorf("failed to find bookings for export: %v", err)
		return nil, "", apierror.InternalServerError
	}

	data, err := export.BookingsXLSX(s.propertyName(), bookings, scheduling.FlagOverlaps(bookings), s.Engine.Location())
	if err != nil {
		log.Errorf("failed to render bookings export: %v", err)
		return nil, "", apierror.InternalServerError
	}
	filename := fmt.Sprintf("bookings-%s.xlsx", time.Now().In(s.Engine.Location()).Format("2006-01-02"))
	return data, filename, nil
}

func (s *DefaultBookingService) caller(subId string) (*entity.User, apierror.ErrorResponse) {
	caller, err := s.UserRepo.FindBySub(subId)
	if err != nil {
		log.Errorf("failed to fetch user %s: %v", subId, err)
		return nil, apierror.InternalServerError
	}
	if caller == nil {
		return nil, apierror.InvalidAuthTokenError
	}
	return caller, nil
}

func (s *DefaultBookingService) fetchBooking(ctx context.Context, id int) (*entity.Booking, apierror.ErrorResponse) {
	booking, err := s.BookingRepo.FindByID(ctx, id)
	if err != nil {
		log.Errorf("failed to fetch booking by id %d: %v", id, err)
		return nil, apierror.InternalServerError
	}
	if booking == nil {
		return nil, apierror.NotFoundError
	}
	return booking, nil
}

// withBookingLock runs fn while holding the calendar lock, so the overlap
// check and the write that depends on it cannot interleave with another
// request's.
func (s *DefaultBookingService) withBookingLock(ctx context.Context, fn func() apierror.ErrorResponse) apierror.ErrorResponse {
	release, err := s.Locker.Acquire(ctx, lock.BookingKey)
	if err != nil {
		log.Errorf("failed to acquire booking lock: %v", err)
		return apierror.InternalServerError
	}
	defer release()
	return fn()
}

func (s *DefaultBookingService) fromEngineError(err error) apierror.ErrorResponse {
	switch {
	case scheduling.IsConflict(err):
		s.Metrics.BookingConflicts.Inc()
		return apierror.NewBookingConflictError(err.Error())
	case scheduling.IsValidation(err):
		return apierror.NewInvalidBookingError(err.Error())
	case scheduling.IsInvalidState(err):
		return apierror.NewInvalidStateError(err.Error())
	}
	log.Errorf("booking evaluation failed: %v", err)
	return apierror.InternalServerError
}

func (s *DefaultBookingService) parseDates(startDate, endDate string) (time.Time, time.Time, apierror.ErrorResponse) {
	loc := s.Engine.Location()
	start, err := time.ParseInLocation(scheduling.DateLayout, startDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, apierror.NewInvalidBookingError("start_date: must be a YYYY-MM-DD date")
	}
	end, err := time.ParseInLocation(scheduling.DateLayout, endDate, loc)
	if err != nil {
		return time.Time{}, time.Time{}, apierror.NewInvalidBookingError("end_date: must be a YYYY-MM-DD date")
	}
	return start, end, nil
}

func (s *DefaultBookingService) toChange(startDate, endDate, kind, status *string) (scheduling.Change, apierror.ErrorResponse) {
	loc := s.Engine.Location()
	change := scheduling.Change{Type: kind, Status: status}
	if startDate != nil {
		start, err := time.ParseInLocation(scheduling.DateLayout, *startDate, loc)
		if err != nil {
			return change, apierror.NewInvalidBookingError("start_date: must be a YYYY-MM-DD date")
		}
		change.Start = &start
	}
	if endDate != nil {
		end, err := time.ParseInLocation(scheduling.DateLayout, *endDate, loc)
		if err != nil {
			return change, apierror.NewInvalidBookingError("end_date: must be a YYYY-MM-DD date")
		}
		change.End = &end
	}
	return change, nil
}

func (s *DefaultBookingService) notify(ctx context.Context, kind string, booking *entity.Booking, overlaps []*entity.Booking, actor *entity.User) {
	ev := notify.Event{
		Kind:     kind,
		Property: s.propertyName(),
		Booking:  booking,
		Overlaps: overlaps,
		Actor:    actor,
	}
	if err := s.Notifier.Notify(ctx, ev); err != nil {
		log.Errorf("failed to send %s notification for booking %d: %v", kind, booking.ID, err)
	}
}

func (s *DefaultBookingService) propertyName() string {
	setting, err := s.SettingRepo.FindByKey(entity.SettingPropertyName)
	if err != nil {
		log.Errorf("failed to read setting %s: %v", entity.SettingPropertyName, err)
	}
	if setting == nil || setting.Value == "" {
		return "villabook"
	}
	return setting.Value
}

func (s *DefaultBookingService) toMutationResponse(booking *entity.Booking, decision *scheduling.Decision) *BookingMutationResponse {
	resp := &BookingMutationResponse{Booking: s.toBookingResponse(booking)}
	if decision.Warning() {
		owners := decision.ConflictingOwners()
		resp.OverlapWarning = true
		resp.ConflictingOwners = owners
		resp.Message = "This booking overlaps with existing bookings from: " + strings.Join(owners, ", ")
	}
	return resp
}

func (s *DefaultBookingService) toBookingResponse(b *entity.Booking) *BookingResponse {
	loc := s.Engine.Location()
	return &BookingResponse{
		ID:          b.ID,
		StartDate:   utils.FormatDate(b.StartsAt, loc),
		EndDate:     utils.FormatDate(b.EndsAt, loc),
		StartsAt:    time.UnixMilli(b.StartsAt).In(loc).Format(time.RFC3339),
		EndsAt:      time.UnixMilli(b.EndsAt).In(loc).Format(time.RFC3339),
		StartDay:    b.StartDay,
		EndDay:      b.EndDay,
		Duration:    b.Duration,
		Gap:         b.Gap,
		Type:        b.Type,
		Status:      b.Status,
		AddedBy:     b.AddedBy,
		OwnerName:   b.Owner.Username,
		OwnerColor:  b.Owner.Color,
		ValidatedBy: b.ValidatedBy,
		CreatedAt:   utils.FormatEpoch(b.CreatedAt),
		UpdatedAt:   utils.FormatEpoch(b.UpdatedAt),
	}
}
