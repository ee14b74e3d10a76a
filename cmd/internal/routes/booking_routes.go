package routes

import (
	"context"
	"net/http"
	"strconv"

	"villabook/cmd/internal/service"
	"villabook/cmd/internal/utils"
	"villabook/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type BookingService interface {
	GetBookings(ctx context.Context, subId string) ([]*service.BookingResponse, apierror.ErrorResponse)
	GetBooking(ctx context.Context, id int, subId string) (*service.BookingResponse, apierror.ErrorResponse)
	CreateBooking(ctx context.Context, req *service.CreateBookingRequest, subId string) (*service.BookingMutationResponse, apierror.ErrorResponse)
	UpdateBooking(ctx context.Context, id int, req *service.UpdateBookingRequest, subId string) (*service.BookingMutationResponse, apierror.ErrorResponse)
	CancelBooking(ctx context.Context, id int, subId string) (*service.BookingResponse, apierror.ErrorResponse)
	GetCalendar(ctx context.Context, month string) (*service.CalendarResponse, apierror.ErrorResponse)
}

type DefaultBookingRoute struct {
	BookingService BookingService
}

func NewBookingDefault(bookingService BookingService) *DefaultBookingRoute {
	return &DefaultBookingRoute{BookingService: bookingService}
}

func (b *DefaultBookingRoute) GetBookings(c echo.Context) error {
	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	bookings, apierr := b.BookingService.GetBookings(c.Request().Context(), data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"bookings": bookings}
	return c.JSON(http.StatusOK, &resp)
}

func (b *DefaultBookingRoute) GetBooking(c echo.Context) error {
	id, apierr := parseID(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	booking, apierr := b.BookingService.GetBooking(c.Request().Context(), id, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, booking)
}

func (b *DefaultBookingRoute) CreateBooking(c echo.Context) error {
	var req service.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, apierror.MalformedBodyError)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	booking, apierr := b.BookingService.CreateBooking(c.Request().Context(), &req, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, booking)
}

func (b *DefaultBookingRoute) UpdateBooking(c echo.Context) error {
	id, apierr := parseID(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req service.UpdateBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, apierror.MalformedBodyError)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	booking, apierr := b.BookingService.UpdateBooking(c.Request().Context(), id, &req, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, booking)
}

func (b *DefaultBookingRoute) CancelBooking(c echo.Context) error {
	id, apierr := parseID(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	booking, apierr := b.BookingService.CancelBooking(c.Request().Context(), id, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, booking)
}

func (b *DefaultBookingRoute) GetCalendar(c echo.Context) error {
	month := c.QueryParam("month") // "2025-08"
	if month == "" {
		return c.JSON(400, apierror.NewMissingParamError("month"))
	}

	calendar, apierr := b.BookingService.GetCalendar(c.Request().Context(), month)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, calendar)
}

func parseID(c echo.Context) (int, apierror.ErrorResponse) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, apierror.NewSimple(400, "ID is not a number")
	}
	return id, nil
}
