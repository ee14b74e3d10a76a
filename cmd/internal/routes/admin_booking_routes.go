package routes

import (
	"context"
	"net/http"
	"strconv"

	"villabook/cmd/internal/domain/entity"
	"villabook/cmd/internal/service"
	"villabook/cmd/internal/utils"
	"villabook/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type AdminBookingService interface {
	AdminGetBookings(ctx context.Context, subId string, userID int, status string) ([]*service.BookingResponse, apierror.ErrorResponse)
	AdminUpdateBooking(ctx context.Context, id int, req *service.AdminUpdateBookingRequest, subId string) (*service.BookingMutationResponse, apierror.ErrorResponse)
	ApproveBooking(ctx context.Context, id int, subId string) (*service.BookingResponse, apierror.ErrorResponse)
	RejectBooking(ctx context.Context, id int, subId string) (*service.BookingResponse, apierror.ErrorResponse)
	DeleteBooking(ctx context.Context, id int, subId string) apierror.ErrorResponse
	ExportBookings(ctx context.Context, subId string) ([]byte, string, apierror.ErrorResponse)
}

type DefaultAdminBookingRoute struct {
	BookingService AdminBookingService
}

func NewAdminBookingDefault(bookingService AdminBookingService) *DefaultAdminBookingRoute {
	return &DefaultAdminBookingRoute{BookingService: bookingService}
}

func (a *DefaultAdminBookingRoute) GetBookings(c echo.Context) error {
	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	userID := 0
	if raw := c.QueryParam("user_id"); raw != "" {
		userID, err = strconv.Atoi(raw)
		if err != nil {
			return c.JSON(400, apierror.NewInvalidParamTypeError("user_id", "int32"))
		}
	}

	status := c.QueryParam("status")
	if status != "" && !isBookingStatus(status) {
		apierr := apierror.NewSimple(400, "Unknown booking status")
		return c.JSON(apierr.Code(), apierr)
	}

	bookings, apierr := a.BookingService.AdminGetBookings(c.Request().Context(), data.Sub, userID, status)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"bookings": bookings}
	return c.JSON(http.StatusOK, &resp)
}

func (a *DefaultAdminBookingRoute) UpdateBooking(c echo.Context) error {
	id, apierr := parseID(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req service.AdminUpdateBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, apierror.MalformedBodyError)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	booking, apierr := a.BookingService.AdminUpdateBooking(c.Request().Context(), id, &req, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, booking)
}

func (a *DefaultAdminBookingRoute) ApproveBooking(c echo.Context) error {
	return a.review(c, a.BookingService.ApproveBooking)
}

func (a *DefaultAdminBookingRoute) RejectBooking(c echo.Context) error {
	return a.review(c, a.BookingService.RejectBooking)
}

func (a *DefaultAdminBookingRoute) review(c echo.Context, fn func(context.Context, int, string) (*service.BookingResponse, apierror.ErrorResponse)) error {
	id, apierr := parseID(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	booking, apierr := fn(c.Request().Context(), id, data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, booking)
}

func (a *DefaultAdminBookingRoute) DeleteBooking(c echo.Context) error {
	id, apierr := parseID(c)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	serr := a.BookingService.DeleteBooking(c.Request().Context(), id, data.Sub)
	if serr != nil {
		return c.JSON(serr.Code(), serr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *DefaultAdminBookingRoute) ExportBookings(c echo.Context) error {
	data, err := utils.ParseTokenDataCtx(c)
	if err != nil {
		return c.JSON(401, apierror.InvalidAuthTokenError)
	}

	file, filename, apierr := a.BookingService.ExportBookings(c.Request().Context(), data.Sub)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", file)
}

func isBookingStatus(s string) bool {
	switch s {
	case entity.StatusPending, entity.StatusApproved, entity.StatusCancelled:
		return true
	}
	return false
}
