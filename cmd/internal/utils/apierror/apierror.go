package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is what services hand back to routes. It is serialized
// as-is in the response body, with Code() as the HTTP status.
type ErrorResponse interface {
	error
	Code() int
}

type APIError struct {
	Status  int               `json:"status"`
	Kind    string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Code() int {
	return e.Status
}

func New(status int, kind, message string) *APIError {
	return &APIError{Status: status, Kind: kind, Message: message}
}

func NewSimple(status int, message string) *APIError {
	return New(status, strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_")), message)
}

func NewMissingParamError(param string) *APIError {
	return New(http.StatusBadRequest, "missing_param", fmt.Sprintf("Missing required parameter %q", param))
}

func NewInvalidParamTypeError(param, expected string) *APIError {
	return New(http.StatusBadRequest, "invalid_param", fmt.Sprintf("Parameter %q must be of type %s", param, expected))
}

// FromValidationError turns validator failures into a 400 with one detail
// entry per offending field.
func FromValidationError(err error) *APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return New(http.StatusBadRequest, "validation_failed", err.Error())
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[jsonName(fe.Field())] = describe(fe)
	}
	return &APIError{
		Status:  http.StatusBadRequest,
		Kind:    "validation_failed",
		Message: "Request validation failed",
		Details: details,
	}
}

func jsonName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	case "isodate":
		return "must be a YYYY-MM-DD date"
	case "bookingtype":
		return "is not an allowed booking type"
	case "bookingstatus":
		return "must be one of pending, approved, cancelled"
	case "color":
		return "must be a #rrggbb color"
	case "hasupper":
		return "must contain an uppercase letter"
	case "haslower":
		return "must contain a lowercase letter"
	case "hasdigit":
		return "must contain a digit"
	case "hasspecial":
		return "must contain a special character"
	case "nospaces":
		return "must not contain spaces"
	}
	return "failed on " + fe.Tag()
}

var (
	InternalServerError   = New(http.StatusInternalServerError, "internal_error", "Something went wrong")
	MalformedBodyError    = New(http.StatusBadRequest, "malformed_body", "Could not understand request body")
	NotFoundError         = New(http.StatusNotFound, "not_found", "Resource not found")
	InvalidAuthTokenError = New(http.StatusUnauthorized, "invalid_token", "Missing or invalid authentication token")
	ForbiddenError        = New(http.StatusForbidden, "forbidden", "You are not allowed to perform this action")
	UserNotValidatedError = New(http.StatusForbidden, "user_not_validated", "Your account has not been validated by an administrator yet")
	SelfDemotionError     = New(http.StatusUnprocessableEntity, "self_demotion", "Super admins cannot change their own role")

	UserAlreadyExistsError    = New(http.StatusConflict, "user_exists", "A user with this email already exists")
	UserAlreadyConfirmedError = New(http.StatusConflict, "user_confirmed", "User is already confirmed")

	IDPInvalidPasswordError     = New(http.StatusBadRequest, "idp_invalid_password", "Password does not satisfy the identity provider policy")
	IDPExistingEmailError       = New(http.StatusConflict, "idp_existing_email", "Email already registered with the identity provider")
	IDPUserNotFoundError        = New(http.StatusNotFound, "idp_user_not_found", "User not found")
	IDPUserNotConfirmedError    = New(http.StatusForbidden, "idp_user_not_confirmed", "User has not confirmed their email yet")
	IDPCredentialsMismatchError = New(http.StatusUnauthorized, "idp_credentials_mismatch", "Email or password is incorrect")
	IDPConfirmCodeMismatchError = New(http.StatusBadRequest, "idp_code_mismatch", "Confirmation code is incorrect")
	IDPConfirmCodeExpiredError  = New(http.StatusBadRequest, "idp_code_expired", "Confirmation code has expired")
)

// Booking engine outcomes.
func NewInvalidBookingError(message string) *APIError {
	return New(http.StatusUnprocessableEntity, "invalid_booking", message)
}

func NewBookingConflictError(message string) *APIError {
	return New(http.StatusUnprocessableEntity, "booking_conflict", message)
}

func NewInvalidStateError(message string) *APIError {
	return New(http.StatusUnprocessableEntity, "invalid_state", message)
}
