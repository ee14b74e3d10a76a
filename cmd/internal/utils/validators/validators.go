package validators

import (
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"villabook/cmd/internal/domain/entity"

	"github.com/go-playground/validator/v10"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Register installs every custom tag used by request structs.
func Register(validate *validator.Validate) {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("hasupper", HasUpper)
	_ = validate.RegisterValidation("haslower", HasLower)
	_ = validate.RegisterValidation("hasdigit", HasDigit)
	_ = validate.RegisterValidation("hasspecial", HasSpecial)
	_ = validate.RegisterValidation("nospaces", NoWhiteSpaces)
	_ = validate.RegisterValidation("isodate", IsIsoDate)
	_ = validate.RegisterValidation("bookingtype", IsBookingType)
	_ = validate.RegisterValidation("bookingstatus", IsBookingStatus)
	_ = validate.RegisterValidation("color", IsColor)
}

func HasUpper(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsUpper) >= 0
}

func HasLower(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsLower) >= 0
}

func HasDigit(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsDigit) >= 0
}

func HasSpecial(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}) >= 0
}

func NoWhiteSpaces(fl validator.FieldLevel) bool {
	return strings.IndexFunc(fl.Field().String(), unicode.IsSpace) < 0
}

// IsIsoDate accepts a calendar date as YYYY-MM-DD. Empty values are left to
// `required` / `omitempty`.
func IsIsoDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func IsBookingType(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || s == entity.TypeBooking
}

func IsBookingStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", entity.StatusPending, entity.StatusApproved, entity.StatusCancelled:
		return true
	}
	return false
}

func IsColor(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || colorPattern.MatchString(s)
}
