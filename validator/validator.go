package validator

import (
	"fmt"
	"regexp"
	"strings"

	"dormitory/constants"
	"dormitory/errors"
	"dormitory/models"

	"github.com/fiam/gounidecode/unidecode"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var roomNumberPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{0,15}$`)

// ValidateStruct runs the `validate` tags of s.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.BadRequest(errors.ErrCodeInvalidInput,
				fmt.Sprintf("Field %s failed the %s rule", fe.Field(), fe.Tag()))
		}
		return errors.BadRequest(errors.ErrCodeInvalidInput, err.Error())
	}
	return nil
}

func ValidateBookingStatus(status string) error {
	if err := validate.Var(status, "required,oneof="+strings.Join(constants.BookingStatuses, " ")); err != nil {
		return errors.BadRequest(errors.ErrCodeInvalidStatus,
			fmt.Sprintf("Invalid booking status %q, expected one of %s", status, strings.Join(constants.BookingStatuses, ", ")))
	}
	return nil
}

func ValidatePaymentStatus(status string) error {
	if err := validate.Var(status, "required,oneof="+strings.Join(constants.PaymentStatuses, " ")); err != nil {
		return errors.BadRequest(errors.ErrCodeInvalidPaymentStatus,
			fmt.Sprintf("Invalid payment status %q, expected one of %s", status, strings.Join(constants.PaymentStatuses, ", ")))
	}
	return nil
}

// NormalizeRoomNumber transliterates, trims and upper-cases a room number so
// "  a101 " and "A101" address the same room.
func NormalizeRoomNumber(raw string) (string, error) {
	number := strings.ToUpper(strings.TrimSpace(unidecode.Unidecode(raw)))
	if number == "" {
		return "", errors.BadRequest(errors.ErrCodeInvalidInput, "Room number is required")
	}
	if !roomNumberPattern.MatchString(number) {
		return "", errors.BadRequest(errors.ErrCodeInvalidInput, fmt.Sprintf("Invalid room number %q", raw))
	}
	return number, nil
}

// ValidateRoomType accepts an empty type as "any".
func ValidateRoomType(roomType string) error {
	if roomType == "" {
		return nil
	}
	if _, ok := constants.RoomTypeCapacity[roomType]; !ok {
		return errors.BadRequest(errors.ErrCodeInvalidInput, fmt.Sprintf("Unknown room type %q", roomType))
	}
	return nil
}

// ValidateAcademicPeriod checks a "2025-2026" year and an optional semester.
func ValidateAcademicPeriod(academicYear, semester string) error {
	if _, _, err := models.ParseAcademicYear(academicYear); err != nil {
		return errors.BadRequest(errors.ErrCodeInvalidInput, err.Error())
	}
	if semester != "" && semester != constants.SemesterFirst && semester != constants.SemesterSecond {
		return errors.BadRequest(errors.ErrCodeInvalidInput, fmt.Sprintf("Invalid semester %q", semester))
	}
	return nil
}
