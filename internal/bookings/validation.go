package bookings

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

// phoneSeparators are stripped before a phone number is matched
var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

var detailsValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("contactemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(normalizePhone(fl.Field().String()))
	})
	return v
}

func normalizePhone(s string) string {
	return phoneSeparators.Replace(strings.TrimSpace(s))
}

// validateDetails runs the field rules and returns messages keyed by JSON field name
func validateDetails(d Details) ValidationResult {
	result := ValidationResult{}
	err := detailsValidator.Struct(d)
	if err == nil {
		return result
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		result["details"] = err.Error()
		return result
	}
	for _, fe := range verrs {
		if _, seen := result[fe.Field()]; seen {
			continue
		}
		result[fe.Field()] = messageFor(fe)
	}
	return result
}

func messageFor(fe validator.FieldError) string {
	switch fe.Field() {
	case "guestCount":
		return "Guest count must be at least 1"
	case "eventType":
		return "Event type is required"
	case "customerName":
		return "Name is required"
	case "customerEmail":
		if fe.Tag() == "required" {
			return "Email is required"
		}
		return "Enter a valid email address"
	case "customerPhone":
		if fe.Tag() == "required" {
			return "Phone number is required"
		}
		return "Enter a valid phone number of at least 10 digits"
	case "eventDate":
		if fe.Tag() == "required" {
			return "Event date is required"
		}
		return "Event date must be in YYYY-MM-DD format"
	case "specialRequests":
		return fmt.Sprintf("Special requests must be at most %s characters", fe.Param())
	}
	return fmt.Sprintf("failed on the %s rule", fe.Tag())
}

// normalize trims user input so whitespace-only values fail "required"
func (d Details) normalize() Details {
	d.EventDate = strings.TrimSpace(d.EventDate)
	d.TimeSlotID = strings.TrimSpace(d.TimeSlotID)
	d.EventType = strings.TrimSpace(d.EventType)
	d.CustomerName = strings.TrimSpace(d.CustomerName)
	d.CustomerEmail = strings.TrimSpace(d.CustomerEmail)
	d.CustomerPhone = strings.TrimSpace(d.CustomerPhone)
	d.SpecialRequests = strings.TrimSpace(d.SpecialRequests)
	return d
}
