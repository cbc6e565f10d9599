package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xavierca1/visa-crm/internal/entity"
)

const (
	minPasswordLength = 8
	maxPasswordBytes  = 72
)

var nonDigits = regexp.MustCompile(`\D`)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateCreateLeadInput(input CreateLeadInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.FullName) == "" {
		errors = append(errors, ValidationError{"full_name", "is required"})
	} else if tooLong(input.FullName, 255) {
		errors = append(errors, ValidationError{"full_name", "must not exceed 255 characters"})
	}

	if strings.TrimSpace(input.Email) == "" {
		errors = append(errors, ValidationError{"email", "is required"})
	} else if !isValidEmail(input.Email) {
		errors = append(errors, ValidationError{"email", "is invalid"})
	} else if tooLong(input.Email, 255) {
		errors = append(errors, ValidationError{"email", "must not exceed 255 characters"})
	}

	errors = append(errors, validatePhone(input.Phone)...)

	if tooLong(input.Company, 255) {
		errors = append(errors, ValidationError{"company", "must not exceed 255 characters"})
	}
	if tooLong(input.Source, 255) {
		errors = append(errors, ValidationError{"source", "must not exceed 255 characters"})
	}

	return errors
}

func ValidateCompleteOnboardingInput(input CompleteOnboardingInput) []ValidationError {
	var errors []ValidationError

	if input.Password == "" {
		errors = append(errors, ValidationError{"password", "is required"})
	} else {
		if utf8.RuneCountInString(input.Password) < minPasswordLength {
			errors = append(errors, ValidationError{"password", fmt.Sprintf("must be at least %d characters", minPasswordLength)})
		}
		// bcrypt refuses anything longer.
		if len(input.Password) > maxPasswordBytes {
			errors = append(errors, ValidationError{"password", fmt.Sprintf("must not exceed %d bytes", maxPasswordBytes)})
		}
		if input.Password != input.PasswordConfirmation {
			errors = append(errors, ValidationError{"password", "confirmation does not match"})
		}
	}

	errors = append(errors, validatePhone(input.Phone)...)

	if tooLong(input.Company, 255) {
		errors = append(errors, ValidationError{"company", "must not exceed 255 characters"})
	}

	return errors
}

func ValidateLeadFilter(filter entity.LeadFilter) []ValidationError {
	var errors []ValidationError
	if filter.Status != "" && !filter.Status.IsValid() {
		errors = append(errors, ValidationError{"status", "must be one of NEW, UNDER_REVIEW, APPROVED, REJECTED, CONVERTED"})
	}
	return errors
}

// validatePhone accepts an empty phone. Otherwise it must fit in 20
// characters and carry 7 to 15 digits.
func validatePhone(phone string) []ValidationError {
	if strings.TrimSpace(phone) == "" {
		return nil
	}
	if tooLong(phone, 20) {
		return []ValidationError{{"phone", "must not exceed 20 characters"}}
	}
	if !isValidPhoneNumber(phone) {
		return []ValidationError{{"phone", "must be a valid phone number"}}
	}
	return nil
}

func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// ParseAddress accepts "Name <a@b>"; only a bare address is allowed here.
	return addr.Address == strings.TrimSpace(email)
}

func isValidPhoneNumber(phone string) bool {
	cleaned := nonDigits.ReplaceAllString(phone, "")
	return len(cleaned) >= 7 && len(cleaned) <= 15
}

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
