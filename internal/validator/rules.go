package validator

import (
	"time"

	"excos_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules adds the domain-specific tags.
func registerCustomRules(v *validator.Validate) error {
	if err := v.RegisterValidation("notfuture", validateNotFuture); err != nil {
		return err
	}
	if err := v.RegisterValidation("complaintstatus", validateComplaintStatus); err != nil {
		return err
	}
	return nil
}

// validateNotFuture rejects timestamps after the end of today. Exam dates
// refer to exams already sat, so tomorrow is never valid.
func validateNotFuture(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	if date.IsZero() {
		return false
	}

	now := time.Now()
	endOfToday := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	return !date.After(endOfToday)
}

// validateComplaintStatus checks the fixed status vocabulary.
func validateComplaintStatus(fl validator.FieldLevel) bool {
	return models.ValidStatuses[models.ComplaintStatus(fl.Field().String())]
}
