package inspection

import (
	"errors"
	"fmt"

	"sitecheck-backend/internal/models"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrSaveFailed    = errors.New("failed to save draft, try again")
	ErrSubmitFailed  = errors.New("failed to submit inspection, try again")
	ErrLoadFailed    = errors.New("failed to load draft")
	ErrDayLocked     = errors.New("day has already been submitted")
	ErrUnknownItem   = errors.New("unknown check item")
	ErrNoCheckRecord = errors.New("check item has no status yet")
)

// ValidationError names the field that blocked a save or submit
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func missingField(field string) error {
	return &ValidationError{Field: field, Message: "is required"}
}

// SubmitError reports the day a submission stopped at. Days in Submitted
// were committed before the failure and are not rolled back.
type SubmitError struct {
	Day       models.DayCode
	Submitted []models.DayCode
	Err       error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submitting %s failed after %d day(s): %v", e.Day, len(e.Submitted), e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

func (e *SubmitError) Is(target error) bool {
	return target == ErrSubmitFailed
}
