package forms

import (
	"fmt"
	"strings"
	"time"
)

// Validator checks one field in the context of its form.
type Validator func(form *Form, field FieldValue) error

// StopValidation ends a field's validator chain. With an empty message the
// chain stops silently (the Optional case); with a message the error is
// recorded first.
type StopValidation struct {
	Message string
}

func (e *StopValidation) Error() string { return e.Message }

type validationError struct {
	message string
}

func (e *validationError) Error() string { return e.message }

// Required fails with a chain-stopping error when the field is empty.
func Required(message string) Validator {
	return func(form *Form, field FieldValue) error {
		if field.Empty() {
			if message == "" {
				message = "This field is required"
			}
			return &StopValidation{Message: message}
		}
		return nil
	}
}

// Optional stops the chain silently when the field is empty.
func Optional() Validator {
	return func(form *Form, field FieldValue) error {
		if field.Empty() {
			return &StopValidation{}
		}
		return nil
	}
}

// RequiredForReview enforces the field only when the form is being sent to
// review. Outside review the field is left alone unless elseOptional is set,
// in which case an empty field stops the chain the way Optional does.
// Because of that short-circuit, a validator configured with elseOptional
// must be the last entry in its chain.
func RequiredForReview(message string, elseOptional bool) Validator {
	return func(form *Form, field FieldValue) error {
		if form.SendingToReview {
			return Required(message)(form, field)
		}
		if elseOptional {
			return Optional()(form, field)
		}
		return nil
	}
}

// MaxLength bounds the submitted value's length.
func MaxLength(max int) Validator {
	return func(form *Form, field FieldValue) error {
		if len(field.String()) > max {
			return &validationError{message: fmt.Sprintf("Field cannot be longer than %d characters", max)}
		}
		return nil
	}
}

// AnyOf fails unless at least one of the given boolean fields is set. Used
// for the "area covered" and "type of data" groups.
func AnyOf(message string, group ...*BoolField) Validator {
	return func(form *Form, field FieldValue) error {
		for _, f := range group {
			if f.Data {
				return nil
			}
		}
		if message == "" {
			message = "Select at least one"
		}
		return &validationError{message: message}
	}
}

// ISODate fails when a non-empty value is not a YYYY-MM-DD date.
func ISODate() Validator {
	return func(form *Form, field FieldValue) error {
		if field.Empty() {
			return nil
		}
		if _, err := time.Parse(dateFormat, field.String()); err != nil {
			return &validationError{message: "Enter a date in the format YYYY-MM-DD"}
		}
		return nil
	}
}

// OtherRequired fails when the radio group's selected choice is labeled
// "other" (case-insensitive) but the paired free-text field is empty.
func OtherRequired(radio *RadioField, other *StringField) Validator {
	return func(form *Form, field FieldValue) error {
		if radio.Data == "" {
			return nil
		}
		if strings.ToLower(radio.SelectedLabel()) != "other" {
			return nil
		}
		if other.Data == "" {
			return &validationError{message: "Other selected but no value has been entered"}
		}
		return nil
	}
}
