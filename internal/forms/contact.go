package forms

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	NameMinLength    = 3
	NameMaxLength    = 255
	EmailMinLength   = 6
	EmailMaxLength   = 255
	MessageMinLength = 4
)

// ContactForm is the contact page submission.
type ContactForm struct {
	Name    string `form:"name" validate:"required,min=3,max=255"`
	Email   string `form:"email" validate:"required,email,min=6,max=255"`
	Message string `form:"message"`
}

// ContactValidator checks contact forms against the configured message limit.
type ContactValidator struct {
	validate         *validator.Validate
	messageMaxLength int
}

func NewContactValidator(messageMaxLength int) *ContactValidator {
	return &ContactValidator{
		validate:         validator.New(),
		messageMaxLength: messageMaxLength,
	}
}

// MessageMaxLength is the longest message the form accepts
func (v *ContactValidator) MessageMaxLength() int {
	return v.messageMaxLength
}

// Validate returns a user-facing error per invalid field, keyed by form
// field name. An empty map means the form is valid.
func (v *ContactValidator) Validate(form *ContactForm) map[string]string {
	errs := make(map[string]string)

	if err := v.validate.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			errs["form"] = "The form could not be checked."
			return errs
		}
		for _, fe := range fieldErrs {
			switch fe.Field() {
			case "Name":
				errs["name"] = fmt.Sprintf("Name must be between %d and %d characters.", NameMinLength, NameMaxLength)
			case "Email":
				if fe.Tag() == "email" {
					errs["email"] = "Not a valid email address."
				} else {
					errs["email"] = fmt.Sprintf("Email must be between %d and %d characters.", EmailMinLength, EmailMaxLength)
				}
			}
		}
	}

	rule := fmt.Sprintf("required,min=%d,max=%d", MessageMinLength, v.messageMaxLength)
	if err := v.validate.Var(form.Message, rule); err != nil {
		errs["message"] = fmt.Sprintf("Message must be between %d and %d characters.", MessageMinLength, v.messageMaxLength)
	}

	return errs
}
