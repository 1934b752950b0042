package report

import (
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/victornm/grammarquiz/internal/errors"
)

// Student is the contact the report is addressed to.
type Student struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,phone"`
}

var phonePattern = regexp.MustCompile(`^[\d\+\-\s\(\)]{10,20}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// Normalize trims surrounding whitespace from every field.
func (s Student) Normalize() Student {
	return Student{
		Name:  strings.TrimSpace(s.Name),
		Email: strings.TrimSpace(s.Email),
		Phone: strings.TrimSpace(s.Phone),
	}
}

// Validate rejects a contact with a missing name, a malformed email or phone.
func (s Student) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Internal(err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}

	return errors.New(errors.CodeInvalidArgument,
		errors.WithMessagef("invalid student contact: %s", strings.Join(fields, ", ")),
		errors.WithCause(err),
	)
}
