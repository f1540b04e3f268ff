// Package validation checks submitted form fields before any mutation. Every
// field is checked independently and all failures are collected.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/martijn/website/internal/core/domain"
)

const (
	MsgRequired        = "This field is required."
	MsgInvalidEmail    = "Invalid email address."
	MsgUsernameLength  = "Username must be between 3 and 20 characters"
	MsgPasswordLength  = "Password must be at least 8 characters long"
	MsgPasswordTooLong = "Password must be at most 72 bytes long"
	MsgPasswordsMatch  = "Passwords must match"
	MsgUsernameTaken   = "Username already taken. Please choose a different one."
	MsgEmailTaken      = "Email already registered. Please use a different email address."
)

// messages maps "field.tag" (or just "tag") to the text shown to the user.
var messages = map[string]string{
	"required":                 MsgRequired,
	"email":                    MsgInvalidEmail,
	"username.min":             MsgUsernameLength,
	"username.max":             MsgUsernameLength,
	"password.min":             MsgPasswordLength,
	"password.maxbytes":        MsgPasswordTooLong,
	"password_confirm.eqfield": MsgPasswordsMatch,
	"email_or_username.min":    "Field must be between 3 and 120 characters long.",
	"email_or_username.max":    "Field must be between 3 and 120 characters long.",
}

// Errors holds the messages for each failed field, keyed by form field name.
type Errors map[string][]string

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e[field], "; ")))
	}
	return strings.Join(parts, ", ")
}

// UserLookup is the part of the credential store the uniqueness rules need.
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

type Validator struct {
	validate *validator.Validate
	users    UserLookup
}

func New(users UserLookup) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	// Panics only on an empty tag name.
	_ = v.RegisterValidation("maxbytes", maxBytes)

	return &Validator{validate: v, users: users}
}

func maxBytes(fl validator.FieldLevel) bool {
	var limit int
	if _, err := fmt.Sscanf(fl.Param(), "%d", &limit); err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// Struct runs the structural rules declared on form. It returns nil when all
// fields pass.
func (v *Validator) Struct(form any) Errors {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}

	errs := Errors{}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add("form", err.Error())
		return errs
	}

	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := messages[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	}
	return "Invalid value."
}

func (v *Validator) Login(form *LoginForm) Errors {
	return v.Struct(form)
}

// Registration checks the structural rules and, for fields that pass them,
// that neither the username nor the lower-cased email is taken. The error is
// non-nil only when the store lookup itself failed.
func (v *Validator) Registration(ctx context.Context, form *RegistrationForm) (Errors, error) {
	errs := v.Struct(form)
	if errs == nil {
		errs = Errors{}
	}

	if !errs.Has("username") {
		taken, err := exists(func() (*domain.User, error) {
			return v.users.FindByUsername(ctx, form.Username)
		})
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("username", MsgUsernameTaken)
		}
	}

	if !errs.Has("email") {
		taken, err := exists(func() (*domain.User, error) {
			return v.users.FindByEmail(ctx, domain.NormalizeEmail(form.Email))
		})
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("email", MsgEmailTaken)
		}
	}

	if len(errs) == 0 {
		return nil, nil
	}
	return errs, nil
}

func exists(find func() (*domain.User, error)) (bool, error) {
	_, err := find()
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (v *Validator) ResetRequest(form *ResetRequestForm) Errors {
	return v.Struct(form)
}

func (v *Validator) ResetPassword(form *ResetPasswordForm) Errors {
	return v.Struct(form)
}

func (v *Validator) Contact(form *ContactForm) Errors {
	return v.Struct(form)
}

// FromConstraint turns a store-level unique violation into the matching
// field error. ok is false for any other error.
func FromConstraint(err error) (Errors, bool) {
	var violation *domain.ConstraintViolation
	if !errors.As(err, &violation) {
		return nil, false
	}

	errs := Errors{}
	switch violation.Field {
	case "username":
		errs.Add("username", MsgUsernameTaken)
	case "email":
		errs.Add("email", MsgEmailTaken)
	default:
		errs.Add(violation.Field, violation.Error())
	}
	return errs, true
}
