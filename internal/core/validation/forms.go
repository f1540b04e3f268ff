package validation

import "strings"

// Form inputs bound from request bodies. The form tag doubles as the field
// key in Errors.

type LoginForm struct {
	EmailOrUsername string `form:"email_or_username" validate:"required,min=3,max=120"`
	Password        string `form:"password" validate:"required"`
	RememberMe      string `form:"remember_me"`
}

// Remember reports whether the "remember me" box was ticked. Browsers send
// the checkbox value ("on" by default) only when it is checked.
func (f LoginForm) Remember() bool {
	switch strings.ToLower(strings.TrimSpace(f.RememberMe)) {
	case "", "false", "0", "off", "n", "no":
		return false
	}
	return true
}

type RegistrationForm struct {
	Username        string `form:"username" validate:"required,min=3,max=20"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=8,maxbytes=72"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
}

type ResetRequestForm struct {
	Email string `form:"email" validate:"required,email"`
}

type ResetPasswordForm struct {
	Password        string `form:"password" validate:"required,min=8,maxbytes=72"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
}

type ContactForm struct {
	Name    string `form:"name" validate:"required"`
	Email   string `form:"email" validate:"required"`
	Subject string `form:"subject" validate:"required"`
	Message string `form:"message" validate:"required"`
}
