package dto

import "github.com/martijn/website/internal/core/validation"

// LoginPage is rendered by GET and failed POST /auth/login
type LoginPage struct {
	Form   validation.LoginForm
	Error  string // generic authentication failure
	Next   string
	Errors validation.Errors
}

// RegisterPage is rendered by GET and failed POST /auth/register
type RegisterPage struct {
	Form   validation.RegistrationForm
	Errors validation.Errors
}

// ResetRequestPage is rendered by /auth/reset_password_request
type ResetRequestPage struct {
	Form   validation.ResetRequestForm
	Errors validation.Errors
}

// ResetPasswordPage is rendered by /auth/reset_password/:token
type ResetPasswordPage struct {
	Token  string
	Errors validation.Errors
}
