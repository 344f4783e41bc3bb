// Package forms holds the sign-in, registration and password forms: their
// client-side checks and the redirect each one leads to.
package forms

import (
	"context"
	"errors"
	"strings"

	"github.com/pliu/instamunicipal/internal/auth"
	"github.com/pliu/instamunicipal/internal/models"
)

const (
	// DemoVerificationCode is the placeholder code accepted by the government forms.
	DemoVerificationCode = "123456"
	MinPasswordLength    = 6

	PathHome            = "/"
	PathLogin           = "/login"
	PathGovernmentLogin = "/government/login"
	PathAdminDashboard  = "/admin/dashboard"

	RegistrationPendingMessage = "Registration successful! Please check your email to confirm your account."
	UnexpectedErrorMessage     = "An unexpected error occurred. Please try again."
)

const (
	msgPasswordMismatch   = "Passwords do not match"
	msgPasswordTooShort   = "Password must be at least 6 characters"
	msgGovernmentOnly     = "Only government email addresses are allowed for official accounts"
	msgInvalidCode        = "Invalid verification code"
	msgPublicLoginGov     = "Government emails should use the government login portal."
	msgPublicRegisterGov  = "Government emails must use the government login portal. This registration is for public users only."
	msgInvalidResetLink   = "Invalid or expired password reset link"
	msgPasswordResetReady = "Your password has been reset successfully."
	msgResetLinkSent      = "Please check your inbox and follow the instructions."
)

// ValidationError is a client-side check that failed before any provider call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// Session is the part of the session store the forms submit to.
type Session interface {
	SignIn(ctx context.Context, email, password string) (*models.Identity, error)
	SignUp(ctx context.Context, email, password string, profile models.Profile) (*models.Identity, error)
	ResetPassword(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, token, password string) error
}

// Outcome tells the caller where to go after a successful submission.
type Outcome struct {
	Redirect string           `json:"redirect,omitempty"`
	Message  string           `json:"message,omitempty"`
	Identity *models.Identity `json:"user,omitempty"`
}

// Message returns the text to render for a failed submission.
func Message(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var perr *auth.ProviderError
	if errors.As(err, &perr) {
		return perr.Message
	}
	return UnexpectedErrorMessage
}

type PublicLogin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GovernmentLogin struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	VerificationCode string `json:"verification_code"`
}

type Registration struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FullName        string `json:"full_name"`
	Department      string `json:"department"`
}

type GovernmentRegistration struct {
	Registration
	VerificationCode string `json:"verification_code"`
}

type ForgotPassword struct {
	Email string `json:"email"`
}

type ResetPassword struct {
	Token           string `json:"access_token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func checkPasswords(password, confirm string) error {
	if password != confirm {
		return invalid(msgPasswordMismatch)
	}
	if len(password) < MinPasswordLength {
		return invalid(msgPasswordTooShort)
	}
	return nil
}

func checkGovernment(email, code string) error {
	if !models.IsGovernmentEmail(email) {
		return invalid(msgGovernmentOnly)
	}
	if code != DemoVerificationCode {
		return invalid(msgInvalidCode)
	}
	return nil
}

func (f PublicLogin) Validate() error {
	if models.IsGovernmentEmail(f.Email) {
		return invalid(msgPublicLoginGov)
	}
	return nil
}

func (f GovernmentLogin) Validate() error {
	return checkGovernment(f.Email, f.VerificationCode)
}

func (f Registration) Validate() error {
	if err := checkPasswords(f.Password, f.ConfirmPassword); err != nil {
		return err
	}
	if models.IsGovernmentEmail(f.Email) {
		return invalid(msgPublicRegisterGov)
	}
	return nil
}

func (f GovernmentRegistration) Validate() error {
	if err := checkPasswords(f.Password, f.ConfirmPassword); err != nil {
		return err
	}
	return checkGovernment(f.Email, f.VerificationCode)
}

func (f ResetPassword) Validate() error {
	if strings.TrimSpace(f.Token) == "" {
		return invalid(msgInvalidResetLink)
	}
	return checkPasswords(f.Password, f.ConfirmPassword)
}

func SubmitPublicLogin(ctx context.Context, s Session, f PublicLogin) (*Outcome, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	id, err := s.SignIn(ctx, f.Email, f.Password)
	if err != nil {
		return nil, err
	}
	return &Outcome{Redirect: PathHome, Identity: id}, nil
}

func SubmitGovernmentLogin(ctx context.Context, s Session, f GovernmentLogin) (*Outcome, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	id, err := s.SignIn(ctx, f.Email, f.Password)
	if err != nil {
		return nil, err
	}
	return &Outcome{Redirect: PathAdminDashboard, Identity: id}, nil
}

func SubmitRegistration(ctx context.Context, s Session, f Registration) (*Outcome, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.SignUp(ctx, f.Email, f.Password, models.Profile{
		FullName:     f.FullName,
		Department:   f.Department,
		IsGovernment: false,
	}); err != nil {
		return nil, err
	}
	return &Outcome{Redirect: PathLogin, Message: RegistrationPendingMessage}, nil
}

func SubmitGovernmentRegistration(ctx context.Context, s Session, f GovernmentRegistration) (*Outcome, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.SignUp(ctx, f.Email, f.Password, models.Profile{
		FullName:     f.FullName,
		Department:   f.Department,
		IsGovernment: true,
	}); err != nil {
		return nil, err
	}
	return &Outcome{Redirect: PathGovernmentLogin, Message: RegistrationPendingMessage}, nil
}

func SubmitForgotPassword(ctx context.Context, s Session, f ForgotPassword) (*Outcome, error) {
	if err := s.ResetPassword(ctx, f.Email); err != nil {
		return nil, err
	}
	return &Outcome{Message: msgResetLinkSent}, nil
}

func SubmitResetPassword(ctx context.Context, s Session, f ResetPassword) (*Outcome, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := s.UpdatePassword(ctx, f.Token, f.Password); err != nil {
		return nil, err
	}
	return &Outcome{Redirect: PathLogin, Message: msgPasswordResetReady}, nil
}
