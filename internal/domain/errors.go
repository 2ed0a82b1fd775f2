package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrValidation   = errors.New("validation error")
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrOTPNotFound  = errors.New("OTP not found")
	ErrOTPExpired   = errors.New("OTP expired")
	ErrInvalidOTP   = errors.New("invalid OTP")
	ErrInvalidToken = errors.New("Invalid token")
	ErrInternal     = errors.New("internal error")
)
