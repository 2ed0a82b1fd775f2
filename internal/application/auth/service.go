package auth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/studygroup-api/internal/domain"
	"github.com/studygroup-api/internal/pkg/logger"
	"github.com/studygroup-api/internal/pkg/metrics"
	"go.uber.org/zap"
)

// DefaultOTPTTL is how long an emailed code stays valid.
const DefaultOTPTTL = 5 * time.Minute

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token string
	UID   string
}

type RequestOTPRequest struct {
	Email string `json:"email" validate:"required"`
}

type VerifyOTPRequest struct {
	Email    string `json:"email" validate:"required"`
	OTP      string `json:"otp" validate:"required"`
	Password string `json:"password"`
}

type VerifyOTPResult struct {
	Token      string
	UID        string
	UserExists bool
}

// Service is the auth flow controller behind the HTTP handlers.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	RequestOTP(ctx context.Context, req RequestOTPRequest) error
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*VerifyOTPResult, error)
	VerifyToken(ctx context.Context, token string) (string, error)
}

// OTPLedger stores at most one pending code per email.
type OTPLedger interface {
	Put(ctx context.Context, email, code string, ttl time.Duration) error
	// Get returns an error wrapping domain.ErrOTPNotFound when no record exists.
	Get(ctx context.Context, email string) (*domain.OTPRecord, error)
	Remove(ctx context.Context, email string) error
	// CompareAndRemove atomically deletes the record if it still holds code.
	CompareAndRemove(ctx context.Context, email, code string) (bool, error)
}

// CredentialStore is the identity provider (Firebase Auth or the local store).
type CredentialStore interface {
	// GetUserByEmail returns an error wrapping domain.ErrUserNotFound for unknown emails.
	GetUserByEmail(ctx context.Context, email string) (*domain.Identity, error)
	CreateUser(ctx context.Context, email, password string) (*domain.Identity, error)
	CustomToken(ctx context.Context, uid string) (string, error)
	VerifyIDToken(ctx context.Context, idToken string) (string, error)
}

type Mailer interface {
	SendEmail(ctx context.Context, msg domain.Email) error
}

type CodeGenerator interface {
	Generate(account string, now time.Time) (string, error)
}

// ServiceDeps groups the collaborators of the auth service.
type ServiceDeps struct {
	Ledger      OTPLedger
	Credentials CredentialStore
	Mailer      Mailer
	Codes       CodeGenerator
	OTPTTL      time.Duration
	Now         func() time.Time
}

type service struct {
	ledger      OTPLedger
	credentials CredentialStore
	mailer      Mailer
	codes       CodeGenerator
	ttl         time.Duration
	now         func() time.Time
	log         *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		ledger:      deps.Ledger,
		credentials: deps.Credentials,
		mailer:      deps.Mailer,
		codes:       deps.Codes,
		ttl:         deps.OTPTTL,
		now:         deps.Now,
		log:         logger.WithModule("auth"),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultOTPTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Login mints a custom token for an existing user. The password is required
// but not checked against the credential store.
// TODO: verify the password once product confirms login must not bypass it.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	u, err := s.credentials.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.Logins.WithLabelValues("not_found").Inc()
			return nil, fmt.Errorf("%w: no account for %s", domain.ErrUserNotFound, email)
		}
		metrics.Logins.WithLabelValues("error").Inc()
		return nil, internal(err)
	}

	token, err := s.credentials.CustomToken(ctx, u.UID)
	if err != nil {
		metrics.Logins.WithLabelValues("error").Inc()
		return nil, internal(err)
	}
	metrics.Logins.WithLabelValues("success").Inc()
	return &LoginResult{Token: token, UID: u.UID}, nil
}

// RequestOTP issues a new code for the email, replacing any pending one, and
// emails it.
func (s *service) RequestOTP(ctx context.Context, req RequestOTPRequest) error {
	email := normalizeEmail(req.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	code, err := s.codes.Generate(email, s.now())
	if err != nil {
		return internal(err)
	}
	if err := s.ledger.Put(ctx, email, code, s.ttl); err != nil {
		return internal(err)
	}
	if err := s.mailer.SendEmail(ctx, otpEmail(email, code, s.ttl)); err != nil {
		s.log.Error("failed to send OTP email", zap.String("email", email), zap.Error(err))
		return internal(err)
	}

	metrics.OTPsIssued.Inc()
	s.log.Info("OTP issued", zap.String("email", email))
	return nil
}

// VerifyOTP consumes the pending code and signs the user in, creating the
// account on first use when a password is supplied.
func (s *service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*VerifyOTPResult, error) {
	email := normalizeEmail(req.Email)
	code := strings.TrimSpace(req.OTP)
	if email == "" || code == "" {
		return nil, fmt.Errorf("%w: email and OTP are required", domain.ErrValidation)
	}

	rec, err := s.ledger.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrOTPNotFound) {
			metrics.OTPVerifications.WithLabelValues("not_found").Inc()
			return nil, fmt.Errorf("%w: request a new code", domain.ErrOTPNotFound)
		}
		metrics.OTPVerifications.WithLabelValues("error").Inc()
		return nil, internal(err)
	}

	if rec.Expired(s.now()) {
		// Compare on the stale code so a fresh request issued meanwhile survives.
		if _, err := s.ledger.CompareAndRemove(ctx, email, rec.Code); err != nil {
			s.log.Warn("failed to remove expired OTP", zap.String("email", email), zap.Error(err))
		}
		metrics.OTPVerifications.WithLabelValues("expired").Inc()
		return nil, fmt.Errorf("%w: request a new code", domain.ErrOTPExpired)
	}

	// A mismatch keeps the record so the user can retry until expiry.
	if rec.Code != code {
		metrics.OTPVerifications.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidOTP
	}

	consumed, err := s.ledger.CompareAndRemove(ctx, email, code)
	if err != nil {
		metrics.OTPVerifications.WithLabelValues("error").Inc()
		return nil, internal(err)
	}
	if !consumed {
		// Another request consumed or replaced the code between Get and here.
		metrics.OTPVerifications.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: request a new code", domain.ErrOTPNotFound)
	}

	res, err := s.signIn(ctx, email, req.Password)
	if err != nil {
		result := "error"
		if errors.Is(err, domain.ErrValidation) {
			result = "invalid_request"
		}
		metrics.OTPVerifications.WithLabelValues(result).Inc()
		return nil, err
	}
	metrics.OTPVerifications.WithLabelValues("success").Inc()
	return res, nil
}

func (s *service) signIn(ctx context.Context, email, password string) (*VerifyOTPResult, error) {
	exists := true
	u, err := s.credentials.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, internal(err)
		}
		if password == "" {
			return nil, fmt.Errorf("%w: password is required for new users", domain.ErrValidation)
		}
		u, err = s.credentials.CreateUser(ctx, email, password)
		switch {
		case errors.Is(err, domain.ErrUserExists):
			// A concurrent sign-up for the same email won; sign in to that account.
			u, err = s.credentials.GetUserByEmail(ctx, email)
			if err != nil {
				return nil, internal(err)
			}
		case err != nil:
			return nil, internal(err)
		default:
			exists = false
			s.log.Info("user created", zap.String("uid", u.UID))
		}
	}

	token, err := s.credentials.CustomToken(ctx, u.UID)
	if err != nil {
		return nil, internal(err)
	}
	return &VerifyOTPResult{Token: token, UID: u.UID, UserExists: exists}, nil
}

// VerifyToken checks a Firebase ID token. Every failure, whatever its cause,
// is reported as domain.ErrInvalidToken.
func (s *service) VerifyToken(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		metrics.TokenVerifications.WithLabelValues("failure").Inc()
		return "", domain.ErrInvalidToken
	}
	uid, err := s.credentials.VerifyIDToken(ctx, token)
	if err != nil || uid == "" {
		s.log.Debug("token verification failed", zap.Error(err))
		metrics.TokenVerifications.WithLabelValues("failure").Inc()
		return "", domain.ErrInvalidToken
	}
	metrics.TokenVerifications.WithLabelValues("success").Inc()
	return uid, nil
}

func internal(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrInternal, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func otpEmail(to, code string, ttl time.Duration) domain.Email {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return domain.Email{
		To:      to,
		Subject: "Your OTP Code",
		Text:    fmt.Sprintf("Your OTP code is: %s\nThis code will expire in %d minutes.", code, minutes),
		HTML: fmt.Sprintf(
			"<p>Your OTP code is: <strong>%s</strong></p><p>This code will expire in %d minutes.</p>",
			html.EscapeString(code), minutes,
		),
	}
}
