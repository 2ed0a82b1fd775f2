package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/studygroup-api/internal/domain"
)

// OTPLedger is a process-local OTP store. All operations hold a single mutex,
// which makes CompareAndRemove an atomic check-and-delete. Records do not
// survive a restart.
type OTPLedger struct {
	mu      sync.Mutex
	records map[string]domain.OTPRecord
	now     func() time.Time
}

// Option configures an OTPLedger.
type Option func(*OTPLedger)

// WithClock injects a custom clock, primarily for testing.
func WithClock(clock func() time.Time) Option {
	return func(l *OTPLedger) {
		if clock != nil {
			l.now = clock
		}
	}
}

func NewOTPLedger(opts ...Option) *OTPLedger {
	l := &OTPLedger{
		records: make(map[string]domain.OTPRecord),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Put stores code for email, replacing any previous record. Expired records
// stay until a verification finds them, so the caller can report the expiry.
func (l *OTPLedger) Put(_ context.Context, email, code string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records[email] = domain.OTPRecord{Email: email, Code: code, ExpiresAt: l.now().Add(ttl)}
	return nil
}

func (l *OTPLedger) Get(_ context.Context, email string) (*domain.OTPRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[email]
	if !ok {
		return nil, fmt.Errorf("no OTP for %s: %w", email, domain.ErrOTPNotFound)
	}
	return &rec, nil
}

func (l *OTPLedger) Remove(_ context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.records, email)
	return nil
}

// CompareAndRemove deletes the record for email only if it still holds code.
func (l *OTPLedger) CompareAndRemove(_ context.Context, email, code string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[email]
	if !ok || rec.Code != code {
		return false, nil
	}
	delete(l.records, email)
	return true, nil
}
