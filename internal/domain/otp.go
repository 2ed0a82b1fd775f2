package domain

import "time"

// OTPRecord is the pending one-time code for an email address.
// At most one record exists per email; a new request overwrites it.
type OTPRecord struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether now is past the record's expiry.
func (r *OTPRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Email is an outbound transactional message.
type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}
