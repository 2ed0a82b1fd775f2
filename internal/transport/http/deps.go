package http

import (
	"time"

	"github.com/studygroup-api/internal/application/auth"
)

// Deps holds the collaborators the router wires into the auth service.
type Deps struct {
	Ledger      auth.OTPLedger
	Credentials auth.CredentialStore
	Mailer      auth.Mailer
	Codes       auth.CodeGenerator
	// Now overrides the service clock; nil means time.Now.
	Now func() time.Time
}
