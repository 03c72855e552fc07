package worker

import (
	"time"
)

type Config struct {
	VerificationURL  string
	PasswordResetURL string
	MailFrom         string

	// Sessions idle for longer than SessionTTL are removed every
	// CleanupInterval. A zero interval disables the sweep.
	SessionTTL      time.Duration
	CleanupInterval time.Duration
}
