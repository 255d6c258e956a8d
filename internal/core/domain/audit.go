package domain

import "time"

// AuthEventKind classifies an audit trail entry.
type AuthEventKind string

const (
	EventSignup         AuthEventKind = "signup"
	EventLoginSucceeded AuthEventKind = "login_succeeded"
	EventLoginFailed    AuthEventKind = "login_failed"
	EventLogout         AuthEventKind = "logout"
)

// AuthEvent records one authentication outcome.
type AuthEvent struct {
	Kind     AuthEventKind
	UserID   int64 // zero when the account is unknown
	Email    string
	RemoteIP string
	At       time.Time
}
