package constants

import "errors"

// Configuration errors.
var (
	ErrNoConnectionsConfigured = errors.New("no connections configured, use 'lsctl connections add' to add one")
	ErrConnectionNotFound      = errors.New("connection not found")
	ErrNoCurrentConnection     = errors.New("no connection selected, use 'lsctl connections use' to pick one")
)

// Credential store errors.
var (
	ErrEmptyConnectionID = errors.New("connection id is required")
	ErrCredentialsFile   = errors.New("credentials file is corrupt")
)

// Validation errors.
var (
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrUnsupportedOutput = errors.New("unsupported output format")
	ErrMissingFlag       = errors.New("missing required flag")
	ErrInvalidTime       = errors.New("invalid time, use RFC 3339 or a duration such as 15m")
)
