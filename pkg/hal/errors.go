package hal

import "errors"

// Sentinel failure classes. Errors returned by the register access layer wrap
// one of these, so callers can branch with errors.Is without parsing messages.
var (
	// ErrTransport marks a failed bus transaction. The underlying bus error
	// is wrapped alongside it.
	ErrTransport = errors.New("bus transport failure")

	// ErrDecode marks register data that was transferred but does not map to
	// a known value, for example an unknown gesture code.
	ErrDecode = errors.New("register decode failure")

	// ErrValidation marks a host side value that was rejected before any bus
	// traffic was generated.
	ErrValidation = errors.New("value out of range")
)
