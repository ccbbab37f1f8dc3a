package ami

import "errors"

var (
	// ErrAuth indicates the manager rejected the login credentials.
	// Fatal for the connection; never retried.
	ErrAuth = errors.New("manager authentication rejected")
	// ErrTimeout indicates no reply arrived within the action budget.
	// The connection is discarded; callers may retry on a new connection.
	ErrTimeout = errors.New("manager action timed out")
	// ErrConnection indicates a transport-level failure or a client that
	// has already been closed. Same retry policy as ErrTimeout.
	ErrConnection = errors.New("manager connection closed")
	// ErrProtocol indicates a malformed wire frame. The connection is
	// discarded so a stale frame can never be attributed to a later action.
	ErrProtocol = errors.New("malformed manager frame")
)
