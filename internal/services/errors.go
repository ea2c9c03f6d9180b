package services

import "errors"

// Standard service errors. Every externally-triggered operation degrades to
// one of these plus a notification; none of them should ever crash the engine.
var (
	// Session errors
	ErrAuthExpired     = errors.New("credential expired or invalid")
	ErrAuthStartFailed = errors.New("could not start login")

	// Email store errors
	ErrFetchFailed  = errors.New("folder fetch failed")
	ErrSendFailed   = errors.New("send failed")
	ErrNotFound     = errors.New("email not found")
	ErrInvalidInput = errors.New("invalid input provided")

	// Live channel errors
	ErrChannelClosed = errors.New("live channel closed")

	// Assistant errors
	ErrChatFailed = errors.New("assistant request failed")
)

// IsUserVisible determines if an error should surface as a notification
// rather than a silent log entry.
func IsUserVisible(err error) bool {
	return errors.Is(err, ErrAuthStartFailed) ||
		errors.Is(err, ErrSendFailed) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrChatFailed)
}

// IsAuthExpired determines if an error means the stored credential must be
// discarded. This is the only failure class that mutates session state.
func IsAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}
