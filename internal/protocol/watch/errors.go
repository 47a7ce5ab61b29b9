package watch

import "errors"

var (
	ErrInvalidConfig = errors.New("watch: invalid config")
	ErrNilChannel    = errors.New("watch: channel required")
	ErrHostTimeout   = errors.New("watch: no host response")
	ErrCancelled     = errors.New("watch: cancelled")
	ErrPollFault     = errors.New("watch: poll fault")
)
