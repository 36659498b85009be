package apiclient

import (
	"errors"
	"fmt"
)

// ErrNetworkUnavailable marks failures where no HTTP response was obtained.
var ErrNetworkUnavailable = errors.New("network unavailable")

// Error is a non-2xx backend response.
type Error struct {
	Status int
	Body   string
	Path   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Path)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
