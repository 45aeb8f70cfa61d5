package httpclient

import "fmt"

// StatusError reports a non-success HTTP status from a backend.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status %d", e.Status)
}
