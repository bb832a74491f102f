package leads

import "errors"

// ErrNotFound is returned when a lead does not exist.
var ErrNotFound = errors.New("lead not found")
