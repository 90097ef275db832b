package reachkit

import "errors"

// ErrNoEmailProvided is returned when Check is called with a nil input
// or an empty target address. This is the only check-terminating
// condition: every other failure is recovered into the output record.
var ErrNoEmailProvided = errors.New("reachkit: no email address provided")
