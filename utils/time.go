package utils

import "time"

// Now returns the current UTC time with the monotonic reading stripped,
// so values survive a JSON round trip unchanged.
func Now() time.Time {
	return time.Now().UTC().Round(0)
}
