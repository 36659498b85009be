package config

import "fmt"

// MustNonEmpty reports a missing required variable as an error so callers
// decide whether startup should abort.
func MustNonEmpty(value, envName string) error {
	if value == "" {
		return fmt.Errorf("missing required env %s", envName)
	}
	return nil
}
