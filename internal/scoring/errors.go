package scoring

import "fmt"

// InvalidConfigurationError reports a systemic setup mistake. Callers should
// abort the whole run rather than skip a single record.
type InvalidConfigurationError struct {
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return "invalid configuration: " + e.Reason
}

func invalidConfig(format string, args ...any) error {
	return &InvalidConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidMarkError is returned when a mark has no grade band. It is scoped to
// one record; the caller may skip it and carry on.
type InvalidMarkError struct {
	Mark int
}

func (e *InvalidMarkError) Error() string {
	return fmt.Sprintf("invalid mark %d: no grade band configured", e.Mark)
}
