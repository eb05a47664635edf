package batch

import "fmt"

// ConfigurationError marks a malformed batch request. It is the only failure
// that aborts a batch; everything downstream is isolated per job.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "batch configuration: " + e.Msg
}

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}
