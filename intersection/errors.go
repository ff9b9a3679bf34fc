package intersection

import "fmt"

// ConfigurationError reports an invalid constructor argument: a missing
// callback, a root that is not an element, or a bad threshold.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("ConfigurationError: %s", e.Message)
}

// TargetError reports an invalid observe target: not an element, or not a
// descendant of the observer's root.
type TargetError struct {
	Message string
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("TargetError: %s", e.Message)
}
