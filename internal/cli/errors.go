package cli

import "fmt"

type conflictingFlagsError struct {
	a, b string
}

func (e conflictingFlagsError) Error() string {
	return fmt.Sprintf("%s and %s cannot be used together", e.a, e.b)
}

func errConflictingFlags(a, b string) error {
	return conflictingFlagsError{a: a, b: b}
}

type missingFlagError struct {
	options []string
}

func (e missingFlagError) Error() string {
	if len(e.options) == 1 {
		return fmt.Sprintf("missing required flag %s", e.options[0])
	}
	return fmt.Sprintf("one of %v is required", e.options)
}

func errMissingFlag(options ...string) error {
	return missingFlagError{options: options}
}
