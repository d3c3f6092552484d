package query

import (
	"errors"
	"fmt"
)

// ErrCodeInvalidQueryOption is the code of errors for malformed options.
const ErrCodeInvalidQueryOption = "INVALID_QUERY_OPTION"

// OptionError reports a query option the pipeline cannot apply.
type OptionError struct {
	Option  string
	Message string
}

// Error implements the error interface.
func (e *OptionError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrCodeInvalidQueryOption, e.Option, e.Message)
}

// IsInvalidOption returns true if err is (or wraps) an *OptionError.
func IsInvalidOption(err error) bool {
	var oe *OptionError
	return errors.As(err, &oe)
}
