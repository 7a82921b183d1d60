package abi

import "fmt"

// ArgError reports an argument that does not match the parameters of a function.
type ArgError struct {
	// Param is the name of the offending parameter.
	Param  string
	Reason string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("argument %q: %s", e.Param, e.Reason)
}

func argError(param, format string, args ...any) *ArgError {
	return &ArgError{Param: param, Reason: fmt.Sprintf(format, args...)}
}
