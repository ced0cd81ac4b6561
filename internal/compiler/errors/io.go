package errors

import "fmt"

// I/O error codes (IO700-799)
const (
	// ErrIO indicates a file could not be read or written
	ErrIO ErrorCode = "IO701"
)

// NewIOError creates an IO701 error. op describes the failed operation
// ("read", "write", "create directory").
func NewIOError(path, op string, cause error) *CompilerError {
	return newError(
		ErrIO,
		"io",
		CategoryIO,
		SeverityError,
		fmt.Sprintf("couldn't %s %s: %v", op, path, cause),
		Location{},
	).WithFile(path).WithCause(cause)
}
