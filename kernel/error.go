package kernel

// Kind classifies a kernel Error so that callers (in particular syscall
// handlers, which must surface a plain negative int through EAX) can map it
// to the error kind the caller expects without string matching.
type Kind int

// Error kinds returned by kernel operations. Values are surfaced to user
// mode as the negation of Kind (see Error.Errno).
const (
	KindNone Kind = iota
	KindInvalidArg
	KindOutOfMemory
	KindNoFreeProc
	KindBadProc
	KindInvalidELF
	KindKilled
	KindUnimplemented
	KindUnspecified
)

// Error describes a kernel error. All kernel errors are defined as global
// variables that are pointers to the Error structure, or constructed with
// NewError. This requirement stems from the fact that the Go allocator is
// not available early in boot, so errors.New cannot be used.
type Error struct {
	// Module is where the error occurred.
	Module string

	// Message is the error message.
	Message string

	// Kind classifies the error per §7 of the design.
	Kind Kind
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Errno returns the negative integer code a syscall handler returns through
// EAX for this error.
func (e *Error) Errno() int {
	return -int(e.Kind)
}

// NewError builds an Error of the given kind.
func NewError(module string, kind Kind, message string) *Error {
	return &Error{Module: module, Message: message, Kind: kind}
}
