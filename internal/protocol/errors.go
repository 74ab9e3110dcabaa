package protocol

// Error is a protocol-level failure. It is reported to the client as an
// "ERROR: <reason>" line and never ends the connection.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func newError(reason string) *Error {
	return &Error{Reason: reason}
}

var (
	errEmptyCommand   = newError("Empty command")
	errGetArgs        = newError("GET requires a key")
	errSetArgs        = newError("SET requires a key and value")
	errEXMissing      = newError("EX requires seconds argument")
	errEXInvalid      = newError("Invalid EX value")
	errExpireArgs     = newError("EXPIRE requires a key and seconds")
	errInvalidSeconds = newError("Invalid seconds")
	errTTLArgs        = newError("TTL requires a key")
	errIncrArgs       = newError("INCR requires a key")
	errNotInteger     = newError("value is not an integer")
	errOverflow       = newError("increment or decrement would overflow")
	errDelArgs        = newError("DEL requires a key")
)

func errUnknownCommand(token string) *Error {
	return newError("Unknown command '" + token + "'")
}
