package mapfile

import "github.com/jamesrr39/goutil/errorsx"

// Sentinel error causes. Compare with errorsx.Cause(err) == mapfile.ErrXxx.
var (
	ErrNotAMapFile       = newSentinel("not a mapsforge map file")
	ErrUnsupportedVersion = newSentinel("unsupported map file version")
	ErrMalformedInput    = newSentinel("malformed map file input")
	ErrInvalidArgument   = newSentinel("invalid argument")
	ErrIOFailure         = newSentinel("map file I/O failure")
)

type sentinel struct {
	msg string
}

func (s *sentinel) Error() string {
	return s.msg
}

func newSentinel(msg string) error {
	return &sentinel{msg}
}

// malformed builds a MalformedInput error carrying a formatted message.
func malformed(format string, args ...interface{}) errorsx.Error {
	return wrappedCause(ErrMalformedInput, format, args...)
}

func notAMapFile(format string, args ...interface{}) errorsx.Error {
	return wrappedCause(ErrNotAMapFile, format, args...)
}

func unsupportedVersion(format string, args ...interface{}) errorsx.Error {
	return wrappedCause(ErrUnsupportedVersion, format, args...)
}

func ioFailure(format string, args ...interface{}) errorsx.Error {
	return wrappedCause(ErrIOFailure, format, args...)
}

func invalidArgument(format string, args ...interface{}) errorsx.Error {
	return wrappedCause(ErrInvalidArgument, format, args...)
}

// wrappedCause lets errorsx.Cause unwrap back to one of the sentinels above: it
// implements the same shape errorsx.Wrap recognises (an *errorsx.Err whose
// wrapped error is the sentinel), by wrapping the sentinel itself rather
// than a new error, and carrying the formatted message as a kv pair.
func wrappedCause(cause error, format string, args ...interface{}) errorsx.Error {
	return errorsx.Wrap(cause, "detail", errorsx.Errorf(format, args...).Error())
}
