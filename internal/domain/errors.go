package domain

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
)

// Sentinel errors raised by media source implementations. Adapters wrap these
// with context via fmt.Errorf("...: %w", ...).
var (
	ErrTargetNotFound = errors.New("target account does not exist")
	ErrTargetPrivate  = errors.New("target account is private")
	ErrItemNotFound   = errors.New("item does not exist")
	ErrConnection     = errors.New("connection failure")
)

// Severity is the handling tier assigned to a failure.
type Severity int

const (
	// SeverityFatal aborts the current run.
	SeverityFatal Severity = iota
	// SeverityRetryable is retried with backoff, then skipped.
	SeverityRetryable
	// SeveritySkip is logged and counted; processing continues.
	SeveritySkip
)

func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeverityRetryable:
		return "retryable"
	default:
		return "skip"
	}
}

// Classify maps an error to its severity tier. It is total: any error value
// gets a tier, unknown ones default to SeveritySkip. It never logs; that is
// the caller's job.
func Classify(err error) Severity {
	switch {
	case err == nil:
		return SeveritySkip
	case errors.Is(err, ErrTargetNotFound), errors.Is(err, ErrTargetPrivate):
		return SeverityFatal
	case errors.Is(err, syscall.ENOSPC):
		return SeverityFatal
	case errors.Is(err, os.ErrPermission):
		return SeverityFatal
	case errors.Is(err, ErrConnection):
		return SeverityRetryable
	case isFilesystem(err):
		return SeveritySkip
	default:
		return SeveritySkip
	}
}

// isFilesystem reports whether err originated from a filesystem operation.
func isFilesystem(err error) bool {
	var pathErr *fs.PathError
	var linkErr *os.LinkError
	var errno syscall.Errno
	return errors.As(err, &pathErr) || errors.As(err, &linkErr) || errors.As(err, &errno)
}
