// Package errs defines the distinct error kinds the resolver, scheduler
// and fetcher can fail with, each wrapping an underlying cause with
// fmt.Errorf's %w so callers can still errors.Is/errors.As through to it.
package errs

import "fmt"

// ParseError reports a malformed index, release or control-file record.
type ParseError struct {
	Context string
	Err     error
}

func NewParseError(context string, err error) *ParseError { return &ParseError{Context: context, Err: err} }
func (e *ParseError) Error() string { return fmt.Sprintf("parse error in %s: %v", e.Context, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// VerificationFailure reports a failed signature or hash check.
type VerificationFailure struct {
	Subject string
	Err     error
}

func NewVerificationFailure(subject string, err error) *VerificationFailure {
	return &VerificationFailure{Subject: subject, Err: err}
}
func (e *VerificationFailure) Error() string {
	return fmt.Sprintf("verification of %s failed: %v", e.Subject, e.Err)
}
func (e *VerificationFailure) Unwrap() error { return e.Err }

// TransportError reports a download/transport-method failure.
type TransportError struct {
	URI string
	Err error
}

func NewTransportError(uri string, err error) *TransportError { return &TransportError{URI: uri, Err: err} }
func (e *TransportError) Error() string { return fmt.Sprintf("transport error fetching %s: %v", e.URI, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// LockUnavailable reports that one of the three advisory locks
// (lists/archives/dpkg status) could not be acquired.
type LockUnavailable struct {
	Path string
	Err  error
}

func NewLockUnavailable(path string, err error) *LockUnavailable { return &LockUnavailable{Path: path, Err: err} }
func (e *LockUnavailable) Error() string { return fmt.Sprintf("lock %s unavailable: %v", e.Path, e.Err) }
func (e *LockUnavailable) Unwrap() error { return e.Err }

// ResolutionFailure reports that the Resolver exhausted its search
// without finding a solution.
type ResolutionFailure struct {
	Reason string
	Err    error
}

func NewResolutionFailure(reason string, err error) *ResolutionFailure {
	return &ResolutionFailure{Reason: reason, Err: err}
}
func (e *ResolutionFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolution failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("resolution failed: %s", e.Reason)
}
func (e *ResolutionFailure) Unwrap() error { return e.Err }

// ScheduleFailure reports that the Scheduler could not produce a valid
// action plan (e.g. an unbreakable cycle).
type ScheduleFailure struct {
	Reason string
	Err    error
}

func NewScheduleFailure(reason string, err error) *ScheduleFailure {
	return &ScheduleFailure{Reason: reason, Err: err}
}
func (e *ScheduleFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scheduling failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("scheduling failed: %s", e.Reason)
}
func (e *ScheduleFailure) Unwrap() error { return e.Err }

// HookFailure reports a pre-install-packages hook returning a non-zero
// exit status.
type HookFailure struct {
	Hook     string
	ExitCode int
	Err      error
}

func NewHookFailure(hook string, exitCode int, err error) *HookFailure {
	return &HookFailure{Hook: hook, ExitCode: exitCode, Err: err}
}
func (e *HookFailure) Error() string {
	return fmt.Sprintf("hook %s exited %d: %v", e.Hook, e.ExitCode, e.Err)
}
func (e *HookFailure) Unwrap() error { return e.Err }

// InternalInvariant reports a condition the implementation assumed could
// never happen; seeing one means a bug in this repository, not bad input.
type InternalInvariant struct {
	Detail string
}

func NewInternalInvariant(detail string) *InternalInvariant { return &InternalInvariant{Detail: detail} }
func (e *InternalInvariant) Error() string { return fmt.Sprintf("internal invariant violated: %s", e.Detail) }
