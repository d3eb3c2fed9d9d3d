package ecs

import (
	"errors"
	"fmt"
)

// ErrorSeverity mirrors the taxonomy in SPEC_FULL.md §7: structural and
// resource errors are always Warning/Error-or-worse and always surfaced;
// policy conditions are Info and are reported only through Stats(); fatal
// invariant violations are Critical.
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ECSError is the single error type the core returns. It carries enough
// context (entity, component type, system) for a caller or a log line to
// pinpoint the failing call without parsing the message string.
type ECSError struct {
	Code          string
	Message       string
	Entity        EntityID
	ComponentType TypeID
	System        string
	Severity      ErrorSeverity
	Details       map[string]any
}

func (e *ECSError) Error() string {
	if e.Entity != InvalidEntityID && e.ComponentType != InvalidTypeID {
		return fmt.Sprintf("[%s] %s (entity=%d type=%d)", e.Code, e.Message, e.Entity, e.ComponentType)
	}
	if e.Entity != InvalidEntityID {
		return fmt.Sprintf("[%s] %s (entity=%d)", e.Code, e.Message, e.Entity)
	}
	if e.System != "" {
		return fmt.Sprintf("[%s] %s (system=%s)", e.Code, e.Message, e.System)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is lets errors.Is match on Code, so callers can check errors.Is(err, ErrStaleHandle).
func (e *ECSError) Is(target error) bool {
	t, ok := target.(*ECSError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// IsRecoverable reports whether the engine's internal state remains usable
// after this error — true for every structural/resource error (the failing
// mutation was a no-op), false for fatal invariant violations.
func (e *ECSError) IsRecoverable() bool {
	return e.Severity != SeverityCritical
}

func newECSError(code, message string) *ECSError {
	return &ECSError{Code: code, Message: message, Severity: SeverityError}
}

// Sentinel errors. Compare with errors.Is; wrap with fmt.Errorf("...: %w", ErrX)
// at call sites to add call-specific context (entity, type, system) via
// withEntity/withType/withSystem below.
var (
	ErrStaleHandle       = newECSError("STALE_HANDLE", "entity handle is no longer live")
	ErrUnknownType       = newECSError("UNKNOWN_TYPE", "component type is not registered")
	ErrAlreadyRegistered = newECSError("ALREADY_REGISTERED", "component type already registered")
	ErrDuplicateName     = newECSError("DUPLICATE_NAME", "system name already registered")
	ErrCyclicDependency  = newECSError("CYCLIC_DEPENDENCY", "system dependency graph has a cycle")
	ErrNotPresent        = newECSError("NOT_PRESENT", "component not present on entity")
	ErrAlreadyPresent    = newECSError("ALREADY_PRESENT", "component already present on entity")
	ErrAllocFailure      = newECSError("ALLOC_FAILURE", "allocation failed")
	ErrQueueFull         = newECSError("QUEUE_FULL", "event queue is at capacity")
	ErrExhausted         = newECSError("EXHAUSTED", "entity index space exhausted")
	ErrSystemNotFound    = newECSError("SYSTEM_NOT_FOUND", "system not registered")
)

func init() {
	ErrStaleHandle.Severity = SeverityWarning
	ErrUnknownType.Severity = SeverityWarning
	ErrNotPresent.Severity = SeverityWarning
	ErrSystemNotFound.Severity = SeverityWarning
	ErrAllocFailure.Severity = SeverityError
	ErrQueueFull.Severity = SeverityError
	ErrCyclicDependency.Severity = SeverityError
	ErrExhausted.Severity = SeverityCritical
}

func withEntity(base *ECSError, e EntityID) error {
	clone := *base
	clone.Entity = e
	return fmt.Errorf("%w", &clone)
}

func withType(base *ECSError, t TypeID) error {
	clone := *base
	clone.ComponentType = t
	return fmt.Errorf("%w", &clone)
}

func withEntityAndType(base *ECSError, e EntityID, t TypeID) error {
	clone := *base
	clone.Entity = e
	clone.ComponentType = t
	return fmt.Errorf("%w", &clone)
}

func withSystem(base *ECSError, name string) error {
	clone := *base
	clone.System = name
	return fmt.Errorf("%w", &clone)
}

func withDetail(base *ECSError, key string, value any) error {
	clone := *base
	clone.Details = map[string]any{key: value}
	return fmt.Errorf("%w", &clone)
}

// AsECSError unwraps err down to its *ECSError, if any.
func AsECSError(err error) (*ECSError, bool) {
	var e *ECSError
	ok := errors.As(err, &e)
	return e, ok
}
