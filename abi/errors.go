package abi

import "fmt"

// Kind classifies a marshalling failure. The set is exhaustive: every way the
// Canonical-ABI codec can fail maps to exactly one Kind.
type Kind string

const (
	KindNullArgument        Kind = "null_argument"
	KindInvalidUtf8         Kind = "invalid_utf8"
	KindExportNotFound      Kind = "export_not_found"
	KindTypeMismatch        Kind = "type_mismatch"
	KindUnknownDiscriminant Kind = "unknown_discriminant"
	KindInvalidChar         Kind = "invalid_char"
	KindInvalidBool         Kind = "invalid_bool"
	KindIntegerOutOfRange   Kind = "integer_out_of_range"
	KindAllocFailed         Kind = "alloc_failed"
	KindUnsupportedSchema   Kind = "unsupported_schema"
	KindSchemaTooLarge      Kind = "schema_too_large"
	KindResourceTypeMismatch Kind = "resource_type_mismatch"
	KindResourceTableMiss   Kind = "resource_table_miss"
	KindGuestTrap           Kind = "guest_trap"
	KindEngineError         Kind = "engine_error"
)

// Error is the single diagnostic-chain type produced by every failing
// operation in this package. It is deliberately modelled on the host
// runtime's anyhow-style context chains: each layer of the codec that adds
// meaning wraps the layer below it with Wrap, and Error() renders the whole
// chain as one string suitable for the last-error slot.
type Error struct {
	Kind  Kind
	msg   string
	cause error
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// NewError constructs a fresh diagnostic of a known Kind with no cause. Used
// by callers outside this package (e.g. the Instance Facade) that need to
// originate an error of a specific Kind rather than merely annotate one.
func NewError(kind Kind, format string, args ...any) *Error {
	return newError(kind, format, args...)
}

// WrapKind is like Wrap but overrides the resulting Kind instead of
// inheriting it from cause, for call sites that are themselves the
// authoritative source of the failure's classification (e.g. export lookup
// failing with KindExportNotFound regardless of what, if anything, the
// engine returned).
func WrapKind(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), cause: cause}
}

// Wrap annotates err with a description of the frame that observed it (e.g.
// "failed to lower list element 3"), preserving the original Kind so callers
// can still classify the root cause. If err is not already an *Error it is
// folded into one with KindEngineError.
func Wrap(err error, format string, args ...any) *Error {
	kind := KindEngineError
	if ae, ok := err.(*Error); ok {
		kind = ae.Kind
	}
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), cause: err}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// AsError reports whether err (or something in its chain) is an *Error, and
// returns it. It does not require the standard errors package because the
// codec only ever wraps its own *Error values.
func AsError(err error) (*Error, bool) {
	for err != nil {
		if ae, ok := err.(*Error); ok {
			return ae, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
