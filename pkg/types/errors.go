package types

import "github.com/iotaledger/hive.go/ierrors"

var (
	// ErrBackendUnavailable is returned when the transport to a backend failed.
	ErrBackendUnavailable = ierrors.New("backend unavailable")

	// ErrUnsupportedOperation is returned when the active backend variant lacks a capability.
	// It is permanent for that backend and must not be retried.
	ErrUnsupportedOperation = ierrors.New("unsupported operation")

	// ErrDecode is returned when a raw object, module or type tag could not be decoded.
	ErrDecode = ierrors.New("decode error")

	// ErrInternalInvariantViolation signals a logic bug upstream, e.g. a dependency worklist entry that is not a package.
	ErrInternalInvariantViolation = ierrors.New("internal invariant violation")

	// ErrMissingModule is returned when a layout references a module that is not part of the supplied closure.
	ErrMissingModule = ierrors.New("missing module")

	// ErrObjectNotFound is returned by stores when an object is unknown.
	ErrObjectNotFound = ierrors.New("object not found")

	// ErrTransactionNotFound is returned when a transaction digest is unknown.
	ErrTransactionNotFound = ierrors.New("transaction not found")

	// ErrInvalidTransaction is returned when a transaction is rejected before execution.
	ErrInvalidTransaction = ierrors.New("invalid transaction")
)
