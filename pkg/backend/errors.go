package backend

import (
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ferat8/sui/pkg/types"
)

// Unsupported returns the error a backend of the given kind reports for an operation it lacks.
func Unsupported(kind Kind, operation string, reason string) error {
	return ierrors.Wrapf(types.ErrUnsupportedOperation, "%s on %s backend: %s", operation, kind, reason)
}

// Unavailable wraps a transport failure of the given kind.
func Unavailable(kind Kind, operation string, err error) error {
	return ierrors.Wrapf(types.ErrBackendUnavailable, "%s on %s backend: %s", operation, kind, err)
}

// IsUnsupported returns true if err reports a missing capability.
func IsUnsupported(err error) bool {
	return ierrors.Is(err, types.ErrUnsupportedOperation)
}
