package rpcserver

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ferat8/sui/pkg/types"
)

// compileFilter compiles a boolean expression over the fields of filterEnv.
func compileFilter(expression string) (*exprvm.Program, error) {
	program, err := exprlang.Compile(expression, exprlang.Env(filterEnv(nil)), exprlang.AsBool())
	if err != nil {
		return nil, ierrors.Wrapf(types.ErrDecode, "invalid filter expression: %s", err)
	}

	return program, nil
}

// filterEnv exposes an event to filter expressions. A nil envelope yields the typed zero environment.
func filterEnv(envelope *types.EventEnvelope) map[string]any {
	if envelope == nil {
		envelope = &types.EventEnvelope{}
	}

	e := envelope.Event
	recipient := ""
	if e.Recipient != nil {
		recipient = e.Recipient.Address.ToHex()
	}

	return map[string]any{
		"Type":       e.Type.String(),
		"PackageID":  e.PackageID.ToHex(),
		"Module":     e.Module,
		"Sender":     e.Sender.ToHex(),
		"Recipient":  recipient,
		"ObjectID":   e.ObjectID.ToHex(),
		"ObjectType": e.ObjectType,
		"Version":    int(e.Version),
		"Amount":     int(e.Amount),
		"Timestamp":  int(envelope.Timestamp),
		"TxDigest":   envelope.TxDigest.String(),
	}
}

func matchesFilter(filter *types.EventFilter, program *exprvm.Program, envelope *types.EventEnvelope) (bool, error) {
	if filter != nil && !filter.MatchesFields(envelope) {
		return false, nil
	}
	if program == nil {
		return true, nil
	}

	result, err := exprlang.Run(program, filterEnv(envelope))
	if err != nil {
		return false, ierrors.Wrap(err, "failed to evaluate filter expression")
	}

	matches, _ := result.(bool)

	return matches, nil
}
