package gateway

import (
	"github.com/iotaledger/hive.go/runtime/event"

	"github.com/ferat8/sui/pkg/types"
)

type Events struct {
	// TransactionExecuted is triggered after a transaction was applied and logged.
	TransactionExecuted *event.Event1[*types.TransactionResponse]
	// EventEmitted is triggered for every event of an executed transaction, in emission order.
	EventEmitted *event.Event1[*types.EventEnvelope]

	event.Group[Events, *Events]
}

var NewEvents = event.CreateGroupConstructor(func() *Events {
	return &Events{
		TransactionExecuted: event.New1[*types.TransactionResponse](),
		EventEmitted:        event.New1[*types.EventEnvelope](),
	}
})
