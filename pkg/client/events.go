package client

import (
	"github.com/iotaledger/hive.go/runtime/event"

	"github.com/ferat8/sui/pkg/types"
)

type Events struct {
	// TransactionExecuted is triggered after the effects of a transaction were written to the cache.
	TransactionExecuted *event.Event1[*types.TransactionResponse]

	event.Group[Events, *Events]
}

var NewEvents = event.CreateGroupConstructor(func() *Events {
	return &Events{
		TransactionExecuted: event.New1[*types.TransactionResponse](),
	}
})
