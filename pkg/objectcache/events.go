package objectcache

import (
	"github.com/iotaledger/hive.go/runtime/event"

	"github.com/ferat8/sui/pkg/types"
)

type Events struct {
	// ObjectStored is triggered after a raw object replaced the cached entry.
	ObjectStored *event.Event1[*types.RawObject]
	// ObjectInvalidated is triggered when a ref newer than the cached object was learned.
	ObjectInvalidated *event.Event1[types.ObjectRef]

	event.Group[Events, *Events]
}

var NewEvents = event.CreateGroupConstructor(func() *Events {
	return &Events{
		ObjectStored:      event.New1[*types.RawObject](),
		ObjectInvalidated: event.New1[types.ObjectRef](),
	}
})
