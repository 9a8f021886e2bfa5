package types

import "github.com/iotaledger/hive.go/ierrors"

// EventType classifies ledger events.
type EventType uint8

const (
	EventTransferObject EventType = iota
	EventNewObject
	EventDeleteObject
	EventPublish
	EventCoinBalanceChange
)

var eventTypeNames = map[EventType]string{
	EventTransferObject:    "TransferObject",
	EventNewObject:         "NewObject",
	EventDeleteObject:      "DeleteObject",
	EventPublish:           "Publish",
	EventCoinBalanceChange: "CoinBalanceChange",
}

func (e EventType) String() string {
	if name, exists := eventTypeNames[e]; exists {
		return name
	}

	return "Unknown"
}

func (e EventType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EventType) UnmarshalText(text []byte) error {
	for eventType, name := range eventTypeNames {
		if name == string(text) {
			*e = eventType

			return nil
		}
	}

	return ierrors.Wrapf(ErrDecode, "unknown event type %q", text)
}

// Event is a single ledger event emitted by a transaction.
type Event struct {
	Type       EventType      `json:"type"`
	PackageID  ObjectID       `json:"packageId"`
	Module     string         `json:"module"`
	Sender     SuiAddress     `json:"sender"`
	Recipient  *Owner         `json:"recipient,omitempty"`
	ObjectID   ObjectID       `json:"objectId"`
	ObjectType string         `json:"objectType,omitempty"`
	Version    SequenceNumber `json:"version"`
	Amount     int64          `json:"amount,omitempty"`
}

// EventEnvelope is the unit delivered to subscribers.
type EventEnvelope struct {
	Timestamp uint64            `json:"timestamp"`
	TxDigest  TransactionDigest `json:"txDigest"`
	Event     Event             `json:"event"`
}

// EventFilter selects events on the server side. Unset fields match everything.
// Expression is evaluated by the serving side against the envelope.
type EventFilter struct {
	Package       *ObjectID   `json:"package,omitempty"`
	Module        string      `json:"module,omitempty"`
	EventType     *EventType  `json:"eventType,omitempty"`
	SenderAddress *SuiAddress `json:"senderAddress,omitempty"`
	ObjectID      *ObjectID   `json:"objectId,omitempty"`
	Expression    string      `json:"expression,omitempty"`
}

// MatchesFields evaluates the structured part of the filter.
func (f *EventFilter) MatchesFields(envelope *EventEnvelope) bool {
	e := envelope.Event
	switch {
	case f.Package != nil && *f.Package != e.PackageID:
		return false
	case f.Module != "" && f.Module != e.Module:
		return false
	case f.EventType != nil && *f.EventType != e.Type:
		return false
	case f.SenderAddress != nil && *f.SenderAddress != e.Sender:
		return false
	case f.ObjectID != nil && *f.ObjectID != e.ObjectID:
		return false
	default:
		return true
	}
}
