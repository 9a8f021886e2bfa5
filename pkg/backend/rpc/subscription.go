package rpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ferat8/sui/pkg/backend"
	"github.com/ferat8/sui/pkg/jsonrpc"
	"github.com/ferat8/sui/pkg/types"
)

// websocketMessage is either the response to the subscribe call or a notification.
type websocketMessage struct {
	ID     json.RawMessage            `json:"id,omitempty"`
	Result json.RawMessage            `json:"result,omitempty"`
	Error  *jsonrpc.Error             `json:"error,omitempty"`
	Method string                     `json:"method,omitempty"`
	Params jsonrpc.NotificationParams `json:"params"`
}

// SubscribeEvent opens a websocket subscription. Without a configured websocket url the capability is missing.
func (b *Backend) SubscribeEvent(ctx context.Context, filter *types.EventFilter) (*backend.EventStream, error) {
	if b.optsWebsocketURL == "" {
		return nil, backend.Unsupported(backend.KindRPC, "SubscribeEvent", "no websocket url configured")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.optsWebsocketURL, nil)
	if err != nil {
		return nil, backend.Unavailable(backend.KindRPC, "SubscribeEvent", err)
	}

	subscriptionID, err := b.subscribe(ctx, conn, filter)
	if err != nil {
		_ = conn.Close()

		return nil, err
	}

	b.logger.LogTrace("subscribed", "subscription", subscriptionID)

	stream, producerCtx, send, finish := backend.NewEventStream(ctx, nil)

	go func() {
		<-producerCtx.Done()
		_ = conn.Close()
	}()

	go func() {
		defer finish()

		for {
			message := new(websocketMessage)
			if err := conn.ReadJSON(message); err != nil {
				if producerCtx.Err() == nil {
					send(backend.EventResult{Err: backend.Unavailable(backend.KindRPC, "SubscribeEvent", err)})
				}

				return
			}

			if message.Params.Subscription != subscriptionID {
				continue
			}

			envelope := new(types.EventEnvelope)
			if err := json.Unmarshal(message.Params.Result, envelope); err != nil {
				send(backend.EventResult{Err: ierrors.Wrapf(types.ErrDecode, "malformed event: %s", err)})

				return
			}

			if !send(backend.EventResult{Envelope: envelope}) {
				return
			}
		}
	}()

	return stream, nil
}

// subscribe runs the subscription handshake. It is bounded by the call timeout and the deadline of ctx, and a
// cancelled ctx closes conn.
func (b *Backend) subscribe(ctx context.Context, conn *websocket.Conn, filter *types.EventFilter) (string, error) {
	request, err := jsonrpc.NewRequest(b.nextID.Inc(), jsonrpc.MethodSubscribeEvent, filter)
	if err != nil {
		return "", ierrors.Wrapf(types.ErrDecode, "failed to encode subscription: %s", err)
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if deadline, hasDeadline := b.handshakeDeadline(ctx); hasDeadline {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.SetReadDeadline(deadline)
	}

	if err := conn.WriteJSON(request); err != nil {
		return "", b.handshakeError(ctx, err)
	}

	response := new(websocketMessage)
	if err := conn.ReadJSON(response); err != nil {
		return "", b.handshakeError(ctx, err)
	}

	// notifications are read without a deadline
	_ = conn.SetWriteDeadline(time.Time{})
	_ = conn.SetReadDeadline(time.Time{})
	if response.Error != nil {
		return "", response.Error.Err()
	}

	var subscriptionID string
	if err := json.Unmarshal(response.Result, &subscriptionID); err != nil {
		return "", ierrors.Wrapf(types.ErrDecode, "malformed subscription id: %s", err)
	}

	return subscriptionID, nil
}

func (b *Backend) handshakeDeadline(ctx context.Context) (deadline time.Time, hasDeadline bool) {
	if b.optsTimeout > 0 {
		deadline, hasDeadline = time.Now().Add(b.optsTimeout), true
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (!hasDeadline || ctxDeadline.Before(deadline)) {
		deadline, hasDeadline = ctxDeadline, true
	}

	return deadline, hasDeadline
}

func (b *Backend) handshakeError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		err = ctx.Err()
	}

	return backend.Unavailable(backend.KindRPC, "SubscribeEvent", err)
}
