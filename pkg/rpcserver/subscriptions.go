package rpcserver

import (
	"context"
	"encoding/json"

	exprvm "github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iotaledger/hive.go/lo"

	"github.com/ferat8/sui/pkg/jsonrpc"
	"github.com/ferat8/sui/pkg/types"
)

type subscription struct {
	id      string
	filter  *types.EventFilter
	program *exprvm.Program
}

// connection serializes writes to one websocket. Messages are dropped with the connection if it falls behind.
type connection struct {
	outbox chan any
	ctx    context.Context
	cancel context.CancelFunc
}

func (c *connection) send(message any) bool {
	if c.ctx.Err() != nil {
		return false
	}

	select {
	case c.outbox <- message:
		return true
	default:
		c.cancel()

		return false
	}
}

func (s *Server) handleWebsocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.LogWarn("websocket upgrade failed", "err", err)

		return nil
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn := &connection{outbox: make(chan any, s.optsOutboxSize), ctx: ctx, cancel: cancel}

	go func() {
		defer ws.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case message := <-conn.outbox:
				if err := ws.WriteJSON(message); err != nil {
					s.logger.LogTrace("websocket write failed", "err", err)
					cancel()

					return
				}
			}
		}
	}()

	var unsubscribes []func()
	defer func() {
		lo.BatchReverse(unsubscribes...)()
	}()

	for {
		request := new(jsonrpc.Request)
		if err := ws.ReadJSON(request); err != nil {
			return nil
		}

		response, unsubscribe := s.subscribe(conn, request)
		if unsubscribe != nil {
			unsubscribes = append(unsubscribes, unsubscribe)
		}

		if response != nil && !conn.send(response) {
			return nil
		}
	}
}

// subscribe answers a websocket request. A created subscription is confirmed directly and returns a nil response.
func (s *Server) subscribe(conn *connection, request *jsonrpc.Request) (*jsonrpc.Response, func()) {
	if request.Method != jsonrpc.MethodSubscribeEvent {
		return s.call(request), nil
	}

	params, err := request.PositionalParams()
	if err != nil {
		return jsonrpc.NewErrorResponse(request.ID, err), nil
	}

	filter, err := optionalParam[*types.EventFilter](params, 0)
	if err != nil {
		return jsonrpc.NewErrorResponse(request.ID, err), nil
	}

	sub := &subscription{id: uuid.New().String(), filter: filter}
	if filter != nil && filter.Expression != "" {
		if sub.program, err = compileFilter(filter.Expression); err != nil {
			return jsonrpc.NewErrorResponse(request.ID, jsonrpc.NewError(jsonrpc.CodeInvalidParams, err.Error())), nil
		}
	}

	response, err := jsonrpc.NewResultResponse(request.ID, sub.id)
	if err != nil {
		return jsonrpc.NewErrorResponse(request.ID, err), nil
	}

	// the subscription confirmation is queued before any event can be delivered.
	if !conn.send(response) {
		return nil, nil
	}

	s.subscriptions.Set(sub.id, sub)
	unhook := s.service.OnEvent(func(envelope *types.EventEnvelope) {
		matches, err := matchesFilter(sub.filter, sub.program, envelope)
		if err != nil {
			s.logger.LogTrace("filter evaluation failed", "subscription", sub.id, "err", err)

			return
		}
		if !matches {
			return
		}

		result, err := json.Marshal(envelope)
		if err != nil {
			s.logger.LogError("failed to encode event", "err", err)

			return
		}

		conn.send(&jsonrpc.Notification{
			JSONRPC: jsonrpc.Version,
			Method:  jsonrpc.MethodSubscribeEvent,
			Params:  jsonrpc.NotificationParams{Subscription: sub.id, Result: result},
		})
	})

	s.logger.LogTrace("subscription created", "subscription", sub.id)

	return nil, func() {
		unhook()
		s.subscriptions.Delete(sub.id)
		s.logger.LogTrace("subscription closed", "subscription", sub.id)
	}
}
