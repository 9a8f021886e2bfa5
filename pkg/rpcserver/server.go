package rpcserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/iotaledger/hive.go/ds/shrinkingmap"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/inx-app/pkg/httpserver"

	"github.com/ferat8/sui/pkg/jsonrpc"
)

const (
	RouteCall      = "/"
	RouteWebsocket = "/ws"
	RouteHealth    = "/health"
)

// Server serves a Service as JSON-RPC over HTTP and event subscriptions over websocket.
type Server struct {
	Echo *echo.Echo

	service       Service
	logger        log.Logger
	methods       map[string]method
	upgrader      websocket.Upgrader
	subscriptions *shrinkingmap.ShrinkingMap[string, *subscription]

	optsDebugRequestLoggerEnabled bool
	optsMaxBodyLength             string
	optsOutboxSize                int
}

func New(logger log.Logger, service Service, opts ...options.Option[Server]) *Server {
	return options.Apply(&Server{
		service:           service,
		logger:            logger.NewChildLogger("RPCServer"),
		subscriptions:     shrinkingmap.New[string, *subscription](),
		optsMaxBodyLength: "2M",
		optsOutboxSize:    256,
	}, opts, func(s *Server) {
		s.methods = s.methodTable()

		s.Echo = httpserver.NewEcho(s.logger, nil, s.optsDebugRequestLoggerEnabled)
		s.Echo.Use(middleware.CORS())
		s.Echo.Use(middleware.BodyLimit(s.optsMaxBodyLength))

		s.setupRoutes()
	})
}

// WithDebugRequestLoggerEnabled logs every request.
func WithDebugRequestLoggerEnabled(enabled bool) options.Option[Server] {
	return func(s *Server) {
		s.optsDebugRequestLoggerEnabled = enabled
	}
}

// WithMaxBodyLength limits the size of request bodies, e.g. "2M".
func WithMaxBodyLength(limit string) options.Option[Server] {
	return func(s *Server) {
		s.optsMaxBodyLength = limit
	}
}

// WithOutboxSize sets how many messages may be queued for a websocket before it is dropped as too slow.
func WithOutboxSize(size int) options.Option[Server] {
	return func(s *Server) {
		s.optsOutboxSize = size
	}
}

func (s *Server) setupRoutes() {
	s.Echo.GET(RouteHealth, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	s.Echo.POST(RouteCall, s.handleCall)
	s.Echo.GET(RouteWebsocket, s.handleWebsocket)
}

// Start serves on the bind address until Shutdown is called.
func (s *Server) Start(bindAddress string) error {
	s.logger.LogInfo("starting JSON-RPC server", "bindAddress", bindAddress)

	if err := s.Echo.Start(bindAddress); err != nil && !ierrors.Is(err, http.ErrServerClosed) {
		return ierrors.Wrap(err, "JSON-RPC server stopped")
	}

	return nil
}

// Shutdown stops the server, waiting at most for the given timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.Echo.Shutdown(ctx)
}

// SubscriptionCount returns the number of active event subscriptions.
func (s *Server) SubscriptionCount() int {
	return s.subscriptions.Size()
}

func (s *Server) handleCall(c echo.Context) error {
	request := new(jsonrpc.Request)
	if err := json.NewDecoder(c.Request().Body).Decode(request); err != nil {
		return httpserver.JSONResponse(c, http.StatusOK, jsonrpc.NewErrorResponse(nil, jsonrpc.NewError(jsonrpc.CodeParseError, err.Error())))
	}

	return httpserver.JSONResponse(c, http.StatusOK, s.call(request))
}

func (s *Server) call(request *jsonrpc.Request) *jsonrpc.Response {
	if request.JSONRPC != jsonrpc.Version {
		return jsonrpc.NewErrorResponse(request.ID, jsonrpc.NewError(jsonrpc.CodeInvalidRequest, "unsupported jsonrpc version "+request.JSONRPC))
	}

	handler, exists := s.methods[request.Method]
	if !exists {
		return jsonrpc.NewErrorResponse(request.ID, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "unknown method "+request.Method))
	}

	params, err := request.PositionalParams()
	if err != nil {
		return jsonrpc.NewErrorResponse(request.ID, err)
	}

	result, err := handler(params)
	if err != nil {
		s.logger.LogTrace("call failed", "method", request.Method, "err", err)

		return jsonrpc.NewErrorResponse(request.ID, err)
	}

	response, err := jsonrpc.NewResultResponse(request.ID, result)
	if err != nil {
		return jsonrpc.NewErrorResponse(request.ID, err)
	}

	return response
}
