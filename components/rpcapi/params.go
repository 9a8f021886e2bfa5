package rpcapi

import (
	"time"

	"github.com/iotaledger/hive.go/app"
)

// ParametersRPCAPI contains the definition of the parameters used by the JSON-RPC API.
type ParametersRPCAPI struct {
	// Enabled defines whether the JSON-RPC API is enabled.
	Enabled bool `default:"true" usage:"whether the JSON-RPC API is enabled"`
	// the bind address on which the JSON-RPC API listens on
	BindAddress string `default:"127.0.0.1:9000" usage:"the bind address on which the JSON-RPC API listens on"`
	// whether the debug logging for requests should be enabled
	DebugRequestLoggerEnabled bool `default:"false" usage:"whether the debug logging for requests should be enabled"`
	// ShutdownTimeout defines how long open requests may take to finish on shutdown.
	ShutdownTimeout time.Duration `default:"5s" usage:"how long open requests may take to finish on shutdown"`

	Limits struct {
		// the maximum number of characters that the body of an API call may contain
		MaxBodyLength string `default:"2M" usage:"the maximum number of characters that the body of an API call may contain"`
		// the number of queued event notifications after which a websocket is dropped
		SubscriptionOutboxSize int `default:"256" usage:"the number of queued event notifications after which a websocket is dropped"`
	}
}

var ParamsRPCAPI = &ParametersRPCAPI{}

var params = &app.ComponentParams{
	Params: map[string]any{
		"rpcAPI": ParamsRPCAPI,
	},
}
