package config

import (
	"time"
)

const (
	ClientTypeEmbedded = "embedded"
	ClientTypeRPC      = "rpc"
)

// ParametersClient contains the definition of the parameters of a client session.
type ParametersClient struct {
	// Type selects the backend of the client session
	Type string `name:"type" default:"rpc" usage:"the backend of the client session (embedded or rpc)"`

	Embedded struct {
		// DBFolder is the folder holding the gateway state
		DBFolder string `name:"dbFolder" default:"gateway" usage:"the folder holding the gateway state"`
		// GasCost is the fixed gas charged per transaction
		GasCost uint64 `name:"gasCost" default:"10" usage:"the fixed gas charged per transaction"`
		// Accounts are the hex addresses funded with a gas coin at genesis
		Accounts []string `name:"accounts" usage:"the hex addresses funded with a gas coin at genesis"`
		// GasCoinBalance is the balance of every genesis gas coin
		GasCoinBalance uint64 `name:"gasCoinBalance" default:"100000" usage:"the balance of every genesis gas coin"`
	} `name:"embedded"`

	RPC struct {
		// HTTPURL is the JSON-RPC endpoint
		HTTPURL string `name:"httpURL" default:"http://127.0.0.1:9000" usage:"the JSON-RPC endpoint"`
		// WebsocketURL is the event subscription endpoint, subscriptions are unsupported if empty
		WebsocketURL string `name:"websocketURL" default:"" usage:"the event subscription endpoint, subscriptions are unsupported if empty"`
		// Timeout bounds every JSON-RPC call
		Timeout time.Duration `name:"timeout" default:"30s" usage:"the timeout of a JSON-RPC call"`
		// MaxResponseSize bounds the body of a JSON-RPC response, e.g. "64M"
		MaxResponseSize string `name:"maxResponseSize" default:"64M" usage:"the maximum size of a JSON-RPC response"`
	} `name:"rpc"`
}
