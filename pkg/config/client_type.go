package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/gommon/bytes"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"

	"github.com/ferat8/sui/pkg/backend"
	"github.com/ferat8/sui/pkg/backend/embedded"
	"github.com/ferat8/sui/pkg/backend/rpc"
	"github.com/ferat8/sui/pkg/client"
	"github.com/ferat8/sui/pkg/gateway"
	"github.com/ferat8/sui/pkg/types"
)

// EmbeddedConfig describes a local gateway state.
type EmbeddedConfig struct {
	DBFolder string
	GasCost  uint64
	Accounts []gateway.GenesisAccount
}

// RPCConfig describes a remote query service.
type RPCConfig struct {
	HTTPURL         string
	WebsocketURL    string
	Timeout         time.Duration
	MaxResponseSize string
}

// ClientType selects the backend of a client session. Exactly one of Embedded and RPC is set.
type ClientType struct {
	Embedded *EmbeddedConfig
	RPC      *RPCConfig
}

// NewEmbeddedClientType returns a client type backed by a local gateway state in dbFolder.
func NewEmbeddedClientType(dbFolder string, accounts ...gateway.GenesisAccount) ClientType {
	return ClientType{Embedded: &EmbeddedConfig{DBFolder: dbFolder, GasCost: gateway.DefaultGasCost, Accounts: accounts}}
}

// NewRPCClientType returns a client type backed by a remote query service. websocketURL may be empty.
func NewRPCClientType(httpURL string, websocketURL string) ClientType {
	return ClientType{RPC: &RPCConfig{HTTPURL: httpURL, WebsocketURL: websocketURL}}
}

// ClientTypeFromParameters converts the loaded parameters.
func ClientTypeFromParameters(params *ParametersClient) (ClientType, error) {
	switch strings.ToLower(params.Type) {
	case ClientTypeEmbedded:
		accounts := make([]gateway.GenesisAccount, 0, len(params.Embedded.Accounts))
		for _, account := range params.Embedded.Accounts {
			address, err := types.AddressFromHex(account)
			if err != nil {
				return ClientType{}, ierrors.Wrapf(err, "invalid genesis account")
			}
			accounts = append(accounts, gateway.GenesisAccount{Address: address, GasCoins: []uint64{params.Embedded.GasCoinBalance}})
		}

		return ClientType{Embedded: &EmbeddedConfig{
			DBFolder: params.Embedded.DBFolder,
			GasCost:  params.Embedded.GasCost,
			Accounts: accounts,
		}}, nil
	case ClientTypeRPC:
		return ClientType{RPC: &RPCConfig{
			HTTPURL:         params.RPC.HTTPURL,
			WebsocketURL:    params.RPC.WebsocketURL,
			Timeout:         params.RPC.Timeout,
			MaxResponseSize: params.RPC.MaxResponseSize,
		}}, nil
	default:
		return ClientType{}, ierrors.Errorf("unknown client type %q", params.Type)
	}
}

// Kind returns the backend kind the client type creates.
func (c ClientType) Kind() backend.Kind {
	if c.Embedded != nil {
		return backend.KindEmbedded
	}

	return backend.KindRPC
}

// Init creates the backend and a client session on top of it. A remote service is probed once so that a
// wrong url fails here instead of on the first read.
func (c ClientType) Init(ctx context.Context, logger log.Logger, opts ...options.Option[client.Client]) (*client.Client, error) {
	switch {
	case c.Embedded != nil && c.RPC != nil:
		return nil, ierrors.New("client type must be either embedded or rpc")
	case c.Embedded != nil:
		return c.initEmbedded(ctx, logger, opts)
	case c.RPC != nil:
		return c.initRPC(ctx, logger, opts)
	default:
		return nil, ierrors.New("client type is empty")
	}
}

func (c ClientType) initEmbedded(ctx context.Context, logger log.Logger, opts []options.Option[client.Client]) (*client.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gatewayOpts := []options.Option[gateway.State]{
		gateway.WithDBFolder(c.Embedded.DBFolder),
		gateway.WithGenesisAccounts(c.Embedded.Accounts...),
	}
	if c.Embedded.GasCost != 0 {
		gatewayOpts = append(gatewayOpts, gateway.WithGasCost(c.Embedded.GasCost))
	}

	state, err := gateway.New(logger, gatewayOpts...)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to open gateway state in %s", c.Embedded.DBFolder)
	}

	return client.New(logger, embedded.New(logger, state, embedded.WithShutdownOnClose(true)), opts...), nil
}

func (c ClientType) initRPC(ctx context.Context, logger log.Logger, opts []options.Option[client.Client]) (*client.Client, error) {
	if _, err := url.ParseRequestURI(c.RPC.HTTPURL); err != nil {
		return nil, ierrors.Wrapf(err, "invalid rpc url %q", c.RPC.HTTPURL)
	}

	rpcOpts := make([]options.Option[rpc.Backend], 0, 3)
	if c.RPC.WebsocketURL != "" {
		if _, err := url.ParseRequestURI(c.RPC.WebsocketURL); err != nil {
			return nil, ierrors.Wrapf(err, "invalid websocket url %q", c.RPC.WebsocketURL)
		}
		rpcOpts = append(rpcOpts, rpc.WithWebsocketURL(c.RPC.WebsocketURL))
	}
	if c.RPC.Timeout != 0 {
		rpcOpts = append(rpcOpts, rpc.WithTimeout(c.RPC.Timeout))
	}
	if c.RPC.MaxResponseSize != "" {
		size, err := bytes.Parse(c.RPC.MaxResponseSize)
		if err != nil {
			return nil, ierrors.Wrapf(err, "invalid max response size %q", c.RPC.MaxResponseSize)
		}
		rpcOpts = append(rpcOpts, rpc.WithMaxResponseSize(size))
	}

	b := rpc.New(logger, c.RPC.HTTPURL, rpcOpts...)
	if _, err := b.GetTotalTransactionNumber(ctx); err != nil {
		_ = b.Close()

		return nil, ierrors.Wrapf(err, "rpc service at %s does not answer", c.RPC.HTTPURL)
	}

	return client.New(logger, b, opts...), nil
}

func (c ClientType) String() string {
	var builder strings.Builder

	switch {
	case c.Embedded != nil:
		fmt.Fprintln(&builder, "Client Type : Embedded Gateway")
		fmt.Fprintf(&builder, "Gateway state DB folder path : %s\n", c.Embedded.DBFolder)
		fmt.Fprintf(&builder, "Genesis accounts : %d\n", len(c.Embedded.Accounts))
	case c.RPC != nil:
		fmt.Fprintln(&builder, "Client Type : JSON-RPC")
		fmt.Fprintf(&builder, "RPC URL : %s\n", c.RPC.HTTPURL)
		if c.RPC.WebsocketURL != "" {
			fmt.Fprintf(&builder, "Websocket URL : %s\n", c.RPC.WebsocketURL)
		}
	default:
		fmt.Fprintln(&builder, "Client Type : None")
	}

	return builder.String()
}
