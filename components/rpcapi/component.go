package rpcapi

import (
	"context"

	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/app"

	"github.com/ferat8/sui/pkg/daemon"
	"github.com/ferat8/sui/pkg/gateway"
	"github.com/ferat8/sui/pkg/rpcserver"
)

func init() {
	Component = &app.Component{
		Name:     "RPCAPI",
		DepsFunc: func(cDeps dependencies) { deps = cDeps },
		Params:   params,
		Provide:  provide,
		Run:      run,
		IsEnabled: func(c *dig.Container) bool {
			return ParamsRPCAPI.Enabled
		},
	}
}

var (
	Component *app.Component
	deps      dependencies
)

type dependencies struct {
	dig.In

	Server *rpcserver.Server
}

func provide(c *dig.Container) error {
	type serverDeps struct {
		dig.In

		Gateway *gateway.State
	}

	if err := c.Provide(func(deps serverDeps) *rpcserver.Server {
		return rpcserver.New(Component.Logger, deps.Gateway,
			rpcserver.WithDebugRequestLoggerEnabled(ParamsRPCAPI.DebugRequestLoggerEnabled),
			rpcserver.WithMaxBodyLength(ParamsRPCAPI.Limits.MaxBodyLength),
			rpcserver.WithOutboxSize(ParamsRPCAPI.Limits.SubscriptionOutboxSize),
		)
	}); err != nil {
		Component.LogPanic(err.Error())
	}

	return nil
}

func run() error {
	Component.LogInfo("Starting JSON-RPC server ...")

	if err := Component.Daemon().BackgroundWorker("JSON-RPC server", func(ctx context.Context) {
		Component.LogInfo("Starting JSON-RPC server ... done")

		bindAddr := ParamsRPCAPI.BindAddress

		go func() {
			Component.LogInfof("You can now access the API using: http://%s", bindAddr)
			if err := deps.Server.Start(bindAddr); err != nil {
				Component.LogWarnf("Stopped JSON-RPC server due to an error (%s)", err)
			}
		}()

		<-ctx.Done()
		Component.LogInfo("Stopping JSON-RPC server ...")

		if err := deps.Server.Shutdown(ParamsRPCAPI.ShutdownTimeout); err != nil {
			Component.LogWarn(err.Error())
		}

		Component.LogInfo("Stopping JSON-RPC server ... done")
	}, daemon.PriorityRPCAPI); err != nil {
		Component.LogPanicf("failed to start worker: %s", err)
	}

	return nil
}
