package gateway

import (
	"context"

	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/app"
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ferat8/sui/pkg/daemon"
	"github.com/ferat8/sui/pkg/gateway"
	"github.com/ferat8/sui/pkg/types"
)

func init() {
	Component = &app.Component{
		Name:      "Gateway",
		DepsFunc:  func(cDeps dependencies) { deps = cDeps },
		Params:    params,
		Provide:   provide,
		Configure: configure,
		Run:       run,
	}
}

var (
	Component *app.Component
	deps      dependencies
)

type dependencies struct {
	dig.In

	Gateway *gateway.State
}

func provide(c *dig.Container) error {
	return c.Provide(func() (*gateway.State, error) {
		accounts, err := genesisAccounts()
		if err != nil {
			return nil, err
		}

		return gateway.New(Component.Logger,
			gateway.WithDBFolder(ParamsGateway.DBFolder),
			gateway.WithGasCost(ParamsGateway.GasCost),
			gateway.WithGenesisAccounts(accounts...),
		)
	})
}

func configure() error {
	deps.Gateway.Events.TransactionExecuted.Hook(func(response *types.TransactionResponse) {
		if !response.Effects.Status.Success {
			Component.LogWarnf("TransactionFailed: %s - %s", response.Digest(), response.Effects.Status.Error)

			return
		}

		Component.LogDebugf("TransactionExecuted: %s", response.Digest())
	})

	return nil
}

func run() error {
	return Component.Daemon().BackgroundWorker(Component.Name, func(ctx context.Context) {
		<-ctx.Done()
		Component.LogInfo("Gracefully shutting down the Gateway...")
		deps.Gateway.Shutdown()
	}, daemon.PriorityGateway)
}

func genesisAccounts() ([]gateway.GenesisAccount, error) {
	accounts := make([]gateway.GenesisAccount, 0, len(ParamsGateway.Genesis.Accounts))
	for _, account := range ParamsGateway.Genesis.Accounts {
		address, err := types.AddressFromHex(account)
		if err != nil {
			return nil, ierrors.Wrap(err, "invalid genesis account")
		}

		accounts = append(accounts, gateway.GenesisAccount{Address: address, GasCoins: []uint64{ParamsGateway.Genesis.GasCoinBalance}})
	}

	return accounts, nil
}
