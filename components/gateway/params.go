package gateway

import (
	"github.com/iotaledger/hive.go/app"
)

// ParametersGateway contains the definition of the parameters used by the gateway.
type ParametersGateway struct {
	// DBFolder defines the folder of the transaction log.
	DBFolder string `default:"gateway" usage:"the folder of the transaction log"`
	// GasCost defines the amount charged from the gas coin of every transaction.
	GasCost uint64 `default:"10" usage:"the amount charged from the gas coin of every transaction"`

	Genesis struct {
		// Accounts are funded with a gas coin when the object store is empty.
		Accounts []string `usage:"the hex addresses funded with a gas coin at genesis"`
		// GasCoinBalance defines the balance of every genesis gas coin.
		GasCoinBalance uint64 `default:"100000" usage:"the balance of every genesis gas coin"`
	}
}

// ParamsGateway contains the configuration used by the gateway component.
var ParamsGateway = &ParametersGateway{}

var params = &app.ComponentParams{
	Params: map[string]any{
		"gateway": ParamsGateway,
	},
}
