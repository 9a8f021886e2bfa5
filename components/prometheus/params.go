package prometheus

import (
	"github.com/iotaledger/hive.go/app"
)

// ParametersPrometheus contains the definition of the parameters used by the Prometheus exporter.
type ParametersPrometheus struct {
	// Enabled defines whether the exporter is enabled.
	Enabled bool `default:"true" usage:"whether the Prometheus exporter is enabled"`
	// BindAddress defines the bind address of the exporter.
	BindAddress string `default:"127.0.0.1:9184" usage:"the bind address on which the Prometheus exporter listens on"`
	// RuntimeMetrics defines whether to include go runtime and process metrics.
	RuntimeMetrics bool `default:"false" usage:"include go runtime and process metrics"`
}

var ParamsPrometheus = &ParametersPrometheus{}

var params = &app.ComponentParams{
	Params: map[string]any{
		"prometheus": ParamsPrometheus,
	},
}
