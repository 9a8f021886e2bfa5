package prometheus

// prometheus is the component exposing the metrics of the gateway node.
// Metrics naming should follow the guidelines from: https://prometheus.io/docs/practices/naming/

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/app"
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ferat8/sui/pkg/daemon"
	"github.com/ferat8/sui/pkg/gateway"
	"github.com/ferat8/sui/pkg/metrics"
	"github.com/ferat8/sui/pkg/rpcserver"
)

func init() {
	Component = &app.Component{
		Name:     "Prometheus",
		DepsFunc: func(cDeps dependencies) { deps = cDeps },
		Params:   params,
		Run:      run,
		IsEnabled: func(container *dig.Container) bool {
			if err := container.Provide(metrics.New); err != nil {
				panic(ierrors.Wrap(err, "failed to provide collector"))
			}

			return ParamsPrometheus.Enabled
		},
	}
}

var (
	Component *app.Component
	deps      dependencies
)

type dependencies struct {
	dig.In

	Gateway   *gateway.State
	Server    *rpcserver.Server `optional:"true"`
	Collector *metrics.Collector
}

func run() error {
	Component.LogInfo("Starting Prometheus exporter ...")

	if ParamsPrometheus.RuntimeMetrics {
		deps.Collector.RegisterRuntimeCollectors()
	}

	registerMetrics()

	return Component.Daemon().BackgroundWorker("Prometheus exporter", func(ctx context.Context) {
		Component.LogInfo("Starting Prometheus exporter ... done")

		engine := echo.New()
		engine.Use(middleware.Recover())

		deps.Collector.RegisterRoute(engine)

		bindAddr := ParamsPrometheus.BindAddress
		server := &http.Server{Addr: bindAddr, Handler: engine, ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}

		go func() {
			Component.LogInfof("You can now access the Prometheus exporter using: http://%s%s", bindAddr, metrics.RouteMetrics)
			if err := server.ListenAndServe(); err != nil && !ierrors.Is(err, http.ErrServerClosed) {
				Component.LogError("Stopping Prometheus exporter due to an error ... done")
			}
		}()

		<-ctx.Done()
		Component.LogInfo("Stopping Prometheus exporter ...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		//nolint:contextcheck // false positive
		if err := server.Shutdown(shutdownCtx); err != nil {
			Component.LogError(err.Error())
		}
		deps.Collector.Shutdown()

		Component.LogInfo("Stopping Prometheus exporter ... done")
	}, daemon.PriorityMetrics)
}

func registerMetrics() {
	deps.Collector.RegisterCollection(metrics.NewGatewayCollection(deps.Collector, deps.Gateway))
	if deps.Server != nil {
		deps.Collector.RegisterCollection(metrics.NewRPCCollection(deps.Server))
	}
}
