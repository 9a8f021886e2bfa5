package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	flag "github.com/spf13/pflag"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"

	"github.com/ferat8/sui/pkg/client"
	"github.com/ferat8/sui/pkg/config"
	"github.com/ferat8/sui/pkg/metrics"
	"github.com/ferat8/sui/pkg/types"
)

type readerConfig struct {
	ConfigPath string
	Owner      string
	Sync       bool
	ObjectIDs  []string

	// MetricsListener serves the client metrics after reading until the context is done. Nil disables it.
	MetricsListener net.Listener
	Out             io.Writer
}

func main() {
	configPath := flag.String("config", "client.json", "the client config file")
	owner := flag.String("owner", "", "list the objects owned by this address")
	sync := flag.Bool("sync", false, "sync the owner's objects before reading")
	metricsBindAddress := flag.String("metrics", "", "serve the client metrics on this address after reading, until interrupted")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := readerConfig{
		ConfigPath: *configPath,
		Owner:      *owner,
		Sync:       *sync,
		ObjectIDs:  flag.Args(),
		Out:        os.Stdout,
	}

	if *metricsBindAddress != "" {
		listener, err := net.Listen("tcp", *metricsBindAddress)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg.MetricsListener = listener
	}

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg readerConfig) error {
	clientType, err := config.LoadClientType(cfg.ConfigPath)
	if err != nil {
		return err
	}

	logger := log.NewLogger().NewChildLogger("ObjectReader")

	c, err := clientType.Init(ctx, logger)
	if err != nil {
		return ierrors.Wrapf(err, "failed to init client (%s)", clientType)
	}
	defer c.Close()

	var collector *metrics.Collector
	if cfg.MetricsListener != nil {
		collector = metrics.New()
		collector.RegisterCollection(metrics.NewClientCollection(collector, c))
		defer collector.Shutdown()
	}

	if err := readObjects(ctx, c, cfg); err != nil {
		return err
	}

	if collector == nil {
		return nil
	}

	return serveMetrics(ctx, logger, collector, cfg.MetricsListener)
}

func readObjects(ctx context.Context, c *client.Client, cfg readerConfig) error {
	if cfg.Owner != "" {
		address, err := types.AddressFromHex(cfg.Owner)
		if err != nil {
			return err
		}

		if cfg.Sync {
			if err := c.SyncClientState(ctx, address); err != nil {
				return err
			}
		}

		infos, err := c.ReadAPI.GetObjectsOwnedByAddress(ctx, address)
		if err != nil {
			return err
		}
		for _, info := range infos {
			fmt.Fprintf(cfg.Out, "%s %d %s %s\n", info.ObjectID, info.Version, info.Digest, info.Type)
		}
	}

	for _, objectID := range cfg.ObjectIDs {
		id, err := types.ObjectIDFromHex(objectID)
		if err != nil {
			return err
		}

		object, err := c.ReadAPI.GetParsedObject(ctx, id)
		if err != nil {
			return err
		}

		if err := printObject(cfg.Out, object); err != nil {
			return err
		}
	}

	return nil
}

func printObject(out io.Writer, object *client.TypedObject) error {
	fmt.Fprintln(out, object)

	if object.Layout == nil {
		return nil
	}

	value, err := object.Decode()
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(value.ToMap(), "", "  ")
	if err != nil {
		return ierrors.Wrap(err, "failed to encode fields")
	}
	fmt.Fprintln(out, string(encoded))

	return nil
}

func serveMetrics(ctx context.Context, logger log.Logger, collector *metrics.Collector, listener net.Listener) error {
	engine := echo.New()
	engine.HideBanner = true
	engine.HidePort = true
	collector.RegisterRoute(engine)

	server := &http.Server{Handler: engine, ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		logger.LogInfof("serving client metrics on http://%s%s", listener.Addr(), metrics.RouteMetrics)
		serveErr <- server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		return ierrors.Wrap(err, "metrics server stopped")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	//nolint:contextcheck // the serving context is already done
	if err := server.Shutdown(shutdownCtx); err != nil {
		return ierrors.Wrap(err, "failed to stop metrics server")
	}

	return nil
}
