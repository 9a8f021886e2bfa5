package client

import (
	"context"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"

	"github.com/ferat8/sui/pkg/backend"
	"github.com/ferat8/sui/pkg/layout"
	"github.com/ferat8/sui/pkg/moduleloader"
	"github.com/ferat8/sui/pkg/objectcache"
	"github.com/ferat8/sui/pkg/types"
)

// Client is a session against a single backend. The object cache, the decoded module cache and the layout memo
// live as long as the client and are shared by all of its APIs.
type Client struct {
	ReadAPI      *ReadAPI
	FullNodeAPI  *FullNodeAPI
	EventAPI     *EventAPI
	QuorumDriver *QuorumDriver

	backend  backend.Backend
	cache    *objectcache.Cache
	loader   *moduleloader.Loader
	resolver *layout.Resolver
	logger   log.Logger

	optsLoader   []options.Option[moduleloader.Loader]
	optsResolver []options.Option[layout.Resolver]
}

// New creates a client session on top of the given backend.
func New(logger log.Logger, b backend.Backend, opts ...options.Option[Client]) *Client {
	return options.Apply(&Client{
		backend: b,
		cache:   objectcache.New(),
		logger:  logger.NewChildLogger("Client"),
	}, opts, func(c *Client) {
		c.ReadAPI = &ReadAPI{
			backend: c.backend,
			cache:   c.cache,
			logger:  c.logger.NewChildLogger("ReadAPI"),
		}
		c.loader = moduleloader.New(c.logger.NewChildLogger("ModuleLoader"), c.ReadAPI, c.optsLoader...)
		c.resolver = layout.New(c.logger.NewChildLogger("LayoutResolver"), c.optsResolver...)
		c.ReadAPI.loader = c.loader
		c.ReadAPI.resolver = c.resolver

		c.FullNodeAPI = &FullNodeAPI{backend: c.backend}
		c.EventAPI = &EventAPI{backend: c.backend}
		c.QuorumDriver = &QuorumDriver{
			Events:  NewEvents(),
			backend: c.backend,
			cache:   c.cache,
			logger:  c.logger.NewChildLogger("QuorumDriver"),
		}

		c.logger.LogInfo("client initialized", "backend", c.backend.Kind())
	})
}

// SyncClientState asks the backend to refresh its view of the address.
func (c *Client) SyncClientState(ctx context.Context, address types.SuiAddress) error {
	if err := c.backend.SyncAccountState(ctx, address); err != nil {
		return ierrors.Wrapf(err, "failed to sync state of %s on %s backend", address, c.backend.Kind())
	}

	return nil
}

// Backend returns the backend the client is bound to.
func (c *Client) Backend() backend.Backend {
	return c.backend
}

// Cache returns the session's object cache.
func (c *Client) Cache() *objectcache.Cache {
	return c.cache
}

// Loader returns the session's module loader.
func (c *Client) Loader() *moduleloader.Loader {
	return c.loader
}

// Resolver returns the session's layout resolver.
func (c *Client) Resolver() *layout.Resolver {
	return c.resolver
}

// Close releases the backend.
func (c *Client) Close() error {
	c.logger.LogInfo("closing client")

	return c.backend.Close()
}

// WithLoaderOptions configures the module loader.
func WithLoaderOptions(opts ...options.Option[moduleloader.Loader]) options.Option[Client] {
	return func(c *Client) {
		c.optsLoader = append(c.optsLoader, opts...)
	}
}

// WithResolverOptions configures the layout resolver.
func WithResolverOptions(opts ...options.Option[layout.Resolver]) options.Option[Client] {
	return func(c *Client) {
		c.optsResolver = append(c.optsResolver, opts...)
	}
}
