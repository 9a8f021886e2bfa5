package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/log"

	"github.com/ferat8/sui/pkg/backend"
	"github.com/ferat8/sui/pkg/backend/mockbackend"
	"github.com/ferat8/sui/pkg/client"
	"github.com/ferat8/sui/pkg/crypto"
	"github.com/ferat8/sui/pkg/gateway"
	"github.com/ferat8/sui/pkg/metrics"
	"github.com/ferat8/sui/pkg/types"
	"github.com/ferat8/sui/pkg/types/tpkg"
)

func TestClientCollection(t *testing.T) {
	object := tpkg.RandMoveObject(types.StructTag{Address: tpkg.RandObjectID(), Module: "m", Name: "S"}, tpkg.RandAddress())
	b := mockbackend.New(backend.KindRPC, object)
	c := client.New(log.NewLogger(), b)

	collector := metrics.New()
	collector.RegisterCollection(metrics.NewClientCollection(collector, c))
	defer collector.Shutdown()

	ctx := context.Background()
	for range 3 {
		_, err := c.ReadAPI.GetObject(ctx, object.ID())
		require.NoError(t, err)
	}

	c.Cache().PutRefs([]types.ObjectRef{{ObjectID: object.ID(), Version: 2, Digest: tpkg.RandObjectDigest()}})

	collector.Collect()

	expected := `
# HELP client_cache_hits Number of object reads answered from the cache.
# TYPE client_cache_hits gauge
client_cache_hits 2
# HELP client_cache_misses Number of object reads that fell back to the backend.
# TYPE client_cache_misses gauge
client_cache_misses 1
# HELP client_objects_invalidated Number of cached objects invalidated by execution effects.
# TYPE client_objects_invalidated counter
client_objects_invalidated 1
`
	require.NoError(t, testutil.GatherAndCompare(collector.Registry, strings.NewReader(expected),
		"client_cache_hits", "client_cache_misses", "client_objects_invalidated"))

	e := echo.New()
	collector.RegisterRoute(e)

	recorder := httptest.NewRecorder()
	e.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, metrics.RouteMetrics, nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "client_cache_size 1")
}

func TestGatewayCollection(t *testing.T) {
	owner, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	state, err := gateway.New(log.NewLogger(),
		gateway.WithDBFolder(t.TempDir()),
		gateway.WithGenesisAccounts(gateway.GenesisAccount{Address: owner.Address(), GasCoins: []uint64{1000, 2000}}),
	)
	require.NoError(t, err)
	defer state.Shutdown()

	collector := metrics.New()
	collector.RegisterCollection(metrics.NewGatewayCollection(collector, state))
	defer collector.Shutdown()

	infos, err := state.GetObjectsOwnedByAddress(owner.Address())
	require.NoError(t, err)
	require.Len(t, infos, 2)

	signed, err := owner.Sign(types.NewSplitCoinTransaction(owner.Address(), infos[0].Ref(), []uint64{10, 20}, infos[1].Ref(), 100))
	require.NoError(t, err)
	response, err := state.ExecuteTransaction(signed)
	require.NoError(t, err)
	require.True(t, response.Effects.Status.Success)

	collector.Collect()

	expected := `
# HELP gateway_events_emitted Number of events emitted by applied transactions.
# TYPE gateway_events_emitted counter
gateway_events_emitted{type="NewObject"} 2
# HELP gateway_transactions Number of transactions in the transaction log.
# TYPE gateway_transactions gauge
gateway_transactions 1
# HELP gateway_transactions_applied Number of transactions applied since start.
# TYPE gateway_transactions_applied counter
gateway_transactions_applied{success="true"} 1
`
	require.NoError(t, testutil.GatherAndCompare(collector.Registry, strings.NewReader(expected),
		"gateway_events_emitted", "gateway_transactions", "gateway_transactions_applied"))
}

func TestCollection(t *testing.T) {
	collection := metrics.NewCollection("test",
		metrics.WithMetric(metrics.NewMetric("requests",
			metrics.WithType(metrics.Counter),
			metrics.WithHelp("Number of requests."),
			metrics.WithLabels("method"),
		)),
		metrics.WithMetric(metrics.NewMetric("requests",
			metrics.WithType(metrics.Gauge),
			metrics.WithHelp("Shadowed."),
		)),
		metrics.WithMetric(nil),
	)
	require.Equal(t, 1, collection.Size())
	require.Equal(t, "test", collection.Metric("requests").Namespace)
	require.Equal(t, metrics.Counter, collection.Metric("requests").Type)
	require.Nil(t, collection.Metric("unknown"))

	collector := metrics.New()
	collector.RegisterCollection(collection)
	collector.Increment("test", "requests", "get")
	collector.Increment("test", "requests", "get")
	collector.Increment("test", "requests")
	collector.Increment("unknown", "requests", "get")

	expected := `
# HELP test_requests Number of requests.
# TYPE test_requests counter
test_requests{method="get"} 2
`
	require.NoError(t, testutil.GatherAndCompare(collector.Registry, strings.NewReader(expected), "test_requests"))
}
