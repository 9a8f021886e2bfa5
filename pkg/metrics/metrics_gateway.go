package metrics

import (
	"strconv"

	"github.com/ferat8/sui/pkg/gateway"
	"github.com/ferat8/sui/pkg/rpcserver"
	"github.com/ferat8/sui/pkg/types"
)

const (
	gatewayNamespace = "gateway"

	sizeBytesTransactionLog = "size_bytes_transaction_log"
	transactionsTotal       = "transactions"
	transactionsApplied     = "transactions_applied"
	eventsEmitted           = "events_emitted"

	rpcNamespace = "rpc"

	subscriptions = "subscriptions"
)

// NewGatewayCollection exposes the state of a gateway.
func NewGatewayCollection(collector *Collector, state *gateway.State) *Collection {
	return NewCollection(gatewayNamespace,
		WithMetric(NewMetric(sizeBytesTransactionLog,
			WithType(Gauge),
			WithHelp("Transaction log size in bytes."),
			WithCollectFunc(func() (metricValue float64, labelValues []string) {
				return float64(state.Size()), nil
			}),
		)),
		WithMetric(NewMetric(transactionsTotal,
			WithType(Gauge),
			WithHelp("Number of transactions in the transaction log."),
			WithCollectFunc(func() (metricValue float64, labelValues []string) {
				total, err := state.GetTotalTransactionNumber()
				if err != nil {
					return 0, nil
				}

				return float64(total), nil
			}),
		)),
		WithMetric(NewMetric(transactionsApplied,
			WithType(Counter),
			WithLabels("success"),
			WithHelp("Number of transactions applied since start."),
			WithInitFunc(func() (unhook func()) {
				return state.Events.TransactionExecuted.Hook(func(response *types.TransactionResponse) {
					collector.Increment(gatewayNamespace, transactionsApplied, strconv.FormatBool(response.Effects.Status.Success))
				}).Unhook
			}),
		)),
		WithMetric(NewMetric(eventsEmitted,
			WithType(Counter),
			WithLabels("type"),
			WithHelp("Number of events emitted by applied transactions."),
			WithInitFunc(func() (unhook func()) {
				return state.Events.EventEmitted.Hook(func(envelope *types.EventEnvelope) {
					collector.Increment(gatewayNamespace, eventsEmitted, envelope.Event.Type.String())
				}).Unhook
			}),
		)),
	)
}

// NewRPCCollection exposes the state of a JSON-RPC server.
func NewRPCCollection(server *rpcserver.Server) *Collection {
	return NewCollection(rpcNamespace,
		WithMetric(NewMetric(subscriptions,
			WithType(Gauge),
			WithHelp("Number of active event subscriptions."),
			WithCollectFunc(func() (metricValue float64, labelValues []string) {
				return float64(server.SubscriptionCount()), nil
			}),
		)),
	)
}
