package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/atomic"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"

	"github.com/ferat8/sui/pkg/backend"
	"github.com/ferat8/sui/pkg/jsonrpc"
	"github.com/ferat8/sui/pkg/types"
)

// DefaultMaxResponseSize bounds the body of a single response.
const DefaultMaxResponseSize int64 = 64 << 20

// Backend queries a remote ledger service over JSON-RPC.
type Backend struct {
	logger     log.Logger
	url        string
	httpClient *http.Client
	nextID     atomic.Uint64

	optsWebsocketURL    string
	optsTimeout         time.Duration
	optsMaxResponseSize int64
}

var _ backend.Backend = &Backend{}

// New creates a backend calling the JSON-RPC endpoint at url.
func New(logger log.Logger, url string, opts ...options.Option[Backend]) *Backend {
	return options.Apply(&Backend{
		logger:              logger.NewChildLogger("RPCBackend"),
		url:                 url,
		optsTimeout:         30 * time.Second,
		optsMaxResponseSize: DefaultMaxResponseSize,
	}, opts, func(b *Backend) {
		if b.httpClient == nil {
			b.httpClient = &http.Client{Timeout: b.optsTimeout}
		}
	})
}

// WithWebsocketURL enables event subscriptions over the given websocket endpoint.
func WithWebsocketURL(url string) options.Option[Backend] {
	return func(b *Backend) {
		b.optsWebsocketURL = url
	}
}

// WithTimeout sets the timeout of a single call.
func WithTimeout(timeout time.Duration) options.Option[Backend] {
	return func(b *Backend) {
		b.optsTimeout = timeout
	}
}

// WithMaxResponseSize sets the size in bytes above which responses are rejected as malformed.
func WithMaxResponseSize(size int64) options.Option[Backend] {
	return func(b *Backend) {
		b.optsMaxResponseSize = size
	}
}

// WithHTTPClient replaces the HTTP client used for calls.
func WithHTTPClient(client *http.Client) options.Option[Backend] {
	return func(b *Backend) {
		b.httpClient = client
	}
}

func (b *Backend) Kind() backend.Kind {
	return backend.KindRPC
}

func (b *Backend) GetRawObject(ctx context.Context, id types.ObjectID) (*types.RawObject, error) {
	raw := new(types.RawObject)
	if err := b.call(ctx, jsonrpc.MethodGetRawObject, raw, id); err != nil {
		return nil, err
	}

	if err := raw.Validate(); err != nil {
		return nil, err
	}
	if raw.ID() != id {
		return nil, ierrors.Wrapf(types.ErrDecode, "requested %s but received %s", id, raw.ID())
	}

	return raw, nil
}

func (b *Backend) GetObjectsOwnedByAddress(ctx context.Context, address types.SuiAddress) ([]*types.ObjectInfo, error) {
	var infos []*types.ObjectInfo

	return infos, b.call(ctx, jsonrpc.MethodGetObjectsOwnedByAddress, &infos, address)
}

func (b *Backend) GetObjectsOwnedByObject(ctx context.Context, id types.ObjectID) ([]*types.ObjectInfo, error) {
	var infos []*types.ObjectInfo

	return infos, b.call(ctx, jsonrpc.MethodGetObjectsOwnedByObject, &infos, id)
}

func (b *Backend) GetTotalTransactionNumber(ctx context.Context) (uint64, error) {
	var total uint64

	return total, b.call(ctx, jsonrpc.MethodGetTotalTransactionNumber, &total)
}

func (b *Backend) GetTransactionsInRange(ctx context.Context, start uint64, end uint64) ([]types.TxSeqDigest, error) {
	return b.transactions(ctx, jsonrpc.MethodGetTransactionsInRange, start, end)
}

func (b *Backend) GetRecentTransactions(ctx context.Context, count uint64) ([]types.TxSeqDigest, error) {
	return b.transactions(ctx, jsonrpc.MethodGetRecentTransactions, count)
}

func (b *Backend) GetTransaction(ctx context.Context, digest types.TransactionDigest) (*types.TransactionResponse, error) {
	response := new(types.TransactionResponse)
	if err := b.call(ctx, jsonrpc.MethodGetTransaction, response, digest); err != nil {
		return nil, err
	}

	return response, nil
}

func (b *Backend) ExecuteTransaction(ctx context.Context, tx *types.SignedTransaction) (*types.TransactionResponse, error) {
	response := new(types.TransactionResponse)
	if err := b.call(ctx, jsonrpc.MethodExecuteTransaction, response, tx.TxBytes, tx.Scheme, tx.Signature, tx.PublicKey); err != nil {
		return nil, err
	}

	if response.Effects == nil {
		return nil, ierrors.Wrapf(types.ErrDecode, "response of transaction %s carries no effects", tx.Digest())
	}

	return response, nil
}

func (b *Backend) SyncAccountState(ctx context.Context, address types.SuiAddress) error {
	return b.call(ctx, jsonrpc.MethodSyncAccountState, nil, address)
}

func (b *Backend) GetTransactionsByInputObject(ctx context.Context, id types.ObjectID) ([]types.TxSeqDigest, error) {
	return b.transactions(ctx, jsonrpc.MethodGetTransactionsByInputObject, id)
}

func (b *Backend) GetTransactionsByMutatedObject(ctx context.Context, id types.ObjectID) ([]types.TxSeqDigest, error) {
	return b.transactions(ctx, jsonrpc.MethodGetTransactionsByMutatedObject, id)
}

func (b *Backend) GetTransactionsByMoveFunction(ctx context.Context, pkg types.ObjectID, module string, function string) ([]types.TxSeqDigest, error) {
	return b.transactions(ctx, jsonrpc.MethodGetTransactionsByMoveFunction, pkg, module, function)
}

func (b *Backend) GetTransactionsFromAddress(ctx context.Context, address types.SuiAddress) ([]types.TxSeqDigest, error) {
	return b.transactions(ctx, jsonrpc.MethodGetTransactionsFromAddress, address)
}

func (b *Backend) GetTransactionsToAddress(ctx context.Context, address types.SuiAddress) ([]types.TxSeqDigest, error) {
	return b.transactions(ctx, jsonrpc.MethodGetTransactionsToAddress, address)
}

func (b *Backend) Close() error {
	b.httpClient.CloseIdleConnections()

	return nil
}

func (b *Backend) transactions(ctx context.Context, method string, params ...any) ([]types.TxSeqDigest, error) {
	var result []types.TxSeqDigest

	return result, b.call(ctx, method, &result, params...)
}

// call performs one round trip. Transport failures wrap ErrBackendUnavailable, malformed answers ErrDecode and
// remote errors are mapped back onto the error taxonomy.
func (b *Backend) call(ctx context.Context, method string, result any, params ...any) error {
	request, err := jsonrpc.NewRequest(b.nextID.Inc(), method, params...)
	if err != nil {
		return ierrors.Wrapf(types.ErrDecode, "failed to encode %s: %s", method, err)
	}

	body, err := json.Marshal(request)
	if err != nil {
		return ierrors.Wrapf(types.ErrDecode, "failed to encode %s: %s", method, err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return backend.Unavailable(backend.KindRPC, method, err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	b.logger.LogTrace("call", "method", method, "id", string(request.ID))

	httpResponse, err := b.httpClient.Do(httpRequest)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		return backend.Unavailable(backend.KindRPC, method, err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return backend.Unavailable(backend.KindRPC, method, ierrors.Errorf("unexpected status %s", httpResponse.Status))
	}

	response := new(jsonrpc.Response)
	if err := json.NewDecoder(io.LimitReader(httpResponse.Body, b.optsMaxResponseSize)).Decode(response); err != nil {
		return ierrors.Wrapf(types.ErrDecode, "malformed response to %s: %s", method, err)
	}

	if response.Error != nil {
		return response.Error.Err()
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(response.Result, result); err != nil {
		return ierrors.Wrapf(types.ErrDecode, "malformed result of %s: %s", method, err)
	}

	return nil
}
