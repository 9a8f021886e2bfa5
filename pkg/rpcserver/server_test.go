package rpcserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/log"

	"github.com/ferat8/sui/pkg/crypto"
	"github.com/ferat8/sui/pkg/gateway"
	"github.com/ferat8/sui/pkg/jsonrpc"
	"github.com/ferat8/sui/pkg/rpcserver"
	"github.com/ferat8/sui/pkg/types"
)

type TestFramework struct {
	test   *testing.T
	State  *gateway.State
	Server *httptest.Server
	Owner  *crypto.KeyPair
}

func NewTestFramework(t *testing.T) *TestFramework {
	owner, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	state, err := gateway.New(log.NewLogger(),
		gateway.WithDBFolder(t.TempDir()),
		gateway.WithGenesisAccounts(gateway.GenesisAccount{Address: owner.Address(), GasCoins: []uint64{100, 200}}),
	)
	require.NoError(t, err)

	server := httptest.NewServer(rpcserver.New(log.NewLogger(), state).Echo)
	t.Cleanup(func() {
		server.Close()
		state.Shutdown()
	})

	return &TestFramework{test: t, State: state, Server: server, Owner: owner}
}

func (f *TestFramework) Post(body []byte) *jsonrpc.Response {
	httpResponse, err := http.Post(f.Server.URL+rpcserver.RouteCall, "application/json", bytes.NewReader(body))
	require.NoError(f.test, err)
	defer httpResponse.Body.Close()
	require.Equal(f.test, http.StatusOK, httpResponse.StatusCode)

	response := new(jsonrpc.Response)
	require.NoError(f.test, json.NewDecoder(httpResponse.Body).Decode(response))

	return response
}

func (f *TestFramework) Call(method string, params ...any) *jsonrpc.Response {
	request, err := jsonrpc.NewRequest(1, method, params...)
	require.NoError(f.test, err)

	body, err := json.Marshal(request)
	require.NoError(f.test, err)

	return f.Post(body)
}

func TestHealth(t *testing.T) {
	tf := NewTestFramework(t)

	response, err := http.Get(tf.Server.URL + rpcserver.RouteHealth)
	require.NoError(t, err)
	defer response.Body.Close()
	require.Equal(t, http.StatusOK, response.StatusCode)
}

func TestGetRawObject(t *testing.T) {
	tf := NewTestFramework(t)

	response := tf.Call(jsonrpc.MethodGetRawObject, gateway.FrameworkPackageID)
	require.Nil(t, response.Error)

	raw := new(types.RawObject)
	require.NoError(t, json.Unmarshal(response.Result, raw))
	require.NoError(t, raw.Validate())
	require.True(t, raw.Exists())

	expected, err := tf.State.GetRawObject(gateway.FrameworkPackageID)
	require.NoError(t, err)
	require.Equal(t, expected.Object.Ref(), raw.Object.Ref())

	infos := tf.Call(jsonrpc.MethodGetObjectsOwnedByAddress, tf.Owner.Address())
	require.Nil(t, infos.Error)

	var owned []*types.ObjectInfo
	require.NoError(t, json.Unmarshal(infos.Result, &owned))
	require.Len(t, owned, 2)
}

func TestCallErrors(t *testing.T) {
	tf := NewTestFramework(t)

	unknown := tf.Call("sui_doesNotExist")
	require.NotNil(t, unknown.Error)
	require.Equal(t, jsonrpc.CodeMethodNotFound, unknown.Error.Code)

	missing := tf.Call(jsonrpc.MethodGetRawObject)
	require.NotNil(t, missing.Error)
	require.Equal(t, jsonrpc.CodeInvalidParams, missing.Error.Code)

	invalid := tf.Call(jsonrpc.MethodGetRawObject, "not an id")
	require.NotNil(t, invalid.Error)
	require.Equal(t, jsonrpc.CodeInvalidParams, invalid.Error.Code)

	notFound := tf.Call(jsonrpc.MethodGetTransaction, types.NewTransactionDigest([]byte("missing")))
	require.NotNil(t, notFound.Error)
	require.Equal(t, jsonrpc.CodeTransactionNotFound, notFound.Error.Code)
	require.ErrorIs(t, notFound.Error.Err(), types.ErrTransactionNotFound)

	parse := tf.Post([]byte("{"))
	require.NotNil(t, parse.Error)
	require.Equal(t, jsonrpc.CodeParseError, parse.Error.Code)

	version := tf.Post([]byte(`{"jsonrpc":"1.0","id":1,"method":"sui_getTotalTransactionNumber"}`))
	require.NotNil(t, version.Error)
	require.Equal(t, jsonrpc.CodeInvalidRequest, version.Error.Code)
}

func TestExecuteTransaction(t *testing.T) {
	tf := NewTestFramework(t)

	infos, err := tf.State.GetObjectsOwnedByAddress(tf.Owner.Address())
	require.NoError(t, err)
	require.Len(t, infos, 2)

	recipient, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	signed, err := tf.Owner.Sign(types.NewTransferObjectTransaction(tf.Owner.Address(), infos[0].Ref(), recipient.Address(), infos[1].Ref(), 100))
	require.NoError(t, err)

	response := tf.Call(jsonrpc.MethodExecuteTransaction, signed.TxBytes, signed.Scheme, signed.Signature, signed.PublicKey)
	require.Nil(t, response.Error)

	executed := new(types.TransactionResponse)
	require.NoError(t, json.Unmarshal(response.Result, executed))
	require.Equal(t, signed.Digest(), executed.Digest())
	require.True(t, executed.Effects.Status.Success)

	total := tf.Call(jsonrpc.MethodGetTotalTransactionNumber)
	require.Nil(t, total.Error)
	require.JSONEq(t, "1", string(total.Result))

	byFunction := tf.Call(jsonrpc.MethodGetTransactionsByMoveFunction, gateway.FrameworkPackageID, "transfer", nil)
	require.Nil(t, byFunction.Error)

	var digests []types.TxSeqDigest
	require.NoError(t, json.Unmarshal(byFunction.Result, &digests))
	require.Equal(t, []types.TxSeqDigest{{Seq: 0, Digest: signed.Digest()}}, digests)

	signed.Signature[0] ^= 0xff
	rejected := tf.Call(jsonrpc.MethodExecuteTransaction, signed.TxBytes, signed.Scheme, signed.Signature, signed.PublicKey)
	require.NotNil(t, rejected.Error)
	require.Equal(t, jsonrpc.CodeInvalidTransaction, rejected.Error.Code)
}
