package rpcserver

import (
	"encoding/json"
	"strconv"

	"github.com/ferat8/sui/pkg/jsonrpc"
	"github.com/ferat8/sui/pkg/types"
)

type method func(params []json.RawMessage) (any, error)

func (s *Server) methodTable() map[string]method {
	return map[string]method{
		jsonrpc.MethodGetRawObject: func(params []json.RawMessage) (any, error) {
			id, err := param[types.ObjectID](params, 0)
			if err != nil {
				return nil, err
			}

			return s.service.GetRawObject(id)
		},
		jsonrpc.MethodGetObjectsOwnedByAddress: func(params []json.RawMessage) (any, error) {
			address, err := param[types.SuiAddress](params, 0)
			if err != nil {
				return nil, err
			}

			return s.service.GetObjectsOwnedByAddress(address)
		},
		jsonrpc.MethodGetObjectsOwnedByObject: func(params []json.RawMessage) (any, error) {
			id, err := param[types.ObjectID](params, 0)
			if err != nil {
				return nil, err
			}

			return s.service.GetObjectsOwnedByObject(id)
		},
		jsonrpc.MethodGetTotalTransactionNumber: func(_ []json.RawMessage) (any, error) {
			return s.service.GetTotalTransactionNumber()
		},
		jsonrpc.MethodGetTransactionsInRange: func(params []json.RawMessage) (any, error) {
			start, err := param[uint64](params, 0)
			if err != nil {
				return nil, err
			}
			end, err := param[uint64](params, 1)
			if err != nil {
				return nil, err
			}

			return s.service.GetTransactionsInRange(start, end)
		},
		jsonrpc.MethodGetRecentTransactions: func(params []json.RawMessage) (any, error) {
			count, err := param[uint64](params, 0)
			if err != nil {
				return nil, err
			}

			return s.service.GetRecentTransactions(count)
		},
		jsonrpc.MethodGetTransaction: func(params []json.RawMessage) (any, error) {
			digest, err := param[types.TransactionDigest](params, 0)
			if err != nil {
				return nil, err
			}

			return s.service.GetTransaction(digest)
		},
		jsonrpc.MethodExecuteTransaction: func(params []json.RawMessage) (any, error) {
			tx := new(types.SignedTransaction)

			var err error
			if tx.TxBytes, err = param[[]byte](params, 0); err != nil {
				return nil, err
			}
			if tx.Scheme, err = param[types.SignatureScheme](params, 1); err != nil {
				return nil, err
			}
			if tx.Signature, err = param[[]byte](params, 2); err != nil {
				return nil, err
			}
			if tx.PublicKey, err = param[[]byte](params, 3); err != nil {
				return nil, err
			}

			return s.service.ExecuteTransaction(tx)
		},
		jsonrpc.MethodSyncAccountState: func(params []json.RawMessage) (any, error) {
			address, err := param[types.SuiAddress](params, 0)
			if err != nil {
				return nil, err
			}

			return nil, s.service.SyncAccountState(address)
		},
		jsonrpc.MethodGetTransactionsByInputObject: func(params []json.RawMessage) (any, error) {
			id, err := param[types.ObjectID](params, 0)
			if err != nil {
				return nil, err
			}

			return s.service.GetTransactionsByInputObject(id)
		},
		jsonrpc.MethodGetTransactionsByMutatedObject: func(params []json.RawMessage) (any, error) {
			id, err := param[types.ObjectID](params, 0)
			if err != nil {
				return nil, err
			}

			return s.service.GetTransactionsByMutatedObject(id)
		},
		jsonrpc.MethodGetTransactionsByMoveFunction: func(params []json.RawMessage) (any, error) {
			pkg, err := param[types.ObjectID](params, 0)
			if err != nil {
				return nil, err
			}
			module, err := optionalParam[string](params, 1)
			if err != nil {
				return nil, err
			}
			function, err := optionalParam[string](params, 2)
			if err != nil {
				return nil, err
			}

			return s.service.GetTransactionsByMoveFunction(pkg, module, function)
		},
		jsonrpc.MethodGetTransactionsFromAddress: func(params []json.RawMessage) (any, error) {
			address, err := param[types.SuiAddress](params, 0)
			if err != nil {
				return nil, err
			}

			return s.service.GetTransactionsFromAddress(address)
		},
		jsonrpc.MethodGetTransactionsToAddress: func(params []json.RawMessage) (any, error) {
			address, err := param[types.SuiAddress](params, 0)
			if err != nil {
				return nil, err
			}

			return s.service.GetTransactionsToAddress(address)
		},
	}
}

func param[T any](params []json.RawMessage, index int) (T, error) {
	var value T
	if index >= len(params) {
		return value, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "missing parameter "+strconv.Itoa(index))
	}

	if err := json.Unmarshal(params[index], &value); err != nil {
		return value, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "invalid parameter "+strconv.Itoa(index)+": "+err.Error())
	}

	return value, nil
}

func optionalParam[T any](params []json.RawMessage, index int) (T, error) {
	if index >= len(params) || string(params[index]) == "null" {
		var zero T

		return zero, nil
	}

	return param[T](params, index)
}
