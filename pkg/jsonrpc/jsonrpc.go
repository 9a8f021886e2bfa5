package jsonrpc

import (
	"encoding/json"

	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ferat8/sui/pkg/types"
)

// Version is the protocol version carried by every message.
const Version = "2.0"

const (
	MethodGetRawObject                   = "sui_getRawObject"
	MethodGetObjectsOwnedByAddress       = "sui_getObjectsOwnedByAddress"
	MethodGetObjectsOwnedByObject        = "sui_getObjectsOwnedByObject"
	MethodGetTotalTransactionNumber      = "sui_getTotalTransactionNumber"
	MethodGetTransactionsInRange         = "sui_getTransactionsInRange"
	MethodGetRecentTransactions          = "sui_getRecentTransactions"
	MethodGetTransaction                 = "sui_getTransaction"
	MethodExecuteTransaction             = "sui_executeTransaction"
	MethodSyncAccountState               = "sui_syncAccountState"
	MethodGetTransactionsByInputObject   = "sui_getTransactionsByInputObject"
	MethodGetTransactionsByMutatedObject = "sui_getTransactionsByMutatedObject"
	MethodGetTransactionsByMoveFunction  = "sui_getTransactionsByMoveFunction"
	MethodGetTransactionsFromAddress     = "sui_getTransactionsFromAddress"
	MethodGetTransactionsToAddress       = "sui_getTransactionsToAddress"
	MethodSubscribeEvent                 = "sui_subscribeEvent"
)

const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeUnsupportedOperation       = -32000
	CodeDecode                     = -32001
	CodeObjectNotFound             = -32002
	CodeTransactionNotFound        = -32003
	CodeInvalidTransaction         = -32004
	CodeInternalInvariantViolation = -32005
	CodeMissingModule              = -32006
	CodeBackendUnavailable         = -32007
)

// codeErrors maps application error codes onto the error taxonomy, in matching order.
var codeErrors = []struct {
	code int
	err  error
}{
	{CodeUnsupportedOperation, types.ErrUnsupportedOperation},
	{CodeDecode, types.ErrDecode},
	{CodeObjectNotFound, types.ErrObjectNotFound},
	{CodeTransactionNotFound, types.ErrTransactionNotFound},
	{CodeInvalidTransaction, types.ErrInvalidTransaction},
	{CodeInternalInvariantViolation, types.ErrInternalInvariantViolation},
	{CodeMissingModule, types.ErrMissingModule},
	{CodeBackendUnavailable, types.ErrBackendUnavailable},
}

// Request is a call, or a notification if ID is empty.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewRequest encodes positional parameters.
func NewRequest(id uint64, method string, params ...any) (*Request, error) {
	if params == nil {
		params = []any{}
	}

	encodedParams, err := json.Marshal(params)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to encode params of %s", method)
	}

	encodedID, err := json.Marshal(id)
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to encode request id")
	}

	return &Request{JSONRPC: Version, ID: encodedID, Method: method, Params: encodedParams}, nil
}

// PositionalParams splits the params array.
func (r *Request) PositionalParams() ([]json.RawMessage, error) {
	if len(r.Params) == 0 {
		return nil, nil
	}

	var params []json.RawMessage
	if err := json.Unmarshal(r.Params, &params); err != nil {
		return nil, NewError(CodeInvalidParams, "params must be an array: "+err.Error())
	}

	return params, nil
}

// Response carries either a result or an error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewResultResponse encodes the result of a call.
func NewResultResponse(id json.RawMessage, result any) (*Response, error) {
	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to encode result")
	}

	return &Response{JSONRPC: Version, ID: id, Result: encoded}, nil
}

// NewErrorResponse reports a failed call.
func NewErrorResponse(id json.RawMessage, err error) *Response {
	if id == nil {
		id = json.RawMessage("null")
	}

	return &Response{JSONRPC: Version, ID: id, Error: ErrorFromGo(err)}
}

// Notification is pushed by the server on a subscription.
type Notification struct {
	JSONRPC string             `json:"jsonrpc"`
	Method  string             `json:"method"`
	Params  NotificationParams `json:"params"`
}

type NotificationParams struct {
	Subscription string          `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

// Error is the error object of a response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// Err converts the error object back into the taxonomy. Protocol level errors map to ErrDecode.
func (e *Error) Err() error {
	for _, entry := range codeErrors {
		if entry.code == e.Code {
			return ierrors.Wrapf(entry.err, "remote: %s", e.Message)
		}
	}

	return ierrors.Wrapf(types.ErrDecode, "remote error %d: %s", e.Code, e.Message)
}

// ErrorFromGo converts an error into an error object, preserving its taxonomy class.
func ErrorFromGo(err error) *Error {
	var rpcErr *Error
	if ierrors.As(err, &rpcErr) {
		return rpcErr
	}

	for _, entry := range codeErrors {
		if ierrors.Is(err, entry.err) {
			return NewError(entry.code, err.Error())
		}
	}

	return NewError(CodeInternalError, err.Error())
}
