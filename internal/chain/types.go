package chain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// =============================================================================
// JSON-RPC Envelope
// =============================================================================

// RPCRequest is a JSON-RPC 2.0 request.
type RPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// RPCResponse is a JSON-RPC 2.0 response.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	ID      int             `json:"id"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown transaction") || strings.Contains(msg, "not found")
}

// =============================================================================
// Invocation Types
// =============================================================================

// StackItem is a Neo VM stack item in RPC representation.
type StackItem struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// InvokeResult is the result of invokefunction/invokescript.
type InvokeResult struct {
	Script      string      `json:"script"`
	State       string      `json:"state"`
	GasConsumed string      `json:"gasconsumed"`
	Exception   string      `json:"exception"`
	Stack       []StackItem `json:"stack"`
	Tx          string      `json:"tx,omitempty"`
}

// ApplicationLog is the execution record of a confirmed transaction.
type ApplicationLog struct {
	TxID       string      `json:"txid"`
	Executions []Execution `json:"executions"`
}

// Execution is one VM execution within an application log.
type Execution struct {
	Trigger       string         `json:"trigger"`
	VMState       string         `json:"vmstate"`
	GasConsumed   string         `json:"gasconsumed"`
	Exception     string         `json:"exception"`
	Stack         []StackItem    `json:"stack"`
	Notifications []Notification `json:"notifications"`
}

// Notification is a contract event raised during execution.
type Notification struct {
	Contract  string    `json:"contract"`
	EventName string    `json:"eventname"`
	State     StackItem `json:"state"`
}

// TxResult summarises a submitted transaction.
type TxResult struct {
	TxHash  string
	VMState string
	AppLog  *ApplicationLog
}

// Signer is an RPC transaction signer.
type Signer struct {
	Account string `json:"account"`
	Scopes  string `json:"scopes"`
}

// =============================================================================
// Contract Parameters
// =============================================================================

// ContractParam is an invocation parameter in RPC representation.
type ContractParam struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value,omitempty"`
}

// NewHash160Param builds a Hash160 parameter from a 0x-prefixed little-endian
// script hash string.
func NewHash160Param(hash string) ContractParam {
	return ContractParam{Type: "Hash160", Value: hash}
}

// NewIntegerParam builds an Integer parameter.
func NewIntegerParam(v *big.Int) ContractParam {
	return ContractParam{Type: "Integer", Value: v.String()}
}

// NewStringParam builds a String parameter.
func NewStringParam(v string) ContractParam {
	return ContractParam{Type: "String", Value: v}
}

// NewByteArrayParam builds a ByteArray parameter (hex-encoded by the caller's
// convention on the node side is base64; the RPC layer accepts base64).
func NewByteArrayParam(v []byte) ContractParam {
	return ContractParam{Type: "ByteArray", Value: v}
}

// NewBoolParam builds a Boolean parameter.
func NewBoolParam(v bool) ContractParam {
	return ContractParam{Type: "Boolean", Value: v}
}

// NewAnyParam builds a null Any parameter, used for the NEP-17 data argument.
func NewAnyParam() ContractParam {
	return ContractParam{Type: "Any"}
}
