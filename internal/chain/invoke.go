package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultTxWaitTimeout is the default timeout for waiting for transaction execution.
const DefaultTxWaitTimeout = 2 * time.Minute

// DefaultPollInterval is the default interval for polling transaction status.
const DefaultPollInterval = 2 * time.Second

// InvokeFunction invokes a contract function (read-only).
func (c *Client) InvokeFunction(ctx context.Context, scriptHash string, method string, params []ContractParam) (*InvokeResult, error) {
	args := []interface{}{scriptHash, method, params}
	result, err := c.Call(ctx, "invokefunction", args)
	if err != nil {
		return nil, err
	}

	var invokeResult InvokeResult
	if err := json.Unmarshal(result, &invokeResult); err != nil {
		return nil, err
	}
	return &invokeResult, nil
}

// InvokeFunctionWithSigners simulates a contract invocation with the given
// signer accounts attached, returning the script and gas estimate needed to
// build the real transaction.
func (c *Client) InvokeFunctionWithSigners(ctx context.Context, scriptHash string, method string, params []ContractParam, signers []Signer) (*InvokeResult, error) {
	args := []interface{}{scriptHash, method, params, signers}
	result, err := c.Call(ctx, "invokefunction", args)
	if err != nil {
		return nil, err
	}

	var invokeResult InvokeResult
	if err := json.Unmarshal(result, &invokeResult); err != nil {
		return nil, err
	}
	return &invokeResult, nil
}

// SendRawTransaction sends a signed transaction (base64-encoded).
func (c *Client) SendRawTransaction(ctx context.Context, txBase64 string) (string, error) {
	result, err := c.Call(ctx, "sendrawtransaction", []interface{}{txBase64})
	if err != nil {
		return "", err
	}

	var response struct {
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(result, &response); err != nil {
		return "", err
	}
	return response.Hash, nil
}

// WaitForApplicationLog polls for a transaction application log until it is available or context is done.
// A missing transaction is treated as transient and retried until the context deadline/timeout expires.
func (c *Client) WaitForApplicationLog(ctx context.Context, txHash string, pollInterval time.Duration) (*ApplicationLog, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			log, err := c.GetApplicationLog(ctx, txHash)
			if err != nil {
				if isNotFoundError(err) {
					continue
				}
				return nil, err
			}
			return log, nil
		}
	}
}

// SendRawTransactionAndWait broadcasts a signed transaction and waits for its application log.
func (c *Client) SendRawTransactionAndWait(ctx context.Context, txBase64 string, pollInterval, waitTimeout time.Duration) (*ApplicationLog, error) {
	txHash, err := c.SendRawTransaction(ctx, txBase64)
	if err != nil {
		return nil, err
	}

	if waitTimeout <= 0 {
		waitTimeout = DefaultTxWaitTimeout
	}

	wctx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()

	return c.WaitForApplicationLog(wctx, txHash, pollInterval)
}

// InvokeRead invokes a contract function and requires a HALT state with at
// least one stack item, returning that item.
func (c *Client) InvokeRead(ctx context.Context, scriptHash, method string, params []ContractParam) (StackItem, error) {
	result, err := c.InvokeFunction(ctx, scriptHash, method, params)
	if err != nil {
		return StackItem{}, err
	}
	if result.State != "HALT" {
		return StackItem{}, fmt.Errorf("%s failed: %s", method, result.Exception)
	}
	if len(result.Stack) == 0 {
		return StackItem{}, fmt.Errorf("%s returned no result", method)
	}
	return result.Stack[len(result.Stack)-1], nil
}
