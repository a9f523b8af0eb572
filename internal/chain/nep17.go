package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/tidwall/gjson"
)

// GASScriptHash is the native GAS contract on Neo N3.
const GASScriptHash = "0xd2a4cff31913016155e38e474a2c06d08be276cf"

// NEP17Adapter moves NEP-17 tokens between the controller and the vault
// account. Every transfer demands an explicit boolean true from the token
// contract after VM HALT; an empty stack, a non-boolean result, a FAULT or any
// RPC failure is a transfer failure, never silent success.
type NEP17Adapter struct {
	client     *Client
	builder    *TxBuilder
	vault      *wallet.Account
	controller *wallet.Account
}

// NewNEP17Adapter builds the adapter. The vault account signs outbound
// transfers; the controller account signs pulls into the vault.
func NewNEP17Adapter(client *Client, vault, controller *wallet.Account) *NEP17Adapter {
	return &NEP17Adapter{
		client:     client,
		builder:    NewTxBuilder(client, client.NetworkID()),
		vault:      vault,
		controller: controller,
	}
}

// VaultAddress returns the vault account's Neo address.
func (a *NEP17Adapter) VaultAddress() string {
	return a.vault.Address
}

// ControllerAddress returns the controller account's Neo address.
func (a *NEP17Adapter) ControllerAddress() string {
	return a.controller.Address
}

// Pull moves amount units of asset from the controller into the vault.
func (a *NEP17Adapter) Pull(ctx context.Context, asset string, amount *big.Int) (string, error) {
	return a.transfer(ctx, asset, a.controller, a.vault.Address, amount)
}

// Push moves amount units of asset from the vault to the given address.
func (a *NEP17Adapter) Push(ctx context.Context, asset, to string, amount *big.Int) (string, error) {
	return a.transfer(ctx, asset, a.vault, to, amount)
}

// PushNative moves GAS from the vault to the given address.
func (a *NEP17Adapter) PushNative(ctx context.Context, to string, amount *big.Int) (string, error) {
	return a.transfer(ctx, GASScriptHash, a.vault, to, amount)
}

// BalanceOf returns the asset balance of the holder address.
func (a *NEP17Adapter) BalanceOf(ctx context.Context, asset, holder string) (*big.Int, error) {
	holderHash, err := AddressToScriptHash(holder)
	if err != nil {
		return nil, err
	}

	item, err := a.client.InvokeRead(ctx, asset, "balanceOf", []ContractParam{
		NewHash160Param(holderHash),
	})
	if err != nil {
		return nil, fmt.Errorf("balanceOf %s: %w", asset, err)
	}
	return ParseInteger(item)
}

// NativeBalance returns the GAS balance of the holder address.
func (a *NEP17Adapter) NativeBalance(ctx context.Context, holder string) (*big.Int, error) {
	return a.BalanceOf(ctx, GASScriptHash, holder)
}

func (a *NEP17Adapter) transfer(ctx context.Context, asset string, from *wallet.Account, to string, amount *big.Int) (string, error) {
	fromHash, err := AddressToScriptHash(from.Address)
	if err != nil {
		return "", err
	}
	toHash, err := AddressToScriptHash(to)
	if err != nil {
		return "", err
	}

	params := []ContractParam{
		NewHash160Param(fromHash),
		NewHash160Param(toHash),
		NewIntegerParam(amount),
		NewAnyParam(),
	}
	signers := []Signer{{Account: fromHash, Scopes: "CalledByEntry"}}

	sim, err := a.client.InvokeFunctionWithSigners(ctx, asset, "transfer", params, signers)
	if err != nil {
		return "", fmt.Errorf("transfer simulation: %w", err)
	}
	if sim.State != "HALT" {
		return "", fmt.Errorf("transfer simulation faulted: %s", sim.Exception)
	}

	tx, err := a.builder.BuildAndSignTx(ctx, sim, from, transaction.CalledByEntry)
	if err != nil {
		return "", fmt.Errorf("build transfer transaction: %w", err)
	}

	txHash, err := a.builder.BroadcastTx(ctx, tx)
	if err != nil {
		return "", err
	}
	txHashString := "0x" + txHash.StringLE()

	waitCtx, cancel := context.WithTimeout(ctx, DefaultTxWaitTimeout)
	defer cancel()

	appLog, err := a.client.WaitForApplicationLog(waitCtx, txHashString, DefaultPollInterval)
	if err != nil {
		return txHashString, fmt.Errorf("wait for transfer execution: %w", err)
	}

	if err := checkTransferResult(appLog); err != nil {
		return txHashString, err
	}
	return txHashString, nil
}

// checkTransferResult enforces the adapter's success contract on a confirmed
// transaction: HALT, an explicit boolean true on the stack, and a Transfer
// notification from the token contract.
func checkTransferResult(appLog *ApplicationLog) error {
	if appLog == nil || len(appLog.Executions) == 0 {
		return fmt.Errorf("transfer produced no execution record")
	}
	exec := appLog.Executions[0]
	if exec.VMState != "HALT" {
		return fmt.Errorf("transfer failed with state %s: %s", exec.VMState, exec.Exception)
	}
	if len(exec.Stack) == 0 {
		return fmt.Errorf("transfer returned no result; refusing to assume success")
	}

	ok, err := ParseBoolean(exec.Stack[len(exec.Stack)-1])
	if err != nil {
		return fmt.Errorf("transfer result ambiguous: %w", err)
	}
	if !ok {
		return fmt.Errorf("token contract returned false")
	}

	raw, err := json.Marshal(appLog)
	if err != nil {
		return fmt.Errorf("inspect application log: %w", err)
	}
	if !gjson.GetBytes(raw, `executions.0.notifications.#(eventname=="Transfer")`).Exists() {
		return fmt.Errorf("no Transfer notification in application log")
	}
	return nil
}
