package chain

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/nspcc-dev/neo-go/pkg/config/netmode"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

// validUntilBlockDelta is how many blocks a built transaction stays valid.
const validUntilBlockDelta = 100

// TxBuilder assembles, signs and broadcasts transactions from invocation
// simulations.
type TxBuilder struct {
	client    *Client
	networkID uint32
}

// NewTxBuilder creates a transaction builder bound to the client's network.
func NewTxBuilder(client *Client, networkID uint32) *TxBuilder {
	return &TxBuilder{client: client, networkID: networkID}
}

// BuildAndSignTx turns a simulated invocation into a signed transaction.
func (b *TxBuilder) BuildAndSignTx(ctx context.Context, sim *InvokeResult, account *wallet.Account, scope transaction.WitnessScope) (*transaction.Transaction, error) {
	script, err := base64.StdEncoding.DecodeString(sim.Script)
	if err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}

	sysFee, err := strconv.ParseInt(sim.GasConsumed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse gas consumed %q: %w", sim.GasConsumed, err)
	}

	height, err := b.client.GetBlockCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("get block count: %w", err)
	}

	tx := transaction.New(script, sysFee)
	tx.Nonce = rand.Uint32()
	tx.ValidUntilBlock = uint32(height) + validUntilBlockDelta
	tx.Signers = []transaction.Signer{{
		Account: account.ScriptHash(),
		Scopes:  scope,
	}}

	// Fee calculation needs a witness-shaped transaction; stub the invocation
	// script with a signature-sized placeholder.
	tx.Scripts = []transaction.Witness{{
		InvocationScript:   make([]byte, 66),
		VerificationScript: account.Contract.Script,
	}}
	netFee, err := b.client.CalculateNetworkFee(ctx, base64.StdEncoding.EncodeToString(tx.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("calculate network fee: %w", err)
	}
	tx.NetworkFee = netFee
	tx.Scripts = nil

	if err := account.SignTx(netmode.Magic(b.networkID), tx); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return tx, nil
}

// BroadcastTx submits a signed transaction and returns its hash.
func (b *TxBuilder) BroadcastTx(ctx context.Context, tx *transaction.Transaction) (util.Uint256, error) {
	encoded := base64.StdEncoding.EncodeToString(tx.Bytes())
	if _, err := b.client.SendRawTransaction(ctx, encoded); err != nil {
		return util.Uint256{}, fmt.Errorf("broadcast transaction: %w", err)
	}
	return tx.Hash(), nil
}
