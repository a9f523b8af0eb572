package timelock

import (
	"context"
	"math/big"
)

// AssetAdapter performs token movements against the underlying ledger. The
// core never trusts the ledger's return-value semantics: implementations must
// report an error for any ambiguous outcome, never silent success.
type AssetAdapter interface {
	// Pull moves amount units of asset from the controller into the vault.
	// It either fully succeeds or reports an error with no assumed effects.
	Pull(ctx context.Context, asset string, amount *big.Int) (txHash string, err error)

	// Push moves amount units of asset from the vault to the given address.
	Push(ctx context.Context, asset, to string, amount *big.Int) (txHash string, err error)

	// PushNative moves native currency from the vault to the given address.
	PushNative(ctx context.Context, to string, amount *big.Int) (txHash string, err error)

	// BalanceOf reports the asset balance held by an address.
	BalanceOf(ctx context.Context, asset, holder string) (*big.Int, error)

	// NativeBalance reports the native-currency balance held by an address.
	NativeBalance(ctx context.Context, holder string) (*big.Int, error)

	// VaultAddress is the address whose balances this vault protects.
	VaultAddress() string
}
