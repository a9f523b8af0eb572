package chain

import (
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

// AccountFromWIF builds a signing account from a WIF-encoded private key.
func AccountFromWIF(wif string) (*wallet.Account, error) {
	account, err := wallet.NewAccountFromWIF(strings.TrimSpace(wif))
	if err != nil {
		return nil, fmt.Errorf("decode WIF: %w", err)
	}
	return account, nil
}

// AccountFromPrivateKey builds a signing account from a hex-encoded private key.
func AccountFromPrivateKey(privateKeyHex string) (*wallet.Account, error) {
	priv, err := keys.NewPrivateKeyFromHex(strings.TrimSpace(privateKeyHex))
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	return wallet.NewAccountFromPrivateKey(priv), nil
}

// AddressToScriptHash converts a Neo address to a 0x-prefixed little-endian
// script hash string for RPC params.
func AddressToScriptHash(addr string) (string, error) {
	u, err := address.StringToUint160(strings.TrimSpace(addr))
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return "0x" + u.StringLE(), nil
}

// ValidateAssetHash checks that the given string is a well-formed Uint160
// contract hash and returns it normalised with the 0x prefix.
func ValidateAssetHash(hash string) (string, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(hash), "0x")
	u, err := util.Uint160DecodeStringLE(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid contract hash %q: %w", hash, err)
	}
	return "0x" + u.StringLE(), nil
}
