package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAssetHash(t *testing.T) {
	gas := "0xd2a4cff31913016155e38e474a2c06d08be276cf"

	normalised, err := ValidateAssetHash(gas)
	require.NoError(t, err)
	assert.Equal(t, gas, normalised)

	// Prefix and surrounding whitespace are normalised away.
	normalised, err = ValidateAssetHash("  d2a4cff31913016155e38e474a2c06d08be276cf ")
	require.NoError(t, err)
	assert.Equal(t, gas, normalised)
}

func TestValidateAssetHashRejectsMalformed(t *testing.T) {
	for _, hash := range []string{
		"",
		"0x1234",
		"not-a-hash",
		"0xzz4cff31913016155e38e474a2c06d08be276cf",
		"0xd2a4cff31913016155e38e474a2c06d08be276cf00",
	} {
		_, err := ValidateAssetHash(hash)
		assert.Error(t, err, "hash %q", hash)
	}
}

func TestAccountFromWIF(t *testing.T) {
	// Throwaway key, not used anywhere.
	const wif = "KxyjQ8eUa4FHt3Gvioyt1Wz29cTUrE4eTqX3yFSk1YFCsPL8uNsY"

	account, err := AccountFromWIF(wif)
	require.NoError(t, err)
	assert.NotEmpty(t, account.Address)

	hash, err := AddressToScriptHash(account.Address)
	require.NoError(t, err)
	assert.Len(t, hash, 42)
}

func TestAccountFromWIFRejectsGarbage(t *testing.T) {
	_, err := AccountFromWIF("definitely-not-a-wif")
	assert.Error(t, err)
}
