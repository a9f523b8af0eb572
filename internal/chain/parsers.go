package chain

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
)

// =============================================================================
// Stack Item Parsers
// =============================================================================

// ParseHash160 parses a script hash from a StackItem and formats it as a
// 0x-prefixed big-endian hex string.
func ParseHash160(item StackItem) (string, error) {
	if item.Type == "ByteString" || item.Type == "Buffer" {
		raw, err := decodeBytes(item)
		if err != nil {
			return "", err
		}
		// Reverse for big-endian display.
		reversed := make([]byte, len(raw))
		for i, b := range raw {
			reversed[len(raw)-1-i] = b
		}
		return "0x" + hex.EncodeToString(reversed), nil
	}
	return "", fmt.Errorf("unexpected type: %s", item.Type)
}

// ParseByteArray parses raw bytes from a StackItem.
func ParseByteArray(item StackItem) ([]byte, error) {
	if item.Type == "ByteString" || item.Type == "Buffer" {
		return decodeBytes(item)
	}
	if item.Type == "Null" {
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected type: %s", item.Type)
}

// ParseInteger parses an integer StackItem.
func ParseInteger(item StackItem) (*big.Int, error) {
	if item.Type == "Integer" {
		var value string
		if err := json.Unmarshal(item.Value, &value); err != nil {
			return nil, err
		}
		n, ok := new(big.Int).SetString(value, 10)
		if !ok {
			return nil, fmt.Errorf("malformed integer %q", value)
		}
		return n, nil
	}
	return nil, fmt.Errorf("unexpected type: %s", item.Type)
}

// ParseBoolean parses a boolean StackItem. Anything that is not an explicit
// Boolean item is an error: the caller must never infer success from an
// ambiguous result.
func ParseBoolean(item StackItem) (bool, error) {
	if item.Type == "Boolean" {
		var value bool
		if err := json.Unmarshal(item.Value, &value); err != nil {
			return false, err
		}
		return value, nil
	}
	return false, fmt.Errorf("unexpected type: %s", item.Type)
}

func decodeBytes(item StackItem) ([]byte, error) {
	var value string
	if err := json.Unmarshal(item.Value, &value); err != nil {
		return nil, err
	}
	// Nodes return ByteString values base64-encoded; older tooling emits hex.
	if raw, err := base64.StdEncoding.DecodeString(value); err == nil {
		return raw, nil
	}
	return hex.DecodeString(value)
}
