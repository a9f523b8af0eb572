// Package timelock defines the domain model for the custodial token timelock.
package timelock

import "time"

// Lock is a registry entry for one asset. The registry records timing only:
// the vault's held balance for the asset is whatever the ledger reports at
// release time, including direct deposits made outside InitiateLock.
type Lock struct {
	Asset     string    `json:"asset"`
	Maturity  time.Time `json:"maturity"`
	CreatedAt time.Time `json:"created_at"`
}

// Matured reports whether the lock's maturity has passed at the given instant.
func (l Lock) Matured(now time.Time) bool {
	return !now.Before(l.Maturity)
}

// EventType identifies a notification emitted by the vault.
type EventType string

const (
	EventVestingInitiated EventType = "vesting_initiated"
	EventReleased         EventType = "released"
	EventNativeWithdrawn  EventType = "native_withdrawn"
)

// Event is a notification for external observers. Amounts are decimal strings
// in the token's smallest unit.
type Event struct {
	ID        string     `json:"id"`
	Type      EventType  `json:"type"`
	Asset     string     `json:"asset,omitempty"`
	Amount    string     `json:"amount"`
	Maturity  *time.Time `json:"maturity,omitempty"`
	Recipient string     `json:"recipient,omitempty"`
	TxHash    string     `json:"tx_hash,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
