package timelock

import "errors"

// Operation errors, checked and surfaced in the order the operations define.
// They are sentinels so HTTP and callers can map them without string matching.
var (
	// ErrNotAuthorized is returned when the caller is not the controller.
	ErrNotAuthorized = errors.New("caller is not the controller")

	// ErrInvalidAsset is returned for a malformed asset contract hash.
	ErrInvalidAsset = errors.New("invalid asset identifier")

	// ErrZeroAmount is returned when the lock amount is not positive.
	ErrZeroAmount = errors.New("amount must be positive")

	// ErrAlreadyLocked is returned when a lock is already registered for the
	// asset. Re-locking extends nothing; it is rejected outright.
	ErrAlreadyLocked = errors.New("asset already locked")

	// ErrNotVested is returned by Release when no lock exists for the asset.
	ErrNotVested = errors.New("no vesting in progress")

	// ErrStillLocked is returned by Release before maturity.
	ErrStillLocked = errors.New("maturity not reached")

	// ErrNothingToRelease is returned when the vault holds no balance.
	ErrNothingToRelease = errors.New("no balance to release")

	// ErrTransferPullFailed is returned when the inbound transfer could not
	// be completed. No state changes in that case.
	ErrTransferPullFailed = errors.New("transfer into vault failed")

	// ErrTransferPushFailed is returned when the outbound transfer could not
	// be completed. The registry has already been cleared by then; recovery
	// is a fresh lock cycle, never an automatic rollback.
	ErrTransferPushFailed = errors.New("transfer out of vault failed")
)
