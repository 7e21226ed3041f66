package pidctrl

import "errors"

// Sentinel errors returned by binding, update, and mutator calls. Callers
// should match with errors.Is; returned errors wrap these with detail.
var (
	// ErrInvalidArgument indicates a nil handle or region, a misaligned
	// region, a non-finite numeric input, or a malformed configuration.
	ErrInvalidArgument = errors.New("pidctrl: invalid argument")

	// ErrInsufficientSize indicates a storage region smaller than
	// StorageSize. Raised only by Bind.
	ErrInsufficientSize = errors.New("pidctrl: storage region too small")
)
