package engine

import "errors"

var (
	// ErrInvalidConfig aborts a whole calculation.
	ErrInvalidConfig = errors.New("invalid calculation config")

	// ErrVendorNotFound marks a selected id that is absent from the catalog.
	ErrVendorNotFound = errors.New("vendor not found in catalog")

	// ErrNonFiniteResult marks a vendor whose costs did not evaluate to a finite number.
	ErrNonFiniteResult = errors.New("vendor cost is not a finite number")

	// ErrDuplicateVendor marks a vendor id selected more than once.
	ErrDuplicateVendor = errors.New("vendor selected more than once")
)

// Warning records a vendor that was left out of a report.
type Warning struct {
	VendorID string `json:"vendorId"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

func newWarning(id string, err error) Warning {
	return Warning{VendorID: id, Reason: err.Error(), Err: err}
}
