// internal/field/errors.go
package field

import "errors"

var (
	// ErrInput is returned when text does not parse into the field's type or
	// does not fit it, and when the cached bits hold no valid value. It is
	// a property of the field, not of the cache bytes; see ErrorSet.
	ErrInput = errors.New("field: invalid input")

	// ErrAccess is returned for writes to read-only fields and reads of
	// write-only fields.
	ErrAccess = errors.New("field: access denied")

	// ErrType is returned by Raw and Scaled for fields without a numeric form.
	ErrType = errors.New("field: no numeric form")
)
