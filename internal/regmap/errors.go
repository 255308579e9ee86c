// internal/regmap/errors.go
package regmap

import "errors"

var (
	// ErrMalformed is returned while reading markup: missing, empty or
	// unparsable attributes and unexpected elements.
	ErrMalformed = errors.New("regmap: malformed schema")

	// ErrInvalid is returned by Initialize (and by regeneration) when a
	// well-formed schema breaks a layout rule. The first violation wins.
	ErrInvalid = errors.New("regmap: invalid schema")
)
