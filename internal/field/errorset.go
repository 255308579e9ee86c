// internal/field/errorset.go
package field

import (
	"errors"

	"github.com/tamzrod/regcache/internal/regcache"
	"github.com/tamzrod/regcache/internal/regmap"
)

// ErrorSet remembers which fields hold a value-level error. The cache bytes
// under a field are shared with its neighbours, so the error lives here.
//
// The zero value is ready to use. NOT safe for concurrent use.
type ErrorSet struct {
	m map[*regmap.Value]error
}

// Note records err against v when it is an ErrInput and drops v's entry
// when err is nil. Other errors leave the entry alone. It returns err.
func (s *ErrorSet) Note(v *regmap.Value, err error) error {
	switch {
	case err == nil:
		delete(s.m, v)
	case errors.Is(err, ErrInput):
		if s.m == nil {
			s.m = make(map[*regmap.Value]error)
		}
		s.m[v] = err
	}
	return err
}

// Err is the recorded error of v, or nil.
func (s *ErrorSet) Err(v *regmap.Value) error { return s.m[v] }

// Len is the number of fields in error.
func (s *ErrorSet) Len() int { return len(s.m) }

// Get is Get with its outcome noted against v.
func (s *ErrorSet) Get(acc regcache.Accessor, v *regmap.Value) (string, error) {
	text, err := Get(acc, v)
	return text, s.Note(v, err)
}

// Set is Set with its outcome noted against v.
func (s *ErrorSet) Set(acc regcache.Accessor, v *regmap.Value, text string) error {
	return s.Note(v, Set(acc, v, text))
}

// State is Error for a field in the set, otherwise the cache state of its bits.
func (s *ErrorSet) State(acc regcache.Accessor, v *regmap.Value) (regcache.State, error) {
	if s.m[v] != nil {
		return regcache.Error, nil
	}
	return State(acc, v)
}
