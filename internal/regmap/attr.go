// internal/regmap/attr.go
package regmap

import (
	"fmt"
	"strconv"
	"strings"
)

// Float is a floating attribute that remembers whether it was written in
// exponent notation.
type Float struct {
	Value    float64
	Exponent bool
}

// ParseFloat accepts decimal notation (with optional thousands separators)
// or exponent notation.
func ParseFloat(s string) (Float, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Float{}, fmt.Errorf("%w: empty floating value", ErrMalformed)
	}
	exp := strings.ContainsAny(s, "eE")
	clean := s
	if !exp {
		clean = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return Float{}, fmt.Errorf("%w: %q is not a floating value", ErrMalformed, s)
	}
	return Float{Value: v, Exponent: exp}, nil
}

func (f Float) String() string {
	if f.Exponent {
		return strconv.FormatFloat(f.Value, 'E', -1, 64)
	}
	return strconv.FormatFloat(f.Value, 'f', -1, 64)
}

// Version is a dotted version of two to four components.
type Version []int

func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: version %q has fewer than two components (<major>.<minor>)", ErrMalformed, s)
	}
	if len(parts) > 4 {
		return nil, fmt.Errorf("%w: version %q has more than four components (<major>.<minor>.<build>.<revision>)", ErrMalformed, s)
	}
	v := make(Version, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: version %q component %d is not a non-negative integer", ErrMalformed, s, i+1)
		}
		v[i] = n
	}
	return v, nil
}

func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}
