// internal/regmap/access.go
package regmap

import "fmt"

// Access is a read/write bitset. The zero value means "not specified".
type Access uint8

const (
	Read Access = 1 << iota
	Write

	ReadWrite = Read | Write
)

// ParseAccess accepts the markup forms R, W and RW.
func ParseAccess(s string) (Access, error) {
	switch s {
	case "R":
		return Read, nil
	case "W":
		return Write, nil
	case "RW":
		return ReadWrite, nil
	}
	return 0, fmt.Errorf("%w: access %q is not R, W or RW", ErrMalformed, s)
}

func (a Access) String() string {
	switch a {
	case Read:
		return "R"
	case Write:
		return "W"
	case ReadWrite:
		return "RW"
	default:
		return ""
	}
}

// Contains reports whether every flag in b is also set in a.
func (a Access) Contains(b Access) bool { return a&b == b }
