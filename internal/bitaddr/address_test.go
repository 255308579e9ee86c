// internal/bitaddr/address_test.go
package bitaddr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NormalizesBits(t *testing.T) {
	a, err := New(2, 11)
	require.NoError(t, err)
	assert.Equal(t, 3, a.Bytes())
	assert.Equal(t, 3, a.Bits())
	assert.Equal(t, uint64(27), a.TotalBits())
}

func TestNew_Overflow(t *testing.T) {
	_, err := New(MaxBytes, 8)
	require.ErrorIs(t, err, ErrSyntax)

	a, err := New(MaxBytes, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, a.Bits())
}

func TestParse(t *testing.T) {
	cases := []struct {
		in    string
		mult  int
		bytes int
		bits  int
	}{
		{"0", 1, 0, 0},
		{"16", 1, 16, 0},
		{"0x10", 1, 16, 0},
		{"10h", 1, 16, 0},
		{"0x07.5", 1, 7, 5},
		{"0.1", 1, 0, 1},
		{"1.12", 1, 2, 4},
		{"0x4", 2, 8, 0},
		{"0x4.3", 4, 16, 3},
		{"3.9", 8, 25, 1},
		{"1,000", 1, 1000, 0},
		{"100b.11b", 1, 4, 3},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			a, err := Parse(tc.in, tc.mult)
			require.NoError(t, err)
			assert.Equal(t, tc.bytes, a.Bytes())
			assert.Equal(t, tc.bits, a.Bits())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "1.2.3", "x.1", "1.x", "1.", ".1", "0x1_0000_0000"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in, 1)
			require.ErrorIs(t, err, ErrSyntax)
		})
	}

	_, err := Parse("0xFFFF_FFFF", 2)
	require.ErrorIs(t, err, ErrSyntax)

	_, err = Parse("1", 3)
	require.Error(t, err)
}

func TestParse_ErrorNamesPortion(t *testing.T) {
	_, err := Parse("0x10.zz", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bits portion")

	_, err = Parse("qq.1", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bytes portion")
}

func TestString_RoundTrip(t *testing.T) {
	for bytes := uint64(0); bytes < 300; bytes += 37 {
		for bits := uint64(0); bits < 8; bits++ {
			a, err := New(bytes, bits)
			require.NoError(t, err)
			back, err := Parse(a.String(), 1)
			require.NoError(t, err, a.String())
			assert.Equal(t, a, back)
		}
	}
	assert.Equal(t, "0x7.5", MustParse("0x07.5").String())
	assert.Equal(t, "0x10", MustParse("16").String())
}

func TestArithmeticAndOrdering(t *testing.T) {
	a := MustParse("0x2.6")
	b := MustParse("0.3")

	sum := a.Add(b)
	assert.Equal(t, 3, sum.Bytes())
	assert.Equal(t, 1, sum.Bits())
	assert.Equal(t, a, sum.Sub(b))

	assert.Equal(t, -1, b.Compare(a))
	assert.Equal(t, 1, a.Compare(b))
	assert.Equal(t, 0, a.Compare(FromBits(22)))
	assert.True(t, b.Less(a))
	assert.False(t, a.Less(a))

	assert.Equal(t, 1, a.CompareBytes(2))
	assert.Equal(t, -1, a.CompareBytes(3))
	assert.Equal(t, 0, FromBytes(4).CompareBytes(4))

	assert.Panics(t, func() { b.Sub(a) })
}

func TestAddBitsAndBytes(t *testing.T) {
	var a Address
	a.AddBits(5)
	a.AddBits(5)
	assert.Equal(t, 1, a.Bytes())
	assert.Equal(t, 2, a.Bits())

	a.AddBytes(3)
	assert.Equal(t, 4, a.Bytes())
	assert.Equal(t, 2, a.Bits())
}

func TestBufferLen(t *testing.T) {
	assert.Equal(t, 0, FromBits(0).BufferLen())
	assert.Equal(t, 1, FromBits(1).BufferLen())
	assert.Equal(t, 1, FromBits(8).BufferLen())
	assert.Equal(t, 2, FromBits(9).BufferLen())
}

func TestAddress_MapKey(t *testing.T) {
	m := map[Address]string{MustParse("1.1"): "a"}
	assert.Equal(t, "a", m[FromBits(9)])
}
