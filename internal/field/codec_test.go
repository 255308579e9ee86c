// internal/field/codec_test.go
package field

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/regcache/internal/regcache"
	"github.com/tamzrod/regcache/internal/regmap"
	"github.com/tamzrod/regcache/internal/transport/mem"
)

const testMap = `<block id="dev" name="Device" size_in_bytes="128" version="1.0">
  <conv id="tenths" gain="0.1" offset="-5"/>
  <enum id="mode" width="0.3">
    <item name="off" value="0"/>
    <item name="heat" value="1"/>
    <item name="cool" value="2"/>
  </enum>
  <value name="enabled"  addr="0"    size="0.1" type="bool" subtype="off,on"/>
  <value name="mode"     addr="0.1"  size="0.3" type="enum" subtype="mode"/>
  <value name="nibble"   addr="0.4"  size="0.4" type="uint8" subtype="bin"/>
  <value name="counter"  addr="1"    size="2"   type="uint16" subtype="hex,be"/>
  <value name="offset"   addr="3"    size="1.4" type="int16"/>
  <value name="temp"     addr="5"    size="2"   type="int16" conv="tenths" units="C"/>
  <value name="ratio"    addr="8"    size="4"   type="float" subtype="2"/>
  <value name="energy"   addr="12"   size="8"   type="double"/>
  <value name="label"    addr="20"   size="8"   type="string" subtype="ascii"/>
  <value name="wide"     addr="28"   size="8"   type="string" subtype="unicode"/>
  <value name="latin"    addr="36"   size="4"   type="string" subtype="latin1"/>
  <value name="ip4"      addr="40"   size="4"   type="ip" subtype="4"/>
  <value name="ip6"      addr="44"   size="16"  type="ip" subtype="6"/>
  <value name="mac"      addr="60"   size="6"   type="mac"/>
  <value name="serial"   addr="66"   size="4"   type="uint32" access="R"/>
  <value name="key"      addr="70"   size="2"   type="uint16" access="W"/>
  <value name="big"      addr="72"   size="8"   type="uint64"/>
  <value name="neg"      addr="80"   size="8"   type="int64" subtype="be"/>
</block>`

type rig struct {
	schema *regmap.Block
	dev    *mem.Block[uint16]
	cache  *regcache.Cache[uint16]
}

func newRig(t *testing.T) *rig {
	t.Helper()
	b, err := regmap.Parse(strings.NewReader(testMap))
	require.NoError(t, err)
	require.NoError(t, b.Initialize())

	dev, err := mem.New[uint16](b.SizeInBytes, false)
	require.NoError(t, err)
	c, err := regcache.New[uint16](dev)
	require.NoError(t, err)
	return &rig{schema: b, dev: dev, cache: c}
}

func (r *rig) value(t *testing.T, name string) *regmap.Value {
	t.Helper()
	v, ok := r.schema.Value(name)
	require.Truef(t, ok, "value %q", name)
	return v
}

func (r *rig) roundTrip(t *testing.T, name, in, want string) {
	t.Helper()
	v := r.value(t, name)
	require.NoError(t, Set(r.cache, v, in), name)
	got, err := Get(r.cache, v)
	require.NoError(t, err, name)
	assert.Equal(t, want, got, name)
}

func TestRoundTrip(t *testing.T) {
	r := newRig(t)

	r.roundTrip(t, "enabled", "on", "on")
	r.roundTrip(t, "enabled", "0", "off")
	r.roundTrip(t, "enabled", "TRUE", "on")
	r.roundTrip(t, "mode", "cool", "cool")
	r.roundTrip(t, "nibble", "0xA", "1010b")
	r.roundTrip(t, "counter", "4660", "0x1234")
	r.roundTrip(t, "offset", "-2048", "-2048")
	r.roundTrip(t, "offset", "2,047", "2047")
	r.roundTrip(t, "temp", "-12", "-12")
	r.roundTrip(t, "ratio", "3.14159", "3.14")
	r.roundTrip(t, "energy", "1e300", "1e+300")
	r.roundTrip(t, "label", "pump-01", "pump-01")
	r.roundTrip(t, "wide", "Grüß", "Grüß")
	r.roundTrip(t, "latin", "café", "café")
	r.roundTrip(t, "ip4", "192.168.1.20", "192.168.1.20")
	r.roundTrip(t, "ip6", "fe80::1", "fe80::1")
	r.roundTrip(t, "mac", "aa-bb-cc-dd-ee-ff", "AA:BB:CC:DD:EE:FF")
	r.roundTrip(t, "mac", "0011223344ff", "00:11:22:33:44:FF")
	r.roundTrip(t, "big", "18446744073709551615", "18446744073709551615")
	r.roundTrip(t, "neg", "-1", "-1")
}

func TestBitFieldsShareAByte(t *testing.T) {
	r := newRig(t)
	require.NoError(t, Set(r.cache, r.value(t, "enabled"), "on"))
	require.NoError(t, Set(r.cache, r.value(t, "mode"), "heat"))
	require.NoError(t, Set(r.cache, r.value(t, "nibble"), "0xF"))

	require.NoError(t, r.cache.Flush(context.Background()))
	// enabled=1 at bit 0, mode=1 at bits 1..3, nibble=F at bits 4..7
	assert.Equal(t, byte(0xF3), r.dev.Bytes()[0])
}

func TestByteOrder(t *testing.T) {
	r := newRig(t)
	require.NoError(t, Set(r.cache, r.value(t, "counter"), "0x1234"))
	require.NoError(t, Set(r.cache, r.value(t, "temp"), "300"))
	require.NoError(t, r.cache.Flush(context.Background()))

	img := r.dev.Bytes()
	assert.Equal(t, []byte{0x12, 0x34}, img[1:3], "be puts the high byte first")
	assert.Equal(t, []byte{0x2C, 0x01}, img[5:7], "le by default")
}

func TestRawAndScaled(t *testing.T) {
	r := newRig(t)
	temp := r.value(t, "temp")
	require.NoError(t, Set(r.cache, temp, "-250"))

	raw, err := Raw(r.cache, temp)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFF06), raw)

	scaled, err := Scaled(r.cache, temp)
	require.NoError(t, err)
	assert.InDelta(t, -30.0, scaled, 1e-9)

	counter := r.value(t, "counter")
	require.NoError(t, Set(r.cache, counter, "0x0102"))
	scaled, err = Scaled(r.cache, counter)
	require.NoError(t, err)
	assert.InDelta(t, 258.0, scaled, 1e-9, "no conversion")

	ratio := r.value(t, "ratio")
	require.NoError(t, Set(r.cache, ratio, "0.5"))
	scaled, err = Scaled(r.cache, ratio)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, scaled, 1e-9)

	_, err = Raw(r.cache, r.value(t, "label"))
	require.ErrorIs(t, err, ErrType)
	_, err = Scaled(r.cache, r.value(t, "mode"))
	require.ErrorIs(t, err, ErrType)

	raw, err = Raw(r.cache, r.value(t, "mode"))
	require.NoError(t, err)
	assert.Zero(t, raw)
}

func TestSet_BadInput(t *testing.T) {
	r := newRig(t)
	cases := []struct {
		field, text string
	}{
		{"enabled", "maybe"},
		{"mode", "turbo"},
		{"nibble", "16"},
		{"counter", "0x10000"},
		{"offset", "2048"},
		{"offset", "-2049"},
		{"temp", "warm"},
		{"ratio", "1e39"},
		{"label", "much too long"},
		{"label", "naïve"},
		{"wide", "12345"},
		{"latin", "€"},
		{"ip4", "fe80::1"},
		{"ip6", "10.0.0.1"},
		{"ip4", "300.1.1.1"},
		{"mac", "aa:bb:cc"},
		{"mac", "zz:bb:cc:dd:ee:ff"},
	}
	for _, tc := range cases {
		v := r.value(t, tc.field)
		err := Set(r.cache, v, tc.text)
		require.ErrorIsf(t, err, ErrInput, "%s=%q", tc.field, tc.text)

		st, err := State(r.cache, v)
		require.NoError(t, err)
		assert.Equalf(t, regcache.Default, st, "%s=%q leaves the cache alone", tc.field, tc.text)
	}
	assert.False(t, r.cache.HasChanges())
}

func TestErrorSet_SetNotesAndClears(t *testing.T) {
	r := newRig(t)
	v := r.value(t, "counter")
	var errs ErrorSet

	require.ErrorIs(t, errs.Set(r.cache, v, "nope"), ErrInput)
	st, err := errs.State(r.cache, v)
	require.NoError(t, err)
	require.Equal(t, regcache.Error, st)
	require.ErrorIs(t, errs.Err(v), ErrInput)

	// a neighbour in the same byte is unaffected
	require.ErrorIs(t, errs.Set(r.cache, r.value(t, "mode"), "turbo"), ErrInput)
	st, err = errs.State(r.cache, r.value(t, "nibble"))
	require.NoError(t, err)
	assert.Equal(t, regcache.Default, st)

	require.NoError(t, errs.Set(r.cache, v, "7"))
	st, err = errs.State(r.cache, v)
	require.NoError(t, err)
	assert.Equal(t, regcache.Modified, st)
	assert.Nil(t, errs.Err(v))
	assert.Equal(t, 1, errs.Len())
}

func TestErrorSet_IgnoresAccessErrors(t *testing.T) {
	r := newRig(t)
	var errs ErrorSet

	require.ErrorIs(t, errs.Set(r.cache, r.value(t, "serial"), "1"), ErrAccess)
	assert.Zero(t, errs.Len())
}

func TestAccess(t *testing.T) {
	r := newRig(t)

	err := Set(r.cache, r.value(t, "serial"), "1")
	require.ErrorIs(t, err, ErrAccess)

	_, err = Get(r.cache, r.value(t, "key"))
	require.ErrorIs(t, err, ErrAccess)

	require.NoError(t, Set(r.cache, r.value(t, "key"), "0xBEEF"))
	_, err = Get(r.cache, r.value(t, "serial"))
	require.NoError(t, err)
}

func TestGet_UnknownEnumValue(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.dev.Poke(0, []byte{0x0E})) // mode = 7
	require.NoError(t, r.cache.Refresh(context.Background()))

	v := r.value(t, "mode")
	var errs ErrorSet
	_, err := errs.Get(r.cache, v)
	require.ErrorIs(t, err, ErrInput)

	st, err := errs.State(r.cache, v)
	require.NoError(t, err)
	assert.Equal(t, regcache.Error, st)

	// reading does not touch the shared bytes
	st, err = State(r.cache, r.value(t, "enabled"))
	require.NoError(t, err)
	assert.Equal(t, regcache.Updated, st)
}

func TestGet_UnknownEnumDoesNotTearNeighbourWrite(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	require.NoError(t, r.dev.Poke(0, []byte{0x0E})) // mode = 7
	require.NoError(t, r.cache.Refresh(ctx))

	_, err := Get(r.cache, r.value(t, "mode"))
	require.ErrorIs(t, err, ErrInput)

	// counter covers bytes 1 and 2, one in each register word
	counter := r.value(t, "counter")
	require.NoError(t, Set(r.cache, counter, "0x1234"))
	require.NoError(t, r.cache.Flush(ctx))
	assert.False(t, r.cache.HasChanges())

	require.NoError(t, r.cache.Refresh(ctx))
	raw, err := Raw(r.cache, counter)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1234), raw)

	raw, err = Raw(r.cache, r.value(t, "mode"))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), raw, "device value of mode is kept")
}

func TestGet_DeviceValues(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.dev.Poke(20, []byte("abc\x00zzz")))
	require.NoError(t, r.dev.Poke(28, []byte{'H', 0, 'i', 0, 0, 0, 'x', 0}))
	require.NoError(t, r.dev.Poke(40, []byte{10, 0, 0, 1}))
	require.NoError(t, r.dev.Poke(66, []byte{0x78, 0x56, 0x34, 0x12}))
	require.NoError(t, r.cache.Refresh(context.Background()))

	for name, want := range map[string]string{
		"label":  "abc",
		"wide":   "Hi",
		"ip4":    "10.0.0.1",
		"serial": "305419896",
	} {
		got, err := Get(r.cache, r.value(t, name))
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)

		st, err := State(r.cache, r.value(t, name))
		require.NoError(t, err)
		assert.Equal(t, regcache.Updated, st, name)
	}
}

func TestSignExtendAndMask(t *testing.T) {
	assert.Equal(t, int64(-1), signExtend(0xFFF, 12))
	assert.Equal(t, int64(2047), signExtend(0x7FF, 12))
	assert.Equal(t, int64(-1), signExtend(^uint64(0), 64))
	assert.Equal(t, uint64(0xFFF), mask(12))
	assert.Equal(t, ^uint64(0), mask(64))
}
