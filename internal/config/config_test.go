// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "regcache.yaml", `
schema: ./map.xml
device: pump-1
word_size: 2
transport:
  kind: modbus-rtu
  unit_id: 7
  base_register: 100
  serial:
    device: /dev/ttyUSB0
    baud_rate: 9600
poll:
  interval_ms: 250
log:
  level: debug
`)

	cfg, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	assert.Equal(t, filepath.Join(dir, "map.xml"), cfg.Schema)
	assert.Equal(t, "pump-1", cfg.Device)
	assert.Equal(t, KindModbusRTU, cfg.Transport.Kind)
	assert.Equal(t, uint8(7), cfg.Transport.UnitID)
	assert.Equal(t, uint16(100), cfg.Transport.BaseRegister)
	assert.Equal(t, 9600, cfg.Transport.Serial.BaudRate)
	assert.Equal(t, 250, cfg.Poll.IntervalMs)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_AbsolutePathsKept(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "elsewhere", "regs.db")
	p := writeFile(t, dir, "c.yaml", "schema: /maps/a.xml\ntransport:\n  kind: bolt\n  path: "+abs+"\n")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/maps/a.xml", cfg.Schema)
	assert.Equal(t, abs, cfg.Transport.Path)
}

func TestLoad_UnknownKey(t *testing.T) {
	p := writeFile(t, t.TempDir(), "c.yaml", "schema: a.xml\nsheme: b.xml\n")
	_, err := Load(p)
	require.Error(t, err)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := &Config{Schema: "m"}
	Normalize(cfg)

	assert.Equal(t, DefaultDevice, cfg.Device)
	assert.Equal(t, DefaultWordSize, cfg.WordSize)
	assert.Equal(t, DefaultIntervalMs, cfg.Poll.IntervalMs)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, KindMem, cfg.Transport.Kind)
	assert.Zero(t, cfg.Transport.TimeoutMs)
}

func TestNormalize_Transport(t *testing.T) {
	rtu := &Config{Schema: "m", Transport: TransportConfig{
		Kind:   KindModbusRTU,
		Serial: SerialConfig{Device: "/dev/ttyS0", Parity: "N"},
	}}
	Normalize(rtu)
	assert.Equal(t, DefaultTimeoutMs, rtu.Transport.TimeoutMs)
	assert.Equal(t, SerialConfig{Device: "/dev/ttyS0", BaudRate: 19200, DataBits: 8, Parity: "N", StopBits: 1}, rtu.Transport.Serial)

	bolt := &Config{Schema: "m", Device: "d7", Transport: TransportConfig{Kind: KindBolt, Path: "x.db"}}
	Normalize(bolt)
	assert.Equal(t, "d7", bolt.Transport.Bucket)

	Normalize(nil)
}

func TestLoad_Mirrors(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "c.yaml", `
schema: map.xml
mirrors:
  - name: backup
    kind: bolt
    path: mirror.db
  - name: scada
    kind: modbus-tcp
    endpoint: 10.0.0.9:502
    unit_id: 3
    base_register: 1000
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	Normalize(cfg)

	require.Len(t, cfg.Mirrors, 2)
	assert.Equal(t, filepath.Join(dir, "mirror.db"), cfg.Mirrors[0].Path)
	assert.Equal(t, "backup", cfg.Mirrors[0].Bucket)
	assert.Equal(t, uint16(1000), cfg.Mirrors[1].BaseRegister)
	assert.Equal(t, DefaultTimeoutMs, cfg.Mirrors[1].TimeoutMs)
}
