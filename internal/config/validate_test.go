// internal/config/validate_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper to build a config quickly
func tcp(wordSize int) *Config {
	return &Config{
		Schema:   "map.xml",
		WordSize: wordSize,
		Transport: TransportConfig{
			Kind:     KindModbusTCP,
			Endpoint: "127.0.0.1:502",
			UnitID:   1,
		},
	}
}

// ---- tests ----

func TestValidate_Minimal(t *testing.T) {
	require.NoError(t, Validate(&Config{Schema: "map.xml"}))
}

func TestValidate_ModbusTCP(t *testing.T) {
	require.NoError(t, Validate(tcp(0)))
	require.NoError(t, Validate(tcp(2)))
}

func TestValidate_ModbusWordSize(t *testing.T) {
	err := Validate(tcp(4))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "word_size must be 2")
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"no schema", Config{}, "schema"},
		{"word size", Config{Schema: "m", WordSize: 3}, "word_size"},
		{"interval", Config{Schema: "m", Poll: PollConfig{IntervalMs: -1}}, "interval_ms"},
		{"log level", Config{Schema: "m", Log: LogConfig{Level: "loud"}}, "log.level"},
		{"device", Config{Schema: "m", Device: "dev 1"}, "device"},
		{"kind", Config{Schema: "m", Transport: TransportConfig{Kind: "can"}}, "transport kind"},
		{"tcp endpoint", Config{Schema: "m", Transport: TransportConfig{Kind: KindModbusTCP}}, "endpoint"},
		{"rtu device", Config{Schema: "m", Transport: TransportConfig{Kind: KindModbusRTU}}, "serial.device"},
		{"rtu parity", Config{Schema: "m", Transport: TransportConfig{
			Kind:   KindModbusRTU,
			Serial: SerialConfig{Device: "/dev/ttyUSB0", Parity: "X"},
		}}, "parity"},
		{"timeout", Config{Schema: "m", Transport: TransportConfig{
			Kind: KindModbusTCP, Endpoint: "h:502", TimeoutMs: -5,
		}}, "timeout_ms"},
		{"bolt path", Config{Schema: "m", Transport: TransportConfig{Kind: KindBolt}}, "path"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(&tc.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := Config{Schema: "m", Transport: TransportConfig{Kind: KindBolt, Path: "x.db"}}
	before := cfg
	require.NoError(t, Validate(&cfg))
	assert.Equal(t, before, cfg)
}

func TestValidate_Mirrors(t *testing.T) {
	cfg := tcp(2)
	cfg.Mirrors = []MirrorConfig{
		{Name: "backup", TransportConfig: TransportConfig{Kind: KindBolt, Path: "m.db"}},
		{Name: "scada", TransportConfig: TransportConfig{Kind: KindModbusTCP, Endpoint: "10.0.0.9:502", UnitID: 3}},
	}
	require.NoError(t, Validate(cfg))
}

func TestValidate_MirrorRejects(t *testing.T) {
	bolt := TransportConfig{Kind: KindBolt, Path: "regs.db"}
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"no name", Config{Schema: "m", Mirrors: []MirrorConfig{{TransportConfig: bolt}}}, "name is required"},
		{"bad kind", Config{Schema: "m", Mirrors: []MirrorConfig{{Name: "a", TransportConfig: TransportConfig{Kind: "ftp"}}}}, `mirror "a" kind`},
		{"no path", Config{Schema: "m", Mirrors: []MirrorConfig{{Name: "a", TransportConfig: TransportConfig{Kind: KindBolt}}}}, "path is required"},
		{"same bucket as device", Config{Schema: "m", Device: "d", Transport: bolt,
			Mirrors: []MirrorConfig{{Name: "a", TransportConfig: TransportConfig{Kind: KindBolt, Path: "regs.db", Bucket: "d"}}}}, "collision with transport"},
		{"same modbus target twice", Config{Schema: "m", Mirrors: []MirrorConfig{
			{Name: "a", TransportConfig: TransportConfig{Kind: KindModbusTCP, Endpoint: "h:502", UnitID: 1}},
			{Name: "b", TransportConfig: TransportConfig{Kind: KindModbusTCP, Endpoint: "h:502", UnitID: 1}},
		}}, `collision with mirror "a"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(&tc.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_MirrorBucketsDiffer(t *testing.T) {
	// same file, buckets default to device and mirror name
	cfg := Config{
		Schema:    "m",
		Transport: TransportConfig{Kind: KindBolt, Path: "regs.db"},
		Mirrors:   []MirrorConfig{{Name: "copy", TransportConfig: TransportConfig{Kind: KindBolt, Path: "regs.db"}}},
	}
	require.NoError(t, Validate(&cfg))
}
