// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Transport kinds.
const (
	KindMem       = "mem"
	KindModbusTCP = "modbus-tcp"
	KindModbusRTU = "modbus-rtu"
	KindBolt      = "bolt"
)

type Config struct {
	Schema    string          `yaml:"schema"`
	Device    string          `yaml:"device"`
	WordSize  int             `yaml:"word_size"`
	Transport TransportConfig `yaml:"transport"`
	Mirrors   []MirrorConfig  `yaml:"mirrors"`
	Poll      PollConfig      `yaml:"poll"`
	Log       LogConfig       `yaml:"log"`
}

// ---- TRANSPORT ----

type TransportConfig struct {
	Kind string `yaml:"kind"`

	// modbus
	Endpoint     string       `yaml:"endpoint"`
	UnitID       uint8        `yaml:"unit_id"`
	TimeoutMs    int          `yaml:"timeout_ms"`
	BaseRegister uint16       `yaml:"base_register"`
	Serial       SerialConfig `yaml:"serial"`

	// bolt
	Path   string `yaml:"path"`
	Bucket string `yaml:"bucket"` // defaults to device

	// mem
	ReadOnly bool `yaml:"read_only"`
}

type SerialConfig struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"`
	StopBits int    `yaml:"stop_bits"`
}

// ---- MIRROR ----

// MirrorConfig is a target the device image is replicated to after every
// good sync cycle. Mirrors always transfer 16-bit words.
type MirrorConfig struct {
	Name            string `yaml:"name"`
	TransportConfig `yaml:",inline"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// ---- LOG ----

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a YAML config file. Unknown keys are rejected. Relative
// schema and database paths are resolved against the file's directory.
// Load does not validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	cfg.Schema = resolve(dir, cfg.Schema)
	cfg.Transport.Path = resolve(dir, cfg.Transport.Path)
	for i := range cfg.Mirrors {
		cfg.Mirrors[i].Path = resolve(dir, cfg.Mirrors[i].Path)
	}
	return &cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// IsModbus reports whether the transport speaks Modbus.
func (t TransportConfig) IsModbus() bool {
	return t.Kind == KindModbusTCP || t.Kind == KindModbusRTU
}
