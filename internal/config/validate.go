// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/tamzrod/regcache/internal/log"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values that Normalize fills in are accepted.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Schema == "" {
		return fmt.Errorf("schema: path is required")
	}

	// device name is used as a bolt bucket and in log lines
	for i := 0; i < len(cfg.Device); i++ {
		if cfg.Device[i] <= 0x20 || cfg.Device[i] > 0x7E {
			return fmt.Errorf("device %q: must contain printable ASCII characters only", cfg.Device)
		}
	}

	switch cfg.WordSize {
	case 0, 1, 2, 4, 8:
	default:
		return fmt.Errorf("word_size %d: must be 1, 2, 4 or 8", cfg.WordSize)
	}

	if cfg.Poll.IntervalMs < 0 {
		return fmt.Errorf("poll.interval_ms %d: must be >= 0", cfg.Poll.IntervalMs)
	}

	if cfg.Log.Level != "" {
		if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}

	if err := validateTransport("transport", cfg.Transport, cfg.WordSize); err != nil {
		return err
	}
	return validateMirrors(cfg)
}

// validateMirrors checks names and rejects mirrors that would write into
// the device's own storage.
func validateMirrors(cfg *Config) error {
	// key = kind | location | bucket-or-unit
	owner := make(map[string]string)
	device := cfg.Device
	if device == "" {
		device = DefaultDevice
	}
	if k := storageKey(cfg.Transport, device); k != "" {
		owner[k] = "transport"
	}

	for i, m := range cfg.Mirrors {
		if m.Name == "" {
			return fmt.Errorf("mirrors[%d]: name is required", i)
		}
		what := fmt.Sprintf("mirror %q", m.Name)
		if err := validateTransport(what, m.TransportConfig, 2); err != nil {
			return err
		}

		key := storageKey(m.TransportConfig, m.Name)
		if key == "" {
			continue
		}
		if prev, exists := owner[key]; exists {
			return fmt.Errorf(
				"%s: target collision with %s (%s)",
				what,
				prev,
				key,
			)
		}
		owner[key] = what
	}
	return nil
}

// storageKey identifies where a transport stores registers. defaultBucket
// is the bucket Normalize would fill in.
func storageKey(t TransportConfig, defaultBucket string) string {
	switch t.Kind {
	case KindBolt:
		bucket := t.Bucket
		if bucket == "" {
			bucket = defaultBucket
		}
		return fmt.Sprintf("%s|%s|%s", t.Kind, t.Path, bucket)
	case KindModbusTCP:
		return fmt.Sprintf("%s|%s|%d|%d", t.Kind, t.Endpoint, t.UnitID, t.BaseRegister)
	case KindModbusRTU:
		return fmt.Sprintf("%s|%s|%d|%d", t.Kind, t.Serial.Device, t.UnitID, t.BaseRegister)
	}
	return ""
}

func validateTransport(what string, t TransportConfig, wordSize int) error {
	switch t.Kind {
	case "", KindMem:
		return nil

	case KindModbusTCP, KindModbusRTU:
		// registers are 16 bits wide
		if wordSize != 0 && wordSize != 2 {
			return fmt.Errorf(
				"%s %s: word_size must be 2, got %d",
				what,
				t.Kind,
				wordSize,
			)
		}
		if t.TimeoutMs < 0 {
			return fmt.Errorf("%s %s: timeout_ms %d must be >= 0", what, t.Kind, t.TimeoutMs)
		}
		if t.Kind == KindModbusTCP {
			if t.Endpoint == "" {
				return fmt.Errorf("%s %s: endpoint is required", what, t.Kind)
			}
			return nil
		}
		if t.Serial.Device == "" {
			return fmt.Errorf("%s %s: serial.device is required", what, t.Kind)
		}
		switch t.Serial.Parity {
		case "", "N", "E", "O":
		default:
			return fmt.Errorf("%s %s: serial.parity %q must be N, E or O", what, t.Kind, t.Serial.Parity)
		}
		if t.Serial.BaudRate < 0 || t.Serial.DataBits < 0 || t.Serial.StopBits < 0 {
			return fmt.Errorf("%s %s: serial settings must be >= 0", what, t.Kind)
		}
		return nil

	case KindBolt:
		if t.Path == "" {
			return fmt.Errorf("%s %s: path is required", what, t.Kind)
		}
		return nil

	default:
		return fmt.Errorf("%s kind %q: must be one of %s, %s, %s, %s",
			what, t.Kind, KindMem, KindModbusTCP, KindModbusRTU, KindBolt)
	}
}
