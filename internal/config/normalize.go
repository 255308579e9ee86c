// internal/config/normalize.go
package config

const (
	DefaultDevice     = "default"
	DefaultWordSize   = 2
	DefaultTimeoutMs  = 1000
	DefaultIntervalMs = 1000
	DefaultLogLevel   = "info"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Device == "" {
		cfg.Device = DefaultDevice
	}
	if cfg.WordSize == 0 {
		cfg.WordSize = DefaultWordSize
	}
	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = DefaultIntervalMs
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}

	normalizeTransport(&cfg.Transport, cfg.Device)

	for i := range cfg.Mirrors {
		m := &cfg.Mirrors[i]
		normalizeTransport(&m.TransportConfig, m.Name)
	}
}

func normalizeTransport(t *TransportConfig, bucket string) {
	if t.Kind == "" {
		t.Kind = KindMem
	}
	if t.IsModbus() && t.TimeoutMs == 0 {
		t.TimeoutMs = DefaultTimeoutMs
	}
	if t.Kind == KindBolt && t.Bucket == "" {
		t.Bucket = bucket
	}

	// RTU line defaults: 19200 8E1
	if t.Kind == KindModbusRTU {
		s := &t.Serial
		if s.BaudRate == 0 {
			s.BaudRate = 19200
		}
		if s.DataBits == 0 {
			s.DataBits = 8
		}
		if s.Parity == "" {
			s.Parity = "E"
		}
		if s.StopBits == 0 {
			s.StopBits = 1
		}
	}
}
