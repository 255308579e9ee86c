// internal/session/builder.go
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/regcache/internal/config"
	"github.com/tamzrod/regcache/internal/log"
	"github.com/tamzrod/regcache/internal/regcache"
	"github.com/tamzrod/regcache/internal/regmap"
	"github.com/tamzrod/regcache/internal/transport/bolt"
	"github.com/tamzrod/regcache/internal/transport/mem"
	"github.com/tamzrod/regcache/internal/transport/modbus"
)

// Session binds one register map to one device through a cache.
type Session struct {
	Config   *config.Config
	Device   string
	Schema   *regmap.Block
	Cache    regcache.Cached
	Interval time.Duration

	close func() error
}

// Build loads the schema named by cfg and opens its transport.
// cfg must have passed config.Validate and config.Normalize.
// The transport is opened once: a failure here is fatal for the caller.
func Build(cfg *config.Config) (*Session, error) {
	schema, err := regmap.Load(cfg.Schema)
	if err != nil {
		return nil, err
	}
	return BuildWith(cfg, schema)
}

// BuildWith opens the transport for an already initialized schema.
func BuildWith(cfg *config.Config, schema *regmap.Block) (*Session, error) {
	if !schema.Initialized() {
		return nil, errors.New("session: schema is not initialized")
	}
	if cfg.WordSize < 1 {
		return nil, fmt.Errorf("session: word_size %d, config not normalized", cfg.WordSize)
	}
	if schema.SizeInBytes%cfg.WordSize != 0 {
		return nil, fmt.Errorf("session: block size %d is not a multiple of word_size %d", schema.SizeInBytes, cfg.WordSize)
	}

	var (
		cache  regcache.Cached
		closer func() error
		err    error
	)
	switch cfg.WordSize {
	case 1:
		cache, closer, err = build[uint8](cfg, schema.SizeInBytes)
	case 2:
		cache, closer, err = build[uint16](cfg, schema.SizeInBytes)
	case 4:
		cache, closer, err = build[uint32](cfg, schema.SizeInBytes)
	case 8:
		cache, closer, err = build[uint64](cfg, schema.SizeInBytes)
	default:
		err = fmt.Errorf("session: unsupported word_size %d", cfg.WordSize)
	}
	if err != nil {
		return nil, err
	}

	log.Debug("session %s: %s block %q, %d bytes, %d-byte words",
		cfg.Device, cfg.Transport.Kind, schema.ID, schema.SizeInBytes, cfg.WordSize)

	return &Session{
		Config:   cfg,
		Device:   cfg.Device,
		Schema:   schema,
		Cache:    cache,
		Interval: time.Duration(cfg.Poll.IntervalMs) * time.Millisecond,
		close:    closer,
	}, nil
}

func build[W regcache.Word](cfg *config.Config, size int) (regcache.Cached, func() error, error) {
	block, closer, err := OpenBlock[W](cfg.Transport, size)
	if err != nil {
		return nil, nil, err
	}
	c, err := regcache.New[W](block)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return c, closer, nil
}

// OpenBlock opens the register block t describes. The returned func
// releases it.
func OpenBlock[W regcache.Word](t config.TransportConfig, size int) (regcache.Block[W], func() error, error) {
	nop := func() error { return nil }

	switch t.Kind {
	case config.KindMem:
		b, err := mem.New[W](size, t.ReadOnly)
		if err != nil {
			return nil, nil, err
		}
		return b, nop, nil

	case config.KindBolt:
		b, err := bolt.Open[W](t.Path, t.Bucket, size)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil

	case config.KindModbusTCP, config.KindModbusRTU:
		if regcache.WordSize[W]() != 2 {
			return nil, nil, fmt.Errorf("session: %s needs word_size 2", t.Kind)
		}
		mode := "tcp"
		if t.Kind == config.KindModbusRTU {
			mode = "rtu"
		}
		mb, err := modbus.Dial(modbus.Config{
			Mode:     mode,
			Endpoint: t.Endpoint,
			Serial: modbus.Serial{
				Device:   t.Serial.Device,
				BaudRate: t.Serial.BaudRate,
				DataBits: t.Serial.DataBits,
				Parity:   t.Serial.Parity,
				StopBits: t.Serial.StopBits,
			},
			UnitID:       t.UnitID,
			Timeout:      time.Duration(t.TimeoutMs) * time.Millisecond,
			BaseRegister: t.BaseRegister,
			Registers:    size / 2,
		})
		if err != nil {
			return nil, nil, err
		}
		return any(mb).(regcache.Block[W]), mb.Close, nil

	default:
		return nil, nil, fmt.Errorf("session: unknown transport kind %q", t.Kind)
	}
}

// Lookup resolves a value by name.
func (s *Session) Lookup(name string) (*regmap.Value, error) {
	v, ok := s.Schema.Value(name)
	if !ok {
		return nil, fmt.Errorf("%s: no value named %q", s.Schema.ID, name)
	}
	return v, nil
}

// Close releases the transport.
func (s *Session) Close() error {
	if s.close == nil {
		return nil
	}
	err := s.close()
	s.close = nil
	return err
}
