// internal/transport/modbus/block.go
package modbus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Per-request register limits of function codes 3 and 16.
const (
	MaxReadRegisters  = 125
	MaxWriteRegisters = 123
)

// Client is the part of modbus.Client the block uses.
type Client interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

type Serial struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   string // N, E or O
	StopBits int
}

type Config struct {
	Mode         string // "tcp" or "rtu"
	Endpoint     string
	Serial       Serial
	UnitID       uint8
	Timeout      time.Duration
	BaseRegister uint16
	Registers    int
}

// Block maps a run of holding registers onto a register block of 16-bit
// words. Cache byte address a is register BaseRegister + a/2.
// Requests are serialized.
type Block struct {
	mu     sync.Mutex
	client Client
	closer io.Closer
	base   uint16
	regs   int
}

// Dial connects to the device described by cfg.
func Dial(cfg Config) (*Block, error) {
	var (
		handler modbus.ClientHandler
		closer  io.Closer
	)
	switch cfg.Mode {
	case "tcp":
		if cfg.Endpoint == "" {
			return nil, errors.New("modbus: endpoint required")
		}
		h := modbus.NewTCPClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		if err := h.Connect(); err != nil {
			return nil, err
		}
		handler, closer = h, h
	case "rtu":
		if cfg.Serial.Device == "" {
			return nil, errors.New("modbus: serial device required")
		}
		h := modbus.NewRTUClientHandler(cfg.Serial.Device)
		h.BaudRate = cfg.Serial.BaudRate
		h.DataBits = cfg.Serial.DataBits
		h.Parity = cfg.Serial.Parity
		h.StopBits = cfg.Serial.StopBits
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		if err := h.Connect(); err != nil {
			return nil, err
		}
		handler, closer = h, h
	default:
		return nil, fmt.Errorf("modbus: unknown mode %q", cfg.Mode)
	}

	b, err := New(modbus.NewClient(handler), cfg.BaseRegister, cfg.Registers)
	if err != nil {
		closer.Close()
		return nil, err
	}
	b.closer = closer
	return b, nil
}

// New wraps an existing client.
func New(client Client, base uint16, registers int) (*Block, error) {
	if client == nil {
		return nil, errors.New("modbus: client required")
	}
	if registers < 1 || int(base)+registers > 0x10000 {
		return nil, fmt.Errorf("modbus: %d registers from %d exceed the register space", registers, base)
	}
	return &Block{client: client, base: base, regs: registers}, nil
}

func (b *Block) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

func (b *Block) SizeInBytes() int { return b.regs * 2 }

func (b *Block) Read(ctx context.Context, byteAddr int, dst []uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	first, err := b.register(byteAddr, len(dst))
	if err != nil {
		return err
	}
	for done := 0; done < len(dst); {
		if err := ctx.Err(); err != nil {
			return err
		}
		qty := min(len(dst)-done, MaxReadRegisters)
		addr := first + uint16(done)

		resp, err := b.client.ReadHoldingRegisters(addr, uint16(qty))
		if err != nil {
			return fmt.Errorf("modbus: read %d registers at %d: %w", qty, addr, err)
		}
		if len(resp) != qty*2 {
			return fmt.Errorf("modbus: read %d registers at %d: got %d bytes", qty, addr, len(resp))
		}
		unpackRegisters(dst[done:done+qty], resp)
		done += qty
	}
	return nil
}

func (b *Block) Write(ctx context.Context, byteAddr int, src []uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	first, err := b.register(byteAddr, len(src))
	if err != nil {
		return err
	}
	for done := 0; done < len(src); {
		if err := ctx.Err(); err != nil {
			return err
		}
		qty := min(len(src)-done, MaxWriteRegisters)
		addr := first + uint16(done)

		if _, err := b.client.WriteMultipleRegisters(addr, uint16(qty), packRegisters(src[done:done+qty])); err != nil {
			return fmt.Errorf("modbus: write %d registers at %d: %w", qty, addr, err)
		}
		done += qty
	}
	return nil
}

func (b *Block) register(byteAddr, count int) (uint16, error) {
	if byteAddr < 0 || byteAddr%2 != 0 {
		return 0, fmt.Errorf("modbus: byte address 0x%X is not register aligned", byteAddr)
	}
	i := byteAddr / 2
	if i+count > b.regs {
		return 0, fmt.Errorf("modbus: %d registers at offset %d exceed the %d-register block", count, i, b.regs)
	}
	return b.base + uint16(i), nil
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}

func unpackRegisters(dst []uint16, data []byte) {
	for i := range dst {
		dst[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
}
