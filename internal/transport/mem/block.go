// internal/transport/mem/block.go
package mem

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tamzrod/regcache/internal/regcache"
)

var (
	ErrReadOnly = errors.New("mem: block is read-only")
	ErrRange    = errors.New("mem: access out of range")
)

// Block is a register block held in RAM. It stands in for a device in
// tests and serves as a local simulator.
type Block[W regcache.Word] struct {
	mu       sync.Mutex
	words    []W
	readOnly bool

	reads  int
	writes int
}

// New allocates a zeroed block. sizeInBytes must be a positive multiple of
// the word size.
func New[W regcache.Word](sizeInBytes int, readOnly bool) (*Block[W], error) {
	ws := regcache.WordSize[W]()
	if sizeInBytes < 1 || sizeInBytes%ws != 0 {
		return nil, fmt.Errorf("mem: size %d is not a positive multiple of %d", sizeInBytes, ws)
	}
	return &Block[W]{
		words:    make([]W, sizeInBytes/ws),
		readOnly: readOnly,
	}, nil
}

func (b *Block[W]) SizeInBytes() int {
	return len(b.words) * regcache.WordSize[W]()
}

func (b *Block[W]) Read(ctx context.Context, byteAddr int, dst []W) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	i, err := b.index(byteAddr, len(dst))
	if err != nil {
		return err
	}
	copy(dst, b.words[i:i+len(dst)])
	b.reads++
	return nil
}

func (b *Block[W]) Write(ctx context.Context, byteAddr int, src []W) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.readOnly {
		return ErrReadOnly
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	i, err := b.index(byteAddr, len(src))
	if err != nil {
		return err
	}
	copy(b.words[i:i+len(src)], src)
	b.writes++
	return nil
}

// Poke changes bytes from the device side, bypassing the read-only flag.
func (b *Block[W]) Poke(byteAddr int, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if byteAddr < 0 || byteAddr+len(data) > b.SizeInBytes() {
		return fmt.Errorf("%w: %d bytes at 0x%X", ErrRange, len(data), byteAddr)
	}
	img := b.snapshot()
	copy(img[byteAddr:], data)
	regcache.Pack(b.words, img)
	return nil
}

// Bytes returns a copy of the block contents in cache byte order.
func (b *Block[W]) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

// Calls reports how many Read and Write calls succeeded.
func (b *Block[W]) Calls() (reads, writes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reads, b.writes
}

func (b *Block[W]) snapshot() []byte {
	img := make([]byte, b.SizeInBytes())
	regcache.Unpack(img, b.words)
	return img
}

func (b *Block[W]) index(byteAddr, count int) (int, error) {
	ws := regcache.WordSize[W]()
	if byteAddr < 0 || byteAddr%ws != 0 {
		return 0, fmt.Errorf("%w: byte address 0x%X is not %d-byte aligned", ErrRange, byteAddr, ws)
	}
	i := byteAddr / ws
	if i+count > len(b.words) {
		return 0, fmt.Errorf("%w: %d words at 0x%X", ErrRange, count, byteAddr)
	}
	return i, nil
}
