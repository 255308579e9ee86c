// internal/regcache/cache.go
package regcache

import (
	"context"
	"fmt"

	"github.com/tamzrod/regcache/internal/bitaddr"
)

// MaxSize bounds the byte size of a cached block.
const MaxSize = 1024 * 1024

// Cache is a write-back byte cache over a register Block.
//
// Reads and writes are bit-granular and only touch the local buffer. Each
// byte carries a State. Refresh pulls the whole block, Flush pushes the
// register words holding Modified bytes in coalesced runs.
//
// NOT safe for concurrent use. Callers sharing a Cache serialize access.
type Cache[W Word] struct {
	block    Block[W]
	wordSize int

	prev  []byte // last value pulled from / pushed to the block
	cur   []byte // working copy
	state []State

	changes int // bytes currently Modified

	subs    []subscriber
	nextSub int
}

// Compile-time check.
var _ Cached = (*Cache[uint16])(nil)

// New binds a cache to block for its whole life. The block size must be in
// 1..MaxSize and a whole number of words.
func New[W Word](block Block[W]) (*Cache[W], error) {
	if block == nil {
		return nil, fmt.Errorf("%w: register block required", ErrContract)
	}
	size := block.SizeInBytes()
	if size < 1 || size > MaxSize {
		return nil, fmt.Errorf("%w: register block size (%d) is less than 1 or greater than %d", ErrContract, size, MaxSize)
	}
	ws := WordSize[W]()
	if size%ws != 0 {
		return nil, fmt.Errorf("%w: register block size (%d) is not a multiple of the %d-byte word", ErrContract, size, ws)
	}
	return &Cache[W]{
		block:    block,
		wordSize: ws,
		prev:     make([]byte, size),
		cur:      make([]byte, size),
		state:    make([]State, size),
	}, nil
}

func (c *Cache[W]) Size() int        { return len(c.cur) }
func (c *Cache[W]) WordSize() int    { return c.wordSize }
func (c *Cache[W]) HasChanges() bool { return c.changes != 0 }

// Changes is the number of bytes in Modified state.
func (c *Cache[W]) Changes() int { return c.changes }

// ReadSection copies length bits starting at address into dst, LSB first.
// len(dst) must be length.BufferLen(); unused high bits of the last byte are zero.
func (c *Cache[W]) ReadSection(address, length bitaddr.Address, dst []byte) error {
	if err := c.checkSection(address, length, len(dst)); err != nil {
		return err
	}

	start, n, rem := address.Bytes(), length.Bytes(), length.Bits()
	if address.Bits() == 0 {
		copy(dst, c.cur[start:start+n])
		if rem != 0 {
			dst[n] = c.cur[start+n] & bitMask(uint(rem))
		}
		return nil
	}

	clear(dst)
	var done bitaddr.Address
	for done.TotalBits() < length.TotalBits() {
		src := address.Add(done)
		k := stepBits(uint(src.Bits()), uint(done.Bits()), length.TotalBits()-done.TotalBits())

		v := (c.cur[src.Bytes()] >> src.Bits()) & bitMask(k)
		dst[done.Bytes()] |= v << done.Bits()

		done.AddBits(uint64(k))
	}
	return nil
}

// WriteSection copies length bits from src (LSB first) into the cache at
// address. Bits outside the section are left alone.
func (c *Cache[W]) WriteSection(address, length bitaddr.Address, src []byte) error {
	if err := c.checkSection(address, length, len(src)); err != nil {
		return err
	}

	start, n, rem := address.Bytes(), length.Bytes(), length.Bits()
	if address.Bits() == 0 {
		for i := 0; i < n; i++ {
			c.cur[start+i] = src[i]
			c.updateState(start + i)
		}
		if rem != 0 {
			m := bitMask(uint(rem))
			c.cur[start+n] = c.cur[start+n]&^m | src[n]&m
			c.updateState(start + n)
		}
		c.emit(EventChanged)
		return nil
	}

	var done bitaddr.Address
	for done.TotalBits() < length.TotalBits() {
		dst := address.Add(done)
		k := stepBits(uint(done.Bits()), uint(dst.Bits()), length.TotalBits()-done.TotalBits())

		m := bitMask(k) << dst.Bits()
		v := (src[done.Bytes()] >> done.Bits()) << dst.Bits()
		c.cur[dst.Bytes()] = c.cur[dst.Bytes()]&^m | v&m
		c.updateState(dst.Bytes())

		done.AddBits(uint64(k))
	}
	c.emit(EventChanged)
	return nil
}

// SectionState reports the strongest state in the section:
// Error, then Modified, then Updated, then Default.
// Error and Updated are byte-granular; Modified is checked bit by bit.
func (c *Cache[W]) SectionState(address, length bitaddr.Address) (State, error) {
	if err := c.checkSection(address, length, length.BufferLen()); err != nil {
		return Default, err
	}
	if length.IsZero() {
		return Default, nil
	}

	first := address.Bytes()
	span := bitaddr.FromBits(uint64(address.Bits())).Add(length).BufferLen()
	updated := false
	for i := first; i < first+span; i++ {
		switch c.state[i] {
		case Error:
			return Error, nil
		case Updated:
			updated = true
		}
	}

	if c.sectionModified(address, length) {
		return Modified, nil
	}
	if updated {
		return Updated, nil
	}
	return Default, nil
}

func (c *Cache[W]) sectionModified(address, length bitaddr.Address) bool {
	if address.Bits() == 0 {
		start, n, rem := address.Bytes(), length.Bytes(), length.Bits()
		for i := start; i < start+n; i++ {
			if c.state[i] == Modified {
				return true
			}
		}
		if rem != 0 {
			m := bitMask(uint(rem))
			return c.cur[start+n]&m != c.prev[start+n]&m
		}
		return false
	}

	var done bitaddr.Address
	for done.TotalBits() < length.TotalBits() {
		at := address.Add(done)
		k := stepBits(uint(at.Bits()), 0, length.TotalBits()-done.TotalBits())
		m := bitMask(k) << at.Bits()
		if c.cur[at.Bytes()]&m != c.prev[at.Bytes()]&m {
			return true
		}
		done.AddBits(uint64(k))
	}
	return false
}

// MarkError puts every byte the section touches into Error state. Their
// current value stays out of Flush until ClearError or the next Refresh.
func (c *Cache[W]) MarkError(address, length bitaddr.Address) error {
	if err := c.checkSection(address, length, length.BufferLen()); err != nil {
		return err
	}
	first, span := c.byteSpan(address, length)
	for i := first; i < first+span; i++ {
		if c.state[i] == Modified {
			c.bump(-1)
		}
		c.state[i] = Error
	}
	c.emit(EventChanged)
	return nil
}

// ClearError recomputes the state of the section's Error bytes from their
// current and previous values.
func (c *Cache[W]) ClearError(address, length bitaddr.Address) error {
	if err := c.checkSection(address, length, length.BufferLen()); err != nil {
		return err
	}
	first, span := c.byteSpan(address, length)
	cleared := false
	for i := first; i < first+span; i++ {
		if c.state[i] == Error {
			c.state[i] = Default
			c.updateState(i)
			cleared = true
		}
	}
	if cleared {
		c.emit(EventChanged)
	}
	return nil
}

// Refresh reads the whole block. Bytes that differ from the previous pull
// become Updated, all others Default. Unflushed local writes are discarded.
// On a transport failure nothing changes.
func (c *Cache[W]) Refresh(ctx context.Context) error {
	words := make([]W, len(c.cur)/c.wordSize)
	if err := c.block.Read(ctx, 0, words); err != nil {
		return &IOError{Op: "read", Addr: 0, Words: len(words), Err: err}
	}
	fresh := make([]byte, len(c.cur))
	Unpack(fresh, words)

	for i := range fresh {
		if fresh[i] != c.prev[i] {
			c.state[i] = Updated
		} else {
			c.state[i] = Default
		}
	}
	copy(c.cur, fresh)
	copy(c.prev, fresh)

	hadChanges := c.changes != 0
	c.changes = 0

	c.emit(EventChanged)
	if hadChanges {
		c.emit(EventPending)
	}
	return nil
}

type span struct {
	start int // byte offset
	n     int // bytes, a whole number of words
}

// Flush writes every register word holding a Modified byte, one Write per
// maximal run of adjacent dirty words. Error bytes go out with their
// previous value and keep their state, current value and baseline, so a
// word shared with an Error byte is never held back. State and baseline are
// committed only when every write succeeded.
func (c *Cache[W]) Flush(ctx context.Context) error {
	runs := c.dirtyRuns()
	if len(runs) == 0 {
		return nil
	}

	for _, r := range runs {
		words := make([]W, r.n/c.wordSize)
		Pack(words, c.outgoing(r))
		if err := c.block.Write(ctx, r.start, words); err != nil {
			return &IOError{Op: "write", Addr: r.start, Words: len(words), Err: err}
		}
	}

	for _, r := range runs {
		for i := r.start; i < r.start+r.n; i++ {
			switch c.state[i] {
			case Error:
				continue
			case Modified:
				c.bump(-1)
			}
			c.state[i] = Default
			c.prev[i] = c.cur[i]
		}
	}
	c.emit(EventChanged)
	return nil
}

func (c *Cache[W]) dirtyRuns() []span {
	var runs []span
	numWords := len(c.cur) / c.wordSize
	for w := 0; w < numWords; {
		if !c.wordDirty(w) {
			w++
			continue
		}
		first := w
		for w < numWords && c.wordDirty(w) {
			w++
		}
		runs = append(runs, span{start: first * c.wordSize, n: (w - first) * c.wordSize})
	}
	return runs
}

func (c *Cache[W]) wordDirty(w int) bool {
	for _, s := range c.state[w*c.wordSize : (w+1)*c.wordSize] {
		if s == Modified {
			return true
		}
	}
	return false
}

// outgoing is the byte image of r as written to the block.
func (c *Cache[W]) outgoing(r span) []byte {
	out := make([]byte, r.n)
	copy(out, c.cur[r.start:r.start+r.n])
	for i := range out {
		if c.state[r.start+i] == Error {
			out[i] = c.prev[r.start+i]
		}
	}
	return out
}

func (c *Cache[W]) updateState(i int) {
	if c.state[i] == Error {
		return
	}
	next := Default
	if c.cur[i] != c.prev[i] {
		next = Modified
	}
	switch {
	case next == Modified && c.state[i] != Modified:
		c.bump(1)
	case next == Default && c.state[i] == Modified:
		c.bump(-1)
	}
	c.state[i] = next
}

func (c *Cache[W]) bump(delta int) {
	before := c.changes
	c.changes += delta
	if (before == 0) != (c.changes == 0) {
		c.emit(EventPending)
	}
}

func (c *Cache[W]) checkSection(address, length bitaddr.Address, bufLen int) error {
	if bufLen != length.BufferLen() {
		return fmt.Errorf("%w: length %s needs a %d-byte buffer, got %d", ErrContract, length, length.BufferLen(), bufLen)
	}
	end := address.Add(length)
	if end.CompareBytes(uint64(len(c.cur))) > 0 {
		return fmt.Errorf("%w: section %s+%s ends past the %d-byte cache", ErrContract, address, length, len(c.cur))
	}
	return nil
}

// byteSpan is the run of bytes a section touches.
func (c *Cache[W]) byteSpan(address, length bitaddr.Address) (first, n int) {
	if length.IsZero() {
		return address.Bytes(), 0
	}
	return address.Bytes(), bitaddr.FromBits(uint64(address.Bits())).Add(length).BufferLen()
}

// stepBits is how many bits can move in one step: bounded by what is left
// in the source byte, the destination byte, and the section.
func stepBits(srcBit, dstBit uint, remaining uint64) uint {
	k := 8 - srcBit
	if 8-dstBit < k {
		k = 8 - dstBit
	}
	if remaining < uint64(k) {
		k = uint(remaining)
	}
	return k
}

// bitMask has the low n bits set, n <= 8.
func bitMask(n uint) byte {
	return byte(1<<n - 1)
}
