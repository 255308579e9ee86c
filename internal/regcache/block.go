// internal/regcache/block.go
package regcache

import (
	"context"
	"math/bits"
)

// Word is the register width a Block transfers in.
type Word interface {
	uint8 | uint16 | uint32 | uint64
}

// Block is the register transport the cache sits on.
// byteAddr is always a multiple of the word size; len(dst)/len(src) is the
// word count. Either call may fail; the cache never retries.
type Block[W Word] interface {
	SizeInBytes() int
	Read(ctx context.Context, byteAddr int, dst []W) error
	Write(ctx context.Context, byteAddr int, src []W) error
}

// WordSize returns the byte width of W.
func WordSize[W Word]() int {
	return bits.Len64(uint64(^W(0))) / 8
}

// Pack fills dst from src, byte k of word i taken from src[i*size+k]
// (little-endian). len(src) must be len(dst)*WordSize[W]().
func Pack[W Word](dst []W, src []byte) {
	size := WordSize[W]()
	for i := range dst {
		var w uint64
		for k := size - 1; k >= 0; k-- {
			w = w<<8 | uint64(src[i*size+k])
		}
		dst[i] = W(w)
	}
}

// Unpack is the inverse of Pack.
func Unpack[W Word](dst []byte, src []W) {
	size := WordSize[W]()
	for i, w := range src {
		v := uint64(w)
		for k := 0; k < size; k++ {
			dst[i*size+k] = byte(v)
			v >>= 8
		}
	}
}
