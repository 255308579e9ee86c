// internal/transport/bolt/block.go
package bolt

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/tamzrod/regcache/internal/log"
	"github.com/tamzrod/regcache/internal/regcache"
)

const BucketNamePrefix = "reg_"

var ErrRange = errors.New("bolt: access out of range")

// Block is a register image persisted in a bbolt database. Each device
// gets its own bucket; each register word is one key holding the word
// big-endian. Words never written read as zero.
type Block[W regcache.Word] struct {
	db     *bbolt.DB
	bucket []byte
	size   int
	owned  bool
}

// Open opens (or creates) the database at path and the bucket for device.
// Close releases the database.
func Open[W regcache.Word](path, device string, sizeInBytes int) (*Block[W], error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}
	b, err := New[W](db, device, sizeInBytes)
	if err != nil {
		db.Close()
		return nil, err
	}
	b.owned = true
	return b, nil
}

// New binds a block to an already open database. The caller keeps
// ownership of db.
func New[W regcache.Word](db *bbolt.DB, device string, sizeInBytes int) (*Block[W], error) {
	ws := regcache.WordSize[W]()
	if sizeInBytes < 1 || sizeInBytes%ws != 0 {
		return nil, fmt.Errorf("bolt: size %d is not a positive multiple of %d", sizeInBytes, ws)
	}
	if device == "" {
		return nil, errors.New("bolt: device name is empty")
	}
	name := []byte(BucketName(device))
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(name)
		return err
	}); err != nil {
		return nil, fmt.Errorf("bolt: create bucket %s: %w", name, err)
	}
	return &Block[W]{db: db, bucket: name, size: sizeInBytes}, nil
}

func BucketName(device string) string {
	return BucketNamePrefix + device
}

func (b *Block[W]) SizeInBytes() int { return b.size }

// Close closes the database if Open created it.
func (b *Block[W]) Close() error {
	if !b.owned {
		return nil
	}
	return b.db.Close()
}

func (b *Block[W]) Read(ctx context.Context, byteAddr int, dst []W) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	first, err := b.index(byteAddr, len(dst))
	if err != nil {
		return err
	}
	log.Debug("bolt: read %d words at 0x%X from %s", len(dst), byteAddr, b.bucket)
	return b.db.View(func(tx *bbolt.Tx) error {
		bk := tx.Bucket(b.bucket)
		if bk == nil {
			return fmt.Errorf("bolt: bucket not found: %s", b.bucket)
		}
		for i := range dst {
			dst[i] = decodeWord[W](bk.Get(key(first + i)))
		}
		return nil
	})
}

// Write stores all words in a single transaction.
func (b *Block[W]) Write(ctx context.Context, byteAddr int, src []W) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	first, err := b.index(byteAddr, len(src))
	if err != nil {
		return err
	}
	log.Debug("bolt: write %d words at 0x%X to %s", len(src), byteAddr, b.bucket)
	return b.db.Update(func(tx *bbolt.Tx) error {
		bk := tx.Bucket(b.bucket)
		if bk == nil {
			return fmt.Errorf("bolt: bucket not found: %s", b.bucket)
		}
		for i, w := range src {
			if err := bk.Put(key(first+i), encodeWord(w)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Block[W]) index(byteAddr, count int) (int, error) {
	ws := regcache.WordSize[W]()
	if byteAddr < 0 || byteAddr%ws != 0 {
		return 0, fmt.Errorf("%w: byte address 0x%X is not %d-byte aligned", ErrRange, byteAddr, ws)
	}
	if byteAddr+count*ws > b.size {
		return 0, fmt.Errorf("%w: %d words at 0x%X", ErrRange, count, byteAddr)
	}
	return byteAddr / ws, nil
}

func key(word int) []byte {
	k := make([]byte, 4)
	binary.BigEndian.PutUint32(k, uint32(word))
	return k
}

func encodeWord[W regcache.Word](w W) []byte {
	ws := regcache.WordSize[W]()
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(w))
	return buf[8-ws:]
}

func decodeWord[W regcache.Word](v []byte) W {
	var w uint64
	for _, c := range v {
		w = w<<8 | uint64(c)
	}
	return W(w)
}
