// internal/transport/bolt/block_test.go
package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/tamzrod/regcache/internal/bitaddr"
	"github.com/tamzrod/regcache/internal/regcache"
)

func openTemp[W regcache.Word](t *testing.T, size int) (*Block[W], string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "regs.db")
	b, err := Open[W](path, "dev1", size)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b, path
}

func TestOpen_Validates(t *testing.T) {
	dir := t.TempDir()
	_, err := Open[uint16](filepath.Join(dir, "a.db"), "dev1", 3)
	require.Error(t, err)
	_, err = Open[uint16](filepath.Join(dir, "b.db"), "", 4)
	require.Error(t, err)
}

func TestUnwrittenWordsReadZero(t *testing.T) {
	b, _ := openTemp[uint16](t, 8)
	got := []uint16{9, 9, 9, 9}
	require.NoError(t, b.Read(context.Background(), 0, got))
	assert.Equal(t, []uint16{0, 0, 0, 0}, got)
}

func TestReadWrite(t *testing.T) {
	b, _ := openTemp[uint32](t, 16)
	ctx := context.Background()

	require.NoError(t, b.Write(ctx, 4, []uint32{0xDEADBEEF, 0x01020304}))
	got := make([]uint32, 4)
	require.NoError(t, b.Read(ctx, 0, got))
	assert.Equal(t, []uint32{0, 0xDEADBEEF, 0x01020304, 0}, got)
}

func TestKeyLayout(t *testing.T) {
	b, _ := openTemp[uint16](t, 8)
	require.NoError(t, b.Write(context.Background(), 6, []uint16{0xABCD}))

	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(BucketName("dev1"))).Get([]byte{0, 0, 0, 3})
		assert.Equal(t, []byte{0xAB, 0xCD}, v)
		return nil
	})
	require.NoError(t, err)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regs.db")
	ctx := context.Background()

	b, err := Open[uint8](path, "dev1", 4)
	require.NoError(t, err)
	require.NoError(t, b.Write(ctx, 1, []uint8{0x11, 0x22}))
	require.NoError(t, b.Close())

	b, err = Open[uint8](path, "dev1", 4)
	require.NoError(t, err)
	defer b.Close()
	got := make([]uint8, 4)
	require.NoError(t, b.Read(ctx, 0, got))
	assert.Equal(t, []uint8{0, 0x11, 0x22, 0}, got)
}

func TestDevicesAreIsolated(t *testing.T) {
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "regs.db"), 0600, nil)
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	a, err := New[uint16](db, "a", 4)
	require.NoError(t, err)
	b, err := New[uint16](db, "b", 4)
	require.NoError(t, err)

	require.NoError(t, a.Write(ctx, 0, []uint16{7}))
	got := make([]uint16, 1)
	require.NoError(t, b.Read(ctx, 0, got))
	assert.Equal(t, uint16(0), got[0])

	// shared database stays open
	require.NoError(t, a.Close())
	require.NoError(t, b.Read(ctx, 0, got))
}

func TestRangeAndAlignment(t *testing.T) {
	b, _ := openTemp[uint16](t, 4)
	ctx := context.Background()

	require.ErrorIs(t, b.Read(ctx, 1, make([]uint16, 1)), ErrRange)
	require.ErrorIs(t, b.Read(ctx, 2, make([]uint16, 2)), ErrRange)
	require.ErrorIs(t, b.Write(ctx, 4, []uint16{1}), ErrRange)
}

func TestCancelledContext(t *testing.T) {
	b, _ := openTemp[uint16](t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, b.Write(ctx, 0, []uint16{1}), context.Canceled)
}

func TestBehindCache(t *testing.T) {
	b, _ := openTemp[uint16](t, 8)
	c, err := regcache.New[uint16](b)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.WriteSection(bitaddr.FromBytes(2), bitaddr.FromBytes(2), []byte{0x34, 0x12}))
	require.NoError(t, c.Flush(ctx))

	got := make([]uint16, 4)
	require.NoError(t, b.Read(ctx, 0, got))
	assert.Equal(t, []uint16{0, 0x1234, 0, 0}, got)

	c2, err := regcache.New[uint16](b)
	require.NoError(t, err)
	require.NoError(t, c2.Refresh(ctx))
	buf := make([]byte, 2)
	require.NoError(t, c2.ReadSection(bitaddr.FromBytes(2), bitaddr.FromBytes(2), buf))
	assert.Equal(t, []byte{0x34, 0x12}, buf)
}
