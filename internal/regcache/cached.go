// internal/regcache/cached.go
package regcache

import (
	"context"

	"github.com/tamzrod/regcache/internal/bitaddr"
)

// Accessor is the section-level surface field codecs need.
type Accessor interface {
	ReadSection(address, length bitaddr.Address, dst []byte) error
	WriteSection(address, length bitaddr.Address, src []byte) error
	SectionState(address, length bitaddr.Address) (State, error)
	MarkError(address, length bitaddr.Address) error
	ClearError(address, length bitaddr.Address) error
}

// Cached hides the word type of a Cache from code that picks it at runtime.
type Cached interface {
	Accessor
	Refresh(ctx context.Context) error
	Flush(ctx context.Context) error
	HasChanges() bool
	Changes() int
	Size() int
	WordSize() int
	Subscribe(fn func(Event)) (cancel func())
}
