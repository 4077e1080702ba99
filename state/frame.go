package state

import (
	"context"

	"github.com/mitchellh/copystructure"
	"github.com/step-security-bot/hedera-mirror-node/common"
)

// CacheFrame is one writable layer of a FrameStack.  It records the values
// written by a call and caches what it read from its parent.
type CacheFrame struct {
	parent  Frame
	entries [numKinds]map[Key]entry
}

func newCacheFrame(parent Frame) *CacheFrame {
	f := &CacheFrame{parent: parent}
	for i := range f.entries {
		f.entries[i] = make(map[Key]entry)
	}
	return f
}

// Get implements Frame.  Values read from the parent are cached in f.
func (f *CacheFrame) Get(ctx context.Context, kind Kind, key Key) (interface{}, bool, error) {
	if e, ok := f.entries[kind][key]; ok {
		return e.value, !e.absent, nil
	}
	value, found, err := f.parent.Get(ctx, kind, key)
	if err != nil {
		return nil, false, common.Wrap(err)
	}
	f.entries[kind][key] = entry{value: value, absent: !found}
	return value, found, nil
}

func (f *CacheFrame) set(kind Kind, key Key, value interface{}) error {
	copied, err := copystructure.Copy(value)
	if err != nil {
		return common.Wrap(err)
	}
	f.entries[kind][key] = entry{value: copied}
	return nil
}

func (f *CacheFrame) delete(kind Kind, key Key) {
	f.entries[kind][key] = entry{absent: true}
}

// mergeInto copies every entry of f into dst, overriding dst
func (f *CacheFrame) mergeInto(dst *CacheFrame) {
	for kind := range f.entries {
		for key, e := range f.entries[kind] {
			dst.entries[kind][key] = e
		}
	}
}

// Len returns the number of entries held by the frame
func (f *CacheFrame) Len() int {
	n := 0
	for _, m := range f.entries {
		n += len(m)
	}
	return n
}

func (f *CacheFrame) reset() {
	for _, m := range f.entries {
		for key := range m {
			delete(m, key)
		}
	}
}
