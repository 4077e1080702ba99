package state

import (
	"context"
	"fmt"

	"github.com/step-security-bot/hedera-mirror-node/common"
)

// Accessor reads and writes the entries of one kind as values of type V
type Accessor[V any] struct {
	Kind Kind
}

// Get returns the value of key, or false when it has none
func (a Accessor[V]) Get(ctx context.Context, s *FrameStack, key Key) (V, bool, error) {
	var zero V
	value, found, err := s.Get(ctx, a.Kind, key)
	if err != nil || !found {
		return zero, false, common.Wrap(err)
	}
	typed, ok := value.(V)
	if !ok {
		return zero, false, common.Wrap(fmt.Errorf("%s entry %s holds %T, want %T", a.Kind, key, value, zero))
	}
	return typed, true, nil
}

// Set writes value for key in the top frame
func (a Accessor[V]) Set(s *FrameStack, key Key, value V) error {
	return common.Wrap(s.Set(a.Kind, key, value))
}

// Delete marks key as absent in the top frame
func (a Accessor[V]) Delete(s *FrameStack, key Key) error {
	return common.Wrap(s.Delete(a.Kind, key))
}
