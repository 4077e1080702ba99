package state

import (
	"context"

	"github.com/step-security-bot/hedera-mirror-node/common"
)

// FrameStack is the stack of writable frames of one call context, above a
// base frame.  Frames are kept once allocated and reused by later pushes.
// A FrameStack is not safe for concurrent use.
type FrameStack struct {
	base   Frame
	frames []*CacheFrame
	// top is the number of live frames above base
	top int
}

// NewFrameStack creates a stack holding only base
func NewFrameStack(base Frame) *FrameStack {
	return &FrameStack{base: base}
}

// Depth returns the number of frames above the base
func (s *FrameStack) Depth() int {
	return s.top
}

func (s *FrameStack) current() Frame {
	if s.top == 0 {
		return s.base
	}
	return s.frames[s.top-1]
}

// Push opens a new empty frame on top
func (s *FrameStack) Push() {
	if s.top == len(s.frames) {
		s.frames = append(s.frames, newCacheFrame(s.current()))
	} else {
		s.frames[s.top].reset()
	}
	s.top++
}

// Pop discards the top frame and everything written in it
func (s *FrameStack) Pop() error {
	if s.top == 0 {
		return common.Wrap(ErrNoFrame)
	}
	s.top--
	return nil
}

// Commit folds the top frame into the frame below it.  The base is read
// only, so the frame right above it cannot be committed and Commit returns
// ErrCommitToBase: a push, set, commit sequence needs a writable frame below,
// that is a depth of at least 2 after the push.
func (s *FrameStack) Commit() error {
	switch s.top {
	case 0:
		return common.Wrap(ErrNoFrame)
	case 1:
		return common.Wrap(ErrCommitToBase)
	}
	s.frames[s.top-1].mergeInto(s.frames[s.top-2])
	s.top--
	return nil
}

// ResetToBase discards every frame above the base.  The base keeps what it
// loaded.
func (s *FrameStack) ResetToBase() {
	s.top = 0
}

// Get reads key from the top of the stack
func (s *FrameStack) Get(ctx context.Context, kind Kind, key Key) (interface{}, bool, error) {
	value, found, err := s.current().Get(ctx, kind, key)
	return value, found, common.Wrap(err)
}

// Set writes a copy of value in the top frame
func (s *FrameStack) Set(kind Kind, key Key, value interface{}) error {
	if s.top == 0 {
		return common.Wrap(ErrReadOnlyFrame)
	}
	return common.Wrap(s.frames[s.top-1].set(kind, key, value))
}

// Delete marks key as absent in the top frame
func (s *FrameStack) Delete(kind Kind, key Key) error {
	if s.top == 0 {
		return common.Wrap(ErrReadOnlyFrame)
	}
	s.frames[s.top-1].delete(kind, key)
	return nil
}
