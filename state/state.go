/*
Package state implements the layered copy-on-write ledger state read by
contract calls.

A FrameStack owns a stack of CacheFrames on top of a read-only BaseFrame.
Reads walk the stack from the top and the first frame holding an entry for
the key answers; the base loads whatever is unknown from the durable Store.
Writes go to the top frame only.  Pushing a frame opens a nested call,
committing folds it into the frame below and popping discards it.
ResetToBase drops every frame above the base, which is what the gas search
does between two executions of the same call.

Entries hold either a value or the absent marker.  An absent entry answers
"not found" without asking the parent; a missing entry means the frame knows
nothing about the key.
*/
package state

import (
	"context"
	"errors"
	"fmt"

	ethCommon "github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNotFound is returned by a Store when the key has no persisted value
	ErrNotFound = errors.New("state: not found")
	// ErrNoFrame is returned when committing or popping with no frame above
	// the base
	ErrNoFrame = errors.New("state: no frame above base")
	// ErrCommitToBase is returned when committing the last frame above the
	// base.  The base is read-only.
	ErrCommitToBase = errors.New("state: commit into base frame")
	// ErrReadOnlyFrame is returned when writing with no frame above the base
	ErrReadOnlyFrame = errors.New("state: base frame is read-only")
)

// Kind of a state entry
type Kind uint8

// Entry kinds
const (
	KindAccount Kind = iota
	KindToken
	KindTokenAccount
	KindNft
	KindStorage
	numKinds
)

var kindNames = [numKinds]string{"account", "token", "token_account", "nft", "storage"}

func (k Kind) String() string {
	if k >= numKinds {
		return fmt.Sprintf("kind(%d)", k)
	}
	return kindNames[k]
}

// Key of a state entry.  Accounts and tokens only use Address.  Token
// accounts store the token address in Slot, nfts the serial number, storage
// entries the slot.
type Key struct {
	Address ethCommon.Address
	Slot    ethCommon.Hash
}

// AddressKey is the key of an account or token
func AddressKey(address ethCommon.Address) Key {
	return Key{Address: address}
}

// SlotKey is the key of a storage slot, a token relationship or an nft
func SlotKey(address ethCommon.Address, slot ethCommon.Hash) Key {
	return Key{Address: address, Slot: slot}
}

func (k Key) String() string {
	if k.Slot == (ethCommon.Hash{}) {
		return k.Address.Hex()
	}
	return k.Address.Hex() + "/" + k.Slot.Hex()
}

//go:generate mockgen -destination=store_mock.go -package=state . Store

// Store loads durable state.  Load returns an error wrapping ErrNotFound
// when the key has no value.
type Store interface {
	Load(ctx context.Context, kind Kind, key Key) (interface{}, error)
}

// Frame is a readable state layer.  found is false when the key is known
// to have no value.
type Frame interface {
	Get(ctx context.Context, kind Kind, key Key) (value interface{}, found bool, err error)
}

type entry struct {
	value  interface{}
	absent bool
}
