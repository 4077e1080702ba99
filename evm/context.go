package evm

import (
	"context"
	"errors"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/state"
)

// ErrInsufficientBalance is returned when debiting more than the balance of
// an account
var ErrInsufficientBalance = errors.New("insufficient balance")

var (
	accounts      = state.Accessor[Account]{Kind: state.KindAccount}
	tokens        = state.Accessor[Token]{Kind: state.KindToken}
	relationships = state.Accessor[TokenRelationship]{Kind: state.KindTokenAccount}
	uniqueTokens  = state.Accessor[UniqueToken]{Kind: state.KindNft}
	storage       = state.Accessor[ethCommon.Hash]{Kind: state.KindStorage}
)

type aliasChange struct {
	alias   ethCommon.Address
	address ethCommon.Address
	remove  bool
}

// CallContext is the state of one contract call execution.  It owns a
// FrameStack whose bottom writable frame is the call itself; Wrap, Commit
// and Revert handle nested calls.  Alias changes are journaled along with
// the frames so that a reverted nested call drops the aliases it created.
//
// A CallContext must not be shared between goroutines.
type CallContext struct {
	// IsCreate is set while executing a contract deployment
	IsCreate bool

	stack   *state.FrameStack
	aliases map[ethCommon.Address]ethCommon.Address
	pending []aliasChange
	// marks holds the length of pending when each nested frame was opened
	marks []int
}

// NewCallContext creates a call context reading from base
func NewCallContext(base state.Frame) *CallContext {
	c := &CallContext{stack: state.NewFrameStack(base)}
	c.ResetState()
	return c
}

// ResetState discards everything the call wrote, aliases included.  Reads
// cached by the base frame are kept.
func (c *CallContext) ResetState() {
	c.stack.ResetToBase()
	c.stack.Push()
	c.IsCreate = false
	c.aliases = make(map[ethCommon.Address]ethCommon.Address)
	c.pending = c.pending[:0]
	c.marks = c.marks[:0]
}

// Depth returns the number of open nested calls
func (c *CallContext) Depth() int {
	return len(c.marks)
}

// Wrap opens a nested call
func (c *CallContext) Wrap() {
	c.stack.Push()
	c.marks = append(c.marks, len(c.pending))
}

// Commit makes the writes of the innermost nested call visible to its caller
func (c *CallContext) Commit() error {
	if len(c.marks) == 0 {
		return common.Wrap(state.ErrNoFrame)
	}
	if err := c.stack.Commit(); err != nil {
		return common.Wrap(err)
	}
	c.marks = c.marks[:len(c.marks)-1]
	return nil
}

// Revert discards the writes of the innermost nested call
func (c *CallContext) Revert() error {
	if len(c.marks) == 0 {
		return common.Wrap(state.ErrNoFrame)
	}
	if err := c.stack.Pop(); err != nil {
		return common.Wrap(err)
	}
	mark := c.marks[len(c.marks)-1]
	c.marks = c.marks[:len(c.marks)-1]
	c.pending = c.pending[:mark]
	return nil
}

// LinkAlias makes alias resolve to address
func (c *CallContext) LinkAlias(alias, address ethCommon.Address) {
	c.pending = append(c.pending, aliasChange{alias: alias, address: address})
}

// RemoveAlias unlinks alias
func (c *CallContext) RemoveAlias(alias ethCommon.Address) {
	c.pending = append(c.pending, aliasChange{alias: alias, remove: true})
}

// CommitAliases applies the pending alias changes of the top level call
func (c *CallContext) CommitAliases() {
	for _, change := range c.pending {
		if change.remove {
			delete(c.aliases, change.alias)
		} else {
			c.aliases[change.alias] = change.address
		}
	}
	c.pending = c.pending[:0]
	c.marks = c.marks[:0]
}

// ResolveAlias returns the address alias is linked to, or alias itself
func (c *CallContext) ResolveAlias(alias ethCommon.Address) ethCommon.Address {
	for i := len(c.pending) - 1; i >= 0; i-- {
		if c.pending[i].alias == alias {
			if c.pending[i].remove {
				return alias
			}
			return c.pending[i].address
		}
	}
	if address, ok := c.aliases[alias]; ok {
		return address
	}
	return alias
}

// GetAccount returns the account at address, resolving aliases
func (c *CallContext) GetAccount(ctx context.Context, address ethCommon.Address) (Account, bool, error) {
	a, found, err := accounts.Get(ctx, c.stack, state.AddressKey(c.ResolveAlias(address)))
	return a, found, common.Wrap(err)
}

// UpdateAccount writes account
func (c *CallContext) UpdateAccount(account Account) error {
	return common.Wrap(accounts.Set(c.stack, state.AddressKey(account.Address), account))
}

// DeleteAccount removes the account at address
func (c *CallContext) DeleteAccount(address ethCommon.Address) error {
	return common.Wrap(accounts.Delete(c.stack, state.AddressKey(c.ResolveAlias(address))))
}

// AddBalance credits amount to the account at address, creating it if
// needed
func (c *CallContext) AddBalance(ctx context.Context, address ethCommon.Address, amount *uint256.Int) error {
	address = c.ResolveAlias(address)
	a, found, err := c.GetAccount(ctx, address)
	if err != nil {
		return common.Wrap(err)
	}
	if !found {
		a = Account{Address: address}
	}
	a.Balance.Add(&a.Balance, amount)
	return common.Wrap(c.UpdateAccount(a))
}

// SubBalance debits amount from the account at address
func (c *CallContext) SubBalance(ctx context.Context, address ethCommon.Address, amount *uint256.Int) error {
	a, found, err := c.GetAccount(ctx, address)
	if err != nil {
		return common.Wrap(err)
	}
	if !found || a.Balance.Lt(amount) {
		return common.Wrap(ErrInsufficientBalance)
	}
	a.Balance.Sub(&a.Balance, amount)
	return common.Wrap(c.UpdateAccount(a))
}

// GetToken returns the token at address
func (c *CallContext) GetToken(ctx context.Context, address ethCommon.Address) (Token, bool, error) {
	t, found, err := tokens.Get(ctx, c.stack, state.AddressKey(address))
	return t, found, common.Wrap(err)
}

// UpdateToken writes token
func (c *CallContext) UpdateToken(token Token) error {
	return common.Wrap(tokens.Set(c.stack, state.AddressKey(token.Address), token))
}

func relationshipKey(account, token ethCommon.Address) state.Key {
	return state.SlotKey(account, ethCommon.BytesToHash(token.Bytes()))
}

// GetTokenRelationship returns the association of account with token
func (c *CallContext) GetTokenRelationship(ctx context.Context, account, token ethCommon.Address) (TokenRelationship, bool, error) {
	r, found, err := relationships.Get(ctx, c.stack, relationshipKey(c.ResolveAlias(account), token))
	return r, found, common.Wrap(err)
}

// UpdateTokenRelationship writes rel
func (c *CallContext) UpdateTokenRelationship(rel TokenRelationship) error {
	return common.Wrap(relationships.Set(c.stack, relationshipKey(rel.Account, rel.Token), rel))
}

func nftKey(token ethCommon.Address, serial int64) state.Key {
	return state.SlotKey(token, uint256.NewInt(uint64(serial)).Bytes32())
}

// GetUniqueToken returns an nft serial
func (c *CallContext) GetUniqueToken(ctx context.Context, token ethCommon.Address, serial int64) (UniqueToken, bool, error) {
	n, found, err := uniqueTokens.Get(ctx, c.stack, nftKey(token, serial))
	return n, found, common.Wrap(err)
}

// UpdateUniqueToken writes nft
func (c *CallContext) UpdateUniqueToken(nft UniqueToken) error {
	return common.Wrap(uniqueTokens.Set(c.stack, nftKey(nft.Token, nft.SerialNumber), nft))
}

// GetStorage returns the value of a storage slot, zero when unset
func (c *CallContext) GetStorage(ctx context.Context, address ethCommon.Address, slot ethCommon.Hash) (ethCommon.Hash, error) {
	v, _, err := storage.Get(ctx, c.stack, state.SlotKey(address, slot))
	return v, common.Wrap(err)
}

// SetStorage writes a storage slot
func (c *CallContext) SetStorage(address ethCommon.Address, slot, value ethCommon.Hash) error {
	return common.Wrap(storage.Set(c.stack, state.SlotKey(address, slot), value))
}
