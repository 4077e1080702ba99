/*
Package merge folds two versions of the same upsertable entity, seen within
one batch, into the single row that represents their net effect.

The general rule is that a field of the incoming update overwrites the cached
value only when it is set (non nil); unset fields keep the cached value.  The
exceptions are:
  - created timestamps are never overwritten, but are adopted when the cached
    version has none
  - timestamp ranges are only overwritten by updates with a modified
    timestamp greater or equal than the cached one
  - a negative token total supply adds to a known cached supply
  - token accounts carrying a created timestamp replace the cached version
  - nft modified timestamps are always overwritten
  - schedules only take the executed timestamp

Every function is pure: neither argument is modified.
*/
package merge

import (
	"fmt"

	"github.com/step-security-bot/hedera-mirror-node/common"
)

// Func merges incoming into cached.  Both arguments hold the value type
// matching the kind the function is registered for.
type Func func(cached, incoming interface{}) interface{}

var rules = map[common.RowKind]Func{
	common.KindContract: func(cached, incoming interface{}) interface{} {
		return Contract(cached.(common.Contract), incoming.(common.Contract))
	},
	common.KindEntity: func(cached, incoming interface{}) interface{} {
		return Entity(cached.(common.Entity), incoming.(common.Entity))
	},
	common.KindToken: func(cached, incoming interface{}) interface{} {
		return Token(cached.(common.Token), incoming.(common.Token))
	},
	common.KindTokenAccount: func(cached, incoming interface{}) interface{} {
		return TokenAccount(cached.(common.TokenAccount), incoming.(common.TokenAccount))
	},
	common.KindNft: func(cached, incoming interface{}) interface{} {
		return Nft(cached.(common.Nft), incoming.(common.Nft))
	},
	common.KindSchedule: func(cached, incoming interface{}) interface{} {
		return Schedule(cached.(common.Schedule), incoming.(common.Schedule))
	},
}

// Rule returns the merge function of kind
func Rule(kind common.RowKind) (Func, bool) {
	rule, ok := rules[kind]
	return rule, ok
}

// Apply merges incoming into cached using the rule of kind.  A nil cached
// value means the key has not been seen in the batch yet, and incoming is
// returned as is.
func Apply(kind common.RowKind, cached, incoming interface{}) (interface{}, error) {
	rule, ok := rules[kind]
	if !ok {
		return nil, common.Wrap(fmt.Errorf("no merge rule for %s", kind))
	}
	if cached == nil {
		return incoming, nil
	}
	return rule(cached, incoming), nil
}

func createdTimestamp(cached, incoming *int64) *int64 {
	if cached == nil {
		return incoming
	}
	return cached
}

func timestampRange(cached, incoming *common.TimestampRange) *common.TimestampRange {
	if incoming == nil {
		return cached
	}
	if cached == nil || incoming.ModifiedTimestamp() >= cached.ModifiedTimestamp() {
		return incoming
	}
	return cached
}
