package common

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	ethCommon "github.com/ethereum/go-ethereum/common"
)

const (
	shardBits = 15
	realmBits = 16
	numBits   = 32

	shardMask = (int64(1) << shardBits) - 1
	realmMask = (int64(1) << realmBits) - 1
	numMask   = (int64(1) << numBits) - 1
)

// EntityID is the encoded form of a shard.realm.num ledger identifier.  It is
// stored as a single bigint in the database.
type EntityID int64

// EmptyEntityID is the reserved "no entity" identifier.  Records carrying it
// are never persisted.
const EmptyEntityID EntityID = 0

// NewEntityID encodes shard, realm and num into an EntityID
func NewEntityID(shard, realm, num int64) (EntityID, error) {
	if shard < 0 || shard > shardMask || realm < 0 || realm > realmMask ||
		num < 0 || num > numMask {
		return EmptyEntityID, Wrap(fmt.Errorf("invalid entity id %d.%d.%d", shard, realm, num))
	}
	return EntityID(shard<<(realmBits+numBits) | realm<<numBits | num), nil
}

// EntityIDOf returns the id of num in shard 0, realm 0
func EntityIDOf(num int64) EntityID {
	return EntityID(num & numMask)
}

// ParseEntityID parses a "shard.realm.num" string
func ParseEntityID(s string) (EntityID, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return EmptyEntityID, Wrap(fmt.Errorf("invalid entity id %q", s))
	}
	var v [3]int64
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return EmptyEntityID, Wrap(fmt.Errorf("invalid entity id %q: %w", s, err))
		}
		v[i] = n
	}
	return NewEntityID(v[0], v[1], v[2])
}

// Shard of the id
func (id EntityID) Shard() int64 { return int64(id) >> (realmBits + numBits) & shardMask }

// Realm of the id
func (id EntityID) Realm() int64 { return int64(id) >> numBits & realmMask }

// Num of the id
func (id EntityID) Num() int64 { return int64(id) & numMask }

// IsEmpty returns true for EmptyEntityID
func (id EntityID) IsEmpty() bool { return id == EmptyEntityID }

func (id EntityID) String() string {
	return fmt.Sprintf("%d.%d.%d", id.Shard(), id.Realm(), id.Num())
}

// Address returns the "long-zero" EVM address of the entity: 4 bytes of
// shard, 8 bytes of realm and 8 bytes of num
func (id EntityID) Address() ethCommon.Address {
	var addr ethCommon.Address
	binary.BigEndian.PutUint32(addr[0:4], uint32(id.Shard()))
	binary.BigEndian.PutUint64(addr[4:12], uint64(id.Realm()))
	binary.BigEndian.PutUint64(addr[12:20], uint64(id.Num()))
	return addr
}

// EntityIDFromAddress decodes a long-zero address.  It returns false for
// addresses that are not long-zero (e.g. ECDSA derived aliases).
func EntityIDFromAddress(addr ethCommon.Address) (EntityID, bool) {
	shard := int64(binary.BigEndian.Uint32(addr[0:4]))
	realm := binary.BigEndian.Uint64(addr[4:12])
	num := binary.BigEndian.Uint64(addr[12:20])
	if shard > shardMask || realm > uint64(realmMask) || num > uint64(numMask) {
		return EmptyEntityID, false
	}
	id, err := NewEntityID(shard, int64(realm), int64(num))
	if err != nil {
		return EmptyEntityID, false
	}
	return id, true
}

// Value implements driver.Valuer
func (id EntityID) Value() (driver.Value, error) {
	return int64(id), nil
}

// Scan implements sql.Scanner
func (id *EntityID) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		*id = EntityID(v)
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return Wrap(err)
		}
		*id = EntityID(n)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Wrap(err)
		}
		*id = EntityID(n)
	default:
		return Wrap(fmt.Errorf("can't scan %T into EntityID", src))
	}
	return nil
}

// EntityIDPtr returns a pointer to id
func EntityIDPtr(id EntityID) *EntityID { return &id }
