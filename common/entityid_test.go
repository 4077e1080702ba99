package common

import (
	"errors"
	"testing"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityIDEncoding(t *testing.T) {
	id, err := NewEntityID(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Shard())
	assert.Equal(t, int64(2), id.Realm())
	assert.Equal(t, int64(3), id.Num())
	assert.Equal(t, "1.2.3", id.String())

	parsed, err := ParseEntityID("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = NewEntityID(0, 0, -1)
	assert.Error(t, err)
	_, err = ParseEntityID("1.2")
	assert.Error(t, err)
	_, err = ParseEntityID("a.b.c")
	assert.Error(t, err)

	assert.True(t, EmptyEntityID.IsEmpty())
	assert.False(t, id.IsEmpty())
}

func TestEntityIDAddress(t *testing.T) {
	id, err := NewEntityID(0, 0, 1001)
	require.NoError(t, err)
	addr := id.Address()
	assert.Equal(t, ethCommon.HexToAddress("0x00000000000000000000000000000000000003e9"), addr)

	decoded, ok := EntityIDFromAddress(addr)
	require.True(t, ok)
	assert.Equal(t, id, decoded)

	_, ok = EntityIDFromAddress(ethCommon.HexToAddress("0x71c7656ec7ab88b098defb751b7401b5f6d8976f"))
	assert.False(t, ok)
}

func TestEntityIDScan(t *testing.T) {
	var id EntityID
	require.NoError(t, id.Scan(int64(42)))
	assert.Equal(t, EntityID(42), id)
	require.NoError(t, id.Scan([]byte("43")))
	assert.Equal(t, EntityID(43), id)
	assert.Error(t, id.Scan(1.5))

	v, err := EntityID(44).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(44), v)
}

func TestTimestampRange(t *testing.T) {
	r := TimestampRange{Lower: 10, Upper: Int64Ptr(20)}
	assert.Equal(t, "[10,20)", r.String())
	assert.Equal(t, "[10,)", NewTimestampRange(10).String())
	assert.Equal(t, int64(10), r.ModifiedTimestamp())

	var scanned TimestampRange
	require.NoError(t, scanned.Scan([]byte("[10,20)")))
	assert.Equal(t, r, scanned)
	require.NoError(t, scanned.Scan("[5,)"))
	assert.Equal(t, TimestampRange{Lower: 5}, scanned)

	_, err := ParseTimestampRange("(1,2]")
	assert.Error(t, err)
	_, err = ParseTimestampRange("[x,)")
	assert.Error(t, err)
}

func TestImporterError(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(NewImporterError("flush", ErrStorageWrite, cause))
	assert.True(t, errors.Is(err, ErrStorageWrite))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrMalformedRecord))
	var impErr *ImporterError
	require.True(t, errors.As(err, &impErr))
	assert.Equal(t, "flush", impErr.Op)

	err = MalformedRecord(KindToken, "token id")
	assert.True(t, errors.Is(err, ErrMalformedRecord))
	assert.Contains(t, err.Error(), "token id")
}
