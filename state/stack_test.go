package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type account struct {
	Balance uint64
	Nonce   uint64
	Code    []byte
}

var (
	addrA    = ethCommon.HexToAddress("0x00000000000000000000000000000000000003e9")
	addrB    = ethCommon.HexToAddress("0x00000000000000000000000000000000000003ea")
	accounts = Accessor[account]{Kind: KindAccount}
)

func newStack(t *testing.T) (*FrameStack, *MockStore) {
	t.Helper()
	store := NewMockStore(gomock.NewController(t))
	return NewFrameStack(NewBaseFrame(store)), store
}

func TestReadThroughAndAbsence(t *testing.T) {
	ctx := context.Background()
	s, store := newStack(t)
	store.EXPECT().Load(gomock.Any(), KindAccount, AddressKey(addrA)).Return(account{Balance: 10}, nil).Times(1)
	store.EXPECT().Load(gomock.Any(), KindAccount, AddressKey(addrB)).Return(nil, common.Wrap(ErrNotFound)).Times(1)

	for i := 0; i < 2; i++ {
		a, found, err := accounts.Get(ctx, s, AddressKey(addrA))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, uint64(10), a.Balance)

		_, found, err = accounts.Get(ctx, s, AddressKey(addrB))
		require.NoError(t, err)
		assert.False(t, found)
	}
}

func TestStoreErrorNotCached(t *testing.T) {
	ctx := context.Background()
	s, store := newStack(t)
	dbErr := errors.New("connection refused")
	gomock.InOrder(
		store.EXPECT().Load(gomock.Any(), KindToken, AddressKey(addrA)).Return(nil, dbErr),
		store.EXPECT().Load(gomock.Any(), KindToken, AddressKey(addrA)).Return("token", nil),
	)
	_, _, err := s.Get(ctx, KindToken, AddressKey(addrA))
	assert.True(t, errors.Is(err, dbErr))

	v, found, err := s.Get(ctx, KindToken, AddressKey(addrA))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "token", v)
}

func TestWritesNeedAFrame(t *testing.T) {
	s, _ := newStack(t)
	err := accounts.Set(s, AddressKey(addrA), account{})
	assert.True(t, errors.Is(err, ErrReadOnlyFrame))
	assert.True(t, errors.Is(s.Delete(KindAccount, AddressKey(addrA)), ErrReadOnlyFrame))
	assert.True(t, errors.Is(s.Commit(), ErrNoFrame))
	assert.True(t, errors.Is(s.Pop(), ErrNoFrame))

	s.Push()
	assert.True(t, errors.Is(s.Commit(), ErrCommitToBase))
	assert.Equal(t, 1, s.Depth())
}

func TestCommitAndPop(t *testing.T) {
	ctx := context.Background()
	s, store := newStack(t)
	store.EXPECT().Load(gomock.Any(), KindAccount, AddressKey(addrA)).Return(account{Balance: 10}, nil).Times(1)

	s.Push()
	s.Push()
	require.NoError(t, accounts.Set(s, AddressKey(addrA), account{Balance: 20}))
	require.NoError(t, s.Commit())
	assert.Equal(t, 1, s.Depth())
	a, _, err := accounts.Get(ctx, s, AddressKey(addrA))
	require.NoError(t, err)
	assert.Equal(t, uint64(20), a.Balance)

	s.Push()
	require.NoError(t, accounts.Delete(s, AddressKey(addrA)))
	_, found, err := accounts.Get(ctx, s, AddressKey(addrA))
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, s.Pop())

	a, found, err = accounts.Get(ctx, s, AddressKey(addrA))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(20), a.Balance)

	// the base still holds the persisted value
	s.ResetToBase()
	assert.Equal(t, 0, s.Depth())
	a, _, err = accounts.Get(ctx, s, AddressKey(addrA))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), a.Balance)
}

func TestCommitRoundTrip(t *testing.T) {
	ctx := context.Background()
	// writes are served from the frames, the store is never read
	s, _ := newStack(t)
	s.Push()
	for i := uint64(1); i <= 3; i++ {
		s.Push()
		require.Equal(t, 2, s.Depth())
		require.NoError(t, accounts.Set(s, AddressKey(addrA), account{Balance: i}))
		require.NoError(t, s.Commit())
		require.Equal(t, 1, s.Depth())
		a, found, err := accounts.Get(ctx, s, AddressKey(addrA))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, i, a.Balance)
	}
	// the frame right above the base cannot be committed
	assert.True(t, errors.Is(s.Commit(), ErrCommitToBase))
}

func TestResetToBaseReusesFrames(t *testing.T) {
	ctx := context.Background()
	s, store := newStack(t)
	store.EXPECT().Load(gomock.Any(), KindStorage, gomock.Any()).Return(nil, ErrNotFound).AnyTimes()
	slot := SlotKey(addrA, ethCommon.BigToHash(ethCommon.Big1))
	storage := Accessor[ethCommon.Hash]{Kind: KindStorage}

	for i := 0; i < 3; i++ {
		s.Push()
		_, found, err := storage.Get(ctx, s, slot)
		require.NoError(t, err)
		assert.False(t, found, "iteration %d sees a previous write", i)
		require.NoError(t, storage.Set(s, slot, ethCommon.BigToHash(ethCommon.Big2)))
		s.Push()
		require.NoError(t, s.Commit())
		s.ResetToBase()
	}
	assert.Len(t, s.frames, 2)
}

func TestSetCopiesValue(t *testing.T) {
	ctx := context.Background()
	s, _ := newStack(t)
	s.Push()

	code := []byte{1, 2, 3}
	require.NoError(t, accounts.Set(s, AddressKey(addrA), account{Code: code}))
	code[0] = 9
	a, found, err := accounts.Get(ctx, s, AddressKey(addrA))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte{1, 2, 3}, a.Code)
}

func TestAccessorTypeMismatch(t *testing.T) {
	ctx := context.Background()
	s, _ := newStack(t)
	s.Push()
	require.NoError(t, s.Set(KindAccount, AddressKey(addrA), "not an account"))
	_, _, err := accounts.Get(ctx, s, AddressKey(addrA))
	assert.Error(t, err)
}

func TestSharedBaseConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore(gomock.NewController(t))
	release := make(chan struct{})
	store.EXPECT().Load(gomock.Any(), KindAccount, AddressKey(addrA)).DoAndReturn(
		func(context.Context, Kind, Key) (interface{}, error) {
			<-release
			return account{Balance: 7}, nil
		}).Times(1)
	base := NewSharedBaseFrame(store, 16, time.Minute)

	const readers = 8
	var wg sync.WaitGroup
	results := make([]uint64, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := NewFrameStack(base)
			s.Push()
			a, _, err := accounts.Get(ctx, s, AddressKey(addrA))
			if err == nil {
				results[i] = a.Balance
			}
			_ = accounts.Set(s, AddressKey(addrA), account{Balance: uint64(i)})
		}(i)
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, balance := range results {
		assert.Equal(t, uint64(7), balance)
	}
	assert.Equal(t, 1, base.Len())
}

func TestSharedBaseExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore(gomock.NewController(t))
	store.EXPECT().Load(gomock.Any(), KindAccount, AddressKey(addrA)).Return(account{}, nil).Times(2)
	base := NewSharedBaseFrame(store, 16, 20*time.Millisecond)

	_, _, err := base.Get(ctx, KindAccount, AddressKey(addrA))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	_, _, err = base.Get(ctx, KindAccount, AddressKey(addrA))
	require.NoError(t, err)
}

func TestSharedBaseReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMockStore(gomock.NewController(t))
	store.EXPECT().Load(gomock.Any(), KindAccount, AddressKey(addrA)).Return(account{Code: []byte{1, 2}}, nil).Times(1)
	base := NewSharedBaseFrame(store, 16, time.Minute)

	s := NewFrameStack(base)
	a, _, err := accounts.Get(ctx, s, AddressKey(addrA))
	require.NoError(t, err)
	a.Code[0] = 9

	v, found, err := base.Get(ctx, KindAccount, AddressKey(addrA))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte{1, 2}, v.(account).Code)
}
