package mirrordb

import (
	"context"
	"testing"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/russross/meddler"
	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schema = `
CREATE TABLE entity (
	id INTEGER PRIMARY KEY, alias BLOB, auto_renew_account_id INTEGER, auto_renew_period INTEGER,
	balance INTEGER, created_timestamp INTEGER, deleted BOOLEAN, ethereum_nonce INTEGER,
	evm_address BLOB, expiration_timestamp INTEGER, key BLOB, max_automatic_token_associations INTEGER,
	memo TEXT, num INTEGER NOT NULL, proxy_account_id INTEGER, public_key TEXT, realm INTEGER NOT NULL,
	receiver_sig_required BOOLEAN, shard INTEGER NOT NULL, submit_key BLOB, timestamp_range TEXT,
	type TEXT NOT NULL
);
CREATE TABLE contract (
	id INTEGER PRIMARY KEY, auto_renew_account_id INTEGER, auto_renew_period INTEGER,
	created_timestamp INTEGER, deleted BOOLEAN, evm_address BLOB, expiration_timestamp INTEGER,
	file_id INTEGER, initcode BLOB, key BLOB, max_automatic_token_associations INTEGER, memo TEXT,
	num INTEGER NOT NULL, obtainer_id INTEGER, permanent_removal BOOLEAN, proxy_account_id INTEGER,
	public_key TEXT, realm INTEGER NOT NULL, runtime_bytecode BLOB, shard INTEGER NOT NULL,
	timestamp_range TEXT, type TEXT NOT NULL
);
CREATE TABLE token (
	token_id INTEGER PRIMARY KEY, created_timestamp INTEGER, decimals INTEGER, fee_schedule_key BLOB,
	freeze_default BOOLEAN, freeze_key BLOB, initial_supply INTEGER, kyc_key BLOB, max_supply INTEGER,
	modified_timestamp INTEGER NOT NULL, name TEXT, pause_key BLOB, pause_status TEXT, supply_key BLOB,
	supply_type TEXT, symbol TEXT, total_supply INTEGER, treasury_account_id INTEGER, type TEXT,
	wipe_key BLOB
);
CREATE TABLE token_account (
	account_id INTEGER NOT NULL, token_id INTEGER NOT NULL, associated BOOLEAN,
	automatic_association BOOLEAN, created_timestamp INTEGER, freeze_status INTEGER,
	kyc_status INTEGER, modified_timestamp INTEGER NOT NULL,
	PRIMARY KEY (account_id, token_id, modified_timestamp)
);
CREATE TABLE token_transfer (
	consensus_timestamp INTEGER NOT NULL, token_id INTEGER NOT NULL, account_id INTEGER NOT NULL,
	amount INTEGER NOT NULL, is_approval BOOLEAN, payer_account_id INTEGER NOT NULL
);
CREATE TABLE nft (
	token_id INTEGER NOT NULL, serial_number INTEGER NOT NULL, account_id INTEGER,
	created_timestamp INTEGER, deleted BOOLEAN, metadata BLOB, modified_timestamp INTEGER NOT NULL,
	PRIMARY KEY (token_id, serial_number)
);
CREATE TABLE contract_state_change (
	consensus_timestamp INTEGER NOT NULL, contract_id INTEGER NOT NULL, slot BLOB NOT NULL,
	migration BOOLEAN NOT NULL DEFAULT FALSE, payer_account_id INTEGER NOT NULL,
	value_read BLOB, value_written BLOB
);
`

func newTestDB(t *testing.T) (*MirrorDB, *sqlx.DB) {
	t.Helper()
	meddler.Default = meddler.SQLite
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return NewMirrorDB(db), db
}

func TestGetEntity(t *testing.T) {
	mdb, db := newTestDB(t)
	ctx := context.Background()
	id := common.EntityIDOf(1001)
	evmAddress := ethCommon.HexToAddress("0x00000000000000000000000000000000deadbeef").Bytes()

	e := common.NewEntity(id, common.EntityTypeAccount)
	e.Balance = common.Int64Ptr(500)
	e.CreatedTimestamp = common.Int64Ptr(1)
	e.EvmAddress = evmAddress
	e.TimestampRange = common.NewTimestampRange(1)
	require.NoError(t, meddler.Insert(db, "entity", &e))

	got, err := mdb.GetEntity(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(500), *got.Balance)
	assert.Equal(t, int64(1), got.TimestampRange.ModifiedTimestamp())
	assert.Nil(t, got.Deleted)

	got, err = mdb.GetEntityByEvmAddress(ctx, evmAddress)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = mdb.GetEntity(ctx, common.EntityIDOf(9))
	assert.True(t, IsNotFound(err))
}

func TestGetTokenAccountLatest(t *testing.T) {
	mdb, db := newTestDB(t)
	ctx := context.Background()
	account := common.EntityIDOf(1001)
	token := common.EntityIDOf(2001)
	frozen := common.TokenFreezeStatusFrozen
	unfrozen := common.TokenFreezeStatusUnfrozen

	for i, status := range []*common.TokenFreezeStatus{&frozen, &unfrozen} {
		ta := common.TokenAccount{AccountID: account, TokenID: token, Associated: common.BoolPtr(true),
			FreezeStatus: status, ModifiedTimestamp: int64(i + 1)}
		require.NoError(t, meddler.Insert(db, "token_account", &ta))
	}
	for i, amount := range []int64{100, -40} {
		tt := common.TokenTransfer{ConsensusTimestamp: int64(i + 1), TokenID: token, AccountID: account,
			Amount: amount, PayerAccountID: account}
		require.NoError(t, meddler.Insert(db, "token_transfer", &tt))
	}

	got, err := mdb.GetTokenAccount(ctx, account, token)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ModifiedTimestamp)
	assert.Equal(t, unfrozen, *got.FreezeStatus)

	balance, err := mdb.GetTokenBalance(ctx, account, token)
	require.NoError(t, err)
	assert.Equal(t, int64(60), balance)

	_, err = mdb.GetTokenAccount(ctx, account, common.EntityIDOf(3))
	assert.True(t, IsNotFound(err))
}

func TestGetTokenAndNft(t *testing.T) {
	mdb, db := newTestDB(t)
	ctx := context.Background()
	tokenID := common.EntityIDOf(2001)
	nftType := common.TokenTypeNonFungibleUnique

	token := common.Token{TokenID: tokenID, ModifiedTimestamp: 1, Name: common.StringPtr("T"), Type: &nftType,
		TotalSupply: common.Int64Ptr(1)}
	require.NoError(t, meddler.Insert(db, "token", &token))
	owner := common.EntityIDOf(1001)
	nft := common.Nft{TokenID: tokenID, SerialNumber: 1, AccountID: &owner, Metadata: []byte("m"), ModifiedTimestamp: 1}
	require.NoError(t, meddler.Insert(db, "nft", &nft))

	gotToken, err := mdb.GetToken(ctx, tokenID)
	require.NoError(t, err)
	assert.Equal(t, "T", *gotToken.Name)
	assert.Equal(t, nftType, *gotToken.Type)

	gotNft, err := mdb.GetNft(ctx, tokenID, 1)
	require.NoError(t, err)
	assert.Equal(t, owner, *gotNft.AccountID)
	assert.Equal(t, []byte("m"), gotNft.Metadata)

	_, err = mdb.GetNft(ctx, tokenID, 2)
	assert.True(t, IsNotFound(err))
}

func TestGetStorage(t *testing.T) {
	mdb, db := newTestDB(t)
	ctx := context.Background()
	contract := common.EntityIDOf(3001)
	slot := ethCommon.BigToHash(ethCommon.Big1).Bytes()

	changes := []common.ContractStateChange{
		{ConsensusTimestamp: 1, ContractID: contract, Slot: slot, ValueWritten: []byte{1}},
		{ConsensusTimestamp: 2, ContractID: contract, Slot: slot, ValueWritten: []byte{2}},
		// read only access
		{ConsensusTimestamp: 3, ContractID: contract, Slot: slot, ValueRead: []byte{2}},
	}
	for i := range changes {
		require.NoError(t, meddler.Insert(db, "contract_state_change", &changes[i]))
	}

	value, err := mdb.GetStorage(ctx, contract, slot)
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, value)

	_, err = mdb.GetStorage(ctx, contract, ethCommon.Hash{}.Bytes())
	assert.True(t, IsNotFound(err))
}

func TestCancelledContext(t *testing.T) {
	mdb, _ := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mdb.GetToken(ctx, common.EntityIDOf(1))
	assert.Error(t, err)
	assert.False(t, IsNotFound(err))
}
