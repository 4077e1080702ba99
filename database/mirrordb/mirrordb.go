/*
Package mirrordb reads the current ledger state materialized by the importer.
It is the durable store behind the state cache of the web3 service.

Every getter returns an error wrapping sql.ErrNoRows when the row doesn't
exist.  Queries are written with "?" placeholders and rebound to the driver
of the connection.
*/
package mirrordb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/russross/meddler"
	"github.com/step-security-bot/hedera-mirror-node/common"
)

// MirrorDB reads the mirror node tables
type MirrorDB struct {
	db *sqlx.DB
}

// NewMirrorDB creates a MirrorDB reading from db
func NewMirrorDB(db *sqlx.DB) *MirrorDB {
	return &MirrorDB{db: db}
}

// IsNotFound returns true when err reports a missing row
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || common.Unwrap(err) == sql.ErrNoRows
}

func (mdb *MirrorDB) queryRow(ctx context.Context, dst interface{}, query string, args ...interface{}) error {
	if err := ctx.Err(); err != nil {
		return common.Wrap(err)
	}
	return common.Wrap(meddler.QueryRow(mdb.db, dst, mdb.db.Rebind(query), args...))
}

// GetEntity returns the entity with the given id.  Deleted entities are
// returned as well.
func (mdb *MirrorDB) GetEntity(ctx context.Context, id common.EntityID) (*common.Entity, error) {
	entity := &common.Entity{}
	err := mdb.queryRow(ctx, entity, "SELECT * FROM entity WHERE id = ?;", id)
	if err != nil {
		return nil, common.Wrap(err)
	}
	return entity, nil
}

// GetEntityByEvmAddress returns the entity whose evm address or alias is
// address
func (mdb *MirrorDB) GetEntityByEvmAddress(ctx context.Context, address []byte) (*common.Entity, error) {
	entity := &common.Entity{}
	err := mdb.queryRow(ctx, entity,
		`SELECT * FROM entity WHERE (evm_address = ? OR alias = ?)
		AND (deleted IS NULL OR deleted = false) ORDER BY created_timestamp DESC LIMIT 1;`,
		address, address,
	)
	if err != nil {
		return nil, common.Wrap(err)
	}
	return entity, nil
}

// GetContract returns the contract with the given id
func (mdb *MirrorDB) GetContract(ctx context.Context, id common.EntityID) (*common.Contract, error) {
	contract := &common.Contract{}
	err := mdb.queryRow(ctx, contract, "SELECT * FROM contract WHERE id = ?;", id)
	if err != nil {
		return nil, common.Wrap(err)
	}
	return contract, nil
}

// GetContractByEvmAddress returns the live contract created at address
func (mdb *MirrorDB) GetContractByEvmAddress(ctx context.Context, address []byte) (*common.Contract, error) {
	contract := &common.Contract{}
	err := mdb.queryRow(ctx, contract,
		`SELECT * FROM contract WHERE evm_address = ?
		AND (deleted IS NULL OR deleted = false) ORDER BY created_timestamp DESC LIMIT 1;`,
		address,
	)
	if err != nil {
		return nil, common.Wrap(err)
	}
	return contract, nil
}

// GetToken returns the token with the given id
func (mdb *MirrorDB) GetToken(ctx context.Context, id common.EntityID) (*common.Token, error) {
	token := &common.Token{}
	err := mdb.queryRow(ctx, token, "SELECT * FROM token WHERE token_id = ?;", id)
	if err != nil {
		return nil, common.Wrap(err)
	}
	return token, nil
}

// GetTokenAccount returns the latest version of the relationship between
// account and token
func (mdb *MirrorDB) GetTokenAccount(ctx context.Context, accountID, tokenID common.EntityID) (*common.TokenAccount, error) {
	ta := &common.TokenAccount{}
	err := mdb.queryRow(ctx, ta,
		`SELECT * FROM token_account WHERE account_id = ? AND token_id = ?
		ORDER BY modified_timestamp DESC LIMIT 1;`,
		accountID, tokenID,
	)
	if err != nil {
		return nil, common.Wrap(err)
	}
	return ta, nil
}

// GetTokenBalance returns the balance of account in a fungible token, the
// sum of its token transfers
func (mdb *MirrorDB) GetTokenBalance(ctx context.Context, accountID, tokenID common.EntityID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, common.Wrap(err)
	}
	var balance int64
	err := mdb.db.GetContext(ctx, &balance, mdb.db.Rebind(
		"SELECT COALESCE(SUM(amount), 0) FROM token_transfer WHERE account_id = ? AND token_id = ?;"),
		accountID, tokenID,
	)
	return balance, common.Wrap(err)
}

// GetNft returns the nft with the given serial
func (mdb *MirrorDB) GetNft(ctx context.Context, tokenID common.EntityID, serial int64) (*common.Nft, error) {
	nft := &common.Nft{}
	err := mdb.queryRow(ctx, nft,
		"SELECT * FROM nft WHERE token_id = ? AND serial_number = ?;", tokenID, serial,
	)
	if err != nil {
		return nil, common.Wrap(err)
	}
	return nft, nil
}

// GetStorage returns the current value of a contract storage slot, the last
// value written to it
func (mdb *MirrorDB) GetStorage(ctx context.Context, contractID common.EntityID, slot []byte) ([]byte, error) {
	var value []byte
	err := mdb.db.GetContext(ctx, &value, mdb.db.Rebind(
		`SELECT value_written FROM contract_state_change
		WHERE contract_id = ? AND slot = ? AND value_written IS NOT NULL
		ORDER BY consensus_timestamp DESC LIMIT 1;`),
		contractID, slot,
	)
	if err != nil {
		return nil, common.Wrap(err)
	}
	return value, nil
}
