/*
Package importerdb persists the batches of the importer in PostgreSQL.

Insert-only rows are streamed with COPY.  Upsertable rows are copied into a
temporary staging table and merged into their table with a single
insert ... on conflict statement that only touches the columns set on the
batch rows.  Everything runs in the transaction of the batch.
*/
package importerdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/russross/meddler"
	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/database"
	"github.com/step-security-bot/hedera-mirror-node/ingester"
)

// ImporterDB is the PostgreSQL ingester.Store
type ImporterDB struct {
	db *sqlx.DB
}

// NewImporterDB creates an ImporterDB writing to db
func NewImporterDB(db *sqlx.DB) *ImporterDB {
	return &ImporterDB{db: db}
}

// DB returns the underlying connection.  Only meant for tests.
func (idb *ImporterDB) DB() *sqlx.DB {
	return idb.db
}

// BeginBatch implements ingester.Store
func (idb *ImporterDB) BeginBatch(ctx context.Context) (ingester.Batch, error) {
	txn, err := idb.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, common.Wrap(err)
	}
	return &batch{txn: txn}, nil
}

// GetLastRecordFile returns the record file with the latest consensus end,
// or nil when none was saved yet
func (idb *ImporterDB) GetLastRecordFile(ctx context.Context) (*common.RecordFile, error) {
	file := &common.RecordFile{}
	err := meddler.QueryRow(
		idb.db, file, "SELECT * FROM record_file ORDER BY consensus_end DESC LIMIT 1;",
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, common.Wrap(err)
	}
	return file, nil
}

type batch struct {
	txn *sqlx.Tx
}

func (b *batch) Copy(ctx context.Context, kind common.RowKind, rows interface{}) (int, error) {
	n, err := database.CopyIn(ctx, b.txn, kind.Table(), rows)
	return n, common.Wrap(err)
}

func (b *batch) stage(ctx context.Context, table *database.UpsertTable, rows interface{}) error {
	if _, err := b.txn.ExecContext(ctx, table.CreateTempQuery()); err != nil {
		return common.Wrap(err)
	}
	if _, err := b.txn.ExecContext(ctx, table.TruncateTempQuery()); err != nil {
		return common.Wrap(err)
	}
	_, err := database.CopyIn(ctx, b.txn, table.TempName(), rows)
	return common.Wrap(err)
}

func (b *batch) Upsert(ctx context.Context, kind common.RowKind, rows interface{}, columns []string) (int, error) {
	if kind == common.KindTokenDissociateTransfer {
		return b.dissociate(ctx, rows)
	}
	table, ok := upsertTables[kind]
	if !ok {
		return 0, common.Wrap(fmt.Errorf("no upsert for %s", kind))
	}
	if err := b.stage(ctx, table, rows); err != nil {
		return 0, common.Wrap(err)
	}
	res, err := b.txn.ExecContext(ctx, table.Query(columns))
	if err != nil {
		return 0, common.Wrap(err)
	}
	n, err := res.RowsAffected()
	return int(n), common.Wrap(err)
}

func (b *batch) dissociate(ctx context.Context, rows interface{}) (int, error) {
	table := &database.UpsertTable{Name: common.KindTokenTransfer.Table()}
	if err := b.stage(ctx, table, rows); err != nil {
		return 0, common.Wrap(err)
	}
	res, err := b.txn.ExecContext(ctx, dissociateFungibleQuery)
	if err != nil {
		return 0, common.Wrap(err)
	}
	transfers, err := res.RowsAffected()
	if err != nil {
		return 0, common.Wrap(err)
	}
	res, err = b.txn.ExecContext(ctx, dissociateNftQuery)
	if err != nil {
		return 0, common.Wrap(err)
	}
	nfts, err := res.RowsAffected()
	return int(transfers + nfts), common.Wrap(err)
}

func (b *batch) SaveRecordFile(ctx context.Context, file *common.RecordFile) error {
	return common.Wrap(meddler.Insert(b.txn, common.KindRecordFile.Table(), file))
}

func (b *batch) Commit() error {
	return common.Wrap(b.txn.Commit())
}

func (b *batch) Rollback() error {
	return common.Wrap(b.txn.Rollback())
}
