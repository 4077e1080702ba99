package ingester

import (
	"context"

	"github.com/step-security-bot/hedera-mirror-node/common"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=ingester

// Store persists batches
type Store interface {
	// BeginBatch opens the single transaction a batch is written in
	BeginBatch(ctx context.Context) (Batch, error)
}

// Batch is an open write transaction.  Rows are slices of the common type
// matching the kind, e.g. []common.Transaction for common.KindTransaction.
type Batch interface {
	// Copy bulk inserts insert-only rows
	Copy(ctx context.Context, kind common.RowKind, rows interface{}) (int, error)
	// Upsert inserts or merges rows into their persisted versions, updating
	// only the given columns
	Upsert(ctx context.Context, kind common.RowKind, rows interface{}, columns []string) (int, error)
	// SaveRecordFile stores the record file the batch belongs to
	SaveRecordFile(ctx context.Context, file *common.RecordFile) error
	Commit() error
	Rollback() error
}
