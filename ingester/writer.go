package ingester

import (
	"context"
	"errors"
	"time"

	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/database"
	"github.com/step-security-bot/hedera-mirror-node/eventbus"
	"github.com/step-security-bot/hedera-mirror-node/log"
	"github.com/step-security-bot/hedera-mirror-node/metric"
)

// Writer flushes pending batches to a Store in a single transaction
type Writer struct {
	store     Store
	publisher eventbus.Publisher
}

// NewWriter creates a Writer.  Batch notifications are sent to publisher.
func NewWriter(store Store, publisher eventbus.Publisher) *Writer {
	return &Writer{
		store:     store,
		publisher: publisher,
	}
}

func storageError(err error) error {
	return common.Wrap(common.NewImporterError("flush", common.ErrStorageWrite, err))
}

// flush writes p, and file when not nil, then clears p whatever the outcome.
// Writes happen in this order: insert-only rows, upserts (contracts,
// entities, tokens, token accounts, nfts, schedules), transfers, the record
// file.
func (w *Writer) flush(ctx context.Context, source interface{}, p *pending,
	file *common.RecordFile) (err error) {
	if p.empty() && file == nil {
		return nil
	}
	start := time.Now()
	batchID := p.id
	defer func() {
		if cleanupErr := w.cleanup(source, p); cleanupErr != nil && err == nil {
			err = cleanupErr
		}
	}()

	if err := w.publisher.Publish(eventbus.BatchSaveEvent{Source: source, BatchID: batchID}); err != nil {
		metric.FlushFailures.Inc()
		return storageError(err)
	}

	batch, err := w.store.BeginBatch(ctx)
	if err != nil {
		metric.FlushFailures.Inc()
		return storageError(err)
	}
	defer func() {
		if err != nil {
			if rbErr := batch.Rollback(); rbErr != nil {
				log.Errorw("Writer.flush rollback", "batch", batchID, "err", rbErr)
			}
		}
	}()

	counts, err := w.write(ctx, batch, p)
	if err != nil {
		metric.FlushFailures.Inc()
		return storageError(err)
	}
	if file != nil {
		if err := batch.SaveRecordFile(ctx, file); err != nil {
			metric.FlushFailures.Inc()
			return storageError(err)
		}
	}
	if err := batch.Commit(); err != nil {
		metric.FlushFailures.Inc()
		return storageError(err)
	}

	total := 0
	for kind, n := range counts {
		metric.RowsWritten.WithLabelValues(string(kind)).Add(float64(n))
		total += n
	}
	metric.Flushes.Inc()
	metric.MeasureDuration(metric.FlushDuration, start)
	log.Infow("Completed batch inserts", "batch", batchID, "rows", total,
		"duration", time.Since(start))
	return nil
}

func (w *Writer) write(ctx context.Context, batch Batch, p *pending) (map[common.RowKind]int, error) {
	counts := make(map[common.RowKind]int)
	for _, set := range p.insertOnly() {
		if set.len == 0 {
			continue
		}
		n, err := batch.Copy(ctx, set.kind, set.rows)
		if err != nil {
			return nil, common.Wrap(err)
		}
		counts[set.kind] += n
	}

	sets := append(p.upserts(), p.transfers()...)
	// Dissociate transfers go after every other transfer
	sets = append(sets, rowSet{
		common.KindTokenDissociateTransfer, p.tokenDissociateTransfers, len(p.tokenDissociateTransfers),
	})
	for _, set := range sets {
		if err := w.writeSet(ctx, batch, set, counts); err != nil {
			return nil, common.Wrap(err)
		}
	}
	return counts, nil
}

func (w *Writer) writeSet(ctx context.Context, batch Batch, set rowSet, counts map[common.RowKind]int) error {
	if set.len == 0 {
		return nil
	}
	var n int
	var err error
	switch set.kind {
	case common.KindNonFeeTransfer, common.KindNftTransfer, common.KindTokenTransfer:
		n, err = batch.Copy(ctx, set.kind, set.rows)
	default:
		var columns []string
		if columns, err = database.NonNullColumns(set.rows); err != nil {
			return common.Wrap(err)
		}
		n, err = batch.Upsert(ctx, set.kind, set.rows, columns)
	}
	if err != nil {
		return common.Wrap(err)
	}
	counts[set.kind] += n
	return nil
}

// cleanup clears p and notifies subscribers.  A bus that is shutting down
// is not an error: the importer is going down with it.
func (w *Writer) cleanup(source interface{}, p *pending) error {
	batchID := p.id
	p.clear()
	err := w.publisher.Publish(eventbus.BatchCleanupEvent{Source: source, BatchID: batchID})
	if errors.Is(err, eventbus.ErrShuttingDown) {
		log.Debugw("Batch cleanup event dropped on shutdown", "batch", batchID)
		return nil
	}
	return common.Wrap(err)
}
