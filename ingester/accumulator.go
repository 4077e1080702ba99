/*
Package ingester accumulates the records emitted while parsing one record
file and writes them to storage as a single batch.

Insert-only records are appended as they arrive.  Upsertable records (entities,
contracts, tokens, token accounts, nfts and schedules) are merged by key with
the rules of package merge, so that one row per key reaches storage.  A batch
is written when the number of transactions reaches the configured batch size
and when the record file ends.  A failed write is rolled back entirely and the
in memory state is dropped.

An Accumulator is used by a single goroutine.
*/
package ingester

import (
	"context"

	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/log"
)

// Config of the Accumulator
type Config struct {
	// BatchSize is the number of transactions that triggers a flush
	BatchSize int
}

// Accumulator collects the records of a record file
type Accumulator struct {
	cfg     Config
	writer  *Writer
	pending *pending
	txCount int
	// failed holds the malformed record error of the current batch, which
	// will not be written
	failed error
}

// NewAccumulator creates an Accumulator flushing through writer
func NewAccumulator(cfg Config, writer *Writer) *Accumulator {
	return &Accumulator{
		cfg:     cfg,
		writer:  writer,
		pending: newPending(),
	}
}

// Len returns the number of pending rows
func (a *Accumulator) Len() int {
	return a.pending.size()
}

// TransactionCount returns the number of transactions since the last flush
func (a *Accumulator) TransactionCount() int {
	return a.txCount
}

// OnStart starts a record file, discarding anything left from a previous one
func (a *Accumulator) OnStart(ctx context.Context) error {
	return a.cleanup()
}

// OnEnd writes the pending batch together with the record file
func (a *Accumulator) OnEnd(ctx context.Context, file *common.RecordFile) error {
	return a.flush(ctx, file)
}

// OnError discards the pending batch
func (a *Accumulator) OnError(ctx context.Context) {
	if err := a.cleanup(); err != nil {
		log.Errorw("Accumulator.OnError cleanup", "err", err)
	}
}

// Flush writes the pending batch.  It's a no-op when nothing is pending.
func (a *Accumulator) Flush(ctx context.Context) error {
	return a.flush(ctx, nil)
}

func (a *Accumulator) flush(ctx context.Context, file *common.RecordFile) error {
	a.txCount = 0
	if a.failed != nil {
		err := a.failed
		if cleanupErr := a.cleanup(); cleanupErr != nil {
			log.Errorw("Accumulator.flush cleanup", "err", cleanupErr)
		}
		return err
	}
	return common.Wrap(a.writer.flush(ctx, a, a.pending, file))
}

func (a *Accumulator) cleanup() error {
	a.txCount = 0
	a.failed = nil
	return a.writer.cleanup(a, a.pending)
}

// malformed records the error so that the batch is never written
func (a *Accumulator) malformed(kind common.RowKind, missing string) error {
	err := common.MalformedRecord(kind, missing)
	if a.failed == nil {
		a.failed = err
	}
	return common.Wrap(err)
}

// OnRecord dispatches record, a pointer to one of the record types of
// package common, to its callback
func (a *Accumulator) OnRecord(ctx context.Context, record interface{}) error {
	switch r := record.(type) {
	case *common.AssessedCustomFee:
		return a.OnAssessedCustomFee(r)
	case *common.Contract:
		return a.OnContract(r)
	case *common.ContractLog:
		return a.OnContractLog(r)
	case *common.ContractResult:
		return a.OnContractResult(r)
	case *common.ContractStateChange:
		return a.OnContractStateChange(r)
	case *common.CryptoTransfer:
		return a.OnCryptoTransfer(r)
	case *common.CustomFee:
		return a.OnCustomFee(r)
	case *common.Entity:
		return a.OnEntity(r)
	case *common.FileData:
		return a.OnFileData(r)
	case *common.LiveHash:
		return a.OnLiveHash(r)
	case *common.NonFeeTransfer:
		return a.OnNonFeeTransfer(r)
	case *common.Nft:
		return a.OnNft(r)
	case *common.NftTransfer:
		return a.OnNftTransfer(r)
	case *common.Schedule:
		return a.OnSchedule(r)
	case *common.Token:
		return a.OnToken(r)
	case *common.TokenAccount:
		return a.OnTokenAccount(r)
	case *common.TokenTransfer:
		return a.OnTokenTransfer(r)
	case *common.TopicMessage:
		return a.OnTopicMessage(r)
	case *common.Transaction:
		return a.OnTransaction(ctx, r)
	case *common.TransactionSignature:
		return a.OnTransactionSignature(r)
	default:
		return a.malformed("unknown", "record type")
	}
}

// OnTransaction appends a transaction and flushes when the batch is full
func (a *Accumulator) OnTransaction(ctx context.Context, tx *common.Transaction) error {
	if tx == nil || tx.ConsensusTimestamp == 0 {
		return a.malformed(common.KindTransaction, "consensus timestamp")
	}
	a.pending.transactions = append(a.pending.transactions, *tx)
	a.txCount++
	if a.txCount >= a.cfg.BatchSize {
		return a.Flush(ctx)
	}
	return nil
}

// OnAssessedCustomFee appends an assessed custom fee
func (a *Accumulator) OnAssessedCustomFee(fee *common.AssessedCustomFee) error {
	if fee == nil || fee.ConsensusTimestamp == 0 {
		return a.malformed(common.KindAssessedCustomFee, "consensus timestamp")
	}
	a.pending.assessedCustomFees = append(a.pending.assessedCustomFees, *fee)
	return nil
}

// OnContractLog appends a contract log
func (a *Accumulator) OnContractLog(cl *common.ContractLog) error {
	if cl == nil || cl.ConsensusTimestamp == 0 {
		return a.malformed(common.KindContractLog, "consensus timestamp")
	}
	a.pending.contractLogs = append(a.pending.contractLogs, *cl)
	return nil
}

// OnContractResult appends a contract result
func (a *Accumulator) OnContractResult(cr *common.ContractResult) error {
	if cr == nil || cr.ConsensusTimestamp == 0 {
		return a.malformed(common.KindContractResult, "consensus timestamp")
	}
	a.pending.contractResults = append(a.pending.contractResults, *cr)
	return nil
}

// OnContractStateChange appends a contract storage change
func (a *Accumulator) OnContractStateChange(sc *common.ContractStateChange) error {
	if sc == nil || sc.ConsensusTimestamp == 0 {
		return a.malformed(common.KindContractStateChange, "consensus timestamp")
	}
	if sc.ContractID.IsEmpty() || len(sc.Slot) == 0 {
		return a.malformed(common.KindContractStateChange, "contract id or slot")
	}
	a.pending.contractStateChanges = append(a.pending.contractStateChanges, *sc)
	return nil
}

// OnCryptoTransfer appends a crypto transfer
func (a *Accumulator) OnCryptoTransfer(ct *common.CryptoTransfer) error {
	if ct == nil || ct.ConsensusTimestamp == 0 {
		return a.malformed(common.KindCryptoTransfer, "consensus timestamp")
	}
	a.pending.cryptoTransfers = append(a.pending.cryptoTransfers, *ct)
	return nil
}

// OnCustomFee appends a custom fee
func (a *Accumulator) OnCustomFee(fee *common.CustomFee) error {
	if fee == nil || fee.CreatedTimestamp == 0 {
		return a.malformed(common.KindCustomFee, "created timestamp")
	}
	if fee.TokenID.IsEmpty() {
		return a.malformed(common.KindCustomFee, "token id")
	}
	a.pending.customFees = append(a.pending.customFees, *fee)
	return nil
}

// OnFileData appends file data
func (a *Accumulator) OnFileData(fd *common.FileData) error {
	if fd == nil || fd.ConsensusTimestamp == 0 {
		return a.malformed(common.KindFileData, "consensus timestamp")
	}
	a.pending.fileData = append(a.pending.fileData, *fd)
	return nil
}

// OnLiveHash appends a live hash
func (a *Accumulator) OnLiveHash(lh *common.LiveHash) error {
	if lh == nil || lh.ConsensusTimestamp == 0 {
		return a.malformed(common.KindLiveHash, "consensus timestamp")
	}
	a.pending.liveHashes = append(a.pending.liveHashes, *lh)
	return nil
}

// OnTopicMessage appends a topic message
func (a *Accumulator) OnTopicMessage(tm *common.TopicMessage) error {
	if tm == nil || tm.ConsensusTimestamp == 0 {
		return a.malformed(common.KindTopicMessage, "consensus timestamp")
	}
	a.pending.topicMessages = append(a.pending.topicMessages, *tm)
	return nil
}

// OnTransactionSignature appends a transaction signature
func (a *Accumulator) OnTransactionSignature(ts *common.TransactionSignature) error {
	if ts == nil || ts.ConsensusTimestamp == 0 {
		return a.malformed(common.KindTransactionSignature, "consensus timestamp")
	}
	a.pending.transactionSignatures = append(a.pending.transactionSignatures, *ts)
	return nil
}

// OnNonFeeTransfer appends a non fee transfer
func (a *Accumulator) OnNonFeeTransfer(nft *common.NonFeeTransfer) error {
	if nft == nil || nft.ConsensusTimestamp == 0 {
		return a.malformed(common.KindNonFeeTransfer, "consensus timestamp")
	}
	a.pending.nonFeeTransfers = append(a.pending.nonFeeTransfers, *nft)
	return nil
}

// OnNftTransfer appends an nft transfer
func (a *Accumulator) OnNftTransfer(nt *common.NftTransfer) error {
	if nt == nil || nt.ConsensusTimestamp == 0 {
		return a.malformed(common.KindNftTransfer, "consensus timestamp")
	}
	if nt.TokenID.IsEmpty() {
		return a.malformed(common.KindNftTransfer, "token id")
	}
	a.pending.nftTransfers = append(a.pending.nftTransfers, *nt)
	return nil
}

// OnTokenTransfer appends a token transfer.  Dissociate transfers are kept
// apart since they are written after every other transfer.
func (a *Accumulator) OnTokenTransfer(tt *common.TokenTransfer) error {
	if tt == nil || tt.ConsensusTimestamp == 0 {
		return a.malformed(common.KindTokenTransfer, "consensus timestamp")
	}
	if tt.TokenID.IsEmpty() || tt.AccountID.IsEmpty() {
		return a.malformed(common.KindTokenTransfer, "token or account id")
	}
	if tt.Dissociate {
		a.pending.tokenDissociateTransfers = append(a.pending.tokenDissociateTransfers, *tt)
		return nil
	}
	a.pending.tokenTransfers = append(a.pending.tokenTransfers, *tt)
	return nil
}

// OnContract merges a contract.  The id stops being a plain entity for the
// rest of the batch.
func (a *Accumulator) OnContract(c *common.Contract) error {
	if c == nil {
		return a.malformed(common.KindContract, "record")
	}
	if c.ID.IsEmpty() {
		return nil
	}
	// id columns always follow the id
	c.Num, c.Realm, c.Shard = c.ID.Num(), c.ID.Realm(), c.ID.Shard()
	if _, err := a.pending.contracts.merge(c.ID, *c); err != nil {
		return common.Wrap(err)
	}
	a.pending.entities.remove(c.ID)
	return nil
}

// OnEntity merges an entity.  Empty ids and ids already known as contracts
// are dropped.
func (a *Accumulator) OnEntity(e *common.Entity) error {
	if e == nil {
		return a.malformed(common.KindEntity, "record")
	}
	if e.ID.IsEmpty() || a.pending.contracts.has(e.ID) {
		return nil
	}
	e.Num, e.Realm, e.Shard = e.ID.Num(), e.ID.Realm(), e.ID.Shard()
	_, err := a.pending.entities.merge(e.ID, *e)
	return common.Wrap(err)
}

// OnToken merges a token
func (a *Accumulator) OnToken(t *common.Token) error {
	if t == nil || t.TokenID.IsEmpty() {
		return a.malformed(common.KindToken, "token id")
	}
	_, err := a.pending.tokens.merge(t.TokenID, *t)
	return common.Wrap(err)
}

// OnTokenAccount merges a token account.  Every call emits the merged
// version as its own row.
func (a *Accumulator) OnTokenAccount(ta *common.TokenAccount) error {
	if ta == nil || ta.AccountID.IsEmpty() || ta.TokenID.IsEmpty() {
		return a.malformed(common.KindTokenAccount, "account or token id")
	}
	merged, err := a.pending.tokenAccountState.merge(ta.Key(), *ta)
	if err != nil {
		return common.Wrap(err)
	}
	a.pending.tokenAccounts = append(a.pending.tokenAccounts, merged)
	return nil
}

// OnNft merges an nft
func (a *Accumulator) OnNft(n *common.Nft) error {
	if n == nil || n.TokenID.IsEmpty() || n.SerialNumber <= 0 {
		return a.malformed(common.KindNft, "token id or serial number")
	}
	_, err := a.pending.nfts.merge(n.ID(), *n)
	return common.Wrap(err)
}

// OnSchedule merges a schedule
func (a *Accumulator) OnSchedule(s *common.Schedule) error {
	if s == nil || s.ScheduleID.IsEmpty() {
		return a.malformed(common.KindSchedule, "schedule id")
	}
	_, err := a.pending.schedules.merge(s.ScheduleID, *s)
	return common.Wrap(err)
}
