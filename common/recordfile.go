package common

import "time"

// RecordFile is one ordered, atomically processed unit of ledger records.
// Record files are chained: PreviousHash of a file must be the Hash of the
// file processed before it.
type RecordFile struct {
	ConsensusStart int64     `meddler:"consensus_start"`
	ConsensusEnd   int64     `meddler:"consensus_end"`
	Count          int64     `meddler:"count"`
	GasUsed        int64     `meddler:"gas_used"`
	Hash           string    `meddler:"hash"`
	Index          int64     `meddler:"index"`
	LoadStart      time.Time `meddler:"load_start,utctime"`
	LoadEnd        time.Time `meddler:"load_end,utctime"`
	Name           string    `meddler:"name"`
	PreviousHash   string    `meddler:"prev_hash"`
	Version        int32     `meddler:"version"`
}
