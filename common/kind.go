package common

// RowKind identifies the kind of a domain record handed to the importer.  Its
// value is the name of the table the records are persisted in, except for
// token dissociate transfers, which end up in token_transfer.
type RowKind string

// Insert-only kinds
const (
	KindAssessedCustomFee       RowKind = "assessed_custom_fee"
	KindContractLog             RowKind = "contract_log"
	KindContractResult          RowKind = "contract_result"
	KindContractStateChange     RowKind = "contract_state_change"
	KindCryptoTransfer          RowKind = "crypto_transfer"
	KindCustomFee               RowKind = "custom_fee"
	KindFileData                RowKind = "file_data"
	KindLiveHash                RowKind = "live_hash"
	KindTopicMessage            RowKind = "topic_message"
	KindTransaction             RowKind = "transaction"
	KindTransactionSignature    RowKind = "transaction_signature"
	KindNonFeeTransfer          RowKind = "non_fee_transfer"
	KindNftTransfer             RowKind = "nft_transfer"
	KindTokenTransfer           RowKind = "token_transfer"
	KindTokenDissociateTransfer RowKind = "token_dissociate_transfer"
)

// Upsertable kinds
const (
	KindContract     RowKind = "contract"
	KindEntity       RowKind = "entity"
	KindToken        RowKind = "token"
	KindTokenAccount RowKind = "token_account"
	KindNft          RowKind = "nft"
	KindSchedule     RowKind = "schedule"
)

// KindRecordFile is the bookkeeping row of a processed record file
const KindRecordFile RowKind = "record_file"

// Table returns the table rows of the kind are stored in
func (k RowKind) Table() string {
	if k == KindTokenDissociateTransfer {
		return string(KindTokenTransfer)
	}
	return string(k)
}
