package common

// Transaction is a processed ledger transaction.  Every transaction counts
// towards the batch size threshold of the importer.
type Transaction struct {
	ConsensusTimestamp   int64     `meddler:"consensus_timestamp"`
	ChargedTxFee         *int64    `meddler:"charged_tx_fee"`
	EntityID             *EntityID `meddler:"entity_id"`
	Index                *int32    `meddler:"index"`
	MaxFee               *int64    `meddler:"max_fee"`
	Memo                 []byte    `meddler:"memo"`
	NodeAccountID        *EntityID `meddler:"node_account_id"`
	Nonce                int32     `meddler:"nonce"`
	PayerAccountID       EntityID  `meddler:"payer_account_id"`
	Result               int16     `meddler:"result"`
	Scheduled            bool      `meddler:"scheduled"`
	TransactionBytes     []byte    `meddler:"transaction_bytes"`
	TransactionHash      []byte    `meddler:"transaction_hash"`
	Type                 int16     `meddler:"type"`
	ValidDurationSeconds *int64    `meddler:"valid_duration_seconds"`
	ValidStartNs         int64     `meddler:"valid_start_ns"`
}

// CryptoTransfer is a hbar transfer, fees included
type CryptoTransfer struct {
	ConsensusTimestamp int64    `meddler:"consensus_timestamp"`
	EntityID           EntityID `meddler:"entity_id"`
	Amount             int64    `meddler:"amount"`
	IsApproval         *bool    `meddler:"is_approval"`
	PayerAccountID     EntityID `meddler:"payer_account_id"`
}

// NonFeeTransfer is a hbar transfer explicitly listed in a transaction body
type NonFeeTransfer struct {
	ConsensusTimestamp int64    `meddler:"consensus_timestamp"`
	EntityID           EntityID `meddler:"entity_id"`
	Amount             int64    `meddler:"amount"`
	IsApproval         *bool    `meddler:"is_approval"`
	PayerAccountID     EntityID `meddler:"payer_account_id"`
}

// NftTransfer moves one nft serial between accounts
type NftTransfer struct {
	ConsensusTimestamp int64     `meddler:"consensus_timestamp"`
	TokenID            EntityID  `meddler:"token_id"`
	SerialNumber       int64     `meddler:"serial_number"`
	IsApproval         *bool     `meddler:"is_approval"`
	PayerAccountID     EntityID  `meddler:"payer_account_id"`
	ReceiverAccountID  *EntityID `meddler:"receiver_account_id"`
	SenderAccountID    *EntityID `meddler:"sender_account_id"`
}

// TokenTransfer is a fungible token balance change.  Dissociate transfers
// are produced when an account dissociates from a deleted token and are
// written after every other table of the batch.
type TokenTransfer struct {
	ConsensusTimestamp int64    `meddler:"consensus_timestamp"`
	TokenID            EntityID `meddler:"token_id"`
	AccountID          EntityID `meddler:"account_id"`
	Amount             int64    `meddler:"amount"`
	IsApproval         *bool    `meddler:"is_approval"`
	PayerAccountID     EntityID `meddler:"payer_account_id"`
	Dissociate         bool     `meddler:"-"`
}

// ContractLog is a log emitted by a contract execution
type ContractLog struct {
	ConsensusTimestamp int64     `meddler:"consensus_timestamp"`
	Index              int32     `meddler:"index"`
	Bloom              []byte    `meddler:"bloom"`
	ContractID         EntityID  `meddler:"contract_id"`
	Data               []byte    `meddler:"data"`
	PayerAccountID     EntityID  `meddler:"payer_account_id"`
	RootContractID     *EntityID `meddler:"root_contract_id"`
	Topic0             []byte    `meddler:"topic0"`
	Topic1             []byte    `meddler:"topic1"`
	Topic2             []byte    `meddler:"topic2"`
	Topic3             []byte    `meddler:"topic3"`
}

// ContractResult is the outcome of a contract call or create
type ContractResult struct {
	ConsensusTimestamp int64     `meddler:"consensus_timestamp"`
	Amount             *int64    `meddler:"amount"`
	Bloom              []byte    `meddler:"bloom"`
	CallResult         []byte    `meddler:"call_result"`
	ContractID         *EntityID `meddler:"contract_id"`
	ErrorMessage       *string   `meddler:"error_message"`
	FunctionParameters []byte    `meddler:"function_parameters"`
	FunctionResult     []byte    `meddler:"function_result"`
	GasLimit           int64     `meddler:"gas_limit"`
	GasUsed            *int64    `meddler:"gas_used"`
	PayerAccountID     EntityID  `meddler:"payer_account_id"`
	SenderID           *EntityID `meddler:"sender_id"`
}

// ContractStateChange is a storage slot read or written by a contract
// execution.  The latest written value of a slot is its current state.
type ContractStateChange struct {
	ConsensusTimestamp int64    `meddler:"consensus_timestamp"`
	ContractID         EntityID `meddler:"contract_id"`
	Slot               []byte   `meddler:"slot"`
	MigrationFlag      bool     `meddler:"migration"`
	PayerAccountID     EntityID `meddler:"payer_account_id"`
	ValueRead          []byte   `meddler:"value_read"`
	ValueWritten       []byte   `meddler:"value_written"`
}

// TransactionSignature is the signature of a transaction by one key
type TransactionSignature struct {
	ConsensusTimestamp int64     `meddler:"consensus_timestamp"`
	EntityID           *EntityID `meddler:"entity_id"`
	PublicKeyPrefix    []byte    `meddler:"public_key_prefix"`
	Signature          []byte    `meddler:"signature"`
	Type               int16     `meddler:"type"`
}

// TopicMessage is a message submitted to a consensus topic
type TopicMessage struct {
	ConsensusTimestamp   int64     `meddler:"consensus_timestamp"`
	ChunkNum             *int32    `meddler:"chunk_num"`
	ChunkTotal           *int32    `meddler:"chunk_total"`
	InitialTransactionID []byte    `meddler:"initial_transaction_id"`
	Message              []byte    `meddler:"message"`
	PayerAccountID       EntityID  `meddler:"payer_account_id"`
	RunningHash          []byte    `meddler:"running_hash"`
	RunningHashVersion   int16     `meddler:"running_hash_version"`
	SequenceNumber       int64     `meddler:"sequence_number"`
	TopicID              EntityID  `meddler:"topic_id"`
	ValidStartTimestamp  *int64    `meddler:"valid_start_timestamp"`
}

// FileData is the content appended or written to a file entity
type FileData struct {
	ConsensusTimestamp int64    `meddler:"consensus_timestamp"`
	EntityID           EntityID `meddler:"entity_id"`
	FileData           []byte   `meddler:"file_data"`
	TransactionType    int16    `meddler:"transaction_type"`
}

// LiveHash attached to an account
type LiveHash struct {
	ConsensusTimestamp int64  `meddler:"consensus_timestamp"`
	Livehash           []byte `meddler:"livehash"`
}

// CustomFee is one fee of the custom fee schedule of a token
type CustomFee struct {
	CreatedTimestamp       int64     `meddler:"created_timestamp"`
	TokenID                EntityID  `meddler:"token_id"`
	AllCollectorsAreExempt bool      `meddler:"all_collectors_are_exempt"`
	Amount                 *int64    `meddler:"amount"`
	AmountDenominator      *int64    `meddler:"amount_denominator"`
	CollectorAccountID     *EntityID `meddler:"collector_account_id"`
	DenominatingTokenID    *EntityID `meddler:"denominating_token_id"`
	MaximumAmount          *int64    `meddler:"maximum_amount"`
	MinimumAmount          int64     `meddler:"minimum_amount"`
	NetOfTransfers         *bool     `meddler:"net_of_transfers"`
	RoyaltyDenominator     *int64    `meddler:"royalty_denominator"`
	RoyaltyNumerator       *int64    `meddler:"royalty_numerator"`
}

// AssessedCustomFee is a custom fee charged by a transaction
type AssessedCustomFee struct {
	ConsensusTimestamp int64     `meddler:"consensus_timestamp"`
	Amount             int64     `meddler:"amount"`
	CollectorAccountID EntityID  `meddler:"collector_account_id"`
	PayerAccountID     EntityID  `meddler:"payer_account_id"`
	TokenID            *EntityID `meddler:"token_id"`
}
