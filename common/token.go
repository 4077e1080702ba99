package common

// TokenType of a token
type TokenType string

// Token types
const (
	TokenTypeFungibleCommon    TokenType = "FUNGIBLE_COMMON"
	TokenTypeNonFungibleUnique TokenType = "NON_FUNGIBLE_UNIQUE"
)

// TokenSupplyType of a token
type TokenSupplyType string

// Token supply types
const (
	TokenSupplyTypeFinite   TokenSupplyType = "FINITE"
	TokenSupplyTypeInfinite TokenSupplyType = "INFINITE"
)

// TokenPauseStatus of a token
type TokenPauseStatus string

// Token pause statuses
const (
	TokenPauseStatusNotApplicable TokenPauseStatus = "NOT_APPLICABLE"
	TokenPauseStatusPaused        TokenPauseStatus = "PAUSED"
	TokenPauseStatusUnpaused      TokenPauseStatus = "UNPAUSED"
)

// TokenFreezeStatus of a token account
type TokenFreezeStatus int16

// Token freeze statuses
const (
	TokenFreezeStatusNotApplicable TokenFreezeStatus = 0
	TokenFreezeStatusFrozen        TokenFreezeStatus = 1
	TokenFreezeStatusUnfrozen      TokenFreezeStatus = 2
)

// TokenKycStatus of a token account
type TokenKycStatus int16

// Token kyc statuses
const (
	TokenKycStatusNotApplicable TokenKycStatus = 0
	TokenKycStatusGranted       TokenKycStatus = 1
	TokenKycStatusRevoked       TokenKycStatus = 2
)

// Token is a fungible or non fungible token.  A negative TotalSupply on an
// update is a delta relative to the previous supply.
type Token struct {
	TokenID           EntityID          `meddler:"token_id"`
	CreatedTimestamp  *int64            `meddler:"created_timestamp"`
	Decimals          *int32            `meddler:"decimals"`
	FeeScheduleKey    []byte            `meddler:"fee_schedule_key"`
	FreezeDefault     *bool             `meddler:"freeze_default"`
	FreezeKey         []byte            `meddler:"freeze_key"`
	InitialSupply     *int64            `meddler:"initial_supply"`
	KycKey            []byte            `meddler:"kyc_key"`
	MaxSupply         *int64            `meddler:"max_supply"`
	ModifiedTimestamp int64             `meddler:"modified_timestamp"`
	Name              *string           `meddler:"name"`
	PauseKey          []byte            `meddler:"pause_key"`
	PauseStatus       *TokenPauseStatus `meddler:"pause_status"`
	SupplyKey         []byte            `meddler:"supply_key"`
	SupplyType        *TokenSupplyType  `meddler:"supply_type"`
	Symbol            *string           `meddler:"symbol"`
	TotalSupply       *int64            `meddler:"total_supply"`
	TreasuryAccountID *EntityID         `meddler:"treasury_account_id"`
	Type              *TokenType        `meddler:"type"`
	WipeKey           []byte            `meddler:"wipe_key"`
}

// TokenAccountKey identifies the relationship between an account and a token
type TokenAccountKey struct {
	AccountID EntityID
	TokenID   EntityID
}

// TokenAccount is the relationship between an account and a token.  Every
// change produces a new row keyed by (account, token, modified timestamp).
type TokenAccount struct {
	AccountID            EntityID           `meddler:"account_id"`
	TokenID              EntityID           `meddler:"token_id"`
	Associated           *bool              `meddler:"associated"`
	AutomaticAssociation *bool              `meddler:"automatic_association"`
	CreatedTimestamp     *int64             `meddler:"created_timestamp"`
	FreezeStatus         *TokenFreezeStatus `meddler:"freeze_status"`
	KycStatus            *TokenKycStatus    `meddler:"kyc_status"`
	ModifiedTimestamp    int64              `meddler:"modified_timestamp"`
}

// Key of the token account
func (ta *TokenAccount) Key() TokenAccountKey {
	return TokenAccountKey{AccountID: ta.AccountID, TokenID: ta.TokenID}
}

// NftID identifies a unique token instance
type NftID struct {
	TokenID      EntityID
	SerialNumber int64
}

// Nft is a non fungible token instance
type Nft struct {
	TokenID           EntityID  `meddler:"token_id"`
	SerialNumber      int64     `meddler:"serial_number"`
	AccountID         *EntityID `meddler:"account_id"`
	CreatedTimestamp  *int64    `meddler:"created_timestamp"`
	Deleted           *bool     `meddler:"deleted"`
	Metadata          []byte    `meddler:"metadata"`
	ModifiedTimestamp int64     `meddler:"modified_timestamp"`
}

// ID of the nft
func (n *Nft) ID() NftID {
	return NftID{TokenID: n.TokenID, SerialNumber: n.SerialNumber}
}

// Schedule is a scheduled transaction.  Only ExecutedTimestamp changes after
// creation.
type Schedule struct {
	ScheduleID         EntityID  `meddler:"schedule_id"`
	ConsensusTimestamp int64     `meddler:"consensus_timestamp"`
	CreatorAccountID   *EntityID `meddler:"creator_account_id"`
	ExecutedTimestamp  *int64    `meddler:"executed_timestamp"`
	ExpirationTime     *int64    `meddler:"expiration_time"`
	PayerAccountID     *EntityID `meddler:"payer_account_id"`
	TransactionBody    []byte    `meddler:"transaction_body"`
	WaitForExpiry      *bool     `meddler:"wait_for_expiry"`
}
