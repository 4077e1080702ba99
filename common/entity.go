package common

// EntityType is the type of a ledger entity
type EntityType string

// Entity types
const (
	EntityTypeAccount  EntityType = "ACCOUNT"
	EntityTypeContract EntityType = "CONTRACT"
	EntityTypeFile     EntityType = "FILE"
	EntityTypeSchedule EntityType = "SCHEDULE"
	EntityTypeToken    EntityType = "TOKEN"
	EntityTypeTopic    EntityType = "TOPIC"
)

// Entity is an account, file, topic, or any other ledger entity that is not
// a contract.  Nil fields are unset and leave the persisted value untouched.
type Entity struct {
	ID                            EntityID        `meddler:"id"`
	Alias                         []byte          `meddler:"alias"`
	AutoRenewAccountID            *EntityID       `meddler:"auto_renew_account_id"`
	AutoRenewPeriod               *int64          `meddler:"auto_renew_period"`
	Balance                       *int64          `meddler:"balance"`
	CreatedTimestamp              *int64          `meddler:"created_timestamp"`
	Deleted                       *bool           `meddler:"deleted"`
	EthereumNonce                 *int64          `meddler:"ethereum_nonce"`
	EvmAddress                    []byte          `meddler:"evm_address"`
	ExpirationTimestamp           *int64          `meddler:"expiration_timestamp"`
	Key                           []byte          `meddler:"key"`
	MaxAutomaticTokenAssociations *int32          `meddler:"max_automatic_token_associations"`
	Memo                          *string         `meddler:"memo"`
	Num                           int64           `meddler:"num"`
	ProxyAccountID                *EntityID       `meddler:"proxy_account_id"`
	PublicKey                     *string         `meddler:"public_key"`
	Realm                         int64           `meddler:"realm"`
	ReceiverSigRequired           *bool           `meddler:"receiver_sig_required"`
	Shard                         int64           `meddler:"shard"`
	SubmitKey                     []byte          `meddler:"submit_key"`
	TimestampRange                *TimestampRange `meddler:"timestamp_range"`
	Type                          EntityType      `meddler:"type"`
}

// NewEntity returns an entity with its id columns filled
func NewEntity(id EntityID, typ EntityType) Entity {
	return Entity{
		ID:    id,
		Num:   id.Num(),
		Realm: id.Realm(),
		Shard: id.Shard(),
		Type:  typ,
	}
}

// Contract is a smart contract entity.  A contract id never appears as a
// plain Entity in the same batch.
type Contract struct {
	ID                            EntityID        `meddler:"id"`
	AutoRenewAccountID            *EntityID       `meddler:"auto_renew_account_id"`
	AutoRenewPeriod               *int64          `meddler:"auto_renew_period"`
	CreatedTimestamp              *int64          `meddler:"created_timestamp"`
	Deleted                       *bool           `meddler:"deleted"`
	EvmAddress                    []byte          `meddler:"evm_address"`
	ExpirationTimestamp           *int64          `meddler:"expiration_timestamp"`
	FileID                        *EntityID       `meddler:"file_id"`
	Initcode                      []byte          `meddler:"initcode"`
	Key                           []byte          `meddler:"key"`
	MaxAutomaticTokenAssociations *int32          `meddler:"max_automatic_token_associations"`
	Memo                          *string         `meddler:"memo"`
	Num                           int64           `meddler:"num"`
	ObtainerID                    *EntityID       `meddler:"obtainer_id"`
	PermanentRemoval              *bool           `meddler:"permanent_removal"`
	ProxyAccountID                *EntityID       `meddler:"proxy_account_id"`
	PublicKey                     *string         `meddler:"public_key"`
	Realm                         int64           `meddler:"realm"`
	RuntimeBytecode               []byte          `meddler:"runtime_bytecode"`
	Shard                         int64           `meddler:"shard"`
	TimestampRange                *TimestampRange `meddler:"timestamp_range"`
	Type                          EntityType      `meddler:"type"`
}

// NewContract returns a contract with its id columns filled
func NewContract(id EntityID) Contract {
	return Contract{
		ID:    id,
		Num:   id.Num(),
		Realm: id.Realm(),
		Shard: id.Shard(),
		Type:  EntityTypeContract,
	}
}
