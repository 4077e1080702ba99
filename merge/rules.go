package merge

import "github.com/step-security-bot/hedera-mirror-node/common"

func pick[T any](cached, incoming *T) *T {
	if incoming != nil {
		return incoming
	}
	return cached
}

func pickBytes(cached, incoming []byte) []byte {
	if incoming != nil {
		return incoming
	}
	return cached
}

// Entity merges two versions of an entity
func Entity(cached, incoming common.Entity) common.Entity {
	merged := cached
	merged.Alias = pickBytes(cached.Alias, incoming.Alias)
	merged.AutoRenewAccountID = pick(cached.AutoRenewAccountID, incoming.AutoRenewAccountID)
	merged.AutoRenewPeriod = pick(cached.AutoRenewPeriod, incoming.AutoRenewPeriod)
	merged.Balance = pick(cached.Balance, incoming.Balance)
	merged.CreatedTimestamp = createdTimestamp(cached.CreatedTimestamp, incoming.CreatedTimestamp)
	merged.Deleted = pick(cached.Deleted, incoming.Deleted)
	merged.EthereumNonce = pick(cached.EthereumNonce, incoming.EthereumNonce)
	merged.EvmAddress = pickBytes(cached.EvmAddress, incoming.EvmAddress)
	merged.ExpirationTimestamp = pick(cached.ExpirationTimestamp, incoming.ExpirationTimestamp)
	merged.Key = pickBytes(cached.Key, incoming.Key)
	merged.MaxAutomaticTokenAssociations = pick(cached.MaxAutomaticTokenAssociations,
		incoming.MaxAutomaticTokenAssociations)
	merged.Memo = pick(cached.Memo, incoming.Memo)
	merged.ProxyAccountID = pick(cached.ProxyAccountID, incoming.ProxyAccountID)
	merged.PublicKey = pick(cached.PublicKey, incoming.PublicKey)
	merged.ReceiverSigRequired = pick(cached.ReceiverSigRequired, incoming.ReceiverSigRequired)
	merged.SubmitKey = pickBytes(cached.SubmitKey, incoming.SubmitKey)
	merged.TimestampRange = timestampRange(cached.TimestampRange, incoming.TimestampRange)
	if incoming.Type != "" {
		merged.Type = incoming.Type
	}
	return merged
}

// Contract merges two versions of a contract
func Contract(cached, incoming common.Contract) common.Contract {
	merged := cached
	merged.AutoRenewAccountID = pick(cached.AutoRenewAccountID, incoming.AutoRenewAccountID)
	merged.AutoRenewPeriod = pick(cached.AutoRenewPeriod, incoming.AutoRenewPeriod)
	merged.CreatedTimestamp = createdTimestamp(cached.CreatedTimestamp, incoming.CreatedTimestamp)
	merged.Deleted = pick(cached.Deleted, incoming.Deleted)
	merged.EvmAddress = pickBytes(cached.EvmAddress, incoming.EvmAddress)
	merged.ExpirationTimestamp = pick(cached.ExpirationTimestamp, incoming.ExpirationTimestamp)
	merged.FileID = pick(cached.FileID, incoming.FileID)
	merged.Initcode = pickBytes(cached.Initcode, incoming.Initcode)
	merged.Key = pickBytes(cached.Key, incoming.Key)
	merged.MaxAutomaticTokenAssociations = pick(cached.MaxAutomaticTokenAssociations,
		incoming.MaxAutomaticTokenAssociations)
	merged.Memo = pick(cached.Memo, incoming.Memo)
	merged.ObtainerID = pick(cached.ObtainerID, incoming.ObtainerID)
	merged.PermanentRemoval = pick(cached.PermanentRemoval, incoming.PermanentRemoval)
	merged.ProxyAccountID = pick(cached.ProxyAccountID, incoming.ProxyAccountID)
	merged.PublicKey = pick(cached.PublicKey, incoming.PublicKey)
	merged.RuntimeBytecode = pickBytes(cached.RuntimeBytecode, incoming.RuntimeBytecode)
	merged.TimestampRange = timestampRange(cached.TimestampRange, incoming.TimestampRange)
	if incoming.Type != "" {
		merged.Type = incoming.Type
	}
	return merged
}

// Token merges two versions of a token.  A negative incoming total supply
// is a delta (e.g. the burn of a dissociated balance) and is added to the
// cached supply when there is one.  The modified timestamp is always taken
// from incoming.
func Token(cached, incoming common.Token) common.Token {
	merged := cached
	merged.CreatedTimestamp = createdTimestamp(cached.CreatedTimestamp, incoming.CreatedTimestamp)
	merged.Decimals = pick(cached.Decimals, incoming.Decimals)
	merged.FeeScheduleKey = pickBytes(cached.FeeScheduleKey, incoming.FeeScheduleKey)
	merged.FreezeDefault = pick(cached.FreezeDefault, incoming.FreezeDefault)
	merged.FreezeKey = pickBytes(cached.FreezeKey, incoming.FreezeKey)
	merged.InitialSupply = pick(cached.InitialSupply, incoming.InitialSupply)
	merged.KycKey = pickBytes(cached.KycKey, incoming.KycKey)
	merged.MaxSupply = pick(cached.MaxSupply, incoming.MaxSupply)
	merged.ModifiedTimestamp = incoming.ModifiedTimestamp
	merged.Name = pick(cached.Name, incoming.Name)
	merged.PauseKey = pickBytes(cached.PauseKey, incoming.PauseKey)
	merged.PauseStatus = pick(cached.PauseStatus, incoming.PauseStatus)
	merged.SupplyKey = pickBytes(cached.SupplyKey, incoming.SupplyKey)
	merged.SupplyType = pick(cached.SupplyType, incoming.SupplyType)
	merged.Symbol = pick(cached.Symbol, incoming.Symbol)
	merged.TotalSupply = totalSupply(cached.TotalSupply, incoming.TotalSupply)
	merged.TreasuryAccountID = pick(cached.TreasuryAccountID, incoming.TreasuryAccountID)
	merged.Type = pick(cached.Type, incoming.Type)
	merged.WipeKey = pickBytes(cached.WipeKey, incoming.WipeKey)
	return merged
}

func totalSupply(cached, incoming *int64) *int64 {
	if incoming == nil {
		return cached
	}
	if cached != nil && *incoming < 0 {
		sum := *cached + *incoming
		return &sum
	}
	return incoming
}

// TokenAccount merges two versions of a token account.  An incoming version
// with a created timestamp is a new association and replaces the cached one.
// Otherwise it's a partial update: the immutable fields come from cached, and
// so do the statuses left unset by incoming.
func TokenAccount(cached, incoming common.TokenAccount) common.TokenAccount {
	if incoming.CreatedTimestamp != nil {
		return incoming
	}
	merged := incoming
	merged.CreatedTimestamp = cached.CreatedTimestamp
	merged.AutomaticAssociation = cached.AutomaticAssociation
	merged.Associated = pick(cached.Associated, incoming.Associated)
	merged.FreezeStatus = pick(cached.FreezeStatus, incoming.FreezeStatus)
	merged.KycStatus = pick(cached.KycStatus, incoming.KycStatus)
	return merged
}

// Nft merges two versions of an nft.  Only transfers set the account, so an
// unset account never clears a known owner.
func Nft(cached, incoming common.Nft) common.Nft {
	merged := cached
	merged.AccountID = pick(cached.AccountID, incoming.AccountID)
	merged.CreatedTimestamp = createdTimestamp(cached.CreatedTimestamp, incoming.CreatedTimestamp)
	merged.Deleted = pick(cached.Deleted, incoming.Deleted)
	merged.Metadata = pickBytes(cached.Metadata, incoming.Metadata)
	merged.ModifiedTimestamp = incoming.ModifiedTimestamp
	return merged
}

// Schedule merges two versions of a schedule, which only differ in their
// executed timestamp
func Schedule(cached, incoming common.Schedule) common.Schedule {
	merged := cached
	merged.ExecutedTimestamp = pick(cached.ExecutedTimestamp, incoming.ExecutedTimestamp)
	return merged
}
