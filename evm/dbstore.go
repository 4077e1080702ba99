package evm

import (
	"context"
	"fmt"
	"math/big"

	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/database/mirrordb"
	"github.com/step-security-bot/hedera-mirror-node/state"
)

// Repository reads the ledger state materialized by the importer
type Repository interface {
	GetEntity(ctx context.Context, id common.EntityID) (*common.Entity, error)
	GetEntityByEvmAddress(ctx context.Context, address []byte) (*common.Entity, error)
	GetContract(ctx context.Context, id common.EntityID) (*common.Contract, error)
	GetContractByEvmAddress(ctx context.Context, address []byte) (*common.Contract, error)
	GetToken(ctx context.Context, id common.EntityID) (*common.Token, error)
	GetTokenAccount(ctx context.Context, accountID, tokenID common.EntityID) (*common.TokenAccount, error)
	GetTokenBalance(ctx context.Context, accountID, tokenID common.EntityID) (int64, error)
	GetNft(ctx context.Context, tokenID common.EntityID, serial int64) (*common.Nft, error)
	GetStorage(ctx context.Context, contractID common.EntityID, slot []byte) ([]byte, error)
}

// DatabaseStore is the state.Store of the web3 service, converting mirror
// node rows into their EVM view
type DatabaseStore struct {
	repo Repository
}

// NewDatabaseStore creates a DatabaseStore over repo
func NewDatabaseStore(repo Repository) *DatabaseStore {
	return &DatabaseStore{repo: repo}
}

func notFound(err error) error {
	if mirrordb.IsNotFound(err) {
		return common.Wrap(state.ErrNotFound)
	}
	return common.Wrap(err)
}

func isDeleted(deleted *bool) bool {
	return deleted != nil && *deleted
}

// Load implements state.Store
func (s *DatabaseStore) Load(ctx context.Context, kind state.Kind, key state.Key) (interface{}, error) {
	switch kind {
	case state.KindAccount:
		return s.loadAccount(ctx, key.Address)
	case state.KindToken:
		return s.loadToken(ctx, key.Address)
	case state.KindTokenAccount:
		return s.loadRelationship(ctx, key.Address, ethCommon.BytesToAddress(key.Slot.Bytes()))
	case state.KindNft:
		return s.loadUniqueToken(ctx, key.Address, new(big.Int).SetBytes(key.Slot.Bytes()).Int64())
	case state.KindStorage:
		return s.loadStorage(ctx, key.Address, key.Slot)
	default:
		return nil, common.Wrap(fmt.Errorf("unknown state kind %s", kind))
	}
}

// entityID resolves an address, either the long zero form of an entity id
// or an evm address
func (s *DatabaseStore) entityID(ctx context.Context, address ethCommon.Address) (common.EntityID, error) {
	if id, ok := common.EntityIDFromAddress(address); ok {
		return id, nil
	}
	entity, err := s.repo.GetEntityByEvmAddress(ctx, address.Bytes())
	if err != nil {
		return common.EmptyEntityID, notFound(err)
	}
	return entity.ID, nil
}

func (s *DatabaseStore) loadAccount(ctx context.Context, address ethCommon.Address) (interface{}, error) {
	var entity *common.Entity
	var err error
	if id, ok := common.EntityIDFromAddress(address); ok {
		entity, err = s.repo.GetEntity(ctx, id)
	} else {
		entity, err = s.repo.GetEntityByEvmAddress(ctx, address.Bytes())
	}
	if err != nil {
		if !mirrordb.IsNotFound(err) {
			return nil, common.Wrap(err)
		}
		return s.loadContractAccount(ctx, address)
	}
	if isDeleted(entity.Deleted) {
		return nil, common.Wrap(state.ErrNotFound)
	}
	account := Account{Address: address, EntityID: entity.ID}
	if entity.Balance != nil && *entity.Balance > 0 {
		account.Balance.SetUint64(uint64(*entity.Balance))
	}
	if entity.EthereumNonce != nil && *entity.EthereumNonce > 0 {
		account.Nonce = uint64(*entity.EthereumNonce)
	}
	if entity.Type == common.EntityTypeContract {
		contract, err := s.repo.GetContract(ctx, entity.ID)
		if err != nil && !mirrordb.IsNotFound(err) {
			return nil, common.Wrap(err)
		}
		account.IsContract = true
		if contract != nil {
			account.Code = contract.RuntimeBytecode
		}
	}
	return account, nil
}

// loadContractAccount loads an account only known from the contract table
func (s *DatabaseStore) loadContractAccount(ctx context.Context, address ethCommon.Address) (interface{}, error) {
	var contract *common.Contract
	var err error
	if id, ok := common.EntityIDFromAddress(address); ok {
		contract, err = s.repo.GetContract(ctx, id)
	} else {
		contract, err = s.repo.GetContractByEvmAddress(ctx, address.Bytes())
	}
	if err != nil {
		return nil, notFound(err)
	}
	if isDeleted(contract.Deleted) {
		return nil, common.Wrap(state.ErrNotFound)
	}
	return Account{
		Address:    address,
		EntityID:   contract.ID,
		Code:       contract.RuntimeBytecode,
		IsContract: true,
	}, nil
}

func (s *DatabaseStore) loadToken(ctx context.Context, address ethCommon.Address) (interface{}, error) {
	id, ok := common.EntityIDFromAddress(address)
	if !ok {
		return nil, common.Wrap(state.ErrNotFound)
	}
	t, err := s.repo.GetToken(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	token := Token{
		Address:      address,
		EntityID:     t.TokenID,
		HasFreezeKey: len(t.FreezeKey) > 0,
		HasKycKey:    len(t.KycKey) > 0,
	}
	if t.Name != nil {
		token.Name = *t.Name
	}
	if t.Symbol != nil {
		token.Symbol = *t.Symbol
	}
	if t.Decimals != nil {
		token.Decimals = *t.Decimals
	}
	if t.TotalSupply != nil {
		token.TotalSupply = *t.TotalSupply
	}
	if t.Type != nil {
		token.Type = *t.Type
	}
	if t.TreasuryAccountID != nil {
		token.Treasury = t.TreasuryAccountID.Address()
	}
	if t.FreezeDefault != nil {
		token.FreezeDefault = *t.FreezeDefault
	}
	return token, nil
}

func (s *DatabaseStore) loadRelationship(ctx context.Context, account, token ethCommon.Address) (interface{}, error) {
	accountID, err := s.entityID(ctx, account)
	if err != nil {
		return nil, common.Wrap(err)
	}
	tokenID, ok := common.EntityIDFromAddress(token)
	if !ok {
		return nil, common.Wrap(state.ErrNotFound)
	}
	ta, err := s.repo.GetTokenAccount(ctx, accountID, tokenID)
	if err != nil {
		return nil, notFound(err)
	}
	if ta.Associated == nil || !*ta.Associated {
		return nil, common.Wrap(state.ErrNotFound)
	}
	balance, err := s.repo.GetTokenBalance(ctx, accountID, tokenID)
	if err != nil {
		return nil, common.Wrap(err)
	}
	return TokenRelationship{
		Account:    account,
		Token:      token,
		Associated: true,
		Frozen:     ta.FreezeStatus != nil && *ta.FreezeStatus == common.TokenFreezeStatusFrozen,
		KycGranted: ta.KycStatus != nil && *ta.KycStatus == common.TokenKycStatusGranted,
		Balance:    balance,
	}, nil
}

func (s *DatabaseStore) loadUniqueToken(ctx context.Context, token ethCommon.Address, serial int64) (interface{}, error) {
	tokenID, ok := common.EntityIDFromAddress(token)
	if !ok {
		return nil, common.Wrap(state.ErrNotFound)
	}
	nft, err := s.repo.GetNft(ctx, tokenID, serial)
	if err != nil {
		return nil, notFound(err)
	}
	if isDeleted(nft.Deleted) {
		return nil, common.Wrap(state.ErrNotFound)
	}
	unique := UniqueToken{Token: token, SerialNumber: serial, Metadata: nft.Metadata}
	if nft.AccountID != nil {
		unique.Owner = nft.AccountID.Address()
	}
	return unique, nil
}

func (s *DatabaseStore) loadStorage(ctx context.Context, address ethCommon.Address, slot ethCommon.Hash) (interface{}, error) {
	contractID, ok := common.EntityIDFromAddress(address)
	if !ok {
		contract, err := s.repo.GetContractByEvmAddress(ctx, address.Bytes())
		if err != nil {
			return nil, notFound(err)
		}
		contractID = contract.ID
	}
	value, err := s.repo.GetStorage(ctx, contractID, slot.Bytes())
	if err != nil {
		return nil, notFound(err)
	}
	return ethCommon.BytesToHash(value), nil
}

var _ state.Store = (*DatabaseStore)(nil)
