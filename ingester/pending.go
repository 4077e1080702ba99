package ingester

import (
	"github.com/google/uuid"
	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/merge"
)

// upsertMap holds the latest merged version of each key, in first seen order
type upsertMap[K comparable, V any] struct {
	kind  common.RowKind
	index map[K]int
	rows  []V
}

func newUpsertMap[K comparable, V any](kind common.RowKind) *upsertMap[K, V] {
	return &upsertMap[K, V]{kind: kind, index: make(map[K]int)}
}

// merge folds incoming into the version held for key and returns the result
func (m *upsertMap[K, V]) merge(key K, incoming V) (V, error) {
	i, ok := m.index[key]
	if !ok {
		m.index[key] = len(m.rows)
		m.rows = append(m.rows, incoming)
		return incoming, nil
	}
	merged, err := merge.Apply(m.kind, m.rows[i], incoming)
	if err != nil {
		var zero V
		return zero, common.Wrap(err)
	}
	m.rows[i] = merged.(V)
	return m.rows[i], nil
}

func (m *upsertMap[K, V]) has(key K) bool {
	_, ok := m.index[key]
	return ok
}

func (m *upsertMap[K, V]) remove(key K) {
	i, ok := m.index[key]
	if !ok {
		return
	}
	delete(m.index, key)
	m.rows = append(m.rows[:i], m.rows[i+1:]...)
	for k, j := range m.index {
		if j > i {
			m.index[k] = j - 1
		}
	}
}

func (m *upsertMap[K, V]) get(key K) (V, bool) {
	i, ok := m.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return m.rows[i], true
}

func (m *upsertMap[K, V]) len() int { return len(m.rows) }

func (m *upsertMap[K, V]) clear() {
	m.index = make(map[K]int)
	m.rows = nil
}

// pending is the content of the batch being accumulated
type pending struct {
	id uuid.UUID

	assessedCustomFees    []common.AssessedCustomFee
	contractLogs          []common.ContractLog
	contractResults       []common.ContractResult
	contractStateChanges  []common.ContractStateChange
	cryptoTransfers       []common.CryptoTransfer
	customFees            []common.CustomFee
	fileData              []common.FileData
	liveHashes            []common.LiveHash
	topicMessages         []common.TopicMessage
	transactions          []common.Transaction
	transactionSignatures []common.TransactionSignature

	nonFeeTransfers          []common.NonFeeTransfer
	nftTransfers             []common.NftTransfer
	tokenTransfers           []common.TokenTransfer
	tokenDissociateTransfers []common.TokenTransfer

	contracts *upsertMap[common.EntityID, common.Contract]
	entities  *upsertMap[common.EntityID, common.Entity]
	tokens    *upsertMap[common.EntityID, common.Token]
	// tokenAccountState holds the latest version of each token account,
	// tokenAccounts every merged version in arrival order
	tokenAccountState *upsertMap[common.TokenAccountKey, common.TokenAccount]
	tokenAccounts     []common.TokenAccount
	nfts              *upsertMap[common.NftID, common.Nft]
	schedules         *upsertMap[common.EntityID, common.Schedule]
}

func newPending() *pending {
	return &pending{
		id:                uuid.New(),
		contracts:         newUpsertMap[common.EntityID, common.Contract](common.KindContract),
		entities:          newUpsertMap[common.EntityID, common.Entity](common.KindEntity),
		tokens:            newUpsertMap[common.EntityID, common.Token](common.KindToken),
		tokenAccountState: newUpsertMap[common.TokenAccountKey, common.TokenAccount](common.KindTokenAccount),
		nfts:              newUpsertMap[common.NftID, common.Nft](common.KindNft),
		schedules:         newUpsertMap[common.EntityID, common.Schedule](common.KindSchedule),
	}
}

// clear drops every pending row and gives the next batch a new id
func (p *pending) clear() {
	*p = *newPending()
}

type rowSet struct {
	kind common.RowKind
	rows interface{}
	len  int
}

// insertOnly returns the insert-only collections written before upserts
func (p *pending) insertOnly() []rowSet {
	return []rowSet{
		{common.KindAssessedCustomFee, p.assessedCustomFees, len(p.assessedCustomFees)},
		{common.KindContractLog, p.contractLogs, len(p.contractLogs)},
		{common.KindContractResult, p.contractResults, len(p.contractResults)},
		{common.KindContractStateChange, p.contractStateChanges, len(p.contractStateChanges)},
		{common.KindCryptoTransfer, p.cryptoTransfers, len(p.cryptoTransfers)},
		{common.KindCustomFee, p.customFees, len(p.customFees)},
		{common.KindFileData, p.fileData, len(p.fileData)},
		{common.KindLiveHash, p.liveHashes, len(p.liveHashes)},
		{common.KindTopicMessage, p.topicMessages, len(p.topicMessages)},
		{common.KindTransaction, p.transactions, len(p.transactions)},
		{common.KindTransactionSignature, p.transactionSignatures, len(p.transactionSignatures)},
	}
}

// upserts returns the upsertable collections in dependency order: token
// accounts project columns of their token, nfts need their token
func (p *pending) upserts() []rowSet {
	return []rowSet{
		{common.KindContract, p.contracts.rows, p.contracts.len()},
		{common.KindEntity, p.entities.rows, p.entities.len()},
		{common.KindToken, p.tokens.rows, p.tokens.len()},
		{common.KindTokenAccount, p.tokenAccounts, len(p.tokenAccounts)},
		{common.KindNft, p.nfts.rows, p.nfts.len()},
		{common.KindSchedule, p.schedules.rows, p.schedules.len()},
	}
}

// transfers returns the transfer collections, written last because they
// reference the entities written before them
func (p *pending) transfers() []rowSet {
	return []rowSet{
		{common.KindNonFeeTransfer, p.nonFeeTransfers, len(p.nonFeeTransfers)},
		{common.KindNftTransfer, p.nftTransfers, len(p.nftTransfers)},
		{common.KindTokenTransfer, p.tokenTransfers, len(p.tokenTransfers)},
	}
}

func (p *pending) size() int {
	n := len(p.tokenDissociateTransfers)
	for _, sets := range [][]rowSet{p.insertOnly(), p.upserts(), p.transfers()} {
		for _, s := range sets {
			n += s.len
		}
	}
	return n
}

func (p *pending) empty() bool {
	return p.size() == 0
}
