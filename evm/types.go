package evm

import (
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/step-security-bot/hedera-mirror-node/common"
)

// Account is the EVM view of an account or contract.  Balance is in
// tinybars.
type Account struct {
	Address    ethCommon.Address
	EntityID   common.EntityID
	Balance    uint256.Int
	Nonce      uint64
	Code       []byte
	IsContract bool
}

// Token is the EVM view of a token
type Token struct {
	Address       ethCommon.Address
	EntityID      common.EntityID
	Name          string
	Symbol        string
	Decimals      int32
	TotalSupply   int64
	Type          common.TokenType
	Treasury      ethCommon.Address
	FreezeDefault bool
	HasFreezeKey  bool
	HasKycKey     bool
}

// TokenRelationship is the association of an account with a token
type TokenRelationship struct {
	Account    ethCommon.Address
	Token      ethCommon.Address
	Associated bool
	Frozen     bool
	KycGranted bool
	Balance    int64
}

// UniqueToken is one nft serial
type UniqueToken struct {
	Token        ethCommon.Address
	SerialNumber int64
	Owner        ethCommon.Address
	Metadata     []byte
}

// CallType distinguishes the entry points of the service
type CallType string

// Call types
const (
	CallTypeCall     CallType = "eth_call"
	CallTypeEstimate CallType = "eth_estimateGas"
)

// CallParams are the parameters of one execution
type CallParams struct {
	Sender   ethCommon.Address
	Receiver ethCommon.Address
	Gas      uint64
	Value    *uint256.Int
	Data     []byte
	IsStatic bool
	CallType CallType
}

// IsCreate returns true when the call deploys a contract
func (p *CallParams) IsCreate() bool {
	return p.Receiver == (ethCommon.Address{})
}

// Result of one execution
type Result struct {
	Success      bool
	GasUsed      uint64
	Output       []byte
	RevertReason string
}
