package evm

import (
	"context"

	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/step-security-bot/hedera-mirror-node/common"
)

// Executor runs one call against the state of a CallContext
type Executor interface {
	Execute(ctx context.Context, p CallParams, cc *CallContext) (*Result, error)
}

// Revert reasons of the TransferExecutor
const (
	ReasonInsufficientGas     = "INSUFFICIENT_GAS"
	ReasonInsufficientBalance = "INSUFFICIENT_PAYER_BALANCE"
	ReasonNotSupported        = "NOT_SUPPORTED"
	ReasonStaticValueTransfer = "STATIC_CALL_VALUE_TRANSFER"
)

// IntrinsicGas is the gas charged before any code runs
func IntrinsicGas(data []byte, isCreate bool) uint64 {
	gas := params.TxGas
	if isCreate {
		gas = params.TxGasContractCreation
	}
	for _, b := range data {
		if b == 0 {
			gas += params.TxDataZeroGas
		} else {
			gas += params.TxDataNonZeroGasEIP2028
		}
	}
	return gas
}

// TransferExecutor executes plain value transfers between accounts.  Calls
// to contract code and deployments are reported as not supported.
type TransferExecutor struct{}

// Execute implements Executor
func (TransferExecutor) Execute(ctx context.Context, p CallParams, cc *CallContext) (*Result, error) {
	gas := IntrinsicGas(p.Data, p.IsCreate())
	if p.Gas < gas {
		return &Result{GasUsed: p.Gas, RevertReason: ReasonInsufficientGas}, nil
	}
	if p.IsCreate() {
		return &Result{GasUsed: gas, RevertReason: ReasonNotSupported}, nil
	}
	receiver, found, err := cc.GetAccount(ctx, p.Receiver)
	if err != nil {
		return nil, common.Wrap(err)
	}
	if found && len(receiver.Code) > 0 {
		return &Result{GasUsed: gas, RevertReason: ReasonNotSupported}, nil
	}
	if p.Value == nil || p.Value.IsZero() {
		return &Result{Success: true, GasUsed: gas}, nil
	}
	if p.IsStatic {
		return &Result{GasUsed: gas, RevertReason: ReasonStaticValueTransfer}, nil
	}

	cc.Wrap()
	if err := cc.SubBalance(ctx, p.Sender, p.Value); err != nil {
		if rerr := cc.Revert(); rerr != nil {
			return nil, common.Wrap(rerr)
		}
		if common.Unwrap(err) == ErrInsufficientBalance {
			return &Result{GasUsed: gas, RevertReason: ReasonInsufficientBalance}, nil
		}
		return nil, common.Wrap(err)
	}
	if err := cc.AddBalance(ctx, p.Receiver, new(uint256.Int).Set(p.Value)); err != nil {
		_ = cc.Revert()
		return nil, common.Wrap(err)
	}
	if err := cc.Commit(); err != nil {
		return nil, common.Wrap(err)
	}
	return &Result{Success: true, GasUsed: gas}, nil
}
