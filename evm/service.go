package evm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/database"
	"github.com/step-security-bot/hedera-mirror-node/log"
	"github.com/step-security-bot/hedera-mirror-node/metric"
	"github.com/step-security-bot/hedera-mirror-node/state"
)

// ErrGasLimit is returned when a call asks for more gas than allowed
var ErrGasLimit = errors.New("gas limit out of range")

// RevertError is returned when the estimated call fails with all the gas
// it was given
type RevertError struct {
	Reason  string
	GasUsed uint64
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("execution reverted: %s", e.Reason)
}

// Cache modes of the base frame
const (
	CacheModeExclusive = "exclusive"
	CacheModeShared    = "shared"
)

// CacheConfig selects the base frame of the calls
type CacheConfig struct {
	// Mode is exclusive for a base frame per request, or shared for a
	// single TTL bounded base frame
	Mode string
	TTL  time.Duration
	Size int
}

// Config of the CallService
type Config struct {
	MinGas   uint64
	MaxGas   uint64
	Estimate EstimateConfig
	Cache    CacheConfig
}

// CallService executes eth_call and eth_estimateGas requests
type CallService struct {
	cfg       Config
	executor  Executor
	store     state.Store
	shared    *state.BaseFrame
	estimator *BinaryGasEstimator
	limiter   *database.ConnectionController
}

// NewCallService creates a CallService.  limiter bounds the number of
// requests executing at once and may be nil.
func NewCallService(cfg Config, executor Executor, store state.Store,
	limiter *database.ConnectionController) *CallService {
	s := &CallService{
		cfg:       cfg,
		executor:  executor,
		store:     store,
		estimator: NewBinaryGasEstimator(cfg.Estimate),
		limiter:   limiter,
	}
	if cfg.Cache.Mode == CacheModeShared {
		s.shared = state.NewSharedBaseFrame(store, cfg.Cache.Size, cfg.Cache.TTL)
	}
	return s
}

// SharedCacheLen returns the number of entries of the shared base frame, 0
// when every call has its own
func (s *CallService) SharedCacheLen() int {
	if s.shared == nil {
		return 0
	}
	return s.shared.Len()
}

func (s *CallService) newCallContext() *CallContext {
	if s.shared != nil {
		return NewCallContext(s.shared)
	}
	return NewCallContext(state.NewBaseFrame(s.store))
}

func (s *CallService) acquire(ctx context.Context) (func(), error) {
	if s.limiter == nil {
		return func() {}, nil
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, common.Wrap(err)
	}
	return s.limiter.Release, nil
}

func (s *CallService) gas(p *CallParams) error {
	if p.Gas == 0 {
		p.Gas = s.cfg.MaxGas
	}
	if p.Gas < s.cfg.MinGas || p.Gas > s.cfg.MaxGas {
		return common.Wrap(fmt.Errorf("%w: %d not in [%d, %d]", ErrGasLimit, p.Gas, s.cfg.MinGas, s.cfg.MaxGas))
	}
	return nil
}

func (s *CallService) execute(ctx context.Context, p CallParams, cc *CallContext) (*Result, error) {
	cc.IsCreate = p.IsCreate()
	res, err := s.executor.Execute(ctx, p, cc)
	if err != nil {
		return nil, common.Wrap(err)
	}
	if res.Success {
		cc.CommitAliases()
	}
	return res, nil
}

func outcome(res *Result, err error) string {
	switch {
	case err != nil:
		return "error"
	case res.Success:
		return "success"
	default:
		return "revert"
	}
}

// Call executes p once
func (s *CallService) Call(ctx context.Context, p CallParams) (res *Result, err error) {
	p.CallType = CallTypeCall
	defer func() {
		metric.Calls.WithLabelValues(string(p.CallType), outcome(res, err)).Inc()
	}()
	if err := s.gas(&p); err != nil {
		return nil, common.Wrap(err)
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, common.Wrap(err)
	}
	defer release()
	return s.execute(ctx, p, s.newCallContext())
}

// EstimateGas returns the lowest gas limit p succeeds with, up to the
// precision given by the estimate threshold.  p is first executed with its
// own gas limit, then the search runs between the gas it used and that
// limit.  Every execution starts from the same base frame.
func (s *CallService) EstimateGas(ctx context.Context, p CallParams) (gas uint64, err error) {
	p.CallType = CallTypeEstimate
	defer func() {
		o := "success"
		if err != nil {
			o = "error"
		}
		metric.Calls.WithLabelValues(string(p.CallType), o).Inc()
	}()
	if err := s.gas(&p); err != nil {
		return 0, common.Wrap(err)
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return 0, common.Wrap(err)
	}
	defer release()

	cc := s.newCallContext()
	first, err := s.execute(ctx, p, cc)
	if err != nil {
		return 0, common.Wrap(err)
	}
	if !first.Success {
		return 0, common.Wrap(&RevertError{Reason: first.RevertReason, GasUsed: first.GasUsed})
	}
	// lo is the highest limit assumed to fail
	lo := s.cfg.MinGas - 1
	if first.GasUsed > s.cfg.MinGas {
		lo = first.GasUsed - 1
	}
	estimate, err := s.estimator.Search(ctx, lo, p.Gas, cc.ResetState, func(ctx context.Context, gas uint64) (bool, error) {
		try := p
		try.Gas = gas
		res, err := s.execute(ctx, try, cc)
		if err != nil {
			return false, common.Wrap(err)
		}
		return res.Success, nil
	})
	if err != nil {
		return 0, common.Wrap(err)
	}
	log.Debugw("Estimated gas", "sender", p.Sender, "receiver", p.Receiver, "gas", estimate,
		"firstGasUsed", first.GasUsed)
	return estimate, nil
}
