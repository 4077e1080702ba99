package evm

import (
	"context"

	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/log"
	"github.com/step-security-bot/hedera-mirror-node/metric"
)

// EstimateConfig bounds the gas search
type EstimateConfig struct {
	// Threshold stops the search once two consecutive gas limits are
	// closer than it
	Threshold uint64
	// MaxIterations caps the number of executions of one search
	MaxIterations int
}

// BinaryGasEstimator searches the lowest gas limit a call succeeds with
type BinaryGasEstimator struct {
	cfg EstimateConfig
}

// NewBinaryGasEstimator creates a BinaryGasEstimator
func NewBinaryGasEstimator(cfg EstimateConfig) *BinaryGasEstimator {
	return &BinaryGasEstimator{cfg: cfg}
}

// Search returns a gas limit in [lo, hi] the call succeeds with, knowing it
// succeeds with hi.  reset runs before every execution so that each one
// starts from the state of the base frame.
func (e *BinaryGasEstimator) Search(ctx context.Context, lo, hi uint64, reset func(),
	try func(ctx context.Context, gas uint64) (bool, error)) (uint64, error) {
	if lo > hi {
		lo = hi
	}
	prev := lo
	iterations := 0
	defer func() {
		metric.GasSearchIterations.Observe(float64(iterations))
	}()
	for lo+1 < hi && iterations < e.cfg.MaxIterations {
		select {
		case <-ctx.Done():
			return 0, common.Wrap(common.ErrDone)
		default:
		}
		mid := lo + (hi-lo)/2
		if absDiff(prev, mid) < e.cfg.Threshold {
			break
		}
		reset()
		ok, err := try(ctx, mid)
		if err != nil {
			return 0, common.Wrap(err)
		}
		if ok {
			hi = mid
		} else {
			lo = mid
		}
		prev = mid
		iterations++
	}
	log.Debugw("Gas search done", "gas", hi, "iterations", iterations)
	return hi, nil
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
