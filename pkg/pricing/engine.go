package pricing

import (
	"errors"
	"fmt"

	"cosmossdk.io/math"
	"lukechampine.com/uint128"
)

// BpsDenominator converts basis points to fractions; 10000 bps = 100%.
const BpsDenominator = 10000

var (
	// ErrInsufficientLiquidity is returned when either pool reserve is empty.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity: pool reserve is zero")

	// ErrInvalidAmount is returned for non-positive swap inputs.
	ErrInvalidAmount = errors.New("invalid amount: input must be positive")
)

// Reserves is a read-only snapshot of the pool taken at request time.
// Reserves change every block, so a snapshot is never reused across requests.
type Reserves struct {
	ReserveIn  math.Int
	ReserveOut math.Int
}

// Rates is the distribution split in basis points. The three rates must sum
// to at most 10000; any integer-truncation remainder goes to the user share.
type Rates struct {
	UserBps      uint64
	LiquidityBps uint64
	CashbackBps  uint64
}

// DefaultRates is the program's initialize-time 75/20/5 split.
var DefaultRates = Rates{UserBps: 7500, LiquidityBps: 2000, CashbackBps: 500}

// Plan is the computed economics of one swap. Invariant:
// UserShare + LiquidityShare + CashbackShare == ExpectedOutput exactly, and
// MinOutput <= ExpectedOutput.
type Plan struct {
	ExpectedOutput math.Int
	UserShare      math.Int
	LiquidityShare math.Int
	CashbackShare  math.Int
	MinOutput      math.Int
}

// Quote computes the constant-product output for an input amount:
//
//	expected = input * reserve_out / (reserve_in + input)
//
// All arithmetic is integer with 128-bit intermediates, matching the
// program's own u128 math; a float here would round differently than the
// chain and produce spurious slippage failures.
func Quote(res Reserves, input math.Int) (math.Int, error) {
	if input.IsNil() || !input.IsPositive() {
		return math.Int{}, ErrInvalidAmount
	}
	if res.ReserveIn.IsNil() || res.ReserveOut.IsNil() || !res.ReserveIn.IsPositive() || !res.ReserveOut.IsPositive() {
		return math.Int{}, ErrInsufficientLiquidity
	}
	if !input.IsUint64() || !res.ReserveIn.IsUint64() || !res.ReserveOut.IsUint64() {
		return math.Int{}, fmt.Errorf("%w: amount exceeds u64 range", ErrInvalidAmount)
	}

	in := input.Uint64()
	numerator := uint128.From64(in).Mul64(res.ReserveOut.Uint64())
	denominator := uint128.From64(res.ReserveIn.Uint64()).Add64(in)
	out := numerator.Div(denominator)
	// out < reserve_out < 2^64, so the high word is always zero.
	return math.NewIntFromUint64(out.Lo), nil
}

// ComputePlan turns a quote into the full distribution plan.
func ComputePlan(res Reserves, input math.Int, slippageBps uint64, rates Rates) (Plan, error) {
	if slippageBps >= BpsDenominator {
		return Plan{}, fmt.Errorf("%w: slippage %d bps out of range [0,%d)", ErrInvalidAmount, slippageBps, BpsDenominator)
	}
	if rates.UserBps+rates.LiquidityBps+rates.CashbackBps > BpsDenominator {
		return Plan{}, fmt.Errorf("%w: distribution rates exceed %d bps", ErrInvalidAmount, BpsDenominator)
	}

	expected, err := Quote(res, input)
	if err != nil {
		return Plan{}, err
	}

	out := expected.Uint64()
	liquidity := mulDivBps(out, rates.LiquidityBps)
	cashback := mulDivBps(out, rates.CashbackBps)
	// Remainder from truncation is assigned to the user so the three shares
	// always sum to the expected output exactly.
	user := out - liquidity - cashback

	minOut := mulDivBps(out, BpsDenominator-slippageBps)

	return Plan{
		ExpectedOutput: expected,
		UserShare:      math.NewIntFromUint64(user),
		LiquidityShare: math.NewIntFromUint64(liquidity),
		CashbackShare:  math.NewIntFromUint64(cashback),
		MinOutput:      math.NewIntFromUint64(minOut),
	}, nil
}

// mulDivBps returns floor(amount * bps / 10000) with a 128-bit intermediate.
func mulDivBps(amount, bps uint64) uint64 {
	return uint128.From64(amount).Mul64(bps).Div64(BpsDenominator).Lo
}
