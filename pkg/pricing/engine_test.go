package pricing

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reserves(in, out int64) Reserves {
	return Reserves{ReserveIn: math.NewInt(in), ReserveOut: math.NewInt(out)}
}

func TestQuoteConstantProduct(t *testing.T) {
	// 1 unit into a 100/15650 pool, scaled to 9-decimal smallest units.
	res := reserves(100_000_000_000, 15_650_000_000_000)
	out, err := Quote(res, math.NewInt(1_000_000_000))
	require.NoError(t, err)
	// 1e9 * 15650e9 / 101e9 = 154_950_495_049.5..., truncated.
	assert.Equal(t, int64(154_950_495_049), out.Int64())
}

func TestQuoteTruncatesTowardZero(t *testing.T) {
	out, err := Quote(reserves(100, 15650), math.NewInt(1))
	require.NoError(t, err)
	// 15650/101 = 154.95..., integer division floors.
	assert.Equal(t, int64(154), out.Int64())
}

func TestQuoteMonotonicInInput(t *testing.T) {
	res := reserves(1_000_000_000, 5_000_000_000)
	prev := math.ZeroInt()
	for _, in := range []int64{1_000, 10_000, 100_000, 1_000_000, 10_000_000} {
		out, err := Quote(res, math.NewInt(in))
		require.NoError(t, err)
		assert.True(t, out.GTE(prev), "output must not decrease as input grows")
		prev = out
	}
}

func TestQuoteDecreasesAsInputReserveGrows(t *testing.T) {
	// A deeper input reserve means less price impact per unit, so the same
	// input buys strictly less of the output side.
	input := math.NewInt(1_000_000_000)
	reserveOut := int64(15_650_000_000_000)
	prev := math.Int{}
	for _, reserveIn := range []int64{
		50_000_000_000, 100_000_000_000, 200_000_000_000, 400_000_000_000,
	} {
		out, err := Quote(reserves(reserveIn, reserveOut), input)
		require.NoError(t, err)
		if !prev.IsNil() {
			assert.True(t, out.LT(prev), "output must strictly decrease as reserve_in grows")
		}
		prev = out
	}
}

func TestQuoteOutputBelowReserve(t *testing.T) {
	res := reserves(1_000, 5_000)
	// Even an enormous input can never drain more than the output reserve.
	out, err := Quote(res, math.NewInt(1_000_000_000_000))
	require.NoError(t, err)
	assert.True(t, out.LT(res.ReserveOut))
}

func TestQuoteRejectsInvalidInput(t *testing.T) {
	res := reserves(1_000, 5_000)

	_, err := Quote(res, math.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Quote(res, math.NewInt(-5))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Quote(res, math.Int{})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestQuoteRejectsEmptyReserves(t *testing.T) {
	_, err := Quote(reserves(0, 5_000), math.NewInt(100))
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = Quote(reserves(1_000, 0), math.NewInt(100))
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestComputePlanSharesSumExactly(t *testing.T) {
	res := reserves(100_000_000_000, 15_650_000_000_000)
	plan, err := ComputePlan(res, math.NewInt(1_000_000_000), 100, DefaultRates)
	require.NoError(t, err)

	sum := plan.UserShare.Add(plan.LiquidityShare).Add(plan.CashbackShare)
	assert.True(t, sum.Equal(plan.ExpectedOutput),
		"shares %s+%s+%s must equal expected output %s",
		plan.UserShare, plan.LiquidityShare, plan.CashbackShare, plan.ExpectedOutput)
	assert.True(t, plan.MinOutput.LTE(plan.ExpectedOutput))
}

func TestComputePlanDistribution(t *testing.T) {
	res := reserves(100_000_000_000, 15_650_000_000_000)
	plan, err := ComputePlan(res, math.NewInt(1_000_000_000), 100, DefaultRates)
	require.NoError(t, err)

	out := int64(154_950_495_049)
	assert.Equal(t, out, plan.ExpectedOutput.Int64())
	assert.Equal(t, out/5, plan.LiquidityShare.Int64())  // 20%
	assert.Equal(t, out/20, plan.CashbackShare.Int64())  // 5%
	assert.Equal(t, out-out/5-out/20, plan.UserShare.Int64())
	// 1% slippage floor.
	assert.Equal(t, out*99/100, plan.MinOutput.Int64())
}

func TestComputePlanZeroSlippage(t *testing.T) {
	res := reserves(1_000_000, 2_000_000)
	plan, err := ComputePlan(res, math.NewInt(5_000), 0, DefaultRates)
	require.NoError(t, err)
	assert.True(t, plan.MinOutput.Equal(plan.ExpectedOutput))
}

func TestComputePlanRejectsBadParameters(t *testing.T) {
	res := reserves(1_000_000, 2_000_000)

	_, err := ComputePlan(res, math.NewInt(5_000), BpsDenominator, DefaultRates)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ComputePlan(res, math.NewInt(5_000), 0,
		Rates{UserBps: 9000, LiquidityBps: 2000, CashbackBps: 500})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestComputePlanRemainderGoesToUser(t *testing.T) {
	// An output indivisible by the rate denominators forces truncation in the
	// liquidity and cashback shares.
	res := reserves(999_983, 777_721)
	plan, err := ComputePlan(res, math.NewInt(13_337), 50, DefaultRates)
	require.NoError(t, err)

	sum := plan.UserShare.Add(plan.LiquidityShare).Add(plan.CashbackShare)
	assert.True(t, sum.Equal(plan.ExpectedOutput))
	// User always receives at least the nominal 75%.
	nominal := plan.ExpectedOutput.MulRaw(7500).QuoRaw(10000)
	assert.True(t, plan.UserShare.GTE(nominal))
}
