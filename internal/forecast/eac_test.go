package forecast

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeEACBoughtOutBurnsTowardCommitted(t *testing.T) {
	r := ComputeEAC(1, money("10000"), money("9000"), money("500"), money("4000"), true)

	require.True(t, r.TotalCommittedAmount.Equal(money("9500")))
	// etc = 9500 - 4000
	require.True(t, r.ETCAmount.Equal(money("5500")), "got %s", r.ETCAmount)
	require.True(t, r.EACAmount.Equal(money("9500")))
	require.NotNil(t, r.BuyoutSavings)
	// committed under budget by 500
	require.True(t, r.BuyoutSavings.Equal(money("-500")))
}

func TestComputeEACNotBoughtOutBurnsTowardBudget(t *testing.T) {
	r := ComputeEAC(1, money("10000"), money("9000"), money("0"), money("4000"), false)

	require.True(t, r.ETCAmount.Equal(money("6000")))
	require.True(t, r.EACAmount.Equal(money("10000")))
	require.Nil(t, r.BuyoutSavings)
}

func TestComputeEACBoughtOutWithoutCommitmentFallsBackToBudget(t *testing.T) {
	r := ComputeEAC(1, money("10000"), money("0"), money("0"), money("2500"), true)

	// no committed amount: etc burns toward budget even though bought out
	require.True(t, r.ETCAmount.Equal(money("7500")))
	require.True(t, r.EACAmount.Equal(money("10000")))
	require.NotNil(t, r.BuyoutSavings)
	require.True(t, r.BuyoutSavings.Equal(money("-10000")))
}

func TestComputeEACZeroActuals(t *testing.T) {
	r := ComputeEAC(1, money("10000"), money("0"), money("0"), money("0"), false)

	require.True(t, r.ETCAmount.Equal(money("10000")))
	require.True(t, r.EACAmount.Equal(money("10000")))
}
