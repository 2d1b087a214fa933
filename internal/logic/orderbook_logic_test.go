package logic

import (
	"testing"

	"github.com/elbert/cvs/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOrderBook(t *testing.T) (*OrderBookLogic, *TreasuryLogic) {
	t.Helper()

	db := setupTestDB(t)
	orderBook, err := NewOrderBookLogic(db, testLedgerConfig(), newFakeClock())
	require.NoError(t, err)
	treasury := NewTreasuryLogic(db, testOwner)
	return orderBook, treasury
}

func TestPairID(t *testing.T) {
	id1, err := PairID(testTokenA, testTokenB)
	require.NoError(t, err)
	id2, err := PairID(testTokenB, testTokenA)
	require.NoError(t, err)

	// 交易对ID与参数顺序无关
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 66)
	assert.Equal(t, "0x", id1[:2])

	id3, err := PairID(testTokenA, testTokenC)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)

	_, err = PairID(testTokenA, testTokenA)
	assert.ErrorIs(t, err, ErrSameToken)

	_, err = PairID("not-a-token", testTokenB)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestCreateTradingPair(t *testing.T) {
	orderBook, _ := setupOrderBook(t)

	pair, err := orderBook.CreateTradingPair(testAddr1, testTokenB, testTokenA, 50)
	require.NoError(t, err)

	// 代币按字节序排序存储
	assert.Equal(t, testTokenA, pair.TokenA)
	assert.Equal(t, testTokenB, pair.TokenB)
	assert.Equal(t, int64(50), pair.FeeRate)
	assert.True(t, pair.Price.Equal(decimal.New(1, 18)))
	assert.True(t, pair.ReserveA.IsZero())
	assert.True(t, pair.IsActive)

	// 两个方向都视为同一交易对
	_, err = orderBook.CreateTradingPair(testAddr1, testTokenA, testTokenB, 50)
	assert.ErrorIs(t, err, ErrPairExists)
	_, err = orderBook.CreateTradingPair(testAddr1, testTokenB, testTokenA, 50)
	assert.ErrorIs(t, err, ErrPairExists)

	// 费率上限10%
	_, err = orderBook.CreateTradingPair(testAddr1, testTokenA, testTokenC, 1500)
	assert.ErrorIs(t, err, ErrFeeTooHigh)
	_, err = orderBook.CreateTradingPair(testAddr1, testTokenA, testTokenC, 1000)
	assert.ErrorIs(t, err, ErrFeeTooHigh)

	// 费率为0时使用默认费率
	pair2, err := orderBook.CreateTradingPair(testAddr1, testTokenA, testTokenC, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(30), pair2.FeeRate)
}

func TestCreatePrivateOrder(t *testing.T) {
	orderBook, _ := setupOrderBook(t)

	// 交易对不存在
	_, err := orderBook.CreatePrivateOrder(testAddr2, testTokenA, testTokenB,
		testEncBlob, testEncBlob, testProof, testProof, model.OrderTypeBuy)
	assert.ErrorIs(t, err, ErrPairInactive)

	_, err = orderBook.CreateTradingPair(testAddr1, testTokenA, testTokenB, 30)
	require.NoError(t, err)

	order, err := orderBook.CreatePrivateOrder(testAddr2, testTokenA, testTokenB,
		testEncBlob, testEncBlob, testProof, testProof, model.OrderTypeBuy)
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.Id)
	assert.Equal(t, testAddr2, order.Trader)
	assert.Equal(t, model.OrderTypeBuy, order.Type)
	assert.True(t, order.IsActive)

	order2, err := orderBook.CreatePrivateOrder(testAddr2, testTokenB, testTokenA,
		testEncBlob, testEncBlob, testProof, testProof, model.OrderTypeSell)
	require.NoError(t, err)
	assert.Equal(t, int64(2), order2.Id)

	// 按创建顺序返回
	ids, err := orderBook.GetUserOrders(testAddr2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	ids, err = orderBook.GetUserOrders(testAddr3)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// 订单类型必须合法
	_, err = orderBook.CreatePrivateOrder(testAddr2, testTokenA, testTokenB,
		testEncBlob, testEncBlob, testProof, testProof, model.OrderType(7))
	assert.ErrorIs(t, err, ErrInvalidOrderType)

	// 停用的交易对拒绝新订单
	pairId, err := PairID(testTokenA, testTokenB)
	require.NoError(t, err)
	require.NoError(t, orderBook.TogglePairStatus(testOwner, pairId))
	_, err = orderBook.CreatePrivateOrder(testAddr2, testTokenA, testTokenB,
		testEncBlob, testEncBlob, testProof, testProof, model.OrderTypeBuy)
	assert.ErrorIs(t, err, ErrPairInactive)
}

func TestExecuteOrder(t *testing.T) {
	orderBook, _ := setupOrderBook(t)

	_, err := orderBook.CreateTradingPair(testAddr1, testTokenA, testTokenB, 30)
	require.NoError(t, err)
	order, err := orderBook.CreatePrivateOrder(testAddr2, testTokenA, testTokenB,
		testEncBlob, testEncBlob, testProof, testProof, model.OrderTypeBuy)
	require.NoError(t, err)

	require.NoError(t, orderBook.ExecuteOrder(testAddr2, order.Id))

	got, err := orderBook.GetOrder(order.Id)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// 重复执行失败
	err = orderBook.ExecuteOrder(testAddr2, order.Id)
	assert.ErrorIs(t, err, ErrOrderExecuted)

	err = orderBook.ExecuteOrder(testAddr2, 999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestExecuteOrderSettlementRollback(t *testing.T) {
	orderBook, _ := setupOrderBook(t)

	_, err := orderBook.CreateTradingPair(testAddr1, testTokenA, testTokenB, 30)
	require.NoError(t, err)
	order, err := orderBook.CreatePrivateOrder(testAddr2, testTokenA, testTokenB,
		testEncBlob, testEncBlob, testProof, testProof, model.OrderTypeBuy)
	require.NoError(t, err)

	// 结算回调失败时整个执行回滚
	orderBook.SetSettlement(func(tx *gorm.DB, o *model.Order) error {
		return ErrInsufficientFunds
	})
	err = orderBook.ExecuteOrder(testAddr2, order.Id)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	got, err := orderBook.GetOrder(order.Id)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	// 回调成功后订单正常执行
	orderBook.SetSettlement(nil)
	require.NoError(t, orderBook.ExecuteOrder(testAddr2, order.Id))
}

// setupLiquidPair 创建费率50、价格2e18的交易对并注入流动性：
// testAddr2 存入 10 TokenA 与 20 TokenB，得到 20e18 份额
func setupLiquidPair(t *testing.T, orderBook *OrderBookLogic, treasury *TreasuryLogic) string {
	t.Helper()

	pair, err := orderBook.CreateTradingPair(testAddr1, testTokenA, testTokenB, 50)
	require.NoError(t, err)
	require.NoError(t, orderBook.UpdatePairPrice(testOwner, pair.PairId, decimal.New(2, 18)))

	fundAccount(t, treasury, testAddr2, testTokenA, eth(10))
	fundAccount(t, treasury, testAddr2, testTokenB, eth(20))
	shares, err := orderBook.AddLiquidity(testAddr2, testTokenA, testTokenB,
		eth(10), eth(20), testEncBlob, testEncBlob, testProof, testProof)
	require.NoError(t, err)
	require.True(t, shares.Equal(eth(20)))
	return pair.PairId
}

func TestSwapTokens(t *testing.T) {
	orderBook, treasury := setupOrderBook(t)
	pairId := setupLiquidPair(t, orderBook, treasury)

	fundAccount(t, treasury, testAddr3, testTokenA, eth(1))

	// 1 TokenA 按价格2换2 TokenB，扣0.5%手续费
	out, err := orderBook.SwapTokens(testAddr3, testTokenA, testTokenB, eth(1), decimal.New(18, 17))
	require.NoError(t, err)

	expected, _ := decimal.NewFromString("1990000000000000000")
	assert.True(t, out.Equal(expected))
	assert.True(t, balanceOf(t, treasury, testAddr3, testTokenA).IsZero())
	assert.True(t, balanceOf(t, treasury, testAddr3, testTokenB).Equal(expected))

	pair, err := orderBook.GetTradingPair(pairId)
	require.NoError(t, err)
	assert.True(t, pair.ReserveA.Equal(eth(11)))
	assert.True(t, pair.ReserveB.Equal(eth(20).Sub(expected)))
	assert.True(t, pair.TotalVolumeA.Equal(eth(1)))

	// 反方向：1 TokenB 换 0.5 TokenA，成交量按TokenA侧累计
	out, err = orderBook.SwapTokens(testAddr3, testTokenB, testTokenA, eth(1), decimal.Zero)
	require.NoError(t, err)

	expectedBack, _ := decimal.NewFromString("497500000000000000")
	assert.True(t, out.Equal(expectedBack))

	pair, err = orderBook.GetTradingPair(pairId)
	require.NoError(t, err)
	assert.True(t, pair.TotalVolumeA.Equal(decimal.New(15, 17)))
}

func TestSwapTokensFailures(t *testing.T) {
	orderBook, treasury := setupOrderBook(t)
	setupLiquidPair(t, orderBook, treasury)

	fundAccount(t, treasury, testAddr3, testTokenA, eth(1))

	// 滑点保护
	_, err := orderBook.SwapTokens(testAddr3, testTokenA, testTokenB, eth(1), eth(3))
	assert.ErrorIs(t, err, ErrSlippageExceeded)

	// 交易对不存在
	_, err = orderBook.SwapTokens(testAddr3, testTokenA, testTokenC, eth(1), decimal.Zero)
	assert.ErrorIs(t, err, ErrPairNotFound)

	// 金额必须大于0
	_, err = orderBook.SwapTokens(testAddr3, testTokenA, testTokenB, decimal.Zero, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// 无流动性的交易对无法兑换
	_, err = orderBook.CreateTradingPair(testAddr1, testTokenA, testTokenC, 30)
	require.NoError(t, err)
	_, err = orderBook.SwapTokens(testAddr3, testTokenA, testTokenC, eth(1), decimal.Zero)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	// 余额不足
	_, err = orderBook.SwapTokens(testAddr3, testTokenA, testTokenB, eth(5), decimal.Zero)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestLiquidityLifecycle(t *testing.T) {
	orderBook, treasury := setupOrderBook(t)
	pairId := setupLiquidPair(t, orderBook, treasury)

	shares, err := orderBook.GetUserLiquidityShares(testAddr2, pairId)
	require.NoError(t, err)
	assert.True(t, shares.Equal(eth(20)))

	// 赎回一半
	half := eth(10)
	amountA, amountB, err := orderBook.RemoveLiquidity(testAddr2, testTokenA, testTokenB, half)
	require.NoError(t, err)
	assert.True(t, amountA.Equal(eth(5)))
	assert.True(t, amountB.Equal(eth(10)))

	// 赎回剩余全部，储备归零
	amountA, amountB, err = orderBook.RemoveLiquidity(testAddr2, testTokenA, testTokenB, half)
	require.NoError(t, err)
	assert.True(t, amountA.Equal(eth(5)))
	assert.True(t, amountB.Equal(eth(10)))

	pair, err := orderBook.GetTradingPair(pairId)
	require.NoError(t, err)
	assert.True(t, pair.ReserveA.IsZero())
	assert.True(t, pair.ReserveB.IsZero())
	assert.True(t, pair.TotalShares.IsZero())

	assert.True(t, balanceOf(t, treasury, testAddr2, testTokenA).Equal(eth(10)))
	assert.True(t, balanceOf(t, treasury, testAddr2, testTokenB).Equal(eth(20)))

	// 份额不足
	_, _, err = orderBook.RemoveLiquidity(testAddr2, testTokenA, testTokenB, eth(1))
	assert.ErrorIs(t, err, ErrInsufficientShares)
}

func TestUpdateDefaultFeeRate(t *testing.T) {
	orderBook, _ := setupOrderBook(t)

	err := orderBook.UpdateDefaultFeeRate(testOwner, 1500)
	assert.ErrorIs(t, err, ErrFeeTooHigh)

	err = orderBook.UpdateDefaultFeeRate(testAddr1, 100)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, orderBook.UpdateDefaultFeeRate(testOwner, 100))
	feeBps, err := orderBook.GetDefaultFeeRate()
	require.NoError(t, err)
	assert.Equal(t, int64(100), feeBps)

	// 新建交易对使用更新后的默认费率
	pair, err := orderBook.CreateTradingPair(testAddr1, testTokenA, testTokenB, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(100), pair.FeeRate)
}

func TestUpdatePairPrice(t *testing.T) {
	orderBook, _ := setupOrderBook(t)

	pair, err := orderBook.CreateTradingPair(testAddr1, testTokenA, testTokenB, 30)
	require.NoError(t, err)

	err = orderBook.UpdatePairPrice(testAddr1, pair.PairId, decimal.New(2, 18))
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = orderBook.UpdatePairPrice(testOwner, pair.PairId, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	err = orderBook.UpdatePairPrice(testOwner, "0xdeadbeef", decimal.New(2, 18))
	assert.ErrorIs(t, err, ErrPairNotFound)

	require.NoError(t, orderBook.UpdatePairPrice(testOwner, pair.PairId, decimal.New(2, 18)))
	got, err := orderBook.GetTradingPair(pair.PairId)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.New(2, 18)))
}

func TestTogglePairStatus(t *testing.T) {
	orderBook, _ := setupOrderBook(t)

	pair, err := orderBook.CreateTradingPair(testAddr1, testTokenA, testTokenB, 30)
	require.NoError(t, err)

	err = orderBook.TogglePairStatus(testAddr1, pair.PairId)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, orderBook.TogglePairStatus(testOwner, pair.PairId))
	got, err := orderBook.GetTradingPair(pair.PairId)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.NoError(t, orderBook.TogglePairStatus(testOwner, pair.PairId))
	got, err = orderBook.GetTradingPair(pair.PairId)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestTreasury(t *testing.T) {
	_, treasury := setupOrderBook(t)

	// 仅管理员可充值
	err := treasury.Deposit(testAddr1, testAddr2, NativeToken, eth(1))
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = treasury.Deposit(testOwner, testAddr2, NativeToken, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	require.NoError(t, treasury.Deposit(testOwner, testAddr2, NativeToken, eth(3)))
	require.NoError(t, treasury.Deposit(testOwner, testAddr2, NativeToken, eth(2)))
	assert.True(t, balanceOf(t, treasury, testAddr2, NativeToken).Equal(eth(5)))

	// 不同代币独立记账
	require.NoError(t, treasury.Deposit(testOwner, testAddr2, testTokenA, eth(7)))
	assert.True(t, balanceOf(t, treasury, testAddr2, testTokenA).Equal(eth(7)))
	assert.True(t, balanceOf(t, treasury, testAddr2, NativeToken).Equal(eth(5)))

	// 未知账户余额为零
	assert.True(t, balanceOf(t, treasury, testAddr3, NativeToken).IsZero())
}
