package logic

import (
	"errors"
	"fmt"
	"sync"

	"github.com/elbert/cvs/internal/config"
	"github.com/elbert/cvs/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SettlementFunc 订单执行时的可插拔结算回调，在订单事务内调用，
// 返回错误会使整个执行回滚
type SettlementFunc func(tx *gorm.DB, order *model.Order) error

// OrderBookLogic 隐私订单簿业务逻辑。与众筹账本一样，写操作
// 持有互斥锁并在单个事务内完成。
type OrderBookLogic struct {
	db     *gorm.DB
	clock  Clock
	admin  string
	settle SettlementFunc
	mu     sync.Mutex
}

// NewOrderBookLogic 创建订单簿业务逻辑
func NewOrderBookLogic(db *gorm.DB, cfg config.LedgerConfig, clock Clock) (*OrderBookLogic, error) {
	if clock == nil {
		clock = NewRealClock()
	}

	feeBps := cfg.DexFeeBps
	if feeBps == 0 {
		feeBps = 30
	}

	if err := seedCounter(db, model.CounterOrderId, 0); err != nil {
		return nil, fmt.Errorf("failed to seed order counter: %w", err)
	}
	if err := seedCounter(db, model.SettingDexFeeBps, feeBps); err != nil {
		return nil, fmt.Errorf("failed to seed default fee rate: %w", err)
	}

	return &OrderBookLogic{
		db:    db,
		clock: clock,
		admin: normalizeAddress(cfg.AdminAddress),
	}, nil
}

// SetSettlement 设置订单结算回调
func (o *OrderBookLogic) SetSettlement(fn SettlementFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.settle = fn
}

// CreateTradingPair 创建交易对。feeRateBps 为 0 时使用默认费率。
func (o *OrderBookLogic) CreateTradingPair(caller, tokenA, tokenB string, feeRateBps int64) (*model.TradingPair, error) {
	if !validAddress(caller) {
		return nil, ErrInvalidAddress
	}
	if feeRateBps < 0 || feeRateBps >= 1000 {
		return nil, ErrFeeTooHigh
	}

	pairId, err := PairID(tokenA, tokenB)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	tx := o.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var existing model.TradingPair
	err = tx.Where("pair_id = ?", pairId).First(&existing).Error
	if err == nil {
		tx.Rollback()
		return nil, ErrPairExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, err
	}

	if feeRateBps == 0 {
		feeRateBps, err = getSetting(tx, model.SettingDexFeeBps)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	sortedA, sortedB := sortTokens(tokenA, tokenB)
	pair := model.TradingPair{
		PairId:       pairId,
		TokenA:       sortedA,
		TokenB:       sortedB,
		FeeRate:      feeRateBps,
		Price:        priceScale, // 默认 1:1
		TotalVolumeA: decimal.Zero,
		ReserveA:     decimal.Zero,
		ReserveB:     decimal.Zero,
		TotalShares:  decimal.Zero,
		IsActive:     true,
	}
	if err := tx.Create(&pair).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	err = appendEvent(tx, model.EventTradingPairCreated, map[string]interface{}{
		"pair_id":  pairId,
		"token_a":  sortedA,
		"token_b":  sortedB,
		"fee_rate": feeRateBps,
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &pair, nil
}

// CreatePrivateOrder 创建隐私订单，密文与证明原样存储，
// 事件中不出现任何明文金额
func (o *OrderBookLogic) CreatePrivateOrder(caller, tokenIn, tokenOut string,
	encryptedAmountIn, encryptedAmountOut, proofIn, proofOut string,
	orderType model.OrderType) (*model.Order, error) {
	if !validAddress(caller) {
		return nil, ErrInvalidAddress
	}
	if orderType != model.OrderTypeBuy && orderType != model.OrderTypeSell {
		return nil, ErrInvalidOrderType
	}

	pairId, err := PairID(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	tx := o.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var pair model.TradingPair
	if err := tx.Where("pair_id = ?", pairId).First(&pair).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPairInactive
		}
		return nil, err
	}
	if !pair.IsActive {
		tx.Rollback()
		return nil, ErrPairInactive
	}

	id, err := nextID(tx, model.CounterOrderId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	order := model.Order{
		Id:                 id,
		Trader:             normalizeAddress(caller),
		TokenIn:            normalizeAddress(tokenIn),
		TokenOut:           normalizeAddress(tokenOut),
		Type:               orderType,
		EncryptedAmountIn:  encryptedAmountIn,
		EncryptedAmountOut: encryptedAmountOut,
		ProofIn:            proofIn,
		ProofOut:           proofOut,
		IsActive:           true,
	}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	err = appendEvent(tx, model.EventPrivateOrderCreated, map[string]interface{}{
		"order_id":   order.Id,
		"trader":     order.Trader,
		"token_in":   order.TokenIn,
		"token_out":  order.TokenOut,
		"order_type": int(order.Type),
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ExecuteOrder 执行订单。已执行的订单不可再次执行。
func (o *OrderBookLogic) ExecuteOrder(caller string, orderId int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	tx := o.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var order model.Order
	if err := tx.First(&order, orderId).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if !order.IsActive {
		tx.Rollback()
		return ErrOrderExecuted
	}

	order.IsActive = false
	if err := tx.Save(&order).Error; err != nil {
		tx.Rollback()
		return err
	}

	// 实际价值结算委托给外部结算方
	if o.settle != nil {
		if err := o.settle(tx, &order); err != nil {
			tx.Rollback()
			return err
		}
	}

	err := appendEvent(tx, model.EventOrderExecuted, map[string]interface{}{
		"order_id":  order.Id,
		"trader":    order.Trader,
		"timestamp": o.clock.Now().Unix(),
	})
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// SwapTokens 按管理员设定的价格兑换代币。
// 价格为 1e18 定点数：1 TokenA = price/1e18 TokenB。
func (o *OrderBookLogic) SwapTokens(caller, tokenIn, tokenOut string,
	amountIn, minAmountOut decimal.Decimal) (decimal.Decimal, error) {
	if !validAddress(caller) {
		return decimal.Zero, ErrInvalidAddress
	}
	if !isPositiveInteger(amountIn) {
		return decimal.Zero, ErrInvalidAmount
	}

	pairId, err := PairID(tokenIn, tokenOut)
	if err != nil {
		return decimal.Zero, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	tx := o.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var pair model.TradingPair
	if err := tx.Where("pair_id = ?", pairId).First(&pair).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrPairNotFound
		}
		return decimal.Zero, err
	}
	if !pair.IsActive {
		tx.Rollback()
		return decimal.Zero, ErrPairInactive
	}

	in := normalizeAddress(tokenIn)

	// 兑换输出与成交量的TokenA侧
	var gross, volumeA decimal.Decimal
	if in == pair.TokenA {
		gross = mulDiv(amountIn, pair.Price, priceScale)
		volumeA = amountIn
	} else {
		gross = mulDiv(amountIn, priceScale, pair.Price)
		volumeA = gross
	}
	amountOut := applyFeeBps(gross, pair.FeeRate)

	if amountOut.Cmp(minAmountOut) < 0 {
		tx.Rollback()
		return decimal.Zero, ErrSlippageExceeded
	}

	// 流动性检查：输出侧储备必须足够
	reserveOut := pair.ReserveB
	if in != pair.TokenA {
		reserveOut = pair.ReserveA
	}
	if reserveOut.Cmp(amountOut) < 0 {
		tx.Rollback()
		return decimal.Zero, ErrInsufficientLiquidity
	}

	trader := normalizeAddress(caller)
	out := normalizeAddress(tokenOut)
	if err := treasuryTransfer(tx, trader, DexCustody, in, amountIn); err != nil {
		tx.Rollback()
		return decimal.Zero, err
	}
	if err := treasuryTransfer(tx, DexCustody, trader, out, amountOut); err != nil {
		tx.Rollback()
		return decimal.Zero, err
	}

	// 更新储备与成交量
	if in == pair.TokenA {
		pair.ReserveA = pair.ReserveA.Add(amountIn)
		pair.ReserveB = pair.ReserveB.Sub(amountOut)
	} else {
		pair.ReserveB = pair.ReserveB.Add(amountIn)
		pair.ReserveA = pair.ReserveA.Sub(amountOut)
	}
	pair.TotalVolumeA = pair.TotalVolumeA.Add(volumeA)
	if err := tx.Save(&pair).Error; err != nil {
		tx.Rollback()
		return decimal.Zero, err
	}

	err = appendEvent(tx, model.EventTokensSwapped, map[string]interface{}{
		"pair_id":    pairId,
		"trader":     trader,
		"token_in":   in,
		"token_out":  out,
		"amount_in":  amountIn.String(),
		"amount_out": amountOut.String(),
	})
	if err != nil {
		tx.Rollback()
		return decimal.Zero, err
	}

	if err := tx.Commit().Error; err != nil {
		return decimal.Zero, err
	}
	return amountOut, nil
}

// AddLiquidity 添加流动性。份额按当前价格折算成TokenA计价的
// 总价值：shares = amountA + amountB * 1e18 / price。
func (o *OrderBookLogic) AddLiquidity(caller, tokenA, tokenB string,
	amountA, amountB decimal.Decimal,
	encryptedAmountA, encryptedAmountB, proofA, proofB string) (decimal.Decimal, error) {
	if !validAddress(caller) {
		return decimal.Zero, ErrInvalidAddress
	}
	if amountA.IsNegative() || amountB.IsNegative() ||
		!amountA.IsInteger() || !amountB.IsInteger() {
		return decimal.Zero, ErrInvalidAmount
	}

	pairId, err := PairID(tokenA, tokenB)
	if err != nil {
		return decimal.Zero, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	tx := o.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var pair model.TradingPair
	if err := tx.Where("pair_id = ?", pairId).First(&pair).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrPairNotFound
		}
		return decimal.Zero, err
	}

	// 参数金额映射到排序后的代币
	provider := normalizeAddress(caller)
	depositA, depositB := amountA, amountB
	if normalizeAddress(tokenA) != pair.TokenA {
		depositA, depositB = amountB, amountA
	}

	shares := depositA.Add(mulDiv(depositB, priceScale, pair.Price))
	if !shares.IsPositive() {
		tx.Rollback()
		return decimal.Zero, ErrInvalidAmount
	}

	if depositA.IsPositive() {
		if err := treasuryTransfer(tx, provider, DexCustody, pair.TokenA, depositA); err != nil {
			tx.Rollback()
			return decimal.Zero, err
		}
	}
	if depositB.IsPositive() {
		if err := treasuryTransfer(tx, provider, DexCustody, pair.TokenB, depositB); err != nil {
			tx.Rollback()
			return decimal.Zero, err
		}
	}

	pair.ReserveA = pair.ReserveA.Add(depositA)
	pair.ReserveB = pair.ReserveB.Add(depositB)
	pair.TotalShares = pair.TotalShares.Add(shares)
	if err := tx.Save(&pair).Error; err != nil {
		tx.Rollback()
		return decimal.Zero, err
	}

	// 累加提供者份额，密文仅作审计元数据，不参与份额计算
	var position model.LiquidityPosition
	err = tx.Where("provider = ? AND pair_id = ?", provider, pairId).First(&position).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		position = model.LiquidityPosition{Provider: provider, PairId: pairId, Shares: shares}
		if err := tx.Create(&position).Error; err != nil {
			tx.Rollback()
			return decimal.Zero, err
		}
	case err != nil:
		tx.Rollback()
		return decimal.Zero, err
	default:
		position.Shares = position.Shares.Add(shares)
		if err := tx.Save(&position).Error; err != nil {
			tx.Rollback()
			return decimal.Zero, err
		}
	}

	err = appendEvent(tx, model.EventLiquidityAdded, map[string]interface{}{
		"pair_id":  pairId,
		"provider": provider,
		"shares":   shares.String(),
	})
	if err != nil {
		tx.Rollback()
		return decimal.Zero, err
	}

	if err := tx.Commit().Error; err != nil {
		return decimal.Zero, err
	}
	return shares, nil
}

// RemoveLiquidity 赎回流动性，按当前储备等比例返还两种代币
func (o *OrderBookLogic) RemoveLiquidity(caller, tokenA, tokenB string,
	shares decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if !validAddress(caller) {
		return decimal.Zero, decimal.Zero, ErrInvalidAddress
	}
	if !isPositiveInteger(shares) {
		return decimal.Zero, decimal.Zero, ErrInvalidAmount
	}

	pairId, err := PairID(tokenA, tokenB)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	tx := o.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var pair model.TradingPair
	if err := tx.Where("pair_id = ?", pairId).First(&pair).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, decimal.Zero, ErrPairNotFound
		}
		return decimal.Zero, decimal.Zero, err
	}

	provider := normalizeAddress(caller)
	var position model.LiquidityPosition
	err = tx.Where("provider = ? AND pair_id = ?", provider, pairId).First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && position.Shares.Cmp(shares) < 0) {
		tx.Rollback()
		return decimal.Zero, decimal.Zero, ErrInsufficientShares
	}
	if err != nil {
		tx.Rollback()
		return decimal.Zero, decimal.Zero, err
	}

	// 按赎回时点的储备等比例计算
	amountA := mulDiv(pair.ReserveA, shares, pair.TotalShares)
	amountB := mulDiv(pair.ReserveB, shares, pair.TotalShares)

	if amountA.IsPositive() {
		if err := treasuryTransfer(tx, DexCustody, provider, pair.TokenA, amountA); err != nil {
			tx.Rollback()
			return decimal.Zero, decimal.Zero, err
		}
	}
	if amountB.IsPositive() {
		if err := treasuryTransfer(tx, DexCustody, provider, pair.TokenB, amountB); err != nil {
			tx.Rollback()
			return decimal.Zero, decimal.Zero, err
		}
	}

	pair.ReserveA = pair.ReserveA.Sub(amountA)
	pair.ReserveB = pair.ReserveB.Sub(amountB)
	pair.TotalShares = pair.TotalShares.Sub(shares)
	if err := tx.Save(&pair).Error; err != nil {
		tx.Rollback()
		return decimal.Zero, decimal.Zero, err
	}

	position.Shares = position.Shares.Sub(shares)
	if err := tx.Save(&position).Error; err != nil {
		tx.Rollback()
		return decimal.Zero, decimal.Zero, err
	}

	err = appendEvent(tx, model.EventLiquidityRemoved, map[string]interface{}{
		"pair_id":  pairId,
		"provider": provider,
		"shares":   shares.String(),
	})
	if err != nil {
		tx.Rollback()
		return decimal.Zero, decimal.Zero, err
	}

	if err := tx.Commit().Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return amountA, amountB, nil
}

// UpdateDefaultFeeRate 更新默认费率，上限10%
func (o *OrderBookLogic) UpdateDefaultFeeRate(caller string, feeBps int64) error {
	if normalizeAddress(caller) != o.admin {
		return ErrUnauthorized
	}
	if feeBps < 0 || feeBps >= 1000 {
		return ErrFeeTooHigh
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	tx := o.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := setSetting(tx, model.SettingDexFeeBps, feeBps); err != nil {
		tx.Rollback()
		return err
	}

	err := appendEvent(tx, model.EventDefaultFeeRateUpdated, map[string]interface{}{
		"fee_bps": feeBps,
	})
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// UpdatePairPrice 管理员更新交易对价格
func (o *OrderBookLogic) UpdatePairPrice(caller, pairId string, price decimal.Decimal) error {
	if normalizeAddress(caller) != o.admin {
		return ErrUnauthorized
	}
	if !isPositiveInteger(price) {
		return ErrInvalidPrice
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	tx := o.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var pair model.TradingPair
	if err := tx.Where("pair_id = ?", pairId).First(&pair).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPairNotFound
		}
		return err
	}

	pair.Price = price
	if err := tx.Save(&pair).Error; err != nil {
		tx.Rollback()
		return err
	}

	err := appendEvent(tx, model.EventPairPriceUpdated, map[string]interface{}{
		"pair_id": pairId,
		"price":   price.String(),
	})
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// TogglePairStatus 管理员切换交易对启用状态
func (o *OrderBookLogic) TogglePairStatus(caller, pairId string) error {
	if normalizeAddress(caller) != o.admin {
		return ErrUnauthorized
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	tx := o.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var pair model.TradingPair
	if err := tx.Where("pair_id = ?", pairId).First(&pair).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPairNotFound
		}
		return err
	}

	pair.IsActive = !pair.IsActive
	if err := tx.Save(&pair).Error; err != nil {
		tx.Rollback()
		return err
	}

	err := appendEvent(tx, model.EventPairStatusToggled, map[string]interface{}{
		"pair_id":   pairId,
		"is_active": pair.IsActive,
	})
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// GetTradingPair 获取交易对详情
func (o *OrderBookLogic) GetTradingPair(pairId string) (*model.TradingPair, error) {
	var pair model.TradingPair
	if err := o.db.Where("pair_id = ?", pairId).First(&pair).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPairNotFound
		}
		return nil, err
	}
	return &pair, nil
}

// GetOrder 获取订单详情
func (o *OrderBookLogic) GetOrder(orderId int64) (*model.Order, error) {
	var order model.Order
	if err := o.db.First(&order, orderId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetUserOrders 按创建顺序返回交易者的所有订单ID
func (o *OrderBookLogic) GetUserOrders(trader string) ([]int64, error) {
	var ids []int64
	err := o.db.Model(&model.Order{}).
		Where("trader = ?", normalizeAddress(trader)).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetUserLiquidityShares 查询提供者在某交易对的份额
func (o *OrderBookLogic) GetUserLiquidityShares(provider, pairId string) (decimal.Decimal, error) {
	var position model.LiquidityPosition
	err := o.db.Where("provider = ? AND pair_id = ?",
		normalizeAddress(provider), pairId).First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return position.Shares, nil
}

// GetDefaultFeeRate 读取默认费率（基点）
func (o *OrderBookLogic) GetDefaultFeeRate() (int64, error) {
	return getSetting(o.db, model.SettingDexFeeBps)
}
