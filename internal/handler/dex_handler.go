package handler

import (
	"net/http"
	"strconv"

	"github.com/elbert/cvs/internal/logic"
	"github.com/elbert/cvs/internal/model"
	"github.com/gin-gonic/gin"
)

// DexHandler 隐私订单簿接口
type DexHandler struct {
	orderBook *logic.OrderBookLogic
}

// NewDexHandler 创建订单簿接口
func NewDexHandler(orderBook *logic.OrderBookLogic) *DexHandler {
	return &DexHandler{orderBook: orderBook}
}

// CreateTradingPair 创建交易对
func (h *DexHandler) CreateTradingPair(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req CreatePairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.orderBook.CreateTradingPair(caller, req.TokenA, req.TokenB, req.FeeRateBps)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "交易对创建成功",
		"pair":    pair,
	})
}

// GetPairID 计算交易对ID（与代币顺序无关）
func (h *DexHandler) GetPairID(c *gin.Context) {
	tokenA := c.Query("token_a")
	tokenB := c.Query("token_b")

	pairId, err := logic.PairID(tokenA, tokenB)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pair_id": pairId})
}

// GetTradingPair 获取交易对详情
func (h *DexHandler) GetTradingPair(c *gin.Context) {
	pair, err := h.orderBook.GetTradingPair(c.Param("id"))
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pair": pair})
}

// CreateOrder 创建隐私订单
func (h *DexHandler) CreateOrder(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orderBook.CreatePrivateOrder(
		caller, req.TokenIn, req.TokenOut,
		req.EncryptedAmountIn, req.EncryptedAmountOut,
		req.ProofIn, req.ProofOut,
		model.OrderType(req.OrderType))
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "订单创建成功",
		"order":   order,
	})
}

// ExecuteOrder 执行订单
func (h *DexHandler) ExecuteOrder(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的订单ID"})
		return
	}

	if err := h.orderBook.ExecuteOrder(caller, id); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "订单执行成功"})
}

// GetOrder 获取订单详情
func (h *DexHandler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的订单ID"})
		return
	}

	order, err := h.orderBook.GetOrder(id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// GetUserOrders 获取交易者的订单ID列表
func (h *DexHandler) GetUserOrders(c *gin.Context) {
	ids, err := h.orderBook.GetUserOrders(c.Param("address"))
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order_ids": ids})
}

// Swap 兑换代币
func (h *DexHandler) Swap(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amountIn, ok := parseAmount(c, req.AmountIn)
	if !ok {
		return
	}

	// 未提供最小输出时不做滑点保护
	if req.MinAmountOut == "" {
		req.MinAmountOut = "0"
	}
	minOut, ok := parseAmount(c, req.MinAmountOut)
	if !ok {
		return
	}

	amountOut, err := h.orderBook.SwapTokens(caller, req.TokenIn, req.TokenOut, amountIn, minOut)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "兑换成功",
		"amount_out": amountOut.String(),
	})
}

// AddLiquidity 添加流动性
func (h *DexHandler) AddLiquidity(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req AddLiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amountA, ok := parseAmount(c, req.AmountA)
	if !ok {
		return
	}
	amountB, ok := parseAmount(c, req.AmountB)
	if !ok {
		return
	}

	shares, err := h.orderBook.AddLiquidity(
		caller, req.TokenA, req.TokenB, amountA, amountB,
		req.EncryptedAmountA, req.EncryptedAmountB, req.ProofA, req.ProofB)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "流动性添加成功",
		"shares":  shares.String(),
	})
}

// RemoveLiquidity 移除流动性
func (h *DexHandler) RemoveLiquidity(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req RemoveLiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shares, ok := parseAmount(c, req.Shares)
	if !ok {
		return
	}

	amountA, amountB, err := h.orderBook.RemoveLiquidity(caller, req.TokenA, req.TokenB, shares)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "流动性移除成功",
		"amount_a": amountA.String(),
		"amount_b": amountB.String(),
	})
}

// GetUserLiquidity 查询提供者份额
func (h *DexHandler) GetUserLiquidity(c *gin.Context) {
	shares, err := h.orderBook.GetUserLiquidityShares(c.Param("address"), c.Param("pairId"))
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"shares": shares.String()})
}

// UpdateDefaultFeeRate 管理员更新默认费率
func (h *DexHandler) UpdateDefaultFeeRate(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req UpdateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.orderBook.UpdateDefaultFeeRate(caller, req.FeeBps); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "默认费率更新成功"})
}

// GetDefaultFeeRate 读取默认费率
func (h *DexHandler) GetDefaultFeeRate(c *gin.Context) {
	feeBps, err := h.orderBook.GetDefaultFeeRate()
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fee_bps": feeBps})
}

// UpdatePairPrice 管理员更新交易对价格
func (h *DexHandler) UpdatePairPrice(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, ok := parseAmount(c, req.Price)
	if !ok {
		return
	}

	if err := h.orderBook.UpdatePairPrice(caller, c.Param("id"), price); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "价格更新成功"})
}

// TogglePairStatus 管理员切换交易对状态
func (h *DexHandler) TogglePairStatus(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	if err := h.orderBook.TogglePairStatus(caller, c.Param("id")); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "交易对状态已切换"})
}
