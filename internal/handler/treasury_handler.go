package handler

import (
	"net/http"

	"github.com/elbert/cvs/internal/logic"
	"github.com/gin-gonic/gin"
)

// TreasuryHandler 资金账户接口
type TreasuryHandler struct {
	treasury *logic.TreasuryLogic
}

// NewTreasuryHandler 创建资金账户接口
func NewTreasuryHandler(treasury *logic.TreasuryLogic) *TreasuryHandler {
	return &TreasuryHandler{treasury: treasury}
}

// Deposit 管理员向账户充值
func (h *TreasuryHandler) Deposit(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	token := req.Token
	if token == "" {
		token = logic.NativeToken
	}

	if err := h.treasury.Deposit(caller, req.Address, token, amount); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "充值成功"})
}

// GetBalance 查询账户余额
func (h *TreasuryHandler) GetBalance(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = logic.NativeToken
	}

	balance, err := h.treasury.GetBalance(c.Param("address"), token)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance.String()})
}
