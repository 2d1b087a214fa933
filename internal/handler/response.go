package handler

import (
	"errors"
	"net/http"

	"github.com/elbert/cvs/internal/logic"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// callerAddress 从请求头解析调用者身份，由钱包/会话层在网关处注入
func callerAddress(c *gin.Context) (string, bool) {
	caller := c.GetHeader("X-Caller-Address")
	if caller == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "缺少调用者地址"})
		return "", false
	}
	return caller, true
}

// parseAmount 解析金额参数，必须为正整数（wei）
func parseAmount(c *gin.Context, raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil || !amount.IsInteger() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "金额格式无效"})
		return decimal.Decimal{}, false
	}
	return amount, true
}

// errorResponse 按错误类型映射HTTP状态码
func errorResponse(c *gin.Context, err error) {
	c.JSON(errToStatus(err), gin.H{"error": err.Error()})
}

func errToStatus(err error) int {
	switch {
	case errors.Is(err, logic.ErrProjectNotFound),
		errors.Is(err, logic.ErrPairNotFound),
		errors.Is(err, logic.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, logic.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, logic.ErrPairExists):
		return http.StatusConflict
	case errors.Is(err, logic.ErrProjectInactive),
		errors.Is(err, logic.ErrOrderExecuted),
		errors.Is(err, logic.ErrPairInactive),
		errors.Is(err, logic.ErrNotWithdrawable),
		errors.Is(err, logic.ErrSlippageExceeded),
		errors.Is(err, logic.ErrInsufficientLiquidity),
		errors.Is(err, logic.ErrInsufficientShares),
		errors.Is(err, logic.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, logic.ErrEmptyTitle),
		errors.Is(err, logic.ErrInvalidGoal),
		errors.Is(err, logic.ErrInvalidDuration),
		errors.Is(err, logic.ErrInvalidAmount),
		errors.Is(err, logic.ErrInvalidAddress),
		errors.Is(err, logic.ErrInvalidOrderType),
		errors.Is(err, logic.ErrInvalidPrice),
		errors.Is(err, logic.ErrFeeTooHigh),
		errors.Is(err, logic.ErrSameToken),
		errors.Is(err, logic.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
