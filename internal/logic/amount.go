package logic

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// 金额一律为整数（wei），除法一律向下取整
var (
	bpsDenominator = decimal.NewFromInt(10000)
	priceScale     = decimal.New(1, 18) // 价格定点基数 1e18
)

// mulDiv 计算 a * b / den，整数截断
func mulDiv(a, b, den decimal.Decimal) decimal.Decimal {
	num := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return decimal.NewFromBigInt(num.Div(num, den.BigInt()), 0)
}

// applyFeeBps 从金额中扣除基点费率后的剩余部分
func applyFeeBps(amount decimal.Decimal, feeBps int64) decimal.Decimal {
	return mulDiv(amount, decimal.NewFromInt(10000-feeBps), bpsDenominator)
}

// feeOf 按基点费率计算手续费部分
func feeOf(amount decimal.Decimal, feeBps int64) decimal.Decimal {
	return mulDiv(amount, decimal.NewFromInt(feeBps), bpsDenominator)
}

// isPositiveInteger 校验金额为正整数
func isPositiveInteger(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.IsInteger()
}
