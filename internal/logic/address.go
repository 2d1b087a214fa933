package logic

import (
	"bytes"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// normalizeAddress 地址统一转为小写十六进制形式
func normalizeAddress(address string) string {
	if common.IsHexAddress(address) {
		return strings.ToLower(common.HexToAddress(address).Hex())
	}
	return strings.ToLower(address)
}

// validAddress 校验是否为合法地址
func validAddress(address string) bool {
	return common.IsHexAddress(address)
}

// PairID 计算交易对ID：两个代币地址按字节序排序后做 Keccak256，
// 与参数顺序无关，PairID(A,B) == PairID(B,A)
func PairID(tokenA, tokenB string) (string, error) {
	if !validAddress(tokenA) || !validAddress(tokenB) {
		return "", ErrInvalidAddress
	}

	a := common.HexToAddress(tokenA)
	b := common.HexToAddress(tokenB)
	if a == b {
		return "", ErrSameToken
	}

	lo, hi := a, b
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		lo, hi = b, a
	}

	hash := crypto.Keccak256Hash(lo.Bytes(), hi.Bytes())
	return hash.Hex(), nil
}

// sortTokens 返回按字节序排序后的两个代币地址（小写）
func sortTokens(tokenA, tokenB string) (string, string) {
	a := common.HexToAddress(tokenA)
	b := common.HexToAddress(tokenB)
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return strings.ToLower(a.Hex()), strings.ToLower(b.Hex())
}
