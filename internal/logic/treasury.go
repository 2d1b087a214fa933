package logic

import (
	"errors"

	"github.com/elbert/cvs/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 特殊账户地址
const (
	// NativeToken 原生币的代币标识
	NativeToken = "0x0000000000000000000000000000000000000000"
	// VaultCustody 众筹账本托管账户
	VaultCustody = "0x0000000000000000000000000000000000000001"
	// DexCustody 订单簿账本托管账户
	DexCustody = "0x0000000000000000000000000000000000000002"
)

// TreasuryLogic 资金账户业务逻辑。账本的所有转账都在调用方事务内
// 通过 credit/debit 完成，保证与状态变更一起提交或回滚。
type TreasuryLogic struct {
	db    *gorm.DB
	admin string
}

// NewTreasuryLogic 创建资金账户业务逻辑
func NewTreasuryLogic(db *gorm.DB, admin string) *TreasuryLogic {
	return &TreasuryLogic{db: db, admin: normalizeAddress(admin)}
}

// Deposit 管理员向账户充值（相当于测试网水龙头）
func (t *TreasuryLogic) Deposit(caller, address, token string, amount decimal.Decimal) error {
	if normalizeAddress(caller) != t.admin {
		return ErrUnauthorized
	}
	if !isPositiveInteger(amount) {
		return ErrInvalidAmount
	}

	tx := t.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := treasuryCredit(tx, normalizeAddress(address), normalizeAddress(token), amount); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// GetBalance 查询账户余额
func (t *TreasuryLogic) GetBalance(address, token string) (decimal.Decimal, error) {
	return accountBalance(t.db, normalizeAddress(address), normalizeAddress(token))
}

// accountBalance 读取余额，无记录视为0
func accountBalance(tx *gorm.DB, address, token string) (decimal.Decimal, error) {
	var account model.Account
	err := tx.Where("address = ? AND token = ?", address, token).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// treasuryCredit 入账
func treasuryCredit(tx *gorm.DB, address, token string, amount decimal.Decimal) error {
	var account model.Account
	err := tx.Where("address = ? AND token = ?", address, token).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = model.Account{Address: address, Token: token, Balance: amount}
		return tx.Create(&account).Error
	}
	if err != nil {
		return err
	}

	account.Balance = account.Balance.Add(amount)
	return tx.Save(&account).Error
}

// treasuryDebit 出账，余额不足时整个操作失败
func treasuryDebit(tx *gorm.DB, address, token string, amount decimal.Decimal) error {
	var account model.Account
	err := tx.Where("address = ? AND token = ?", address, token).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInsufficientFunds
	}
	if err != nil {
		return err
	}

	if account.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	account.Balance = account.Balance.Sub(amount)
	return tx.Save(&account).Error
}

// treasuryTransfer 同事务内转账
func treasuryTransfer(tx *gorm.DB, from, to, token string, amount decimal.Decimal) error {
	if err := treasuryDebit(tx, from, token, amount); err != nil {
		return err
	}
	return treasuryCredit(tx, to, token, amount)
}
