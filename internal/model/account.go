package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account 资金账户，按（地址，代币）记录余额
type Account struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address string          `json:"address" gorm:"not null;uniqueIndex:idx_address_token"`
	Token   string          `json:"token" gorm:"not null;uniqueIndex:idx_address_token"`
	Balance decimal.Decimal `json:"balance" gorm:"type:numeric(78,0);not null"`
}

// TableName 自定义表名
func (Account) TableName() string {
	return "account"
}
