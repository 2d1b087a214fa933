package model

import (
	"time"
)

// OrderType 订单类型
type OrderType int

const (
	OrderTypeBuy  OrderType = 0 // 买单
	OrderTypeSell OrderType = 1 // 卖单
)

// Order 隐私订单模型，金额字段只保存密文
type Order struct {
	Id        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Trader   string    `json:"trader" gorm:"not null;index"`
	TokenIn  string    `json:"token_in" gorm:"not null"`
	TokenOut string    `json:"token_out" gorm:"not null"`
	Type     OrderType `json:"order_type" gorm:"not null"`

	// 密文与证明原样存储
	EncryptedAmountIn  string `json:"encrypted_amount_in" gorm:"type:text"`
	EncryptedAmountOut string `json:"encrypted_amount_out" gorm:"type:text"`
	ProofIn            string `json:"proof_in" gorm:"type:text"`
	ProofOut           string `json:"proof_out" gorm:"type:text"`

	// 执行后置为 false，不可恢复
	IsActive bool `json:"is_active" gorm:"default:true"`
}

// TableName 自定义表名
func (Order) TableName() string {
	return "dex_order"
}
