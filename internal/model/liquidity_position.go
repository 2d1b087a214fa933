package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LiquidityPosition 流动性份额，按（提供者，交易对）记账
type LiquidityPosition struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Provider string          `json:"provider" gorm:"not null;uniqueIndex:idx_provider_pair"`
	PairId   string          `json:"pair_id" gorm:"not null;uniqueIndex:idx_provider_pair;size:66"`
	Shares   decimal.Decimal `json:"shares" gorm:"type:numeric(78,0);not null"`
}

// TableName 自定义表名
func (LiquidityPosition) TableName() string {
	return "liquidity_position"
}
