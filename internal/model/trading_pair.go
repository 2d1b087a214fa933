package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradingPair 交易对模型
type TradingPair struct {
	// 交易对ID由两个代币地址排序后哈希得到，与参数顺序无关
	PairId    string    `json:"pair_id" gorm:"primaryKey;size:66"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// TokenA < TokenB（按地址字节序）
	TokenA string `json:"token_a" gorm:"not null"`
	TokenB string `json:"token_b" gorm:"not null"`

	// 手续费率（基点）
	FeeRate int64 `json:"fee_rate" gorm:"not null"`

	// 价格：1e18 定点数，表示 1 TokenA 兑换多少 TokenB
	Price decimal.Decimal `json:"price" gorm:"type:numeric(78,0);not null"`

	// 累计成交量（TokenA 计）
	TotalVolumeA decimal.Decimal `json:"total_volume_a" gorm:"type:numeric(78,0);default:0"`

	// 流动性池
	ReserveA    decimal.Decimal `json:"reserve_a" gorm:"type:numeric(78,0);default:0"`
	ReserveB    decimal.Decimal `json:"reserve_b" gorm:"type:numeric(78,0);default:0"`
	TotalShares decimal.Decimal `json:"total_shares" gorm:"type:numeric(78,0);default:0"`

	IsActive bool `json:"is_active" gorm:"default:true"`
}

// TableName 自定义表名
func (TradingPair) TableName() string {
	return "trading_pair"
}
