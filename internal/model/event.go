package model

import (
	"time"
)

// 事件类型
const (
	EventProjectCreated          = "ProjectCreated"
	EventPrivateContributionMade = "PrivateContributionMade"
	EventFundsWithdrawn          = "FundsWithdrawn"
	EventProjectPaused           = "ProjectPaused"
	EventPlatformFeeUpdated      = "PlatformFeeUpdated"

	EventTradingPairCreated    = "TradingPairCreated"
	EventPrivateOrderCreated   = "PrivateOrderCreated"
	EventOrderExecuted         = "OrderExecuted"
	EventTokensSwapped         = "TokensSwapped"
	EventLiquidityAdded        = "LiquidityAdded"
	EventLiquidityRemoved      = "LiquidityRemoved"
	EventPairPriceUpdated      = "PairPriceUpdated"
	EventPairStatusToggled     = "PairStatusToggled"
	EventDefaultFeeRateUpdated = "DefaultFeeRateUpdated"
)

// Event 事件流水（发件箱），与状态变更同事务追加
type Event struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EventType string `json:"event_type" gorm:"not null;index"`
	TxHash    string `json:"tx_hash" gorm:"not null"`
	Data      string `json:"data" gorm:"type:text"`

	// 分发状态
	Published   bool       `json:"published" gorm:"default:false;index"`
	PublishedAt *time.Time `json:"published_at"`
}

// TableName 自定义表名
func (Event) TableName() string {
	return "event"
}
