package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project 众筹项目模型
type Project struct {
	Id        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category"`

	// 创建者信息
	Creator string `json:"creator" gorm:"not null;index"`

	// 众筹信息（金额单位：wei）
	FundingGoal decimal.Decimal `json:"funding_goal" gorm:"type:numeric(78,0);not null"`
	TotalRaised decimal.Decimal `json:"total_raised" gorm:"type:numeric(78,0);default:0"`

	// 时间信息
	Deadline time.Time `json:"deadline" gorm:"not null"`

	// 状态
	ContributorCount int64 `json:"contributor_count" gorm:"default:0"`
	GoalReached      bool  `json:"goal_reached" gorm:"default:false"`
	IsActive         bool  `json:"is_active" gorm:"default:true"`
}

// TableName 自定义表名
func (Project) TableName() string {
	return "project"
}
