package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContributionRecord 贡献记录，按（项目，贡献者）累计金额
type ContributionRecord struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId   int64           `json:"project_id" gorm:"not null;uniqueIndex:idx_project_contributor"`
	Contributor string          `json:"contributor" gorm:"not null;uniqueIndex:idx_project_contributor"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(78,0);not null"`

	// 密文与证明原样存储，不参与记账
	EncryptedAmount string `json:"encrypted_amount" gorm:"type:text"`
	Proof           string `json:"proof" gorm:"type:text"`
}

// TableName 自定义表名
func (ContributionRecord) TableName() string {
	return "contribution_record"
}
