package model

// 计数器名称与平台参数名称
const (
	CounterProjectId = "project_id"
	CounterOrderId   = "order_id"

	SettingPlatformFeeBps = "platform_fee_bps"
	SettingDexFeeBps      = "dex_default_fee_bps"
)

// Counter 计数器与平台参数，连续ID在事务内从这里分配
type Counter struct {
	Name  string `json:"name" gorm:"primaryKey;size:64"`
	Value int64  `json:"value" gorm:"not null"`
}

// TableName 自定义表名
func (Counter) TableName() string {
	return "counter"
}
