package logic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elbert/cvs/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// appendEvent 在当前事务内追加一条事件流水
func appendEvent(tx *gorm.DB, eventType string, data map[string]interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	event := model.Event{
		EventType: eventType,
		TxHash:    generateTxHash(),
		Data:      string(payload),
	}
	return tx.Create(&event).Error
}

// generateTxHash 生成模拟交易哈希（0x + 64位十六进制）
func generateTxHash() string {
	a := strings.ReplaceAll(uuid.NewString(), "-", "")
	b := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "0x" + a + b
}
