package logic

import (
	"errors"

	"github.com/elbert/cvs/internal/model"
	"gorm.io/gorm"
)

// seedCounter 初始化计数器或平台参数，已存在时不覆盖
func seedCounter(db *gorm.DB, name string, value int64) error {
	var counter model.Counter
	err := db.Where("name = ?", name).First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&model.Counter{Name: name, Value: value}).Error
	}
	return err
}

// nextID 在事务内分配下一个连续ID。调用方持有账本互斥锁，
// 保证ID严格递增且无空洞。
func nextID(tx *gorm.DB, name string) (int64, error) {
	var counter model.Counter
	if err := tx.Where("name = ?", name).First(&counter).Error; err != nil {
		return 0, err
	}

	counter.Value++
	if err := tx.Save(&counter).Error; err != nil {
		return 0, err
	}
	return counter.Value, nil
}

// getSetting 读取平台参数
func getSetting(tx *gorm.DB, name string) (int64, error) {
	var counter model.Counter
	if err := tx.Where("name = ?", name).First(&counter).Error; err != nil {
		return 0, err
	}
	return counter.Value, nil
}

// setSetting 更新平台参数
func setSetting(tx *gorm.DB, name string, value int64) error {
	return tx.Model(&model.Counter{}).Where("name = ?", name).Update("value", value).Error
}
