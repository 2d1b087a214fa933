package logic

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/elbert/cvs/internal/config"
	"github.com/elbert/cvs/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FundingLogic 众筹账本业务逻辑。所有写操作持有互斥锁并在单个
// 数据库事务内完成，外部观察不到部分生效的状态。
type FundingLogic struct {
	db           *gorm.DB
	clock        Clock
	admin        string
	feeCollector string
	mu           sync.Mutex
}

// NewFundingLogic 创建众筹账本业务逻辑
func NewFundingLogic(db *gorm.DB, cfg config.LedgerConfig, clock Clock) (*FundingLogic, error) {
	if clock == nil {
		clock = NewRealClock()
	}

	// 手续费接收地址默认为管理员
	collector := cfg.FeeCollector
	if collector == "" {
		collector = cfg.AdminAddress
	}

	feeBps := cfg.PlatformFeeBps
	if feeBps == 0 {
		feeBps = 250
	}

	if err := seedCounter(db, model.CounterProjectId, 0); err != nil {
		return nil, fmt.Errorf("failed to seed project counter: %w", err)
	}
	if err := seedCounter(db, model.SettingPlatformFeeBps, feeBps); err != nil {
		return nil, fmt.Errorf("failed to seed platform fee: %w", err)
	}

	return &FundingLogic{
		db:           db,
		clock:        clock,
		admin:        normalizeAddress(cfg.AdminAddress),
		feeCollector: normalizeAddress(collector),
	}, nil
}

// CreateProject 创建项目
func (f *FundingLogic) CreateProject(caller, title, description, category string,
	fundingGoal decimal.Decimal, durationDays int) (*model.Project, error) {
	if !validAddress(caller) {
		return nil, ErrInvalidAddress
	}
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if !isPositiveInteger(fundingGoal) {
		return nil, ErrInvalidGoal
	}
	if durationDays <= 0 || durationDays > 365 {
		return nil, ErrInvalidDuration
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tx := f.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	id, err := nextID(tx, model.CounterProjectId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	project := model.Project{
		Id:          id,
		Title:       title,
		Description: description,
		Category:    category,
		Creator:     normalizeAddress(caller),
		FundingGoal: fundingGoal,
		TotalRaised: decimal.Zero,
		Deadline:    f.clock.Now().Add(time.Duration(durationDays) * 24 * time.Hour),
		IsActive:    true,
	}
	if err := tx.Create(&project).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	err = appendEvent(tx, model.EventProjectCreated, map[string]interface{}{
		"project_id":   project.Id,
		"creator":      project.Creator,
		"title":        project.Title,
		"funding_goal": project.FundingGoal.String(),
		"deadline":     project.Deadline.Unix(),
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// Contribute 隐私贡献。明文转账金额驱动记账，密文与证明仅作为
// 审计元数据原样保存。
func (f *FundingLogic) Contribute(caller string, projectId int64,
	amount decimal.Decimal, encryptedAmount, proof string) error {
	if !validAddress(caller) {
		return ErrInvalidAddress
	}
	if !isPositiveInteger(amount) {
		return ErrInvalidAmount
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tx := f.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var project model.Project
	if err := tx.First(&project, projectId).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}

	if !project.IsActive {
		tx.Rollback()
		return ErrProjectInactive
	}

	contributor := normalizeAddress(caller)

	// 资金进入托管账户
	if err := treasuryTransfer(tx, contributor, VaultCustody, NativeToken, amount); err != nil {
		tx.Rollback()
		return err
	}

	// 首次贡献时增加贡献者计数，否则只累计金额
	var record model.ContributionRecord
	err := tx.Where("project_id = ? AND contributor = ?", projectId, contributor).First(&record).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = model.ContributionRecord{
			ProjectId:       projectId,
			Contributor:     contributor,
			Amount:          amount,
			EncryptedAmount: encryptedAmount,
			Proof:           proof,
		}
		if err := tx.Create(&record).Error; err != nil {
			tx.Rollback()
			return err
		}
		project.ContributorCount++
	case err != nil:
		tx.Rollback()
		return err
	default:
		record.Amount = record.Amount.Add(amount)
		record.EncryptedAmount = encryptedAmount
		record.Proof = proof
		if err := tx.Save(&record).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	project.TotalRaised = project.TotalRaised.Add(amount)
	project.GoalReached = project.TotalRaised.Cmp(project.FundingGoal) >= 0
	if err := tx.Save(&project).Error; err != nil {
		tx.Rollback()
		return err
	}

	err = appendEvent(tx, model.EventPrivateContributionMade, map[string]interface{}{
		"project_id":  projectId,
		"contributor": contributor,
		"timestamp":   f.clock.Now().Unix(),
	})
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// Withdraw 创建者提现。停用标记与两笔转账在同一事务内生效，
// 任何一步失败则全部回滚。
func (f *FundingLogic) Withdraw(caller string, projectId int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx := f.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var project model.Project
	if err := tx.First(&project, projectId).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}

	if normalizeAddress(caller) != project.Creator {
		tx.Rollback()
		return ErrUnauthorized
	}
	if !project.IsActive {
		tx.Rollback()
		return ErrProjectInactive
	}
	if !project.GoalReached && f.clock.Now().Before(project.Deadline) {
		tx.Rollback()
		return ErrNotWithdrawable
	}

	feeBps, err := getSetting(tx, model.SettingPlatformFeeBps)
	if err != nil {
		tx.Rollback()
		return err
	}

	fee := feeOf(project.TotalRaised, feeBps)
	payout := project.TotalRaised.Sub(fee)

	if payout.IsPositive() {
		if err := treasuryTransfer(tx, VaultCustody, project.Creator, NativeToken, payout); err != nil {
			tx.Rollback()
			return err
		}
	}
	if fee.IsPositive() {
		if err := treasuryTransfer(tx, VaultCustody, f.feeCollector, NativeToken, fee); err != nil {
			tx.Rollback()
			return err
		}
	}

	project.IsActive = false
	if err := tx.Save(&project).Error; err != nil {
		tx.Rollback()
		return err
	}

	err = appendEvent(tx, model.EventFundsWithdrawn, map[string]interface{}{
		"project_id": projectId,
		"creator":    project.Creator,
		"amount":     payout.String(),
		"fee":        fee.String(),
	})
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// UpdatePlatformFee 更新平台费率，上限10%
func (f *FundingLogic) UpdatePlatformFee(caller string, feeBps int64) error {
	if normalizeAddress(caller) != f.admin {
		return ErrUnauthorized
	}
	if feeBps < 0 || feeBps > 1000 {
		return ErrFeeTooHigh
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tx := f.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := setSetting(tx, model.SettingPlatformFeeBps, feeBps); err != nil {
		tx.Rollback()
		return err
	}

	err := appendEvent(tx, model.EventPlatformFeeUpdated, map[string]interface{}{
		"fee_bps": feeBps,
	})
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// EmergencyPause 管理员紧急停用项目，不可恢复
func (f *FundingLogic) EmergencyPause(caller string, projectId int64) error {
	if normalizeAddress(caller) != f.admin {
		return ErrUnauthorized
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tx := f.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var project model.Project
	if err := tx.First(&project, projectId).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}

	project.IsActive = false
	if err := tx.Save(&project).Error; err != nil {
		tx.Rollback()
		return err
	}

	err := appendEvent(tx, model.EventProjectPaused, map[string]interface{}{
		"project_id": projectId,
	})
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// GetProject 获取项目详情
func (f *FundingLogic) GetProject(projectId int64) (*model.Project, error) {
	var project model.Project
	if err := f.db.First(&project, projectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// GetProjects 获取项目列表
func (f *FundingLogic) GetProjects(page, pageSize int) ([]model.Project, int64, error) {
	var projects []model.Project
	var total int64

	if err := f.db.Model(&model.Project{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := f.db.Order("id ASC").Offset(offset).Limit(pageSize).Find(&projects).Error; err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// GetActiveProjects 按创建顺序返回所有活跃项目的ID
func (f *FundingLogic) GetActiveProjects() ([]int64, error) {
	var ids []int64
	err := f.db.Model(&model.Project{}).
		Where("is_active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ProjectStatus 项目状态读视图
type ProjectStatus string

const (
	ProjectStatusActive     ProjectStatus = "active"     // 进行中
	ProjectStatusSuccessful ProjectStatus = "successful" // 已达标
	ProjectStatusExpired    ProjectStatus = "expired"    // 已过期
	ProjectStatusClosed     ProjectStatus = "closed"     // 已关闭（提现或暂停）
)

// GetProjectStatus 获取项目状态
func (f *FundingLogic) GetProjectStatus(projectId int64) (ProjectStatus, error) {
	project, err := f.GetProject(projectId)
	if err != nil {
		return "", err
	}

	switch {
	case !project.IsActive:
		return ProjectStatusClosed, nil
	case project.GoalReached:
		return ProjectStatusSuccessful, nil
	case !f.clock.Now().Before(project.Deadline):
		return ProjectStatusExpired, nil
	default:
		return ProjectStatusActive, nil
	}
}

// GetProjectStats 获取项目统计信息
func (f *FundingLogic) GetProjectStats(projectId int64) (map[string]interface{}, error) {
	project, err := f.GetProject(projectId)
	if err != nil {
		return nil, err
	}

	// 完成百分比
	completionPercentage := float64(0)
	if project.FundingGoal.IsPositive() {
		ratio, _ := project.TotalRaised.Div(project.FundingGoal).Float64()
		completionPercentage = ratio * 100
	}

	// 剩余时间
	remainingTime := time.Duration(0)
	now := f.clock.Now()
	if project.IsActive && now.Before(project.Deadline) {
		remainingTime = project.Deadline.Sub(now)
	}

	status, err := f.GetProjectStatus(projectId)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"project_id":            project.Id,
		"total_raised":          project.TotalRaised.String(),
		"funding_goal":          project.FundingGoal.String(),
		"completion_percentage": completionPercentage,
		"contributor_count":     project.ContributorCount,
		"goal_reached":          project.GoalReached,
		"remaining_time":        remainingTime.String(),
		"status":                status,
	}, nil
}

// GetPlatformFee 读取当前平台费率（基点）
func (f *FundingLogic) GetPlatformFee() (int64, error) {
	return getSetting(f.db, model.SettingPlatformFeeBps)
}

// GetContribution 查询某贡献者对某项目的累计贡献
func (f *FundingLogic) GetContribution(projectId int64, contributor string) (decimal.Decimal, error) {
	var record model.ContributionRecord
	err := f.db.Where("project_id = ? AND contributor = ?",
		projectId, normalizeAddress(contributor)).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return record.Amount, nil
}
