package handler

import (
	"net/http"
	"strconv"

	"github.com/elbert/cvs/internal/cache"
	"github.com/elbert/cvs/internal/logic"
	"github.com/gin-gonic/gin"
)

// 缓存键
const (
	cacheKeyActiveProjects = "cvs:projects:active"
)

// VaultHandler 众筹账本接口
type VaultHandler struct {
	fundingLogic *logic.FundingLogic
	cache        *cache.Cache
}

// NewVaultHandler 创建众筹账本接口
func NewVaultHandler(fundingLogic *logic.FundingLogic, c *cache.Cache) *VaultHandler {
	return &VaultHandler{
		fundingLogic: fundingLogic,
		cache:        c,
	}
}

// CreateProject 创建项目
func (h *VaultHandler) CreateProject(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	goal, ok := parseAmount(c, req.FundingGoal)
	if !ok {
		return
	}

	project, err := h.fundingLogic.CreateProject(
		caller, req.Title, req.Description, req.Category, goal, req.DurationDays)
	if err != nil {
		errorResponse(c, err)
		return
	}

	h.cache.Delete(c.Request.Context(), cacheKeyActiveProjects)

	c.JSON(http.StatusCreated, gin.H{
		"message": "项目创建成功",
		"project": project,
	})
}

// Contribute 隐私贡献
func (h *VaultHandler) Contribute(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的项目ID"})
		return
	}

	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	if err := h.fundingLogic.Contribute(caller, id, amount, req.EncryptedAmount, req.Proof); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "贡献成功"})
}

// Withdraw 创建者提现
func (h *VaultHandler) Withdraw(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的项目ID"})
		return
	}

	if err := h.fundingLogic.Withdraw(caller, id); err != nil {
		errorResponse(c, err)
		return
	}

	h.cache.Delete(c.Request.Context(), cacheKeyActiveProjects)

	c.JSON(http.StatusOK, gin.H{"message": "提现成功"})
}

// GetProjects 获取项目列表
func (h *VaultHandler) GetProjects(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	projects, total, err := h.fundingLogic.GetProjects(page, pageSize)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects":  projects,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetActiveProjects 按创建顺序返回活跃项目ID
func (h *VaultHandler) GetActiveProjects(c *gin.Context) {
	var ids []int64
	if h.cache.GetJSON(c.Request.Context(), cacheKeyActiveProjects, &ids) {
		c.JSON(http.StatusOK, gin.H{"project_ids": ids})
		return
	}

	ids, err := h.fundingLogic.GetActiveProjects()
	if err != nil {
		errorResponse(c, err)
		return
	}

	h.cache.SetJSON(c.Request.Context(), cacheKeyActiveProjects, ids)

	c.JSON(http.StatusOK, gin.H{"project_ids": ids})
}

// GetProject 获取单个项目详情
func (h *VaultHandler) GetProject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的项目ID"})
		return
	}

	project, err := h.fundingLogic.GetProject(id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// GetProjectStatus 获取项目状态
func (h *VaultHandler) GetProjectStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的项目ID"})
		return
	}

	status, err := h.fundingLogic.GetProjectStatus(id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

// GetProjectStats 获取项目统计信息
func (h *VaultHandler) GetProjectStats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的项目ID"})
		return
	}

	stats, err := h.fundingLogic.GetProjectStats(id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// UpdatePlatformFee 管理员更新平台费率
func (h *VaultHandler) UpdatePlatformFee(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req UpdateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.fundingLogic.UpdatePlatformFee(caller, req.FeeBps); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "平台费率更新成功"})
}

// EmergencyPause 管理员紧急停用项目
func (h *VaultHandler) EmergencyPause(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的项目ID"})
		return
	}

	if err := h.fundingLogic.EmergencyPause(caller, id); err != nil {
		errorResponse(c, err)
		return
	}

	h.cache.Delete(c.Request.Context(), cacheKeyActiveProjects)

	c.JSON(http.StatusOK, gin.H{"message": "项目已停用"})
}
