package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elbert/cvs/internal/config"
	"github.com/elbert/cvs/internal/database"
	"github.com/elbert/cvs/internal/logic"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	testAdmin   = "0x1111111111111111111111111111111111111111"
	testCreator = "0x2222222222222222222222222222222222222222"
	testBacker  = "0x3333333333333333333333333333333333333333"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := config.LedgerConfig{
		AdminAddress:   testAdmin,
		PlatformFeeBps: 250,
		DexFeeBps:      30,
	}
	clock := logic.NewRealClock()
	fundingLogic, err := logic.NewFundingLogic(db, cfg, clock)
	require.NoError(t, err)
	orderBook, err := logic.NewOrderBookLogic(db, cfg, clock)
	require.NoError(t, err)
	treasury := logic.NewTreasuryLogic(db, testAdmin)

	return Setup(fundingLogic, orderBook, treasury, nil)
}

func doRequest(r *gin.Engine, method, path, caller string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set("X-Caller-Address", caller)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestCreateProjectRequiresCaller(t *testing.T) {
	r := setupRouter(t)

	body := map[string]interface{}{
		"title":         "Test Project",
		"description":   "Description",
		"category":      "DeFi",
		"funding_goal":  "1000000000000000000",
		"duration_days": 30,
	}

	// 缺少调用者头
	w := doRequest(r, http.MethodPost, "/api/v1/projects", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/projects", testCreator, body)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Project struct {
			Id      int64  `json:"id"`
			Creator string `json:"creator"`
		} `json:"project"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Project.Id)
	assert.Equal(t, testCreator, resp.Project.Creator)
}

func TestContributeAndWithdrawFlow(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(r, http.MethodPost, "/api/v1/projects", testCreator, map[string]interface{}{
		"title":         "Test Project",
		"description":   "Description",
		"category":      "DeFi",
		"funding_goal":  "1000000000000000000",
		"duration_days": 30,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// 充值贡献者账户
	w = doRequest(r, http.MethodPost, "/api/v1/treasury/deposit", testAdmin, map[string]interface{}{
		"address": testBacker,
		"amount":  "1000000000000000000",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/projects/1/contributions", testBacker, map[string]interface{}{
		"amount":           "1000000000000000000",
		"encrypted_amount": "0x1234",
		"proof":            "0xabcd",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/projects/1/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "successful")

	// 非创建者提现被拒
	w = doRequest(r, http.MethodPost, "/api/v1/projects/1/withdraw", testBacker, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/projects/1/withdraw", testCreator, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 提现后项目关闭
	w = doRequest(r, http.MethodPost, "/api/v1/projects/1/withdraw", testCreator, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGetProjectNotFound(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(r, http.MethodGet, "/api/v1/projects/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/projects/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDexEndpoints(t *testing.T) {
	r := setupRouter(t)

	tokenA := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	tokenB := "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	w := doRequest(r, http.MethodPost, "/api/v1/dex/pairs", testCreator, map[string]interface{}{
		"token_a":      tokenA,
		"token_b":      tokenB,
		"fee_rate_bps": 50,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Pair struct {
			PairId string `json:"pair_id"`
		} `json:"pair"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Pair.PairId, 66)

	// 重复创建冲突
	w = doRequest(r, http.MethodPost, "/api/v1/dex/pairs", testCreator, map[string]interface{}{
		"token_a":      tokenB,
		"token_b":      tokenA,
		"fee_rate_bps": 50,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// ID查询与创建结果一致
	w = doRequest(r, http.MethodGet,
		"/api/v1/dex/pairs/id?token_a="+tokenA+"&token_b="+tokenB, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), resp.Pair.PairId)

	w = doRequest(r, http.MethodGet, "/api/v1/dex/pairs/"+resp.Pair.PairId, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 非管理员更新默认费率被拒
	w = doRequest(r, http.MethodPut, "/api/v1/admin/dex/fee-rate", testCreator, map[string]interface{}{
		"fee_bps": 100,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(r, http.MethodPut, "/api/v1/admin/dex/fee-rate", testAdmin, map[string]interface{}{
		"fee_bps": 100,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/dex/fee-rate", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "100")

	// min_amount_out 可省略，省略时按0处理（这里因无流动性得到422而非400）
	w = doRequest(r, http.MethodPost, "/api/v1/dex/swaps", testBacker, map[string]interface{}{
		"token_in":  tokenA,
		"token_out": tokenB,
		"amount_in": "1000000000000000000",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
