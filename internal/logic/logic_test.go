package logic

import (
	"testing"
	"time"

	"github.com/elbert/cvs/internal/config"
	"github.com/elbert/cvs/internal/database"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// 测试账户
const (
	testOwner   = "0x1111111111111111111111111111111111111111"
	testAddr1   = "0x2222222222222222222222222222222222222222"
	testAddr2   = "0x3333333333333333333333333333333333333333"
	testAddr3   = "0x4444444444444444444444444444444444444444"
	testTokenA  = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testTokenB  = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	testTokenC  = "0xcccccccccccccccccccccccccccccccccccccccc"
	testEncBlob = "0x1234567890abcdef"
	testProof   = "0xabcdef1234567890"
)

// fakeClock 可控时钟
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func testLedgerConfig() config.LedgerConfig {
	return config.LedgerConfig{
		AdminAddress:   testOwner,
		PlatformFeeBps: 250,
		DexFeeBps:      30,
	}
}

// eth 以整数ETH构造wei金额
func eth(n int64) decimal.Decimal {
	return decimal.New(n, 18)
}

// fundAccount 管理员充值，简化测试准备
func fundAccount(t *testing.T, treasury *TreasuryLogic, address, token string, amount decimal.Decimal) {
	t.Helper()
	require.NoError(t, treasury.Deposit(testOwner, address, token, amount))
}

func balanceOf(t *testing.T, treasury *TreasuryLogic, address, token string) decimal.Decimal {
	t.Helper()
	balance, err := treasury.GetBalance(address, token)
	require.NoError(t, err)
	return balance
}
