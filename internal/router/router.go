package router

import (
	"github.com/elbert/cvs/internal/cache"
	"github.com/elbert/cvs/internal/handler"
	"github.com/elbert/cvs/internal/logic"
	"github.com/gin-gonic/gin"
)

func Setup(fundingLogic *logic.FundingLogic, orderBook *logic.OrderBookLogic,
	treasury *logic.TreasuryLogic, c *cache.Cache) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "cryptovault-service",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 众筹账本路由
		vaultHandler := handler.NewVaultHandler(fundingLogic, c)
		projects := v1.Group("/projects")
		{
			projects.POST("", vaultHandler.CreateProject)
			projects.GET("", vaultHandler.GetProjects)
			projects.GET("/active", vaultHandler.GetActiveProjects)
			projects.GET("/:id", vaultHandler.GetProject)
			projects.GET("/:id/status", vaultHandler.GetProjectStatus)
			projects.GET("/:id/stats", vaultHandler.GetProjectStats)
			projects.POST("/:id/contributions", vaultHandler.Contribute)
			projects.POST("/:id/withdraw", vaultHandler.Withdraw)
		}

		// 订单簿账本路由
		dexHandler := handler.NewDexHandler(orderBook)
		dex := v1.Group("/dex")
		{
			dex.POST("/pairs", dexHandler.CreateTradingPair)
			dex.GET("/pairs/id", dexHandler.GetPairID)
			dex.GET("/pairs/:id", dexHandler.GetTradingPair)
			dex.POST("/orders", dexHandler.CreateOrder)
			dex.GET("/orders/:id", dexHandler.GetOrder)
			dex.POST("/orders/:id/execute", dexHandler.ExecuteOrder)
			dex.POST("/swaps", dexHandler.Swap)
			dex.POST("/liquidity", dexHandler.AddLiquidity)
			dex.POST("/liquidity/remove", dexHandler.RemoveLiquidity)
			dex.GET("/fee-rate", dexHandler.GetDefaultFeeRate)
			dex.GET("/users/:address/orders", dexHandler.GetUserOrders)
			dex.GET("/users/:address/liquidity/:pairId", dexHandler.GetUserLiquidity)
		}

		// 资金账户路由
		treasuryHandler := handler.NewTreasuryHandler(treasury)
		treasuryGroup := v1.Group("/treasury")
		{
			treasuryGroup.POST("/deposit", treasuryHandler.Deposit)
			treasuryGroup.GET("/balances/:address", treasuryHandler.GetBalance)
		}

		// 管理员路由
		admin := v1.Group("/admin")
		{
			admin.PUT("/platform-fee", vaultHandler.UpdatePlatformFee)
			admin.POST("/projects/:id/pause", vaultHandler.EmergencyPause)
			admin.PUT("/dex/fee-rate", dexHandler.UpdateDefaultFeeRate)
			admin.PUT("/dex/pairs/:id/price", dexHandler.UpdatePairPrice)
			admin.POST("/dex/pairs/:id/toggle", dexHandler.TogglePairStatus)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Caller-Address")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
