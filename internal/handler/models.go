package handler

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	FundingGoal  string `json:"funding_goal" binding:"required"`
	DurationDays int    `json:"duration_days" binding:"required"`
}

// ContributeRequest 隐私贡献请求，amount为随请求转入的明文金额
type ContributeRequest struct {
	Amount          string `json:"amount" binding:"required"`
	EncryptedAmount string `json:"encrypted_amount"`
	Proof           string `json:"proof"`
}

// UpdateFeeRequest 更新费率请求
type UpdateFeeRequest struct {
	FeeBps int64 `json:"fee_bps"`
}

// CreatePairRequest 创建交易对请求
type CreatePairRequest struct {
	TokenA     string `json:"token_a" binding:"required"`
	TokenB     string `json:"token_b" binding:"required"`
	FeeRateBps int64  `json:"fee_rate_bps"`
}

// CreateOrderRequest 创建隐私订单请求
type CreateOrderRequest struct {
	TokenIn            string `json:"token_in" binding:"required"`
	TokenOut           string `json:"token_out" binding:"required"`
	EncryptedAmountIn  string `json:"encrypted_amount_in"`
	EncryptedAmountOut string `json:"encrypted_amount_out"`
	ProofIn            string `json:"proof_in"`
	ProofOut           string `json:"proof_out"`
	OrderType          int    `json:"order_type"`
}

// SwapRequest 兑换请求
type SwapRequest struct {
	TokenIn      string `json:"token_in" binding:"required"`
	TokenOut     string `json:"token_out" binding:"required"`
	AmountIn     string `json:"amount_in" binding:"required"`
	MinAmountOut string `json:"min_amount_out"`
}

// AddLiquidityRequest 添加流动性请求
type AddLiquidityRequest struct {
	TokenA           string `json:"token_a" binding:"required"`
	TokenB           string `json:"token_b" binding:"required"`
	AmountA          string `json:"amount_a" binding:"required"`
	AmountB          string `json:"amount_b" binding:"required"`
	EncryptedAmountA string `json:"encrypted_amount_a"`
	EncryptedAmountB string `json:"encrypted_amount_b"`
	ProofA           string `json:"proof_a"`
	ProofB           string `json:"proof_b"`
}

// RemoveLiquidityRequest 移除流动性请求
type RemoveLiquidityRequest struct {
	TokenA string `json:"token_a" binding:"required"`
	TokenB string `json:"token_b" binding:"required"`
	Shares string `json:"shares" binding:"required"`
}

// UpdatePriceRequest 更新价格请求
type UpdatePriceRequest struct {
	Price string `json:"price" binding:"required"`
}

// DepositRequest 充值请求（管理员）
type DepositRequest struct {
	Address string `json:"address" binding:"required"`
	Token   string `json:"token"`
	Amount  string `json:"amount" binding:"required"`
}
