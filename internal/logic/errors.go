package logic

import "errors"

// 账本错误，每个前置条件对应一个可区分的错误
var (
	// 通用
	ErrInvalidInput = errors.New("输入参数无效")
	ErrUnauthorized = errors.New("无权限执行此操作")

	// 众筹账本
	ErrEmptyTitle        = errors.New("项目标题不能为空")
	ErrInvalidGoal       = errors.New("目标金额必须大于0")
	ErrInvalidDuration   = errors.New("众筹时长必须在1到365天之间")
	ErrProjectNotFound   = errors.New("项目不存在")
	ErrProjectInactive   = errors.New("项目已停止，无法操作")
	ErrInvalidAmount     = errors.New("金额必须大于0")
	ErrNotWithdrawable   = errors.New("未达到目标金额且未到截止时间，无法提现")
	ErrFeeTooHigh        = errors.New("手续费率超过上限")
	ErrInsufficientFunds = errors.New("账户余额不足")

	// 订单簿账本
	ErrSameToken             = errors.New("交易对的两个代币不能相同")
	ErrPairExists            = errors.New("交易对已存在")
	ErrPairNotFound          = errors.New("交易对不存在")
	ErrPairInactive          = errors.New("交易对未激活")
	ErrInvalidAddress        = errors.New("地址格式无效")
	ErrInvalidOrderType      = errors.New("订单类型无效")
	ErrOrderNotFound         = errors.New("订单不存在")
	ErrOrderExecuted         = errors.New("订单已执行")
	ErrSlippageExceeded      = errors.New("输出金额低于最小预期")
	ErrInsufficientLiquidity = errors.New("流动性不足")
	ErrInsufficientShares    = errors.New("流动性份额不足")
	ErrInvalidPrice          = errors.New("价格必须大于0")
)
