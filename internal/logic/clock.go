package logic

import "time"

// Clock 时钟接口，截止时间判断都通过它取当前时间，方便测试注入
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// NewRealClock 创建系统时钟
func NewRealClock() Clock {
	return realClock{}
}
