package logger

import (
	"go.uber.org/zap"
)

// NewLogger builds the production logger used by every component.
func NewLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}

// NewDevelopmentLogger 开发环境使用，输出可读的控制台格式
func NewDevelopmentLogger() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return l
}
