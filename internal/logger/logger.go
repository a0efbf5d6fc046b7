// Package logger 在进程启动时装配全局 zap 日志器。
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger 按配置的级别构建日志器并替换全局实例，
// 此后各处统一通过 zap.L() 记录。无法识别的级别回退到 info。
func InitLogger(logLevel string) {
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level.SetLevel(level)

	lgr, err := cfg.Build()
	if err != nil {
		panic(fmt.Errorf("构建日志器失败: %w", err))
	}

	zap.ReplaceGlobals(lgr)
}
