//go:build wireinject
// +build wireinject

package main

import (
	"os"

	"github.com/gkr185/vip-pay-service/internal/biz"
	"github.com/gkr185/vip-pay-service/internal/conf"
	"github.com/gkr185/vip-pay-service/internal/data"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// CronApp Cron 应用结构
type CronApp struct {
	payment     *biz.PaymentUsecase
	entitlement *biz.EntitlementUsecase
}

// wireApp 初始化应用
func wireApp(*conf.Bootstrap) (*CronApp, func(), error) {
	panic(wire.Build(
		// Logger
		newLogger,

		// Data 层
		data.ProviderSet,

		// Biz 层
		biz.ProviderSet,

		// App 结构
		wire.Struct(new(CronApp), "*"),
	))
}

// newLogger 创建 logger
func newLogger() log.Logger {
	return log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", "vip-pay-cron",
	)
}
