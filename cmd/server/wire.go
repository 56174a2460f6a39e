//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"github.com/gkr185/vip-pay-service/internal/biz"
	"github.com/gkr185/vip-pay-service/internal/conf"
	"github.com/gkr185/vip-pay-service/internal/data"
	"github.com/gkr185/vip-pay-service/internal/server"
	"github.com/gkr185/vip-pay-service/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Bootstrap, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(server.ProviderSet, data.ProviderSet, biz.ProviderSet, service.ProviderSet, newApp))
}
